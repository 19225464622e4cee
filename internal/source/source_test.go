package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIsSupportedExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"book.pdf", true},
		{"notes.txt", true},
		{"readme.md", true},
		{"readme.markdown", true},
		{"page.html", true},
		{"page.htm", true},
		{"report.docx", true},
		{"REPORT.DOCX", true},
		{"archive.zip", false},
		{"noext", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsSupportedExtension(tt.filename); got != tt.want {
			t.Errorf("IsSupportedExtension(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.txt"), Options{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOpen_UnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "data.csv", "a,b,c\n1,2,3\n")
	_, err := Open(path, Options{})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestOpenText_FormFeedPages(t *testing.T) {
	path := writeTemp(t, "book.txt", "Page one text.\n\fPage two text.\n\fPage three.\n")

	src, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if src.PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3", src.PageCount())
	}
	got, err := src.Extract(1)
	if err != nil {
		t.Fatalf("Extract(1): %v", err)
	}
	if got != "Page two text." {
		t.Errorf("Extract(1) = %q", got)
	}
	if src.Document().Title != "book" {
		t.Errorf("Title = %q, want book", src.Document().Title)
	}
}

func TestOpenText_ParagraphPagination(t *testing.T) {
	// 5 paragraphs at 2 per page -> 3 pages.
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		sb.WriteString("Paragraph body line.\n\n")
	}
	path := writeTemp(t, "notes.txt", sb.String())

	src, err := Open(path, Options{ParagraphsPerPage: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if src.PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3", src.PageCount())
	}
	last, err := src.Extract(2)
	if err != nil {
		t.Fatalf("Extract(2): %v", err)
	}
	if strings.Count(last, "Paragraph body line.") != 1 {
		t.Errorf("last page = %q, want single remainder paragraph", last)
	}
}

func TestOpenText_Empty(t *testing.T) {
	path := writeTemp(t, "empty.txt", "\n\n   \n")
	_, err := Open(path, Options{})
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("err = %v, want ErrEmptyDocument", err)
	}
}

func TestOpenMarkdown_HeadingsAndParagraphs(t *testing.T) {
	md := "# Title\n\nFirst paragraph here.\n\n## Section\n\nSecond paragraph here.\n"
	path := writeTemp(t, "doc.md", md)

	src, err := Open(path, Options{ParagraphsPerPage: 100})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if src.PageCount() != 1 {
		t.Fatalf("PageCount = %d, want 1", src.PageCount())
	}
	text, err := src.Extract(0)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Title", "First paragraph here.", "Section", "Second paragraph here."} {
		if !strings.Contains(text, want) {
			t.Errorf("page text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "#") {
		t.Errorf("markdown syntax leaked into page text: %q", text)
	}
}

func TestOpenHTML_SkipsChrome(t *testing.T) {
	html := `<html><head><title>T</title><style>body{}</style></head>
<body>
<nav>Skip nav</nav>
<h1>Chapter One</h1>
<p>Body paragraph here.</p>
<script>alert(1)</script>
<footer>Skip footer</footer>
</body></html>`
	path := writeTemp(t, "page.html", html)

	src, err := Open(path, Options{ParagraphsPerPage: 100})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	text, err := src.Extract(0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "Chapter One") || !strings.Contains(text, "Body paragraph here.") {
		t.Errorf("page text = %q", text)
	}
	for _, skip := range []string{"Skip nav", "Skip footer", "alert"} {
		if strings.Contains(text, skip) {
			t.Errorf("page text contains excluded content %q", skip)
		}
	}
}

func TestMemorySource_ExtractRange(t *testing.T) {
	src, err := newMemorySource("/tmp/x.txt", ".txt", []string{"one", "two"})
	if err != nil {
		t.Fatal(err)
	}

	for _, idx := range []int{-1, 2, 100} {
		if _, err := src.Extract(idx); !errors.Is(err, ErrPageOutOfRange) {
			t.Errorf("Extract(%d) err = %v, want ErrPageOutOfRange", idx, err)
		}
	}
	got, err := src.Extract(0)
	if err != nil || got != "one" {
		t.Errorf("Extract(0) = %q, %v", got, err)
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		paragraphs []string
		perPage    int
		wantPages  int
	}{
		{"exact multiple", []string{"a", "b", "c", "d"}, 2, 2},
		{"remainder", []string{"a", "b", "c"}, 2, 2},
		{"single page", []string{"a", "b"}, 10, 1},
		{"drops blanks", []string{"a", "  ", "", "b"}, 1, 2},
		{"empty input", nil, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paginate(tt.paragraphs, tt.perPage)
			if len(got) != tt.wantPages {
				t.Errorf("paginate() = %d pages, want %d", len(got), tt.wantPages)
			}
		})
	}
}

func TestSplitParagraphs(t *testing.T) {
	text := "line one\nline two\n\nsecond para\n\n\nthird para\n"
	got := splitParagraphs(text)
	want := []string{"line one\nline two", "second para", "third para"}
	if len(got) != len(want) {
		t.Fatalf("got %d paragraphs %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paragraph[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
