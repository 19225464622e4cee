package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// openMarkdown parses Markdown with goldmark and flattens it to readable
// paragraphs. Headings become their own paragraphs so section titles are
// spoken before their content.
func openMarkdown(path string, opts Options) (Source, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var paragraphs []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := string(node.Text(src))
			if title != "" {
				paragraphs = append(paragraphs, title)
			}
		default:
			if t := mdText(n, src); t != "" {
				paragraphs = append(paragraphs, t)
			}
		}
	}

	pages := paginate(paragraphs, opts.paragraphsPerPage())
	return newMemorySource(path, filepath.Ext(path), pages)
}

// mdText gets the text content of a goldmark AST node.
func mdText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	// Also collect inline children not covered by block lines.
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(mdText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
