// Package source provides page-addressable text extraction from documents.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoDocument is returned when an operation requires a loaded document.
	ErrNoDocument = errors.New("no document loaded")
	// ErrPageOutOfRange is returned for page indexes outside [0, PageCount).
	ErrPageOutOfRange = errors.New("page index out of range")
	// ErrNotFound is returned when the document file does not exist.
	ErrNotFound = errors.New("document file not found")
	// ErrCorrupted is returned when the document cannot be parsed.
	ErrCorrupted = errors.New("document is corrupted or invalid")
	// ErrEmptyDocument is returned when the document contains no pages.
	ErrEmptyDocument = errors.New("document contains no pages")
	// ErrUnsupported is returned for file types without a reader.
	ErrUnsupported = errors.New("unsupported file extension")
)

// Document describes an opened document. It is immutable once opened.
type Document struct {
	Title     string `json:"title"`
	Path      string `json:"path"`
	PageCount int    `json:"page_count"`
}

// Source extracts plain text for a page of an opened document. Page indexes
// are 0-based. Extraction may be IO-bound; callers serialize access — a
// Source is not required to be safe for concurrent Extract calls.
type Source interface {
	Document() Document
	PageCount() int
	Extract(pageIndex int) (string, error)
	Close() error
}

// SupportedExtensions lists file extensions this package can open.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Options controls how non-paginated formats are split into synthetic pages.
type Options struct {
	// ParagraphsPerPage groups this many paragraphs into one synthetic page
	// for formats without native pagination. Defaults to 10.
	ParagraphsPerPage int
}

func (o Options) paragraphsPerPage() int {
	if o.ParagraphsPerPage <= 0 {
		return 10
	}
	return o.ParagraphsPerPage
}

// Open opens the document at path with the reader matching its extension.
// PDF pages map to real pages; other formats are paginated by paragraph
// count per Options.
func Open(path string, opts Options) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return openPDF(path)
	case ".txt":
		return openText(path, opts)
	case ".md", ".markdown":
		return openMarkdown(path, opts)
	case ".html", ".htm":
		return openHTML(path, opts)
	case ".docx":
		return openDOCX(path, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

// memorySource backs formats that are parsed fully at open time. Pages are
// extracted eagerly, so Extract never fails except for range errors.
type memorySource struct {
	doc   Document
	pages []string
}

func newMemorySource(path, titleExt string, pages []string) (*memorySource, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}
	return &memorySource{
		doc: Document{
			Title:     strings.TrimSuffix(filepath.Base(path), titleExt),
			Path:      path,
			PageCount: len(pages),
		},
		pages: pages,
	}, nil
}

func (s *memorySource) Document() Document { return s.doc }

func (s *memorySource) PageCount() int { return len(s.pages) }

func (s *memorySource) Extract(pageIndex int) (string, error) {
	if pageIndex < 0 || pageIndex >= len(s.pages) {
		return "", fmt.Errorf("%w: %d (document has %d pages)", ErrPageOutOfRange, pageIndex, len(s.pages))
	}
	return s.pages[pageIndex], nil
}

func (s *memorySource) Close() error { return nil }
