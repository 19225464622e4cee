package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// pdfSource extracts PDF pages lazily. The file handle stays open for the
// lifetime of the source so page text is only pulled when a page is read.
type pdfSource struct {
	doc    Document
	file   *os.File
	reader *pdflib.Reader
}

func openPDF(path string) (*pdfSource, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	return &pdfSource{
		doc: Document{
			Title:     strings.TrimSuffix(filepath.Base(path), ".pdf"),
			Path:      path,
			PageCount: numPages,
		},
		file:   f,
		reader: reader,
	}, nil
}

func (s *pdfSource) Document() Document { return s.doc }

func (s *pdfSource) PageCount() int { return s.doc.PageCount }

func (s *pdfSource) Extract(pageIndex int) (string, error) {
	if pageIndex < 0 || pageIndex >= s.doc.PageCount {
		return "", fmt.Errorf("%w: %d (document has %d pages)", ErrPageOutOfRange, pageIndex, s.doc.PageCount)
	}

	// ledongthuc/pdf pages are 1-based.
	page := s.reader.Page(pageIndex + 1)
	if page.V.IsNull() {
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract pdf page %d: %w", pageIndex+1, err)
	}
	return strings.TrimSpace(text), nil
}

func (s *pdfSource) Close() error {
	return s.file.Close()
}
