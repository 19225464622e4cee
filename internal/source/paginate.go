package source

import "strings"

// paginate groups paragraphs into synthetic pages of perPage paragraphs.
// Blank paragraphs are dropped before grouping.
func paginate(paragraphs []string, perPage int) []string {
	var clean []string
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p != "" {
			clean = append(clean, p)
		}
	}

	var pages []string
	for start := 0; start < len(clean); start += perPage {
		end := start + perPage
		if end > len(clean) {
			end = len(clean)
		}
		pages = append(pages, strings.Join(clean[start:end], "\n\n"))
	}
	return pages
}

// splitParagraphs splits text into paragraphs on blank lines.
func splitParagraphs(text string) []string {
	var paragraphs []string
	var current strings.Builder

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return paragraphs
}
