package source

import (
	"bufio"
	"os"
	"strings"
)

// openText reads a plain text file. Form feeds mark explicit page breaks;
// without them, paragraphs are grouped into synthetic pages.
func openText(path string, opts Options) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sb strings.Builder
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	text := sb.String()

	var pages []string
	if strings.Contains(text, "\f") {
		for _, p := range strings.Split(text, "\f") {
			if strings.TrimSpace(p) != "" {
				pages = append(pages, strings.TrimSpace(p))
			}
		}
	} else {
		pages = paginate(splitParagraphs(text), opts.paragraphsPerPage())
	}

	return newMemorySource(path, ".txt", pages)
}
