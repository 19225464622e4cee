// Package segment splits page text into speakable sentence units.
package segment

import "strings"

// Split breaks text into sentences on terminator punctuation. Each emitted
// segment is trimmed, non-empty, and keeps its terminator so speech keeps a
// natural cadence. A trailing remainder without a terminator is emitted with
// a period appended. Output order follows document order.
func Split(text string) []string {
	var segments []string
	var current strings.Builder

	flush := func(terminator rune) {
		s := strings.TrimSpace(current.String())
		current.Reset()
		if s == "" {
			return
		}
		segments = append(segments, s+string(terminator))
	}

	for _, r := range text {
		switch r {
		case '.', '!', '?':
			flush(r)
		default:
			current.WriteRune(r)
		}
	}
	flush('.')

	return segments
}
