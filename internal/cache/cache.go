// Package cache memoizes page text extracted from a source, keyed by
// contiguous page ranges. It is a document-scoped memoization cache, not an
// LRU: entries are cleared wholesale when the document changes and growth is
// bounded by the document itself.
package cache

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mhutchins/readaloud/internal/source"
)

// Key identifies a cached chunk: a contiguous page range starting at Start
// (0-based) spanning Size pages.
type Key struct {
	Start int
	Size  int
}

// Cache memoizes extracted page text. It serializes access to the underlying
// source, so the playback worker and the prefetch goroutine may call it
// concurrently.
type Cache struct {
	mu     sync.Mutex
	src    source.Source
	pages  map[int]string
	chunks map[Key]string
	log    *slog.Logger
}

// New creates a cache over src.
func New(src source.Source, log *slog.Logger) *Cache {
	return &Cache{
		src:    src,
		pages:  make(map[int]string),
		chunks: make(map[Key]string),
		log:    log,
	}
}

// Chunk returns the concatenated text of the pages in [start, start+size),
// clipped to the document. Pages are joined with a single newline and the
// result is trimmed. A page whose extraction fails contributes empty text;
// the failure is logged and never aborts the chunk. Results are memoized by
// (start, size); the source is not re-invoked for a known key.
func (c *Cache) Chunk(start, size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("chunk size must be positive, got %d", size)
	}
	total := c.src.PageCount()
	if start < 0 || start >= total {
		return "", fmt.Errorf("%w: chunk start %d (document has %d pages)", source.ErrPageOutOfRange, start, total)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key{Start: start, Size: size}
	if text, ok := c.chunks[key]; ok {
		return text, nil
	}

	end := start + size
	if end > total {
		end = total
	}

	parts := make([]string, 0, end-start)
	for page := start; page < end; page++ {
		parts = append(parts, c.pageLocked(page))
	}

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	c.chunks[key] = text
	return text, nil
}

// Page returns the extracted text of a single page, memoized. Unlike Chunk,
// an extraction failure is returned to the caller so it can decide the skip
// policy for that page.
func (c *Cache) Page(page int) (string, error) {
	total := c.src.PageCount()
	if page < 0 || page >= total {
		return "", fmt.Errorf("%w: page %d (document has %d pages)", source.ErrPageOutOfRange, page, total)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if text, ok := c.pages[page]; ok {
		return text, nil
	}
	text, err := c.src.Extract(page)
	if err != nil {
		return "", err
	}
	c.pages[page] = text
	return text, nil
}

// pageLocked extracts a page under the cache lock, mapping failures to empty
// text. Callers hold c.mu.
func (c *Cache) pageLocked(page int) string {
	if text, ok := c.pages[page]; ok {
		return text
	}
	text, err := c.src.Extract(page)
	if err != nil {
		c.log.Warn("page extraction failed inside chunk", "page", page, "error", err)
		return ""
	}
	c.pages[page] = text
	return text
}

// Preload warms the chunk for [start, start+size) on a detached goroutine.
// Failures are logged, never surfaced, and never block the caller.
func (c *Cache) Preload(start, size int) {
	go func() {
		if _, err := c.Chunk(start, size); err != nil {
			c.log.Warn("chunk preload failed", "start", start, "size", size, "error", err)
		}
	}()
}

// Invalidate clears all cached entries. Called when the document changes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = make(map[int]string)
	c.chunks = make(map[Key]string)
}
