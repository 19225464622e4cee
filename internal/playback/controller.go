// Package playback coordinates text extraction, segmentation and speech into
// a cancellable, resumable reading session with published progress.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mhutchins/readaloud/internal/cache"
	"github.com/mhutchins/readaloud/internal/segment"
	"github.com/mhutchins/readaloud/internal/source"
	"github.com/mhutchins/readaloud/internal/speech"
)

// ErrAlreadyPlaying is returned when Play is called while a session is
// active. Callers must Stop the current session first; the controller never
// restarts implicitly.
var ErrAlreadyPlaying = errors.New("a playback session is already active")

// Error kinds passed to Hooks.OnError.
const (
	KindSpeech  = "speech_failed"
	KindSession = "session_failed"
)

// Hooks are observer callbacks. They are invoked from the background worker
// goroutine; implementations must hand off to their own context (event loop,
// channel) rather than block.
type Hooks struct {
	OnProgress func(page int, percent float64, etaSeconds float64)
	OnError    func(kind, message string)
	OnFinished func()
}

// Options tunes the controller.
type Options struct {
	// ChunkSize is the number of pages fetched and cached together.
	// Chunking is a prefetch granularity only; playback always advances one
	// page at a time. Defaults to 5.
	ChunkSize int
	// JoinTimeout bounds how long Stop waits for the worker to exit before
	// proceeding with cleanup. Defaults to 1s.
	JoinTimeout time.Duration
	// EndAnnouncement is spoken when the document finishes naturally.
	EndAnnouncement string
}

func (o Options) chunkSize() int {
	if o.ChunkSize <= 0 {
		return 5
	}
	return o.ChunkSize
}

func (o Options) joinTimeout() time.Duration {
	if o.JoinTimeout <= 0 {
		return time.Second
	}
	return o.JoinTimeout
}

func (o Options) endAnnouncement() string {
	if o.EndAnnouncement == "" {
		return "End of document reached"
	}
	return o.EndAnnouncement
}

// Controller is the playback state machine. At most one background worker
// exists at a time; all mutating calls are safe from any goroutine.
type Controller struct {
	sink speech.Sink
	log  *slog.Logger
	opts Options

	mu      sync.Mutex
	state   State
	hooks   Hooks
	src     source.Source
	doc     source.Document
	cache   *cache.Cache
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}
	resumeC chan struct{}
}

// New creates an idle controller speaking through sink.
func New(sink speech.Sink, log *slog.Logger, opts Options) *Controller {
	return &Controller{
		sink:  sink,
		log:   log,
		opts:  opts,
		state: StateIdle,
	}
}

// SetHooks registers observer callbacks.
func (c *Controller) SetHooks(h Hooks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = h
}

// Load replaces the current document. Any active session is stopped and
// joined first, so the swap is never concurrent with a running worker; the
// previous source is closed and its cache discarded.
func (c *Controller) Load(src source.Source) {
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.src != nil {
		if err := c.src.Close(); err != nil {
			c.log.Warn("closing previous document", "error", err)
		}
	}
	if c.cache != nil {
		c.cache.Invalidate()
	}
	c.src = src
	c.doc = src.Document()
	c.cache = cache.New(src, c.log)
}

// Document returns the loaded document, if any.
func (c *Controller) Document() (source.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc, c.src != nil
}

// Play starts a session at startPage (1-based). It fails with
// source.ErrNoDocument when nothing is loaded, source.ErrPageOutOfRange for
// pages outside [1, PageCount] and ErrAlreadyPlaying while a session is
// active. No worker is spawned on any failure.
func (c *Controller) Play(startPage int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.src == nil {
		return source.ErrNoDocument
	}
	if c.state != StateIdle {
		return ErrAlreadyPlaying
	}
	total := c.doc.PageCount
	if startPage < 1 || startPage > total {
		return fmt.Errorf("%w: start page %d not in [1, %d]", source.ErrPageOutOfRange, startPage, total)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := newSession(startPage, total)
	c.session = sess
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = StatePlaying

	go c.run(ctx, sess, c.cache, c.done)
	return nil
}

// Pause halts the worker before the next segment. A no-op unless playing.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePlaying {
		return
	}
	c.state = StatePaused
	c.resumeC = make(chan struct{})
}

// Resume continues from the exact segment where playback paused. A no-op
// unless paused.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePaused {
		return
	}
	c.state = StatePlaying
	close(c.resumeC)
	c.resumeC = nil
}

// Stop cancels the session and joins the worker with a bounded timeout.
// When Stop returns no speech is in flight and the controller is Idle with
// progress reset. Calling Stop while idle is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	c.state = StateStopping
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(c.opts.joinTimeout()):
		// Cleanup must not hang the caller; the worker will observe the
		// cancelled context at its next checkpoint.
		c.log.Warn("worker did not exit within join timeout, proceeding with cleanup")
	}

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
}

// Close stops playback and releases the document source.
func (c *Controller) Close() {
	c.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.src != nil {
		if err := c.src.Close(); err != nil {
			c.log.Warn("closing document", "error", err)
		}
		c.src = nil
		c.cache = nil
		c.doc = source.Document{}
	}
}

// SetRate forwards a rate change to the sink, effective from the next
// utterance.
func (c *Controller) SetRate(wordsPerMinute int) error {
	return c.sink.SetRate(wordsPerMinute)
}

// SetVolume forwards a volume change to the sink.
func (c *Controller) SetVolume(percent int) error {
	return c.sink.SetVolume(percent)
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns a progress snapshot. While idle it reports page 0 and zero
// percent.
func (c *Controller) Status() Snapshot {
	c.mu.Lock()
	state := c.state
	sess := c.session
	total := c.doc.PageCount
	c.mu.Unlock()

	if sess == nil {
		return Snapshot{State: state, TotalPages: total, ETASeconds: -1}
	}
	snap := sess.Snapshot()
	snap.State = state
	return snap
}

// resetLocked releases the session and returns to Idle. Callers hold c.mu.
func (c *Controller) resetLocked() {
	c.state = StateIdle
	c.session = nil
	c.cancel = nil
	c.done = nil
	c.resumeC = nil
}

// run is the background worker. Every exit path reaches Idle.
func (c *Controller) run(ctx context.Context, sess *Session, pages *cache.Cache, done chan struct{}) {
	log := c.log.With("session_id", sess.id, "start_page", sess.startPage)

	finished := c.readPages(ctx, sess, pages, log)

	if finished {
		if err := c.sink.Speak(ctx, c.opts.endAnnouncement()); err != nil && ctx.Err() == nil {
			log.Warn("end-of-document announcement failed", "error", err)
		}
		if c.sessionCurrent(sess) {
			c.emitFinished()
			log.Info("session finished", "pages_read", sess.totalPages-sess.startPage+1)
		}
	}

	c.mu.Lock()
	// After Stop has taken over (Stopping), Stop owns the reset. A worker
	// that outlived its join timeout finds its session already replaced and
	// must not touch the successor's state.
	if c.session == sess && c.state != StateStopping {
		c.resetLocked()
	}
	c.mu.Unlock()
	close(done)
}

// readPages walks pages in increasing order, speaking each page's segments
// strictly in document order. It returns true on natural completion and
// false when cancelled.
func (c *Controller) readPages(ctx context.Context, sess *Session, pages *cache.Cache, log *slog.Logger) bool {
	chunkSize := c.opts.chunkSize()
	speechFailStreak := 0

	for page := sess.startPage; page <= sess.totalPages; page++ {
		if ctx.Err() != nil {
			return false
		}
		if !c.waitWhilePaused(ctx) {
			return false
		}

		// Warm the chunk covering this page and prefetch the next one when
		// entering a chunk boundary. Chunking never changes the page step.
		offset := page - sess.startPage
		if offset%chunkSize == 0 {
			chunkStart := (sess.startPage - 1) + offset
			if _, err := pages.Chunk(chunkStart, chunkSize); err != nil {
				log.Warn("chunk fetch failed", "start", chunkStart, "error", err)
			}
			if next := chunkStart + chunkSize; next < sess.totalPages {
				pages.Preload(next, chunkSize)
			}
		}

		text, err := pages.Page(page - 1)
		if err != nil {
			// One bad page never aborts the session.
			log.Warn("page extraction failed, skipping page", "page", page, "error", err)
			c.advance(sess, page)
			continue
		}

		segments := segment.Split(text)
		if len(segments) == 0 {
			log.Info("empty page skipped", "page", page)
			c.advance(sess, page)
			continue
		}

		completed, spoke := c.speakPage(ctx, sess, page, segments, log)
		if !completed {
			return false
		}
		if spoke {
			speechFailStreak = 0
		} else {
			speechFailStreak++
			if speechFailStreak >= maxSpeechFailPages {
				// The sink is failing persistently; abort the session
				// rather than walking the rest of the document in silence.
				log.Error("speech sink failing persistently, aborting session", "pages", speechFailStreak)
				c.emitError(KindSession, "speech sink is failing persistently")
				return false
			}
		}
		c.advance(sess, page)
	}
	return ctx.Err() == nil
}

// maxSpeechFailPages is the number of consecutive pages with no successful
// utterance after which a session is treated as failed.
const maxSpeechFailPages = 3

// speakPage speaks one page's segments in order, checking cancellation and
// pause between segments. completed is false when the session was cancelled;
// spoke reports whether at least one segment was rendered.
func (c *Controller) speakPage(ctx context.Context, sess *Session, page int, segments []string, log *slog.Logger) (completed, spoke bool) {
	for i, seg := range segments {
		if ctx.Err() != nil {
			return false, spoke
		}
		if !c.waitWhilePaused(ctx) {
			return false, spoke
		}

		if err := c.sink.Speak(ctx, seg); err != nil {
			if ctx.Err() != nil {
				return false, spoke
			}
			// Skip the remaining segments of this page, keep the session.
			log.Error("speech failed, skipping rest of page", "page", page, "segment", i, "error", err)
			c.emitError(KindSpeech, err.Error())
			return true, spoke
		}
		spoke = true

		if c.sessionCurrent(sess) {
			sess.setSegmentProgress(i+1, len(segments))
			c.publishProgress(sess)
		}
	}
	return true, spoke
}

// advance moves the session to the page after page and publishes the page
// transition with segment progress reset to zero.
func (c *Controller) advance(sess *Session, page int) {
	sess.advancePage(page + 1)
	if page+1 <= sess.totalPages {
		c.publishProgress(sess)
	}
}

// waitWhilePaused blocks while the controller is paused, waking on Resume or
// cancellation. No lock is held while waiting. It returns false when the
// context was cancelled.
func (c *Controller) waitWhilePaused(ctx context.Context) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		c.mu.Lock()
		if c.state != StatePaused {
			c.mu.Unlock()
			return true
		}
		resumed := c.resumeC
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return false
		case <-resumed:
		}
	}
}

// sessionCurrent reports whether sess still owns the controller. A stale
// worker left behind by a timed-out Stop gets false.
func (c *Controller) sessionCurrent(sess *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session == sess
}

func (c *Controller) publishProgress(sess *Session) {
	c.mu.Lock()
	onProgress := c.hooks.OnProgress
	current := c.session == sess
	c.mu.Unlock()
	if !current || onProgress == nil {
		return
	}
	snap := sess.Snapshot()
	onProgress(snap.Page, snap.Percent, snap.ETASeconds)
}

func (c *Controller) emitError(kind, message string) {
	c.mu.Lock()
	onError := c.hooks.OnError
	c.mu.Unlock()
	if onError != nil {
		onError(kind, message)
	}
}

func (c *Controller) emitFinished() {
	c.mu.Lock()
	onFinished := c.hooks.OnFinished
	c.mu.Unlock()
	if onFinished != nil {
		onFinished()
	}
}
