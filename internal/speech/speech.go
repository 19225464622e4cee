// Package speech renders text to audible output.
package speech

import (
	"context"
	"errors"
)

// Rate and volume bounds accepted by SetRate and SetVolume. Volume is a
// percentage in [0, 100]; rate is words per minute in [MinRate, MaxRate].
const (
	MinRate   = 100
	MaxRate   = 500
	MinVolume = 0
	MaxVolume = 100
)

var (
	// ErrInvalidRate is returned for rates outside [MinRate, MaxRate].
	ErrInvalidRate = errors.New("rate out of range")
	// ErrInvalidVolume is returned for volumes outside [MinVolume, MaxVolume].
	ErrInvalidVolume = errors.New("volume out of range")
	// ErrInterrupted is returned when a Speak call is cancelled mid-utterance.
	ErrInterrupted = errors.New("speech interrupted")
)

// Sink renders one text unit to audio, blocking until audible playback of
// that unit completes. Speak must honor ctx cancellation promptly: an
// in-flight utterance is interrupted rather than played out.
type Sink interface {
	SetRate(wordsPerMinute int) error
	SetVolume(percent int) error
	Speak(ctx context.Context, text string) error
}

func validRate(wpm int) error {
	if wpm < MinRate || wpm > MaxRate {
		return ErrInvalidRate
	}
	return nil
}

func validVolume(percent int) error {
	if percent < MinVolume || percent > MaxVolume {
		return ErrInvalidVolume
	}
	return nil
}
