package speech

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRemoteSink_Validation(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	_, err := NewRemoteSink(RemoteConfig{}, log)
	assert.Error(t, err, "missing URL must be rejected")

	_, err = NewRemoteSink(RemoteConfig{URL: "http://localhost:1", Rate: 50}, log)
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = NewRemoteSink(RemoteConfig{URL: "http://localhost:1", Volume: 250}, log)
	assert.ErrorIs(t, err, ErrInvalidVolume)
}

func TestRemoteSink_SynthesizeSendsRateAndVolume(t *testing.T) {
	var got synthesisRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("RIFFfake-wav-bytes"))
	}))
	defer srv.Close()

	sink, err := NewRemoteSink(RemoteConfig{URL: srv.URL, APIKey: "secret", Voice: "en-1"}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NoError(t, sink.SetRate(320))
	require.NoError(t, sink.SetVolume(40))

	audio, err := sink.synthesize(context.Background(), "Hello.")
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFfake-wav-bytes"), audio)

	assert.Equal(t, "Hello.", got.Text)
	assert.Equal(t, "en-1", got.Voice)
	assert.Equal(t, 320, got.WordsPerMin)
	assert.InDelta(t, 0.4, got.Volume, 1e-9)
}

func TestRemoteSink_SynthesizeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"voice unavailable"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	sink, err := NewRemoteSink(RemoteConfig{URL: srv.URL}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	_, err = sink.synthesize(context.Background(), "Hello.")
	assert.ErrorContains(t, err, "voice unavailable")
}

func TestRemoteSink_SpeakCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	sink, err := NewRemoteSink(RemoteConfig{URL: srv.URL}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = sink.Speak(ctx, "Hello.")
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestRemoteSink_SpeakEmptyTextIsNoop(t *testing.T) {
	sink, err := NewRemoteSink(RemoteConfig{URL: "http://127.0.0.1:1"}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.NoError(t, sink.Speak(context.Background(), ""))
}

func TestCommandSink_RateVolumeBounds(t *testing.T) {
	sink, err := NewCommandSink(CommandConfig{}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	assert.NoError(t, sink.SetRate(MinRate))
	assert.NoError(t, sink.SetRate(MaxRate))
	assert.ErrorIs(t, sink.SetRate(MinRate-1), ErrInvalidRate)
	assert.ErrorIs(t, sink.SetRate(MaxRate+1), ErrInvalidRate)

	assert.NoError(t, sink.SetVolume(MinVolume))
	assert.NoError(t, sink.SetVolume(MaxVolume))
	assert.ErrorIs(t, sink.SetVolume(101), ErrInvalidVolume)
	assert.ErrorIs(t, sink.SetVolume(-1), ErrInvalidVolume)
}
