package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhutchins/readaloud/internal/api"
	"github.com/mhutchins/readaloud/internal/playback"
	"github.com/mhutchins/readaloud/internal/position"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP control API",
	Long: `Serve runs readaloud as a long-lived service controlled over HTTP,
with a websocket feed for playback progress events.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	sink, err := newSink(cfg, log)
	if err != nil {
		return err
	}

	ctrl := playback.New(sink, log, playback.Options{
		ChunkSize:   cfg.Playback.ChunkSize,
		JoinTimeout: cfg.Playback.JoinTimeout(),
	})
	defer ctrl.Close()

	positions, err := position.NewStore(cfg.Storage.DataDir)
	if err != nil {
		log.Warn("resume positions unavailable", "error", err)
		positions = nil
	} else {
		defer positions.Close()
	}

	srv := api.NewServer(ctrl, positions, log, cfg)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-cmd.Context().Done():
		}
		log.Info("shutting down...")

		ctrl.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting readaloud", "port", cfg.Server.Port, "engine", cfg.Speech.Engine)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
