package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhutchins/readaloud/internal/playback"
	"github.com/mhutchins/readaloud/internal/position"
	"github.com/mhutchins/readaloud/internal/source"
	"github.com/mhutchins/readaloud/internal/tui"
)

var (
	readPage     int
	readNoResume bool
	readRate     int
	readVolume   int
)

var readCmd = &cobra.Command{
	Use:   "read <file>",
	Short: "Read a document aloud in the terminal",
	Long: `Read opens a document and plays it through the configured speech
engine, with an interactive progress view.

Controls:
  space - pause / resume
  s     - stop
  +/-   - adjust speaking rate
  q     - quit`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func init() {
	readCmd.Flags().IntVar(&readPage, "page", 0, "start page (1-based, overrides saved position)")
	readCmd.Flags().BoolVar(&readNoResume, "no-resume", false, "ignore the saved position")
	readCmd.Flags().IntVar(&readRate, "rate", 0, "speaking rate in words per minute")
	readCmd.Flags().IntVar(&readVolume, "volume", -1, "volume percent (0-100)")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if readRate > 0 {
		cfg.Speech.RateWPM = readRate
	}
	if readVolume >= 0 {
		cfg.Speech.Volume = readVolume
	}

	// The TUI owns the terminal; logs would tear the view.
	log := slog.New(slog.DiscardHandler)

	sink, err := newSink(cfg, log)
	if err != nil {
		return err
	}

	src, err := source.Open(args[0], source.Options{ParagraphsPerPage: cfg.Playback.ParagraphsPerPage})
	if err != nil {
		return err
	}

	ctrl := playback.New(sink, log, playback.Options{
		ChunkSize:   cfg.Playback.ChunkSize,
		JoinTimeout: cfg.Playback.JoinTimeout(),
	})
	ctrl.Load(src)
	defer ctrl.Close()

	doc := src.Document()
	startPage, store := resolveStartPage(cmd.Context(), cfg.Storage.DataDir, doc)
	if store != nil {
		defer store.Close()
		defer saveFinalPosition(ctrl, store, doc)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reading %s (%d pages) from page %d\n", doc.Title, doc.PageCount, startPage)
	return tui.Run(ctrl, startPage, cfg.Speech.RateWPM)
}

// resolveStartPage picks the start page from the --page flag, the saved
// position, or page one, in that order. The returned store is nil when
// positions are unavailable.
func resolveStartPage(ctx context.Context, dataDir string, doc source.Document) (int, *position.Store) {
	store, err := position.NewStore(dataDir)
	if err != nil {
		store = nil
	}

	if readPage > 0 {
		return readPage, store
	}
	if readNoResume || store == nil {
		return 1, store
	}

	getCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	pos, err := store.Get(getCtx, doc.Path)
	if err != nil || pos.Page < 1 || pos.Page > doc.PageCount {
		return 1, store
	}
	return pos.Page, store
}

// saveFinalPosition persists where the reader left off. A session that ended
// naturally has no snapshot page and keeps whatever the hooks last saved.
func saveFinalPosition(ctrl *playback.Controller, store *position.Store, doc source.Document) {
	snap := ctrl.Status()
	if snap.Page < 1 || snap.Page > doc.PageCount {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = store.Save(ctx, position.Position{
		DocumentPath: doc.Path,
		Page:         snap.Page,
		TotalPages:   doc.PageCount,
	})
}
