package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/auditor/internal/session"
	"github.com/sprite-ai/auditor/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review <file>...",
	Short: "Open an interactive audit session",
	Long: `Open the terminal editor on one or more files. Lines are shaded by their
audit state and comment threads are shown inline.

Examples:
  auditor review main.go
  auditor review --author alice src/*.cpp
  auditor review --log-file /tmp/auditor.log server.go`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().String("author", "", "name attached to new comments (overrides config)")
	reviewCmd.Flags().String("log-file", "", "write logs to this file instead of discarding them")
}

func runReview(cmd *cobra.Command, args []string) error {
	files := make([]tui.SourceFile, 0, len(args))
	for _, name := range args {
		data, err := os.ReadFile(name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		files = append(files, tui.NewSourceFile(name, string(data)))
	}

	// The terminal belongs to the editor, so logs go to a file or nowhere.
	log := slog.New(slog.DiscardHandler)
	if path, _ := cmd.Flags().GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	}
	logger = log

	author := cfg.Client.Author
	if a, _ := cmd.Flags().GetString("author"); a != "" {
		author = a
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newClient()
	surface := tui.NewSurface()
	ctrl := session.New(c, c, surface,
		session.WithAuthor(author),
		session.WithExtensions(cfg.Client.Extensions),
		session.WithLogger(log),
	)
	return tui.Run(ctx, files, ctrl, surface)
}
