// Command tui plays the word grid in the terminal against a local session.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robalobadob/memorygrid/internal/config"
	"github.com/robalobadob/memorygrid/internal/journal"
	"github.com/robalobadob/memorygrid/internal/session"
	"github.com/robalobadob/memorygrid/internal/tui"
	"github.com/robalobadob/memorygrid/internal/words"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The alt screen owns stdout, so logs go to a file when asked for.
	logger := zerolog.Nop()
	if path := os.Getenv("TUI_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		lvl, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			lvl = zerolog.InfoLevel
		}
		logger = zerolog.New(f).Level(lvl).With().Timestamp().Logger()
	}

	seq, err := words.Default()
	if err != nil {
		return err
	}

	opts := session.Options{Logger: logger}
	if cfg.JournalEnabled() {
		db, err := journal.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer db.Close()
		if err := journal.Migrate(db); err != nil {
			return fmt.Errorf("migrate journal: %w", err)
		}
		opts.Recorder = journal.NewStore(db)
	}

	sess, err := session.New("tui-"+uuid.NewString(), seq, opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	m := tui.New(sess)
	defer m.Close()

	logger.Info().Str("session", sess.ID).Int("words", seq.Len()).Msg("tui started")
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return m.Err()
}
