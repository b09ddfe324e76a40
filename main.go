package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorygrid/assets"
	"github.com/robalobadob/memorygrid/internal/config"
	"github.com/robalobadob/memorygrid/internal/httpserver"
	"github.com/robalobadob/memorygrid/internal/journal"
	"github.com/robalobadob/memorygrid/internal/store"
	"github.com/robalobadob/memorygrid/internal/words"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	seq, err := words.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word sequence")
	}

	var runs *journal.Store
	if cfg.JournalEnabled() {
		db, err := journal.Open(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open journal")
		}
		defer db.Close()
		if err := journal.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate journal")
		}
		runs = journal.NewStore(db)
	}

	web, err := assets.Web()
	if err != nil {
		log.Fatal().Err(err).Msg("load web assets")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem := store.NewMemoryStore()
	go store.Janitor(ctx, mem, cfg.SweepInterval, cfg.SessionIdleTTL, func(n int) {
		log.Info().Int("removed", n).Int("live", mem.Len()).Msg("swept idle sessions")
	})

	srv := httpserver.New(httpserver.Options{
		Store:          mem,
		Words:          seq,
		Journal:        runs,
		Web:            web,
		Secret:         cfg.SessionSecret,
		CookieName:     cfg.CookieName,
		SecureCookies:  cfg.Production(),
		AllowedOrigins: []string{cfg.ClientOrigin},
		Logger:         log.Logger,
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	tokens, distinct := seq.Stats()
	log.Info().Str("port", cfg.Port).Int("tokens", tokens).Int("distinct", distinct).
		Bool("journal", runs != nil).Msg("starting memorygrid")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func setupLogging(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
