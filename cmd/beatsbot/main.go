// cmd/beatsbot/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/beatsbot/internal/command"
	"github.com/keshon/beatsbot/internal/config"
	"github.com/keshon/beatsbot/internal/discord"
	"github.com/keshon/beatsbot/internal/jukebox"
	"github.com/keshon/beatsbot/internal/middleware"
	"github.com/keshon/beatsbot/internal/mopidy"
	"github.com/keshon/beatsbot/internal/redirect"
	"github.com/keshon/beatsbot/internal/spotifysync"
	"github.com/keshon/beatsbot/internal/storage"
	"github.com/keshon/beatsbot/internal/voice"
	"github.com/keshon/beatsbot/internal/vote"
	"github.com/keshon/beatsbot/pkg/clock"
	"github.com/keshon/beatsbot/pkg/jobmgr"
)

const appName = "Beats Bot"

func main() {
	log.Printf("[INFO] Starting %v...", appName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("[ERR] Invalid configuration: %v", err)
	}

	store, err := storage.Open(cfg.StorageDriver, cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	ledger := vote.NewLedger(store)
	player := mopidy.New(cfg.MopidyURL)

	bot, err := discord.New(cfg.DiscordToken)
	if err != nil {
		log.Fatal(err)
	}

	voiceManager := voice.NewManager(bot, clock.Real(), cfg.IdleTimeout())
	voiceManager.OnIdle(func(channelID string) {
		log.Printf("[INFO] Left idle voice channel %s", channelID)
	})

	opts := jukebox.Options{
		ExternalURL:   cfg.ExternalURL,
		PlayLinkBase:  cfg.PlayLinkBase,
		ChoiceTimeout: cfg.VoteTimeout(),
	}
	if cfg.Spotify.Enabled() && cfg.Spotify.UserID != "" {
		opts.PlaylistURL = spotifysync.PlaylistURL(cfg.Spotify.UserID, cfg.Spotify.TopPlaylistID)
	}
	jb := jukebox.New(bot, player, ledger, voiceManager, clock.Real(), opts)
	jb.SetTextChannel(cfg.BotChannelID)

	jobs := jobmgr.NewManager(func(s string) { log.Printf("[INFO] [Jobs] %s", s) })
	if cfg.Spotify.Enabled() {
		syncer := spotifysync.New(spotifysync.NewClient(ctx, cfg.Spotify), jobs)
		jb.OnLeaderboard(syncer.Trigger)
		log.Println("[INFO] Spotify playlist sync enabled")
	}

	router := command.NewRouter(jb, bot, cfg.Prefix, cancel,
		middleware.WithGuildOnly(),
		middleware.WithCommandLogger(),
	)

	errCh := make(chan error, 3)
	go func() {
		if err := player.Run(ctx); err != nil {
			errCh <- err
		}
	}()
	go jb.Run(ctx, player.Events())
	go func() {
		if err := redirect.Run(ctx, cfg.RedirectAddr, redirect.Handler(player, cfg.RedirectTarget)); err != nil {
			errCh <- err
		}
	}()
	go func() {
		if err := bot.Run(ctx, router, jb); err != nil {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
	case err := <-errCh:
		log.Println("[ERR] Bot error:", err)
	case <-ctx.Done():
	}
	cancel()

	voiceManager.Disconnect()
	ledger.EndSession()
	jobs.StopAll()
	jobs.Wait()

	log.Printf("[INFO] %v exited cleanly", appName)
}
