package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"ranked-tracker/internal/champions"
	"ranked-tracker/internal/collector"
	"ranked-tracker/internal/config"
	"ranked-tracker/internal/db"
	"ranked-tracker/internal/discord"
	"ranked-tracker/internal/feed"
	"ranked-tracker/internal/logger"
	"ranked-tracker/internal/riot"
	"ranked-tracker/internal/roles"
	"ranked-tracker/internal/storage"

	"github.com/sirupsen/logrus"
)

func main() {
	envFile := config.LoadEnv()

	once := flag.Bool("once", false, "Record new matches once and exit")
	schedule := flag.String("schedule", "", "Cron schedule, overrides POLL_SCHEDULE (e.g. '@every 10m')")
	riotID := flag.String("riot-id", "", "Riot ID in format 'GameName#TagLine', overrides RIOT_ID")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *riotID != "" {
		cfg.RiotID = *riotID
	}
	if *schedule != "" {
		cfg.PollSchedule = *schedule
	}

	logger.InitLogger(cfg.LogLevel, cfg.LogFormat)
	log := logger.WithComponent("main")

	if envFile != "" {
		log.WithField("path", envFile).Debug("Loaded .env")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	ctx := collector.SetupSignalHandler(nil)

	if err := run(ctx, cfg, *once, log); err != nil {
		log.WithError(err).Fatal("Tracker stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, once bool, log *logrus.Entry) error {
	store, err := db.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	defer store.Close()

	affinity, source, err := champions.ResolveAffinity(cfg.AffinityFile, cfg.ChampionDBPath)
	if err != nil {
		return fmt.Errorf("failed to load champion affinity: %w", err)
	}
	log.WithField("source", source).Debug("Loaded champion affinity")

	engine := roles.NewEngine(roles.Config{
		Affinity:            affinity,
		JungleClearSpells:   cfg.JungleClearSpells,
		FallbackAfterPasses: cfg.FallbackAfterPasses,
	})

	registry := champions.NewRegistry()
	if err := registry.Load(ctx); err != nil {
		log.WithError(err).Warn("Champion names unavailable, bans fall back to ids")
	}

	client, err := riot.NewClient(riot.ClientConfig{
		APIKey:   cfg.RiotAPIKey,
		Region:   cfg.Region,
		Platform: cfg.Platform,
		QueueID:  cfg.QueueID,
		Logger:   logger.WithComponent("riot"),
	})
	if err != nil {
		return err
	}

	validator := riot.NewKeyValidator(riot.WithPlatform(cfg.Platform))
	if valid, err := validator.ValidateKey(ctx, cfg.RiotAPIKey); err != nil {
		log.WithError(err).Warn("Could not validate API key, continuing")
	} else if !valid {
		log.Warn("API key rejected at startup")
	}

	opts := collector.Options{
		RiotID:       cfg.RiotID,
		HistoryDepth: cfg.HistoryDepth,
		CheckDuoer:   cfg.CheckDuoer,
		AFKRatio:     cfg.AFKRatio,
		Location:     cfg.Location,
		Engine:       engine,
		Champions:    registry,
	}

	if cfg.BlobStoragePath != "" {
		rotator, err := storage.NewFileRotator(cfg.BlobStoragePath)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer func() {
			if err := rotator.Close(); err != nil {
				log.WithError(err).Warn("Error closing archive")
			}
		}()
		opts.Archive = rotator
	}

	var webhook *discord.WebhookClient
	if cfg.DiscordWebhookURL != "" {
		webhook = discord.NewWebhookClient(cfg.DiscordWebhookURL)
		opts.Notifier = webhook
	}

	if cfg.FeedAddr != "" && !once {
		hub := feed.NewHub()
		go hub.Run(ctx)
		go func() {
			if err := hub.ListenAndServe(ctx, cfg.FeedAddr); err != nil {
				log.WithError(err).Error("Feed server failed")
			}
		}()
		opts.Feed = hub
	}

	tracker, err := collector.NewTracker(client, store, opts)
	if err != nil {
		return err
	}

	if once {
		summary, err := tracker.RunOnce(ctx)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"history":  summary.History,
			"recorded": summary.Recorded,
			"skipped":  summary.Skipped,
		}).Info("Done")
		return nil
	}

	schedOpts := collector.SchedulerOptions{
		Schedule: cfg.PollSchedule,
		Location: cfg.Location,
	}
	if cfg.KeyRecoveryEnabled() {
		finder := discord.NewKeyFinder(cfg.DiscordBotToken, cfg.DiscordChannelID)
		schedOpts.RecoverKey = func(ctx context.Context) error {
			key, err := collector.RecoverKey(ctx, finder, validator, time.Now(), client.SetAPIKey)
			if err != nil {
				return err
			}
			log.WithField("key", config.MaskKey(key)).Info("API key replaced")
			if webhook != nil {
				if err := webhook.KeyRestored(ctx, key, cfg.RiotID); err != nil {
					log.WithError(err).Warn("Failed to send key restored notification")
				}
			}
			return nil
		}
	}

	scheduler := collector.NewScheduler(tracker, schedOpts)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	scheduler.Stop()
	return nil
}
