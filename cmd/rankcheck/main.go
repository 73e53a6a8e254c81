package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ranked-tracker/internal/config"
	"ranked-tracker/internal/logger"
	"ranked-tracker/internal/riot"
	"ranked-tracker/internal/stats"
)

func main() {
	config.LoadEnv()

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
	logger.InitLogger(cfg.LogLevel, cfg.LogFormat)
	log := logger.WithComponent("rankcheck")

	if cfg.RiotID == "" {
		fmt.Println("Usage: rankcheck --riot-id=\"PlayerName#NA1\"")
		os.Exit(1)
	}

	gameName, tagLine, err := config.SplitRiotID(cfg.RiotID)
	if err != nil {
		log.WithError(err).Fatal("Invalid Riot ID")
	}

	client, err := riot.NewClient(riot.ClientConfig{
		APIKey:   cfg.RiotAPIKey,
		Region:   cfg.Region,
		Platform: cfg.Platform,
		QueueID:  cfg.QueueID,
		Logger:   logger.WithComponent("riot"),
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create Riot client")
	}

	ctx := context.Background()

	// Step 1: Get account info (PUUID)
	fmt.Printf("\n1. Looking up account: %s#%s\n", gameName, tagLine)
	account, err := client.GetAccountByRiotID(ctx, gameName, tagLine)
	if err != nil {
		log.WithError(err).Fatal("Failed to get account")
	}
	fmt.Printf("   PUUID: %s\n", config.MaskKey(account.PUUID))

	// Step 2: Get ranked entries directly by PUUID
	fmt.Printf("\n2. Getting ranked entries...\n")
	entries, err := client.GetRankedEntriesByPUUID(ctx, account.PUUID)
	if err != nil {
		log.WithError(err).Fatal("Failed to get ranked entries")
	}

	if len(entries) == 0 {
		fmt.Println("   No ranked entries found (unranked)")
	}
	for _, entry := range entries {
		queueName := entry.QueueType
		switch entry.QueueType {
		case riot.QueueSoloDuo:
			queueName = "Solo/Duo"
		case "RANKED_FLEX_SR":
			queueName = "Flex"
		}
		fmt.Printf("   %s: %s %s (%d LP) - %dW %dL\n",
			queueName, entry.Tier, entry.Rank, entry.LeaguePoints, entry.Wins, entry.Losses)
	}

	// Step 3: What the tracker would write for the next row
	fmt.Printf("\n3. Solo queue standing...\n")
	entry, ok, err := client.GetSoloQueueEntry(ctx, account.PUUID)
	if err != nil {
		log.WithError(err).Fatal("Failed to get solo queue entry")
	}
	if !ok {
		fmt.Println("   League: Unranked")
	} else {
		score, _ := riot.RankScore(entry.Tier, entry.Rank, entry.LeaguePoints)
		promos := "No"
		if stats.InPromos(entry) {
			promos = fmt.Sprintf("Yes (%s)", entry.MiniSeries.Progress)
		}
		fmt.Printf("   League: %s %s, %d LP, rank score %d, promos %s\n",
			entry.Tier, entry.Rank, entry.LeaguePoints, score, promos)
	}

	fmt.Println("\nDone!")
}
