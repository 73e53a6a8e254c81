package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"ranked-tracker/internal/champions"
	"ranked-tracker/internal/config"
	"ranked-tracker/internal/logger"
	"ranked-tracker/internal/roles"
	"ranked-tracker/internal/storage"
)

func main() {
	config.LoadEnv()

	dataDir := flag.String("dir", "", "Archive directory, overrides BLOB_STORAGE_PATH")
	verbose := flag.Bool("verbose", false, "Print every match, not only the ones that changed")
	compress := flag.Bool("compress", false, "Compress warm archive files into cold storage first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.InitLogger(cfg.LogLevel, cfg.LogFormat)
	log := logger.WithComponent("replay")

	if *dataDir == "" {
		*dataDir = cfg.BlobStoragePath
	}
	if *dataDir == "" {
		fmt.Println("Usage: replay --dir=<archive dir> [--verbose] [--compress]")
		fmt.Println()
		fmt.Println("Re-resolves roles for every archived match and reports matches whose")
		fmt.Println("assignment differs from the one recorded at the time.")
		os.Exit(1)
	}

	if *compress {
		rotator, err := storage.NewFileRotator(*dataDir)
		if err != nil {
			log.WithError(err).Fatal("Failed to open archive")
		}
		if err := rotator.Close(); err != nil {
			log.WithError(err).Fatal("Failed to close archive")
		}
		n, err := rotator.CompressWarm()
		if err != nil {
			log.WithError(err).Fatal("Failed to compress warm files")
		}
		log.WithField("files", n).Info("Compressed warm files")
	}

	affinity, source, err := champions.ResolveAffinity(cfg.AffinityFile, cfg.ChampionDBPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load champion affinity")
	}
	log.WithField("source", source).Debug("Loaded champion affinity")

	engine := roles.NewEngine(roles.Config{
		Affinity:            affinity,
		JungleClearSpells:   cfg.JungleClearSpells,
		FallbackAfterPasses: cfg.FallbackAfterPasses,
	})

	var total, changed, malformed int
	err = storage.ReadArchive(*dataDir, func(m storage.ArchivedMatch) error {
		total++

		got, err := engine.Resolve(m.EngineInput())
		if err != nil {
			malformed++
			fmt.Printf("%s  unresolved: %v\n", m.MatchID, err)
			return nil
		}

		diffs := DiffAssignments(m.Roles, got)
		if len(diffs) > 0 {
			changed++
			fmt.Printf("%s  changed:\n", m.MatchID)
			for _, d := range diffs {
				fmt.Printf("    %s\n", d)
			}
		} else if *verbose {
			fmt.Printf("%s  %s\n", m.MatchID, FormatAssignment(got))
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to read archive")
	}

	fmt.Printf("\n%d matches, %d changed, %d unresolved\n", total, changed, malformed)
	if changed > 0 {
		os.Exit(2)
	}
}

// DiffAssignments lists the slots where was and now disagree, one line per
// team and role. A nil was means the match was recorded without roles.
func DiffAssignments(was, now *roles.Assignment) []string {
	if was == nil {
		return []string{"recorded without roles, now " + FormatAssignment(now)}
	}

	var out []string
	for _, teamID := range teamIDs(was, now) {
		before, after := was.Teams[teamID], now.Teams[teamID]
		for _, r := range roles.CanonicalRoles {
			b, a := before[r], after[r]
			if b.ParticipantID != a.ParticipantID {
				out = append(out, fmt.Sprintf("team %d %s: %s -> %s", teamID, r, slotName(b), slotName(a)))
			}
		}
	}
	return out
}

// FormatAssignment prints each team as "Role=Champion" pairs in role order
func FormatAssignment(a *roles.Assignment) string {
	if a == nil {
		return "-"
	}
	var teams []string
	for _, teamID := range teamIDs(a, nil) {
		var parts []string
		for _, r := range roles.CanonicalRoles {
			parts = append(parts, fmt.Sprintf("%s=%s", r, slotName(a.Teams[teamID][r])))
		}
		teams = append(teams, fmt.Sprintf("%d[%s]", teamID, strings.Join(parts, " ")))
	}
	return strings.Join(teams, " ")
}

func slotName(s roles.Slot) string {
	if s.ParticipantID == 0 {
		return "none"
	}
	return fmt.Sprintf("%s(%d)", s.Champion, s.ParticipantID)
}

func teamIDs(a, b *roles.Assignment) []int {
	seen := make(map[int]bool)
	for _, x := range []*roles.Assignment{a, b} {
		if x == nil {
			continue
		}
		for id := range x.Teams {
			seen[id] = true
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
