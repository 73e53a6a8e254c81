package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ranked-tracker/internal/config"
	"ranked-tracker/internal/logger"
	"ranked-tracker/internal/riot"
	"ranked-tracker/internal/roles"
	"ranked-tracker/internal/sheet"
	"ranked-tracker/internal/stats"
	"ranked-tracker/internal/storage"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/sirupsen/logrus"
)

const (
	// Seen-match filter sizing. A season of solo queue is well under this.
	seenCapacity  = 10000
	seenFalseRate = 0.001

	defaultHistoryDepth = 100
)

var (
	// ErrStoreSchema is returned when the store lacks a column the tracker writes
	ErrStoreSchema = errors.New("collector: store schema")
	// ErrRunInProgress is returned when RunOnce is called while a run is active
	ErrRunInProgress = errors.New("collector: run already in progress")
)

// RiotAPI is the subset of riot.Client the tracker calls
type RiotAPI interface {
	GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*riot.AccountResponse, error)
	MatchHistory(ctx context.Context, puuid string, max int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*riot.MatchResponse, error)
	GetTimeline(ctx context.Context, matchID string) (*riot.TimelineResponse, error)
	GetSoloQueueEntry(ctx context.Context, puuid string) (*riot.LeagueEntryResponse, bool, error)
}

// Archive stores the raw form of each recorded match
type Archive interface {
	Append(match storage.ArchivedMatch) error
}

// Publisher receives every recorded row
type Publisher interface {
	Publish(row sheet.Row)
}

// Notifier reports tracker events to the player
type Notifier interface {
	MatchRecorded(ctx context.Context, row sheet.Row) error
	MalformedMatch(ctx context.Context, matchID string, reason error) error
	KeyRejected(ctx context.Context, riotID string, recorded int) error
}

// Options configures a Tracker. RiotID is required; Archive, Feed and
// Notifier are optional.
type Options struct {
	RiotID       string
	HistoryDepth int
	CheckDuoer   bool
	AFKRatio     float64
	Location     *time.Location

	Engine    *roles.Engine
	Champions stats.Names

	Archive  Archive
	Feed     Publisher
	Notifier Notifier
}

// Summary describes one tracker run
type Summary struct {
	History   int // IDs returned by the provider
	Pending   int // IDs not yet recorded
	Recorded  int
	Skipped   int
	Malformed int // recorded without role columns
}

// Tracker records the player's new ranked matches into a store
type Tracker struct {
	client RiotAPI
	store  sheet.Store
	opts   Options

	gameName string
	tagLine  string
	puuid    string

	// Matches already handled this session, recorded or skipped
	seen *bloom.BloomFilter

	running sync.Mutex
	log     *logrus.Entry
}

// NewTracker creates a tracker for opts.RiotID over store
func NewTracker(client RiotAPI, store sheet.Store, opts Options) (*Tracker, error) {
	gameName, tagLine, err := config.SplitRiotID(opts.RiotID)
	if err != nil {
		return nil, err
	}
	if opts.HistoryDepth <= 0 {
		opts.HistoryDepth = defaultHistoryDepth
	}
	if opts.Engine == nil {
		opts.Engine = roles.NewEngine(roles.DefaultConfig())
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	return &Tracker{
		client:   client,
		store:    store,
		opts:     opts,
		gameName: gameName,
		tagLine:  tagLine,
		seen:     bloom.NewWithEstimates(seenCapacity, seenFalseRate),
		log:      logger.WithComponent("tracker").WithField("riot_id", opts.RiotID),
	}, nil
}

// RunOnce records every match played since the newest recorded one. It
// stops at the first error it cannot skip past; rows appended before that
// stay recorded.
func (t *Tracker) RunOnce(ctx context.Context) (Summary, error) {
	var summary Summary

	if !t.running.TryLock() {
		return summary, ErrRunInProgress
	}
	defer t.running.Unlock()

	if err := t.checkSchema(); err != nil {
		return summary, err
	}

	puuid, err := t.resolvePUUID(ctx)
	if err != nil {
		return summary, t.handleRunError(ctx, summary, err)
	}

	history, err := t.client.MatchHistory(ctx, puuid, t.opts.HistoryDepth)
	if err != nil {
		return summary, t.handleRunError(ctx, summary, fmt.Errorf("failed to fetch match history: %w", err))
	}
	summary.History = len(history)

	recorded, err := t.store.MatchIDs(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to read recorded matches: %w", err)
	}

	var pending []string
	for _, id := range UnrecordedMatchIDs(history, recorded) {
		if !t.seen.TestString(id) {
			pending = append(pending, id)
		}
	}
	summary.Pending = len(pending)

	if len(pending) == 0 {
		t.log.Debug("No new matches")
		return summary, nil
	}
	t.log.WithField("pending", len(pending)).Info("Recording new matches")

	for i, id := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		// The league entry is current standing, so it only belongs on the newest row
		newest := i == len(pending)-1

		malformed, err := t.processMatch(ctx, puuid, id, newest)
		switch {
		case err == nil:
			summary.Recorded++
			if malformed {
				summary.Malformed++
			}
		case errors.Is(err, riot.ErrNotFound), errors.Is(err, stats.ErrPlayerNotInMatch):
			logger.WithMatch("tracker", id).WithError(err).Warn("Skipping match")
			t.seen.AddString(id)
			summary.Skipped++
		default:
			return summary, t.handleRunError(ctx, summary, fmt.Errorf("match %s: %w", id, err))
		}
	}

	t.log.WithFields(logrus.Fields{
		"recorded":  summary.Recorded,
		"skipped":   summary.Skipped,
		"malformed": summary.Malformed,
	}).Info("Run complete")

	return summary, nil
}

// UnrecordedMatchIDs returns the IDs in history (newest first) that are newer
// than the most recent recorded match, oldest first. recorded is in append
// order. When no recorded ID appears in history the whole history is new.
func UnrecordedMatchIDs(history, recorded []string) []string {
	known := make(map[string]int, len(recorded))
	for i, id := range recorded {
		known[id] = i
	}

	// Cut at the history entry with the highest recorded index; the player's
	// newest recorded match
	cut := len(history)
	best := -1
	for i, id := range history {
		if idx, ok := known[id]; ok && idx > best {
			best = idx
			cut = i
		}
	}

	out := make([]string, 0, cut)
	for i := cut - 1; i >= 0; i-- {
		if _, ok := known[history[i]]; ok {
			continue
		}
		out = append(out, history[i])
	}
	return out
}

func (t *Tracker) checkSchema() error {
	required := []string{sheet.ColMatchID, sheet.ColLeague, sheet.ColCurrentLP, sheet.ColPromos}
	if t.opts.CheckDuoer {
		required = append(required, sheet.ColDuoer)
	}

	have := sheet.HeaderIndex(t.store.Headers())
	var missing []string
	for _, h := range required {
		if _, ok := have[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrStoreSchema, strings.Join(missing, ", "))
	}
	return nil
}

func (t *Tracker) resolvePUUID(ctx context.Context) (string, error) {
	if t.puuid != "" {
		return t.puuid, nil
	}

	account, err := t.client.GetAccountByRiotID(ctx, t.gameName, t.tagLine)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", t.opts.RiotID, err)
	}
	t.puuid = account.PUUID
	t.log.WithField("puuid", account.PUUID).Debug("Resolved account")
	return t.puuid, nil
}

// handleRunError notifies about a rejected key before handing err back
func (t *Tracker) handleRunError(ctx context.Context, summary Summary, err error) error {
	if errors.Is(err, riot.ErrKeyRejected) && t.opts.Notifier != nil {
		if nerr := t.opts.Notifier.KeyRejected(ctx, t.opts.RiotID, summary.Recorded); nerr != nil {
			t.log.WithError(nerr).Warn("Failed to send key rejected notification")
		}
	}
	return err
}

// processMatch fetches, derives and records one match. It reports whether
// the match was recorded without roles.
func (t *Tracker) processMatch(ctx context.Context, puuid, matchID string, newest bool) (bool, error) {
	log := logger.WithMatch("tracker", matchID)

	match, err := t.client.GetMatch(ctx, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch match: %w", err)
	}

	timeline, err := t.client.GetTimeline(ctx, matchID)
	switch {
	case errors.Is(err, riot.ErrNotFound):
		log.Debug("No timeline, deltas and AFK left blank")
		timeline = nil
	case err != nil:
		return false, fmt.Errorf("failed to fetch timeline: %w", err)
	}

	var league *riot.LeagueEntryResponse
	unranked := false
	if newest {
		entry, ok, err := t.client.GetSoloQueueEntry(ctx, puuid)
		switch {
		case errors.Is(err, riot.ErrKeyRejected):
			return false, err
		case err != nil:
			log.WithError(err).Warn("League entry unavailable, league columns left blank")
		case ok:
			league = entry
		default:
			unranked = true
		}
	}

	malformed := false
	assignment, err := t.opts.Engine.Resolve(riot.ToParticipants(match))
	if err != nil {
		if !errors.Is(err, roles.ErrMalformedMatch) {
			return false, err
		}
		log.WithError(err).Warn("Roles unresolved, recording without role columns")
		malformed = true
		assignment = nil
		if t.opts.Notifier != nil {
			if nerr := t.opts.Notifier.MalformedMatch(ctx, matchID, err); nerr != nil {
				log.WithError(nerr).Warn("Failed to send malformed match notification")
			}
		}
	}

	previous, err := t.store.LatestRow(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read previous row: %w", err)
	}

	var duoers []string
	if t.opts.CheckDuoer {
		if duoers, err = t.store.ColumnValues(ctx, sheet.ColDuoer); err != nil {
			return false, fmt.Errorf("failed to read duo partners: %w", err)
		}
	}

	row, err := stats.BuildRow(stats.Input{
		Match:      match,
		Timeline:   timeline,
		PUUID:      puuid,
		Assignment: assignment,
		League:     league,
		Unranked:   unranked,
		Previous:   previous,
		Duoers:     duoers,
		Champions:  t.opts.Champions,
		AFKRatio:   t.opts.AFKRatio,
		Location:   t.opts.Location,
	})
	if err != nil {
		return false, err
	}

	if err := t.store.AppendRow(ctx, row); err != nil {
		return false, fmt.Errorf("failed to append row: %w", err)
	}
	t.seen.AddString(matchID)

	log.WithFields(logrus.Fields{
		"champion": row.String(sheet.ColChampion),
		"result":   row.String(sheet.ColResult),
		"role":     row.String(sheet.ColMyRole),
	}).Info("Recorded match")

	t.afterRecord(ctx, log, match, timeline, puuid, assignment, row)
	return malformed, nil
}

// afterRecord archives, publishes and notifies. Failures here never undo
// a recorded row.
func (t *Tracker) afterRecord(ctx context.Context, log *logrus.Entry, match *riot.MatchResponse, timeline *riot.TimelineResponse, puuid string, assignment *roles.Assignment, row sheet.Row) {
	if t.opts.Archive != nil {
		var xp map[int][]int
		if timeline != nil {
			xp = stats.XPSeries(timeline)
		}
		if err := t.opts.Archive.Append(storage.NewArchivedMatch(match, puuid, xp, assignment)); err != nil {
			log.WithError(err).Warn("Failed to archive match")
		}
	}

	if t.opts.Feed != nil {
		t.opts.Feed.Publish(row)
	}

	if t.opts.Notifier != nil {
		if err := t.opts.Notifier.MatchRecorded(ctx, row); err != nil {
			log.WithError(err).Warn("Failed to send match notification")
		}
	}
}
