package collector

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"ranked-tracker/internal/riot"
	"ranked-tracker/internal/roles"
	"ranked-tracker/internal/sheet"
	"ranked-tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRiotID = "Me#NA1"

// fakeRiot serves canned matches. history is newest first.
type fakeRiot struct {
	mu         sync.Mutex
	history    []string
	matches    map[string]*riot.MatchResponse
	matchErr   map[string]error
	league     *riot.LeagueEntryResponse
	leagueErr  error
	accountErr error

	accountCalls int
	leagueCalls  int
	fetched      []string
	block        chan struct{}
}

func newFakeRiot() *fakeRiot {
	return &fakeRiot{
		matches:  make(map[string]*riot.MatchResponse),
		matchErr: make(map[string]error),
	}
}

// addMatch puts a match at the front of the history
func (f *fakeRiot) addMatch(m *riot.MatchResponse) {
	f.matches[m.Metadata.MatchID] = m
	f.history = append([]string{m.Metadata.MatchID}, f.history...)
}

func (f *fakeRiot) GetAccountByRiotID(_ context.Context, gameName, tagLine string) (*riot.AccountResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accountCalls++
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return &riot.AccountResponse{PUUID: "me", GameName: gameName, TagLine: tagLine}, nil
}

func (f *fakeRiot) MatchHistory(_ context.Context, _ string, max int) ([]string, error) {
	if f.block != nil {
		<-f.block
	}
	if len(f.history) > max {
		return f.history[:max], nil
	}
	return f.history, nil
}

func (f *fakeRiot) GetMatch(_ context.Context, matchID string) (*riot.MatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, matchID)
	if err := f.matchErr[matchID]; err != nil {
		return nil, err
	}
	m, ok := f.matches[matchID]
	if !ok {
		return nil, riot.ErrNotFound
	}
	return m, nil
}

func (f *fakeRiot) GetTimeline(context.Context, string) (*riot.TimelineResponse, error) {
	return nil, riot.ErrNotFound
}

func (f *fakeRiot) GetSoloQueueEntry(context.Context, string) (*riot.LeagueEntryResponse, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leagueCalls++
	if f.leagueErr != nil {
		return nil, false, f.leagueErr
	}
	return f.league, f.league != nil, nil
}

// memStore keeps rows in memory in append order
type memStore struct {
	headers []string
	rows    []sheet.Row
}

func newMemStore() *memStore {
	return &memStore{headers: sheet.Columns}
}

func (s *memStore) Headers() []string { return s.headers }

func (s *memStore) MatchIDs(context.Context) ([]string, error) {
	ids := make([]string, len(s.rows))
	for i, r := range s.rows {
		ids[i] = r.MatchID
	}
	return ids, nil
}

func (s *memStore) ColumnValues(_ context.Context, header string) ([]string, error) {
	out := make([]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.String(header)
	}
	return out, nil
}

func (s *memStore) LatestRow(context.Context) (*sheet.Row, error) {
	if len(s.rows) == 0 {
		return nil, nil
	}
	r := s.rows[len(s.rows)-1]
	return &r, nil
}

func (s *memStore) AppendRow(_ context.Context, row sheet.Row) error {
	s.rows = append(s.rows, row)
	return nil
}

func (s *memStore) Close() error { return nil }

type fakeArchive struct{ matches []storage.ArchivedMatch }

func (a *fakeArchive) Append(m storage.ArchivedMatch) error {
	a.matches = append(a.matches, m)
	return nil
}

type fakeFeed struct{ rows []sheet.Row }

func (f *fakeFeed) Publish(row sheet.Row) { f.rows = append(f.rows, row) }

type fakeNotifier struct {
	recorded  []string
	malformed []string
	rejected  []int
}

func (n *fakeNotifier) MatchRecorded(_ context.Context, row sheet.Row) error {
	n.recorded = append(n.recorded, row.MatchID)
	return nil
}

func (n *fakeNotifier) MalformedMatch(_ context.Context, matchID string, _ error) error {
	n.malformed = append(n.malformed, matchID)
	return nil
}

func (n *fakeNotifier) KeyRejected(_ context.Context, _ string, recorded int) error {
	n.rejected = append(n.rejected, recorded)
	return nil
}

// gameMatch builds a ranked game where "me" plays ADC for blue
func gameMatch(id string, partner string) *riot.MatchResponse {
	type spec struct {
		champion, lane, role, name string
		smite                      bool
	}
	specs := []spec{
		{"Garen", "TOP", "SOLO", "Top", false},
		{"LeeSin", "JUNGLE", "NONE", "Jungle", true},
		{"Ahri", "MIDDLE", "SOLO", "Mid", false},
		{"Jinx", "BOTTOM", "CARRY", "Me", false},
		{"Thresh", "BOTTOM", "SUPPORT", partner, false},
		{"Darius", "TOP", "SOLO", "Enemy1", false},
		{"Elise", "JUNGLE", "NONE", "Enemy2", true},
		{"Syndra", "MIDDLE", "SOLO", "Enemy3", false},
		{"Caitlyn", "BOTTOM", "CARRY", "Enemy4", false},
		{"Lulu", "BOTTOM", "SUPPORT", "Enemy5", false},
	}

	m := &riot.MatchResponse{
		Metadata: riot.MatchMetadata{MatchID: id},
		Info: riot.MatchInfo{
			GameStartTimestamp: time.Date(2024, 3, 9, 21, 0, 0, 0, time.UTC).UnixMilli(),
			GameDuration:       1800,
			QueueID:            420,
		},
	}
	for i, s := range specs {
		pid := i + 1
		team := 100
		if pid > 5 {
			team = 200
		}
		spell := 4
		if s.smite {
			spell = roles.SmiteSpellID
		}
		p := riot.MatchParticipant{
			ParticipantID:      pid,
			PUUID:              "puuid-" + strconv.Itoa(pid),
			RiotIdGameName:     s.name,
			RiotIdTagline:      "NA1",
			TeamID:             team,
			ChampionName:       s.champion,
			Summoner1ID:        14,
			Summoner2ID:        spell,
			Lane:               s.lane,
			Role:               s.role,
			Win:                team == 100,
			Kills:              pid,
			Deaths:             2,
			Assists:            3,
			TotalMinionsKilled: 150,
		}
		if s.smite {
			p.NeutralMinionsKilled = 120
		}
		if pid == 4 {
			p.PUUID = "me"
		}
		m.Info.Participants = append(m.Info.Participants, p)
	}
	m.Info.Teams = []riot.MatchTeam{{TeamID: 100, Win: true}, {TeamID: 200}}
	return m
}

// oneTeamMatch cannot be split into two teams
func oneTeamMatch(id string) *riot.MatchResponse {
	m := gameMatch(id, "Friend")
	for i := range m.Info.Participants {
		m.Info.Participants[i].TeamID = 100
	}
	return m
}

func newTestTracker(t *testing.T, client RiotAPI, store sheet.Store, opts Options) *Tracker {
	t.Helper()
	if opts.RiotID == "" {
		opts.RiotID = testRiotID
	}
	opts.Location = time.UTC
	tr, err := NewTracker(client, store, opts)
	require.NoError(t, err)
	return tr
}

func TestUnrecordedMatchIDs(t *testing.T) {
	tests := []struct {
		name     string
		history  []string
		recorded []string
		want     []string
	}{
		{"empty store takes everything oldest first", []string{"c", "b", "a"}, nil, []string{"a", "b", "c"}},
		{"cut at newest recorded", []string{"d", "c", "b", "a"}, []string{"a", "b"}, []string{"c", "d"}},
		{"nothing new", []string{"b", "a"}, []string{"a", "b"}, []string{}},
		{"recorded but out of history", []string{"z", "y"}, []string{"a", "b"}, []string{"y", "z"}},
		{"older unrecorded gap is ignored", []string{"d", "c", "b", "a"}, []string{"a", "c"}, []string{"d"}},
		{"newest recorded wins over an older one later in history", []string{"e", "d", "c", "b"}, []string{"b", "d"}, []string{"e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnrecordedMatchIDs(tt.history, tt.recorded))
		})
	}
}

func TestNewTracker_BadRiotID(t *testing.T) {
	_, err := NewTracker(newFakeRiot(), newMemStore(), Options{RiotID: "NoTag"})
	assert.Error(t, err)
}

func TestRunOnce_RecordsNewMatchesOldestFirst(t *testing.T) {
	api := newFakeRiot()
	api.addMatch(gameMatch("NA1_1", "Friend"))
	api.addMatch(gameMatch("NA1_2", "Friend"))
	api.addMatch(gameMatch("NA1_3", "Friend"))
	api.league = &riot.LeagueEntryResponse{QueueType: riot.QueueSoloDuo, Tier: "GOLD", Rank: "II", LeaguePoints: 40}

	store := newMemStore()
	archive := &fakeArchive{}
	feed := &fakeFeed{}
	notifier := &fakeNotifier{}

	tr := newTestTracker(t, api, store, Options{Archive: archive, Feed: feed, Notifier: notifier})
	summary, err := tr.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{History: 3, Pending: 3, Recorded: 3}, summary)

	ids, _ := store.MatchIDs(context.Background())
	assert.Equal(t, []string{"NA1_1", "NA1_2", "NA1_3"}, ids)

	assert.Equal(t, "ADC", store.rows[0].String(sheet.ColMyRole))
	assert.Equal(t, "Jinx", store.rows[0].String(sheet.ColChampion))

	assert.Equal(t, 1, api.leagueCalls, "league entry only fetched for the newest match")
	assert.Empty(t, store.rows[0].String(sheet.ColLeague))
	assert.Equal(t, "GOLD", store.rows[2].String(sheet.ColLeague))

	require.Len(t, archive.matches, 3)
	assert.NotNil(t, archive.matches[0].Roles)
	assert.Len(t, feed.rows, 3)
	assert.Equal(t, []string{"NA1_1", "NA1_2", "NA1_3"}, notifier.recorded)
}

func TestRunOnce_SecondRunOnlyNewMatches(t *testing.T) {
	api := newFakeRiot()
	api.addMatch(gameMatch("NA1_1", "Friend"))

	store := newMemStore()
	tr := newTestTracker(t, api, store, Options{})

	_, err := tr.RunOnce(context.Background())
	require.NoError(t, err)

	summary, err := tr.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Pending)

	api.addMatch(gameMatch("NA1_2", "Friend"))
	summary, err = tr.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Recorded)

	assert.Equal(t, 1, api.accountCalls, "PUUID is cached between runs")
	assert.Equal(t, []string{"NA1_1", "NA1_2"}, api.fetched)
}

func TestRunOnce_MalformedMatchRecordedWithoutRoles(t *testing.T) {
	api := newFakeRiot()
	api.addMatch(oneTeamMatch("NA1_1"))
	store := newMemStore()
	notifier := &fakeNotifier{}

	tr := newTestTracker(t, api, store, Options{Notifier: notifier})
	summary, err := tr.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Recorded)
	assert.Equal(t, 1, summary.Malformed)
	assert.Equal(t, []string{"NA1_1"}, notifier.malformed)
	require.Len(t, store.rows, 1)
	assert.Empty(t, store.rows[0].String(sheet.ColMyRole))
}

func TestRunOnce_SkipsMissingMatch(t *testing.T) {
	api := newFakeRiot()
	api.addMatch(gameMatch("NA1_1", "Friend"))
	api.addMatch(gameMatch("NA1_2", "Friend"))
	api.history = append([]string{"NA1_gone"}, api.history...)

	store := newMemStore()
	tr := newTestTracker(t, api, store, Options{})

	summary, err := tr.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Recorded)
	assert.Equal(t, 1, summary.Skipped)

	// The skipped match is newer than every recorded one but is not fetched
	// again this session
	api.fetched = nil
	_, err = tr.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, api.fetched)
}

func TestRunOnce_SkipsMatchWithoutPlayer(t *testing.T) {
	api := newFakeRiot()
	m := gameMatch("NA1_1", "Friend")
	m.Info.Participants[3].PUUID = "someone-else"
	api.addMatch(m)

	tr := newTestTracker(t, api, newMemStore(), Options{})
	summary, err := tr.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Recorded)
}

func TestRunOnce_KeyRejectedStopsRun(t *testing.T) {
	api := newFakeRiot()
	api.addMatch(gameMatch("NA1_1", "Friend"))
	api.addMatch(gameMatch("NA1_2", "Friend"))
	api.addMatch(gameMatch("NA1_3", "Friend"))
	api.matchErr["NA1_2"] = fmt.Errorf("status 403: %w", riot.ErrKeyRejected)

	store := newMemStore()
	notifier := &fakeNotifier{}
	tr := newTestTracker(t, api, store, Options{Notifier: notifier})

	summary, err := tr.RunOnce(context.Background())
	assert.ErrorIs(t, err, riot.ErrKeyRejected)
	assert.Equal(t, 1, summary.Recorded)
	assert.Equal(t, []int{1}, notifier.rejected)
	assert.NotContains(t, api.fetched, "NA1_3")
}

func TestRunOnce_KeyRejectedOnAccountLookup(t *testing.T) {
	api := newFakeRiot()
	api.accountErr = riot.ErrKeyRejected
	notifier := &fakeNotifier{}

	tr := newTestTracker(t, api, newMemStore(), Options{Notifier: notifier})
	_, err := tr.RunOnce(context.Background())
	assert.ErrorIs(t, err, riot.ErrKeyRejected)
	assert.Equal(t, []int{0}, notifier.rejected)
}

func TestRunOnce_UnavailableAbortsRun(t *testing.T) {
	api := newFakeRiot()
	api.addMatch(gameMatch("NA1_1", "Friend"))
	api.matchErr["NA1_1"] = riot.ErrUnavailable

	store := newMemStore()
	tr := newTestTracker(t, api, store, Options{})

	_, err := tr.RunOnce(context.Background())
	assert.ErrorIs(t, err, riot.ErrUnavailable)
	assert.Empty(t, store.rows)

	// Not marked seen, so the next run retries
	delete(api.matchErr, "NA1_1")
	summary, err := tr.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Recorded)
}

func TestRunOnce_LeagueFailureLeavesColumnsBlank(t *testing.T) {
	api := newFakeRiot()
	api.addMatch(gameMatch("NA1_1", "Friend"))
	api.leagueErr = riot.ErrUnavailable

	store := newMemStore()
	tr := newTestTracker(t, api, store, Options{})

	summary, err := tr.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Recorded)
	assert.Empty(t, store.rows[0].String(sheet.ColLeague))
}

func TestRunOnce_UnrankedOnlyOnNewest(t *testing.T) {
	api := newFakeRiot()
	api.addMatch(gameMatch("NA1_1", "Friend"))
	api.addMatch(gameMatch("NA1_2", "Friend"))

	store := newMemStore()
	_, err := newTestTracker(t, api, store, Options{}).RunOnce(context.Background())
	require.NoError(t, err)

	assert.Empty(t, store.rows[0].String(sheet.ColLeague))
	assert.Equal(t, "Unranked", store.rows[1].String(sheet.ColLeague))
}

func TestRunOnce_DuoFromRecordedPartners(t *testing.T) {
	api := newFakeRiot()
	api.addMatch(gameMatch("NA1_2", "Friend"))

	store := newMemStore()
	prev := sheet.NewRow("NA1_1")
	prev.Set(sheet.ColDuoer, "Friend#NA1")
	store.rows = append(store.rows, prev)
	api.history = append(api.history, "NA1_1")

	tr := newTestTracker(t, api, store, Options{CheckDuoer: true})
	_, err := tr.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, store.rows, 2)
	assert.Equal(t, "Friend#NA1", store.rows[1].String(sheet.ColDuoer))
	assert.Equal(t, "Support", store.rows[1].String(sheet.ColDuoRole))
}

func TestRunOnce_MissingHeaders(t *testing.T) {
	store := newMemStore()
	store.headers = []string{sheet.ColMatchID, sheet.ColLeague}

	tr := newTestTracker(t, newFakeRiot(), store, Options{})
	_, err := tr.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrStoreSchema)
	assert.ErrorContains(t, err, sheet.ColCurrentLP)
}

func TestRunOnce_DuoerHeaderOnlyRequiredWhenChecking(t *testing.T) {
	store := newMemStore()
	store.headers = []string{sheet.ColMatchID, sheet.ColLeague, sheet.ColCurrentLP, sheet.ColPromos}

	_, err := newTestTracker(t, newFakeRiot(), store, Options{}).RunOnce(context.Background())
	assert.NoError(t, err)

	_, err = newTestTracker(t, newFakeRiot(), store, Options{CheckDuoer: true}).RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrStoreSchema)
}

func TestRunOnce_RejectsConcurrentRun(t *testing.T) {
	api := newFakeRiot()
	api.block = make(chan struct{})
	tr := newTestTracker(t, api, newMemStore(), Options{})

	done := make(chan error, 1)
	go func() {
		_, err := tr.RunOnce(context.Background())
		done <- err
	}()

	// Wait until the first run holds the lock
	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.accountCalls == 1
	}, time.Second, 5*time.Millisecond)

	_, err := tr.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(api.block)
	assert.NoError(t, <-done)
}

func TestRunOnce_Workbook(t *testing.T) {
	wb, err := sheet.OpenWorkbook(filepath.Join(t.TempDir(), "ranked.xlsx"))
	require.NoError(t, err)
	t.Cleanup(func() { wb.Close() })

	api := newFakeRiot()
	api.addMatch(gameMatch("NA1_1", "Friend"))
	api.addMatch(gameMatch("NA1_2", "Friend"))

	tr := newTestTracker(t, api, wb, Options{CheckDuoer: true})
	summary, err := tr.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Recorded)

	ids, err := wb.MatchIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"NA1_1", "NA1_2"}, ids)
}

func TestRunOnce_ContextCancelled(t *testing.T) {
	api := newFakeRiot()
	api.addMatch(gameMatch("NA1_1", "Friend"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestTracker(t, api, newMemStore(), Options{}).RunOnce(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
