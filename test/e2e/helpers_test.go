//go:build e2e
// +build e2e

package e2e

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"ranked-tracker/internal/discord"
	"ranked-tracker/internal/logger"
	"ranked-tracker/internal/riot"
	"ranked-tracker/internal/roles"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

const (
	testPUUID  = "puuid-me"
	testRiotID = "Me#NA1"
)

// fakeRiotAPI serves the account, match, timeline, league and status
// endpoints for one player. Requests with any other key get a 403.
type fakeRiotAPI struct {
	mu       sync.Mutex
	validKey string
	history  []string // newest first
	matches  map[string]*riot.MatchResponse
	league   []riot.LeagueEntryResponse
	rejected int
}

func newFakeRiotAPI(t *testing.T, validKey string) (*fakeRiotAPI, *httptest.Server) {
	t.Helper()
	f := &fakeRiotAPI{validKey: validKey, matches: make(map[string]*riot.MatchResponse)}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeRiotAPI) addMatch(m *riot.MatchResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches[m.Metadata.MatchID] = m
	f.history = append([]string{m.Metadata.MatchID}, f.history...)
}

func (f *fakeRiotAPI) setValidKey(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validKey = key
}

func (f *fakeRiotAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("X-Riot-Token") != f.validKey {
		f.rejected++
		w.WriteHeader(http.StatusForbidden)
		return
	}

	path := r.URL.Path
	switch {
	case path == "/lol/status/v4/platform-data":
		writeJSON(w, map[string]string{"id": "NA1"})
	case strings.HasPrefix(path, "/riot/account/v1/accounts/by-riot-id/"):
		writeJSON(w, riot.AccountResponse{PUUID: testPUUID, GameName: "Me", TagLine: "NA1"})
	case strings.HasSuffix(path, "/ids"):
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		count, _ := strconv.Atoi(r.URL.Query().Get("count"))
		ids := []string{}
		if start < len(f.history) {
			ids = f.history[start:min(start+count, len(f.history))]
		}
		writeJSON(w, ids)
	case strings.HasSuffix(path, "/timeline"):
		w.WriteHeader(http.StatusNotFound)
	case strings.HasPrefix(path, "/lol/match/v5/matches/"):
		m, ok := f.matches[strings.TrimPrefix(path, "/lol/match/v5/matches/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, m)
	case strings.HasPrefix(path, "/lol/league/v4/entries/by-puuid/"):
		writeJSON(w, f.league)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newRiotClient(t *testing.T, srv *httptest.Server, key string) *riot.Client {
	t.Helper()
	client, err := riot.NewClient(riot.ClientConfig{
		APIKey:          key,
		QueueID:         420,
		RegionalBaseURL: srv.URL,
		PlatformBaseURL: srv.URL,
		Logger:          logger.Discard(),
	})
	require.NoError(t, err)
	return client
}

// webhookRecorder collects every payload posted to it
type webhookRecorder struct {
	mu       sync.Mutex
	payloads []discord.WebhookPayload
}

func newWebhookRecorder(t *testing.T) (*webhookRecorder, *httptest.Server) {
	t.Helper()
	rec := &webhookRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p discord.WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rec.mu.Lock()
		rec.payloads = append(rec.payloads, p)
		rec.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return rec, srv
}

func (r *webhookRecorder) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, p := range r.payloads {
		for _, e := range p.Embeds {
			out = append(out, e.Title)
		}
	}
	return out
}

// rankedGame builds a solo queue game where the tracked player is Jinx
// in the blue bottom lane with Friend#NA1 supporting
func rankedGame(id string, start time.Time) *riot.MatchResponse {
	type spec struct {
		champion, lane, role, name string
		smite                      bool
	}
	specs := []spec{
		{"Garen", "TOP", "SOLO", "Top", false},
		{"LeeSin", "JUNGLE", "NONE", "Jungle", true},
		{"Ahri", "MIDDLE", "SOLO", "Mid", false},
		{"Jinx", "BOTTOM", "CARRY", "Me", false},
		{"Thresh", "BOTTOM", "SUPPORT", "Friend", false},
		{"Darius", "TOP", "SOLO", "Enemy1", false},
		{"Elise", "JUNGLE", "NONE", "Enemy2", true},
		{"Syndra", "MIDDLE", "SOLO", "Enemy3", false},
		{"Caitlyn", "BOTTOM", "CARRY", "Enemy4", false},
		{"Lulu", "BOTTOM", "SUPPORT", "Enemy5", false},
	}

	m := &riot.MatchResponse{
		Metadata: riot.MatchMetadata{MatchID: id},
		Info: riot.MatchInfo{
			GameStartTimestamp: start.UnixMilli(),
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
			p.PUUID = testPUUID
		}
		m.Info.Participants = append(m.Info.Participants, p)
	}
	m.Info.Teams = []riot.MatchTeam{{TeamID: 100, Win: true}, {TeamID: 200}}
	return m
}
