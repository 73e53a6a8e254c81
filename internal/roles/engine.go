package roles

import (
	"errors"
	"fmt"
	"sort"
)

const (
	// TeamSize is the number of participants per team in a Summoner's Rift match
	TeamSize = 5

	// DefaultFallbackAfterPasses is how many passes may fail to shrink the
	// conflict set before roles are handed out in encounter order
	DefaultFallbackAfterPasses = 3
)

// ErrMalformedMatch is returned when a match is not two teams of five
var ErrMalformedMatch = errors.New("malformed match")

// Slot is what the engine reports for one resolved role
type Slot struct {
	ParticipantID int     `json:"participantId"`
	Champion      string  `json:"champion"`
	KDA           float64 `json:"kda"`
}

// TeamRoles maps each canonical role to the participant playing it
type TeamRoles map[Role]Slot

// RoleOf returns the role assigned to a participant of this team
func (t TeamRoles) RoleOf(participantID int) (Role, bool) {
	for r, s := range t {
		if s.ParticipantID == participantID {
			return r, true
		}
	}
	return "", false
}

// Assignment is the resolved role table for a whole match, keyed by team id
type Assignment struct {
	Teams map[int]TeamRoles `json:"teams"`
}

// RoleOf looks up a participant's role across both teams
func (a *Assignment) RoleOf(participantID int) (Role, bool) {
	for _, t := range a.Teams {
		if r, ok := t.RoleOf(participantID); ok {
			return r, true
		}
	}
	return "", false
}

// Config tunes the engine. Zero values fall back to the defaults.
type Config struct {
	Affinity            *Affinity
	JungleClearSpells   []int
	FallbackAfterPasses int
}

// DefaultConfig returns the stock tables and thresholds
func DefaultConfig() Config {
	return Config{
		Affinity:            DefaultAffinity(),
		JungleClearSpells:   []int{SmiteSpellID},
		FallbackAfterPasses: DefaultFallbackAfterPasses,
	}
}

// Engine resolves lane roles. It holds only read-only configuration and is
// safe for concurrent use.
type Engine struct {
	affinity      *Affinity
	jungleClear   SpellSet
	fallbackAfter int
}

// NewEngine creates an engine from cfg
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Affinity == nil {
		cfg.Affinity = def.Affinity
	}
	if len(cfg.JungleClearSpells) == 0 {
		cfg.JungleClearSpells = def.JungleClearSpells
	}
	if cfg.FallbackAfterPasses <= 0 {
		cfg.FallbackAfterPasses = def.FallbackAfterPasses
	}

	return &Engine{
		affinity:      cfg.Affinity,
		jungleClear:   NewSpellSet(cfg.JungleClearSpells...),
		fallbackAfter: cfg.FallbackAfterPasses,
	}
}

// Extract derives a signal using the engine's jungle-clear spells
func (e *Engine) Extract(p Participant) Signal {
	return Extract(p, e.jungleClear)
}

// Resolve assigns all ten participants of a match to roles. Teams are
// resolved independently; the result only depends on the input order and
// the engine configuration.
func (e *Engine) Resolve(participants []Participant) (*Assignment, error) {
	teams := make(map[int][]Signal)
	for _, p := range participants {
		teams[p.TeamID] = append(teams[p.TeamID], e.Extract(p))
	}

	if len(teams) != 2 {
		return nil, fmt.Errorf("%w: expected 2 teams, got %d", ErrMalformedMatch, len(teams))
	}

	teamIDs := make([]int, 0, len(teams))
	for id := range teams {
		teamIDs = append(teamIDs, id)
	}
	sort.Ints(teamIDs)

	out := &Assignment{Teams: make(map[int]TeamRoles, len(teams))}
	for _, id := range teamIDs {
		resolved, err := e.ResolveTeam(teams[id])
		if err != nil {
			return nil, fmt.Errorf("team %d: %w", id, err)
		}
		out.Teams[id] = resolved
	}

	return out, nil
}

// ResolveTeam assigns the five signals of one team to the five roles
func (e *Engine) ResolveTeam(signals []Signal) (TeamRoles, error) {
	if len(signals) != TeamSize {
		return nil, fmt.Errorf("%w: expected %d players, got %d", ErrMalformedMatch, TeamSize, len(signals))
	}

	st := partition(signals, e.affinity)

	// Every pass either shrinks conflict or counts as unproductive, and past
	// the threshold each unproductive pass places one signal, so the loop is
	// bounded. maxPasses is a second, explicit bound on top of that.
	maxPasses := e.fallbackAfter + 2*TeamSize
	unproductive := 0

	for pass := 1; len(st.conflict) > 0; pass++ {
		before := len(st.conflict)
		for _, fix := range passOrder {
			st = fix(st, e.affinity)
		}

		if len(st.conflict) == 0 {
			break
		}
		if len(st.missing()) == 1 {
			st = closeSingleGap(st)
			break
		}
		if len(st.conflict) < before {
			continue
		}

		unproductive++
		if unproductive > e.fallbackAfter || pass >= maxPasses {
			st = closeFirstGap(st)
		}
	}

	return st.roles(), nil
}

func (s teamState) roles() TeamRoles {
	out := make(TeamRoles, len(s.valid))
	for _, v := range s.valid {
		out[v.Role] = Slot{
			ParticipantID: v.ParticipantID,
			Champion:      v.Champion,
			KDA:           v.KDA,
		}
	}
	return out
}
