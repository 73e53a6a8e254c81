package storage

import (
	"ranked-tracker/internal/riot"
	"ranked-tracker/internal/roles"
)

// ArchivedMatch is one raw match record in the JSONL archive. It keeps what
// the role engine reads plus the XP series used for AFK detection, so role
// resolution can be replayed without calling the provider again.
type ArchivedMatch struct {
	// Match identifiers
	MatchID      string `json:"matchId"`
	GameVersion  string `json:"gameVersion"`
	GameDuration int    `json:"gameDuration"`
	GameCreation int64  `json:"gameCreation"`
	QueueID      int    `json:"queueId"`

	// Tracked player
	PUUID string `json:"puuid"`

	Participants []ArchivedParticipant `json:"participants"`

	// XP per timeline frame, keyed by participant id
	XP map[int][]int `json:"xp,omitempty"`

	// Roles as resolved when the match was recorded; nil for malformed matches
	Roles *roles.Assignment `json:"roles,omitempty"`
}

// ArchivedParticipant is the per-player part of an ArchivedMatch
type ArchivedParticipant struct {
	ParticipantID int    `json:"participantId"`
	PUUID         string `json:"puuid"`
	GameName      string `json:"gameName,omitempty"`
	TagLine       string `json:"tagLine,omitempty"`
	TeamID        int    `json:"teamId"`
	ChampionID    int    `json:"championId"`
	ChampionName  string `json:"championName"`
	Summoner1ID   int    `json:"summoner1Id"`
	Summoner2ID   int    `json:"summoner2Id"`
	Lane          string `json:"lane"`
	Role          string `json:"role"`
	Win           bool   `json:"win"`

	Kills   int `json:"kills"`
	Deaths  int `json:"deaths"`
	Assists int `json:"assists"`
	CS      int `json:"cs"`
}

// NewArchivedMatch flattens a provider match for the archive
func NewArchivedMatch(m *riot.MatchResponse, puuid string, xp map[int][]int, assignment *roles.Assignment) ArchivedMatch {
	a := ArchivedMatch{
		MatchID:      m.Metadata.MatchID,
		GameVersion:  m.Info.GameVersion,
		GameDuration: m.Info.GameDuration,
		GameCreation: m.Info.GameCreation,
		QueueID:      m.Info.QueueID,
		PUUID:        puuid,
		XP:           xp,
		Roles:        assignment,
	}

	for _, p := range m.Info.Participants {
		a.Participants = append(a.Participants, ArchivedParticipant{
			ParticipantID: p.ParticipantID,
			PUUID:         p.PUUID,
			GameName:      p.RiotIdGameName,
			TagLine:       p.RiotIdTagline,
			TeamID:        p.TeamID,
			ChampionID:    p.ChampionID,
			ChampionName:  p.ChampionName,
			Summoner1ID:   p.Summoner1ID,
			Summoner2ID:   p.Summoner2ID,
			Lane:          p.Lane,
			Role:          p.Role,
			Win:           p.Win,
			Kills:         p.Kills,
			Deaths:        p.Deaths,
			Assists:       p.Assists,
			CS:            p.TotalMinionsKilled + p.NeutralMinionsKilled,
		})
	}
	return a
}

// EngineInput rebuilds the role engine's participant records. Lane and role
// tags are archived as the provider reported them and mapped the same way
// the live path maps them.
func (a ArchivedMatch) EngineInput() []roles.Participant {
	m := &riot.MatchResponse{Metadata: riot.MatchMetadata{MatchID: a.MatchID}}
	for _, p := range a.Participants {
		m.Info.Participants = append(m.Info.Participants, riot.MatchParticipant{
			ParticipantID:      p.ParticipantID,
			PUUID:              p.PUUID,
			TeamID:             p.TeamID,
			ChampionID:         p.ChampionID,
			ChampionName:       p.ChampionName,
			Summoner1ID:        p.Summoner1ID,
			Summoner2ID:        p.Summoner2ID,
			Lane:               p.Lane,
			Role:               p.Role,
			Kills:              p.Kills,
			Deaths:             p.Deaths,
			Assists:            p.Assists,
			TotalMinionsKilled: p.CS,
		})
	}
	return riot.ToParticipants(m)
}
