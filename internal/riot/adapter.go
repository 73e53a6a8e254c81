package riot

import "ranked-tracker/internal/roles"

// match-v5 shortened the role tags; the role engine works on the duo forms
var roleTags = map[string]string{
	"CARRY":   roles.RoleDuoCarry,
	"SUPPORT": roles.RoleDuoSupport,
}

// ToParticipants converts a match into role engine input, in provider order
func ToParticipants(m *MatchResponse) []roles.Participant {
	out := make([]roles.Participant, 0, len(m.Info.Participants))
	for _, p := range m.Info.Participants {
		role := p.Role
		if tag, ok := roleTags[role]; ok {
			role = tag
		}

		out = append(out, roles.Participant{
			ParticipantID:        p.ParticipantID,
			TeamID:               p.TeamID,
			Champion:             p.ChampionName,
			Spell1:               p.Summoner1ID,
			Spell2:               p.Summoner2ID,
			Lane:                 p.Lane,
			Role:                 role,
			Kills:                p.Kills,
			Deaths:               p.Deaths,
			Assists:              p.Assists,
			MinionsKilled:        p.TotalMinionsKilled,
			NeutralMinionsKilled: p.NeutralMinionsKilled,
		})
	}
	return out
}

// Participant returns the participant with the given PUUID
func (m *MatchResponse) Participant(puuid string) (*MatchParticipant, bool) {
	for i := range m.Info.Participants {
		if m.Info.Participants[i].PUUID == puuid {
			return &m.Info.Participants[i], true
		}
	}
	return nil, false
}

// ParticipantByID returns the participant with the given participant id
func (m *MatchResponse) ParticipantByID(id int) (*MatchParticipant, bool) {
	for i := range m.Info.Participants {
		if m.Info.Participants[i].ParticipantID == id {
			return &m.Info.Participants[i], true
		}
	}
	return nil, false
}

// Team returns the team entry for teamID
func (m *MatchResponse) Team(teamID int) (*MatchTeam, bool) {
	for i := range m.Info.Teams {
		if m.Info.Teams[i].TeamID == teamID {
			return &m.Info.Teams[i], true
		}
	}
	return nil, false
}
