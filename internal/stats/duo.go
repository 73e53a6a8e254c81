package stats

import (
	"ranked-tracker/internal/riot"
	"ranked-tracker/internal/sheet"
)

// RiotID formats a participant as "GameName#TagLine"
func RiotID(p *riot.MatchParticipant) string {
	if p.RiotIdTagline == "" {
		return p.RiotIdGameName
	}
	return p.RiotIdGameName + "#" + p.RiotIdTagline
}

// FindDuo returns the teammate who was most recently recorded as the duo
// partner. A first-time duo partner cannot be detected and has to be entered
// by hand once.
func FindDuo(duoers []string, teammates map[string]*riot.MatchParticipant) (*riot.MatchParticipant, bool) {
	for i := len(duoers) - 1; i >= 0; i-- {
		if p, ok := teammates[duoers[i]]; ok {
			return p, true
		}
	}
	return nil, false
}

func (b *builder) duo() {
	if b.in.Duoers == nil {
		return
	}

	teammates := make(map[string]*riot.MatchParticipant, 4)
	for i := range b.in.Match.Info.Participants {
		p := &b.in.Match.Info.Participants[i]
		if p.TeamID == b.me.TeamID && p.PUUID != b.me.PUUID {
			teammates[RiotID(p)] = p
		}
	}

	partner, ok := FindDuo(b.in.Duoers, teammates)
	if !ok {
		return
	}
	b.row.Set(sheet.ColDuoer, RiotID(partner))

	if b.in.Assignment == nil {
		return
	}
	if r, ok := b.in.Assignment.Teams[b.me.TeamID].RoleOf(partner.ParticipantID); ok {
		b.row.Set(sheet.ColDuoRole, r.String())
	}
}
