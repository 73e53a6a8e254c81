package stats

import (
	"fmt"
	"sort"

	"ranked-tracker/internal/riot"
	"ranked-tracker/internal/roles"
	"ranked-tracker/internal/sheet"
)

type teamTotals struct {
	kills  int
	deaths int
	damage int
}

func totals(m *riot.MatchResponse, teamID int) teamTotals {
	var t teamTotals
	for _, p := range m.Info.Participants {
		if p.TeamID != teamID {
			continue
		}
		t.kills += p.Kills
		t.deaths += p.Deaths
		t.damage += p.TotalDamageDealtToChampions
	}
	return t
}

// KillContribution is the share of the team's kills a player took part in
func KillContribution(p *riot.MatchParticipant, teamKills int) float64 {
	return ratio(float64(p.Kills+p.Assists), float64(teamKills))
}

func (b *builder) teamShares() {
	t := totals(b.in.Match, b.me.TeamID)

	b.row.Set(sheet.ColKillContribution, KillContribution(b.me, t.kills))
	b.row.Set(sheet.ColDeathContribution, ratio(float64(b.me.Deaths), float64(t.deaths)))
	b.row.Set(sheet.ColDamageShare, ratio(float64(b.me.TotalDamageDealtToChampions), float64(t.damage)))
}

// roleColumns fills "<My|Their> <Role>" and the KDA next to it
func (b *builder) roleColumns() {
	a := b.in.Assignment
	if a == nil {
		return
	}

	for teamID, team := range a.Teams {
		prefix := sheet.PrefixTheir
		if teamID == b.me.TeamID {
			prefix = sheet.PrefixMy
		}
		for _, r := range roles.CanonicalRoles {
			slot, ok := team[r]
			if !ok {
				continue
			}
			name := slot.Champion
			if p, ok := b.in.Match.ParticipantByID(slot.ParticipantID); ok {
				name = b.championName(p)
			}
			b.row.Set(sheet.RoleColumn(prefix, r), name)
			b.row.Set(sheet.RoleKDAColumn(prefix, r), slot.KDA)
		}
	}

	mine := a.Teams[b.me.TeamID]
	if r, ok := mine.RoleOf(b.me.ParticipantID); ok {
		b.row.Set(sheet.ColMyRole, r.String())
	}
	b.row.Set(sheet.ColHighestKDA, yesNo(HighestKDA(mine, participantKDA(b.me))))
}

// HighestKDA reports whether kda is at least every KDA on the team
func HighestKDA(team roles.TeamRoles, kda float64) bool {
	for _, slot := range team {
		if slot.KDA > kda {
			return false
		}
	}
	return true
}

// Bans lists every ban in pick-turn order. Missed bans show as "None".
func Bans(m *riot.MatchResponse, names Names) []string {
	var all []riot.Ban
	for _, t := range m.Info.Teams {
		all = append(all, t.Bans...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].PickTurn < all[j].PickTurn })

	out := make([]string, 0, len(all))
	for _, ban := range all {
		switch {
		case ban.ChampionID <= 0:
			out = append(out, "None")
		case names != nil:
			out = append(out, names.GetName(ban.ChampionID))
		default:
			out = append(out, fmt.Sprintf("Champion %d", ban.ChampionID))
		}
	}
	return out
}

func (b *builder) bans() {
	for i, name := range Bans(b.in.Match, b.in.Champions) {
		if i >= sheet.MaxBans {
			break
		}
		b.row.Set(sheet.BanColumn(i+1), name)
	}
}

func (b *builder) objectives() {
	mine, ok := b.in.Match.Team(b.me.TeamID)
	if !ok {
		return
	}
	enemy, _ := b.in.Match.Team(opposingTeam(b.me.TeamID))
	if enemy == nil {
		enemy = &riot.MatchTeam{}
	}

	b.row.Set(sheet.ColMyDragons, mine.Objectives.Dragon.Kills)
	b.row.Set(sheet.ColEnemyDragons, enemy.Objectives.Dragon.Kills)
	b.row.Set(sheet.ColMyBarons, mine.Objectives.Baron.Kills)
	b.row.Set(sheet.ColEnemyBarons, enemy.Objectives.Baron.Kills)

	b.row.Set(sheet.ColFirstBlood, yesNo(mine.Objectives.Champion.First))
	b.row.Set(sheet.ColFirstTower, yesNo(mine.Objectives.Tower.First))
	b.row.Set(sheet.ColFirstInhibitor, yesNo(mine.Objectives.Inhibitor.First))
	b.row.Set(sheet.ColFirstDragon, yesNo(mine.Objectives.Dragon.First))
	b.row.Set(sheet.ColFirstBaron, yesNo(mine.Objectives.Baron.First))
}

func opposingTeam(teamID int) int {
	if teamID == 100 {
		return 200
	}
	return 100
}
