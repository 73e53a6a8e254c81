package stats

import (
	"ranked-tracker/internal/riot"
	"ranked-tracker/internal/sheet"
)

// LaneOpponent is the enemy holding the same role as the tracked player
func LaneOpponent(in Input, me *riot.MatchParticipant) (*riot.MatchParticipant, bool) {
	if in.Assignment == nil {
		return nil, false
	}
	r, ok := in.Assignment.Teams[me.TeamID].RoleOf(me.ParticipantID)
	if !ok {
		return nil, false
	}
	slot, ok := in.Assignment.Teams[opposingTeam(me.TeamID)][r]
	if !ok {
		return nil, false
	}
	return in.Match.ParticipantByID(slot.ParticipantID)
}

func (b *builder) laneDiffs() {
	opp, ok := LaneOpponent(b.in, b.me)
	if !ok {
		return
	}

	mine := totals(b.in.Match, b.me.TeamID)
	theirs := totals(b.in.Match, opp.TeamID)

	myShare := ratio(float64(b.me.TotalDamageDealtToChampions), float64(mine.damage))
	oppShare := ratio(float64(opp.TotalDamageDealtToChampions), float64(theirs.damage))

	b.row.Set(sheet.ColCSDiff, creepScore(b.me)-creepScore(opp))
	b.row.Set(sheet.ColKillDiff, b.me.Kills-opp.Kills)
	b.row.Set(sheet.ColDeathDiff, b.me.Deaths-opp.Deaths)
	b.row.Set(sheet.ColAssistDiff, b.me.Assists-opp.Assists)
	b.row.Set(sheet.ColKDADiff, participantKDA(b.me)-participantKDA(opp))
	b.row.Set(sheet.ColDamageDiff, myShare-oppShare)
	b.row.Set(sheet.ColWardsPlacedDiff, b.me.WardsPlaced-opp.WardsPlaced)
	b.row.Set(sheet.ColWardsDestroyedDiff, b.me.WardsKilled-opp.WardsKilled)
	b.row.Set(sheet.ColVisionWardsDiff, b.me.VisionWardsBoughtInGame-opp.VisionWardsBoughtInGame)
	b.row.Set(sheet.ColKillContributionDiff, KillContribution(b.me, mine.kills)-KillContribution(opp, theirs.kills))
}
