package stats

import (
	"strings"

	"ranked-tracker/internal/riot"
	"ranked-tracker/internal/sheet"
)

// promoLP is what a won promotion series is booked as, and a demotion is
// booked as its negative
const promoLP = 100

// InPromos reports whether a promotion series has started. A series with no
// games played yet does not count.
func InPromos(e *riot.LeagueEntryResponse) bool {
	if e == nil || e.MiniSeries == nil {
		return false
	}
	return strings.Trim(e.MiniSeries.Progress, "N") != ""
}

// LPChange computes the LP gained since the previous row. ok is false when
// there is nothing to compare against.
func LPChange(prev *sheet.Row, cur *riot.LeagueEntryResponse) (change int, ok bool) {
	if prev == nil || cur == nil {
		return 0, false
	}
	oldLP, ok := prev.Int(sheet.ColCurrentLP)
	if !ok {
		return 0, false
	}
	prevPromos := prev.String(sheet.ColPromos) == "Yes"

	oldScore, oldKnown := riot.RankScore(prev.String(sheet.ColLeague), prev.String(sheet.ColDivision), oldLP)
	newScore, newKnown := riot.RankScore(cur.Tier, cur.Rank, cur.LeaguePoints)
	if oldKnown && newKnown {
		promoted := newScore-cur.LeaguePoints > oldScore-oldLP
		if prevPromos && promoted {
			return promoLP, true
		}
		return newScore - oldScore, true
	}

	// Rows without tier and division only have LP to go on
	switch {
	case prevPromos && cur.LeaguePoints == 0:
		return promoLP, true
	case oldLP == 0 && cur.LeaguePoints > 60:
		return -promoLP, true
	}
	return cur.LeaguePoints - oldLP, true
}

func (b *builder) league() {
	e := b.in.League
	if e == nil {
		if b.in.Unranked {
			b.row.Set(sheet.ColLeague, "Unranked")
		}
		return
	}

	b.row.Set(sheet.ColLeague, e.Tier)
	b.row.Set(sheet.ColDivision, e.Rank)
	b.row.Set(sheet.ColCurrentLP, e.LeaguePoints)
	b.row.Set(sheet.ColPromos, yesNo(InPromos(e)))

	if change, ok := LPChange(b.in.Previous, e); ok {
		b.row.Set(sheet.ColLPChange, change)
	}
}
