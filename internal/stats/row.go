package stats

import (
	"errors"
	"fmt"
	"math"
	"time"

	"ranked-tracker/internal/riot"
	"ranked-tracker/internal/roles"
	"ranked-tracker/internal/sheet"
)

// ErrPlayerNotInMatch is returned when the tracked PUUID did not play the match
var ErrPlayerNotInMatch = errors.New("stats: player not in match")

// Names resolves champion ids to display names
type Names interface {
	GetName(id int) string
}

// Input is everything one row is derived from. Only Match and PUUID are
// required.
type Input struct {
	Match      *riot.MatchResponse
	Timeline   *riot.TimelineResponse
	PUUID      string
	Assignment *roles.Assignment         // nil when roles could not be resolved
	League     *riot.LeagueEntryResponse // nil leaves the league columns blank
	Unranked   bool                      // no solo queue entry; League must be nil
	Previous   *sheet.Row                // last recorded row
	Duoers     []string                  // Duoer column, oldest first; nil skips duo detection
	Champions  Names
	AFKRatio   float64
	Location   *time.Location
}

// BuildRow derives the sheet row for the tracked player in one match
func BuildRow(in Input) (sheet.Row, error) {
	me, ok := in.Match.Participant(in.PUUID)
	if !ok {
		return sheet.Row{}, fmt.Errorf("%w: %s", ErrPlayerNotInMatch, in.Match.Metadata.MatchID)
	}

	row := sheet.NewRow(in.Match.Metadata.MatchID)
	b := &builder{in: in, row: row, me: me, length: MatchMinutes(in.Match.Info.GameDuration)}

	b.basics()
	b.roleColumns()
	b.teamShares()
	b.bans()
	b.objectives()
	b.laneDiffs()
	b.deltas()
	b.afk()
	b.league()
	b.duo()

	return row, nil
}

type builder struct {
	in     Input
	row    sheet.Row
	me     *riot.MatchParticipant
	length float64 // minutes, unrounded
}

func (b *builder) basics() {
	m := b.in.Match
	loc := b.in.Location
	if loc == nil {
		loc = time.Local
	}

	start := m.Info.GameStartTimestamp
	if start == 0 {
		start = m.Info.GameCreation
	}
	t := time.UnixMilli(start).In(loc)

	b.row.Set(sheet.ColDate, t.Format("Mon Jan 02 2006"))
	b.row.Set(sheet.ColTime, t.Format("3 PM"))
	b.row.Set(sheet.ColLength, int(math.Round(b.length)))
	b.row.Set(sheet.ColChampion, b.championName(b.me))
	b.row.Set(sheet.ColSide, Side(b.me.TeamID))
	b.row.Set(sheet.ColResult, Result(b.me.Win))

	b.row.Set(sheet.ColKills, b.me.Kills)
	b.row.Set(sheet.ColDeaths, b.me.Deaths)
	b.row.Set(sheet.ColAssists, b.me.Assists)
	b.row.Set(sheet.ColKDA, participantKDA(b.me))

	cs := creepScore(b.me)
	b.row.Set(sheet.ColCS, cs)
	b.row.Set(sheet.ColCSPerMin, perMinute(float64(cs), b.length))

	b.row.Set(sheet.ColWardsPlaced, b.me.WardsPlaced)
	b.row.Set(sheet.ColWardsDestroyed, b.me.WardsKilled)
	b.row.Set(sheet.ColVisionWards, b.me.VisionWardsBoughtInGame)
}

func (b *builder) championName(p *riot.MatchParticipant) string {
	if b.in.Champions != nil && p.ChampionID > 0 {
		return b.in.Champions.GetName(p.ChampionID)
	}
	return p.ChampionName
}

// MatchMinutes converts a game duration to minutes. Matches recorded before
// patch 11.20 report milliseconds; nothing lasts 10 hours, so larger values
// are taken as milliseconds.
func MatchMinutes(duration int) float64 {
	secs := float64(duration)
	if duration > 36000 {
		secs /= 1000
	}
	return secs / 60
}

// Side names the map side of a team
func Side(teamID int) string {
	if teamID == 100 {
		return "Blue"
	}
	return "Red"
}

// Result is the Win/Lose cell
func Result(win bool) string {
	if win {
		return "Win"
	}
	return "Lose"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func creepScore(p *riot.MatchParticipant) int {
	return p.TotalMinionsKilled + p.NeutralMinionsKilled
}

func participantKDA(p *riot.MatchParticipant) float64 {
	return roles.KDA(p.Kills, p.Deaths, p.Assists)
}

func perMinute(v, minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	return v / minutes
}

func ratio(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total
}
