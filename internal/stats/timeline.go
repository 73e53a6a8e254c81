package stats

import (
	"sort"
	"strconv"

	"ranked-tracker/internal/riot"
	"ranked-tracker/internal/sheet"
)

// window bounds in minutes; -1 runs to the last frame
var windows = []struct {
	from, to int
}{
	{0, 10},
	{10, 20},
	{20, 30},
	{30, -1},
}

type frameSample struct {
	minute float64
	cs     int
	gold   int
}

// samples returns a participant's per-frame farm and gold
func samples(tl *riot.TimelineResponse, participantID int) []frameSample {
	key := strconv.Itoa(participantID)
	out := make([]frameSample, 0, len(tl.Info.Frames))
	for _, f := range tl.Info.Frames {
		pf, ok := f.ParticipantFrames[key]
		if !ok {
			continue
		}
		out = append(out, frameSample{
			minute: float64(f.Timestamp) / 60000,
			cs:     pf.MinionsKilled + pf.JungleMinionsKilled,
			gold:   pf.TotalGold,
		})
	}
	return out
}

// Rate is a per-minute change over one window
type Rate struct {
	CS   float64
	Gold float64
}

// edgeSlack absorbs frame timestamps that land a little after the minute mark
const edgeSlack = 0.5

// WindowRates returns the CS and gold per minute for each delta window.
// Window edges are matched against frame timestamps, so frames missing for
// the participant do not shift later windows. A window is absent when the
// game ended before it started.
func WindowRates(tl *riot.TimelineResponse, participantID int) []*Rate {
	s := samples(tl, participantID)
	out := make([]*Rate, len(windows))
	if len(s) < 2 {
		return out
	}

	for i, w := range windows {
		from := firstAtOrAfter(s, float64(w.from)-edgeSlack)
		to := len(s) - 1
		if w.to >= 0 {
			to = lastAtOrBefore(s, float64(w.to)+edgeSlack)
		}
		if from < 0 || to <= from {
			continue
		}
		minutes := s[to].minute - s[from].minute
		if minutes <= 0 {
			continue
		}
		out[i] = &Rate{
			CS:   float64(s[to].cs-s[from].cs) / minutes,
			Gold: float64(s[to].gold-s[from].gold) / minutes,
		}
	}
	return out
}

func firstAtOrAfter(s []frameSample, minute float64) int {
	for i, f := range s {
		if f.minute >= minute {
			return i
		}
	}
	return -1
}

func lastAtOrBefore(s []frameSample, minute float64) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].minute <= minute {
			return i
		}
	}
	return -1
}

func (b *builder) deltas() {
	if b.in.Timeline == nil {
		return
	}

	mine := WindowRates(b.in.Timeline, b.me.ParticipantID)
	var theirs []*Rate
	if opp, ok := LaneOpponent(b.in, b.me); ok {
		theirs = WindowRates(b.in.Timeline, opp.ParticipantID)
	}

	for i, window := range sheet.DeltaWindows {
		r := mine[i]
		if r == nil {
			continue
		}
		b.row.Set(sheet.DeltaColumn(sheet.DeltaKinds[0], window), r.CS)
		b.row.Set(sheet.DeltaColumn(sheet.DeltaKinds[1], window), r.Gold)
		if theirs != nil && theirs[i] != nil {
			b.row.Set(sheet.DeltaColumn(sheet.DeltaKinds[2], window), r.CS-theirs[i].CS)
		}
	}
}

// XPSeries extracts every participant's XP per frame, keyed by participant id
func XPSeries(tl *riot.TimelineResponse) map[int][]int {
	out := make(map[int][]int)
	for _, f := range tl.Info.Frames {
		for key, pf := range f.ParticipantFrames {
			id := pf.ParticipantID
			if id == 0 {
				id, _ = strconv.Atoi(key)
			}
			out[id] = append(out[id], pf.XP)
		}
	}
	return out
}

// DetectAFK flags players whose average XP gain per frame is below ratio
// times their team's average. teamOf maps participant id to team id. The
// result is sorted.
func DetectAFK(xp map[int][]int, teamOf map[int]int, ratio float64) []int {
	gain := make(map[int]float64, len(xp))
	teamSum := make(map[int]float64)
	teamCount := make(map[int]int)

	for id, series := range xp {
		if len(series) < 2 {
			continue
		}
		g := float64(series[len(series)-1]-series[0]) / float64(len(series)-1)
		gain[id] = g
		teamSum[teamOf[id]] += g
		teamCount[teamOf[id]]++
	}

	var afk []int
	for id, g := range gain {
		team := teamOf[id]
		avg := teamSum[team] / float64(teamCount[team])
		if g < ratio*avg {
			afk = append(afk, id)
		}
	}
	sort.Ints(afk)
	return afk
}

// TeamOf maps each participant id to its team id
func TeamOf(m *riot.MatchResponse) map[int]int {
	out := make(map[int]int, len(m.Info.Participants))
	for _, p := range m.Info.Participants {
		out[p.ParticipantID] = p.TeamID
	}
	return out
}

func (b *builder) afk() {
	if b.in.Timeline == nil || b.in.AFKRatio <= 0 {
		return
	}

	teamOf := TeamOf(b.in.Match)
	mine, theirs := 0, 0
	for _, id := range DetectAFK(XPSeries(b.in.Timeline), teamOf, b.in.AFKRatio) {
		if teamOf[id] == b.me.TeamID {
			mine++
		} else {
			theirs++
		}
	}
	b.row.Set(sheet.ColMyAFK, mine)
	b.row.Set(sheet.ColTheirAFK, theirs)
}
