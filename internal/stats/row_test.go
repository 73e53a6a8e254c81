package stats

import (
	"strconv"
	"testing"
	"time"

	"ranked-tracker/internal/riot"
	"ranked-tracker/internal/roles"
	"ranked-tracker/internal/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNames map[int]string

func (f fakeNames) GetName(id int) string { return f[id] }

type playerSpec struct {
	id       int
	champion string
	lane     string
	role     string
	k, d, a  int
	cs, jcs  int
	damage   int
	name     string
	smite    bool
}

func testMatch() *riot.MatchResponse {
	specs := []playerSpec{
		{1, "Garen", "TOP", "SOLO", 2, 3, 4, 180, 0, 15000, "TopGuy", false},
		{2, "LeeSin", "JUNGLE", "NONE", 5, 2, 6, 20, 140, 12000, "Jungler", true},
		{3, "Ahri", "MIDDLE", "SOLO", 4, 1, 5, 210, 0, 20000, "Mage", false},
		{4, "Jinx", "BOTTOM", "CARRY", 8, 2, 4, 240, 10, 25000, "Me", false},
		{5, "Thresh", "BOTTOM", "SUPPORT", 1, 4, 12, 30, 0, 8000, "Friend", false},
		{6, "Darius", "TOP", "SOLO", 3, 4, 1, 190, 0, 14000, "Enemy1", false},
		{7, "Elise", "JUNGLE", "NONE", 2, 5, 3, 10, 120, 10000, "Enemy2", true},
		{8, "Syndra", "MIDDLE", "SOLO", 4, 3, 2, 200, 0, 18000, "Enemy3", false},
		{9, "Caitlyn", "BOTTOM", "CARRY", 1, 5, 2, 230, 0, 16000, "Enemy4", false},
		{10, "Lulu", "BOTTOM", "SUPPORT", 0, 3, 5, 25, 0, 6000, "Enemy5", false},
	}

	m := &riot.MatchResponse{
		Metadata: riot.MatchMetadata{MatchID: "NA1_5000"},
		Info: riot.MatchInfo{
			GameStartTimestamp: time.Date(2024, 3, 9, 21, 15, 0, 0, time.UTC).UnixMilli(),
			GameDuration:       1950,
			QueueID:            420,
		},
	}

	for _, s := range specs {
		team := 100
		if s.id > 5 {
			team = 200
		}
		spell2 := 4
		if s.smite {
			spell2 = roles.SmiteSpellID
		}
		p := riot.MatchParticipant{
			ParticipantID:               s.id,
			PUUID:                       "puuid-" + strconv.Itoa(s.id),
			RiotIdGameName:              s.name,
			RiotIdTagline:               "NA1",
			TeamID:                      team,
			ChampionID:                  s.id * 10,
			ChampionName:                s.champion,
			Summoner1ID:                 14,
			Summoner2ID:                 spell2,
			Lane:                        s.lane,
			Role:                        s.role,
			Win:                         team == 100,
			Kills:                       s.k,
			Deaths:                      s.d,
			Assists:                     s.a,
			TotalMinionsKilled:          s.cs,
			NeutralMinionsKilled:        s.jcs,
			TotalDamageDealtToChampions: s.damage,
		}
		if s.id == 4 {
			p.PUUID = "me"
			p.WardsPlaced, p.WardsKilled, p.VisionWardsBoughtInGame = 10, 3, 2
		}
		if s.id == 9 {
			p.WardsPlaced, p.WardsKilled, p.VisionWardsBoughtInGame = 7, 1, 0
		}
		m.Info.Participants = append(m.Info.Participants, p)
	}

	m.Info.Teams = []riot.MatchTeam{
		{
			TeamID: 100,
			Win:    true,
			Bans:   []riot.Ban{{ChampionID: 11, PickTurn: 1}, {ChampionID: 13, PickTurn: 3}, {ChampionID: 15, PickTurn: 5}, {ChampionID: 17, PickTurn: 7}, {ChampionID: 19, PickTurn: 9}},
			Objectives: riot.TeamObjectives{
				Dragon:    riot.Objective{First: true, Kills: 3},
				Baron:     riot.Objective{First: true, Kills: 1},
				Champion:  riot.Objective{First: true, Kills: 20},
				Inhibitor: riot.Objective{First: true, Kills: 2},
				Tower:     riot.Objective{First: false, Kills: 9},
			},
		},
		{
			TeamID: 200,
			Bans:   []riot.Ban{{ChampionID: 12, PickTurn: 2}, {ChampionID: -1, PickTurn: 4}, {ChampionID: 16, PickTurn: 6}, {ChampionID: 18, PickTurn: 8}, {ChampionID: 20, PickTurn: 10}},
			Objectives: riot.TeamObjectives{
				Dragon: riot.Objective{Kills: 1},
				Tower:  riot.Objective{First: true, Kills: 3},
			},
		},
	}
	return m
}

// testTimeline has one frame per minute up to minute 32. The tracked player
// farms 8 per minute, the lane opponent 7, and participant 7 barely gains XP.
func testTimeline(frames int) *riot.TimelineResponse {
	tl := &riot.TimelineResponse{Info: riot.TimelineInfo{FrameInterval: 60000}}
	for i := 0; i < frames; i++ {
		f := riot.TimelineFrame{Timestamp: i * 60000, ParticipantFrames: map[string]riot.ParticipantFrame{}}
		for id := 1; id <= 10; id++ {
			pf := riot.ParticipantFrame{ParticipantID: id, XP: 400 * i, TotalGold: 500 + 300*i, MinionsKilled: 5 * i}
			switch id {
			case 4:
				pf.MinionsKilled = 8 * i
				pf.TotalGold = 500 + 400*i
			case 9:
				pf.MinionsKilled = 7 * i
			case 7:
				pf.XP = 50 * i
			}
			f.ParticipantFrames[strconv.Itoa(id)] = pf
		}
		tl.Info.Frames = append(tl.Info.Frames, f)
	}
	return tl
}

func resolve(t *testing.T, m *riot.MatchResponse) *roles.Assignment {
	t.Helper()
	a, err := roles.NewEngine(roles.DefaultConfig()).Resolve(riot.ToParticipants(m))
	require.NoError(t, err)
	return a
}

func TestBuildRow(t *testing.T) {
	m := testMatch()
	prev := sheet.NewRow("NA1_4999")
	prev.Set(sheet.ColLeague, "PLATINUM")
	prev.Set(sheet.ColDivision, "II")
	prev.Set(sheet.ColCurrentLP, "40")
	prev.Set(sheet.ColPromos, "No")

	row, err := BuildRow(Input{
		Match:      m,
		Timeline:   testTimeline(33),
		PUUID:      "me",
		Assignment: resolve(t, m),
		League:     &riot.LeagueEntryResponse{QueueType: riot.QueueSoloDuo, Tier: "PLATINUM", Rank: "II", LeaguePoints: 57},
		Previous:   &prev,
		Duoers:     []string{"", "Someone#NA1", "Friend#NA1", ""},
		AFKRatio:   0.35,
		Location:   time.UTC,
	})
	require.NoError(t, err)

	c := row.Cells
	assert.Equal(t, "NA1_5000", row.MatchID)
	assert.Equal(t, "Sat Mar 09 2024", c[sheet.ColDate])
	assert.Equal(t, "9 PM", c[sheet.ColTime])
	assert.Equal(t, 33, c[sheet.ColLength])
	assert.Equal(t, "Jinx", c[sheet.ColChampion])
	assert.Equal(t, "Blue", c[sheet.ColSide])
	assert.Equal(t, "Win", c[sheet.ColResult])
	assert.Equal(t, 6.0, c[sheet.ColKDA])
	assert.Equal(t, 250, c[sheet.ColCS])
	assert.InDelta(t, 250/32.5, c[sheet.ColCSPerMin], 1e-9)

	// roles
	assert.Equal(t, "ADC", c[sheet.ColMyRole])
	assert.Equal(t, "LeeSin", c["My Jungle"])
	assert.Equal(t, 5.5, c["My Jungle KDA"])
	assert.Equal(t, "Caitlyn", c["Their ADC"])
	assert.Equal(t, "Lulu", c["Their Support"])
	assert.Equal(t, "No", c[sheet.ColHighestKDA], "Ahri's 9.0 beats 6.0")

	// team shares
	assert.InDelta(t, 0.6, c[sheet.ColKillContribution], 1e-9)
	assert.InDelta(t, 2.0/12, c[sheet.ColDeathContribution], 1e-9)
	assert.InDelta(t, 0.3125, c[sheet.ColDamageShare], 1e-9)

	// lane opponent
	assert.Equal(t, 20, c[sheet.ColCSDiff])
	assert.Equal(t, 7, c[sheet.ColKillDiff])
	assert.Equal(t, -3, c[sheet.ColDeathDiff])
	assert.Equal(t, 2, c[sheet.ColAssistDiff])
	assert.InDelta(t, 5.4, c[sheet.ColKDADiff], 1e-9)
	assert.InDelta(t, 0.0625, c[sheet.ColDamageDiff], 1e-9)
	assert.Equal(t, 3, c[sheet.ColWardsPlacedDiff])
	assert.Equal(t, 2, c[sheet.ColWardsDestroyedDiff])
	assert.Equal(t, 2, c[sheet.ColVisionWardsDiff])
	assert.InDelta(t, 0.3, c[sheet.ColKillContributionDiff], 1e-9)

	// objectives and bans
	assert.Equal(t, 3, c[sheet.ColMyDragons])
	assert.Equal(t, 1, c[sheet.ColEnemyDragons])
	assert.Equal(t, "Yes", c[sheet.ColFirstBlood])
	assert.Equal(t, "No", c[sheet.ColFirstTower])
	assert.Equal(t, "Champion 11", c[sheet.BanColumn(1)])
	assert.Equal(t, "None", c[sheet.BanColumn(4)])
	assert.Equal(t, "Champion 20", c[sheet.BanColumn(10)])

	// timeline
	assert.InDelta(t, 8.0, c["CS/Min Delta 0 to 10"], 1e-9)
	assert.InDelta(t, 400.0, c["Gold Delta 10 to 20"], 1e-9)
	assert.InDelta(t, 1.0, c["CS/Min Diff Delta 30 to End"], 1e-9)
	assert.Equal(t, 0, c[sheet.ColMyAFK])
	assert.Equal(t, 1, c[sheet.ColTheirAFK])

	// league and duo
	assert.Equal(t, "PLATINUM", c[sheet.ColLeague])
	assert.Equal(t, 57, c[sheet.ColCurrentLP])
	assert.Equal(t, 17, c[sheet.ColLPChange])
	assert.Equal(t, "No", c[sheet.ColPromos])
	assert.Equal(t, "Friend#NA1", c[sheet.ColDuoer])
	assert.Equal(t, "Support", c[sheet.ColDuoRole])

	for header := range c {
		assert.Contains(t, sheet.Columns, header)
	}
}

func TestBuildRow_WithoutRoles(t *testing.T) {
	m := testMatch()

	row, err := BuildRow(Input{
		Match:     m,
		Timeline:  testTimeline(33),
		PUUID:     "me",
		Champions: fakeNames{40: "Jinx (named)", 11: "Aatrox"},
		AFKRatio:  0.35,
		Location:  time.UTC,
	})
	require.NoError(t, err)

	c := row.Cells
	assert.Equal(t, "Jinx (named)", c[sheet.ColChampion])
	assert.Equal(t, "Aatrox", c[sheet.BanColumn(1)])
	assert.NotContains(t, c, sheet.ColLeague)
	assert.NotContains(t, c, sheet.ColMyRole)
	assert.NotContains(t, c, "My ADC")
	assert.NotContains(t, c, sheet.ColCSDiff)
	assert.NotContains(t, c, "CS/Min Diff Delta 0 to 10")
	assert.NotContains(t, c, sheet.ColDuoer)
	assert.Contains(t, c, "CS/Min Delta 0 to 10")
}

func TestBuildRow_Unranked(t *testing.T) {
	row, err := BuildRow(Input{Match: testMatch(), PUUID: "me", Unranked: true, Location: time.UTC})
	require.NoError(t, err)

	assert.Equal(t, "Unranked", row.String(sheet.ColLeague))
	assert.NotContains(t, row.Cells, sheet.ColCurrentLP)
}

func TestBuildRow_PlayerNotInMatch(t *testing.T) {
	_, err := BuildRow(Input{Match: testMatch(), PUUID: "stranger"})
	assert.ErrorIs(t, err, ErrPlayerNotInMatch)
}

func TestMatchMinutes(t *testing.T) {
	assert.Equal(t, 32.5, MatchMinutes(1950))
	assert.Equal(t, 32.5, MatchMinutes(1950000))
	assert.Equal(t, 0.0, MatchMinutes(0))
}

func TestSideAndResult(t *testing.T) {
	assert.Equal(t, "Blue", Side(100))
	assert.Equal(t, "Red", Side(200))
	assert.Equal(t, "Win", Result(true))
	assert.Equal(t, "Lose", Result(false))
}

func TestHighestKDA(t *testing.T) {
	team := roles.TeamRoles{
		roles.Top: {ParticipantID: 1, KDA: 2},
		roles.Mid: {ParticipantID: 3, KDA: 4},
	}
	assert.True(t, HighestKDA(team, 4))
	assert.False(t, HighestKDA(team, 3.9))
}
