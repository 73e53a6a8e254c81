package riot

// AccountResponse represents the response from /riot/account/v1/accounts/by-riot-id
type AccountResponse struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// MatchResponse represents the response from /lol/match/v5/matches/{matchId}
type MatchResponse struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"` // PUUIDs
}

type MatchInfo struct {
	GameCreation       int64              `json:"gameCreation"`
	GameStartTimestamp int64              `json:"gameStartTimestamp"`
	GameDuration       int                `json:"gameDuration"` // seconds
	GameVersion        string             `json:"gameVersion"`
	GameMode           string             `json:"gameMode"`
	QueueID            int                `json:"queueId"`
	Participants       []MatchParticipant `json:"participants"`
	Teams              []MatchTeam        `json:"teams"`
}

type MatchParticipant struct {
	ParticipantID  int    `json:"participantId"`
	PUUID          string `json:"puuid"`
	RiotIdGameName string `json:"riotIdGameName"`
	RiotIdTagline  string `json:"riotIdTagline"`
	TeamID         int    `json:"teamId"` // 100 blue, 200 red
	ChampionID     int    `json:"championId"`
	ChampionName   string `json:"championName"`
	Summoner1ID    int    `json:"summoner1Id"`
	Summoner2ID    int    `json:"summoner2Id"`
	Lane           string `json:"lane"` // TOP, JUNGLE, MIDDLE, BOTTOM, NONE
	Role           string `json:"role"` // SOLO, CARRY, SUPPORT, DUO, NONE
	TeamPosition   string `json:"teamPosition"`
	Win            bool   `json:"win"`

	Kills                       int `json:"kills"`
	Deaths                      int `json:"deaths"`
	Assists                     int `json:"assists"`
	TotalMinionsKilled          int `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int `json:"neutralMinionsKilled"`
	GoldEarned                  int `json:"goldEarned"`
	TotalDamageDealtToChampions int `json:"totalDamageDealtToChampions"`
	WardsPlaced                 int `json:"wardsPlaced"`
	WardsKilled                 int `json:"wardsKilled"`
	VisionWardsBoughtInGame     int `json:"visionWardsBoughtInGame"`
}

type MatchTeam struct {
	TeamID     int            `json:"teamId"`
	Win        bool           `json:"win"`
	Bans       []Ban          `json:"bans"`
	Objectives TeamObjectives `json:"objectives"`
}

type Ban struct {
	ChampionID int `json:"championId"` // -1 for no ban
	PickTurn   int `json:"pickTurn"`
}

type TeamObjectives struct {
	Baron      Objective `json:"baron"`
	Champion   Objective `json:"champion"`
	Dragon     Objective `json:"dragon"`
	Inhibitor  Objective `json:"inhibitor"`
	RiftHerald Objective `json:"riftHerald"`
	Tower      Objective `json:"tower"`
}

type Objective struct {
	First bool `json:"first"`
	Kills int  `json:"kills"`
}

// TimelineResponse represents the response from /lol/match/v5/matches/{matchId}/timeline
type TimelineResponse struct {
	Metadata TimelineMetadata `json:"metadata"`
	Info     TimelineInfo     `json:"info"`
}

type TimelineMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"` // PUUIDs
}

type TimelineInfo struct {
	FrameInterval int             `json:"frameInterval"` // ms, one minute in practice
	Frames        []TimelineFrame `json:"frames"`
}

type TimelineFrame struct {
	Timestamp         int                         `json:"timestamp"`
	ParticipantFrames map[string]ParticipantFrame `json:"participantFrames"` // keyed by participant id
}

type ParticipantFrame struct {
	ParticipantID       int `json:"participantId"`
	Level               int `json:"level"`
	XP                  int `json:"xp"`
	TotalGold           int `json:"totalGold"`
	MinionsKilled       int `json:"minionsKilled"`
	JungleMinionsKilled int `json:"jungleMinionsKilled"`
}

// LeagueEntryResponse represents a ranked league entry from /lol/league/v4/entries/by-puuid
type LeagueEntryResponse struct {
	LeagueID     string      `json:"leagueId"`
	QueueType    string      `json:"queueType"` // RANKED_SOLO_5x5, RANKED_FLEX_SR
	Tier         string      `json:"tier"`      // IRON, BRONZE, SILVER, GOLD, PLATINUM, EMERALD, DIAMOND, MASTER, GRANDMASTER, CHALLENGER
	Rank         string      `json:"rank"`      // I, II, III, IV
	LeaguePoints int         `json:"leaguePoints"`
	Wins         int         `json:"wins"`
	Losses       int         `json:"losses"`
	MiniSeries   *MiniSeries `json:"miniSeries,omitempty"`
}

// MiniSeries is present while a promotion series is running
type MiniSeries struct {
	Target   int    `json:"target"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Progress string `json:"progress"` // e.g. "WLN"
}

const QueueSoloDuo = "RANKED_SOLO_5x5"

// Tier order for comparison (higher index = higher rank)
var TierOrder = map[string]int{
	"IRON":        0,
	"BRONZE":      1,
	"SILVER":      2,
	"GOLD":        3,
	"PLATINUM":    4,
	"EMERALD":     5,
	"DIAMOND":     6,
	"MASTER":      7,
	"GRANDMASTER": 8,
	"CHALLENGER":  9,
}

// Division order (higher index = higher rank within tier)
var DivisionOrder = map[string]int{
	"IV":  0,
	"III": 1,
	"II":  2,
	"I":   3,
}

// RankScore flattens tier, division and LP onto one ladder so LP changes
// across promotions and demotions come out as a plain difference. Master and
// above share one LP pool with no divisions. ok is false for unknown tiers.
func RankScore(tier, division string, lp int) (score int, ok bool) {
	tierIdx, exists := TierOrder[tier]
	if !exists {
		return 0, false
	}

	if tierIdx >= TierOrder["MASTER"] {
		return TierOrder["MASTER"]*400 + lp, true
	}

	divIdx, exists := DivisionOrder[division]
	if !exists {
		return 0, false
	}
	return tierIdx*400 + divIdx*100 + lp, true
}
