package roles

// SmiteSpellID is the summoner spell every jungler takes
const SmiteSpellID = 11

// Participant is one player's raw record from the match provider
type Participant struct {
	ParticipantID int
	TeamID        int
	Champion      string
	Spell1        int
	Spell2        int
	Lane          string // TOP, JUNGLE, MIDDLE, BOTTOM, NONE or empty
	Role          string // DUO_CARRY, DUO_SUPPORT, SOLO, NONE or empty

	Kills                int
	Deaths               int
	Assists              int
	MinionsKilled        int
	NeutralMinionsKilled int
}

// Signal is the normalized view of a participant the resolver works on.
// Only Role changes while a team is being resolved.
type Signal struct {
	ParticipantID  int
	TeamID         int
	Champion       string
	ReportedLane   string
	ReportedRole   string
	Role           Role
	CreepScore     int
	KDA            float64
	HasJungleClear bool
}

// KDA returns (kills+assists)/deaths with zero deaths counted as one
func KDA(kills, deaths, assists int) float64 {
	if deaths == 0 {
		deaths = 1
	}
	return float64(kills+assists) / float64(deaths)
}

// SpellSet holds the summoner spell ids that count as the jungle-clear ability
type SpellSet map[int]struct{}

// NewSpellSet builds a SpellSet from ids
func NewSpellSet(ids ...int) SpellSet {
	s := make(SpellSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s SpellSet) has(id int) bool {
	_, ok := s[id]
	return ok
}

// Extract derives a Signal from a participant record
func Extract(p Participant, jungleClear SpellSet) Signal {
	hasClear := jungleClear.has(p.Spell1) || jungleClear.has(p.Spell2)

	return Signal{
		ParticipantID:  p.ParticipantID,
		TeamID:         p.TeamID,
		Champion:       p.Champion,
		ReportedLane:   p.Lane,
		ReportedRole:   p.Role,
		Role:           canonicalRole(p.Lane, p.Role, hasClear),
		CreepScore:     p.MinionsKilled + p.NeutralMinionsKilled,
		KDA:            KDA(p.Kills, p.Deaths, p.Assists),
		HasJungleClear: hasClear,
	}
}

// canonicalRole maps provider tags to a first role guess. A jungler pathing
// through top or mid is often tagged as a duo support there, so Smite wins.
func canonicalRole(lane, role string, hasClear bool) Role {
	junglerInLane := role == RoleDuoSupport && hasClear

	switch lane {
	case LaneTop:
		if junglerInLane {
			return Jungle
		}
		return Top
	case LaneJungle:
		if hasClear {
			return Jungle
		}
	case LaneMiddle, "MID":
		if junglerInLane {
			return Jungle
		}
		return Mid
	case LaneBottom, "BOT":
		switch role {
		case RoleDuoCarry:
			return ADC
		case RoleDuoSupport:
			return Support
		}
		return Bot
	}
	return Unknown
}
