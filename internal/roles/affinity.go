package roles

import (
	"strings"
	"unicode"
)

// ChampionSet is a set of champion names compared after normalization
type ChampionSet map[string]struct{}

// NewChampionSet builds a set from display or internal champion names
func NewChampionSet(names ...string) ChampionSet {
	s := make(ChampionSet, len(names))
	for _, n := range names {
		if key := NormalizeChampion(n); key != "" {
			s[key] = struct{}{}
		}
	}
	return s
}

// Has reports whether the champion is in the set
func (s ChampionSet) Has(champion string) bool {
	_, ok := s[NormalizeChampion(champion)]
	return ok
}

// NormalizeChampion folds case and drops everything that is not a letter or
// digit, so "Kai'Sa", "KaiSa" and "kaisa" compare equal.
func NormalizeChampion(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Affinity holds the champion lists used as tie-break hints. They are never
// the sole reason a role is assigned.
type Affinity struct {
	Top          ChampionSet
	Mid          ChampionSet
	ADC          ChampionSet
	ADCSecondary ChampionSet // mages and oddities that still show up bottom as the carry
}

// IsADC reports whether the champion is in the primary ADC list
func (a *Affinity) IsADC(champion string) bool {
	return a.ADC.Has(champion)
}

// IsAnyADC checks both the primary and the secondary ADC lists
func (a *Affinity) IsAnyADC(champion string) bool {
	return a.ADC.Has(champion) || a.ADCSecondary.Has(champion)
}

// forRole returns the list consulted for a contested role, nil if none
func (a *Affinity) forRole(r Role) ChampionSet {
	switch r {
	case Top:
		return a.Top
	case Mid:
		return a.Mid
	case ADC:
		return a.ADC
	}
	return nil
}

// Default champion lists. The roster changes every few patches; override
// them through the champion DB or an affinity YAML file instead of editing code.
var (
	DefaultTopChampions = []string{
		"Aatrox", "Ambessa", "Camille", "Cho'Gath", "Darius", "Dr. Mundo", "Fiora",
		"Gangplank", "Garen", "Gnar", "Gragas", "Gwen", "Illaoi", "Irelia", "Jax",
		"Jayce", "K'Sante", "Kayle", "Kennen", "Kled", "Malphite", "Mordekaiser",
		"Nasus", "Olaf", "Ornn", "Pantheon", "Poppy", "Quinn", "Renekton", "Riven",
		"Rumble", "Sett", "Shen", "Singed", "Sion", "Teemo", "Trundle",
		"Tryndamere", "Urgot", "Vayne", "Volibear", "Warwick", "Wukong", "Yorick",
		"MonkeyKing", // Wukong's internal name, as the match provider reports it
	}

	DefaultMidChampions = []string{
		"Ahri", "Akali", "Akshan", "Anivia", "Annie", "Aurelion Sol", "Aurora",
		"Azir", "Cassiopeia", "Corki", "Ekko", "Fizz", "Galio", "Hwei", "Kassadin",
		"Katarina", "LeBlanc", "Lissandra", "Lux", "Malzahar", "Mel", "Naafiri",
		"Neeko", "Orianna", "Qiyana", "Ryze", "Sylas", "Syndra", "Taliyah", "Talon",
		"Twisted Fate", "Veigar", "Vex", "Viktor", "Vladimir", "Xerath", "Yasuo",
		"Yone", "Zed", "Ziggs", "Zoe",
	}

	DefaultADCChampions = []string{
		"Aphelios", "Ashe", "Caitlyn", "Draven", "Ezreal", "Jhin", "Jinx", "Kai'Sa",
		"Kalista", "Kog'Maw", "Lucian", "Miss Fortune", "Nilah", "Samira", "Sivir",
		"Smolder", "Tristana", "Twitch", "Varus", "Vayne", "Xayah", "Zeri",
	}

	DefaultADCSecondaryChampions = []string{
		"Cassiopeia", "Corki", "Heimerdinger", "Hwei", "Karthus", "Seraphine",
		"Swain", "Veigar", "Yasuo", "Ziggs",
	}
)

// DefaultAffinity builds an Affinity from the compiled-in lists
func DefaultAffinity() *Affinity {
	return &Affinity{
		Top:          NewChampionSet(DefaultTopChampions...),
		Mid:          NewChampionSet(DefaultMidChampions...),
		ADC:          NewChampionSet(DefaultADCChampions...),
		ADCSecondary: NewChampionSet(DefaultADCSecondaryChampions...),
	}
}
