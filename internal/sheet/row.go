package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"ranked-tracker/internal/roles"

	"github.com/xuri/excelize/v2"
)

// Column headers written by the tracker
const (
	ColMatchID    = "Match ID"
	ColDate       = "Date"
	ColTime       = "Time"
	ColLength     = "Length"
	ColChampion   = "My Champion"
	ColSide       = "Side"
	ColResult     = "Result"
	ColKills      = "Kills"
	ColDeaths     = "Deaths"
	ColAssists    = "Assists"
	ColKDA        = "My KDA"
	ColCS         = "CS"
	ColCSPerMin   = "CS/Min"
	ColMyRole     = "My Role"
	ColHighestKDA = "Highest KDA"

	ColKillContribution  = "Kill Contribution"
	ColDeathContribution = "Death Contribution"
	ColDamageShare       = "Damage to Champions"
	ColWardsPlaced       = "Wards Placed"
	ColWardsDestroyed    = "Wards Destroyed"
	ColVisionWards       = "Vision Wards Bought"

	ColLeague    = "League"
	ColDivision  = "Division"
	ColCurrentLP = "Current LP"
	ColLPChange  = "LP Change"
	ColPromos    = "Promos"
	ColDuoer     = "Duoer"
	ColDuoRole   = "Duo Role"

	ColMyDragons      = "My Dragons"
	ColEnemyDragons   = "Enemy Dragons"
	ColMyBarons       = "My Barons"
	ColEnemyBarons    = "Enemy Barons"
	ColFirstBlood     = "First Blood"
	ColFirstTower     = "First Tower"
	ColFirstInhibitor = "First Inhibitor"
	ColFirstDragon    = "First Dragon"
	ColFirstBaron     = "First Baron"

	ColCSDiff               = "Total CS Difference"
	ColKillDiff             = "Kill Diff"
	ColDeathDiff            = "Death Diff"
	ColAssistDiff           = "Assist Diff"
	ColKDADiff              = "KDA Diff"
	ColDamageDiff           = "Damage to Champions Diff"
	ColWardsPlacedDiff      = "Wards Placed Diff"
	ColWardsDestroyedDiff   = "Wards Destroyed Diff"
	ColVisionWardsDiff      = "Vision Wards Bought Diff"
	ColKillContributionDiff = "Kill Contribution Diff"

	ColMyAFK    = "My AFK"
	ColTheirAFK = "Their AFK"
)

// Team prefixes for the role columns
const (
	PrefixMy    = "My"
	PrefixTheir = "Their"
)

// MaxBans is the number of Ban columns
const MaxBans = 10

// Delta columns are "<kind> <window>", e.g. "CS/Min Delta 0 to 10"
var (
	DeltaKinds   = []string{"CS/Min Delta", "Gold Delta", "CS/Min Diff Delta"}
	DeltaWindows = []string{"0 to 10", "10 to 20", "20 to 30", "30 to End"}
)

// RoleColumn is the champion column for a team's role, e.g. "Their ADC"
func RoleColumn(prefix string, r roles.Role) string {
	return prefix + " " + r.String()
}

// RoleKDAColumn is the KDA column for a team's role, e.g. "My Jungle KDA"
func RoleKDAColumn(prefix string, r roles.Role) string {
	return RoleColumn(prefix, r) + " KDA"
}

// BanColumn is the column for the n-th ban, 1-based
func BanColumn(n int) string {
	return fmt.Sprintf("Ban %d", n)
}

// DeltaColumn names one timeline delta cell
func DeltaColumn(kind, window string) string {
	return kind + " " + window
}

// Columns is the header row in write order
var Columns = buildColumns()

func buildColumns() []string {
	cols := []string{
		ColMatchID, ColDate, ColTime, ColLength, ColChampion, ColSide, ColResult,
		ColKills, ColDeaths, ColAssists, ColKDA, ColCS, ColCSPerMin,
	}
	for _, prefix := range []string{PrefixMy, PrefixTheir} {
		for _, r := range roles.CanonicalRoles {
			cols = append(cols, RoleColumn(prefix, r), RoleKDAColumn(prefix, r))
		}
	}
	cols = append(cols,
		ColMyRole, ColHighestKDA,
		ColKillContribution, ColDeathContribution, ColDamageShare,
		ColWardsPlaced, ColWardsDestroyed, ColVisionWards,
		ColLeague, ColDivision, ColCurrentLP, ColLPChange, ColPromos,
		ColDuoer, ColDuoRole,
	)
	for i := 1; i <= MaxBans; i++ {
		cols = append(cols, BanColumn(i))
	}
	cols = append(cols,
		ColMyDragons, ColEnemyDragons, ColMyBarons, ColEnemyBarons,
		ColFirstBlood, ColFirstTower, ColFirstInhibitor, ColFirstDragon, ColFirstBaron,
	)
	for _, kind := range DeltaKinds {
		for _, window := range DeltaWindows {
			cols = append(cols, DeltaColumn(kind, window))
		}
	}
	cols = append(cols,
		ColCSDiff, ColKillDiff, ColDeathDiff, ColAssistDiff, ColKDADiff,
		ColDamageDiff, ColWardsPlacedDiff, ColWardsDestroyedDiff, ColVisionWardsDiff,
		ColKillContributionDiff,
		ColMyAFK, ColTheirAFK,
	)
	return cols
}

// Row is one recorded match. Cells are keyed by header.
type Row struct {
	MatchID string         `json:"matchId"`
	Cells   map[string]any `json:"cells"`
}

// NewRow creates an empty row for a match
func NewRow(matchID string) Row {
	return Row{MatchID: matchID, Cells: map[string]any{ColMatchID: matchID}}
}

// Set writes a cell
func (r Row) Set(header string, value any) {
	r.Cells[header] = value
}

// String returns a cell as text, "" when absent
func (r Row) String(header string) string {
	v, ok := r.Cells[header]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns a numeric cell. Cells read back from a workbook are text and
// cells read back from JSON are float64; both are accepted.
func (r Row) Int(header string) (int, bool) {
	switch v := r.Cells[header].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}

// ColumnLetter converts a 1-based column number to its letter, 27 -> AA
func ColumnLetter(n int) string {
	name, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return ""
	}
	return name
}

// HeaderIndex maps each header to its 1-based column number
func HeaderIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if _, dup := idx[h]; !dup {
			idx[h] = i + 1
		}
	}
	return idx
}
