package champions

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"ranked-tracker/internal/roles"

	_ "modernc.org/sqlite"
)

// Affinity table names as stored in the DB and the YAML file
const (
	ListTop          = "top"
	ListMid          = "mid"
	ListADC          = "adc"
	ListADCSecondary = "adc_secondary"
)

var defaultLists = map[string][]string{
	ListTop:          roles.DefaultTopChampions,
	ListMid:          roles.DefaultMidChampions,
	ListADC:          roles.DefaultADCChampions,
	ListADCSecondary: roles.DefaultADCSecondaryChampions,
}

// DB keeps the champion affinity lists so they can be updated for a new
// patch without rebuilding
type DB struct {
	db *sql.DB
}

// DefaultDBPath is champions.db under the user's config directory
func DefaultDBPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}

	dbDir := filepath.Join(configDir, "ranked-tracker")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create db directory: %w", err)
	}
	return filepath.Join(dbDir, "champions.db"), nil
}

// OpenDB opens the champion DB at path, seeding it with the compiled-in lists
// on first use
func OpenDB(path string) (*DB, error) {
	if path == "" {
		var err error
		if path, err = DefaultDBPath(); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	cdb := &DB{db: db}
	if err := cdb.init(); err != nil {
		db.Close()
		return nil, err
	}
	return cdb, nil
}

func (c *DB) init() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS champion_affinity (
			list TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (list, name)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	var count int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM champion_affinity").Scan(&count); err != nil {
		return fmt.Errorf("failed to count champions: %w", err)
	}
	if count > 0 {
		return nil
	}

	for list, names := range defaultLists {
		if err := c.SetList(list, names); err != nil {
			return fmt.Errorf("seed %s: %w", list, err)
		}
	}
	return nil
}

// SetList replaces one affinity list
func (c *DB) SetList(list string, names []string) error {
	if _, ok := defaultLists[list]; !ok {
		return fmt.Errorf("unknown affinity list %q", list)
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM champion_affinity WHERE list = ?", list); err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO champion_affinity (list, name) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, name := range names {
		if _, err := stmt.Exec(list, name); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// List returns the names in one affinity list, sorted
func (c *DB) List(list string) ([]string, error) {
	rows, err := c.db.Query("SELECT name FROM champion_affinity WHERE list = ? ORDER BY name", list)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Affinity builds the role engine's affinity tables from the DB
func (c *DB) Affinity() (*roles.Affinity, error) {
	lists := make(map[string][]string, len(defaultLists))
	for list := range defaultLists {
		names, err := c.List(list)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", list, err)
		}
		lists[list] = names
	}
	return affinityFromLists(lists), nil
}

// Close closes the database connection
func (c *DB) Close() error {
	return c.db.Close()
}

func affinityFromLists(lists map[string][]string) *roles.Affinity {
	return &roles.Affinity{
		Top:          roles.NewChampionSet(lists[ListTop]...),
		Mid:          roles.NewChampionSet(lists[ListMid]...),
		ADC:          roles.NewChampionSet(lists[ListADC]...),
		ADCSecondary: roles.NewChampionSet(lists[ListADCSecondary]...),
	}
}
