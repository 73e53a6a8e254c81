package champions

import (
	"fmt"
	"os"

	"ranked-tracker/internal/roles"

	"gopkg.in/yaml.v3"
)

// AffinityFile is the YAML layout of an affinity override file
type AffinityFile struct {
	Top          []string `yaml:"top"`
	Mid          []string `yaml:"mid"`
	ADC          []string `yaml:"adc"`
	ADCSecondary []string `yaml:"adc_secondary"`
}

// LoadAffinityFile reads affinity lists from YAML. Lists left out of the
// file keep their compiled-in defaults.
func LoadAffinityFile(path string) (*roles.Affinity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read affinity file: %w", err)
	}

	var f AffinityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse affinity file %s: %w", path, err)
	}

	lists := map[string][]string{
		ListTop:          orDefault(f.Top, ListTop),
		ListMid:          orDefault(f.Mid, ListMid),
		ListADC:          orDefault(f.ADC, ListADC),
		ListADCSecondary: orDefault(f.ADCSecondary, ListADCSecondary),
	}
	return affinityFromLists(lists), nil
}

func orDefault(names []string, list string) []string {
	if len(names) > 0 {
		return names
	}
	return defaultLists[list]
}

// ResolveAffinity picks the affinity source: a YAML file when given, then the
// champion DB, then the compiled-in lists. It reports which one was used.
func ResolveAffinity(file, dbPath string) (*roles.Affinity, string, error) {
	if file != "" {
		aff, err := LoadAffinityFile(file)
		return aff, "file", err
	}

	if dbPath != "" {
		db, err := OpenDB(dbPath)
		if err != nil {
			return nil, "db", err
		}
		defer db.Close()

		aff, err := db.Affinity()
		return aff, "db", err
	}

	return roles.DefaultAffinity(), "defaults", nil
}
