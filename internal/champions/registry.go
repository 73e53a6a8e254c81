package champions

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const dataDragonURL = "https://ddragon.leagueoflegends.com"

// ChampionData is one entry of Data Dragon's champion.json
type ChampionData struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Registry maps numeric champion ids to display names
type Registry struct {
	baseURL string
	client  *http.Client

	mu        sync.RWMutex
	champions map[int]string
	version   string
	loaded    bool
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithDataDragonURL points the registry at another Data Dragon host
func WithDataDragonURL(url string) RegistryOption {
	return func(r *Registry) {
		r.baseURL = url
	}
}

// NewRegistry creates an empty registry; call Load before use
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		baseURL:   dataDragonURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		champions: make(map[int]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load fetches the latest champion list from Data Dragon
func (r *Registry) Load(ctx context.Context) error {
	var versions []string
	if err := r.getJSON(ctx, r.baseURL+"/api/versions.json", &versions); err != nil {
		return fmt.Errorf("failed to fetch versions: %w", err)
	}
	if len(versions) == 0 {
		return fmt.Errorf("no versions available")
	}
	latest := versions[0]

	var champData struct {
		Data map[string]ChampionData `json:"data"`
	}
	champURL := fmt.Sprintf("%s/cdn/%s/data/en_US/champion.json", r.baseURL, latest)
	if err := r.getJSON(ctx, champURL, &champData); err != nil {
		return fmt.Errorf("failed to fetch champions: %w", err)
	}

	names := make(map[int]string, len(champData.Data))
	for _, champ := range champData.Data {
		key, err := strconv.Atoi(champ.Key)
		if err != nil {
			continue
		}
		names[key] = champ.Name
	}

	r.mu.Lock()
	r.champions = names
	r.version = latest
	r.loaded = true
	r.mu.Unlock()
	return nil
}

func (r *Registry) getJSON(ctx context.Context, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// GetName returns the champion name for an id. -1 is Riot's "no ban".
func (r *Registry) GetName(id int) string {
	if id <= 0 {
		return "None"
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if name, ok := r.champions[id]; ok {
		return name
	}
	return fmt.Sprintf("Champion %d", id)
}

// Version returns the Data Dragon patch the registry was loaded from
func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// IsLoaded returns whether the registry has been loaded
func (r *Registry) IsLoaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Len returns how many champions are known
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.champions)
}
