package riot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"ranked-tracker/internal/logger"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	// Rate limits for dev key (using conservative values to be safe)
	requestsPerSecond = 15 // Actual: 20, using 15 for safety
	requestsPer2Min   = 90 // Actual: 100, using 90 for safety

	defaultRetryAfter = 10 * time.Second
	maxPageSize       = 100
)

var (
	ErrNotFound    = errors.New("riot: not found")
	ErrKeyRejected = errors.New("riot: API key rejected")
	ErrUnavailable = errors.New("riot: service unavailable")
)

// ClientConfig configures a Client. Only APIKey is required.
type ClientConfig struct {
	APIKey   string
	Region   string // routing value: americas, europe, asia, sea
	Platform string // platform value: na1, euw1, kr, ...
	QueueID  int    // match history filter, 0 for all queues

	// Override hosts, used by tests
	RegionalBaseURL string
	PlatformBaseURL string

	HTTPClient *http.Client
	Logger     *logrus.Entry
}

// Client is a rate-limited Riot API client
type Client struct {
	keyMu       sync.RWMutex
	apiKey      string
	queueID     int
	regionalURL string
	platformURL string
	httpClient  *http.Client
	log         *logrus.Entry

	shortWindow *rate.Limiter // 1 second budget
	longWindow  *rate.Limiter // 2 minute budget
	breaker     *gobreaker.CircuitBreaker
}

// NewClient creates a new Riot API client
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("RIOT_API_KEY or RIOT-DEV-KEY environment variable not set")
	}
	if cfg.Region == "" {
		cfg.Region = "americas"
	}
	if cfg.Platform == "" {
		cfg.Platform = "na1"
	}
	if cfg.RegionalBaseURL == "" {
		cfg.RegionalBaseURL = "https://" + cfg.Region + ".api.riotgames.com"
	}
	if cfg.PlatformBaseURL == "" {
		cfg.PlatformBaseURL = PlatformBaseURL(cfg.Platform)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.WithComponent("riot")
	}

	c := &Client{
		apiKey:      cfg.APIKey,
		queueID:     cfg.QueueID,
		regionalURL: cfg.RegionalBaseURL,
		platformURL: cfg.PlatformBaseURL,
		httpClient:  cfg.HTTPClient,
		log:         cfg.Logger,
		shortWindow: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		longWindow:  rate.NewLimiter(rate.Every(2*time.Minute/requestsPer2Min), requestsPer2Min),
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "riot-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 404s and key errors are answers, not outages
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return c, nil
}

// SetAPIKey swaps the key used for subsequent requests
func (c *Client) SetAPIKey(key string) {
	c.keyMu.Lock()
	c.apiKey = key
	c.keyMu.Unlock()
}

// APIKey returns the key in use
func (c *Client) APIKey() string {
	c.keyMu.RLock()
	defer c.keyMu.RUnlock()
	return c.apiKey
}

// PlatformBaseURL returns the host serving platform-scoped endpoints
func PlatformBaseURL(platform string) string {
	return "https://" + platform + ".api.riotgames.com"
}

// waitForRateLimit blocks until both windows allow another request
func (c *Client) waitForRateLimit(ctx context.Context) error {
	if err := c.shortWindow.Wait(ctx); err != nil {
		return err
	}
	return c.longWindow.Wait(ctx)
}

// rateLimitedError carries the wait a 429 asked for
type rateLimitedError struct {
	wait time.Duration
}

func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.wait)
}

// doRequest makes a rate-limited request, backing off and retrying on 429
func (c *Client) doRequest(ctx context.Context, url string, result interface{}) error {
	for {
		if err := c.waitForRateLimit(ctx); err != nil {
			return err
		}

		body, err := c.breaker.Execute(func() (interface{}, error) {
			return c.get(ctx, url)
		})

		var limited *rateLimitedError
		switch {
		case errors.As(err, &limited):
			c.log.WithField("wait", limited.wait.String()).Warn("429 rate limited, backing off")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(limited.wait):
			}
			continue
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		case err != nil:
			return err
		}

		if err := json.Unmarshal(body.([]byte), result); err != nil {
			return fmt.Errorf("decode %s: %w", url, err)
		}
		return nil
	}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Riot-Token", c.APIKey())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &rateLimitedError{wait: retryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrKeyRejected, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.URL.Path)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

// GetAccountByRiotID fetches account info by Riot ID (gameName#tagLine)
func (c *Client) GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*AccountResponse, error) {
	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.regionalURL, url.PathEscape(gameName), url.PathEscape(tagLine))

	var account AccountResponse
	if err := c.doRequest(ctx, u, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetMatchIDs fetches one page of match IDs for a player, newest first
func (c *Client) GetMatchIDs(ctx context.Context, puuid string, start, count int) ([]string, error) {
	q := url.Values{}
	q.Set("start", strconv.Itoa(start))
	q.Set("count", strconv.Itoa(count))
	if c.queueID > 0 {
		q.Set("queue", strconv.Itoa(c.queueID))
	}
	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?%s", c.regionalURL, puuid, q.Encode())

	var matchIDs []string
	if err := c.doRequest(ctx, u, &matchIDs); err != nil {
		return nil, err
	}
	return matchIDs, nil
}

// MatchHistory pages through a player's match IDs until a short page or max
// IDs, newest first
func (c *Client) MatchHistory(ctx context.Context, puuid string, max int) ([]string, error) {
	var all []string
	for start := 0; len(all) < max; {
		count := min(maxPageSize, max-len(all))
		page, err := c.GetMatchIDs(ctx, puuid, start, count)
		if err != nil {
			return all, err
		}
		all = append(all, page...)
		if len(page) < count {
			break
		}
		start += len(page)
	}
	return all, nil
}

// GetMatch fetches match details
func (c *Client) GetMatch(ctx context.Context, matchID string) (*MatchResponse, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.regionalURL, matchID)

	var match MatchResponse
	if err := c.doRequest(ctx, u, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// GetTimeline fetches match timeline
func (c *Client) GetTimeline(ctx context.Context, matchID string) (*TimelineResponse, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s/timeline", c.regionalURL, matchID)

	var timeline TimelineResponse
	if err := c.doRequest(ctx, u, &timeline); err != nil {
		return nil, err
	}
	return &timeline, nil
}

// GetRankedEntriesByPUUID fetches every ranked queue entry for a player
func (c *Client) GetRankedEntriesByPUUID(ctx context.Context, puuid string) ([]LeagueEntryResponse, error) {
	u := fmt.Sprintf("%s/lol/league/v4/entries/by-puuid/%s", c.platformURL, puuid)

	var entries []LeagueEntryResponse
	if err := c.doRequest(ctx, u, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetSoloQueueEntry returns the solo/duo entry, ok false when unranked
func (c *Client) GetSoloQueueEntry(ctx context.Context, puuid string) (entry *LeagueEntryResponse, ok bool, err error) {
	entries, err := c.GetRankedEntriesByPUUID(ctx, puuid)
	if err != nil {
		return nil, false, err
	}
	for i := range entries {
		if entries[i].QueueType == QueueSoloDuo {
			return &entries[i], true, nil
		}
	}
	return nil, false, nil
}
