package registry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/exp/slog"

	"go-jackpot/internal/lib/logger/sl"
)

// Client is the read-only adapter to the Player Registry component. Lookups
// are cached briefly; the coordinators snapshot what they need into their own
// records, so staleness here only affects repeated audit reads.
type Client struct {
	log     *slog.Logger
	baseURL string
	http    *http.Client
	cache   *cache.Cache
}

type DrawInfo struct {
	PlayerCount int64 `json:"player_count"`
	Finalized   bool  `json:"finalized"`
}

type playerResponse struct {
	Address string `json:"address"`
}

func New(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		log:     log,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   cache.New(time.Minute, 5*time.Minute),
	}
}

func (c *Client) DrawInfo(drawID string) (*DrawInfo, error) {
	const op = "clients.registry.DrawInfo"

	cacheKey := "draw:" + drawID

	if cached, found := c.cache.Get(cacheKey); found {
		info := cached.(DrawInfo)

		return &info, nil
	}

	res, err := c.http.Get(fmt.Sprintf("%s/draws/%s", c.baseURL, drawID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: registry returned status %d", op, res.StatusCode)
	}

	var info DrawInfo

	if err = json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// open draws change; only finalized snapshots are worth caching
	if info.Finalized {
		c.cache.Set(cacheKey, info, cache.DefaultExpiration)
	}

	return &info, nil
}

func (c *Client) PlayerByIndex(drawID string, index int64) (string, error) {
	const op = "clients.registry.PlayerByIndex"

	cacheKey := "player:" + drawID + ":" + strconv.FormatInt(index, 10)

	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(string), nil
	}

	res, err := c.http.Get(fmt.Sprintf("%s/draws/%s/players/%d", c.baseURL, drawID, index))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: registry returned status %d", op, res.StatusCode)
	}

	var player playerResponse

	if err = json.NewDecoder(res.Body).Decode(&player); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if player.Address != "" {
		c.cache.Set(cacheKey, player.Address, cache.DefaultExpiration)
	}

	return player.Address, nil
}

// PurgeDraw asks the registry to drop its participant list for a settled
// draw. Best-effort from the caller's point of view.
func (c *Client) PurgeDraw(drawID string) error {
	const op = "clients.registry.PurgeDraw"

	res, err := c.http.Post(fmt.Sprintf("%s/draws/%s/purge", c.baseURL, drawID), "application/json", nil)
	if err != nil {
		c.log.Error("failed to request registry purge", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: registry returned status %d", op, res.StatusCode)
	}

	c.cache.Delete("draw:" + drawID)

	return nil
}
