package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"go-jackpot/internal/lib/logger/sl"
)

// Client talks to the Ledger component that custodies the prize pool. It is
// both the funds vault the Prize Coordinator pays out of and a purge peer.
type Client struct {
	log          *slog.Logger
	baseURL      string
	componentKey string
	http         *http.Client
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

type transferRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

func New(log *slog.Logger, baseURL string, componentKey string, timeout time.Duration) *Client {
	return &Client{
		log:          log,
		baseURL:      baseURL,
		componentKey: componentKey,
		http:         &http.Client{Timeout: timeout},
	}
}

func (c *Client) Balance() (int64, error) {
	const op = "clients.ledger.Balance"

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/balance", nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("X-Component-Key", c.componentKey)

	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s: ledger returned status %d", op, res.StatusCode)
	}

	var balance balanceResponse

	if err = json.NewDecoder(res.Body).Decode(&balance); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return balance.Balance, nil
}

func (c *Client) Transfer(to string, amount int64) error {
	const op = "clients.ledger.Transfer"

	body, err := json.Marshal(transferRequest{To: to, Amount: amount})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/transfers", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Component-Key", c.componentKey)

	res, err := c.http.Do(req)
	if err != nil {
		c.log.Error("failed to dispatch transfer", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: ledger returned status %d", op, res.StatusCode)
	}

	return nil
}

func (c *Client) PurgeDraw(drawID string) error {
	const op = "clients.ledger.PurgeDraw"

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/draws/%s/purge", c.baseURL, drawID), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("X-Component-Key", c.componentKey)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: ledger returned status %d", op, res.StatusCode)
	}

	return nil
}
