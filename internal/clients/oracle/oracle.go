package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"go-jackpot/internal/lib/logger/sl"
	"go-jackpot/internal/lib/random"
)

// Client dispatches randomness requests to the external oracle. The oracle
// answers out of band, exactly once per request, on the configured callback
// URL; nothing here ever blocks waiting for the value.
type Client struct {
	log         *slog.Logger
	baseURL     string
	callbackURL string
	http        *http.Client
}

type randomnessRequest struct {
	RequestID   string `json:"request_id"`
	CallbackURL string `json:"callback_url"`
	Nonce       string `json:"nonce"`
}

func New(log *slog.Logger, baseURL string, callbackURL string, timeout time.Duration) *Client {
	return &Client{
		log:         log,
		baseURL:     baseURL,
		callbackURL: callbackURL,
		http:        &http.Client{Timeout: timeout},
	}
}

func (c *Client) RequestRandomness(requestID string) error {
	const op = "clients.oracle.RequestRandomness"

	body, err := json.Marshal(randomnessRequest{
		RequestID:   requestID,
		CallbackURL: c.callbackURL,
		Nonce:       random.NewRandomString(16),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := c.http.Post(c.baseURL+"/requests", "application/json", bytes.NewReader(body))
	if err != nil {
		c.log.Error("failed to dispatch randomness request", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%s: oracle returned status %d", op, res.StatusCode)
	}

	c.log.Info("randomness requested", sl.String("request_id", requestID))

	return nil
}
