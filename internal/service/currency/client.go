package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"uzlife-bot-backend/internal/common/config"
	apperrors "uzlife-bot-backend/internal/common/errors"
)

// Rate представляет курс валюты к узбекскому суму
type Rate struct {
	Code string
	Rate float64
	Date string
}

// Client является клиентом API курсов Центрального банка Узбекистана
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: cfg.Currency.BaseURL,
	}
}

// Rate запрашивает текущий курс валюты по коду (например, "USD")
func (c *Client) Rate(ctx context.Context, code string) (*Rate, error) {
	endpoint := fmt.Sprintf("%s/%s/", c.baseURL, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewCurrencyAPIError("rate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewCurrencyAPIError("rate", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	// ЦБ отдает массив даже для одного кода валюты
	var payload []struct {
		Ccy  string `json:"Ccy"`
		Rate string `json:"Rate"`
		Date string `json:"Date"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewCurrencyAPIError("rate", fmt.Errorf("failed to decode response: %w", err))
	}
	if len(payload) == 0 {
		return nil, apperrors.NewCurrencyAPIError("rate", fmt.Errorf("no rate for %s", code))
	}

	value, err := strconv.ParseFloat(payload[0].Rate, 64)
	if err != nil {
		return nil, apperrors.NewCurrencyAPIError("rate", fmt.Errorf("invalid rate %q: %w", payload[0].Rate, err))
	}

	return &Rate{
		Code: payload[0].Ccy,
		Rate: value,
		Date: payload[0].Date,
	}, nil
}
