package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"uzlife-bot-backend/internal/common/config"
	apperrors "uzlife-bot-backend/internal/common/errors"
)

// ErrCityNotFound возвращается, когда провайдер не знает такого города
var ErrCityNotFound = errors.New("city not found")

// Conditions представляет текущую погоду в городе
type Conditions struct {
	TemperatureC float64
	FeelsLikeC   float64
	HumidityPct  int
	WindSpeedMS  float64
	Description  string
	Latitude     float64
	Longitude    float64
}

// AirQuality представляет качество воздуха по шкале OpenWeatherMap (1..5)
type AirQuality struct {
	Index int
	PM25  float64
	PM10  float64
}

// Client является клиентом OpenWeatherMap
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	country    string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: cfg.Weather.BaseURL,
		apiKey:  cfg.Weather.APIKey,
		country: cfg.Weather.Country,
	}
}

// CurrentConditions запрашивает текущую погоду для города.
// Город уточняется кодом страны, чтобы не попадать в одноименные города.
func (c *Client) CurrentConditions(ctx context.Context, city string) (*Conditions, error) {
	params := url.Values{
		"q":     {fmt.Sprintf("%s,%s", city, c.country)},
		"appid": {c.apiKey},
		"units": {"metric"},
		"lang":  {"ru"},
	}

	var payload struct {
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Coord struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
	}

	if err := c.makeRequest(ctx, "/weather", params, &payload); err != nil {
		return nil, err
	}

	cond := &Conditions{
		TemperatureC: payload.Main.Temp,
		FeelsLikeC:   payload.Main.FeelsLike,
		HumidityPct:  payload.Main.Humidity,
		WindSpeedMS:  payload.Wind.Speed,
		Latitude:     payload.Coord.Lat,
		Longitude:    payload.Coord.Lon,
	}
	if len(payload.Weather) > 0 {
		cond.Description = payload.Weather[0].Description
	}
	return cond, nil
}

// AirQuality запрашивает качество воздуха по координатам
func (c *Client) AirQuality(ctx context.Context, lat, lon float64) (*AirQuality, error) {
	params := url.Values{
		"lat":   {fmt.Sprintf("%f", lat)},
		"lon":   {fmt.Sprintf("%f", lon)},
		"appid": {c.apiKey},
	}

	var payload struct {
		List []struct {
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
			Components struct {
				PM25 float64 `json:"pm2_5"`
				PM10 float64 `json:"pm10"`
			} `json:"components"`
		} `json:"list"`
	}

	if err := c.makeRequest(ctx, "/air_pollution", params, &payload); err != nil {
		return nil, err
	}
	if len(payload.List) == 0 {
		return nil, apperrors.NewWeatherAPIError("air_quality", errors.New("empty air pollution response"))
	}

	entry := payload.List[0]
	return &AirQuality{
		Index: entry.Main.AQI,
		PM25:  entry.Components.PM25,
		PM10:  entry.Components.PM10,
	}, nil
}

func (c *Client) makeRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewWeatherAPIError(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrCityNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.NewWeatherAPIError(path, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return apperrors.NewWeatherAPIError(path, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
