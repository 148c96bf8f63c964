package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/anc5557/ChartBeacon/internal/model"

	"go.uber.org/zap"
)

const (
	YahooChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
)

// defaultRanges maps each timeframe to the Yahoo range parameter used when
// no explicit period is requested
var defaultRanges = map[string]string{
	model.Timeframe5m:  "60d",
	model.Timeframe1h:  "730d",
	model.Timeframe1d:  "5y",
	model.Timeframe5d:  "10y",
	model.Timeframe1mo: "max",
	model.Timeframe3mo: "max",
}

// YahooClient handles communication with the Yahoo Finance chart API
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewYahooClient creates a new Yahoo Finance client
func NewYahooClient(logger *zap.Logger) *YahooClient {
	return &YahooClient{
		baseURL: YahooChartBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// chartResponse mirrors the subset of the Yahoo chart payload we consume
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DefaultRange returns the Yahoo range parameter for a timeframe
func DefaultRange(timeframe string) string {
	if r, ok := defaultRanges[timeframe]; ok {
		return r
	}
	return "1y"
}

// FetchCandles retrieves OHLCV bars for a ticker and timeframe. An empty
// period selects the default range for the timeframe. Timestamps are
// normalized to UTC and bars with missing prices are dropped.
func (c *YahooClient) FetchCandles(
	ctx context.Context,
	ticker string,
	timeframe string,
	period string,
) ([]model.OHLCV, error) {
	if period == "" {
		period = DefaultRange(timeframe)
	}

	params := url.Values{}
	params.Add("interval", timeframe)
	params.Add("range", period)
	params.Add("includeAdjustedClose", "false")

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	c.logger.Debug("Calling Yahoo chart API", zap.String("url", reqURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Yahoo rejects requests without a browser-like user agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ChartBeacon/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch candles from Yahoo",
			zap.Error(err),
			zap.String("ticker", ticker),
			zap.String("timeframe", timeframe))
		return nil, fmt.Errorf("failed to fetch candles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.Error("Yahoo API error response",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("ticker", ticker),
			zap.String("response", string(bodyBytes)))
		return nil, fmt.Errorf("Yahoo API returned status code %d for %s", resp.StatusCode, ticker)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Error("Failed to decode Yahoo chart response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}

	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo API error for %s: %s: %s",
			ticker, payload.Chart.Error.Code, payload.Chart.Error.Description)
	}

	if len(payload.Chart.Result) == 0 {
		c.logger.Warn("Yahoo returned no chart result",
			zap.String("ticker", ticker),
			zap.String("timeframe", timeframe))
		return nil, nil
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	candles := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		if i >= len(quote.Open) || quote.Open[i] == nil ||
			i >= len(quote.High) || quote.High[i] == nil ||
			i >= len(quote.Low) || quote.Low[i] == nil {
			continue
		}

		var volume float64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}

		candles = append(candles, model.OHLCV{
			Ts:     time.Unix(ts, 0).UTC(),
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: volume,
		})
	}

	if len(candles) == 0 {
		c.logger.Warn("Yahoo returned no usable candles",
			zap.String("ticker", ticker),
			zap.String("timeframe", timeframe))
	} else {
		c.logger.Debug("Fetched candles from Yahoo",
			zap.Int("count", len(candles)),
			zap.String("ticker", ticker),
			zap.String("timeframe", timeframe))
	}

	return candles, nil
}
