package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/anc5557/ChartBeacon/internal/model"

	"go.uber.org/zap"
)

// levelColors maps summary levels to Discord embed colors
var levelColors = map[string]int{
	model.LevelStrongBuy:  3066993,
	model.LevelBuy:        3447003,
	model.LevelNeutral:    9807270,
	model.LevelSell:       15158332,
	model.LevelStrongSell: 10038562,
}

// DiscordClient posts level-change alerts to a Discord webhook
type DiscordClient struct {
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDiscordClient creates a new Discord webhook client. An empty webhook
// URL disables dispatching.
func NewDiscordClient(webhookURL string, logger *zap.Logger) *DiscordClient {
	return &DiscordClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Enabled reports whether a webhook URL is configured
func (c *DiscordClient) Enabled() bool {
	return c.webhookURL != ""
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Footer    embedFooter  `json:"footer"`
	Timestamp string       `json:"timestamp"`
}

type webhookPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

// SendLevelChange posts a level transition alert. Discord acknowledges
// webhook deliveries with 204 No Content.
func (c *DiscordClient) SendLevelChange(ctx context.Context, change *model.LevelChange) error {
	if !c.Enabled() {
		return nil
	}

	prev := "NONE"
	if change.PrevLevel != nil {
		prev = *change.PrevLevel
	}

	color, ok := levelColors[change.Level]
	if !ok {
		color = levelColors[model.LevelNeutral]
	}

	payload := webhookPayload{
		Username: "Tech Alert",
		Embeds: []embed{
			{
				Title: fmt.Sprintf("[%s] %s → %s", change.Ticker, prev, change.Level),
				Color: color,
				Fields: []embedField{
					{Name: "Buy", Value: strconv.Itoa(change.BuyCnt), Inline: true},
					{Name: "Sell", Value: strconv.Itoa(change.SellCnt), Inline: true},
					{Name: "Neutral", Value: strconv.Itoa(change.NeutralCnt), Inline: true},
					{Name: "Timeframe", Value: change.Timeframe, Inline: true},
					{Name: "Time", Value: change.Ts.UTC().Format("2006-01-02 15:04 MST"), Inline: true},
				},
				Footer:    embedFooter{Text: "ChartBeacon Technical Analysis"},
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to post Discord webhook",
			zap.Error(err),
			zap.String("ticker", change.Ticker))
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.Error("Discord webhook error response",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("response", string(bodyBytes)))
		return fmt.Errorf("Discord webhook returned status code %d", resp.StatusCode)
	}

	c.logger.Info("Dispatched level change alert",
		zap.String("ticker", change.Ticker),
		zap.String("timeframe", change.Timeframe),
		zap.String("prev_level", prev),
		zap.String("level", change.Level))

	return nil
}
