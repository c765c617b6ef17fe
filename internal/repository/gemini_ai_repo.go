package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang-stock-analysis/config"
	"golang-stock-analysis/internal/dto"
	"golang-stock-analysis/pkg/httpclient"
	"golang-stock-analysis/pkg/logger"
	"golang-stock-analysis/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

type AIRepository interface {
	PickDailyStocks(ctx context.Context, date string) (*dto.AIStockPickResponse, json.RawMessage, error)
	MonitorStock(ctx context.Context, stockCode string, flow *dto.MoneyFlowWindow, flowScore float64) (string, error)
}

// geminiAIRepository talks to the Google Gemini API, throttled by both a
// request-per-minute limiter and a token-per-minute limiter.
type geminiAIRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger) (AIRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	tokenLimiter := ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute)
	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiAIRepository{
		httpClient:     httpclient.New(cfg.Gemini.BaseURL, cfg.Gemini.Timeout, ""),
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
		genAiClient:    genAiClient,
	}, nil
}

// PickDailyStocks asks the model for market-wide picks for a date. The raw
// response text is returned alongside the parsed document so callers can
// persist it verbatim.
func (r *geminiAIRepository) PickDailyStocks(ctx context.Context, date string) (*dto.AIStockPickResponse, json.RawMessage, error) {
	prompt := r.promptPickDailyStocks(date)

	geminiAPIResponse, err := r.sendRequest(ctx, prompt)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to send daily pick request to gemini", logger.ErrorField(err))
		return nil, nil, err
	}

	raw, err := r.extractText(geminiAPIResponse)
	if err != nil {
		return nil, nil, err
	}

	var result dto.AIStockPickResponse
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		r.logger.ErrorContext(ctx, "failed to parse daily pick response from gemini", logger.ErrorField(err))
		return nil, nil, fmt.Errorf("failed to parse daily pick response: %w", err)
	}

	return &result, json.RawMessage(raw), nil
}

// MonitorStock asks the model for a free-text intraday read on one stock.
// The answer is not required to be JSON.
func (r *geminiAIRepository) MonitorStock(ctx context.Context, stockCode string, flow *dto.MoneyFlowWindow, flowScore float64) (string, error) {
	prompt, err := r.promptMonitorStock(stockCode, flow, flowScore)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to build monitor prompt", logger.ErrorField(err))
		return "", err
	}

	geminiAPIResponse, err := r.sendRequest(ctx, prompt)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to send monitor request to gemini",
			logger.StringField("stock_code", stockCode),
			logger.ErrorField(err),
		)
		return "", err
	}

	text, err := r.extractText(geminiAPIResponse)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (r *geminiAIRepository) sendRequest(ctx context.Context, prompt string) (*dto.GeminiAPIResponse, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}
	geminiTokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.BaseModel, contents, nil)
	if err != nil {
		return nil, r.classifyError(fmt.Errorf("failed to count tokens: %w", err), 0)
	}

	r.logger.Debug("Gemini token count",
		logger.IntField("total_tokens", int(geminiTokenResp.TotalTokens)),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)
	if err := r.tokenLimiter.Wait(ctx, int(geminiTokenResp.TotalTokens)); err != nil {
		return nil, fmt.Errorf("failed to wait for token gemini limit: %w", err)
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request gemini limit: %w", err)
	}

	if int(geminiTokenResp.TotalTokens) > r.cfg.Gemini.MaxTokenPerMinute/2 {
		r.logger.Warn("Token has exceeded 50% of the limit", logger.IntField("remaining", r.tokenLimiter.GetRemaining()))
	}

	payload := dto.GeminiAPIRequest{
		Contents: []dto.Content{{Parts: []dto.Part{{Text: prompt}}}},
	}

	geminiAPIResponse := dto.GeminiAPIResponse{}

	apiURL := fmt.Sprintf("/%s:generateContent?key=%s", r.cfg.Gemini.BaseModel, r.cfg.Gemini.APIKey)

	geminiResp, err := r.httpClient.Post(ctx, apiURL, payload, nil, &geminiAPIResponse)
	if err != nil {
		return nil, r.classifyError(err, 0)
	}

	if geminiResp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "failed to get data from gemini", logger.IntField("status_code", geminiResp.StatusCode))
		return nil, r.classifyError(fmt.Errorf("gemini returned status %d", geminiResp.StatusCode), geminiResp.StatusCode)
	}

	return &geminiAPIResponse, nil
}

func (r *geminiAIRepository) extractText(response *dto.GeminiAPIResponse) (string, error) {
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("invalid response from Gemini API: no content found")
	}

	text := response.Candidates[0].Content.Parts[0].Text
	text = strings.Trim(text, "`json\n`")
	return text, nil
}

// classifyError maps transport failures onto upstream error kinds so callers
// can tell transient conditions from hard failures.
func (r *geminiAIRepository) classifyError(err error, statusCode int) error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return dto.NewUpstreamError(dto.UpstreamRateLimited, err)
	case errors.Is(err, context.DeadlineExceeded):
		return dto.NewUpstreamError(dto.UpstreamTimeout, err)
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return dto.NewUpstreamError(dto.UpstreamTimeout, err)
		}
		return dto.NewUpstreamError(dto.UpstreamTransport, err)
	}
}
