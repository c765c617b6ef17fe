package repository

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang-stock-analysis/config"
	"golang-stock-analysis/internal/dto"
	"golang-stock-analysis/pkg/common"
	"golang-stock-analysis/pkg/httpclient"
	"golang-stock-analysis/pkg/logger"
)

type MoneyFlowRepository interface {
	GetMoneyFlow(ctx context.Context, stockCode string) (*dto.MoneyFlowWindow, error)
}

type eastMoneyFlowRepository struct {
	cfg        *config.Config
	logger     *logger.Logger
	httpClient httpclient.HTTPClient
}

func NewMoneyFlowRepository(cfg *config.Config, log *logger.Logger) MoneyFlowRepository {
	return &eastMoneyFlowRepository{
		cfg:        cfg,
		logger:     log,
		httpClient: httpclient.New(cfg.MoneyFlow.BaseURL, cfg.MoneyFlow.BaseTimeout, ""),
	}
}

type eastMoneyFlowResponse struct {
	Data struct {
		Klines []string `json:"klines"`
	} `json:"data"`
}

// kline layout: date, main/small/mid/big/super net amounts, then the same
// five as percentages.
const (
	klineFieldCount = 11
	idxMainPct      = 6
	idxSuperPct     = 10
)

func (r *eastMoneyFlowRepository) GetMoneyFlow(ctx context.Context, stockCode string) (*dto.MoneyFlowWindow, error) {
	queryParams := map[string]string{
		"secid":   secID(stockCode),
		"lmt":     "10",
		"klt":     "101",
		"fields1": "f1,f2,f3,f7",
		"fields2": "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61",
	}

	var response eastMoneyFlowResponse
	resp, err := r.httpClient.Get(ctx, "/api/qt/stock/fflow/daykline/get", queryParams, nil, &response)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to fetch money flow",
			logger.StringField("stock_code", stockCode),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to fetch money flow: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("money flow request returned status %d", resp.StatusCode)
	}

	return parseFlowKlines(response.Data.Klines), nil
}

// parseFlowKlines folds the daily fund-flow klines (oldest first) into the
// today / 5-day / 10-day windows per capital class. Windows with fewer
// samples than their span stay nil.
func parseFlowKlines(klines []string) *dto.MoneyFlowWindow {
	mainPcts := make([]float64, 0, len(klines))
	superPcts := make([]float64, 0, len(klines))
	for _, line := range klines {
		parts := strings.Split(line, ",")
		if len(parts) < klineFieldCount {
			continue
		}
		mainPct, errMain := strconv.ParseFloat(parts[idxMainPct], 64)
		superPct, errSuper := strconv.ParseFloat(parts[idxSuperPct], 64)
		if errMain != nil || errSuper != nil {
			continue
		}
		mainPcts = append(mainPcts, mainPct)
		superPcts = append(superPcts, superPct)
	}

	flow := &dto.MoneyFlowWindow{
		Main:       windowFromSeries(mainPcts),
		SuperLarge: windowFromSeries(superPcts),
	}
	return flow
}

func windowFromSeries(series []float64) dto.FlowWindow {
	var w dto.FlowWindow
	n := len(series)
	if n == 0 {
		return w
	}

	today := series[n-1]
	w.Today = &today

	if n >= 5 {
		avg5 := average(series[n-5:])
		w.FiveDay = &avg5
	}
	if n >= 10 {
		avg10 := average(series[n-10:])
		w.TenDay = &avg10
	}
	return w
}

func average(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// secID maps a 6-digit A-share code onto EastMoney's market-prefixed id.
// Shanghai codes start with 6, everything else trades in Shenzhen.
func secID(stockCode string) string {
	prefix := common.MarketPrefixShenzhen
	if strings.HasPrefix(stockCode, "6") {
		prefix = common.MarketPrefixShanghai
	}
	return prefix + "." + stockCode
}
