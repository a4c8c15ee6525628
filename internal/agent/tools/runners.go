package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gobapps/emma-core/internal/agent/model"
)

// ===================================
// Built-in data tools
// ===================================
//
// These runners serve a static snapshot so the pipeline works end to end
// without live market-data credentials. Production deployments register
// their own runners over the same descriptors.

type quoteRow struct {
	Price     float64
	Change    float64
	ChangePct float64
	Volume    int64
}

var mockQuotes = map[string]quoteRow{
	"AAPL":  {Price: 232.14, Change: 1.86, ChangePct: 0.81, Volume: 48_211_000},
	"MSFT":  {Price: 508.45, Change: -2.10, ChangePct: -0.41, Volume: 17_904_000},
	"GOOGL": {Price: 207.71, Change: 0.95, ChangePct: 0.46, Volume: 21_330_000},
	"AMZN":  {Price: 229.00, Change: 3.42, ChangePct: 1.52, Volume: 31_540_000},
	"TSLA":  {Price: 333.87, Change: -8.12, ChangePct: -2.37, Volume: 88_720_000},
	"NVDA":  {Price: 174.18, Change: 2.33, ChangePct: 1.36, Volume: 152_410_000},
	"META":  {Price: 738.70, Change: 5.61, ChangePct: 0.77, Volume: 9_861_000},
}

type fundamentalsRow struct {
	MarketCap  float64
	RevenueTTM float64
	NetMargin  float64
	PERatio    float64
	EPS        float64
}

var mockFundamentals = map[string]fundamentalsRow{
	"AAPL":  {MarketCap: 3.45e12, RevenueTTM: 3.91e11, NetMargin: 0.24, PERatio: 35.2, EPS: 6.59},
	"MSFT":  {MarketCap: 3.78e12, RevenueTTM: 2.70e11, NetMargin: 0.36, PERatio: 38.9, EPS: 13.06},
	"GOOGL": {MarketCap: 2.52e12, RevenueTTM: 3.59e11, NetMargin: 0.29, PERatio: 22.4, EPS: 9.27},
	"AMZN":  {MarketCap: 2.43e12, RevenueTTM: 6.38e11, NetMargin: 0.10, PERatio: 36.1, EPS: 6.34},
	"TSLA":  {MarketCap: 1.07e12, RevenueTTM: 9.77e10, NetMargin: 0.07, PERatio: 182.4, EPS: 1.83},
	"NVDA":  {MarketCap: 4.25e12, RevenueTTM: 1.49e11, NetMargin: 0.52, PERatio: 55.7, EPS: 3.13},
	"META":  {MarketCap: 1.86e12, RevenueTTM: 1.70e11, NetMargin: 0.38, PERatio: 28.3, EPS: 26.11},
}

var mockNews = map[string][]map[string]any{
	"AAPL": {
		{"headline": "Apple expands AI features across iPhone lineup", "published": "2026-08-29", "source": "Reuters"},
		{"headline": "Services revenue hits a new quarterly record", "published": "2026-08-26", "source": "Bloomberg"},
	},
	"MSFT": {
		{"headline": "Microsoft raises Azure capacity forecasts", "published": "2026-08-30", "source": "Reuters"},
	},
	"TSLA": {
		{"headline": "Tesla opens new European battery plant", "published": "2026-08-28", "source": "FT"},
	},
	"NVDA": {
		{"headline": "Nvidia data-center demand outpaces supply again", "published": "2026-08-31", "source": "WSJ"},
	},
}

var mockRatings = map[string]map[string]any{
	"AAPL": {"consensus": "buy", "buy": 28, "hold": 9, "sell": 2, "avg_target": 255.0},
	"MSFT": {"consensus": "strong buy", "buy": 34, "hold": 4, "sell": 0, "avg_target": 560.0},
	"TSLA": {"consensus": "hold", "buy": 14, "hold": 19, "sell": 8, "avg_target": 310.0},
	"NVDA": {"consensus": "strong buy", "buy": 39, "hold": 3, "sell": 1, "avg_target": 205.0},
}

var mockEarnings = map[string]map[string]any{
	"AAPL": {"next_report": "2026-10-29", "last_eps": 1.64, "last_eps_estimate": 1.60, "surprise_pct": 2.5},
	"MSFT": {"next_report": "2026-10-27", "last_eps": 3.46, "last_eps_estimate": 3.37, "surprise_pct": 2.7},
	"NVDA": {"next_report": "2026-11-18", "last_eps": 1.05, "last_eps_estimate": 1.01, "surprise_pct": 4.0},
}

var mockWatchlist = []map[string]any{
	{"ticker": "AAPL", "added": "2026-03-02", "note": "core holding"},
	{"ticker": "NVDA", "added": "2026-05-18", "note": "AI exposure"},
	{"ticker": "MC.PA", "added": "2026-06-30", "note": "luxury dip watch"},
}

func lookupTicker[T any](table map[string]T, params map[string]string) (string, T, error) {
	var zero T
	t := strings.ToUpper(params["ticker"])
	if t == "" {
		return "", zero, fmt.Errorf("ticker parameter required")
	}
	row, ok := table[t]
	if !ok {
		return t, zero, fmt.Errorf("no data for ticker %s", t)
	}
	return t, row, nil
}

func quoteRunner(_ context.Context, params map[string]string) (map[string]any, error) {
	t, row, err := lookupTicker(mockQuotes, params)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"ticker": t, "price": row.Price, "change": row.Change,
		"change_pct": row.ChangePct, "volume": row.Volume,
		"as_of": time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func fundamentalsRunner(_ context.Context, params map[string]string) (map[string]any, error) {
	t, row, err := lookupTicker(mockFundamentals, params)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"ticker": t, "market_cap": row.MarketCap, "revenue_ttm": row.RevenueTTM,
		"net_margin": row.NetMargin, "pe_ratio": row.PERatio, "eps": row.EPS,
	}, nil
}

func ratiosRunner(_ context.Context, params map[string]string) (map[string]any, error) {
	t, row, err := lookupTicker(mockFundamentals, params)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"ticker": t, "pe_ratio": row.PERatio, "net_margin": row.NetMargin,
		"earnings_yield": 1 / row.PERatio,
	}, nil
}

func keyMetricsRunner(_ context.Context, params map[string]string) (map[string]any, error) {
	t, row, err := lookupTicker(mockFundamentals, params)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"ticker": t, "market_cap": row.MarketCap, "eps": row.EPS,
	}, nil
}

func newsRunner(_ context.Context, params map[string]string) (map[string]any, error) {
	t, items, err := lookupTicker(mockNews, params)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ticker": t, "items": items}, nil
}

func ratingsRunner(_ context.Context, params map[string]string) (map[string]any, error) {
	t, row, err := lookupTicker(mockRatings, params)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"ticker": t}
	for k, v := range row {
		out[k] = v
	}
	return out, nil
}

func earningsRunner(_ context.Context, params map[string]string) (map[string]any, error) {
	t, row, err := lookupTicker(mockEarnings, params)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"ticker": t}
	for k, v := range row {
		out[k] = v
	}
	return out, nil
}

func technicalRunner(_ context.Context, params map[string]string) (map[string]any, error) {
	t, row, err := lookupTicker(mockQuotes, params)
	if err != nil {
		return nil, err
	}
	// Derived pseudo-indicators keep the output deterministic.
	rsi := 50 + row.ChangePct*8
	if rsi > 90 {
		rsi = 90
	}
	if rsi < 10 {
		rsi = 10
	}
	return map[string]any{
		"ticker": t, "rsi_14": rsi,
		"sma_50":  row.Price * 0.97,
		"sma_200": row.Price * 0.91,
		"trend":   trendLabel(row.ChangePct),
	}, nil
}

func trendLabel(changePct float64) string {
	switch {
	case changePct > 1:
		return "bullish"
	case changePct < -1:
		return "bearish"
	default:
		return "neutral"
	}
}

func marketMoversRunner(_ context.Context, _ map[string]string) (map[string]any, error) {
	return map[string]any{
		"gainers": []map[string]any{
			{"ticker": "NVDA", "change_pct": 1.36},
			{"ticker": "AMZN", "change_pct": 1.52},
		},
		"losers": []map[string]any{
			{"ticker": "TSLA", "change_pct": -2.37},
		},
		"indices": map[string]any{"sp500": 0.4, "nasdaq": 0.7, "cac40": -0.1},
	}, nil
}

func watchlistRunner(_ context.Context, _ map[string]string) (map[string]any, error) {
	return map[string]any{"watchlist": mockWatchlist}, nil
}

// DefaultDescriptors returns the built-in tool table in priority order.
func DefaultDescriptors() []model.ToolDescriptor {
	return []model.ToolDescriptor{
		{
			ID: "stock_quote", Description: "Real-time price quote for one ticker",
			Enabled: true, Category: model.CategoryMarketData, Priority: 1,
			Keywords:           []string{"price", "quote", "cours", "prix"},
			UsageContext:       []string{"stock_price", "comprehensive_analysis", "comparative_analysis"},
			RequiredParameters: []string{"ticker"},
			FallbackTools:      []string{"key_metrics"},
		},
		{
			ID: "company_fundamentals", Description: "Income statement and balance sheet highlights",
			Enabled: true, Category: model.CategoryFundamental, Priority: 2,
			Keywords:           []string{"fundamentals", "revenue", "margin", "bilan"},
			UsageContext:       []string{"fundamentals", "comprehensive_analysis", "earnings"},
			RequiredParameters: []string{"ticker"},
			FallbackTools:      []string{"key_metrics"},
		},
		{
			ID: "financial_ratios", Description: "Valuation and profitability ratios",
			Enabled: true, Category: model.CategoryFundamental, Priority: 3,
			Keywords:           []string{"ratio", "pe", "valuation"},
			UsageContext:       []string{"fundamentals", "comparative_analysis"},
			RequiredParameters: []string{"ticker"},
			Optional:           true,
		},
		{
			ID: "key_metrics", Description: "Compact per-share metrics",
			Enabled: true, Category: model.CategoryFundamental, Priority: 4,
			Keywords:           []string{"metrics", "eps", "market cap"},
			UsageContext:       []string{"fundamentals", "comparative_analysis"},
			RequiredParameters: []string{"ticker"},
			Optional:           true,
		},
		{
			ID: "ticker_news", Description: "Recent headlines for one ticker",
			Enabled: true, Category: model.CategoryNews, Priority: 2,
			Keywords:           []string{"news", "headline", "actualités"},
			UsageContext:       []string{"news", "comprehensive_analysis"},
			RequiredParameters: []string{"ticker"},
		},
		{
			ID: "analyst_ratings", Description: "Analyst consensus and price targets",
			Enabled: true, Category: model.CategoryAnalysis, Priority: 3,
			Keywords:           []string{"rating", "analyst", "target", "recommend"},
			UsageContext:       []string{"recommendation", "comprehensive_analysis"},
			RequiredParameters: []string{"ticker"},
			Optional:           true,
		},
		{
			ID: "earnings_calendar", Description: "Next report date and last surprise",
			Enabled: true, Category: model.CategoryFundamental, Priority: 3,
			Keywords:           []string{"earnings", "report", "résultats"},
			UsageContext:       []string{"earnings"},
			RequiredParameters: []string{"ticker"},
		},
		{
			ID: "technical_indicators", Description: "RSI, moving averages and trend",
			Enabled: true, Category: model.CategoryAnalysis, Priority: 3,
			Keywords:           []string{"rsi", "macd", "technical", "trend"},
			UsageContext:       []string{"technical_analysis", "comprehensive_analysis"},
			RequiredParameters: []string{"ticker"},
			Optional:           true,
		},
		{
			ID: "market_movers", Description: "Index moves and top gainers/losers",
			Enabled: true, Category: model.CategoryMarketData, Priority: 2,
			Keywords:     []string{"market", "indices", "movers", "marché"},
			UsageContext: []string{"market_overview"},
		},
		{
			ID: "watchlist_snapshot", Description: "The user's saved watchlist",
			Enabled: true, Category: model.CategoryPortfolio, Priority: 1,
			Keywords:     []string{"watchlist", "portfolio", "portefeuille"},
			UsageContext: []string{"portfolio"},
		},
	}
}

// NewDefaultRegistry builds a registry with the built-in tools registered.
func NewDefaultRegistry(cfg model.ToolsConfig) (*Registry, error) {
	reg, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}
	runners := map[string]Runner{
		"stock_quote":          RunnerFunc(quoteRunner),
		"company_fundamentals": RunnerFunc(fundamentalsRunner),
		"financial_ratios":     RunnerFunc(ratiosRunner),
		"key_metrics":          RunnerFunc(keyMetricsRunner),
		"ticker_news":          RunnerFunc(newsRunner),
		"analyst_ratings":      RunnerFunc(ratingsRunner),
		"earnings_calendar":    RunnerFunc(earningsRunner),
		"technical_indicators": RunnerFunc(technicalRunner),
		"market_movers":        RunnerFunc(marketMoversRunner),
		"watchlist_snapshot":   RunnerFunc(watchlistRunner),
	}
	for _, d := range DefaultDescriptors() {
		if err := reg.Register(d, runners[d.ID]); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
