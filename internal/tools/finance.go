package tools

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ashishjangde/gen-ai-bot/internal/gateway"
	"github.com/ashishjangde/gen-ai-bot/internal/llm"
)

const financeSource = "https://finance.yahoo.com"

const tickerPromptFormat = `Extract the stock ticker symbol(s) for the query: %q.
Rules:
1. Return ONLY the ticker symbol(s), separated by comma if multiple.
2. For Indian companies (NSE/BSE), YOU MUST append '.NS' (e.g. "TCS" -> "TCS.NS", "Reliance" -> "RELIANCE.NS", "Infosys" -> "INFY.NS").
3. For US companies, use the standard ticker (e.g. "Apple" -> "AAPL").
4. If the user mentions a full company name, map it to the correct ticker.
5. If unsure or no financial entity found, return 'NONE'.

Examples:
"price of tcs" -> "TCS.NS"
"infosys and wipro" -> "INFY.NS, WIPRO.NS"
"tesla stock" -> "TSLA"`

// FinanceHandler extracts a ticker symbol from the message and fetches a
// live quote for it.
type FinanceHandler struct {
	client llm.Client
	model  string
	quotes gateway.QuoteProvider
}

// NewFinanceHandler builds a finance handler using the given model for
// ticker extraction.
func NewFinanceHandler(client llm.Client, model string, quotes gateway.QuoteProvider) *FinanceHandler {
	return &FinanceHandler{client: client, model: model, quotes: quotes}
}

func (h *FinanceHandler) Name() string { return "financial_data" }

func (h *FinanceHandler) Execute(ctx context.Context, q Query) (PartialResult, error) {
	symbol, err := h.extractTicker(ctx, q.Text)
	if err != nil {
		return nil, err
	}
	if symbol == "" {
		log.Printf("[Finance] no ticker found in %q", q.Text)
		return PartialResult{}, nil
	}

	quote, err := h.quotes.Quote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("quote lookup for %s: %w", symbol, err)
	}

	item := ResultItem{
		Category: "finance",
		Content: fmt.Sprintf("Live Data for %s (%s): Price = %.2f %s",
			quote.DisplayName, quote.Symbol, quote.Price, quote.Currency),
		Title:   fmt.Sprintf("Stock Price: %s", quote.Symbol),
		Source:  financeSource,
		Favicon: FaviconURL(financeSource),
	}
	return PartialResult{"finance": []ResultItem{item}}, nil
}

// extractTicker asks the model for a symbol. It returns "" when the message
// contains no recognizable financial entity.
func (h *FinanceHandler) extractTicker(ctx context.Context, text string) (string, error) {
	resp, err := h.client.Complete(ctx, llm.Request{
		Model:    h.model,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: fmt.Sprintf(tickerPromptFormat, text)}},
	})
	if err != nil {
		return "", fmt.Errorf("ticker extraction: %w", err)
	}

	symbol := strings.Trim(strings.TrimSpace(resp.Content), `"'`)
	if strings.Contains(symbol, "NONE") || len(symbol) > 10 {
		return "", nil
	}
	// Multiple symbols over 10 chars are rejected above; a short pair like
	// "TCS,INFY" still parses, take the first.
	if idx := strings.Index(symbol, ","); idx >= 0 {
		symbol = strings.TrimSpace(symbol[:idx])
	}
	if symbol == "" {
		return "", nil
	}
	return symbol, nil
}
