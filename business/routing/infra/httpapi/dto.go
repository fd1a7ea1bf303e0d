package httpapi

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/fd1az/v2-router/business/routing/app"
	"github.com/fd1az/v2-router/business/routing/domain"
	"github.com/fd1az/v2-router/internal/asset"
)

// QuoteRequest is the POST /v1/quote body. GET takes the same fields as
// query parameters.
type QuoteRequest struct {
	TokenIn       string `json:"tokenIn"`
	TokenOut      string `json:"tokenOut"`
	Amount        string `json:"amount"`
	TradeType     string `json:"tradeType,omitempty"` // exact_input (default) or exact_output
	MaxHops       int    `json:"maxHops,omitempty"`
	MaxResults    int    `json:"maxResults,omitempty"`
	SlippageBps   *int64 `json:"slippageBps,omitempty"`
	TTLSeconds    int64  `json:"ttlSeconds,omitempty"`
	Recipient     string `json:"recipient,omitempty"`
	FeeOnTransfer bool   `json:"feeOnTransfer,omitempty"`
}

// CurrencyAmount is an amount with its currency.
type CurrencyAmount struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address,omitempty"` // empty for the native coin
	Amount  string `json:"amount"`
	Raw     string `json:"raw"`
}

func toCurrencyAmount(a asset.Amount) CurrencyAmount {
	out := CurrencyAmount{
		Symbol: a.Currency().Symbol(),
		Amount: a.ToExact(),
		Raw:    a.Raw().String(),
	}
	if a.Currency().IsToken() {
		out.Address = a.Currency().Address().Hex()
	}
	return out
}

// SwapCall is a Router02 call.
type SwapCall struct {
	Method   string `json:"method"`
	Args     []any  `json:"args"`
	Value    string `json:"value"`
	Calldata string `json:"calldata,omitempty"`
}

// TradeResponse describes one ranked trade.
type TradeResponse struct {
	Route          []string       `json:"route"`
	Pairs          []string       `json:"pairs"`
	Input          CurrencyAmount `json:"input"`
	Output         CurrencyAmount `json:"output"`
	Limit          CurrencyAmount `json:"limit"`
	ExecutionPrice string         `json:"executionPrice"`
	MidPrice       string         `json:"midPrice"`
	NextMidPrice   string         `json:"nextMidPrice"`
	PriceImpact    string         `json:"priceImpact"`
	Swap           *SwapCall      `json:"swap,omitempty"`
}

// QuoteResponse is the body of a successful quote.
type QuoteResponse struct {
	ID             string          `json:"id"`
	ChainID        uint64          `json:"chainId"`
	TradeType      string          `json:"tradeType"`
	Slippage       string          `json:"slippage"`
	CandidatePairs int             `json:"candidatePairs"`
	Trades         []TradeResponse `json:"trades"`
}

// NewQuoteResponse converts a quote for the wire.
func NewQuoteResponse(q *app.Quote) QuoteResponse {
	resp := QuoteResponse{
		ID:             q.ID,
		ChainID:        q.ChainID,
		TradeType:      q.TradeType.String(),
		Slippage:       q.Slippage.String(),
		CandidatePairs: q.CandidatePairs,
		Trades:         make([]TradeResponse, 0, len(q.Trades)),
	}

	for _, qt := range q.Trades {
		t := qt.Trade
		tr := TradeResponse{
			Input:          toCurrencyAmount(t.InputAmount()),
			Output:         toCurrencyAmount(t.OutputAmount()),
			Limit:          toCurrencyAmount(qt.Limit),
			ExecutionPrice: t.ExecutionPrice().String(),
			MidPrice:       t.Route().MidPrice().String(),
			NextMidPrice:   t.NextMidPrice().String(),
			PriceImpact:    t.PriceImpact().String(),
		}
		for _, c := range t.Route().Path() {
			tr.Route = append(tr.Route, c.Symbol())
		}
		for _, p := range t.Route().Pairs() {
			tr.Pairs = append(tr.Pairs, p.Address().Hex())
		}
		if qt.Swap != nil {
			tr.Swap = &SwapCall{
				Method: qt.Swap.MethodName,
				Args:   qt.Swap.Args,
				Value:  qt.Swap.Value,
			}
			if qt.Calldata != nil {
				tr.Swap.Calldata = hexutil.Encode(qt.Calldata)
			}
		}
		resp.Trades = append(resp.Trades, tr)
	}
	return resp
}

// PairResponse describes a pool and its reserves.
type PairResponse struct {
	Address     string         `json:"address"`
	Reserve0    CurrencyAmount `json:"reserve0"`
	Reserve1    CurrencyAmount `json:"reserve1"`
	Token0Price string         `json:"token0Price"`
	Token1Price string         `json:"token1Price"`
}

// NewPairResponse converts a pair for the wire.
func NewPairResponse(p *domain.Pair) PairResponse {
	return PairResponse{
		Address:     p.Address().Hex(),
		Reserve0:    toCurrencyAmount(p.Reserve0()),
		Reserve1:    toCurrencyAmount(p.Reserve1()),
		Token0Price: p.Token0Price().String(),
		Token1Price: p.Token1Price().String(),
	}
}
