package ui

import (
	"strings"
	"testing"

	"github.com/fd1az/v2-router/internal/fraction"
)

func TestImpactStyle(t *testing.T) {
	tests := []struct {
		impact fraction.Percent
		want   string
	}{
		{fraction.NewPercent(5, 1000), "low"},
		{fraction.NewPercent(1, 100), "medium"},
		{fraction.NewPercent(49, 1000), "medium"},
		{fraction.NewPercent(5, 100), "high"},
	}

	styles := map[string]any{
		"low":    ImpactLow.GetForeground(),
		"medium": ImpactMedium.GetForeground(),
		"high":   ImpactHigh.GetForeground(),
	}
	for _, tt := range tests {
		got := ImpactStyle(tt.impact).GetForeground()
		if got != styles[tt.want] {
			t.Errorf("ImpactStyle(%s) = %v, want %s", tt.impact, got, tt.want)
		}
	}
}

func TestRenderQuote(t *testing.T) {
	out := RenderQuote(QuoteView{
		ID:             "3f1c",
		ChainID:        1,
		TradeType:      "exact_input",
		Slippage:       "0.50%",
		CandidatePairs: 4,
		Trades: []TradeView{{
			Route:          []string{"ETH", "USDC", "DAI"},
			Input:          "1 ETH",
			Output:         "1987.2 DAI",
			LimitLabel:     "Minimum received",
			Limit:          "1977.3 DAI",
			ExecutionPrice: "1987.2 DAI/ETH",
			PriceImpact:    fraction.NewPercent(3, 1000),
			Method:         "swapExactETHForTokens",
			Calldata:       "0x7ff36ab5" + strings.Repeat("00", 64),
		}},
	})

	for _, want := range []string{
		"EXACT_INPUT", "0.50%", "4 candidate pairs",
		"ETH → USDC → DAI", "1987.2 DAI", "Minimum received", "0.30%",
		"swapExactETHForTokens", "0x7ff36ab5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestRenderPair(t *testing.T) {
	out := RenderPair(PairView{
		Address:     "0xA478c2975Ab1Ea89e8196811F51A7B7Ade33eB11",
		Reserve0:    "2000000 DAI",
		Reserve1:    "1000 WETH",
		Token0Price: "0.0005 WETH/DAI",
		Token1Price: "2000 DAI/WETH",
	})
	for _, want := range []string{"0xA478c2975Ab1Ea89e8196811F51A7B7Ade33eB11", "1000 WETH", "2000 DAI/WETH"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}
}
