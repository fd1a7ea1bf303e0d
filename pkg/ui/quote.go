package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/v2-router/internal/fraction"
)

var (
	impactMedium = fraction.NewPercent(1, 100)
	impactHigh   = fraction.NewPercent(5, 100)
)

// TradeView is one ranked trade, already formatted.
type TradeView struct {
	Route          []string
	Input          string
	Output         string
	LimitLabel     string // "Minimum received" or "Maximum sold"
	Limit          string
	ExecutionPrice string
	PriceImpact    fraction.Percent
	Method         string // empty without a recipient
	Calldata       string
}

// QuoteView is a quote header plus its trades, best first.
type QuoteView struct {
	ID             string
	ChainID        uint64
	TradeType      string
	Slippage       string
	CandidatePairs int
	Trades         []TradeView
}

// PairView is a pool and its reserves.
type PairView struct {
	Address     string
	Reserve0    string
	Reserve1    string
	Token0Price string
	Token1Price string
}

// ImpactStyle colors a price impact: green below 1%, amber below 5%, red above.
func ImpactStyle(p fraction.Percent) lipgloss.Style {
	switch {
	case p.LessThan(impactMedium.Fraction):
		return ImpactLow
	case p.LessThan(impactHigh.Fraction):
		return ImpactMedium
	default:
		return ImpactHigh
	}
}

func row(label, value string) string {
	return LabelStyle.Render(label) + " " + value
}

// RenderQuote renders q as a title line and one box per trade.
func RenderQuote(q QuoteView) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("QUOTE %s", strings.ToUpper(q.TradeType))))
	b.WriteString("\n")
	b.WriteString(MutedValue.Render(fmt.Sprintf("chain %d  slippage %s  %d candidate pairs  id %s",
		q.ChainID, q.Slippage, q.CandidatePairs, q.ID)))
	b.WriteString("\n\n")

	for i, t := range q.Trades {
		lines := []string{
			HeaderStyle.Render(fmt.Sprintf("#%d  %s", i+1, strings.Join(t.Route, " → "))),
			row("Input", ValueStyle.Render(t.Input)),
			row("Output", ValueStyle.Render(t.Output)),
			row(t.LimitLabel, t.Limit),
			row("Execution price", t.ExecutionPrice),
			row("Price impact", ImpactStyle(t.PriceImpact).Render(t.PriceImpact.String())),
		}
		if t.Method != "" {
			lines = append(lines, row("Router call", t.Method))
			if t.Calldata != "" {
				lines = append(lines, row("Calldata", MutedValue.Render(abbreviate(t.Calldata, 42))))
			}
		}
		b.WriteString(BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderPair renders a pool box.
func RenderPair(p PairView) string {
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		HeaderStyle.Render("PAIR "+p.Address),
		row("Reserve 0", ValueStyle.Render(p.Reserve0)),
		row("Reserve 1", ValueStyle.Render(p.Reserve1)),
		row("Token 0 price", p.Token0Price),
		row("Token 1 price", p.Token1Price),
	)) + "\n"
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
