package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/fd1az/v2-router/business/routing/app"
	routingDI "github.com/fd1az/v2-router/business/routing/di"
	"github.com/fd1az/v2-router/business/routing/domain"
	"github.com/fd1az/v2-router/business/routing/infra/httpapi"
	"github.com/fd1az/v2-router/pkg/ui"
)

type quoteFlags struct {
	tradeType     string
	maxHops       int
	maxResults    int
	slippageBps   int64
	ttlSeconds    int64
	recipient     string
	feeOnTransfer bool
	asJSON        bool
}

func newQuoteCmd(configPath *string) *cobra.Command {
	var f quoteFlags

	cmd := &cobra.Command{
		Use:   "quote <token-in> <token-out> <amount>",
		Short: "Find the best trades between two tokens",
		Long: `Find the best trades between two tokens. Tokens are ETH, a known
symbol or an address. The amount is in whole units of token-in, or of
token-out with --type exact_output.

Example:
  $ router quote ETH DAI 1.5
  $ router quote USDC WETH 2 --type exact_output --recipient 0x... --json`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			tradeType, err := httpapi.ParseTradeType(f.tradeType)
			if err != nil {
				return err
			}

			req := app.QuoteRequest{
				TokenIn:       args[0],
				TokenOut:      args[1],
				Amount:        args[2],
				TradeType:     tradeType,
				MaxHops:       f.maxHops,
				MaxResults:    f.maxResults,
				Recipient:     f.recipient,
				FeeOnTransfer: f.feeOnTransfer,
			}
			if cmd.Flags().Changed("slippage-bps") {
				req.SlippageBps = &f.slippageBps
			}
			if f.ttlSeconds > 0 {
				req.TTL = time.Duration(f.ttlSeconds) * time.Second
			}

			application, err := boot(cmd.Context(), *configPath, os.Stderr)
			if err != nil {
				return err
			}
			defer application.Close()

			q, err := routingDI.GetQuoteService(application.mono.Services()).Quote(cmd.Context(), req)
			if err != nil {
				return err
			}

			if f.asJSON {
				return writeJSON(cmd.OutOrStdout(), httpapi.NewQuoteResponse(q))
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), ui.RenderQuote(quoteView(q)))
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.tradeType, "type", "exact_input", "exact_input or exact_output")
	flags.IntVar(&f.maxHops, "max-hops", 0, "Maximum pairs per route (default from config)")
	flags.IntVar(&f.maxResults, "max-results", 0, "Number of trades to return (default from config)")
	flags.Int64Var(&f.slippageBps, "slippage-bps", 0, "Slippage tolerance in basis points (default from config)")
	flags.Int64Var(&f.ttlSeconds, "ttl", 0, "Deadline offset in seconds for the router call")
	flags.StringVar(&f.recipient, "recipient", "", "Include Router02 call parameters for this recipient")
	flags.BoolVar(&f.feeOnTransfer, "fee-on-transfer", false, "Use the fee-on-transfer router methods")
	flags.BoolVar(&f.asJSON, "json", false, "Print the quote as JSON")

	return cmd
}

func newPairCmd(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "pair <token-a> <token-b>",
		Short: "Show the reserves of a pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := boot(cmd.Context(), *configPath, os.Stderr)
			if err != nil {
				return err
			}
			defer application.Close()

			p, err := routingDI.GetQuoteService(application.mono.Services()).Pair(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), httpapi.NewPairResponse(p))
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), ui.RenderPair(ui.PairView{
				Address:     p.Address().Hex(),
				Reserve0:    p.Reserve0().String(),
				Reserve1:    p.Reserve1().String(),
				Token0Price: p.Token0Price().String(),
				Token1Price: p.Token1Price().String(),
			}))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the pair as JSON")
	return cmd
}

func quoteView(q *app.Quote) ui.QuoteView {
	view := ui.QuoteView{
		ID:             q.ID,
		ChainID:        q.ChainID,
		TradeType:      q.TradeType.String(),
		Slippage:       q.Slippage.String(),
		CandidatePairs: q.CandidatePairs,
	}

	for _, qt := range q.Trades {
		t := qt.Trade
		tv := ui.TradeView{
			Input:          t.InputAmount().String(),
			Output:         t.OutputAmount().String(),
			LimitLabel:     "Minimum received",
			Limit:          qt.Limit.String(),
			ExecutionPrice: t.ExecutionPrice().String(),
			PriceImpact:    t.PriceImpact(),
		}
		if t.TradeType() == domain.ExactOutput {
			tv.LimitLabel = "Maximum sold"
		}
		for _, c := range t.Route().Path() {
			tv.Route = append(tv.Route, c.Symbol())
		}
		if qt.Swap != nil {
			tv.Method = qt.Swap.MethodName
			if qt.Calldata != nil {
				tv.Calldata = hexutil.Encode(qt.Calldata)
			}
		}
		view.Trades = append(view.Trades, tv)
	}
	return view
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
