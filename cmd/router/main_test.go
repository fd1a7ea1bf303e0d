package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fd1az/v2-router/business/routing/infra/httpapi"
	"github.com/fd1az/v2-router/business/routing/infra/snapshot"
)

const reserves = `
chain_id: 56709
tokens:
  - address: "0x6B175474E89094C44Da98b954EedeAC495271d0F"
    decimals: 18
    symbol: DAI
    name: Dai Stablecoin
  - address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
    decimals: 6
    symbol: USDC
    name: USD Coin
pairs:
  - token_a: DAI
    token_b: WETH
    reserve_a: "2000000000000000000000000"
    reserve_b: "1000000000000000000000"
  - token_a: USDC
    token_b: WETH
    reserve_a: "2000000000000"
    reserve_b: "1000000000000000000000"
`

func writeConfig(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	snap := filepath.Join(dir, "reserves.yaml")
	if err := os.WriteFile(snap, []byte(reserves), 0o600); err != nil {
		t.Fatal(err)
	}
	path = filepath.Join(dir, "config.yaml")
	body := "app:\n  log_level: error\nsnapshot:\n  path: " + snap + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQuoteCmd(t *testing.T) {
	_, cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "quote", "DAI", "USDC", "100")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	for _, want := range []string{"EXACT_INPUT", "DAI → WETH → USDC", "100 DAI", "Minimum received"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestQuoteCmd_JSON(t *testing.T) {
	_, cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "quote", "ETH", "DAI", "10",
		"--type", "exact_output", "--slippage-bps", "100",
		"--recipient", "0x00000000000000000000000000000000000000aA", "--json")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	var q httpapi.QuoteResponse
	if err := json.Unmarshal([]byte(out), &q); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if q.TradeType != "exact_output" || q.Slippage != "1.00%" {
		t.Errorf("quote = %+v", q)
	}
	if len(q.Trades) == 0 || q.Trades[0].Swap == nil || q.Trades[0].Swap.Method != "swapETHForExactTokens" {
		t.Errorf("trades = %+v", q.Trades)
	}
}

func TestQuoteCmd_Errors(t *testing.T) {
	_, cfg := writeConfig(t)

	if _, err := run(t, "--config", cfg, "quote", "DAI", "USDC"); err == nil {
		t.Error("missing amount should fail")
	}
	if _, err := run(t, "--config", cfg, "quote", "DAI", "USDC", "1", "--type", "both"); err == nil {
		t.Error("bad trade type should fail")
	}
	if _, err := run(t, "--config", cfg, "quote", "DAI", "NOPE", "1"); err == nil {
		t.Error("unknown token should fail")
	}
}

func TestPairCmd(t *testing.T) {
	_, cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "pair", "ETH", "DAI")
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	if !strings.Contains(out, "1000 WETH") || !strings.Contains(out, "2000000 DAI") {
		t.Errorf("output:\n%s", out)
	}
}

func TestSnapshotExportCmd(t *testing.T) {
	dir, cfg := writeConfig(t)
	out := filepath.Join(dir, "export.json")

	if _, err := run(t, "--config", cfg, "snapshot", "export", "--tokens", "DAI,USDC", "--out", out); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := snapshot.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if f.ChainID != 56709 || len(f.Pairs) != 2 || len(f.Tokens) != 3 {
		t.Errorf("file = %+v", f)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "router dev") {
		t.Errorf("version = %q", out)
	}
}
