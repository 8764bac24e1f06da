package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"folio-api/internal/config"
	"folio-api/internal/svc"
	"folio-api/pkg/market"
)

type quoteLine struct {
	market.Quote
	Status string `json:"status"`
}

type failureLine struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

func fatalf(format string, args ...interface{}) {
	logx.Errorf(format, args...)
	os.Exit(1)
}

func main() {
	var (
		configPath = flag.String("f", "etc/folio.yaml", "the config file")
		assetType  = flag.String("type", string(market.Equity), "asset type: stock|etf|crypto|commodity")
		currency   = flag.String("currency", "", "settlement currency, defaults to the configured one")
	)
	flag.Parse()
	logx.MustSetup(logx.LogConf{Level: "error"})
	logx.DisableStat()

	tickers := flag.Args()
	if len(tickers) == 0 {
		fatalf("usage: quote [-type stock] [-currency USD] TICKER [TICKER...]")
	}
	class, err := market.ParseAssetClass(*assetType)
	if err != nil {
		fatalf("parse -type: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if strings.TrimSpace(*currency) == "" {
		*currency = cfg.Currency
	}
	svcCtx := svc.NewServiceContext(*cfg)

	ctx := context.Background()
	if n, err := svcCtx.Resolver.Warm(ctx, class, *currency, tickers); err != nil {
		logx.Errorf("batch warm %s: %v", class, err)
	} else if n > 0 {
		logx.Infof("warmed %d %s quotes", n, class)
	}

	enc := json.NewEncoder(os.Stdout)
	failed := 0
	for _, ticker := range tickers {
		res, err := svcCtx.Resolver.ResolveDetailed(ctx, market.NewKey(ticker, class, *currency))
		if err != nil {
			failed++
			_ = enc.Encode(failureLine{Ticker: market.NormalizeTicker(ticker), Error: err.Error()})
			continue
		}
		_ = enc.Encode(quoteLine{Quote: res.Quote, Status: string(res.Status)})
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d tickers had no price\n", failed, len(tickers))
		os.Exit(2)
	}
}
