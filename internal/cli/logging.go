package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"folio-api/internal/config"
	"folio-api/pkg/confkit"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Currency: %s", cfg.Currency),
		fmt.Sprintf("Postgres: %s", presence(cfg.Postgres.DSN != "")),
		fmt.Sprintf("Redis: %s", presence(strings.TrimSpace(cfg.Redis.Host) != "")),
		fmt.Sprintf("TTL (stock/etf/crypto/commodity): %ds / %ds / %ds / %ds",
			cfg.TTL.Stock, cfg.TTL.ETF, cfg.TTL.Crypto, cfg.TTL.Commodity),
		fmt.Sprintf("Fetch timeout: %ds", cfg.FetchTimeout),
		fmt.Sprintf("Holdings: %s", cfg.Holdings.Source),
		scheduleLine(cfg.Schedule),
		fmt.Sprintf("Journal: %s", valueOr(cfg.Journal.Dir, "disabled")),
		sectionLine("Market config", cfg.Market),
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Configured():
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}

func scheduleLine(s config.ScheduleConf) string {
	if !s.Enabled {
		return "Schedule: disabled"
	}
	return fmt.Sprintf("Schedule: workers=%d runOnStart=%t crypto=%q equity=%q commodity=%q",
		s.Workers, s.RunOnStart, valueOr(s.Crypto, "default"), valueOr(s.Equity, "default"), valueOr(s.Commodity, "default"))
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
