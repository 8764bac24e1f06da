package refresh

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"folio-api/pkg/market"
)

// Default cadences. Equity and ETF share one task.
const (
	DefaultCryptoSpec    = "*/5 * * * *"
	DefaultEquitySpec    = "*/15 * * * *"
	DefaultCommoditySpec = "*/30 * * * *"
)

// Task is one periodic refresh job covering a group of asset classes.
type Task struct {
	Name    string
	Spec    string
	Classes []market.AssetClass
}

// DefaultTasks returns the stock schedule: crypto fastest, equity and ETF
// intermediate, commodity slowest.
func DefaultTasks() []Task {
	return []Task{
		{Name: "crypto", Spec: DefaultCryptoSpec, Classes: []market.AssetClass{market.Crypto}},
		{Name: "equity", Spec: DefaultEquitySpec, Classes: []market.AssetClass{market.Equity, market.ETF}},
		{Name: "commodity", Spec: DefaultCommoditySpec, Classes: []market.AssetClass{market.Commodity}},
	}
}

// Validate checks the task name, cron expression and classes.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("refresh: task name is required")
	}
	if _, err := cron.ParseStandard(t.Spec); err != nil {
		return fmt.Errorf("refresh: task %s: invalid schedule %q: %w", t.Name, t.Spec, err)
	}
	if len(t.Classes) == 0 {
		return fmt.Errorf("refresh: task %s has no asset classes", t.Name)
	}
	for _, class := range t.Classes {
		if !class.Valid() {
			return fmt.Errorf("refresh: task %s: %w: %q", t.Name, market.ErrUnknownAssetClass, class)
		}
	}
	return nil
}
