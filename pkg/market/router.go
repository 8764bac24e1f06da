package market

import (
	"fmt"
	"sort"
	"strings"
)

// Router maps every asset class to the adapter responsible for it.
type Router struct {
	routes map[AssetClass]Adapter
}

// NewRouter builds a router and fails when any supported class is left
// without an adapter, so misconfiguration surfaces before traffic is served.
func NewRouter(routes map[AssetClass]Adapter) (*Router, error) {
	table := make(map[AssetClass]Adapter, len(routes))
	for class, adapter := range routes {
		if !class.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAssetClass, class)
		}
		if adapter == nil {
			continue
		}
		table[class] = adapter
	}
	var missing []string
	for _, class := range AssetClasses {
		if _, ok := table[class]; !ok {
			missing = append(missing, string(class))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrUnroutedClass, strings.Join(missing, ", "))
	}
	return &Router{routes: table}, nil
}

// Route returns the adapter for class. Only classes outside the supported set
// can fail here; NewRouter guarantees the rest are mapped.
func (r *Router) Route(class AssetClass) (Adapter, error) {
	adapter, ok := r.routes[class]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAssetClass, class)
	}
	return adapter, nil
}

// Adapters returns the distinct adapters behind the router.
func (r *Router) Adapters() []Adapter {
	seen := make(map[string]struct{}, len(r.routes))
	out := make([]Adapter, 0, len(r.routes))
	for _, class := range AssetClasses {
		adapter := r.routes[class]
		if _, ok := seen[adapter.Name()]; ok {
			continue
		}
		seen[adapter.Name()] = struct{}{}
		out = append(out, adapter)
	}
	return out
}
