package market

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"folio-api/pkg/confkit"
)

// Config describes the upstream price providers and which asset class each serves.
type Config struct {
	Providers map[string]*ProviderConfig `yaml:"providers"`
	// Routes maps an asset class (stock, etf, crypto, commodity) to a provider name.
	Routes map[string]string `yaml:"routes"`
}

// ProviderConfig represents configuration for a single upstream provider.
type ProviderConfig struct {
	Type string `yaml:"type"`

	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`

	HTTPTimeoutRaw string        `yaml:"http_timeout"`
	HTTPTimeout    time.Duration `yaml:"-"`
	// BatchSize caps the number of symbols sent in one batch request.
	BatchSize int `yaml:"batch_size"`
}

// ProviderBuilder constructs an Adapter from configuration. The adapter
// reports its own provenance name regardless of the config key.
type ProviderBuilder func(cfg *ProviderConfig) (Adapter, error)

var (
	providerRegistry   = make(map[string]ProviderBuilder)
	providerRegistryMu sync.RWMutex
)

// RegisterProvider registers an adapter constructor under a type name.
func RegisterProvider(typeName string, builder ProviderBuilder) {
	providerRegistryMu.Lock()
	defer providerRegistryMu.Unlock()
	providerRegistry[strings.ToLower(strings.TrimSpace(typeName))] = builder
}

func lookupProviderBuilder(typeName string) (ProviderBuilder, bool) {
	providerRegistryMu.RLock()
	defer providerRegistryMu.RUnlock()
	builder, ok := providerRegistry[strings.ToLower(strings.TrimSpace(typeName))]
	return builder, ok
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads market configuration from the default project location and panics on error.
func MustLoad() *Config {
	path := confkit.MustProjectPath("etc/market.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read market config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal market config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	if c.Routes == nil {
		c.Routes = make(map[string]string)
	}
	for name, provider := range c.Providers {
		if provider == nil {
			provider = &ProviderConfig{}
			c.Providers[name] = provider
		}
		provider.expandEnv()
		if err := provider.parseDurations(name); err != nil {
			return err
		}
	}
	routes := make(map[string]string, len(c.Routes))
	for class, provider := range c.Routes {
		routes[strings.ToLower(strings.TrimSpace(class))] = strings.TrimSpace(os.ExpandEnv(provider))
	}
	c.Routes = routes
	return nil
}

func (p *ProviderConfig) expandEnv() {
	p.Type = strings.TrimSpace(os.ExpandEnv(p.Type))
	p.BaseURL = strings.TrimSpace(os.ExpandEnv(p.BaseURL))
	p.APIKey = strings.TrimSpace(os.ExpandEnv(p.APIKey))
	p.HTTPTimeoutRaw = strings.TrimSpace(os.ExpandEnv(p.HTTPTimeoutRaw))
}

func (p *ProviderConfig) parseDurations(name string) error {
	if p.HTTPTimeoutRaw != "" {
		d, err := time.ParseDuration(p.HTTPTimeoutRaw)
		if err != nil {
			return fmt.Errorf("market provider %s: invalid http_timeout %q: %w", name, p.HTTPTimeoutRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("market provider %s: http_timeout must be positive, got %s", name, d)
		}
		p.HTTPTimeout = d
	}
	return nil
}

// Validate ensures the configuration is structurally sound and that every
// asset class is routed to a defined provider.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("market config: providers cannot be empty")
	}
	for name, provider := range c.Providers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("market config: provider name cannot be empty")
		}
		if err := provider.validate(name); err != nil {
			return err
		}
	}
	for rawClass, name := range c.Routes {
		if _, err := ParseAssetClass(rawClass); err != nil {
			return fmt.Errorf("market config: route %q: %w", rawClass, err)
		}
		if _, ok := c.Providers[name]; !ok {
			return fmt.Errorf("market config: route %s references undefined provider %q", rawClass, name)
		}
	}
	var missing []string
	for _, class := range AssetClasses {
		if _, ok := c.routeFor(class); !ok {
			missing = append(missing, string(class))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("market config: %w: %s", ErrUnroutedClass, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) routeFor(class AssetClass) (string, bool) {
	for rawClass, name := range c.Routes {
		parsed, err := ParseAssetClass(rawClass)
		if err == nil && parsed == class {
			return name, true
		}
	}
	return "", false
}

func (p *ProviderConfig) validate(name string) error {
	if p == nil {
		return fmt.Errorf("market config: provider %s is nil", name)
	}
	if strings.TrimSpace(p.Type) == "" {
		return fmt.Errorf("market config: provider %s must specify type", name)
	}
	if _, ok := lookupProviderBuilder(p.Type); !ok {
		return fmt.Errorf("market config: provider %s has unsupported type %q", name, p.Type)
	}
	if p.BatchSize < 0 {
		return fmt.Errorf("market config: provider %s batch_size must not be negative", name)
	}
	return nil
}

// BuildProviders instantiates adapters according to configuration.
func (c *Config) BuildProviders() (map[string]Adapter, error) {
	result := make(map[string]Adapter, len(c.Providers))
	for name, providerCfg := range c.Providers {
		builder, ok := lookupProviderBuilder(providerCfg.Type)
		if !ok {
			return nil, fmt.Errorf("market provider %s: unsupported type %q", name, providerCfg.Type)
		}
		adapter, err := builder(providerCfg)
		if err != nil {
			return nil, fmt.Errorf("market provider %s: %w", name, err)
		}
		result[name] = adapter
	}
	return result, nil
}

// BuildRouter instantiates the providers and binds them to their asset classes.
func (c *Config) BuildRouter() (*Router, map[string]Adapter, error) {
	adapters, err := c.BuildProviders()
	if err != nil {
		return nil, nil, err
	}
	routes := make(map[AssetClass]Adapter, len(AssetClasses))
	for _, class := range AssetClasses {
		name, ok := c.routeFor(class)
		if !ok {
			continue
		}
		routes[class] = adapters[name]
	}
	router, err := NewRouter(routes)
	if err != nil {
		return nil, nil, err
	}
	return router, adapters, nil
}
