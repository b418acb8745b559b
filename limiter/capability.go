package limiter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Capability describes one provider's published request budgets.
type Capability struct {
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	TokensPerMinute   int  `yaml:"tokens_per_minute"`
	Local             bool `yaml:"local"`
}

// DefaultProviderKey is the capability table row applied to providers with
// no entry of their own. Unknown providers get conservative generic limits
// rather than being rejected.
const DefaultProviderKey = "default"

// defaultCapabilities seeds the table with the published tiers of the hosted
// vendors plus zero-cost rows for local runtimes.
func defaultCapabilities() map[string]Capability {
	return map[string]Capability{
		"anthropic":        {RequestsPerMinute: 50, TokensPerMinute: 40_000},
		"openai":           {RequestsPerMinute: 60, TokensPerMinute: 90_000},
		"ollama":           {Local: true},
		"lmstudio":         {Local: true},
		DefaultProviderKey: {RequestsPerMinute: 30, TokensPerMinute: 30_000},
	}
}

// capabilityFile is the YAML shape accepted by LoadCapabilities.
type capabilityFile struct {
	Providers map[string]Capability `yaml:"providers"`
}

// LoadCapabilities reads a YAML file of per-provider budget overrides and
// merges it over the built-in table. Example:
//
//	providers:
//	  anthropic:
//	    requests_per_minute: 100
//	    tokens_per_minute: 80000
//	  my-proxy:
//	    local: true
func LoadCapabilities(path string) (map[string]Capability, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capabilities: %w", err)
	}
	var file capabilityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse capabilities: %w", err)
	}

	caps := defaultCapabilities()
	for name, c := range file.Providers {
		caps[name] = c
	}
	return caps, nil
}
