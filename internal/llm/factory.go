package llm

import (
	"fmt"

	"clinsynth/internal/config"
	"clinsynth/internal/port"
)

// ProviderFactory is a function that creates a ModelClient from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.ModelClient, error)

// registry of provider factories, populated at startup via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewClient creates a ModelClient from a provider config using the registered factory.
func NewClient(cfg *config.ProviderConfig) (port.ModelClient, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
