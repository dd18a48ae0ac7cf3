package oracle

import (
	"fmt"
	"log/slog"

	"promptforge/internal/config"
	domainoracle "promptforge/internal/domain/services/oracle"
	anthropicprov "promptforge/internal/service/oracle/anthropic"
	loremprov "promptforge/internal/service/oracle/lorem"
)

// NewDefaultRegistry wires the known providers behind the resilience
// wrapper. The lorem provider needs no credentials, so a keyless setup can
// still exercise every oracle-backed path.
func NewDefaultRegistry(cfg *config.Config, logger *slog.Logger) *Registry {
	resilientCfg := ResilientConfig{
		Timeout:  cfg.OracleTimeout,
		Attempts: uint(cfg.OracleRetries),
	}

	return NewRegistry(func(provider string) (domainoracle.Oracle, error) {
		var inner domainoracle.Oracle
		switch provider {
		case "anthropic":
			p, err := anthropicprov.NewProvider(cfg.AnthropicAPIKey)
			if err != nil {
				return nil, err
			}
			inner = p
		case "lorem":
			inner = loremprov.NewProvider()
		default:
			return nil, fmt.Errorf("unknown oracle provider: %s", provider)
		}
		return NewResilient(inner, resilientCfg, logger), nil
	})
}
