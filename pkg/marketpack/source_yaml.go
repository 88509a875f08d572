package marketpack

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfigSource serves market overrides from a single YAML file keyed by
// normalized market id. Intended for local development and small deployments
// without a config database.
type YAMLConfigSource struct {
	overrides map[string]map[string]any
}

// LoadYAMLConfigSource parses the override file. The file maps market ids to
// partial pack documents, e.g.:
//
//	nyc:
//	  rules:
//	    securityDeposit:
//	      maxMonths: 0.5
func LoadYAMLConfigSource(path string) (*YAMLConfigSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("market overrides: %w", err)
	}

	var parsed map[string]map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("market overrides %s: %w", path, err)
	}

	normalized := make(map[string]map[string]any, len(parsed))
	for market, cfg := range parsed {
		normalized[NormalizeMarket(market)] = normalizeYAML(cfg)
	}
	return &YAMLConfigSource{overrides: normalized}, nil
}

// GetMarketConfig implements ConfigSource.
func (s *YAMLConfigSource) GetMarketConfig(_ context.Context, marketID string) (map[string]any, error) {
	cfg, ok := s.overrides[NormalizeMarket(marketID)]
	if !ok {
		return nil, nil
	}
	return cfg, nil
}

// normalizeYAML converts yaml.v3's map[string]any values (which may contain
// nested map[string]any already, but ints instead of float64) into the JSON
// shape the merge expects.
func normalizeYAML(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case map[string]any:
			out[k] = normalizeYAML(vv)
		case int:
			out[k] = float64(vv)
		case int64:
			out[k] = float64(vv)
		default:
			out[k] = v
		}
	}
	return out
}
