package marketpack

import (
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// MergeWithConfig deep-merges a database-supplied configuration over a pack's
// in-code defaults and returns a new pack flagged MergedFromDB. Keys from the
// config win on conflict; maps merge recursively, everything else (including
// slices) is replaced wholesale.
//
// A nil config returns the original pack unchanged. The input pack is never
// mutated.
func MergeWithConfig(pack *MarketPack, cfg map[string]any) (*MarketPack, error) {
	if pack == nil {
		return nil, fmt.Errorf("merge: pack is nil")
	}
	if cfg == nil {
		return pack, nil
	}

	if v, ok := cfg["version"].(string); ok {
		if _, err := semver.NewVersion(v); err != nil {
			return nil, fmt.Errorf("merge: override version %q is not semver: %w", v, err)
		}
	}

	raw, err := json.Marshal(pack)
	if err != nil {
		return nil, fmt.Errorf("merge: marshal pack: %w", err)
	}
	var base map[string]any
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, fmt.Errorf("merge: unmarshal pack: %w", err)
	}

	merged := deepMerge(base, cfg)
	merged["_mergedFromDb"] = true

	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("merge: marshal merged: %w", err)
	}
	result := &MarketPack{}
	if err := json.Unmarshal(out, result); err != nil {
		return nil, fmt.Errorf("merge: config does not fit pack schema: %w", err)
	}
	result.MergedFromDB = true
	return result, nil
}

// deepMerge merges src over dst recursively. dst is not modified.
func deepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst))
	for k, v := range dst {
		out[k] = v
	}
	for k, sv := range src {
		if dv, ok := out[k]; ok {
			dm, dok := dv.(map[string]any)
			sm, sok := sv.(map[string]any)
			if dok && sok {
				out[k] = deepMerge(dm, sm)
				continue
			}
		}
		out[k] = sv
	}
	return out
}
