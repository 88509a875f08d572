package marketpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeWithConfig_NilConfigReturnsOriginal(t *testing.T) {
	pack, err := Get(NYCStrict)
	require.NoError(t, err)

	merged, err := MergeWithConfig(pack, nil)
	require.NoError(t, err)
	require.Same(t, pack, merged)
	require.False(t, merged.MergedFromDB)
}

func TestMergeWithConfig_NilPack(t *testing.T) {
	_, err := MergeWithConfig(nil, map[string]any{})
	require.Error(t, err)
}

func TestMergeWithConfig_InvalidVersionRejected(t *testing.T) {
	pack, err := Get(NYCStrict)
	require.NoError(t, err)

	_, err = MergeWithConfig(pack, map[string]any{"version": "not-semver"})
	require.Error(t, err)
}

func TestMergeWithConfig_DeepMerge(t *testing.T) {
	pack, err := Get(NYCStrict)
	require.NoError(t, err)

	merged, err := MergeWithConfig(pack, map[string]any{
		"version": "2.4.0",
		"rules": map[string]any{
			"securityDeposit": map[string]any{
				"maxMonths": 2.0,
			},
		},
	})
	require.NoError(t, err)

	require.True(t, merged.MergedFromDB)
	require.Equal(t, "2.4.0", merged.Version)
	require.InDelta(t, 2.0, merged.Rules.SecurityDeposit.MaxMonths, 0.001)

	// Sibling keys of the overridden map survive.
	require.True(t, merged.Rules.SecurityDeposit.InterestRequired)
	require.Equal(t, 14, merged.Rules.SecurityDeposit.ReturnDays)

	// Untouched rule groups carry over.
	require.NotNil(t, merged.Rules.FareAct)
	require.True(t, merged.Rules.FareAct.Enabled)

	// The registry pack is never mutated.
	require.Equal(t, "2.3.0", pack.Version)
	require.InDelta(t, 1.0, pack.Rules.SecurityDeposit.MaxMonths, 0.001)
	require.False(t, pack.MergedFromDB)
}

func TestMergeWithConfig_SlicesReplaceWholesale(t *testing.T) {
	pack, err := Get(NYCStrict)
	require.NoError(t, err)

	merged, err := MergeWithConfig(pack, map[string]any{
		"rules": map[string]any{
			"disclosures": []any{
				map[string]any{
					"type":           "custom_notice",
					"requiredBefore": "listing_publish",
				},
			},
		},
	})
	require.NoError(t, err)

	require.Len(t, merged.Rules.Disclosures, 1)
	require.Equal(t, "custom_notice", merged.Rules.Disclosures[0].Type)
	require.Len(t, pack.Rules.Disclosures, 5)
}

func TestMergeWithConfig_MalformedConfigRejected(t *testing.T) {
	pack, err := Get(TXStandard)
	require.NoError(t, err)

	_, err = MergeWithConfig(pack, map[string]any{
		"rules": map[string]any{
			"securityDeposit": map[string]any{
				"maxMonths": "three", // wrong type
			},
		},
	})
	require.Error(t, err)
}
