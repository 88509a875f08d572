package marketpack

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
)

func TestNormalizeMarket(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"NYC", "nyc"},
		{"New York City", "new_york_city"},
		{"new-york-city", "new_york_city"},
		{"São Paulo", "sao_paulo"},
		{"SAO PAULO", "sao_paulo"},
		{"  Brooklyn  ", "brooklyn"},
		{"los__angeles", "los_angeles"},
		{"El Paso, TX", "el_paso_tx"},
		{"", ""},
		{"123", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, NormalizeMarket(tc.in), "input %q", tc.in)
	}
}

func TestLookupMarket(t *testing.T) {
	id, matched := LookupMarket("Brooklyn")
	require.True(t, matched)
	require.Equal(t, NYCStrict, id)

	id, matched = LookupMarket("texas")
	require.True(t, matched)
	require.Equal(t, TXStandard, id)

	id, matched = LookupMarket("London")
	require.True(t, matched)
	require.Equal(t, UKGDPR, id)

	id, matched = LookupMarket("atlantis")
	require.False(t, matched)
	require.Equal(t, USStandard, id)

	require.Equal(t, USStandard, IDFromMarket("nowhere"))
	require.Equal(t, NYCStrict, IDFromMarket("Manhattan"))
}

func TestLookupMarket_AlwaysResolves(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("every input resolves to a registered pack", prop.ForAll(
		func(market string) bool {
			id, _ := LookupMarket(market)
			_, err := Get(id)
			return err == nil
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestGet_UnknownPack(t *testing.T) {
	_, err := Get(ID("MARS_COLONY"))
	require.ErrorIs(t, err, contracts.ErrUnknownMarketPack)
}

func TestRegistryPacksAreWellFormed(t *testing.T) {
	for _, id := range All() {
		pack, err := Get(id)
		require.NoError(t, err)
		require.Equal(t, id, pack.ID)

		_, err = pack.SemVer()
		require.NoError(t, err, "pack %s version %q", id, pack.Version)

		// The mandatory rule groups are present on every pack.
		require.NotNil(t, pack.Rules.BrokerFee, "pack %s", id)
		require.NotNil(t, pack.Rules.SecurityDeposit, "pack %s", id)
		require.NotNil(t, pack.Rules.RentIncrease, "pack %s", id)
		require.NotEmpty(t, pack.Rules.Disclosures, "pack %s", id)
		require.False(t, pack.MergedFromDB, "pack %s", id)
	}
}

func TestDisclosuresForPhase(t *testing.T) {
	pack, err := Get(NYCStrict)
	require.NoError(t, err)

	signing := pack.DisclosuresForPhase(PhaseLeaseSigning)
	require.Len(t, signing, 2)
	// Declaration order is preserved.
	require.Equal(t, "lead_paint_disclosure", signing[0].Type)
	require.Equal(t, "bedbug_disclosure", signing[1].Type)

	require.Empty(t, pack.DisclosuresForPhase(Phase("unknown_phase")))
}
