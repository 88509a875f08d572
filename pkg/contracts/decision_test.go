package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBlockedReason(t *testing.T) {
	d := &ComplianceDecision{
		Violations: []Violation{
			{Code: "A", Severity: SeverityInfo, Message: "informational"},
			{Code: "B", Severity: SeverityCritical, Message: "first block"},
			{Code: "C", Severity: SeverityWarning, Message: "warning"},
			{Code: "D", Severity: SeverityCritical, Message: "second block"},
		},
	}
	require.Equal(t, "first block; second block", d.BlockedReason())

	passed := &ComplianceDecision{
		Violations: []Violation{
			{Code: "A", Severity: SeverityViolation, Message: "reported"},
		},
	}
	require.Empty(t, passed.BlockedReason())
}

func TestDecisionHash(t *testing.T) {
	ts := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	build := func() *ComplianceDecision {
		return &ComplianceDecision{
			Passed:            false,
			Violations:        []Violation{{Code: ViolationFAREBrokerFeeProhibited, Severity: SeverityCritical, Message: "m"}},
			PolicyVersion:     "1.0.0",
			MarketPack:        "NYC_STRICT",
			MarketPackVersion: "2.3.0",
			CheckedAt:         ts,
			ChecksPerformed:   []CheckToken{CheckFAREAct},
		}
	}

	h1, err := build().Hash()
	require.NoError(t, err)
	require.Len(t, h1, 64)

	h2, err := build().Hash()
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	changed := build()
	changed.PolicyVersion = "1.0.1"
	h3, err := changed.Hash()
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)
}

func TestSeverityOrdering(t *testing.T) {
	require.True(t, SeverityCritical.Worse(SeverityViolation))
	require.True(t, SeverityViolation.Worse(SeverityWarning))
	require.True(t, SeverityWarning.Worse(SeverityInfo))
	require.False(t, SeverityInfo.Worse(SeverityCritical))
	require.False(t, SeverityCritical.Worse(SeverityCritical))
}

func TestWorstSeverity(t *testing.T) {
	require.Equal(t, SeverityInfo, WorstSeverity(nil))
	require.Equal(t, SeverityViolation, WorstSeverity([]Violation{
		{Severity: SeverityInfo},
		{Severity: SeverityViolation},
		{Severity: SeverityWarning},
	}))
	require.Equal(t, SeverityCritical, WorstSeverity([]Violation{
		{Severity: SeverityCritical},
	}))
}

func TestHasCritical(t *testing.T) {
	require.False(t, HasCritical(nil))
	require.False(t, HasCritical([]Violation{{Severity: SeverityViolation}}))
	require.True(t, HasCritical([]Violation{{Severity: SeverityInfo}, {Severity: SeverityCritical}}))
}

func TestViolationCodesAreUnique(t *testing.T) {
	seen := make(map[ViolationCode]bool)
	for _, code := range AllViolationCodes() {
		require.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
	require.Len(t, seen, 30)
}

func TestInvalidInputf(t *testing.T) {
	err := InvalidInputf("field %q missing", "market")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Contains(t, err.Error(), `field "market" missing`)
}
