// Package marketpack defines the versioned, immutable rule bundles that scope
// compliance rules to a jurisdiction, and the registry that resolves a market
// identifier to its effective pack.
package marketpack

import (
	"time"

	"github.com/Masterminds/semver/v3"
)

// ID is the closed set of market pack identifiers.
type ID string

const (
	NYCStrict     ID = "NYC_STRICT"
	CAStandard    ID = "CA_STANDARD"
	TXStandard    ID = "TX_STANDARD"
	UKGDPR        ID = "UK_GDPR"
	EUGDPR        ID = "EU_GDPR"
	LATAMStandard ID = "LATAM_STANDARD"
	USStandard    ID = "US_STANDARD"
)

// FeePayer identifies who may be charged a broker fee.
type FeePayer string

const (
	FeePaidByTenant    FeePayer = "tenant"
	FeePaidByLandlord  FeePayer = "landlord"
	FeePaidByEither    FeePayer = "either"
	FeePayerProhibited FeePayer = "prohibited"
)

// Phase is the point in the rental lifecycle a disclosure is due.
type Phase string

const (
	PhaseListingPublish Phase = "listing_publish"
	PhaseApplication    Phase = "application"
	PhaseLeaseSigning   Phase = "lease_signing"
	PhaseMoveIn         Phase = "move_in"
)

// BrokerFeeRule caps broker fees and constrains who pays them.
type BrokerFeeRule struct {
	Enabled       bool     `json:"enabled"`
	PaidBy        FeePayer `json:"paidBy"`
	MaxMultiplier float64  `json:"maxMultiplier"` // of monthly rent; 0 = uncapped
	Exemptions    []string `json:"exemptions,omitempty"`
}

// SecurityDepositRule caps deposits and return handling.
type SecurityDepositRule struct {
	Enabled                 bool    `json:"enabled"`
	MaxMonths               float64 `json:"maxMonths"` // 0 = uncapped
	InterestRequired        bool    `json:"interestRequired"`
	SeparateAccountRequired bool    `json:"separateAccountRequired"`
	ReturnDays              int     `json:"returnDays"`
}

// RentIncreaseRule constrains rent increases.
type RentIncreaseRule struct {
	Enabled           bool    `json:"enabled"`
	CPIPlusPercentage float64 `json:"cpiPlusPercentage"`
	MaxPercentage     float64 `json:"maxPercentage"` // hard ceiling; 0 = none
	NoticeRequired    bool    `json:"noticeRequired"`
	NoticeDays        int     `json:"noticeDays"`
	GoodCauseRequired bool    `json:"goodCauseRequired"`
}

// DisclosureRequirement is one document the landlord must deliver.
type DisclosureRequirement struct {
	Type              string `json:"type"`
	RequiredBefore    Phase  `json:"requiredBefore"`
	SignatureRequired bool   `json:"signatureRequired"`
	ExpirationDays    int    `json:"expirationDays,omitempty"`
}

// FareActRule encodes the NYC FARE Act.
type FareActRule struct {
	Enabled                 bool    `json:"enabled"`
	FeeDisclosureRequired   bool    `json:"feeDisclosureRequired"`
	MaxIncomeMultiplier     float64 `json:"maxIncomeMultiplier"`
	MaxCreditScoreThreshold int     `json:"maxCreditScoreThreshold"`
}

// FCHAWorkflowRule tunes the Fair Chance workflow.
type FCHAWorkflowRule struct {
	MitigatingFactorsResponseDays int `json:"mitigatingFactorsResponseDays"`
}

// FCHARule encodes the NYC Fair Chance Housing Act.
type FCHARule struct {
	Enabled  bool              `json:"enabled"`
	Workflow *FCHAWorkflowRule `json:"workflow,omitempty"`
}

// GoodCauseRule encodes good-cause eviction / rent-increase limits.
type GoodCauseRule struct {
	Enabled                bool     `json:"enabled"`
	MaxRentIncreaseOverCPI float64  `json:"maxRentIncreaseOverCPI"`
	ValidEvictionReasons   []string `json:"validEvictionReasons,omitempty"`
}

// RentStabilizationRule encodes the NYC rent stabilization regime.
type RentStabilizationRule struct {
	Enabled              bool `json:"enabled"`
	RegistrationRequired bool `json:"registrationRequired"`
}

// GDPRRule governs personal-data processing in GDPR markets.
type GDPRRule struct {
	Enabled                bool     `json:"enabled"`
	ConsentRequired        bool     `json:"consentRequired"`
	RetentionDays          int      `json:"retentionDays"`
	DataSubjectRequestDays int      `json:"dataSubjectRequestDays"`
	SensitiveFields        []string `json:"sensitiveFields,omitempty"`
}

// AB1482Rule encodes the California Tenant Protection Act.
type AB1482Rule struct {
	Enabled                   bool    `json:"enabled"`
	CPIPlusPercentage         float64 `json:"cpiPlusPercentage"`
	MaxPercentage             float64 `json:"maxPercentage"`
	JustCauseEvictionRequired bool    `json:"justCauseEvictionRequired"`
}

// TexasPropertyCodeRule encodes Texas Property Code Chapter 92 handling.
type TexasPropertyCodeRule struct {
	Enabled                   bool `json:"enabled"`
	DepositReturnDays         int  `json:"depositReturnDays"`
	ItemizedDeductionRequired bool `json:"itemizedDeductionRequired"`
}

// Rules is the rule record of a pack. BrokerFee, SecurityDeposit,
// RentIncrease, and Disclosures are mandatory on every pack; the rest are
// jurisdiction-specific.
type Rules struct {
	BrokerFee         *BrokerFeeRule          `json:"brokerFee"`
	SecurityDeposit   *SecurityDepositRule    `json:"securityDeposit"`
	RentIncrease      *RentIncreaseRule       `json:"rentIncrease"`
	Disclosures       []DisclosureRequirement `json:"disclosures"`
	FareAct           *FareActRule            `json:"fareAct,omitempty"`
	FCHA              *FCHARule               `json:"fcha,omitempty"`
	GoodCause         *GoodCauseRule          `json:"goodCause,omitempty"`
	RentStabilization *RentStabilizationRule  `json:"rentStabilization,omitempty"`
	GDPR              *GDPRRule               `json:"gdpr,omitempty"`
	AB1482            *AB1482Rule             `json:"ab1482,omitempty"`
	TexasPropertyCode *TexasPropertyCodeRule  `json:"texasPropertyCode,omitempty"`
}

// MarketPack is a versioned, immutable rule bundle for one jurisdiction.
// Packs in the registry are created at startup and never mutated; merges
// produce new values.
type MarketPack struct {
	ID            ID        `json:"id"`
	Name          string    `json:"name"`
	Version       string    `json:"version"` // semver major.minor.patch
	EffectiveDate time.Time `json:"effectiveDate"`
	Jurisdiction  string    `json:"jurisdiction"`
	Rules         Rules     `json:"rules"`
	MergedFromDB  bool      `json:"_mergedFromDb,omitempty"`
}

// SemVer parses the pack version.
func (p *MarketPack) SemVer() (*semver.Version, error) {
	return semver.NewVersion(p.Version)
}

// DisclosuresForPhase returns the disclosure requirements due at phase,
// preserving declaration order.
func (p *MarketPack) DisclosuresForPhase(phase Phase) []DisclosureRequirement {
	var out []DisclosureRequirement
	for _, d := range p.Rules.Disclosures {
		if d.RequiredBefore == phase {
			out = append(out, d)
		}
	}
	return out
}
