package marketpack

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
)

// registry holds the in-code default packs. It is built once at init and
// never mutated afterwards.
var registry = map[ID]*MarketPack{
	NYCStrict:     nycStrict(),
	CAStandard:    caStandard(),
	TXStandard:    txStandard(),
	UKGDPR:        ukGDPR(),
	EUGDPR:        euGDPR(),
	LATAMStandard: latamStandard(),
	USStandard:    usStandard(),
}

// Get returns the default pack for id.
// The returned value is shared; callers must not mutate it.
func Get(id ID) (*MarketPack, error) {
	pack, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contracts.ErrUnknownMarketPack, id)
	}
	return pack, nil
}

// All returns every registered pack id in no particular order.
func All() []ID {
	ids := make([]ID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}

// marketAliases maps normalized market identifiers to pack ids.
var marketAliases = map[string]ID{
	// New York City and boroughs
	"nyc": NYCStrict, "new_york": NYCStrict, "new_york_city": NYCStrict,
	"manhattan": NYCStrict, "brooklyn": NYCStrict, "queens": NYCStrict,
	"bronx": NYCStrict, "the_bronx": NYCStrict, "staten_island": NYCStrict,

	// California
	"california": CAStandard, "los_angeles": CAStandard, "san_francisco": CAStandard,
	"san_diego": CAStandard, "san_jose": CAStandard, "oakland": CAStandard,
	"sacramento": CAStandard, "long_beach": CAStandard, "fresno": CAStandard,

	// Texas
	"texas": TXStandard, "houston": TXStandard, "dallas": TXStandard,
	"austin": TXStandard, "san_antonio": TXStandard, "fort_worth": TXStandard,
	"el_paso": TXStandard,

	// United Kingdom
	"uk": UKGDPR, "united_kingdom": UKGDPR, "london": UKGDPR,
	"england": UKGDPR, "scotland": UKGDPR, "wales": UKGDPR,
	"manchester": UKGDPR, "birmingham": UKGDPR,

	// European Union
	"eu": EUGDPR, "germany": EUGDPR, "france": EUGDPR, "spain": EUGDPR,
	"italy": EUGDPR, "netherlands": EUGDPR, "ireland": EUGDPR,
	"portugal": EUGDPR, "berlin": EUGDPR, "paris": EUGDPR,
	"madrid": EUGDPR, "amsterdam": EUGDPR, "dublin": EUGDPR,

	// Latin America
	"mexico": LATAMStandard, "mexico_city": LATAMStandard,
	"brazil": LATAMStandard, "sao_paulo": LATAMStandard,
	"argentina": LATAMStandard, "buenos_aires": LATAMStandard,
	"colombia": LATAMStandard, "bogota": LATAMStandard,
	"chile": LATAMStandard, "santiago": LATAMStandard,
}

// IDFromMarket normalizes a free-form market identifier and resolves it to a
// pack id. Unknown markets fall back to US_STANDARD; callers that care about
// unexpected jurisdictions should compare against the input (see
// engine.ResolveEffectivePack which emits a fallback telemetry event).
func IDFromMarket(marketID string) ID {
	id, _ := LookupMarket(marketID)
	return id
}

// LookupMarket resolves a market identifier and additionally reports whether
// it matched the alias table. A false second return means the US_STANDARD
// fallback was applied.
func LookupMarket(marketID string) (ID, bool) {
	key := NormalizeMarket(marketID)
	if id, ok := marketAliases[key]; ok {
		return id, true
	}
	return USStandard, false
}

// NormalizeMarket lowercases the input, strips diacritics (NFKD), and
// replaces every non-letter run with a single underscore, so that
// "São Paulo", "sao-paulo", and "SAO PAULO" all normalize identically.
func NormalizeMarket(marketID string) string {
	decomposed := norm.NFKD.String(strings.ToLower(marketID))

	var b strings.Builder
	lastUnderscore := true // trim leading separators
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark from decomposition, drop
		case unicode.IsLetter(r):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nycStrict() *MarketPack {
	return &MarketPack{
		ID:            NYCStrict,
		Name:          "New York City (strict)",
		Version:       "2.3.0",
		EffectiveDate: date(2025, time.June, 11),
		Jurisdiction:  "US-NY-NYC",
		Rules: Rules{
			BrokerFee: &BrokerFeeRule{
				Enabled:       true,
				PaidBy:        FeePaidByLandlord,
				MaxMultiplier: 1.0,
				Exemptions:    []string{"tenant_engaged_broker"},
			},
			SecurityDeposit: &SecurityDepositRule{
				Enabled:                 true,
				MaxMonths:               1,
				InterestRequired:        true,
				SeparateAccountRequired: true,
				ReturnDays:              14,
			},
			RentIncrease: &RentIncreaseRule{
				Enabled:           true,
				CPIPlusPercentage: 5.0,
				NoticeRequired:    true,
				NoticeDays:        90,
				GoodCauseRequired: true,
			},
			Disclosures: []DisclosureRequirement{
				{Type: "fare_act_disclosure", RequiredBefore: PhaseListingPublish, SignatureRequired: false},
				{Type: "tenant_rights_notice", RequiredBefore: PhaseApplication, SignatureRequired: false},
				{Type: "lead_paint_disclosure", RequiredBefore: PhaseLeaseSigning, SignatureRequired: true},
				{Type: "bedbug_disclosure", RequiredBefore: PhaseLeaseSigning, SignatureRequired: true, ExpirationDays: 365},
				{Type: "window_guard_notice", RequiredBefore: PhaseMoveIn, SignatureRequired: true},
			},
			FareAct: &FareActRule{
				Enabled:                 true,
				FeeDisclosureRequired:   true,
				MaxIncomeMultiplier:     40.0,
				MaxCreditScoreThreshold: 650,
			},
			FCHA: &FCHARule{
				Enabled:  true,
				Workflow: &FCHAWorkflowRule{MitigatingFactorsResponseDays: 10},
			},
			GoodCause: &GoodCauseRule{
				Enabled:                true,
				MaxRentIncreaseOverCPI: 5.0,
				ValidEvictionReasons: []string{
					"nonpayment", "lease_violation", "nuisance",
					"illegal_use", "owner_occupancy", "demolition",
				},
			},
			RentStabilization: &RentStabilizationRule{
				Enabled:              true,
				RegistrationRequired: true,
			},
		},
	}
}

func caStandard() *MarketPack {
	return &MarketPack{
		ID:            CAStandard,
		Name:          "California (standard)",
		Version:       "1.8.0",
		EffectiveDate: date(2024, time.July, 1),
		Jurisdiction:  "US-CA",
		Rules: Rules{
			BrokerFee: &BrokerFeeRule{
				Enabled:       true,
				PaidBy:        FeePaidByEither,
				MaxMultiplier: 1.0,
			},
			SecurityDeposit: &SecurityDepositRule{
				Enabled:    true,
				MaxMonths:  1, // AB 12
				ReturnDays: 21,
			},
			RentIncrease: &RentIncreaseRule{
				Enabled:           true,
				CPIPlusPercentage: 5.0,
				MaxPercentage:     10.0,
				NoticeRequired:    true,
				NoticeDays:        30,
				GoodCauseRequired: true,
			},
			Disclosures: []DisclosureRequirement{
				{Type: "lead_paint_disclosure", RequiredBefore: PhaseLeaseSigning, SignatureRequired: true},
				{Type: "megan_law_notice", RequiredBefore: PhaseLeaseSigning, SignatureRequired: false},
				{Type: "mold_disclosure", RequiredBefore: PhaseLeaseSigning, SignatureRequired: false},
			},
			GoodCause: &GoodCauseRule{
				Enabled:                true,
				MaxRentIncreaseOverCPI: 5.0,
				ValidEvictionReasons: []string{
					"nonpayment", "lease_violation", "nuisance",
					"owner_occupancy", "substantial_remodel", "withdrawal_from_market",
				},
			},
			AB1482: &AB1482Rule{
				Enabled:                   true,
				CPIPlusPercentage:         5.0,
				MaxPercentage:             10.0,
				JustCauseEvictionRequired: true,
			},
		},
	}
}

func txStandard() *MarketPack {
	return &MarketPack{
		ID:            TXStandard,
		Name:          "Texas (standard)",
		Version:       "1.4.0",
		EffectiveDate: date(2023, time.September, 1),
		Jurisdiction:  "US-TX",
		Rules: Rules{
			BrokerFee: &BrokerFeeRule{
				Enabled: true,
				PaidBy:  FeePaidByEither,
			},
			SecurityDeposit: &SecurityDepositRule{
				Enabled:    true,
				MaxMonths:  0, // no statutory cap
				ReturnDays: 30,
			},
			RentIncrease: &RentIncreaseRule{
				Enabled:        true,
				NoticeRequired: true,
				NoticeDays:     30,
			},
			Disclosures: []DisclosureRequirement{
				{Type: "lead_paint_disclosure", RequiredBefore: PhaseLeaseSigning, SignatureRequired: true},
			},
			TexasPropertyCode: &TexasPropertyCodeRule{
				Enabled:                   true,
				DepositReturnDays:         30,
				ItemizedDeductionRequired: true,
			},
		},
	}
}

func ukGDPR() *MarketPack {
	return &MarketPack{
		ID:            UKGDPR,
		Name:          "United Kingdom",
		Version:       "1.6.0",
		EffectiveDate: date(2019, time.June, 1),
		Jurisdiction:  "GB",
		Rules: Rules{
			BrokerFee: &BrokerFeeRule{
				// Tenant Fees Act 2019 bans letting fees outright.
				Enabled: true,
				PaidBy:  FeePayerProhibited,
			},
			SecurityDeposit: &SecurityDepositRule{
				Enabled:    true,
				MaxMonths:  1.25, // five weeks' rent
				ReturnDays: 10,
			},
			RentIncrease: &RentIncreaseRule{
				Enabled:        true,
				NoticeRequired: true,
				NoticeDays:     30,
			},
			Disclosures: []DisclosureRequirement{
				{Type: "how_to_rent_guide", RequiredBefore: PhaseLeaseSigning, SignatureRequired: false},
				{Type: "gas_safety_certificate", RequiredBefore: PhaseMoveIn, SignatureRequired: false, ExpirationDays: 365},
				{Type: "epc_certificate", RequiredBefore: PhaseListingPublish, SignatureRequired: false},
			},
			GDPR: &GDPRRule{
				Enabled:                true,
				ConsentRequired:        true,
				RetentionDays:          730,
				DataSubjectRequestDays: 30,
				SensitiveFields:        []string{"national_insurance_number", "passport_number", "bank_account"},
			},
		},
	}
}

func euGDPR() *MarketPack {
	return &MarketPack{
		ID:            EUGDPR,
		Name:          "European Union",
		Version:       "1.5.0",
		EffectiveDate: date(2018, time.May, 25),
		Jurisdiction:  "EU",
		Rules: Rules{
			BrokerFee: &BrokerFeeRule{
				Enabled:       true,
				PaidBy:        FeePaidByLandlord,
				MaxMultiplier: 2.0,
			},
			SecurityDeposit: &SecurityDepositRule{
				Enabled:    true,
				MaxMonths:  3,
				ReturnDays: 30,
			},
			RentIncrease: &RentIncreaseRule{
				Enabled:        true,
				NoticeRequired: true,
				NoticeDays:     90,
			},
			Disclosures: []DisclosureRequirement{
				{Type: "energy_performance_certificate", RequiredBefore: PhaseListingPublish, SignatureRequired: false},
			},
			GDPR: &GDPRRule{
				Enabled:                true,
				ConsentRequired:        true,
				RetentionDays:          730,
				DataSubjectRequestDays: 30,
				SensitiveFields:        []string{"national_id", "passport_number", "bank_account", "health_data"},
			},
		},
	}
}

func latamStandard() *MarketPack {
	return &MarketPack{
		ID:            LATAMStandard,
		Name:          "Latin America (standard)",
		Version:       "1.2.0",
		EffectiveDate: date(2022, time.January, 1),
		Jurisdiction:  "LATAM",
		Rules: Rules{
			BrokerFee: &BrokerFeeRule{
				Enabled:       true,
				PaidBy:        FeePaidByEither,
				MaxMultiplier: 1.0,
			},
			SecurityDeposit: &SecurityDepositRule{
				Enabled:    true,
				MaxMonths:  1,
				ReturnDays: 30,
			},
			RentIncrease: &RentIncreaseRule{
				Enabled:        true,
				NoticeRequired: true,
				NoticeDays:     30,
			},
			Disclosures: []DisclosureRequirement{
				{Type: "rental_contract_registration", RequiredBefore: PhaseLeaseSigning, SignatureRequired: true},
			},
		},
	}
}

func usStandard() *MarketPack {
	return &MarketPack{
		ID:            USStandard,
		Name:          "United States (baseline)",
		Version:       "1.1.0",
		EffectiveDate: date(2022, time.January, 1),
		Jurisdiction:  "US",
		Rules: Rules{
			BrokerFee: &BrokerFeeRule{
				Enabled: true,
				PaidBy:  FeePaidByEither,
			},
			SecurityDeposit: &SecurityDepositRule{
				Enabled:    true,
				MaxMonths:  2,
				ReturnDays: 30,
			},
			RentIncrease: &RentIncreaseRule{
				Enabled:        true,
				NoticeRequired: true,
				NoticeDays:     30,
			},
			Disclosures: []DisclosureRequirement{
				{Type: "lead_paint_disclosure", RequiredBefore: PhaseLeaseSigning, SignatureRequired: true},
			},
		},
	}
}
