package extension

import (
	"time"

	"github.com/xraph/sto/offering"
	"github.com/xraph/sto/types"
)

// Config holds the STO extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.sto" or "sto" keys).
type Config struct {
	// DisableMigrate prevents auto-migration and state restore on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Terms describes the offering. When present, the engine is configured
	// at registration time; when absent, the engine starts unconfigured and
	// an operator calls Configure at runtime.
	Terms *TermsConfig `json:"terms" mapstructure:"terms" yaml:"terms"`

	// Operators lists the addresses granted the operator capability
	// (configure, finalize, deliver, release).
	Operators []string `json:"operators" mapstructure:"operators" yaml:"operators"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// TermsConfig is the YAML shape of offering.Terms. Amounts are expressed as
// integer units plus the asset codes declared alongside them.
type TermsConfig struct {
	StartTime time.Time `json:"start_time" mapstructure:"start_time" yaml:"start_time"`
	EndTime   time.Time `json:"end_time" mapstructure:"end_time" yaml:"end_time"`

	InvestmentAsset string `json:"investment_asset" mapstructure:"investment_asset" yaml:"investment_asset"`
	SecurityAsset   string `json:"security_asset" mapstructure:"security_asset" yaml:"security_asset"`

	HardCapUnits       int64 `json:"hard_cap_units" mapstructure:"hard_cap_units" yaml:"hard_cap_units"`
	SoftCapUnits       int64 `json:"soft_cap_units" mapstructure:"soft_cap_units" yaml:"soft_cap_units"`
	PricePerTokenUnits int64 `json:"price_per_token_units" mapstructure:"price_per_token_units" yaml:"price_per_token_units"`
	MinInvestmentUnits int64 `json:"min_investment_units" mapstructure:"min_investment_units" yaml:"min_investment_units"`

	FundsReceiver     string `json:"funds_receiver" mapstructure:"funds_receiver" yaml:"funds_receiver"`
	ControllerAccount string `json:"controller_account" mapstructure:"controller_account" yaml:"controller_account"`
	EscrowAccount     string `json:"escrow_account" mapstructure:"escrow_account" yaml:"escrow_account"`

	AllowBeneficialInvestments bool `json:"allow_beneficial_investments" mapstructure:"allow_beneficial_investments" yaml:"allow_beneficial_investments"`
}

// terms converts the YAML shape into offering.Terms. Validation happens in
// the engine, not here.
func (tc *TermsConfig) terms() offering.Terms {
	return offering.Terms{
		StartTime:                  tc.StartTime,
		EndTime:                    tc.EndTime,
		HardCap:                    types.NewAmount(tc.HardCapUnits, tc.SecurityAsset),
		SoftCap:                    types.NewAmount(tc.SoftCapUnits, tc.SecurityAsset),
		PricePerToken:              types.NewAmount(tc.PricePerTokenUnits, tc.InvestmentAsset),
		MinInvestment:              types.NewAmount(tc.MinInvestmentUnits, tc.InvestmentAsset),
		InvestmentAsset:            tc.InvestmentAsset,
		SecurityAsset:              tc.SecurityAsset,
		FundsReceiver:              types.Addr(tc.FundsReceiver),
		ControllerAccount:          types.Addr(tc.ControllerAccount),
		EscrowAccount:              types.Addr(tc.EscrowAccount),
		AllowBeneficialInvestments: tc.AllowBeneficialInvestments,
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{}
}
