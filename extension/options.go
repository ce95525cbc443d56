package extension

import (
	"github.com/xraph/sto"
	"github.com/xraph/sto/asset"
	"github.com/xraph/sto/offering"
	"github.com/xraph/sto/plugin"
	"github.com/xraph/sto/store"
)

// Option configures the STO Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a sto.Option through to the underlying engine.
func WithEngineOption(opt sto.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithAssets sets the asset collaborators the engine settles against.
// The mover handles the investment asset; the issuer mints the security.
func WithAssets(mover asset.Mover, issuer asset.Issuer) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, sto.WithAssets(mover, issuer))
	}
}

// WithPlugin registers an engine plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, sto.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithTerms sets the offering terms programmatically, overriding YAML.
func WithTerms(terms offering.Terms) Option {
	return func(e *Extension) {
		tc := termsConfig(terms)
		e.config.Terms = &tc
	}
}

// WithOperators grants the operator capability to the given addresses.
func WithOperators(addrs ...string) Option {
	return func(e *Extension) {
		e.config.Operators = append(e.config.Operators, addrs...)
	}
}

// WithDisableMigrate prevents auto-migration and state restore on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// termsConfig converts offering.Terms back to the YAML shape so the
// programmatic and file-based paths merge through the same struct.
func termsConfig(t offering.Terms) TermsConfig {
	return TermsConfig{
		StartTime:                  t.StartTime,
		EndTime:                    t.EndTime,
		InvestmentAsset:            t.InvestmentAsset,
		SecurityAsset:              t.SecurityAsset,
		HardCapUnits:               t.HardCap.Units,
		SoftCapUnits:               t.SoftCap.Units,
		PricePerTokenUnits:         t.PricePerToken.Units,
		MinInvestmentUnits:         t.MinInvestment.Units,
		FundsReceiver:              t.FundsReceiver.String(),
		ControllerAccount:          t.ControllerAccount.String(),
		EscrowAccount:              t.EscrowAccount.String(),
		AllowBeneficialInvestments: t.AllowBeneficialInvestments,
	}
}
