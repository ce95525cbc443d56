package sto

import (
	"log/slog"
	"time"

	"github.com/xraph/sto/asset"
	"github.com/xraph/sto/fees"
	"github.com/xraph/sto/id"
	"github.com/xraph/sto/plugin"
	"github.com/xraph/sto/pricing"
	"github.com/xraph/sto/types"
)

// Role names a capability a caller may hold.
type Role string

const (
	// RoleOperator may finalize the offering, push deliveries, and run
	// operational recovery.
	RoleOperator Role = "operator"
)

// Eligibility is the compliance predicate consulted before every purchase.
// The engine never interprets why a participant is or is not eligible.
type Eligibility interface {
	CanParticipate(addr types.Address) bool
}

// EligibilityFunc adapts a plain function to the Eligibility interface.
type EligibilityFunc func(addr types.Address) bool

func (f EligibilityFunc) CanParticipate(addr types.Address) bool { return f(addr) }

// CapabilityResolver answers whether a caller holds a role.
type CapabilityResolver interface {
	HasCapability(addr types.Address, role Role) bool
}

// StaticCapabilities is a fixed address-to-roles capability table.
type StaticCapabilities map[types.Address][]Role

func (s StaticCapabilities) HasCapability(addr types.Address, role Role) bool {
	for _, r := range s[addr] {
		if r == role {
			return true
		}
	}
	return false
}

// denyAll is the default capability resolver: no external caller holds any
// role until the host installs a resolver via WithCapabilities.
type denyAll struct{}

func (denyAll) HasCapability(types.Address, Role) bool { return false }

// allowAll is the default eligibility predicate.
type allowAll struct{}

func (allowAll) CanParticipate(types.Address) bool { return true }

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithClock replaces the time source. Used by tests to steer the purchase
// window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPricing replaces the default fixed-rate strategy derived from the
// offering terms.
func WithPricing(s pricing.Strategy) Option {
	return func(e *Engine) {
		e.pricing = s
	}
}

// WithFees installs an optional fee schedule. Nil disables fees.
func WithFees(s fees.Schedule) Option {
	return func(e *Engine) {
		e.fees = s
	}
}

// WithEligibility installs the compliance predicate. Defaults to allow-all.
func WithEligibility(el Eligibility) Option {
	return func(e *Engine) {
		e.eligibility = el
	}
}

// WithCapabilities installs the capability resolver. Defaults to deny-all:
// without a resolver no external caller can finalize or run recovery.
func WithCapabilities(c CapabilityResolver) Option {
	return func(e *Engine) {
		e.capabilities = c
	}
}

// WithAssets wires the investment-asset mover and the security-asset issuer.
// Required before the engine can settle anything.
func WithAssets(mover asset.Mover, issuer asset.Issuer) Option {
	return func(e *Engine) {
		e.mover = mover
		e.issuer = issuer
	}
}

// WithOfferingID pins the offering identity, typically to resume a persisted
// offering. Defaults to a fresh TypeID.
func WithOfferingID(offeringID id.OfferingID) Option {
	return func(e *Engine) {
		e.offeringID = offeringID
	}
}
