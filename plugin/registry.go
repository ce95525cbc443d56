package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onOfferingConfigured []OnOfferingConfigured
	onOfferingClosed     []OnOfferingClosed
	onOfferingFinalized  []OnOfferingFinalized
	onFundsReleased      []OnFundsReleased
	onDepositRecorded    []OnDepositRecorded
	onCapMilestone       []OnCapMilestone
	onRefundClaimed      []OnRefundClaimed
	onTokensDelivered    []OnTokensDelivered
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnOfferingConfigured); ok {
		r.onOfferingConfigured = append(r.onOfferingConfigured, v)
	}
	if v, ok := p.(OnOfferingClosed); ok {
		r.onOfferingClosed = append(r.onOfferingClosed, v)
	}
	if v, ok := p.(OnOfferingFinalized); ok {
		r.onOfferingFinalized = append(r.onOfferingFinalized, v)
	}
	if v, ok := p.(OnFundsReleased); ok {
		r.onFundsReleased = append(r.onFundsReleased, v)
	}
	if v, ok := p.(OnDepositRecorded); ok {
		r.onDepositRecorded = append(r.onDepositRecorded, v)
	}
	if v, ok := p.(OnCapMilestone); ok {
		r.onCapMilestone = append(r.onCapMilestone, v)
	}
	if v, ok := p.(OnRefundClaimed); ok {
		r.onRefundClaimed = append(r.onRefundClaimed, v)
	}
	if v, ok := p.(OnTokensDelivered); ok {
		r.onTokensDelivered = append(r.onTokensDelivered, v)
	}

	r.logger.Debug("plugin registered",
		"plugin", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)
	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnOfferingConfigured)(nil)).Elem(), "OnOfferingConfigured")
	checkInterface(reflect.TypeOf((*OnOfferingClosed)(nil)).Elem(), "OnOfferingClosed")
	checkInterface(reflect.TypeOf((*OnOfferingFinalized)(nil)).Elem(), "OnOfferingFinalized")
	checkInterface(reflect.TypeOf((*OnFundsReleased)(nil)).Elem(), "OnFundsReleased")
	checkInterface(reflect.TypeOf((*OnDepositRecorded)(nil)).Elem(), "OnDepositRecorded")
	checkInterface(reflect.TypeOf((*OnCapMilestone)(nil)).Elem(), "OnCapMilestone")
	checkInterface(reflect.TypeOf((*OnRefundClaimed)(nil)).Elem(), "OnRefundClaimed")
	checkInterface(reflect.TypeOf((*OnTokensDelivered)(nil)).Elem(), "OnTokensDelivered")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Emitters
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOfferingConfigured emits an offering configured event.
func (r *Registry) EmitOfferingConfigured(ctx context.Context, terms interface{}) {
	r.mu.RLock()
	plugins := r.onOfferingConfigured
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOfferingConfigured(ctx, terms)
		}); err != nil {
			r.logger.Warn("plugin OnOfferingConfigured failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOfferingClosed emits an offering closed event.
func (r *Registry) EmitOfferingClosed(ctx context.Context, reason string) {
	r.mu.RLock()
	plugins := r.onOfferingClosed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOfferingClosed(ctx, reason)
		}); err != nil {
			r.logger.Warn("plugin OnOfferingClosed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOfferingFinalized emits an offering finalized event.
func (r *Registry) EmitOfferingFinalized(ctx context.Context, softCapReached bool) {
	r.mu.RLock()
	plugins := r.onOfferingFinalized
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOfferingFinalized(ctx, softCapReached)
		}); err != nil {
			r.logger.Warn("plugin OnOfferingFinalized failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFundsReleased emits a funds released event.
func (r *Registry) EmitFundsReleased(ctx context.Context, units int64, asset string) {
	r.mu.RLock()
	plugins := r.onFundsReleased
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFundsReleased(ctx, units, asset)
		}); err != nil {
			r.logger.Warn("plugin OnFundsReleased failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDepositRecorded emits a deposit recorded event.
func (r *Registry) EmitDepositRecorded(ctx context.Context, investor string, invested, tokens int64) {
	r.mu.RLock()
	plugins := r.onDepositRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDepositRecorded(ctx, investor, invested, tokens)
		}); err != nil {
			r.logger.Warn("plugin OnDepositRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCapMilestone emits a cap milestone event.
func (r *Registry) EmitCapMilestone(ctx context.Context, milestone string, tokensSold int64) {
	r.mu.RLock()
	plugins := r.onCapMilestone
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCapMilestone(ctx, milestone, tokensSold)
		}); err != nil {
			r.logger.Warn("plugin OnCapMilestone failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRefundClaimed emits a refund claimed event.
func (r *Registry) EmitRefundClaimed(ctx context.Context, investor string, units int64) {
	r.mu.RLock()
	plugins := r.onRefundClaimed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRefundClaimed(ctx, investor, units)
		}); err != nil {
			r.logger.Warn("plugin OnRefundClaimed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTokensDelivered emits a tokens delivered event.
func (r *Registry) EmitTokensDelivered(ctx context.Context, investor string, tokens int64) {
	r.mu.RLock()
	plugins := r.onTokensDelivered
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTokensDelivered(ctx, investor, tokens)
		}); err != nil {
			r.logger.Warn("plugin OnTokensDelivered failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout runs fn with a hard deadline so one misbehaving plugin
// cannot stall settlement.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
