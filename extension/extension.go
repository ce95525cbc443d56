// Package extension provides the Forge extension adapter for the STO engine.
//
// It implements the forge.Extension interface to integrate the escrow and
// settlement engine into a Forge application with DI registration and
// lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.sto" or "sto" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/sto"
	"github.com/xraph/sto/offering"
	"github.com/xraph/sto/store"
	"github.com/xraph/sto/store/memory"
	"github.com/xraph/sto/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "sto"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Security token offering escrow and settlement engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the STO engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *sto.Engine
	store      store.Store
	engineOpts []sto.Option
}

// New creates a new STO Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine instance.
// This is nil until Register is called.
func (e *Extension) Engine() *sto.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	eng, err := sto.New(e.store, e.resolvedTerms(), e.buildEngineOpts()...)
	if err != nil {
		return err
	}
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*sto.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("sto: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("sto: store not initialized")
	}
	return e.store.Ping(ctx)
}

// resolvedTerms returns the offering terms from config, or zero terms when
// the offering will be configured at runtime.
func (e *Extension) resolvedTerms() offering.Terms {
	if e.config.Terms != nil {
		return e.config.Terms.terms()
	}
	return offering.Terms{}
}

// buildEngineOpts constructs sto.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []sto.Option {
	opts := make([]sto.Option, 0, len(e.engineOpts)+1)

	if len(e.config.Operators) > 0 {
		grants := make(sto.StaticCapabilities, len(e.config.Operators))
		for _, addr := range e.config.Operators {
			grants[types.Addr(addr)] = []sto.Role{sto.RoleOperator}
		}
		opts = append(opts, sto.WithCapabilities(grants))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("sto: configuration is required but not found in config files; " +
				"ensure 'extensions.sto' or 'sto' key exists in your config")
		}
		e.config = programmaticConfig
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("sto: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("configured", e.config.Terms != nil),
		forge.F("operators", len(e.config.Operators)),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.sto" first (namespaced pattern).
	if cm.IsSet("extensions.sto") {
		if err := cm.Bind("extensions.sto", &cfg); err == nil {
			e.Logger().Debug("sto: loaded config from file",
				forge.F("key", "extensions.sto"),
			)
			return cfg, true
		}
		e.Logger().Warn("sto: failed to bind extensions.sto config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "sto" key.
	if cm.IsSet("sto") {
		if err := cm.Bind("sto", &cfg); err == nil {
			e.Logger().Debug("sto: loaded config from file",
				forge.F("key", "sto"),
			)
			return cfg, true
		}
		e.Logger().Warn("sto: failed to bind sto config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if yamlConfig.Terms == nil && programmaticConfig.Terms != nil {
		yamlConfig.Terms = programmaticConfig.Terms
	}
	if len(yamlConfig.Operators) == 0 && len(programmaticConfig.Operators) > 0 {
		yamlConfig.Operators = programmaticConfig.Operators
	}
	return yamlConfig
}
