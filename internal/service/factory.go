// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/browser"
	"github.com/xkilldash9x/reachout-cli/internal/browser/rodriver"
	"github.com/xkilldash9x/reachout-cli/internal/captcha"
	"github.com/xkilldash9x/reachout-cli/internal/config"
	"github.com/xkilldash9x/reachout-cli/internal/llmclient"
	"github.com/xkilldash9x/reachout-cli/internal/orchestrator"
)

// ComponentFactory builds the components of one run. The run command depends
// on this interface so it can be tested without a browser or network.
type ComponentFactory interface {
	Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error)
}

// concreteFactory is the production implementation of the ComponentFactory.
type concreteFactory struct{}

// NewComponentFactory creates a new production-ready component factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{}
}

// Create validates cfg, then wires the browser backend, oracle and solver into
// a Pipeline. A configuration error is returned before anything starts.
func (f *concreteFactory) Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration is missing", schemas.ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	launcher, err := NewLauncher(cfg, logger)
	if err != nil {
		return nil, err
	}

	oracle, err := llmclient.NewClient(ctx, cfg.Oracle, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize oracle client: %w", err)
	}

	solver, err := NewSolver(cfg, logger)
	if err != nil {
		_ = oracle.Close()
		return nil, err
	}

	pipeline, err := orchestrator.New(cfg, launcher, oracle, solver, logger)
	if err != nil {
		_ = oracle.Close()
		return nil, err
	}

	logger.Debug("Components initialized.",
		zap.String("driver", cfg.Browser.Driver),
		zap.String("oracle", cfg.Oracle.Provider),
		zap.String("captcha", cfg.Captcha.Provider),
	)
	return &Components{
		Launcher: launcher,
		Oracle:   oracle,
		Solver:   solver,
		Pipeline: pipeline,
		logger:   logger,
	}, nil
}

// NewLauncher selects the browser backend.
func NewLauncher(cfg *config.Config, logger *zap.Logger) (schemas.Launcher, error) {
	switch cfg.Browser.Driver {
	case config.DriverChromedp:
		return browser.NewLauncher(cfg, logger), nil
	case config.DriverRod:
		return rodriver.NewLauncher(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: unsupported browser driver %q", schemas.ErrInvalidConfig, cfg.Browser.Driver)
	}
}

// NewSolver returns the 2captcha solver when a token is configured, and a
// detect-only solver otherwise.
func NewSolver(cfg *config.Config, logger *zap.Logger) (schemas.CaptchaSolver, error) {
	if cfg.Captcha.Provider != config.CaptchaTwoCaptcha || cfg.Captcha.Token == "" {
		return captcha.NewNoopSolver(logger), nil
	}
	solver, err := captcha.NewTwoCaptchaSolver(cfg.Captcha, cfg.Timeouts.Captcha, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize captcha solver: %w", err)
	}
	return solver, nil
}
