// File: internal/service/factory_test.go
package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/browser"
	"github.com/xkilldash9x/reachout-cli/internal/browser/rodriver"
	"github.com/xkilldash9x/reachout-cli/internal/captcha"
	"github.com/xkilldash9x/reachout-cli/internal/config"
	"github.com/xkilldash9x/reachout-cli/internal/mocks"
)

func TestNewLauncher(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("chromedp", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		l, err := NewLauncher(cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &browser.Launcher{}, l)
	})

	t.Run("rod", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.Browser.Driver = config.DriverRod
		l, err := NewLauncher(cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &rodriver.Launcher{}, l)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.Browser.Driver = "lynx"
		_, err := NewLauncher(cfg, logger)
		assert.True(t, errors.Is(err, schemas.ErrInvalidConfig))
	})
}

func TestNewSolver(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("no token falls back to detection only", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		s, err := NewSolver(cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &captcha.NoopSolver{}, s)
	})

	t.Run("provider none ignores the token", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.Captcha.Provider = config.CaptchaNone
		cfg.Captcha.Token = "token"
		s, err := NewSolver(cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &captcha.NoopSolver{}, s)
	})

	t.Run("2captcha with token", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.Captcha.Token = "token"
		s, err := NewSolver(cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &captcha.TwoCaptchaSolver{}, s)
	})
}

func TestComponentFactoryCreate(t *testing.T) {
	logger := zaptest.NewLogger(t)
	factory := NewComponentFactory()

	t.Run("wires every component", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.Oracle.APIKey = "sk-test"

		c, err := factory.Create(context.Background(), cfg, logger)
		require.NoError(t, err)
		t.Cleanup(c.Shutdown)

		assert.NotNil(t, c.Launcher)
		assert.NotNil(t, c.Oracle)
		assert.NotNil(t, c.Solver)
		assert.NotNil(t, c.Pipeline)
	})

	t.Run("proxy without credentials fails fast", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.Proxy.URL = "http://proxy.internal:3128"

		c, err := factory.Create(context.Background(), cfg, logger)
		require.Error(t, err)
		assert.Nil(t, c)
		assert.True(t, errors.Is(err, schemas.ErrInvalidConfig))
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := factory.Create(context.Background(), nil, logger)
		assert.True(t, errors.Is(err, schemas.ErrInvalidConfig))
	})
}

func TestComponentsShutdown(t *testing.T) {
	oracle := new(mocks.MockLLMClient)
	oracle.On("Close").Return(errors.New("already closed")).Once()

	c := &Components{Oracle: oracle, logger: zaptest.NewLogger(t)}
	assert.NotPanics(t, c.Shutdown)
	oracle.AssertExpectations(t)

	var nilComponents *Components
	assert.NotPanics(t, nilComponents.Shutdown)
}
