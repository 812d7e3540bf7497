// internal/browser/allocator_test.go
package browser

import (
	"math/rand"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/reachout-cli/internal/config"
)

func TestAllocatorFlags(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		flags := AllocatorFlags(config.BrowserConfig{Headless: true}, config.ProxyConfig{}, 1200, 800)

		assert.Equal(t, true, flags["no-sandbox"])
		assert.Equal(t, "AutomationControlled", flags["disable-blink-features"])
		assert.Equal(t, "1200,800", flags["window-size"])
		assert.NotContains(t, flags, "headless")
		assert.NotContains(t, flags, "proxy-server")
		assert.NotContains(t, flags, "user-agent")
	})

	t.Run("HeadlessDisabled", func(t *testing.T) {
		flags := AllocatorFlags(config.BrowserConfig{Headless: false}, config.ProxyConfig{}, 1, 1)
		assert.Equal(t, false, flags["headless"])
	})

	t.Run("IgnoreTLSErrors", func(t *testing.T) {
		flags := AllocatorFlags(config.BrowserConfig{Headless: true, IgnoreTLSErrors: true}, config.ProxyConfig{}, 1, 1)
		assert.Equal(t, true, flags["ignore-certificate-errors"])
		assert.Equal(t, true, flags["allow-insecure-localhost"])
	})

	t.Run("UserAgentAndProxy", func(t *testing.T) {
		flags := AllocatorFlags(
			config.BrowserConfig{Headless: true, UserAgent: "agent/1.0"},
			config.ProxyConfig{URL: "http://proxy.internal:3128", Username: "u", Password: "p"},
			1, 1,
		)
		assert.Equal(t, "agent/1.0", flags["user-agent"])
		assert.Equal(t, "http://proxy.internal:3128", flags["proxy-server"])
	})

	t.Run("WithCustomArgs", func(t *testing.T) {
		cfg := config.BrowserConfig{
			Headless: true,
			Args:     []string{"--custom-arg1", "custom-arg2=value", "--lang=de-DE", "--", ""},
		}
		flags := AllocatorFlags(cfg, config.ProxyConfig{}, 1, 1)
		assert.Equal(t, true, flags["custom-arg1"])
		assert.Equal(t, "value", flags["custom-arg2"])
		assert.Equal(t, "de-DE", flags["lang"])
		assert.NotContains(t, flags, "")
	})
}

func TestDefaultAllocatorOptions(t *testing.T) {
	base := len(chromedp.DefaultExecAllocatorOptions)
	cfg := config.BrowserConfig{Headless: true}

	opts := DefaultAllocatorOptions(cfg, config.ProxyConfig{}, 1, 1)
	assert.Len(t, opts, base+len(AllocatorFlags(cfg, config.ProxyConfig{}, 1, 1)))

	cfg.ExecPath = "/usr/bin/chromium"
	assert.Len(t, DefaultAllocatorOptions(cfg, config.ProxyConfig{}, 1, 1), len(opts)+1)
}

func TestViewport(t *testing.T) {
	cfg := config.BrowserConfig{ViewportWidth: 1200, ViewportHeight: 800, ViewportJitter: 200}

	t.Run("jitter stays in range", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 50; i++ {
			w, h := Viewport(cfg, rng)
			assert.GreaterOrEqual(t, w, 1200)
			assert.Less(t, w, 1400)
			assert.GreaterOrEqual(t, h, 800)
			assert.Less(t, h, 1000)
		}
	})

	t.Run("no jitter", func(t *testing.T) {
		cfg := cfg
		cfg.ViewportJitter = 0
		w, h := Viewport(cfg, rand.New(rand.NewSource(1)))
		assert.Equal(t, 1200, w)
		assert.Equal(t, 800, h)
	})

	t.Run("nil rng", func(t *testing.T) {
		w, h := Viewport(cfg, nil)
		assert.Equal(t, 1200, w)
		assert.Equal(t, 800, h)
	})
}
