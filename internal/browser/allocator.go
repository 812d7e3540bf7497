// internal/browser/allocator.go
package browser

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/reachout-cli/internal/config"
)

// AllocatorFlags returns the Chrome command line flags for one run, on top of
// chromedp's defaults.
func AllocatorFlags(cfg config.BrowserConfig, proxy config.ProxyConfig, width, height int) map[string]interface{} {
	flags := map[string]interface{}{
		"no-sandbox":             true,
		"disable-dev-shm-usage":  true,
		"disable-blink-features": "AutomationControlled",
		"window-size":            fmt.Sprintf("%d,%d", width, height),
	}

	// The defaults include headless; undo it explicitly for a visible browser.
	if !cfg.Headless {
		flags["headless"] = false
	}
	if cfg.UserAgent != "" {
		flags["user-agent"] = cfg.UserAgent
	}
	if cfg.IgnoreTLSErrors {
		flags["ignore-certificate-errors"] = true
		flags["allow-insecure-localhost"] = true
	}
	if proxy.Enabled() {
		flags["proxy-server"] = proxy.URL
	}

	for _, arg := range cfg.Args {
		arg = strings.TrimLeft(arg, "-")
		if arg == "" {
			continue
		}
		name, value, found := strings.Cut(arg, "=")
		if !found {
			// Boolean flag, e.g. --no-zygote.
			flags[name] = true
			continue
		}
		flags[name] = value
	}
	return flags
}

// DefaultAllocatorOptions turns AllocatorFlags into chromedp allocator options.
func DefaultAllocatorOptions(cfg config.BrowserConfig, proxy config.ProxyConfig, width, height int) []chromedp.ExecAllocatorOption {
	// Copy so the package-level defaults are never appended to in place.
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range AllocatorFlags(cfg, proxy, width, height) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// Viewport returns the configured viewport grown by a random jitter in
// [0, jitter) on each axis.
func Viewport(cfg config.BrowserConfig, rng *rand.Rand) (int, int) {
	w, h := cfg.ViewportWidth, cfg.ViewportHeight
	if cfg.ViewportJitter > 0 && rng != nil {
		w += rng.Intn(cfg.ViewportJitter)
		h += rng.Intn(cfg.ViewportJitter)
	}
	return w, h
}
