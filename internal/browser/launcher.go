// internal/browser/launcher.go
package browser

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/browser/stealth"
	"github.com/xkilldash9x/reachout-cli/internal/config"
)

// Launcher starts one headless Chrome per run through chromedp.
type Launcher struct {
	cfg    *config.Config
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

var _ schemas.Launcher = (*Launcher)(nil)

// NewLauncher creates a chromedp launcher.
func NewLauncher(cfg *config.Config, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{
		cfg:    cfg,
		logger: logger.Named("chromedp"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Launch starts the browser, applies the fingerprint and returns its first tab.
func (l *Launcher) Launch(ctx context.Context) (schemas.Driver, error) {
	l.mu.Lock()
	width, height := Viewport(l.cfg.Browser, l.rng)
	l.mu.Unlock()

	opts := DefaultAllocatorOptions(l.cfg.Browser, l.cfg.Proxy, width, height)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(l.logger.Sugar().Debugf))
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	// The first Run starts the browser. It must not carry a timeout, or the
	// browser dies with it.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", schemas.ErrBrowserLaunch, err)
	}

	tasks := chromedp.Tasks{
		emulation.SetDeviceMetricsOverride(int64(width), int64(height), 1, false),
	}
	if l.cfg.Browser.Stealth {
		persona := stealth.DefaultPersona.WithUserAgent(l.cfg.Browser.UserAgent)
		tasks = append(tasks, stealth.Apply(persona, l.logger))
	}
	if l.cfg.Proxy.Enabled() {
		listenProxyAuth(tabCtx, l.cfg.Proxy, l.logger)
		tasks = append(tasks, fetch.Enable().WithHandleAuthRequests(true))
	}

	if err := chromedp.Run(tabCtx, tasks); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: failed to prepare tab: %w", schemas.ErrBrowserLaunch, err)
	}

	l.logger.Info("Browser launched.",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Bool("headless", l.cfg.Browser.Headless),
		zap.Bool("proxy", l.cfg.Proxy.Enabled()),
	)
	return NewSession(tabCtx, cancel, l.cfg.Timeouts.Navigation, actionTimeout(l.cfg.Timeouts), l.logger), nil
}

// actionTimeout bounds single interactions, generous enough for slow pages.
func actionTimeout(t config.TimeoutConfig) time.Duration {
	if t.Navigation > 0 {
		return t.Navigation
	}
	return 30 * time.Second
}

// listenProxyAuth answers the proxy's credential challenge. With the fetch
// domain enabled every request pauses, so each one is continued here.
func listenProxyAuth(ctx context.Context, proxy config.ProxyConfig, logger *zap.Logger) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventRequestPaused:
			go func() {
				execCtx := cdp.WithExecutor(ctx, chromedp.FromContext(ctx).Target)
				if err := fetch.ContinueRequest(e.RequestID).Do(execCtx); err != nil {
					logger.Debug("Failed to continue paused request.", zap.Error(err))
				}
			}()
		case *fetch.EventAuthRequired:
			go func() {
				execCtx := cdp.WithExecutor(ctx, chromedp.FromContext(ctx).Target)
				resp := &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: proxy.Username,
					Password: proxy.Password,
				}
				if err := fetch.ContinueWithAuth(e.RequestID, resp).Do(execCtx); err != nil {
					logger.Warn("Failed to answer proxy authentication.", zap.Error(err))
				}
			}()
		}
	})
}
