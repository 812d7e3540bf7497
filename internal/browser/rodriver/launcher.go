// Package rodriver is the go-rod backend of the browser driver.
package rodriver

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/browser"
	"github.com/xkilldash9x/reachout-cli/internal/config"
)

// Launcher starts a local Chrome through the rod launcher.
type Launcher struct {
	cfg    *config.Config
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

var _ schemas.Launcher = (*Launcher)(nil)

// NewLauncher creates a rod launcher.
func NewLauncher(cfg *config.Config, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{
		cfg:    cfg,
		logger: logger.Named("rod"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// applyFlags copies the shared Chrome flags onto a rod launcher. A false
// boolean removes the flag.
func applyFlags(l *launcher.Launcher, values map[string]interface{}) *launcher.Launcher {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		switch v := values[name].(type) {
		case bool:
			if v {
				l = l.Set(flags.Flag(name))
			} else {
				l = l.Delete(flags.Flag(name))
			}
		default:
			l = l.Set(flags.Flag(name), fmt.Sprint(v))
		}
	}
	return l
}

// Launch starts Chrome, connects and opens the run's page.
func (r *Launcher) Launch(ctx context.Context) (schemas.Driver, error) {
	r.mu.Lock()
	width, height := browser.Viewport(r.cfg.Browser, r.rng)
	r.mu.Unlock()

	l := launcher.New().Context(ctx).Headless(r.cfg.Browser.Headless)
	if r.cfg.Browser.ExecPath != "" {
		l = l.Bin(r.cfg.Browser.ExecPath)
	}
	l = applyFlags(l, browser.AllocatorFlags(r.cfg.Browser, r.cfg.Proxy, width, height))

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schemas.ErrBrowserLaunch, err)
	}

	b := rod.New().ControlURL(u).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: connect: %w", schemas.ErrBrowserLaunch, err)
	}
	teardown := func() {
		_ = b.Close()
		l.Cleanup()
	}

	if r.cfg.Proxy.Enabled() {
		go func() {
			if err := b.HandleAuth(r.cfg.Proxy.Username, r.cfg.Proxy.Password)(); err != nil {
				r.logger.Debug("Proxy authentication handler stopped.", zap.Error(err))
			}
		}()
	}

	page, err := r.openPage(b, width, height)
	if err != nil {
		teardown()
		return nil, fmt.Errorf("%w: %w", schemas.ErrBrowserLaunch, err)
	}

	r.logger.Info("Browser launched.",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Bool("headless", r.cfg.Browser.Headless),
		zap.Bool("proxy", r.cfg.Proxy.Enabled()),
	)
	return NewSession(page, teardown, r.cfg.Timeouts.Navigation, r.logger), nil
}

func (r *Launcher) openPage(b *rod.Browser, width, height int) (*rod.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if r.cfg.Browser.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if ua := r.cfg.Browser.UserAgent; ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}
	return page, nil
}
