// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
)

// Session is one chromedp tab and implements schemas.Driver.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	navTimeout    time.Duration
	actionTimeout time.Duration

	mu       sync.Mutex
	isClosed bool
}

// Ensure Session implements the interface.
var _ schemas.Driver = (*Session)(nil)

// NewSession wraps a chromedp tab context. cancel must tear down the tab and
// its allocator.
func NewSession(ctx context.Context, cancel context.CancelFunc, navTimeout, actionTimeout time.Duration, logger *zap.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:            id,
		ctx:           ctx,
		cancel:        cancel,
		logger:        logger.With(zap.String("session_id", id)),
		navTimeout:    navTimeout,
		actionTimeout: actionTimeout,
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// run executes actions on the tab, bounded by both the caller's ctx and timeout.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	s.mu.Lock()
	closed := s.isClosed
	s.mu.Unlock()
	if closed {
		return schemas.ErrSessionClosed
	}

	opCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	// Tie the caller's cancellation to the tab-derived context.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(opCtx, actions...)
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, s.navTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, s.actionTimeout, chromedp.Location(&loc))
	return loc, err
}

func (s *Session) Snapshot(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, s.actionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// WaitForSelector reports (false, nil) when the selector does not appear in time.
func (s *Session) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	err := s.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return false, nil
	default:
		return false, err
	}
}

func (s *Session) Evaluate(ctx context.Context, function string) (string, error) {
	var res string
	err := s.run(ctx, s.actionTimeout,
		chromedp.Evaluate(WrapPageFunction(function), &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true).WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("page script failed: %w", err)
	}
	return res, nil
}

func (s *Session) ScrollIntoView(ctx context.Context, selector string) error {
	return s.run(ctx, s.actionTimeout, chromedp.ScrollIntoView(selector, chromedp.ByQuery))
}

func (s *Session) Click(ctx context.Context, selector string) error {
	return s.run(ctx, s.actionTimeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (s *Session) Fill(ctx context.Context, selector, text string) error {
	return s.run(ctx, s.actionTimeout,
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

func (s *Session) SelectOptions(ctx context.Context, selector string, values []string) error {
	script, err := SelectOptionsScript(selector, values)
	if err != nil {
		return err
	}
	raw, err := s.Evaluate(ctx, script)
	if err != nil {
		return err
	}
	return CheckSelectResult(raw, selector)
}

func (s *Session) IsChecked(ctx context.Context, selector string) (bool, error) {
	var checked bool
	err := s.run(ctx, s.actionTimeout, chromedp.JavascriptAttribute(selector, "checked", &checked, chromedp.ByQuery))
	return checked, err
}

// Screenshot captures the full page as PNG.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := s.run(ctx, s.actionTimeout, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return WriteScreenshot(path, buf)
}

// WatchCompletion listens for the load event and for responses until Stop.
func (s *Session) WatchCompletion(ctx context.Context) (schemas.CompletionWatcher, error) {
	listenerCtx, cancel := context.WithCancel(s.ctx)
	signals := NewSignals(cancel)

	chromedp.ListenTarget(listenerCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventLoadEventFired:
			signals.Navigated()
		case *network.EventResponseReceived:
			if e.Response != nil {
				signals.Responded(int64(e.Response.Status))
			}
		}
	})

	// Response events need the network domain.
	if err := s.run(ctx, s.actionTimeout, network.Enable()); err != nil {
		signals.Stop()
		return nil, fmt.Errorf("failed to enable network events: %w", err)
	}
	return signals, nil
}

// Close tears down the tab and browser. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil
	}
	s.isClosed = true
	s.cancel()
	s.logger.Debug("Browser session closed.")
	return nil
}
