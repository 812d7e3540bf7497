package rodriver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/browser"
)

// Session drives one rod page.
type Session struct {
	id       string
	page     *rod.Page
	teardown func()
	timeout  time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	isClosed bool
}

var _ schemas.Driver = (*Session)(nil)

// NewSession wraps page. teardown closes the browser behind it.
func NewSession(page *rod.Page, teardown func(), timeout time.Duration, logger *zap.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:       id,
		page:     page,
		teardown: teardown,
		timeout:  timeout,
		logger:   logger.With(zap.String("session_id", id)),
	}
}

// p binds the page to ctx and the action timeout.
func (s *Session) p(ctx context.Context) (*rod.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil, schemas.ErrSessionClosed
	}
	return s.page.Context(ctx).Timeout(s.timeout), nil
}

func (s *Session) element(ctx context.Context, selector string) (*rod.Element, error) {
	p, err := s.p(ctx)
	if err != nil {
		return nil, err
	}
	el, err := p.Element(selector)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", selector, schemas.ErrElementNotFound, err)
	}
	return el, nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	p, err := s.p(ctx)
	if err != nil {
		return err
	}
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed waiting for %s to load: %w", url, err)
	}
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	p, err := s.p(ctx)
	if err != nil {
		return "", err
	}
	info, err := p.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (s *Session) Snapshot(ctx context.Context) (string, error) {
	p, err := s.p(ctx)
	if err != nil {
		return "", err
	}
	return p.HTML()
}

// WaitForSelector reports (false, nil) when the selector does not appear in time.
func (s *Session) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	p, err := s.p(ctx)
	if err != nil {
		return false, err
	}
	_, err = p.Timeout(timeout).Element(selector)
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
	p, err := s.p(ctx)
	if err != nil {
		return "", err
	}
	res, err := p.Eval(function)
	if err != nil {
		return "", fmt.Errorf("page script failed: %w", err)
	}
	return res.Value.Str(), nil
}

func (s *Session) ScrollIntoView(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.ScrollIntoView()
}

func (s *Session) Click(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *Session) Fill(ctx context.Context, selector, text string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}

func (s *Session) SelectOptions(ctx context.Context, selector string, values []string) error {
	script, err := browser.SelectOptionsScript(selector, values)
	if err != nil {
		return err
	}
	raw, err := s.Evaluate(ctx, script)
	if err != nil {
		return err
	}
	return browser.CheckSelectResult(raw, selector)
}

func (s *Session) IsChecked(ctx context.Context, selector string) (bool, error) {
	el, err := s.element(ctx, selector)
	if err != nil {
		return false, err
	}
	v, err := el.Property("checked")
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

func (s *Session) Screenshot(ctx context.Context, path string) error {
	p, err := s.p(ctx)
	if err != nil {
		return err
	}
	data, err := p.Screenshot(true, &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng})
	if err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return browser.WriteScreenshot(path, data)
}

// WatchCompletion subscribes to load and response events until Stop.
func (s *Session) WatchCompletion(ctx context.Context) (schemas.CompletionWatcher, error) {
	p, err := s.p(ctx)
	if err != nil {
		return nil, err
	}
	if err := (proto.NetworkEnable{}).Call(p); err != nil {
		return nil, fmt.Errorf("failed to enable network events: %w", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	signals := browser.NewSignals(cancel)

	wait := s.page.Context(listenCtx).EachEvent(
		func(e *proto.PageLoadEventFired) {
			signals.Navigated()
		},
		func(e *proto.NetworkResponseReceived) {
			if e.Response != nil {
				signals.Responded(int64(e.Response.Status))
			}
		},
	)
	go wait()
	return signals, nil
}

// Close tears down the page and browser. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil
	}
	s.isClosed = true
	if s.teardown != nil {
		s.teardown()
	}
	s.logger.Debug("Browser session closed.")
	return nil
}
