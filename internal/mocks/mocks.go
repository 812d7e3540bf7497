// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
)

// -- Driver Mock --

// MockDriver mocks the schemas.Driver interface.
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockDriver) CurrentURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) Snapshot(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	args := m.Called(ctx, selector, timeout)
	return args.Bool(0), args.Error(1)
}

// Evaluate provides a mock function for page scripts. Tests usually match on a
// fragment of the script with mock.MatchedBy.
func (m *MockDriver) Evaluate(ctx context.Context, function string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	args := m.Called(ctx, function)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) ScrollIntoView(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockDriver) Click(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockDriver) Fill(ctx context.Context, selector, text string) error {
	return m.Called(ctx, selector, text).Error(0)
}

func (m *MockDriver) SelectOptions(ctx context.Context, selector string, values []string) error {
	return m.Called(ctx, selector, values).Error(0)
}

func (m *MockDriver) IsChecked(ctx context.Context, selector string) (bool, error) {
	args := m.Called(ctx, selector)
	return args.Bool(0), args.Error(1)
}

func (m *MockDriver) Screenshot(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *MockDriver) WatchCompletion(ctx context.Context) (schemas.CompletionWatcher, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(schemas.CompletionWatcher), args.Error(1)
}

func (m *MockDriver) Close() error {
	return m.Called().Error(0)
}

// -- Completion Watcher Mock --

// MockCompletionWatcher mocks the schemas.CompletionWatcher interface.
type MockCompletionWatcher struct {
	mock.Mock
}

func (m *MockCompletionWatcher) Wait(ctx context.Context, timeout time.Duration) schemas.CompletionOutcome {
	return m.Called(ctx, timeout).Get(0).(schemas.CompletionOutcome)
}

func (m *MockCompletionWatcher) Stop() {
	m.Called()
}

// -- Launcher Mock --

// MockLauncher mocks the schemas.Launcher interface.
type MockLauncher struct {
	mock.Mock
}

func (m *MockLauncher) Launch(ctx context.Context) (schemas.Driver, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(schemas.Driver), args.Error(1)
}

// -- LLM Client Mock --

// MockLLMClient mocks the schemas.LLMClient interface.
type MockLLMClient struct {
	mock.Mock
}

// Generate provides a mock function for LLM calls.
func (m *MockLLMClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockLLMClient) Close() error {
	return m.Called().Error(0)
}

// -- Captcha Solver Mock --

// MockCaptchaSolver mocks the schemas.CaptchaSolver interface.
type MockCaptchaSolver struct {
	mock.Mock
}

func (m *MockCaptchaSolver) SolveChallenges(ctx context.Context, d schemas.Driver) (schemas.CaptchaReport, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(schemas.CaptchaReport), args.Error(1)
}

// -- Recording Driver --

// ScriptDriver is a hand-rolled driver for tests that need to answer page
// scripts by content rather than by exact string. Handlers are matched in
// registration order; the first whose fragment occurs in the script wins.
type ScriptDriver struct {
	MockDriver

	mu       sync.Mutex
	handlers []scriptHandler
	Scripts  []string
}

type scriptHandler struct {
	fragment string
	respond  func(script string) (string, error)
}

// NewScriptDriver returns a ScriptDriver with no handlers.
func NewScriptDriver() *ScriptDriver {
	return &ScriptDriver{}
}

// OnScript registers a handler for scripts containing fragment.
func (d *ScriptDriver) OnScript(fragment string, respond func(script string) (string, error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, scriptHandler{fragment: fragment, respond: respond})
}

// Evaluate answers with the first matching handler, or falls back to the mock.
func (d *ScriptDriver) Evaluate(ctx context.Context, function string) (string, error) {
	d.mu.Lock()
	d.Scripts = append(d.Scripts, function)
	handlers := append([]scriptHandler(nil), d.handlers...)
	d.mu.Unlock()

	for _, h := range handlers {
		if containsFragment(function, h.fragment) {
			return h.respond(function)
		}
	}
	return d.MockDriver.Evaluate(ctx, function)
}

// EvaluatedScripts returns a copy of every script seen so far.
func (d *ScriptDriver) EvaluatedScripts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.Scripts...)
}

func containsFragment(s, fragment string) bool {
	return fragment == "" || strings.Contains(s, fragment)
}
