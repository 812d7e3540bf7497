// internal/browser/completion.go
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
)

// Signals is a backend-neutral wait-any over the two post-submit signals.
// Event listeners feed it through Navigated and Responded; both are safe to
// call from any goroutine and any number of times.
type Signals struct {
	navigated chan struct{}
	responded chan struct{}
	navOnce   sync.Once
	respOnce  sync.Once

	stopOnce sync.Once
	stop     func()
}

// NewSignals returns armed signals. stop, if not nil, runs once on Stop.
func NewSignals(stop func()) *Signals {
	return &Signals{
		navigated: make(chan struct{}),
		responded: make(chan struct{}),
		stop:      stop,
	}
}

// Navigated records that a document finished loading.
func (s *Signals) Navigated() {
	s.navOnce.Do(func() { close(s.navigated) })
}

// Responded records an observed response; only 2xx and 3xx statuses count.
func (s *Signals) Responded(status int64) {
	if status < 200 || status >= 400 {
		return
	}
	s.respOnce.Do(func() { close(s.responded) })
}

// Wait blocks until either signal fires, timeout elapses or ctx is done.
// Navigation wins when both have already fired.
func (s *Signals) Wait(ctx context.Context, timeout time.Duration) schemas.CompletionOutcome {
	select {
	case <-s.navigated:
		return schemas.CompletionNavigated
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.navigated:
		return schemas.CompletionNavigated
	case <-s.responded:
		return schemas.CompletionResponded
	case <-timer.C:
		return schemas.CompletionUnconfirmed
	case <-ctx.Done():
		return schemas.CompletionUnconfirmed
	}
}

// Stop releases the listeners.
func (s *Signals) Stop() {
	s.stopOnce.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}
