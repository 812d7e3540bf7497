// internal/humanoid/pacer.go
package humanoid

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/config"
)

// Pacer inserts the randomized pauses that make a run look operator-driven.
type Pacer struct {
	cfg    config.PacingConfig
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPacer creates a Pacer. A nil rng is seeded from the clock.
func NewPacer(cfg config.PacingConfig, rng *rand.Rand, logger *zap.Logger) *Pacer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pacer{cfg: cfg, rng: rng, logger: logger.Named("humanoid")}
}

// FieldDelay draws a delay uniformly from [min, max).
func (p *Pacer) FieldDelay() time.Duration {
	span := p.cfg.MaxFieldDelay - p.cfg.MinFieldDelay
	if span <= 0 {
		return p.cfg.MinFieldDelay
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.MinFieldDelay + time.Duration(p.rng.Int63n(int64(span)))
}

// AfterField pauses between two field fills.
func (p *Pacer) AfterField(ctx context.Context) error {
	return Sleep(ctx, p.FieldDelay())
}

// Click scrolls the target into view, waits the configured pause and issues a
// trusted click.
func (p *Pacer) Click(ctx context.Context, d schemas.Driver, selector string) error {
	if err := d.ScrollIntoView(ctx, selector); err != nil {
		p.logger.Debug("Scroll into view failed, clicking anyway.", zap.String("selector", selector), zap.Error(err))
	}
	if err := Sleep(ctx, p.cfg.ClickPause); err != nil {
		return err
	}
	return d.Click(ctx, selector)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
