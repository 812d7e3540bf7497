// internal/submit/executor.go
package submit

import (
	"context"
	_ "embed"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/browser/shim"
	"github.com/xkilldash9x/reachout-cli/internal/forms"
	"github.com/xkilldash9x/reachout-cli/internal/humanoid"
)

//go:embed js/probe.js
var probeJS string

//go:embed js/fire.js
var fireJS string

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Executor submits the bound form using the highest-priority strategy that works.
type Executor struct {
	pacer  *humanoid.Pacer
	logger *zap.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(pacer *humanoid.Pacer, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{pacer: pacer, logger: logger.Named("submit")}
}

// Submit probes the form, then walks the plan until one step fires. A failed
// click falls through to the next step; the scripted step always fires unless
// the form has vanished.
func (e *Executor) Submit(ctx context.Context, d schemas.Driver, b forms.Binding) (schemas.SubmitStrategy, error) {
	probe, err := e.probe(ctx, d, b)
	if err != nil {
		return schemas.StrategyNone, err
	}
	if !probe.Found {
		return schemas.StrategyNone, fmt.Errorf("form to submit is no longer present: %w", schemas.ErrElementNotFound)
	}

	for _, step := range Plan(probe) {
		log := e.logger.With(zap.String("strategy", string(step.Strategy)))

		if step.ControlID != "" {
			if err := e.pacer.Click(ctx, d, forms.SelectorFor(b.Marker, step.ControlID)); err != nil {
				if ctx.Err() != nil {
					return schemas.StrategyNone, ctx.Err()
				}
				log.Debug("Click strategy failed, trying next.", zap.String("control", step.ControlID), zap.Error(err))
				continue
			}
			log.Info("Form submitted.", zap.String("control", step.ControlID))
			return step.Strategy, nil
		}

		fired, err := e.fire(ctx, d, b, step.Strategy == schemas.StrategyRequestSubmit)
		if err != nil {
			return schemas.StrategyNone, err
		}
		log.Info("Form submitted.", zap.String("fired", string(fired)))
		return fired, nil
	}
	return schemas.StrategyNone, nil
}

func (e *Executor) probe(ctx context.Context, d schemas.Driver, b forms.Binding) (Probe, error) {
	script, err := shim.BuildPageFunction(probeJS, map[string]string{
		"formSelector":    b.FormSelector(),
		"attribute":       forms.MarkerAttribute,
		"marker":          string(b.Marker),
		"submitSelector":  SubmitControlSelector,
		"genericSelector": GenericControlSelector,
	})
	if err != nil {
		return Probe{}, err
	}
	raw, err := d.Evaluate(ctx, script)
	if err != nil {
		return Probe{}, fmt.Errorf("failed to probe submit controls: %w", err)
	}
	var p Probe
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Probe{}, fmt.Errorf("malformed probe result: %w", err)
	}
	return p, nil
}

func (e *Executor) fire(ctx context.Context, d schemas.Driver, b forms.Binding, requestSubmit bool) (schemas.SubmitStrategy, error) {
	script, err := shim.BuildPageFunction(fireJS, map[string]interface{}{
		"formSelector":  b.FormSelector(),
		"requestSubmit": requestSubmit,
	})
	if err != nil {
		return schemas.StrategyNone, err
	}
	raw, err := d.Evaluate(ctx, script)
	if err != nil {
		return schemas.StrategyNone, fmt.Errorf("scripted submission failed: %w", err)
	}
	var res struct {
		Strategy schemas.SubmitStrategy `json:"strategy"`
	}
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return schemas.StrategyNone, fmt.Errorf("malformed submission result: %w", err)
	}
	if res.Strategy == schemas.StrategyNone || res.Strategy == "" {
		return schemas.StrategyNone, fmt.Errorf("form to submit is no longer present: %w", schemas.ErrElementNotFound)
	}
	return res.Strategy, nil
}
