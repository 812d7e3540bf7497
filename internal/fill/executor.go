// internal/fill/executor.go
package fill

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/browser/shim"
	"github.com/xkilldash9x/reachout-cli/internal/forms"
	"github.com/xkilldash9x/reachout-cli/internal/humanoid"
)

//go:embed js/fallback.js
var fallbackJS string

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Field kinds shared with the fallback script.
const (
	kindCheckbox = "checkbox"
	kindRadio    = "radio"
	kindSelect   = "select"
	kindText     = "text"
	// kindValue covers inputs whose value typed keys cannot set.
	kindValue = "value"
)

// valueInputTypes are written through the value setter instead of typed.
var valueInputTypes = map[string]bool{
	"range":          true,
	"date":           true,
	"time":           true,
	"datetime-local": true,
	"month":          true,
	"week":           true,
	"color":          true,
}

// Report tallies the outcome of one fill pass.
type Report struct {
	Filled   int
	FellBack int
	Failed   int
}

// Executor applies fill instructions to the bound form, one field at a time.
type Executor struct {
	pacer     *humanoid.Pacer
	fieldWait time.Duration
	logger    *zap.Logger
}

// NewExecutor creates an Executor. fieldWait bounds the wait for each marker.
func NewExecutor(pacer *humanoid.Pacer, fieldWait time.Duration, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{pacer: pacer, fieldWait: fieldWait, logger: logger.Named("fill")}
}

// Apply fills every instruction best-effort. A field whose primary and
// fallback strategies both fail is left unfilled; only cancellation of ctx
// aborts the pass.
func (e *Executor) Apply(ctx context.Context, d schemas.Driver, form schemas.FormDescriptor, b forms.Binding, instructions []schemas.FillInstruction) (Report, error) {
	var report Report

	for _, in := range instructions {
		field, ok := form.Field(in.FieldID)
		if !ok {
			report.Failed++
			continue
		}
		selector := b.Selector(in.FieldID)
		log := e.logger.With(zap.String("field", in.FieldID), zap.String("kind", kindOf(field)))

		err := e.primary(ctx, d, field, selector, in.Value)
		switch {
		case err == nil:
			report.Filled++
		case ctx.Err() != nil:
			return report, ctx.Err()
		default:
			log.Debug("Primary fill failed, falling back to DOM write.", zap.Error(err))
			if ferr := e.fallback(ctx, d, field, selector, in.Value); ferr != nil {
				log.Warn("Leaving field unfilled.", zap.Error(ferr))
				report.Failed++
			} else {
				report.FellBack++
			}
		}

		if err := e.pacer.AfterField(ctx); err != nil {
			return report, err
		}
	}

	e.logger.Info("Fill pass complete.",
		zap.Int("filled", report.Filled),
		zap.Int("fell_back", report.FellBack),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (e *Executor) primary(ctx context.Context, d schemas.Driver, field schemas.FieldDescriptor, selector string, v schemas.FillValue) error {
	found, err := d.WaitForSelector(ctx, selector, e.fieldWait)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("marker %s not present: %w", selector, schemas.ErrElementNotFound)
	}

	switch kindOf(field) {
	case kindCheckbox:
		checked, err := d.IsChecked(ctx, selector)
		if err != nil {
			return err
		}
		if checked == v.Truthy() {
			return nil
		}
		return e.click(ctx, d, selector)

	case kindRadio:
		if !v.Truthy() {
			return nil
		}
		return e.click(ctx, d, selector)

	case kindSelect:
		return d.SelectOptions(ctx, selector, DeclaredValues(field, v))

	case kindValue:
		return e.fallback(ctx, d, field, selector, v)

	default:
		return d.Fill(ctx, selector, v.Text())
	}
}

// click bounds a field click by fieldWait, so a control hidden behind custom
// styling falls back quickly instead of waiting out the driver timeout.
func (e *Executor) click(ctx context.Context, d schemas.Driver, selector string) error {
	if e.fieldWait <= 0 {
		return d.Click(ctx, selector)
	}
	clickCtx, cancel := context.WithTimeout(ctx, e.fieldWait)
	defer cancel()
	return d.Click(clickCtx, selector)
}

type fallbackArgs struct {
	Selector string   `json:"selector"`
	Kind     string   `json:"kind"`
	Checked  bool     `json:"checked"`
	Values   []string `json:"values"`
	Text     string   `json:"text"`
}

type fallbackResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason"`
}

func (e *Executor) fallback(ctx context.Context, d schemas.Driver, field schemas.FieldDescriptor, selector string, v schemas.FillValue) error {
	args := fallbackArgs{Selector: selector, Kind: kindOf(field), Text: v.Text()}
	switch args.Kind {
	case kindCheckbox, kindRadio:
		args.Checked = v.Truthy()
	case kindSelect:
		args.Values = DeclaredValues(field, v)
	}

	script, err := shim.BuildPageFunction(fallbackJS, args)
	if err != nil {
		return err
	}
	raw, err := d.Evaluate(ctx, script)
	if err != nil {
		return fmt.Errorf("fallback script failed: %w", err)
	}
	var res fallbackResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return fmt.Errorf("malformed fallback result: %w", err)
	}
	if !res.OK {
		return fmt.Errorf("fallback could not apply value: %s", res.Reason)
	}
	return nil
}

// DeclaredValues coerces v to text and keeps only the field's declared options.
func DeclaredValues(field schemas.FieldDescriptor, v schemas.FillValue) []string {
	values := make([]string, 0, len(v.Strings()))
	for _, s := range v.Strings() {
		if field.HasOption(s) {
			values = append(values, s)
		}
	}
	return values
}

func kindOf(field schemas.FieldDescriptor) string {
	switch {
	case field.IsCheckbox():
		return kindCheckbox
	case field.IsRadio():
		return kindRadio
	case field.IsEnumerable():
		return kindSelect
	case field.Tag == "input" && valueInputTypes[field.Type]:
		return kindValue
	default:
		return kindText
	}
}
