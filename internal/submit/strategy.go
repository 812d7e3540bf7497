// internal/submit/strategy.go
package submit

import (
	"regexp"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
)

// GenericButtonPattern matches the text of non-submit controls that still send a form.
var GenericButtonPattern = regexp.MustCompile(`(?i)send|submit|continue|next|apply|contact`)

// Control sets searched inside the form, in priority order. Untyped buttons,
// links and ARIA buttons are deliberately not submit controls: they only
// qualify as generic buttons, and then only through GenericButtonPattern.
const (
	SubmitControlSelector  = `button[type="submit"], input[type="submit"]`
	GenericControlSelector = `button, input[type="button"]`
)

// Control kinds reported by the probe.
const (
	ControlSubmit  = "submit"
	ControlGeneric = "generic"
)

// Control is one clickable element found inside the form.
type Control struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Visible bool   `json:"visible"`
	Enabled bool   `json:"enabled"`
	Text    string `json:"text"`
}

// Probe is the page's answer to "how could this form be submitted".
type Probe struct {
	Found            bool      `json:"found"`
	Controls         []Control `json:"controls"`
	HasRequestSubmit bool      `json:"hasRequestSubmit"`
}

// Step is one attempt in a submission plan. ControlID is set for click steps.
type Step struct {
	Strategy  schemas.SubmitStrategy
	ControlID string
}

// Plan orders every applicable strategy by priority. Click steps come first,
// one per eligible control. A single scripted step closes the plan; it starts
// at the native trigger when the page supports it and otherwise at the
// dispatched submit event, falling through to forced submission in the page.
func Plan(p Probe) []Step {
	var steps []Step
	for _, c := range p.Controls {
		if c.Kind == ControlSubmit && c.Visible && c.Enabled {
			steps = append(steps, Step{Strategy: schemas.StrategySubmitButton, ControlID: c.ID})
		}
	}
	for _, c := range p.Controls {
		if c.Kind == ControlGeneric && c.Visible && c.Enabled && GenericButtonPattern.MatchString(c.Text) {
			steps = append(steps, Step{Strategy: schemas.StrategyFallbackButton, ControlID: c.ID})
		}
	}
	if p.HasRequestSubmit {
		return append(steps, Step{Strategy: schemas.StrategyRequestSubmit})
	}
	return append(steps, Step{Strategy: schemas.StrategyDispatchSubmit})
}
