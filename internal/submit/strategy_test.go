// internal/submit/strategy_test.go
package submit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
)

func TestPlan(t *testing.T) {
	t.Run("submit control outranks everything", func(t *testing.T) {
		steps := Plan(Probe{
			Found: true,
			Controls: []Control{
				{ID: "s1", Kind: ControlGeneric, Visible: true, Enabled: true, Text: "Send Message"},
				{ID: "s0", Kind: ControlSubmit, Visible: true, Enabled: true, Text: "Go"},
			},
			HasRequestSubmit: true,
		})
		require.NotEmpty(t, steps)
		assert.Equal(t, Step{Strategy: schemas.StrategySubmitButton, ControlID: "s0"}, steps[0])
		assert.Equal(t, schemas.StrategyFallbackButton, steps[1].Strategy)
		assert.Equal(t, schemas.StrategyRequestSubmit, steps[len(steps)-1].Strategy)
	})

	t.Run("generic send button", func(t *testing.T) {
		steps := Plan(Probe{
			Found: true,
			Controls: []Control{
				{ID: "s0", Kind: ControlGeneric, Visible: true, Enabled: true, Text: "Send Message"},
			},
		})
		assert.Equal(t, []Step{
			{Strategy: schemas.StrategyFallbackButton, ControlID: "s0"},
			{Strategy: schemas.StrategyDispatchSubmit},
		}, steps)
	})

	t.Run("hidden and disabled controls are skipped", func(t *testing.T) {
		steps := Plan(Probe{
			Found: true,
			Controls: []Control{
				{ID: "s0", Kind: ControlSubmit, Visible: false, Enabled: true},
				{ID: "s1", Kind: ControlSubmit, Visible: true, Enabled: false},
				{ID: "s2", Kind: ControlGeneric, Visible: true, Enabled: true, Text: "Cancel"},
			},
			HasRequestSubmit: true,
		})
		assert.Equal(t, []Step{{Strategy: schemas.StrategyRequestSubmit}}, steps)
	})
}

func TestControlSelectors(t *testing.T) {
	// Only explicit submit types rank as submit controls.
	assert.Equal(t, `button[type="submit"], input[type="submit"]`, SubmitControlSelector)
	assert.Equal(t, `button, input[type="button"]`, GenericControlSelector)

	for _, sel := range []string{SubmitControlSelector, GenericControlSelector} {
		assert.NotContains(t, sel, ":not([type])")
		assert.NotContains(t, sel, "role=")
		assert.NotRegexp(t, `(^|,\s*)a(,|$)`, sel, "links never submit a form")
	}
}

func TestGenericButtonPattern(t *testing.T) {
	for _, text := range []string{"Send", "SUBMIT", "Continue", "Next step", "Apply now", "Contact sales"} {
		assert.True(t, GenericButtonPattern.MatchString(text), text)
	}
	for _, text := range []string{"Cancel", "Reset", "Back", ""} {
		assert.False(t, GenericButtonPattern.MatchString(text), text)
	}
}
