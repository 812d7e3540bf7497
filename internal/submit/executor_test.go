// internal/submit/executor_test.go
package submit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/config"
	"github.com/xkilldash9x/reachout-cli/internal/forms"
	"github.com/xkilldash9x/reachout-cli/internal/humanoid"
	"github.com/xkilldash9x/reachout-cli/internal/mocks"
)

var binding = forms.Binding{Marker: "run1", FormIndex: 0}

func newExecutor(t *testing.T) *Executor {
	return NewExecutor(humanoid.NewPacer(config.PacingConfig{}, nil, nil), zaptest.NewLogger(t))
}

func probeReply(p string) func(string) (string, error) {
	return func(string) (string, error) { return p, nil }
}

func TestSubmit_ClicksSubmitControl(t *testing.T) {
	d := mocks.NewScriptDriver()
	d.OnScript("hasRequestSubmit", probeReply(`{"found":true,"hasRequestSubmit":true,"controls":[
		{"id":"s0","kind":"submit","visible":true,"enabled":true,"text":"Send"}]}`))
	d.On("ScrollIntoView", mock.Anything, `[data-reachout-field="run1-s0"]`).Return(nil)
	d.On("Click", mock.Anything, `[data-reachout-field="run1-s0"]`).Return(nil).Once()

	got, err := newExecutor(t).Submit(context.Background(), d, binding)
	require.NoError(t, err)
	assert.Equal(t, schemas.StrategySubmitButton, got)
	d.AssertExpectations(t)
}

func TestSubmit_ProbeSearchesOnlyFormControls(t *testing.T) {
	d := mocks.NewScriptDriver()
	var probeScript string
	d.OnScript("hasRequestSubmit", func(s string) (string, error) {
		probeScript = s
		return `{"found":true,"hasRequestSubmit":true,"controls":[]}`, nil
	})
	d.OnScript("nativeSubmit", probeReply(`{"strategy":"request-submit"}`))

	got, err := newExecutor(t).Submit(context.Background(), d, binding)
	require.NoError(t, err)
	assert.Equal(t, schemas.StrategyRequestSubmit, got)

	submitSel, err := json.Marshal(SubmitControlSelector)
	require.NoError(t, err)
	genericSel, err := json.Marshal(GenericControlSelector)
	require.NoError(t, err)
	assert.Contains(t, probeScript, `"submitSelector":`+string(submitSel))
	assert.Contains(t, probeScript, `"genericSelector":`+string(genericSel))
	assert.NotContains(t, probeScript, "button:not([type])")
	assert.NotContains(t, probeScript, "role=")
}

func TestSubmit_FallsThroughFailedClicks(t *testing.T) {
	d := mocks.NewScriptDriver()
	d.OnScript("hasRequestSubmit", probeReply(`{"found":true,"hasRequestSubmit":true,"controls":[
		{"id":"s0","kind":"submit","visible":true,"enabled":true,"text":""},
		{"id":"s1","kind":"generic","visible":true,"enabled":true,"text":"Send Message"}]}`))
	d.On("ScrollIntoView", mock.Anything, mock.Anything).Return(nil)
	d.On("Click", mock.Anything, `[data-reachout-field="run1-s0"]`).Return(errors.New("covered by overlay"))
	d.On("Click", mock.Anything, `[data-reachout-field="run1-s1"]`).Return(errors.New("covered by overlay"))

	var fireScript string
	d.OnScript("nativeSubmit", func(s string) (string, error) {
		fireScript = s
		return `{"strategy":"request-submit"}`, nil
	})

	got, err := newExecutor(t).Submit(context.Background(), d, binding)
	require.NoError(t, err)
	assert.Equal(t, schemas.StrategyRequestSubmit, got)
	assert.Contains(t, fireScript, `"requestSubmit":true`)
	d.AssertNumberOfCalls(t, "Click", 2)
}

func TestSubmit_ScriptedWithoutRequestSubmit(t *testing.T) {
	d := mocks.NewScriptDriver()
	d.OnScript("hasRequestSubmit", probeReply(`{"found":true,"hasRequestSubmit":false,"controls":[]}`))
	var fireScript string
	d.OnScript("nativeSubmit", func(s string) (string, error) {
		fireScript = s
		return `{"strategy":"forced-submit"}`, nil
	})

	got, err := newExecutor(t).Submit(context.Background(), d, binding)
	require.NoError(t, err)
	assert.Equal(t, schemas.StrategyForcedSubmit, got)
	assert.Contains(t, fireScript, `"requestSubmit":false`)
}

func TestSubmit_FormVanished(t *testing.T) {
	d := mocks.NewScriptDriver()
	d.OnScript("hasRequestSubmit", probeReply(`{"found":false,"hasRequestSubmit":false,"controls":[]}`))

	got, err := newExecutor(t).Submit(context.Background(), d, binding)
	assert.ErrorIs(t, err, schemas.ErrElementNotFound)
	assert.Equal(t, schemas.StrategyNone, got)
}

func TestSubmit_ProbeError(t *testing.T) {
	d := mocks.NewScriptDriver()
	d.OnScript("hasRequestSubmit", func(string) (string, error) { return "", errors.New("target crashed") })

	_, err := newExecutor(t).Submit(context.Background(), d, binding)
	assert.ErrorContains(t, err, "target crashed")
}
