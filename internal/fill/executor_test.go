// internal/fill/executor_test.go
package fill

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

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

var binding = forms.Binding{Marker: "m1", FormIndex: 0, FieldIDs: []string{"f0", "f1", "f2", "f3", "f4"}}

func testForm() schemas.FormDescriptor {
	return schemas.FormDescriptor{
		Fields: []schemas.FieldDescriptor{
			{ID: "f0", Tag: "input", Type: "text", Name: "name"},
			{ID: "f1", Tag: "input", Type: "checkbox", Name: "consent"},
			{ID: "f2", Tag: "input", Type: "radio", Name: "kind"},
			{
				ID: "f3", Tag: "select", Type: "select-multiple", Multiple: true,
				Options: []schemas.OptionDescriptor{{Value: "a"}, {Value: "b"}, {Value: "c"}},
			},
			{ID: "f4", Tag: "textarea", Type: "textarea", Name: "message"},
		},
	}
}

func newExecutor(t *testing.T) *Executor {
	return NewExecutor(humanoid.NewPacer(config.PacingConfig{}, nil, nil), 50*time.Millisecond, zaptest.NewLogger(t))
}

func sel(id string) string { return binding.Selector(id) }

func TestApply_TypeAwarePrimary(t *testing.T) {
	d := new(mocks.MockDriver)
	d.On("WaitForSelector", mock.Anything, mock.Anything, 50*time.Millisecond).Return(true, nil)
	d.On("Fill", mock.Anything, sel("f0"), "Newt").Return(nil).Once()
	d.On("IsChecked", mock.Anything, sel("f1")).Return(false, nil).Once()
	d.On("Click", mock.Anything, sel("f1")).Return(nil).Once()
	d.On("Click", mock.Anything, sel("f2")).Return(nil).Once()
	d.On("SelectOptions", mock.Anything, sel("f3"), []string{"a", "c"}).Return(nil).Once()
	d.On("Fill", mock.Anything, sel("f4"), "Hello").Return(nil).Once()

	report, err := newExecutor(t).Apply(context.Background(), d, testForm(), binding, []schemas.FillInstruction{
		{FieldID: "f0", Value: schemas.ScalarValue("Newt")},
		{FieldID: "f1", Value: schemas.BoolValue(true)},
		{FieldID: "f2", Value: schemas.BoolValue(true)},
		{FieldID: "f3", Value: schemas.ListValue([]string{"a", "zzz", "c"})},
		{FieldID: "f4", Value: schemas.ScalarValue("Hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, Report{Filled: 5}, report)
	d.AssertExpectations(t)
}

func TestApply_CheckboxIsIdempotent(t *testing.T) {
	for _, state := range []bool{true, false} {
		d := new(mocks.MockDriver)
		d.On("WaitForSelector", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		d.On("IsChecked", mock.Anything, sel("f1")).Return(state, nil)

		in := []schemas.FillInstruction{{FieldID: "f1", Value: schemas.BoolValue(state)}}
		for i := 0; i < 3; i++ {
			_, err := newExecutor(t).Apply(context.Background(), d, testForm(), binding, in)
			require.NoError(t, err)
		}
		d.AssertNotCalled(t, "Click", mock.Anything, mock.Anything)
	}
}

func TestApply_RadioFalseDoesNotClick(t *testing.T) {
	d := new(mocks.MockDriver)
	d.On("WaitForSelector", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	report, err := newExecutor(t).Apply(context.Background(), d, testForm(), binding, []schemas.FillInstruction{
		{FieldID: "f2", Value: schemas.BoolValue(false)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Filled)
	d.AssertNotCalled(t, "Click", mock.Anything, mock.Anything)
}

func TestApply_HiddenCheckboxClickIsBoundedByFieldWait(t *testing.T) {
	d := mocks.NewScriptDriver()
	d.On("WaitForSelector", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	d.On("IsChecked", mock.Anything, sel("f1")).Return(false, nil)
	// The driver blocks until its context gives up, like a wait for visibility.
	d.On("Click", mock.Anything, sel("f1")).Return(context.DeadlineExceeded).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	})
	d.OnScript("dispatchEvent", func(string) (string, error) { return `{"ok":true}`, nil })

	start := time.Now()
	report, err := newExecutor(t).Apply(context.Background(), d, testForm(), binding, []schemas.FillInstruction{
		{FieldID: "f1", Value: schemas.BoolValue(true)},
	})
	require.NoError(t, err)
	assert.Equal(t, Report{FellBack: 1}, report)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestApply_FallbackOnPrimaryError(t *testing.T) {
	d := mocks.NewScriptDriver()
	d.On("WaitForSelector", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	d.On("Fill", mock.Anything, sel("f0"), "Newt").Return(errors.New("element not interactable"))

	var script string
	d.OnScript("dispatchEvent", func(s string) (string, error) {
		script = s
		return `{"ok":true}`, nil
	})

	report, err := newExecutor(t).Apply(context.Background(), d, testForm(), binding, []schemas.FillInstruction{
		{FieldID: "f0", Value: schemas.ScalarValue("Newt")},
	})
	require.NoError(t, err)
	assert.Equal(t, Report{FellBack: 1}, report)
	assert.Contains(t, script, `"selector":"[data-reachout-field=\"m1-f0\"]"`)
	assert.Contains(t, script, `"text":"Newt"`)
}

func TestApply_FallbackOnMissingMarker(t *testing.T) {
	d := mocks.NewScriptDriver()
	d.On("WaitForSelector", mock.Anything, sel("f3"), mock.Anything).Return(false, nil)

	var script string
	d.OnScript("dispatchEvent", func(s string) (string, error) {
		script = s
		return `{"ok":true}`, nil
	})

	report, err := newExecutor(t).Apply(context.Background(), d, testForm(), binding, []schemas.FillInstruction{
		{FieldID: "f3", Value: schemas.ListValue([]string{"b", "nope"})},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.FellBack)
	assert.Contains(t, script, `"values":["b"]`)
	assert.Contains(t, script, `"kind":"select"`)
	d.AssertNotCalled(t, "SelectOptions", mock.Anything, mock.Anything, mock.Anything)
}

func TestApply_BothStrategiesFailContinues(t *testing.T) {
	d := mocks.NewScriptDriver()
	d.On("WaitForSelector", mock.Anything, sel("f0"), mock.Anything).Return(false, nil)
	d.On("WaitForSelector", mock.Anything, sel("f4"), mock.Anything).Return(true, nil)
	d.On("Fill", mock.Anything, sel("f4"), "Hello").Return(nil).Once()
	d.OnScript("dispatchEvent", func(string) (string, error) {
		return `{"ok":false,"reason":"missing"}`, nil
	})

	report, err := newExecutor(t).Apply(context.Background(), d, testForm(), binding, []schemas.FillInstruction{
		{FieldID: "f0", Value: schemas.ScalarValue("Newt")},
		{FieldID: "f4", Value: schemas.ScalarValue("Hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, Report{Filled: 1, Failed: 1}, report)
	d.AssertExpectations(t)
}

func TestApply_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := new(mocks.MockDriver)
	d.On("WaitForSelector", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	d.On("Fill", mock.Anything, sel("f0"), mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(nil)

	_, err := newExecutor(t).Apply(ctx, d, testForm(), binding, []schemas.FillInstruction{
		{FieldID: "f0", Value: schemas.ScalarValue("Newt")},
		{FieldID: "f4", Value: schemas.ScalarValue("Hello")},
	})
	assert.ErrorIs(t, err, context.Canceled)
	d.AssertNotCalled(t, "Fill", mock.Anything, sel("f4"), mock.Anything)
}

func TestApply_ValueInputsSkipTyping(t *testing.T) {
	form := schemas.FormDescriptor{Fields: []schemas.FieldDescriptor{
		{ID: "f0", Tag: "input", Type: "range", Name: "budget"},
		{ID: "f1", Tag: "input", Type: "date", Name: "when"},
	}}
	d := mocks.NewScriptDriver()
	d.On("WaitForSelector", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	d.OnScript("dispatchEvent", func(string) (string, error) { return `{"ok":true}`, nil })

	report, err := newExecutor(t).Apply(context.Background(), d, form, binding, []schemas.FillInstruction{
		{FieldID: "f0", Value: schemas.ScalarValue("40")},
		{FieldID: "f1", Value: schemas.ScalarValue("2026-11-02")},
	})
	require.NoError(t, err)
	assert.Equal(t, Report{Filled: 2}, report)
	d.AssertNotCalled(t, "Fill", mock.Anything, mock.Anything, mock.Anything)

	scripts := d.EvaluatedScripts()
	require.Len(t, scripts, 2)
	assert.Contains(t, scripts[0], `"kind":"value"`)
	assert.Contains(t, scripts[0], `"text":"40"`)
	assert.Contains(t, scripts[1], `"text":"2026-11-02"`)
}

func TestApply_RejectedValueInputFails(t *testing.T) {
	form := schemas.FormDescriptor{Fields: []schemas.FieldDescriptor{{ID: "f0", Tag: "input", Type: "color"}}}
	d := mocks.NewScriptDriver()
	d.On("WaitForSelector", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	d.OnScript("dispatchEvent", func(string) (string, error) { return `{"ok":false,"reason":"value rejected"}`, nil })

	report, err := newExecutor(t).Apply(context.Background(), d, form, binding, []schemas.FillInstruction{
		{FieldID: "f0", Value: schemas.ScalarValue("blue")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
}

func TestKindOf(t *testing.T) {
	tests := map[string]schemas.FieldDescriptor{
		kindText:     {Tag: "input", Type: "email"},
		kindValue:    {Tag: "input", Type: "month"},
		kindCheckbox: {Tag: "input", Type: "checkbox"},
		kindRadio:    {Tag: "input", Type: "radio"},
		kindSelect:   {Tag: "select", Type: "select-one"},
	}
	for want, field := range tests {
		assert.Equal(t, want, kindOf(field), field.Type)
	}
	assert.Equal(t, kindText, kindOf(schemas.FieldDescriptor{Tag: "textarea", Type: "textarea"}))
}

func TestFallbackScriptShape(t *testing.T) {
	assert.True(t, strings.Contains(fallbackJS, `new Event("change"`))
	assert.True(t, strings.Contains(fallbackJS, `new Event("input"`))

	// An unchecked radio is left alone, as the primary path does.
	radio := fallbackJS[strings.Index(fallbackJS, `case "radio":`):]
	radio = radio[:strings.Index(radio, "break;")]
	assert.Contains(t, radio, "if (!args.checked)")
	assert.NotContains(t, radio, "el.checked = !!args.checked")
}

func TestDeclaredValues(t *testing.T) {
	field := testForm().Fields[3]
	assert.Equal(t, []string{"c"}, DeclaredValues(field, schemas.ScalarValue("c")))
	assert.Empty(t, DeclaredValues(field, schemas.BoolValue(true)))
}
