// internal/resolver/validate.go
package resolver

import (
	"sort"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
)

// Validate turns raw field id -> value assignments into instructions the fill
// executor can apply. Unknown ids and submit controls are dropped. Enumerable
// fields keep only declared option values, and arrays survive only on fields
// flagged multiple. Checkboxes and radios are coerced to booleans.
func Validate(form schemas.FormDescriptor, values map[string]schemas.FillValue) []schemas.FillInstruction {
	out := make([]schemas.FillInstruction, 0, len(values))
	for id, v := range values {
		field, ok := form.Field(id)
		if !ok || field.IsSubmitControl() {
			continue
		}
		if fv, ok := coerce(field, v); ok {
			out = append(out, schemas.FillInstruction{FieldID: id, Value: fv})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return schemas.FieldOrdinal(out[i].FieldID) < schemas.FieldOrdinal(out[j].FieldID)
	})
	return out
}

func coerce(field schemas.FieldDescriptor, v schemas.FillValue) (schemas.FillValue, bool) {
	switch {
	case field.IsCheckbox(), field.IsRadio():
		if v.Shape == schemas.ShapeArray && !field.Multiple {
			return schemas.FillValue{}, false
		}
		return schemas.BoolValue(v.Truthy()), true

	case field.IsEnumerable():
		if v.Shape == schemas.ShapeArray && !field.Multiple {
			return schemas.FillValue{}, false
		}
		var kept []string
		for _, s := range v.Strings() {
			if field.HasOption(s) {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			return schemas.FillValue{}, false
		}
		if field.Multiple {
			return schemas.ListValue(kept), true
		}
		return schemas.ScalarValue(kept[0]), true

	default:
		if v.Shape == schemas.ShapeArray {
			return schemas.FillValue{}, false
		}
		return schemas.ScalarValue(v.Text()), true
	}
}
