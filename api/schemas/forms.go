package schemas

import (
	"encoding/json"
	"strconv"
	"strings"
)

// -- Form Schemas --

// OptionDescriptor is one entry of a select-like field.
type OptionDescriptor struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
	Selected bool   `json:"selected"`
	// Optgroup is the owning optgroup label, empty when the option is ungrouped.
	Optgroup string `json:"optgroup,omitempty"`
}

// FieldDescriptor is a snapshot of one fillable control at extraction time.
type FieldDescriptor struct {
	ID          string             `json:"id"`
	Tag         string             `json:"tag"`
	Type        string             `json:"type"`
	Name        string             `json:"name"`
	Placeholder string             `json:"placeholder"`
	Label       string             `json:"label"`
	Multiple    bool               `json:"multiple"`
	Options     []OptionDescriptor `json:"options,omitempty"`
	Selected    []string           `json:"selectedOptions,omitempty"`
}

// FormDescriptor is a snapshot of one form's text and eligible fields.
type FormDescriptor struct {
	Index  int               `json:"index"`
	Text   string            `json:"text"`
	Fields []FieldDescriptor `json:"fields"`
}

// IsEnumerable reports whether the field only accepts its declared option values.
func (f FieldDescriptor) IsEnumerable() bool {
	return f.Tag == "select"
}

func (f FieldDescriptor) IsCheckbox() bool { return f.Tag == "input" && f.Type == "checkbox" }

func (f FieldDescriptor) IsRadio() bool { return f.Tag == "input" && f.Type == "radio" }

// IsSubmitControl reports whether the field is a button-like input that carries no value to fill.
func (f FieldDescriptor) IsSubmitControl() bool {
	if f.Tag != "input" {
		return false
	}
	switch f.Type {
	case "submit", "button", "reset", "image":
		return true
	}
	return false
}

// HasOption reports whether value is one of the field's declared option values.
func (f FieldDescriptor) HasOption(value string) bool {
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Field returns the descriptor with the given id.
func (fd FormDescriptor) Field(id string) (FieldDescriptor, bool) {
	for _, f := range fd.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// -- Decision & Instruction Schemas --

// ClassificationDecision is the oracle's answer to "which form is the contact form".
type ClassificationDecision struct {
	FormIndex int  `json:"form_index"`
	Found     bool `json:"found"`
	// Roles optionally maps field ids to semantic roles resolved against the profile.
	Roles map[string]string `json:"field_mapping,omitempty"`
}

// ValueShape tags the shape of a FillValue.
type ValueShape int

const (
	ShapeScalar ValueShape = iota
	ShapeBoolean
	ShapeArray
)

func (s ValueShape) String() string {
	switch s {
	case ShapeBoolean:
		return "boolean"
	case ShapeArray:
		return "array"
	default:
		return "scalar"
	}
}

// FillValue is a scalar, a boolean or an array of scalars.
type FillValue struct {
	Shape  ValueShape
	Scalar string
	Bool   bool
	List   []string
}

func ScalarValue(s string) FillValue { return FillValue{Shape: ShapeScalar, Scalar: s} }
func BoolValue(b bool) FillValue { return FillValue{Shape: ShapeBoolean, Bool: b} }
func ListValue(l []string) FillValue { return FillValue{Shape: ShapeArray, List: l} }

// Truthy is the desired checked state when the value targets a checkbox or radio.
func (v FillValue) Truthy() bool {
	switch v.Shape {
	case ShapeBoolean:
		return v.Bool
	case ShapeArray:
		return len(v.List) > 0
	default:
		s := strings.TrimSpace(strings.ToLower(v.Scalar))
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		switch s {
		case "", "no", "off", "unchecked", "0":
			return false
		}
		return true
	}
}

// Strings coerces the value to text entries for select-like fields.
func (v FillValue) Strings() []string {
	switch v.Shape {
	case ShapeArray:
		return append([]string(nil), v.List...)
	case ShapeBoolean:
		return []string{strconv.FormatBool(v.Bool)}
	default:
		return []string{v.Scalar}
	}
}

// Text coerces the value to a single string for free-text fields.
func (v FillValue) Text() string {
	switch v.Shape {
	case ShapeArray:
		return strings.Join(v.List, ", ")
	case ShapeBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Scalar
	}
}

// MarshalJSON renders the value in its natural JSON shape.
func (v FillValue) MarshalJSON() ([]byte, error) {
	switch v.Shape {
	case ShapeBoolean:
		return json.Marshal(v.Bool)
	case ShapeArray:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	default:
		return json.Marshal(v.Scalar)
	}
}

// FillInstruction is a resolved field id -> value assignment.
type FillInstruction struct {
	FieldID string    `json:"field_id"`
	Value   FillValue `json:"value"`
}

// FieldOrdinal extracts N from a field id of the form "fN", or -1.
func FieldOrdinal(id string) int {
	if !strings.HasPrefix(id, "f") {
		return -1
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// FieldID builds the positional id for the n-th eligible field.
func FieldID(n int) string {
	return "f" + strconv.Itoa(n)
}
