// internal/forms/extractor.go
package forms

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/browser/shim"
)

//go:embed js/eligible.js
var eligibleJS string

//go:embed js/extract.js
var extractJS string

//go:embed js/bind.js
var bindJS string

// MaxTextExcerpt bounds the rendered text captured per form.
const MaxTextExcerpt = 800

// MarkerAttribute carries the per-run marker that binds a page element to its field id.
const MarkerAttribute = "data-reachout-field"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Marker is a per-run identifier written onto bound elements.
type Marker string

// NewMarker returns a fresh marker.
func NewMarker() Marker {
	return Marker(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// Binding correlates the selected form's field ids with page elements.
type Binding struct {
	Marker    Marker
	FormIndex int
	FieldIDs  []string
}

// Selector returns the CSS selector of the element bound to fieldID.
func (b Binding) Selector(fieldID string) string {
	return SelectorFor(b.Marker, fieldID)
}

// FormSelector returns the CSS selector of the bound form element.
func (b Binding) FormSelector() string {
	return SelectorFor(b.Marker, "form")
}

// SelectorFor builds the marker selector for a field id.
func SelectorFor(m Marker, fieldID string) string {
	return fmt.Sprintf(`[%s="%s-%s"]`, MarkerAttribute, m, fieldID)
}

// rawField mirrors the JSON produced by extract.js.
type rawField struct {
	Tag         string                     `json:"tag"`
	Type        string                     `json:"type"`
	Name        string                     `json:"name"`
	Placeholder string                     `json:"placeholder"`
	Label       string                     `json:"label"`
	Multiple    bool                       `json:"multiple"`
	Options     []schemas.OptionDescriptor `json:"options"`
	Selected    []string                   `json:"selectedOptions"`
}

type rawForm struct {
	Index  int        `json:"index"`
	Text   string     `json:"text"`
	Fields []rawField `json:"fields"`
}

type bindResult struct {
	Found bool     `json:"found"`
	Bound []string `json:"bound"`
}

// Extractor converts the rendered page's forms into descriptors and binds
// markers onto the selected form.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger.Named("forms")}
}

// ExtractScript returns the page function that snapshots every form.
func ExtractScript() string {
	return shim.MustBuildPageFunction(extractJS, map[string]int{"maxText": MaxTextExcerpt}, eligibleJS)
}

// BindScript returns the page function that writes marker attributes onto the
// eligible fields of the form at formIndex.
func BindScript(formIndex int, m Marker) string {
	return shim.MustBuildPageFunction(bindJS, map[string]interface{}{
		"formIndex": formIndex,
		"marker":    string(m),
		"attribute": MarkerAttribute,
	}, eligibleJS)
}

// Extract returns one descriptor per form in document order. Field ids are
// assigned here, positionally over the eligible set the page reported.
func (e *Extractor) Extract(ctx context.Context, d schemas.Driver) ([]schemas.FormDescriptor, error) {
	raw, err := d.Evaluate(ctx, ExtractScript())
	if err != nil {
		return nil, fmt.Errorf("failed to extract forms: %w", err)
	}
	descriptors, err := ParseDescriptors(raw)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Extracted forms.", zap.Int("forms", len(descriptors)))
	return descriptors, nil
}

// Bind writes the marker onto the selected form's fields and scrolls it into view.
func (e *Extractor) Bind(ctx context.Context, d schemas.Driver, formIndex int, m Marker) (Binding, error) {
	raw, err := d.Evaluate(ctx, BindScript(formIndex, m))
	if err != nil {
		return Binding{}, fmt.Errorf("failed to bind markers on form %d: %w", formIndex, err)
	}
	var res bindResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return Binding{}, fmt.Errorf("malformed bind result: %w", err)
	}
	if !res.Found {
		return Binding{}, fmt.Errorf("form %d is no longer present: %w", formIndex, schemas.ErrElementNotFound)
	}
	return Binding{Marker: m, FormIndex: formIndex, FieldIDs: res.Bound}, nil
}

// ParseDescriptors normalizes the raw extraction payload.
func ParseDescriptors(raw string) ([]schemas.FormDescriptor, error) {
	var forms []rawForm
	if err := json.Unmarshal([]byte(raw), &forms); err != nil {
		return nil, fmt.Errorf("malformed extraction result: %w", err)
	}

	out := make([]schemas.FormDescriptor, 0, len(forms))
	for i, f := range forms {
		fd := schemas.FormDescriptor{
			Index:  i,
			Text:   truncateRunes(f.Text, MaxTextExcerpt),
			Fields: make([]schemas.FieldDescriptor, 0, len(f.Fields)),
		}
		for n, rf := range f.Fields {
			fd.Fields = append(fd.Fields, normalizeField(n, rf))
		}
		out = append(out, fd)
	}
	return out, nil
}

func normalizeField(n int, rf rawField) schemas.FieldDescriptor {
	fd := schemas.FieldDescriptor{
		ID:          schemas.FieldID(n),
		Tag:         strings.ToLower(rf.Tag),
		Type:        strings.ToLower(rf.Type),
		Name:        rf.Name,
		Placeholder: rf.Placeholder,
		Label:       strings.Join(strings.Fields(rf.Label), " "),
		Multiple:    rf.Multiple,
	}
	// Option lists only describe select-like fields.
	if fd.Tag == "select" {
		fd.Options = rf.Options
		if fd.Options == nil {
			fd.Options = []schemas.OptionDescriptor{}
		}
		fd.Selected = rf.Selected
	}
	return fd
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit])
}
