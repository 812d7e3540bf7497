// internal/resolver/resolver.go
package resolver

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/llmclient"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Resolver asks the oracle which form to fill and with what, then validates
// its answers against the descriptors they were computed from.
type Resolver struct {
	oracle      schemas.LLMClient
	profile     schemas.Profile
	temperature float64
	logger      *zap.Logger
}

// New creates a Resolver for one profile.
func New(oracle schemas.LLMClient, profile schemas.Profile, temperature float64, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		oracle:      oracle,
		profile:     profile,
		temperature: temperature,
		logger:      logger.Named("resolver"),
	}
}

// classifyReply is loosely typed; a malformed field_mapping must not cost a
// valid form_index.
type classifyReply struct {
	FormIndex    interface{} `json:"form_index"`
	FieldMapping interface{} `json:"field_mapping"`
}

// Classify picks the contact form among forms. An absent, malformed or
// out-of-range answer yields a decision with Found false and no error; only
// oracle transport failures are returned.
func (r *Resolver) Classify(ctx context.Context, forms []schemas.FormDescriptor) (schemas.ClassificationDecision, error) {
	if len(forms) == 0 {
		return schemas.ClassificationDecision{}, nil
	}

	payload, err := json.Marshal(forms)
	if err != nil {
		return schemas.ClassificationDecision{}, fmt.Errorf("failed to encode form descriptors: %w", err)
	}

	reply, err := r.oracle.Generate(ctx, r.request(classifySystemPrompt, string(payload)))
	if err != nil {
		return schemas.ClassificationDecision{}, fmt.Errorf("classification request failed: %w", err)
	}

	var parsed classifyReply
	if err := llmclient.DecodeJSON(reply, &parsed); err != nil {
		r.logger.Warn("Discarding unusable classification reply.", zap.Error(err))
		return schemas.ClassificationDecision{}, nil
	}

	idx, ok := parseIndex(parsed.FormIndex)
	if !ok || idx < 0 || idx >= len(forms) {
		r.logger.Debug("Oracle selected no form.", zap.Any("form_index", parsed.FormIndex))
		return schemas.ClassificationDecision{}, nil
	}

	mapping, ok := parsed.FieldMapping.(map[string]interface{})
	if !ok && parsed.FieldMapping != nil {
		r.logger.Debug("Ignoring field_mapping that is not an object.", zap.Any("field_mapping", parsed.FieldMapping))
	}
	return schemas.ClassificationDecision{FormIndex: idx, Found: true, Roles: stringRoles(mapping)}, nil
}

// Resolve produces validated fill instructions for the winning form, in field
// order. Roles carried by the decision are resolved locally; otherwise the
// oracle is asked for direct values. An empty result means "skip this page".
func (r *Resolver) Resolve(ctx context.Context, form schemas.FormDescriptor, decision schemas.ClassificationDecision) ([]schemas.FillInstruction, error) {
	if len(decision.Roles) > 0 {
		return Validate(form, r.valuesFromRoles(decision.Roles)), nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"values": r.profile.Values(),
		"form":   form.Fields,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode mapping request: %w", err)
	}

	reply, err := r.oracle.Generate(ctx, r.request(mapSystemPrompt, string(payload)))
	if err != nil {
		return nil, fmt.Errorf("mapping request failed: %w", err)
	}

	var raw map[string]interface{}
	if err := llmclient.DecodeJSON(reply, &raw); err != nil {
		r.logger.Warn("Discarding unusable mapping reply.", zap.Error(err))
		return nil, nil
	}

	// Some replies wrap a role mapping instead of answering with values.
	if nested, ok := raw["field_mapping"].(map[string]interface{}); ok && len(raw) == 1 {
		return Validate(form, r.valuesFromRoles(stringRoles(nested))), nil
	}

	values := make(map[string]schemas.FillValue, len(raw))
	for id, v := range raw {
		if fv, ok := toFillValue(v); ok {
			values[id] = fv
		}
	}
	return Validate(form, values), nil
}

func (r *Resolver) valuesFromRoles(roles map[string]string) map[string]schemas.FillValue {
	values := make(map[string]schemas.FillValue, len(roles))
	for id, role := range roles {
		v, ok := r.profile.Lookup(role)
		if !ok {
			v = r.profile.Unknown
		}
		values[id] = schemas.ScalarValue(v)
	}
	return values
}

func (r *Resolver) request(system, user string) schemas.GenerationRequest {
	return schemas.GenerationRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		Options: schemas.GenerationOptions{
			Temperature:     r.temperature,
			ForceJSONFormat: true,
		},
	}
}

func stringRoles(m map[string]interface{}) map[string]string {
	if len(m) == 0 {
		return nil
	}
	roles := make(map[string]string, len(m))
	for id, v := range m {
		if s, ok := v.(string); ok {
			roles[id] = s
		}
	}
	return roles
}

// parseIndex accepts integral numbers and numeric strings.
func parseIndex(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}

func toFillValue(v interface{}) (schemas.FillValue, bool) {
	switch t := v.(type) {
	case string:
		return schemas.ScalarValue(t), true
	case bool:
		return schemas.BoolValue(t), true
	case float64:
		return schemas.ScalarValue(strconv.FormatFloat(t, 'f', -1, 64)), true
	case []interface{}:
		list := make([]string, 0, len(t))
		for _, item := range t {
			fv, ok := toFillValue(item)
			if !ok || fv.Shape == schemas.ShapeArray {
				continue
			}
			list = append(list, fv.Text())
		}
		return schemas.ListValue(list), true
	}
	return schemas.FillValue{}, false
}
