// internal/captcha/captcha.go
package captcha

import (
	"context"
	_ "embed"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/browser/shim"
)

//go:embed js/detect.js
var detectJS string

//go:embed js/inject.js
var injectJS string

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Widget is one reCAPTCHA challenge found on the page.
type Widget struct {
	SiteKey  string `json:"sitekey"`
	Callback string `json:"callback"`
}

// Detection lists the challenges on the current page.
type Detection struct {
	PageURL string   `json:"pageUrl"`
	Widgets []Widget `json:"widgets"`
}

// Detect finds reCAPTCHA widgets on the current page.
func Detect(ctx context.Context, d schemas.Driver) (Detection, error) {
	raw, err := d.Evaluate(ctx, shim.MustBuildPageFunction(detectJS, nil))
	if err != nil {
		return Detection{}, fmt.Errorf("failed to detect challenges: %w", err)
	}
	var det Detection
	if err := json.Unmarshal([]byte(raw), &det); err != nil {
		return Detection{}, fmt.Errorf("malformed detection result: %w", err)
	}
	return det, nil
}

// Inject writes a solved token into the page and fires the widget callback.
func Inject(ctx context.Context, d schemas.Driver, w Widget, token string) error {
	script, err := shim.BuildPageFunction(injectJS, map[string]string{"token": token, "callback": w.Callback})
	if err != nil {
		return err
	}
	if _, err := d.Evaluate(ctx, script); err != nil {
		return fmt.Errorf("failed to inject challenge token: %w", err)
	}
	return nil
}

// NoopSolver is used when no solver token is configured. It reports challenges
// it sees and leaves them in place.
type NoopSolver struct {
	logger *zap.Logger
}

// NewNoopSolver creates a NoopSolver.
func NewNoopSolver(logger *zap.Logger) *NoopSolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopSolver{logger: logger.Named("captcha")}
}

// SolveChallenges only detects. Detection errors are logged, never returned.
func (s *NoopSolver) SolveChallenges(ctx context.Context, d schemas.Driver) (schemas.CaptchaReport, error) {
	det, err := Detect(ctx, d)
	if err != nil {
		s.logger.Debug("Challenge detection failed.", zap.Error(err))
		return schemas.CaptchaReport{}, nil
	}
	if len(det.Widgets) > 0 {
		s.logger.Warn("Challenge present but no solver is configured; submitting anyway.", zap.Int("widgets", len(det.Widgets)))
	}
	return schemas.CaptchaReport{Detected: len(det.Widgets)}, nil
}
