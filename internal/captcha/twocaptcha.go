// internal/captcha/twocaptcha.go
package captcha

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/config"
)

const notReady = "CAPCHA_NOT_READY"

// TwoCaptchaSolver solves reCAPTCHA v2 challenges through the 2captcha API.
type TwoCaptchaSolver struct {
	token      string
	endpoint   string
	poll       time.Duration
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTwoCaptchaSolver creates a solver. timeout bounds one whole solve pass.
func NewTwoCaptchaSolver(cfg config.CaptchaConfig, timeout time.Duration, logger *zap.Logger) (*TwoCaptchaSolver, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("2captcha token is required")
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}
	return &TwoCaptchaSolver{
		token:      cfg.Token,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		poll:       poll,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.Named("captcha.2captcha"),
	}, nil
}

type apiReply struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

// SolveChallenges solves every widget on the page in turn. Any failure is
// returned wrapped in schemas.ErrCaptchaUnsolved.
func (s *TwoCaptchaSolver) SolveChallenges(ctx context.Context, d schemas.Driver) (schemas.CaptchaReport, error) {
	det, err := Detect(ctx, d)
	if err != nil {
		return schemas.CaptchaReport{}, err
	}
	report := schemas.CaptchaReport{Detected: len(det.Widgets)}
	if report.Detected == 0 {
		return report, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for _, w := range det.Widgets {
		s.logger.Info("Solving challenge.", zap.String("sitekey", w.SiteKey))
		token, err := s.solve(ctx, w.SiteKey, det.PageURL)
		if err != nil {
			return report, fmt.Errorf("%w: %w", schemas.ErrCaptchaUnsolved, err)
		}
		if err := Inject(ctx, d, w, token); err != nil {
			return report, fmt.Errorf("%w: %w", schemas.ErrCaptchaUnsolved, err)
		}
		report.Solved++
	}
	return report, nil
}

func (s *TwoCaptchaSolver) solve(ctx context.Context, siteKey, pageURL string) (string, error) {
	q := url.Values{}
	q.Set("key", s.token)
	q.Set("method", "userrecaptcha")
	q.Set("googlekey", siteKey)
	q.Set("pageurl", pageURL)
	q.Set("json", "1")

	submitted, err := s.call(ctx, "/in.php", q)
	if err != nil {
		return "", err
	}
	if submitted.Status != 1 {
		return "", fmt.Errorf("2captcha rejected the task: %s", submitted.Request)
	}
	id := submitted.Request

	var token string
	operation := func() error {
		q := url.Values{}
		q.Set("key", s.token)
		q.Set("action", "get")
		q.Set("id", id)
		q.Set("json", "1")

		res, err := s.call(ctx, "/res.php", q)
		if err != nil {
			return err
		}
		switch {
		case res.Status == 1:
			token = res.Request
			return nil
		case res.Request == notReady:
			return fmt.Errorf("task %s not ready", id)
		default:
			return backoff.Permanent(fmt.Errorf("2captcha failed task %s: %s", id, res.Request))
		}
	}

	if err := backoff.Retry(operation, backoff.WithContext(backoff.NewConstantBackOff(s.poll), ctx)); err != nil {
		return "", err
	}
	return token, nil
}

func (s *TwoCaptchaSolver) call(ctx context.Context, path string, q url.Values) (apiReply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+path+"?"+q.Encode(), nil)
	if err != nil {
		return apiReply{}, backoff.Permanent(err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apiReply{}, fmt.Errorf("2captcha request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiReply{}, fmt.Errorf("failed to read 2captcha response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return apiReply{}, fmt.Errorf("2captcha returned status %d", resp.StatusCode)
	}
	var r apiReply
	if err := json.Unmarshal(body, &r); err != nil {
		return apiReply{}, backoff.Permanent(fmt.Errorf("malformed 2captcha response: %w", err))
	}
	return r, nil
}
