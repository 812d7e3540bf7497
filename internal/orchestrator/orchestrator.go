// File: internal/orchestrator/orchestrator.go
// Description: Runs the contact form pipeline for one target. It is injected
// with a launcher, an oracle and a captcha solver through interfaces so the
// whole state machine runs against mocks in tests.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/browser"
	"github.com/xkilldash9x/reachout-cli/internal/config"
	"github.com/xkilldash9x/reachout-cli/internal/discovery"
	"github.com/xkilldash9x/reachout-cli/internal/fill"
	"github.com/xkilldash9x/reachout-cli/internal/forms"
	"github.com/xkilldash9x/reachout-cli/internal/humanoid"
	"github.com/xkilldash9x/reachout-cli/internal/resolver"
	"github.com/xkilldash9x/reachout-cli/internal/submit"
)

// errorShotTimeout bounds the diagnostic capture taken on failure.
const errorShotTimeout = 10 * time.Second

// Pipeline sequences discovery, extraction, resolution, fill and submission
// over the candidate pages of one site.
type Pipeline struct {
	cfg      *config.Config
	logger   *zap.Logger
	launcher schemas.Launcher
	oracle   schemas.LLMClient
	solver   schemas.CaptchaSolver

	links     *discovery.LinkFilter
	extractor *forms.Extractor
	filler    *fill.Executor
	submitter *submit.Executor

	// newMarker is swapped in tests for a predictable marker.
	newMarker func() forms.Marker
}

// New validates cfg and builds a Pipeline. A configuration error is returned
// before anything is launched.
func New(
	cfg *config.Config,
	launcher schemas.Launcher,
	oracle schemas.LLMClient,
	solver schemas.CaptchaSolver,
	logger *zap.Logger,
) (*Pipeline, error) {
	if cfg == nil || launcher == nil || oracle == nil || solver == nil {
		return nil, fmt.Errorf("cannot initialize pipeline with nil dependencies")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	links, err := discovery.NewLinkFilter(cfg.Discovery.IncludePattern, cfg.Discovery.ExcludePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schemas.ErrInvalidConfig, err)
	}

	pacer := humanoid.NewPacer(cfg.Pacing, nil, logger)
	return &Pipeline{
		cfg:       cfg,
		logger:    logger.Named("orchestrator"),
		launcher:  launcher,
		oracle:    oracle,
		solver:    solver,
		links:     links,
		extractor: forms.NewExtractor(logger),
		filler:    fill.NewExecutor(pacer, cfg.Timeouts.FieldWait, logger),
		submitter: submit.NewExecutor(pacer, logger),
		newMarker: forms.NewMarker,
	}, nil
}

// stageError tags a fatal error with the run-level code it maps to.
type stageError struct {
	code schemas.ErrorCode
	err  error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func fatal(code schemas.ErrorCode, err error) error {
	return &stageError{code: code, err: err}
}

// CodeOf maps an error to its run-level code.
func CodeOf(err error) schemas.ErrorCode {
	var se *stageError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return schemas.CodeCanceled
	case errors.Is(err, schemas.ErrInvalidConfig):
		return schemas.CodeConfigError
	case errors.As(err, &se):
		return se.code
	default:
		return schemas.CodeDriverError
	}
}

// FailedResult renders err as the run's failed status.
func FailedResult(startURL string, err error) schemas.RunResult {
	return schemas.Failed(startURL, CodeOf(err), err)
}

// run is the state of one pipeline execution.
type run struct {
	*Pipeline
	target   schemas.Target
	driver   schemas.Driver
	resolver *resolver.Resolver
	logger   *zap.Logger
}

// Run executes the pipeline for target. It always returns exactly one result;
// panics inside the run are converted into a failed status.
func (p *Pipeline) Run(ctx context.Context, target schemas.Target) (result schemas.RunResult) {
	logger := p.logger.With(zap.String("start_url", target.StartURL))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Pipeline panicked.", zap.Any("panic", r), zap.Stack("stack"))
			result = schemas.Failed(target.StartURL, schemas.CodePanic, fmt.Errorf("internal error: %v", r))
		}
	}()

	if err := validateStartURL(target.StartURL); err != nil {
		logger.Error("Rejecting target.", zap.Error(err))
		return FailedResult(target.StartURL, err)
	}

	logger.Info("Launching browser.")
	driver, err := p.launcher.Launch(ctx)
	if err != nil {
		logger.Error("Browser launch failed.", zap.Error(err))
		return FailedResult(target.StartURL, fatal(schemas.CodeLaunchFailed, err))
	}
	defer func() {
		if err := driver.Close(); err != nil {
			logger.Warn("Failed to close browser.", zap.Error(err))
		}
	}()

	r := &run{
		Pipeline: p,
		target:   target,
		driver:   driver,
		resolver: resolver.New(p.oracle, p.cfg.Profile.Merge(target.Profile), p.cfg.Oracle.Temperature, p.logger),
		logger:   logger,
	}

	result = r.execute(ctx)
	switch result.Status {
	case schemas.StatusFailed:
		logger.Error("Run failed.", zap.String("code", string(result.Code)), zap.String("error", result.Error))
	default:
		logger.Info("Run finished.", zap.String("status", string(result.Status)), zap.Bool("submitted", result.Submitted))
	}
	return result
}

func validateStartURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: startUrl is required", schemas.ErrInvalidConfig)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: startUrl %q is not an absolute http(s) address", schemas.ErrInvalidConfig, raw)
	}
	return nil
}

func (r *run) execute(ctx context.Context) schemas.RunResult {
	candidates, err := r.discover(ctx)
	if err != nil {
		r.errorShot(ctx)
		return FailedResult(r.target.StartURL, err)
	}

	for i, page := range candidates {
		if err := ctx.Err(); err != nil {
			return FailedResult(r.target.StartURL, err)
		}
		log := r.logger.With(zap.String("page", page), zap.Int("candidate", i))

		outcome, submitted, err := r.attempt(ctx, page, log)
		if err != nil {
			r.errorShot(ctx)
			return FailedResult(r.target.StartURL, err)
		}
		if submitted {
			return schemas.Succeeded(r.target.StartURL, outcome)
		}
	}

	r.logger.Info("No usable contact form on any candidate page.", zap.Int("candidates", len(candidates)))
	return schemas.NotFound(r.target.StartURL)
}

// discover loads the start page once and ranks its outbound links.
func (r *run) discover(ctx context.Context) ([]string, error) {
	r.logger.Info("Discovering candidate pages.")
	if err := r.driver.Navigate(ctx, r.target.StartURL); err != nil {
		return nil, fatal(schemas.CodeDiscovery, err)
	}

	base := r.target.StartURL
	if current, err := r.driver.CurrentURL(ctx); err == nil && current != "" {
		base = current
	}

	html, err := r.driver.Snapshot(ctx)
	if err != nil {
		return nil, fatal(schemas.CodeDiscovery, fmt.Errorf("failed to read start page: %w", err))
	}
	links, err := discovery.ExtractLinks(html, base)
	if err != nil {
		return nil, fatal(schemas.CodeDiscovery, err)
	}

	filter := r.links
	if r.cfg.Discovery.SameSiteOnly {
		scope, err := discovery.NewSiteScope(r.target.StartURL)
		if err != nil {
			return nil, fatal(schemas.CodeDiscovery, err)
		}
		filter = filter.WithScope(scope)
	}

	baseURL, _ := url.Parse(base)
	candidates := discovery.CandidatePages(r.target.StartURL, filter.Filter(baseURL, links))
	r.logger.Info("Candidate pages ranked.", zap.Int("links", len(links)), zap.Strings("candidates", candidates))
	return candidates, nil
}

// attempt runs one candidate page. It returns submitted false with a nil
// error for every recoverable condition, so the caller moves on.
func (r *run) attempt(ctx context.Context, page string, log *zap.Logger) (schemas.SubmissionOutcome, bool, error) {
	var none schemas.SubmissionOutcome

	log.Info("Visiting candidate page.")
	if err := r.driver.Navigate(ctx, page); err != nil {
		if ctx.Err() != nil {
			return none, false, ctx.Err()
		}
		log.Info("Skipping page: navigation failed.", zap.Error(err))
		return none, false, nil
	}

	found, err := r.driver.WaitForSelector(ctx, "form", r.cfg.Timeouts.FormWait)
	if err != nil {
		return none, false, fatal(schemas.CodeDriverError, err)
	}
	if !found {
		log.Info("Skipping page: no form appeared.", zap.Duration("waited", r.cfg.Timeouts.FormWait))
		return none, false, nil
	}

	descriptors, err := r.extractor.Extract(ctx, r.driver)
	if err != nil {
		return none, false, fatal(schemas.CodeDriverError, err)
	}
	if len(descriptors) == 0 {
		log.Info("Skipping page: form vanished before extraction.")
		return none, false, nil
	}

	decision, err := r.resolver.Classify(ctx, descriptors)
	if err != nil {
		return none, false, fatal(schemas.CodeOracleFailed, err)
	}
	if !decision.Found {
		log.Info("Skipping page: oracle selected no contact form.", zap.Int("forms", len(descriptors)))
		return none, false, nil
	}
	form := descriptors[decision.FormIndex]

	binding, err := r.extractor.Bind(ctx, r.driver, decision.FormIndex, r.newMarker())
	if err != nil {
		if errors.Is(err, schemas.ErrElementNotFound) {
			log.Info("Skipping page: selected form is gone.", zap.Error(err))
			return none, false, nil
		}
		return none, false, fatal(schemas.CodeDriverError, err)
	}

	instructions, err := r.resolver.Resolve(ctx, form, decision)
	if err != nil {
		return none, false, fatal(schemas.CodeOracleFailed, err)
	}
	if len(instructions) == 0 {
		log.Info("Skipping page: empty field mapping.", zap.Int("form_index", decision.FormIndex))
		return none, false, nil
	}

	log.Info("Filling contact form.", zap.Int("form_index", decision.FormIndex), zap.Int("instructions", len(instructions)))
	if _, err := r.filler.Apply(ctx, r.driver, form, binding, instructions); err != nil {
		return none, false, err
	}

	if err := humanoid.Sleep(ctx, r.cfg.Timeouts.Settle); err != nil {
		return none, false, err
	}
	r.shot(ctx, browser.ShotBefore)

	report, err := r.solver.SolveChallenges(ctx, r.driver)
	if err != nil {
		return none, false, fatal(schemas.CodeCaptcha, err)
	}
	if report.Detected > 0 {
		log.Info("Captcha pass complete.", zap.Int("detected", report.Detected), zap.Int("solved", report.Solved))
	}

	// Armed before firing so a fast navigation is not missed.
	watcher, err := r.driver.WatchCompletion(ctx)
	if err != nil {
		log.Warn("Completion signals unavailable.", zap.Error(err))
	}

	strategy, err := r.submitter.Submit(ctx, r.driver, binding)
	if err != nil {
		if watcher != nil {
			watcher.Stop()
		}
		return none, false, fatal(schemas.CodeDriverError, err)
	}

	completion := schemas.CompletionUnconfirmed
	if watcher != nil {
		completion = watcher.Wait(ctx, r.cfg.Timeouts.Completion)
		watcher.Stop()
	}
	log.Info("Submission finished.", zap.String("strategy", string(strategy)), zap.String("completion", string(completion)))

	r.shot(ctx, browser.ShotAfter)
	return schemas.SubmissionOutcome{Strategy: strategy, Completion: completion}, true, nil
}

// shot captures a diagnostic screenshot; failures are only logged.
func (r *run) shot(ctx context.Context, suffix string) {
	path := browser.ScreenshotPath(r.cfg.Output.ScreenshotDir, r.target.StartURL, suffix)
	if err := r.driver.Screenshot(ctx, path); err != nil {
		r.logger.Warn("Screenshot failed.", zap.String("path", path), zap.Error(err))
		return
	}
	r.logger.Debug("Screenshot saved.", zap.String("path", path))
}

// errorShot captures the failure state even when ctx is already done.
func (r *run) errorShot(ctx context.Context) {
	shotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), errorShotTimeout)
	defer cancel()
	r.shot(shotCtx, browser.ShotError)
}
