package schemas

// -- Submission & Run Result Schemas --

// SubmitStrategy names the submission technique that fired.
type SubmitStrategy string

const (
	StrategySubmitButton   SubmitStrategy = "clicked-submit-button"
	StrategyFallbackButton SubmitStrategy = "clicked-fallback-button"
	StrategyRequestSubmit  SubmitStrategy = "request-submit"
	StrategyDispatchSubmit SubmitStrategy = "dispatch-submit"
	StrategyForcedSubmit   SubmitStrategy = "forced-submit"
	StrategyNone           SubmitStrategy = "none"
)

// CompletionOutcome tags which post-submit signal resolved first.
type CompletionOutcome string

const (
	CompletionNavigated   CompletionOutcome = "navigated"
	CompletionResponded   CompletionOutcome = "responded"
	CompletionUnconfirmed CompletionOutcome = "unconfirmed"
)

// SubmissionOutcome records which strategy fired and the best-effort completion signal.
type SubmissionOutcome struct {
	Strategy   SubmitStrategy    `json:"strategy"`
	Completion CompletionOutcome `json:"completion"`
}

// RunStatus is the terminal status of a run.
type RunStatus string

const (
	StatusSuccess  RunStatus = "success"
	StatusNotFound RunStatus = "not_found"
	StatusFailed   RunStatus = "failed"
)

// ErrorCode classifies run-level failures in logs.
type ErrorCode string

const (
	CodeConfigError  ErrorCode = "CONFIG_ERROR"
	CodeLaunchFailed ErrorCode = "LAUNCH_FAILED"
	CodeDiscovery    ErrorCode = "DISCOVERY_FAILED"
	CodeOracleFailed ErrorCode = "ORACLE_FAILED"
	CodeCaptcha      ErrorCode = "CAPTCHA_FAILED"
	CodeDriverError  ErrorCode = "DRIVER_ERROR"
	CodeCanceled     ErrorCode = "CANCELED"
	CodePanic        ErrorCode = "PANIC"
)

// RunResult is the single status object emitted per run.
type RunResult struct {
	Status     RunStatus         `json:"status"`
	URL        string            `json:"url"`
	Submitted  bool              `json:"submitted"`
	Error      string            `json:"error,omitempty"`
	Strategy   SubmitStrategy    `json:"strategy,omitempty"`
	Completion CompletionOutcome `json:"completion,omitempty"`
	Code       ErrorCode         `json:"-"`
}

// Succeeded builds the result for a submitted candidate page.
func Succeeded(url string, outcome SubmissionOutcome) RunResult {
	return RunResult{
		Status:     StatusSuccess,
		URL:        url,
		Submitted:  true,
		Strategy:   outcome.Strategy,
		Completion: outcome.Completion,
	}
}

// NotFound builds the result for a run that exhausted its candidates.
func NotFound(url string) RunResult {
	return RunResult{Status: StatusNotFound, URL: url}
}

// Failed builds the result for a run that hit an unrecoverable error.
func Failed(url string, code ErrorCode, err error) RunResult {
	r := RunResult{Status: StatusFailed, URL: url, Code: code}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
