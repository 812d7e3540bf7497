package schemas

import (
	"context"
	"time"
)

// -- Browser Driver Interfaces --

// Driver is the browser capability the pipeline runs against. One Driver
// wraps one page; calls are never issued concurrently.
type Driver interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// CurrentURL returns the address of the loaded document after redirects.
	CurrentURL(ctx context.Context) (string, error)
	// Snapshot returns the serialized DOM of the current document.
	Snapshot(ctx context.Context) (string, error)
	// WaitForSelector waits up to timeout for selector to match. A timeout
	// reports (false, nil); only fatal driver conditions return an error.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	// Evaluate runs a zero-argument JavaScript function in the page, awaiting
	// a returned promise. The function must return a string, by convention JSON.
	Evaluate(ctx context.Context, function string) (string, error)
	// ScrollIntoView scrolls the first element matching selector into the viewport.
	ScrollIntoView(ctx context.Context, selector string) error
	// Click performs a trusted mouse click on the element matching selector.
	Click(ctx context.Context, selector string) error
	// Fill replaces the text content of an input or textarea.
	Fill(ctx context.Context, selector, text string) error
	// SelectOptions selects exactly the given option values of a select element.
	SelectOptions(ctx context.Context, selector string, values []string) error
	// IsChecked reads the live checked property of a checkbox or radio.
	IsChecked(ctx context.Context, selector string) (bool, error)
	// Screenshot captures the full page as PNG into path.
	Screenshot(ctx context.Context, path string) error
	// WatchCompletion arms the post-submit signals. It must be called before
	// the submission fires so a fast navigation is not missed.
	WatchCompletion(ctx context.Context) (CompletionWatcher, error)
	// Close tears down the page and its browser.
	Close() error
}

// CompletionWatcher is an armed wait-any over the navigation and response signals.
type CompletionWatcher interface {
	// Wait blocks until either signal fires or both time out, and reports which.
	Wait(ctx context.Context, timeout time.Duration) CompletionOutcome
	// Stop releases the event listeners. Safe to call more than once.
	Stop()
}

// Launcher starts a browser and hands back a Driver for one run.
type Launcher interface {
	Launch(ctx context.Context) (Driver, error)
}

// -- LLM Client Schemas & Interface --

// GenerationOptions holds parameters to control the LLM's output generation.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`
	ForceJSONFormat bool    `json:"force_json_format"`
	MaxTokens       int     `json:"max_tokens"`
}

// GenerationRequest encapsulates one oracle call: system instructions, the
// user payload and generation options.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient abstracts the oracle provider.
type LLMClient interface {
	// Generate produces a text completion for the request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close releases any resources held by the client.
	Close() error
}

// -- Captcha Interface --

// CaptchaReport summarizes one solve pass over the current page.
type CaptchaReport struct {
	Detected int `json:"detected"`
	Solved   int `json:"solved"`
}

// CaptchaSolver detects challenges on the current page and solves them in place.
type CaptchaSolver interface {
	SolveChallenges(ctx context.Context, d Driver) (CaptchaReport, error)
}
