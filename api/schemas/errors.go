package schemas

import "errors"

var (
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrBrowserLaunch wraps failures to start a browser or open its first page.
	ErrBrowserLaunch = errors.New("browser failed to launch")
	// ErrSessionClosed is returned by drivers after Close.
	ErrSessionClosed = errors.New("browser session is closed")
	// ErrElementNotFound is returned when a selector matches nothing.
	ErrElementNotFound = errors.New("element not found")
	// ErrCaptchaUnsolved is returned when a detected challenge could not be solved.
	ErrCaptchaUnsolved = errors.New("captcha challenge could not be solved")
)
