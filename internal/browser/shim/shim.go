// internal/browser/shim/shim.go
package shim

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

const (
	// ArgsPlaceholder is replaced with the JSON-encoded arguments of a page function.
	ArgsPlaceholder = "/*{{REACHOUT_ARGS}}*/"
	// BodyPlaceholder is replaced with the concatenated preludes and body.
	BodyPlaceholder = "/*{{REACHOUT_BODY}}*/"
)

// pageFunctionTemplate wraps a body into a zero-argument async function. The
// body sees its inputs as `args` and must return a string.
const pageFunctionTemplate = `async () => {
"use strict";
const args = /*{{REACHOUT_ARGS}}*/;
/*{{REACHOUT_BODY}}*/
}`

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BuildPageFunction assembles a page function from shared preludes, a body and
// its arguments. A nil args value is injected as an empty object.
func BuildPageFunction(body string, args interface{}, preludes ...string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("script body is empty")
	}

	argsJSON := []byte("{}")
	if args != nil {
		var err error
		if argsJSON, err = json.Marshal(args); err != nil {
			return "", fmt.Errorf("failed to encode script arguments: %w", err)
		}
	}

	var b strings.Builder
	for _, p := range preludes {
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString(body)

	script := strings.Replace(pageFunctionTemplate, ArgsPlaceholder, string(argsJSON), 1)
	return strings.Replace(script, BodyPlaceholder, b.String(), 1), nil
}

// MustBuildPageFunction is BuildPageFunction for arguments that always encode.
func MustBuildPageFunction(body string, args interface{}, preludes ...string) string {
	s, err := BuildPageFunction(body, args, preludes...)
	if err != nil {
		panic(err)
	}
	return s
}
