// internal/browser/scripts.go
package browser

import (
	_ "embed"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/browser/shim"
)

//go:embed js/select.js
var selectJS string

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SelectOptionsScript builds the page function that selects exactly values on
// the select element matching selector.
func SelectOptionsScript(selector string, values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	return shim.BuildPageFunction(selectJS, map[string]interface{}{"selector": selector, "values": values})
}

// CheckSelectResult interprets the select script's reply.
func CheckSelectResult(raw, selector string) error {
	var res struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return fmt.Errorf("malformed select result: %w", err)
	}
	if !res.OK {
		return fmt.Errorf("select %s: %w", selector, schemas.ErrElementNotFound)
	}
	return nil
}

// WrapPageFunction turns a page function into an immediately invoked
// expression for protocols that evaluate expressions.
func WrapPageFunction(function string) string {
	return "(" + function + ")()"
}
