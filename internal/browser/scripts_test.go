// internal/browser/scripts_test.go
package browser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
)

func TestSelectOptionsScript(t *testing.T) {
	script, err := SelectOptionsScript(`[data-reachout-field="abc-f2"]`, []string{"sales", "support"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "async () =>"))
	assert.Contains(t, script, `"values":["sales","support"]`)
	assert.Contains(t, script, `data-reachout-field=\"abc-f2\"`)

	empty, err := SelectOptionsScript("select", nil)
	require.NoError(t, err)
	assert.Contains(t, empty, `"values":[]`)
}

func TestCheckSelectResult(t *testing.T) {
	assert.NoError(t, CheckSelectResult(`{"ok":true,"matched":1}`, "select"))

	err := CheckSelectResult(`{"ok":false}`, "select#topic")
	require.Error(t, err)
	assert.True(t, errors.Is(err, schemas.ErrElementNotFound))
	assert.Contains(t, err.Error(), "select#topic")

	assert.ErrorContains(t, CheckSelectResult("not json", "select"), "malformed select result")
}

func TestWrapPageFunction(t *testing.T) {
	assert.Equal(t, "(async () => {})()", WrapPageFunction("async () => {}"))
}

func TestScreenshotName(t *testing.T) {
	tests := []struct {
		url, suffix, want string
	}{
		{"https://acme.test/contact", ShotBefore, "acme_test_contact_before.png"},
		{"http://acme.test", ShotAfter, "acme_test_after.png"},
		{"HTTPS://acme.test/a?b=c", ShotError, "acme_test_a_b_c_error.png"},
		{"  https://x.test  ", ShotBefore, "x_test_before.png"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ScreenshotName(tt.url, tt.suffix))
		})
	}
}

func TestWriteScreenshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "shots")
	path := ScreenshotPath(dir, "https://acme.test", ShotBefore)

	require.NoError(t, WriteScreenshot(path, []byte("png")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, filepath.Join(dir, "acme_test_before.png"), path)
}
