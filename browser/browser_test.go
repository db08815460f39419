package browser_test

import (
	"testing"

	"github.com/jrsteele09/go-token-relay/browser"
	"github.com/stretchr/testify/require"
)

func TestScript_EmbedsArgumentsAsJSON(t *testing.T) {
	script, err := browser.Script(" function (key, value) { return key + value; } ", "token", `a"b`)
	require.NoError(t, err)
	require.Equal(t, `(function (key, value) { return key + value; })("token", "a\"b")`, script)
}

func TestScript_RejectsUnencodableArgument(t *testing.T) {
	_, err := browser.Script("function (x) {}", make(chan int))
	require.Error(t, err)
}

func TestRestrictedScheme(t *testing.T) {
	schemes := []string{"chrome://", "devtools://"}

	scheme, restricted := browser.RestrictedScheme("chrome://settings", schemes)
	require.True(t, restricted)
	require.Equal(t, "chrome://", scheme)

	_, restricted = browser.RestrictedScheme("CHROME://newtab", schemes)
	require.True(t, restricted)

	_, restricted = browser.RestrictedScheme("http://localhost/academics", schemes)
	require.False(t, restricted)
}
