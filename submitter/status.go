package submitter

import (
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-token-relay/diaglog"
	"github.com/jrsteele09/go-token-relay/relay"
)

const loginSucceeded = "Login successful! Token stored."

// StatusMessage is the one line shown to the user after a login attempt.
func StatusMessage(result relay.LoginResult) string {
	switch {
	case result.Success:
		return loginSucceeded
	case result.State == relay.InjectionFailed:
		return "Error: " + orDefault(result.Error, "Failed to store token")
	default:
		return "Login failed: " + orDefault(result.Error, "Invalid credentials")
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// FormatLogs renders diagnostic entries one per line, with any attached data
// indented underneath.
func FormatLogs(entries []diaglog.Entry) string {
	if len(entries) == 0 {
		return "No logs\n"
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %s\n", e.Timestamp.Local().Format(time.TimeOnly), e.Message)
		if e.Data != nil {
			fmt.Fprintf(&b, "    %s\n", *e.Data)
		}
	}
	return b.String()
}
