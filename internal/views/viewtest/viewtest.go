// Package viewtest reads rendered relay pages back in tests.
package viewtest

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/brizzai/cms-oauth-relay/internal/views"
	"github.com/stretchr/testify/require"
)

var (
	valuePattern   = regexp.MustCompile(`(?s)<script[^>]*\bid="` + regexp.QuoteMeta(views.ValueElementID) + `"[^>]*>(.*?)</script>`)
	outcomePattern = regexp.MustCompile(`<body data-outcome="([a-z]+)"`)
)

// Value decodes the page value embedded in body into v.
func Value(t testing.TB, body string, v any) {
	t.Helper()
	m := valuePattern.FindStringSubmatch(body)
	require.NotNil(t, m, "page has no %s element", views.ValueElementID)
	require.NoError(t, json.Unmarshal([]byte(m[1]), v))
}

// Outcome returns the data-outcome marker of the page, or "".
func Outcome(body string) string {
	m := outcomePattern.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return m[1]
}
