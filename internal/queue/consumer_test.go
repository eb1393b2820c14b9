package queue

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAuthEventWritesJSONLines(t *testing.T) {
	t.Chdir(t.TempDir())

	events := []AuthEvent{
		{Event: "register", UserID: 1, Email: "a@example.com", IPAddress: "10.0.0.1", At: "2026-08-30T12:00:00Z"},
		{Event: "login_failed", Email: "b@example.com", IPAddress: "10.0.0.2", UserAgent: "curl/8.0", At: "2026-08-30T12:00:01Z"},
	}
	for _, ev := range events {
		require.NoError(t, appendAuthEvent(ev))
	}

	f, err := os.Open(filepath.Join("logs", "auth_events.log"))
	require.NoError(t, err)
	defer f.Close()

	var got []AuthEvent
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev AuthEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		got = append(got, ev)
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, events, got)
}

func TestAppendAuthEventOmitsZeroUserID(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, appendAuthEvent(AuthEvent{Event: "login_failed", Email: "x@example.com"}))

	raw, err := os.ReadFile(filepath.Join("logs", "auth_events.log"))
	require.NoError(t, err)
	// Failed logins for unknown accounts carry no user id.
	assert.NotContains(t, string(raw), "user_id")
}
