package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/response"
	"github.com/marcos-nsantos/focusdeck-sync/internal/client/store"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

func stubPasswords(t *testing.T, passwords ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, errors.New("no more input")
		}
		pw := passwords[0]
		passwords = passwords[1:]
		return []byte(pw), nil
	}
}

func TestPromptPassword(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		stubPasswords(t, "s3cret")
		var out bytes.Buffer
		pw, err := promptPassword(&out, false)
		require.NoError(t, err)
		assert.Equal(t, "s3cret", pw)
		assert.Contains(t, out.String(), "Password: ")
	})

	t.Run("confirmed", func(t *testing.T) {
		stubPasswords(t, "s3cret", "s3cret")
		pw, err := promptPassword(&bytes.Buffer{}, true)
		require.NoError(t, err)
		assert.Equal(t, "s3cret", pw)
	})

	t.Run("mismatch", func(t *testing.T) {
		stubPasswords(t, "s3cret", "other")
		_, err := promptPassword(&bytes.Buffer{}, true)
		assert.ErrorIs(t, err, errPasswordMismatch)
	})

	t.Run("read error", func(t *testing.T) {
		stubPasswords(t)
		_, err := promptPassword(&bytes.Buffer{}, false)
		assert.Error(t, err)
	})
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"yes", true},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := confirm(bufio.NewReader(strings.NewReader(tt.input)), &bytes.Buffer{}, "sure?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEntityType(t *testing.T) {
	got, err := parseEntityType("studysession")
	require.NoError(t, err)
	assert.Equal(t, entity.EntityStudySession, got)

	_, err = parseEntityType("Widget")
	assert.Error(t, err)
}

type harness struct {
	state string
	out   *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	return &harness{state: filepath.Join(t.TempDir(), "state.db"), out: &bytes.Buffer{}}
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	full := append([]string{"fdctl", "--state", h.state, "--log-level", "error"}, args...)
	return New(strings.NewReader(""), h.out).Run(context.Background(), full)
}

func (h *harness) saveSession(t *testing.T, server string) store.Session {
	t.Helper()
	st, err := store.Open(context.Background(), h.state)
	require.NoError(t, err)
	defer st.Close()

	sess := store.Session{
		Server:         server,
		Username:       "alice",
		UserID:         uuid.New(),
		DeviceRecordID: uuid.New(),
		DeviceID:       "laptop",
		AccessToken:    "access",
		RefreshToken:   "refresh",
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	require.NoError(t, st.SaveSession(context.Background(), sess))
	return sess
}

func TestApp_LocalEditing(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("set", "task", "t1", `{"title":"read"}`))
	assert.Contains(t, h.out.String(), "create Task/t1 pending")

	require.NoError(t, h.run("set", "task", "t1", `{"title":"read more"}`))
	assert.Contains(t, h.out.String(), "create Task/t1 pending")

	require.NoError(t, h.run("show", "Task"))
	assert.Contains(t, h.out.String(), `{"title":"read more"}`)

	require.NoError(t, h.run("pending"))
	assert.Contains(t, h.out.String(), "Task/t1")

	require.NoError(t, h.run("delete", "task", "t1"))
	assert.Contains(t, h.out.String(), "discarded unpushed Task/t1")

	require.NoError(t, h.run("conflicts"))
	assert.Contains(t, h.out.String(), "no open conflicts")
}

func TestApp_ArgumentErrors(t *testing.T) {
	h := newHarness(t)

	assert.Error(t, h.run("set", "task", "t1"))
	assert.Error(t, h.run("set", "widget", "w1", "{}"))
	assert.Error(t, h.run("set", "task", "t1", "{not json"))
	assert.Error(t, h.run("delete", "task", "missing"))
	assert.Error(t, h.run("resolve", "not-a-uuid", "UseServer"))
	assert.Error(t, h.run("resolve", uuid.NewString(), "merge"))
	assert.Error(t, h.run("pair-complete"))
}

func TestApp_CommandsNeedSession(t *testing.T) {
	h := newHarness(t)
	for _, cmd := range []string{"devices", "sync", "pair-start", "watch", "logout"} {
		t.Run(cmd, func(t *testing.T) {
			assert.ErrorIs(t, h.run(cmd), errNotSignedIn)
		})
	}
}

func TestApp_DevicesUsesStoredSession(t *testing.T) {
	h := newHarness(t)

	var sess store.Session
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/devices", r.URL.Path)
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response.DeviceListResponse{Devices: []response.DeviceResponse{{
			ID:          sess.DeviceRecordID,
			DeviceID:    "laptop",
			Name:        "Laptop",
			Platform:    "linux",
			IsActive:    true,
			Current:     true,
			LastSeenUTC: time.Now().UTC(),
		}}})
	}))
	defer srv.Close()
	sess = h.saveSession(t, srv.URL)

	require.NoError(t, h.run("devices"))
	assert.Contains(t, h.out.String(), "Laptop (this device)")
	assert.Contains(t, h.out.String(), "active")
}

func TestApp_InvalidSessionIsForgotten(t *testing.T) {
	h := newHarness(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"device revoked or expired","code":"SESSION_INVALID"}`))
	}))
	defer srv.Close()
	h.saveSession(t, srv.URL)

	err := h.run("sync")
	require.ErrorIs(t, err, errNotSignedIn)

	st, err := store.Open(context.Background(), h.state)
	require.NoError(t, err)
	defer st.Close()
	_, err = st.Session(context.Background())
	assert.ErrorIs(t, err, store.ErrNoSession)
}

func TestApp_SyncRejectsUnknownPolicy(t *testing.T) {
	h := newHarness(t)
	h.saveSession(t, "http://127.0.0.1:1")

	err := h.run("--policy", "merge", "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--policy")
}
