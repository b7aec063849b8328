package version

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnsibleVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		out     string
		want    string
		wantErr bool
	}{
		{out: "ansible [core 2.16.3]\n  config file = None\n", want: "2.16.3"},
		{out: "ansible [core 2.17.0rc1]\n", want: "2.17.0rc1"},
		{out: "ansible 2.9.27\n", want: "2.9.27"},
		{out: "something else\n", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseAnsibleVersion(tt.out)
		if tt.wantErr {
			assert.Error(t, err, tt.out)
			continue
		}
		require.NoError(t, err, tt.out)
		assert.Equal(t, tt.want, got)
	}
}

func TestInfoString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ansible-lint 1.2.0 using ansible-core:2.16.3",
		Info{Version: "1.2.0", AnsibleCore: "2.16.3"}.String())
	assert.Equal(t, "ansible-lint dev using ansible-core:missing", Info{Version: "dev"}.String())
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newChecker(t *testing.T, url string) *UpdateChecker {
	t.Helper()
	c := NewUpdateChecker()
	c.URL = url
	c.CacheFile = filepath.Join(t.TempDir(), "latest.json")
	return c
}

func TestUpdateCheck(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, http.StatusOK, `{"tag_name": "v1.3.0", "html_url": "https://example.test/v1.3.0"}`)
	c := newChecker(t, srv.URL)

	u, err := c.Check(t.Context(), "1.2.0")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "1.3.0", u.Latest)
	assert.Equal(t, "https://example.test/v1.3.0", u.URL)

	// The second lookup is served from the cache.
	u, err = c.Check(t.Context(), "1.3.0")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUpdateCheckExpiredCache(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, http.StatusOK, `{"tag_name": "v2.0.0"}`)
	c := newChecker(t, srv.URL)
	require.NoError(t, os.WriteFile(c.CacheFile,
		[]byte(`{"checked_at": "2020-01-01T00:00:00Z", "latest": "1.0.0"}`), 0o644))

	u, err := c.Check(t.Context(), "1.5.0")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "2.0.0", u.Latest)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUpdateCheckDevBuild(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, http.StatusOK, `{"tag_name": "v9.9.9"}`)
	u, err := newChecker(t, srv.URL).Check(t.Context(), "dev")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Zero(t, calls.Load())
}

func TestUpdateCheckRetries(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, http.StatusBadGateway, "")
	c := newChecker(t, srv.URL)
	c.MaxTries = 2

	_, err := c.Check(t.Context(), "1.0.0")
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestUpdateCheckPermanentFailure(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, http.StatusNotFound, "")
	c := newChecker(t, srv.URL)
	c.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	_, err := c.Check(t.Context(), "1.0.0")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
