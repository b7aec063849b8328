package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
)

// ReleasesURL is the GitHub API endpoint for the latest release.
const ReleasesURL = "https://api.github.com/repos/tinovyatkin/ansible-lint/releases/latest"

// CacheMaxAge is how long a release lookup is reused.
const CacheMaxAge = 24 * time.Hour

// UpdateChecker looks up the latest release, caching the answer on disk.
type UpdateChecker struct {
	URL       string
	CacheFile string
	Client    *http.Client
	MaxTries  uint
	Now       func() time.Time
}

// NewUpdateChecker returns a checker using the user cache directory.
func NewUpdateChecker() *UpdateChecker {
	c := &UpdateChecker{
		URL:      ReleasesURL,
		Client:   &http.Client{Timeout: 10 * time.Second},
		MaxTries: 3,
		Now:      time.Now,
	}
	if dir, err := os.UserCacheDir(); err == nil {
		c.CacheFile = filepath.Join(dir, "ansible-lint", "latest.json")
	}
	return c
}

type cacheEntry struct {
	CheckedAt time.Time `json:"checked_at"`
	Latest    string    `json:"latest"`
	URL       string    `json:"html_url,omitempty"`
}

type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Update describes a release newer than the running version.
type Update struct {
	Current string
	Latest  string
	URL     string
}

func (u *Update) String() string {
	return fmt.Sprintf("A new release of ansible-lint is available: %s → %s %s", u.Current, u.Latest, u.URL)
}

// Check returns the newer release, or nil when current is up to date or
// not a release version.
func (c *UpdateChecker) Check(ctx context.Context, current string) (*Update, error) {
	cur, err := semver.NewVersion(current)
	if err != nil {
		return nil, nil //nolint:nilnil // development builds are never outdated
	}

	entry, ok := c.cached()
	if !ok {
		rel, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		entry = cacheEntry{CheckedAt: c.Now(), Latest: strings.TrimPrefix(rel.TagName, "v"), URL: rel.HTMLURL}
		c.store(entry)
	}

	latest, err := semver.NewVersion(entry.Latest)
	if err != nil {
		return nil, fmt.Errorf("release %q: %w", entry.Latest, err)
	}
	if !latest.GreaterThan(cur) {
		return nil, nil //nolint:nilnil // up to date
	}
	return &Update{Current: cur.String(), Latest: latest.String(), URL: entry.URL}, nil
}

func (c *UpdateChecker) cached() (cacheEntry, bool) {
	var entry cacheEntry
	if c.CacheFile == "" {
		return entry, false
	}
	data, err := os.ReadFile(c.CacheFile)
	if err != nil {
		return entry, false
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, false
	}
	if entry.Latest == "" {
		return entry, false
	}
	return entry, c.Now().Sub(entry.CheckedAt) < CacheMaxAge
}

func (c *UpdateChecker) store(entry cacheEntry) {
	if c.CacheFile == "" {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.CacheFile), 0o755); err != nil {
		logrus.Debugf("update check cache: %v", err)
		return
	}
	if err := os.WriteFile(c.CacheFile, data, 0o644); err != nil {
		logrus.Debugf("update check cache: %v", err)
	}
}

func (c *UpdateChecker) fetch(ctx context.Context) (release, error) {
	operation := func() (release, error) {
		var rel release
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
		if err != nil {
			return rel, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/vnd.github+json")

		resp, err := c.Client.Do(req)
		if err != nil {
			return rel, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return rel, fmt.Errorf("release lookup: %s", resp.Status)
		case resp.StatusCode != http.StatusOK:
			return rel, backoff.Permanent(fmt.Errorf("release lookup: %s", resp.Status))
		}
		if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
			return rel, backoff.Permanent(fmt.Errorf("release lookup: %w", err))
		}
		return rel, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.MaxTries),
	)
}
