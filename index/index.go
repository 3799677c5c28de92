// Copyright 2016 Palantir Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package index is a client for the sparse crates.io registry index.
package index

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/palantir/crateaudit/lockfile"
)

// Entry is a single published version of a crate.
type Entry struct {
	Name    string `json:"name"`
	Version string `json:"vers"`
	Yanked  bool   `json:"yanked"`
}

// ErrCrateNotFound is returned when the index has no entry for a crate.
var ErrCrateNotFound = errors.New("crate not found in index")

// lockFileName is the name of the file in the cache directory that serializes index access across processes.
const lockFileName = ".package-cache"

// Client fetches crate metadata from a sparse index. Fetched entries are cached on disk in the cache directory and
// in memory for the lifetime of the Client. Fetches are serialized within the process by a mutex and across
// processes by a lock file in the cache directory. A Client is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	cacheDir   string
	httpClient *http.Client

	mu     sync.Mutex
	crates map[string][]Entry
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for index requests. The default is http.DefaultClient.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New returns a client for the sparse index at baseURL that caches responses in cacheDir.
func New(baseURL, cacheDir string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimPrefix(baseURL, "sparse+"))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse index URL %s", baseURL)
	}
	c := &Client{
		baseURL:    parsed,
		cacheDir:   cacheDir,
		httpClient: http.DefaultClient,
		crates:     make(map[string][]Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Crate returns every published version of the named crate.
func (c *Client) Crate(ctx context.Context, name string) ([]Entry, error) {
	name = strings.ToLower(name)
	if name == "" {
		return nil, errors.New("crate name must be non-empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entries, ok := c.crates[name]; ok {
		return entries, nil
	}

	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create index cache directory %s", c.cacheDir)
	}
	lock, err := acquireFileLock(filepath.Join(c.cacheDir, lockFileName))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.release(); err != nil {
			logrus.WithError(err).Warn("failed to release index cache lock")
		}
	}()

	content, err := c.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	entries, err := parseEntries(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse index entry for crate %s", name)
	}
	c.crates[name] = entries
	return entries, nil
}

// CrateVersions returns the version strings of every published version of the named crate in index order.
func (c *Client) CrateVersions(ctx context.Context, name string) ([]string, error) {
	entries, err := c.Crate(ctx, name)
	if err != nil {
		return nil, err
	}
	versions := make([]string, len(entries))
	for i, entry := range entries {
		versions[i] = entry.Version
	}
	return versions, nil
}

// IsYanked returns true if the version of the package has been yanked from the index.
func (c *Client) IsYanked(ctx context.Context, pkg lockfile.Package) (bool, error) {
	entries, err := c.Crate(ctx, pkg.Name)
	if err != nil {
		return false, err
	}
	version := pkg.Version.Original()
	for _, entry := range entries {
		if entry.Version == version {
			return entry.Yanked, nil
		}
	}
	return false, errors.Errorf("version %s of crate %s not found in index", version, pkg.Name)
}

// fetch downloads the index file of the crate and stores it in the cache. If the index cannot be reached, a
// previously cached copy is used.
func (c *Client) fetch(ctx context.Context, name string) ([]byte, error) {
	relPath := Path(name)
	cachePath := filepath.Join(c.cacheDir, filepath.FromSlash(relPath))

	content, err := c.download(ctx, relPath)
	if errors.Is(err, ErrCrateNotFound) {
		return nil, errors.Wrapf(err, "crate %s", name)
	}
	if err != nil {
		cached, readErr := os.ReadFile(cachePath)
		if readErr != nil {
			return nil, err
		}
		logrus.WithError(err).WithField("crate", name).Warn("using cached index entry")
		return cached, nil
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create directory for %s", cachePath)
	}
	if err := os.WriteFile(cachePath, content, 0644); err != nil {
		return nil, errors.Wrapf(err, "failed to write index cache file %s", cachePath)
	}
	return content, nil
}

func (c *Client) download(ctx context.Context, relPath string) ([]byte, error) {
	u := *c.baseURL
	u.Path = path.Join(u.Path, relPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request")
	}
	logrus.WithField("url", u.String()).Debug("fetching index entry")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", u.String())
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return nil, ErrCrateNotFound
	default:
		return nil, errors.Errorf("failed to fetch %s: %s", u.String(), resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response from %s", u.String())
	}
	return body, nil
}

func parseEntries(content []byte) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal entry %q", string(line))
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read entries")
	}
	return entries, nil
}

// Path returns the path of the index file of a crate relative to the index root.
func Path(name string) string {
	name = strings.ToLower(name)
	switch len(name) {
	case 1:
		return path.Join("1", name)
	case 2:
		return path.Join("2", name)
	case 3:
		return path.Join("3", name[:1], name)
	default:
		return fmt.Sprintf("%s/%s/%s", name[:2], name[2:4], name)
	}
}
