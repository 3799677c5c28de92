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

// Package fetch downloads a snapshot of an advisory database repository.
package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jtacoma/uritemplates"
	"github.com/mholt/archiver/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	giturls "github.com/whilp/git-urls"
	"gopkg.in/cheggaaa/pb.v1"
)

const DefaultBranch = "main"

var archiveURLTemplates = map[string]string{
	"github.com": "{+repo}/archive/refs/heads/{branch}.tar.gz",
}

const defaultArchiveURLTemplate = "{+repo}/archive/{branch}.tar.gz"

// ArchiveURL returns the URL of the gzipped tarball of the given branch of a git repository. The repository URL may
// use any form accepted by git, such as "https://github.com/rustsec/advisory-db.git" or
// "git@github.com:rustsec/advisory-db.git".
func ArchiveURL(repoURL, branch string) (string, error) {
	u, err := giturls.Parse(repoURL)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse repository URL %s", repoURL)
	}
	scheme := u.Scheme
	if scheme != "http" {
		scheme = "https"
	}
	repoPath := strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), ".git")
	if !strings.HasPrefix(repoPath, "/") {
		repoPath = "/" + repoPath
	}
	webURL := (&url.URL{Scheme: scheme, Host: u.Host, Path: repoPath}).String()

	tmplString, ok := archiveURLTemplates[u.Hostname()]
	if !ok {
		tmplString = defaultArchiveURLTemplate
	}
	tmpl, err := uritemplates.Parse(tmplString)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse archive URL template %q", tmplString)
	}
	archiveURL, err := tmpl.Expand(map[string]interface{}{
		"repo":   webURL,
		"branch": branch,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to expand archive URL template %q", tmplString)
	}
	return archiveURL, nil
}

// Fetcher downloads advisory database snapshots.
type Fetcher struct {
	HTTPClient *http.Client
	Branch     string
	// Progress is the writer that download progress is written to. No progress is shown if nil.
	Progress io.Writer
}

// Fetch replaces the contents of dbPath with the latest snapshot of the repository at repoURL. The existing
// contents are only removed once the new snapshot has been downloaded and unpacked.
func (f *Fetcher) Fetch(ctx context.Context, repoURL, dbPath string) error {
	branch := f.Branch
	if branch == "" {
		branch = DefaultBranch
	}
	archiveURL, err := ArchiveURL(repoURL, branch)
	if err != nil {
		return err
	}

	parentDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", parentDir)
	}
	tmpDir, err := os.MkdirTemp(parentDir, ".advisory-db-")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary directory")
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logrus.WithError(err).WithField("path", tmpDir).Warn("failed to remove temporary directory")
		}
	}()

	archivePath := filepath.Join(tmpDir, "advisory-db.tar.gz")
	if err := f.download(ctx, archiveURL, archivePath); err != nil {
		return err
	}

	extractDir := filepath.Join(tmpDir, "extract")
	if err := archiver.NewTarGz().Unarchive(archivePath, extractDir); err != nil {
		return errors.Wrapf(err, "failed to extract %s to %s", archivePath, extractDir)
	}
	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", extractDir)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return errors.Errorf("archive %s must contain exactly one top-level directory", archiveURL)
	}

	if err := os.RemoveAll(dbPath); err != nil {
		return errors.Wrapf(err, "failed to remove existing advisory database %s", dbPath)
	}
	if err := os.Rename(filepath.Join(extractDir, entries[0].Name()), dbPath); err != nil {
		return errors.Wrapf(err, "failed to move advisory database to %s", dbPath)
	}
	logrus.WithFields(logrus.Fields{"url": archiveURL, "path": dbPath}).Debug("fetched advisory database")
	return nil
}

func (f *Fetcher) download(ctx context.Context, archiveURL, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to create request")
	}
	httpClient := f.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to download %s", archiveURL)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("failed to download %s: %s", archiveURL, resp.Status)
	}

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dst)
	}
	defer func() {
		_ = out.Close()
	}()

	var body io.Reader = resp.Body
	if f.Progress != nil && resp.ContentLength > 0 {
		bar := pb.New64(resp.ContentLength).SetUnits(pb.U_BYTES)
		bar.Output = f.Progress
		bar.SetMaxWidth(120)
		bar.Start()
		defer bar.Finish()
		body = bar.NewProxyReader(resp.Body)
	}
	if _, err := io.Copy(out, body); err != nil {
		return errors.Wrapf(err, "failed to write %s", dst)
	}
	return out.Close()
}
