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

//go:build unix

package index

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

type fileLock struct {
	f *os.File
}

// acquireFileLock blocks until an exclusive advisory lock on the file at lockPath is held.
func acquireFileLock(lockPath string) (*fileLock, error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open lock file %s", lockPath)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		logrus.WithField("path", lockPath).Debug("waiting for index cache lock")
		if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "failed to lock %s", lockPath)
		}
	}
	return &fileLock{f: f}, nil
}

func (l *fileLock) release() error {
	defer func() {
		_ = l.f.Close()
	}()
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		return errors.Wrapf(err, "failed to unlock %s", l.f.Name())
	}
	return nil
}
