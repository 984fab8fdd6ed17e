// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/choria-io/extractvpk/model"
	"github.com/choria-io/extractvpk/session"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager) error

// WithFilesystem sets the filesystem archives are checked on and extracted to
func WithFilesystem(fs afero.Fs) Option {
	return func(m *Manager) error {
		if fs == nil {
			return fmt.Errorf("filesystem is required")
		}

		m.fs = fs

		return nil
	}
}

// WithOpener sets the archive opener, the default reads VPK files
func WithOpener(opener model.ArchiveOpener) Option {
	return func(m *Manager) error {
		if opener == nil {
			return fmt.Errorf("archive opener is required")
		}

		m.opener = opener

		return nil
	}
}

// WithVerify enables integrity verification for every extraction
func WithVerify(verify bool) Option {
	return func(m *Manager) error {
		m.verify = verify
		return nil
	}
}

// WithSessionStore sets the session store runs are recorded in
func WithSessionStore(store model.SessionStore) Option {
	return func(m *Manager) error {
		if store == nil {
			return fmt.Errorf("session store is required")
		}

		m.session = store

		return nil
	}
}

// WithSessionDirectory records runs in a directory, it must be given after WithFilesystem to use that filesystem
func WithSessionDirectory(path string) Option {
	return func(m *Manager) error {
		log, err := m.Logger("session", "directory", "path", path)
		if err != nil {
			return err
		}

		sess, err := session.NewDirectorySessionStore(m.fs, path, log, m.userLogger)
		if err != nil {
			return err
		}

		m.session = sess

		return nil
	}
}
