// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// Sha256HashFile computes the sha256 sum of a file and returns the hex encoded result
func Sha256HashFile(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return Sha256HashReader(f)
}

// Sha256HashReader computes the sha256 sum of everything read from r
func Sha256HashReader(r io.Reader) (string, error) {
	hasher := sha256.New()

	_, err := io.Copy(hasher, r)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Sha256HashBytes computes the sha256 sum of the bytes c and returns the hex encoded result
func Sha256HashBytes(c []byte) string {
	sum := sha256.Sum256(c)
	return hex.EncodeToString(sum[:])
}

// Sha256VerifyFile checks the file at path has the hex encoded sha256 sum expected
func Sha256VerifyFile(fs afero.Fs, path string, expected string) error {
	sum, err := Sha256HashFile(fs, path)
	if err != nil {
		return err
	}

	if !strings.EqualFold(sum, expected) {
		return fmt.Errorf("checksum mismatch for %s: expected %s got %s", path, expected, sum)
	}

	return nil
}
