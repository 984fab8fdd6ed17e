// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/choria-io/extractvpk/templates"
)

// ExtractJob defines a single extraction in a job file
type ExtractJob struct {
	Name       string            `json:"name" yaml:"name"`                                   // Name uniquely identifies the job within a job file
	Archive    string            `json:"archive" yaml:"archive"`                             // Archive is the path to the vpk or addon bundle, the download destination when Url is set
	Url        string            `json:"url,omitempty" yaml:"url,omitempty"`                 // Url to download the archive from before extracting
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`         // Headers to include in the download request
	Username   string            `json:"username,omitempty" yaml:"username,omitempty"`       // Username for basic auth downloads
	Password   string            `json:"password,omitempty" yaml:"password,omitempty"`       // Password for basic auth downloads
	Checksum   string            `json:"checksum,omitempty" yaml:"checksum,omitempty"`       // Checksum is the expected sha256 of the archive file
	Output     string            `json:"output" yaml:"output"`                               // Output is the destination directory
	Include    []string          `json:"include,omitempty" yaml:"include,omitempty"`         // Include patterns, an entry must match one when set
	Exclude    []string          `json:"exclude,omitempty" yaml:"exclude,omitempty"`         // Exclude patterns, an entry matching any is skipped
	Expression string            `json:"expression,omitempty" yaml:"expression,omitempty"`   // Expression is an optional boolean filter over path, name, dir and ext
	Flatten    bool              `json:"flatten,omitempty" yaml:"flatten,omitempty"`         // Flatten discards archive directories
	Verify     bool              `json:"verify,omitempty" yaml:"verify,omitempty"`           // Verify entry checksums while reading
	Clean      bool              `json:"clean,omitempty" yaml:"clean,omitempty"`             // Clean moves an existing output directory to the trash before extracting
}

var bundleSuffixes = []string{".vpk", ".zip", ".7z", ".rar"}

// Validate checks the job is complete and internally consistent
func (j *ExtractJob) Validate() error {
	if j.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidJob)
	}

	if j.Archive == "" {
		return fmt.Errorf("%w: %s: archive is required", ErrInvalidJob, j.Name)
	}

	if j.Output == "" {
		return fmt.Errorf("%w: %s: output is required", ErrInvalidJob, j.Name)
	}

	if filepath.Clean(j.Archive) != j.Archive {
		return fmt.Errorf("%w: %s: archive path must be canonical", ErrInvalidJob, j.Name)
	}

	if filepath.Clean(j.Output) != j.Output {
		return fmt.Errorf("%w: %s: output path must be canonical", ErrInvalidJob, j.Name)
	}

	if !hasSuffix(j.Archive, bundleSuffixes...) {
		return fmt.Errorf("%w: %s: archive must end in %s", ErrInvalidJob, j.Name, strings.Join(bundleSuffixes, ", "))
	}

	if j.Url != "" {
		uri, err := url.Parse(j.Url)
		if err != nil {
			return fmt.Errorf("%w: %s: invalid url: %w", ErrInvalidJob, j.Name, err)
		}

		if uri.Scheme != "http" && uri.Scheme != "https" {
			return fmt.Errorf("%w: %s: url must be http or https", ErrInvalidJob, j.Name)
		}
	}

	if (j.Username == "") != (j.Password == "") {
		return fmt.Errorf("%w: %s: username and password must be set together", ErrInvalidJob, j.Name)
	}

	if j.Checksum != "" {
		sum, err := hex.DecodeString(j.Checksum)
		if err != nil || len(sum) != 32 {
			return fmt.Errorf("%w: %s: checksum must be a hex encoded sha256", ErrInvalidJob, j.Name)
		}
	}

	return nil
}

// ResolveTemplates resolves template expressions in the job properties
func (j *ExtractJob) ResolveTemplates(env *templates.Env) error {
	var err error

	for _, field := range []*string{&j.Archive, &j.Url, &j.Username, &j.Password, &j.Checksum, &j.Output} {
		*field, err = templates.ResolveTemplateString(*field, env)
		if err != nil {
			return fmt.Errorf("%s: %w", j.Name, err)
		}
	}

	j.Include, err = templates.ResolveTemplateStrings(j.Include, env)
	if err != nil {
		return fmt.Errorf("%s: %w", j.Name, err)
	}

	j.Exclude, err = templates.ResolveTemplateStrings(j.Exclude, env)
	if err != nil {
		return fmt.Errorf("%s: %w", j.Name, err)
	}

	for k, v := range j.Headers {
		j.Headers[k], err = templates.ResolveTemplateString(v, env)
		if err != nil {
			return fmt.Errorf("%s: %w", j.Name, err)
		}
	}

	return nil
}

// IsBundle is true when the archive is an addon bundle holding vpk files rather than a vpk
func (j *ExtractJob) IsBundle() bool {
	return !hasSuffix(j.Archive, ".vpk")
}

// Request creates the extraction request for an archive, used with Archive or with staged bundle members
func (j *ExtractJob) Request(archive string) ExtractRequest {
	return ExtractRequest{
		Name:       j.Name,
		Archive:    archive,
		Output:     j.Output,
		Include:    j.Include,
		Exclude:    j.Exclude,
		Expression: j.Expression,
		Flatten:    j.Flatten,
		Verify:     j.Verify,
	}
}

// ToYaml returns the job as a yaml document
func (j *ExtractJob) ToYaml() ([]byte, error) {
	return yaml.Marshal(j)
}

func hasSuffix(name string, suffixes ...string) bool {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}

	return false
}
