// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package jobs parses job files and runs the extractions they describe
package jobs

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/afero"

	iu "github.com/choria-io/extractvpk/internal/util"
	"github.com/choria-io/extractvpk/model"
	"github.com/choria-io/extractvpk/templates"
)

//go:embed job_file.schema.json
var jobFileSchema []byte

const jobFileSchemaURL = "https://choria.io/schemas/extractvpk/v1/job_file.json"

var (
	compiledSchema *jsonschema.Schema
	schemaErr      error
	schemaOnce     sync.Once
)

// JobFile is a parsed job file with all templates resolved
type JobFile struct {
	Concurrency int                `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	Data        map[string]any     `json:"data,omitempty" yaml:"data,omitempty"`
	Jobs        []model.ExtractJob `json:"jobs" yaml:"jobs"`

	source string
}

// Source is the file the jobs were read from
func (j *JobFile) Source() string {
	return j.source
}

// ToYaml returns the resolved job file as yaml
func (j *JobFile) ToYaml() ([]byte, error) {
	return yaml.Marshal(j)
}

// ParseFile reads and parses the job file at path
func ParseFile(fs afero.Fs, path string, env *templates.Env) (*JobFile, error) {
	jb, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	jf, err := Parse(jb, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	jf.source = path

	return jf, nil
}

// Parse validates a yaml job file against its schema, merges its data into env and resolves the job templates
func Parse(jb []byte, env *templates.Env) (*JobFile, error) {
	err := validateSchema(jb)
	if err != nil {
		return nil, err
	}

	jf := &JobFile{}
	err = yaml.Unmarshal(jb, jf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidJob, err)
	}

	if env == nil {
		env = templates.NewEnv(nil, nil)
	}

	env.Data = iu.DeepMergeMap(env.Data, jf.Data)
	jf.Data = env.Data
	jf.source = "inline"

	seen := make(map[string]struct{}, len(jf.Jobs))

	for i := range jf.Jobs {
		job := &jf.Jobs[i]

		_, ok := seen[job.Name]
		if ok {
			return nil, fmt.Errorf("%w: %s", model.ErrDuplicateJobName, job.Name)
		}
		seen[job.Name] = struct{}{}

		err = job.ResolveTemplates(env)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrInvalidJob, err)
		}

		err = job.Validate()
		if err != nil {
			return nil, err
		}
	}

	return jf, nil
}

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(jobFileSchema))
		if err != nil {
			schemaErr = err
			return
		}

		c := jsonschema.NewCompiler()
		err = c.AddResource(jobFileSchemaURL, doc)
		if err != nil {
			schemaErr = err
			return
		}

		compiledSchema, schemaErr = c.Compile(jobFileSchemaURL)
	})

	return compiledSchema, schemaErr
}

func validateSchema(jb []byte) error {
	sch, err := schema()
	if err != nil {
		return fmt.Errorf("could not compile job file schema: %w", err)
	}

	jj, err := yaml.YAMLToJSON(jb)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidJob, err)
	}

	// an empty document converts to null
	trimmed := bytes.TrimSpace(jj)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return fmt.Errorf("%w: empty job file", model.ErrInvalidJob)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jj))
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidJob, err)
	}

	err = sch.Validate(inst)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidJob, err)
	}

	return nil
}
