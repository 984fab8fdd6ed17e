// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package templates

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/tidwall/gjson"
)

var placeholder = regexp.MustCompile(`{{\s*(.*?)\s*}}`)

// Env is the environment job file templates are resolved against
type Env struct {
	Facts   map[string]any    `json:"facts" yaml:"facts" expr:"facts"`
	Data    map[string]any    `json:"data" yaml:"data" expr:"data"`
	Environ map[string]string `json:"environ" yaml:"environ" expr:"environ"`

	envJSON json.RawMessage
	mu      sync.Mutex
}

// NewEnv creates an environment holding facts, data and the current process environment
func NewEnv(facts map[string]any, data map[string]any) *Env {
	environ := make(map[string]string)
	for _, line := range os.Environ() {
		k, v, ok := strings.Cut(line, "=")
		if ok {
			environ[k] = v
		}
	}

	if facts == nil {
		facts = make(map[string]any)
	}

	if data == nil {
		data = make(map[string]any)
	}

	return &Env{Facts: facts, Data: data, Environ: environ}
}

// lookup finds a value using a gjson path like facts.host.info.hostname, an optional second argument is the default
func (e *Env) lookup(params ...any) (any, error) {
	if len(params) == 0 || len(params) > 2 {
		return nil, fmt.Errorf("lookup requires 1 or 2 arguments")
	}

	key, ok := params[0].(string)
	if !ok {
		return nil, fmt.Errorf("lookup requires a string argument")
	}

	var defaultValue any = ""
	if len(params) == 2 {
		defaultValue = params[1]
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.envJSON == nil {
		j, err := json.Marshal(e)
		if err != nil {
			return "", err
		}
		e.envJSON = j
	}

	res := gjson.GetBytes(e.envJSON, key)
	if !res.Exists() {
		return defaultValue, nil
	}

	if res.Type == gjson.Number {
		if strings.Contains(res.Raw, ".") {
			return res.Float(), nil
		}

		return res.Int(), nil
	}

	return res.Value(), nil
}

// ResolveTemplateString resolves {{ expression }} placeholders in a template string
func ResolveTemplateString(template string, env *Env) (string, error) {
	if template == "" || !strings.Contains(template, "{{") {
		return template, nil
	}

	matches := placeholder.FindAllStringSubmatchIndex(template, -1)
	if matches == nil {
		return template, nil
	}

	var result strings.Builder
	lastIndex := 0

	for _, loc := range matches {
		value, err := exprParse(template[loc[2]:loc[3]], env)
		if err != nil {
			return "", err
		}

		result.WriteString(template[lastIndex:loc[0]])
		if value != nil {
			result.WriteString(fmt.Sprint(value))
		}

		lastIndex = loc[1]
	}

	result.WriteString(template[lastIndex:])

	return result.String(), nil
}

// ResolveTemplateStrings resolves every string in list, the input is not modified
func ResolveTemplateStrings(list []string, env *Env) ([]string, error) {
	if len(list) == 0 {
		return list, nil
	}

	res := make([]string, len(list))
	for i, s := range list {
		v, err := ResolveTemplateString(s, env)
		if err != nil {
			return nil, err
		}
		res[i] = v
	}

	return res, nil
}

func exprParse(query string, env *Env) (any, error) {
	program, err := expr.Compile(query, expr.Env(env), expr.Function("lookup", env.lookup))
	if err != nil {
		return "", fmt.Errorf("expr compile error for '%s': %w", query, err)
	}

	return expr.Run(program, env)
}
