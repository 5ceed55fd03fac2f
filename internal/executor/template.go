package executor

import (
	"bytes"
	"math/rand"
	"strings"
	"text/template"

	"github.com/google/uuid"
)

// StatementTemplate expands placeholders in custom statements so each
// query attempt can vary its parameters, e.g.
//
//	SELECT * FROM orders WHERE id = {{randomInt 1 100000}}
//	SELECT * FROM sessions WHERE token = '{{uuid}}'
type StatementTemplate struct {
	tmpl *template.Template
}

// ParseStatement compiles a statement template. Plain statements
// without placeholders compile too and expand to themselves.
func ParseStatement(text string) (*StatementTemplate, error) {
	funcs := template.FuncMap{
		"randomInt": func(min, max int) int {
			if max <= min {
				return min
			}
			return rand.Intn(max-min) + min
		},
		"uuid": func() string { return uuid.New().String() },
		"randomChoice": func(choices ...string) string {
			if len(choices) == 0 {
				return ""
			}
			return choices[rand.Intn(len(choices))]
		},
	}

	t, err := template.New("statement").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, err
	}
	return &StatementTemplate{tmpl: t}, nil
}

// Expand renders one concrete statement.
func (s *StatementTemplate) Expand() (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, nil); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HasPlaceholders reports whether the raw text contains template syntax,
// letting executors skip per-query expansion for static statements.
func HasPlaceholders(text string) bool {
	return strings.Contains(text, "{{")
}
