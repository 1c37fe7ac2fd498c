package task

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/kode4food/pilot/pkg/api"
)

// templateFuncs are available to every task template
var templateFuncs = template.FuncMap{
	"env": os.Getenv,
	"default": func(def, val string) string {
		if val == "" {
			return def
		}
		return val
	},
	"trim":  strings.TrimSpace,
	"lower": strings.ToLower,
	"json":  toJSON,
}

// toJSON encodes v as a JSON value, for embedding inputs in request bodies
func toJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func parseTemplate(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).
		Funcs(templateFuncs).
		Option("missingkey=zero").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTemplate, name, err)
	}
	return tmpl, nil
}

func parseTemplates(name string, texts []string) ([]*template.Template, error) {
	res := make([]*template.Template, len(texts))
	for i, text := range texts {
		tmpl, err := parseTemplate(fmt.Sprintf("%s[%d]", name, i), text)
		if err != nil {
			return nil, err
		}
		res[i] = tmpl
	}
	return res, nil
}

func render(tmpl *template.Template, in api.Inputs) (string, error) {
	if tmpl == nil {
		return "", nil
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, map[string]string(in)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTemplate, err)
	}
	return buf.String(), nil
}
