// Package tokenizer reads the chat template out of a Hugging Face
// tokenizer_config.json document.
package tokenizer

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultTemplateName is the entry picked from a list of named templates
// when the caller does not ask for one.
const DefaultTemplateName = "default"

var (
	ErrNoChatTemplate = errors.New("no chat_template in tokenizer config")
	ErrInvalidConfig  = errors.New("tokenizer config is not valid JSON")
)

// ChatTemplate returns the chat_template field of a tokenizer config. The
// field is either a string or a list of {"name", "template"} objects; name
// selects from the list and defaults to DefaultTemplateName.
func ChatTemplate(config []byte, name string) (string, error) {
	if !gjson.ValidBytes(config) {
		return "", ErrInvalidConfig
	}
	if name == "" {
		name = DefaultTemplateName
	}

	field := gjson.GetBytes(config, "chat_template")
	switch {
	case field.Type == gjson.String:
		if name != DefaultTemplateName {
			return "", fmt.Errorf("%w named %q: config has a single unnamed template", ErrNoChatTemplate, name)
		}
		return field.Str, nil
	case field.IsArray():
		for _, entry := range field.Array() {
			if entry.Get("name").String() == name {
				tmpl := entry.Get("template")
				if tmpl.Type != gjson.String {
					return "", fmt.Errorf("%w: template %q is not a string", ErrNoChatTemplate, name)
				}
				return tmpl.Str, nil
			}
		}
		return "", fmt.Errorf("%w named %q (available: %s)", ErrNoChatTemplate, name, strings.Join(TemplateNames(config), ", "))
	default:
		return "", ErrNoChatTemplate
	}
}

// TemplateNames lists the named templates in a tokenizer config. A config
// with a single string template reports DefaultTemplateName.
func TemplateNames(config []byte) []string {
	field := gjson.GetBytes(config, "chat_template")
	if field.Type == gjson.String {
		return []string{DefaultTemplateName}
	}

	var names []string
	field.ForEach(func(_, entry gjson.Result) bool {
		if n := entry.Get("name"); n.Exists() {
			names = append(names, n.String())
		}
		return true
	})
	return names
}

// LoadFile reads a tokenizer_config.json from disk and extracts its chat
// template.
func LoadFile(path, name string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading tokenizer config %q: %w", path, err)
	}

	tmpl, err := ChatTemplate(data, name)
	if err != nil {
		return "", fmt.Errorf("tokenizer config %q: %w", path, err)
	}
	return tmpl, nil
}
