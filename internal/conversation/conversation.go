// Package conversation builds the ordered message list a chat template is
// rendered against.
package conversation

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/flacial/chattmpl/internal/chattemplate"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

type file struct {
	Messages []chattemplate.Message `yaml:"messages" toml:"messages"`
}

// Load reads a conversation file. YAML and JSON files hold either a list of
// {role, content} objects or a document with a "messages" list; TOML files
// use [[messages]] tables.
func Load(path string) ([]chattemplate.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading conversation file %q: %w", path, err)
	}

	var messages []chattemplate.Message
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		messages, err = DecodeTOML(data)
	default:
		messages, err = Decode(data)
	}
	if err != nil {
		return nil, fmt.Errorf("conversation file %q: %w", path, err)
	}
	return messages, nil
}

// Decode parses a YAML or JSON conversation.
func Decode(data []byte) ([]chattemplate.Message, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if gjson.ValidBytes(data) {
		return decodeJSON(data)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing conversation: %w", err)
	}

	var messages []chattemplate.Message
	if len(doc.Content) > 0 && doc.Content[0].Kind == yaml.SequenceNode {
		if err := doc.Decode(&messages); err != nil {
			return nil, fmt.Errorf("error decoding message list: %w", err)
		}
	} else {
		var f file
		if err := doc.Decode(&f); err != nil {
			return nil, fmt.Errorf("error decoding conversation: %w", err)
		}
		messages = f.Messages
	}
	return messages, validate(messages)
}

// decodeJSON reads messages from valid JSON. Tab-indented JSON is common and
// is not valid YAML.
func decodeJSON(data []byte) ([]chattemplate.Message, error) {
	root := gjson.ParseBytes(data)
	list := root
	if root.IsObject() {
		list = root.Get("messages")
	}
	if !list.IsArray() {
		return nil, errors.New("error decoding conversation: want a list of messages or a messages field")
	}

	var messages []chattemplate.Message
	for i, entry := range list.Array() {
		if !entry.IsObject() {
			return nil, fmt.Errorf("error decoding message %d: not an object", i)
		}
		messages = append(messages, chattemplate.Message{
			Role:    entry.Get("role").String(),
			Content: entry.Get("content").String(),
		})
	}
	return messages, validate(messages)
}

// DecodeTOML parses a TOML conversation.
func DecodeTOML(data []byte) ([]chattemplate.Message, error) {
	var f file
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("error parsing conversation: %w", err)
	}
	return f.Messages, validate(f.Messages)
}

// FromPrompt builds a conversation of an optional system message followed by
// one user message.
func FromPrompt(system, prompt string) []chattemplate.Message {
	var messages []chattemplate.Message
	if system != "" {
		messages = append(messages, chattemplate.Message{Role: "system", Content: system})
	}
	return append(messages, chattemplate.Message{Role: "user", Content: prompt})
}

func validate(messages []chattemplate.Message) error {
	for i, m := range messages {
		if m.Role == "" {
			return fmt.Errorf("message %d has no role", i)
		}
	}
	return nil
}
