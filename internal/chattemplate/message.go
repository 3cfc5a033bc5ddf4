// Package chattemplate renders Hugging Face style chat templates against a
// list of chat messages.
//
// Only a small subset of the template language is understood:
//
//	{% for message in messages %} ... {% endfor %}
//	{{ message.role }}
//	{{ message.content }}
//
// Loops may follow one another but do not nest. Everything else, including
// malformed tags and unknown placeholders, is copied to the output as
// literal text. Rendering never fails and never adds newlines of its own.
package chattemplate

// Message is a single chat turn.
type Message struct {
	Role    string `yaml:"role" json:"role" toml:"role"`
	Content string `yaml:"content" json:"content" toml:"content"`
}

// emptyBinding is in scope for everything outside a loop.
var emptyBinding = Message{}
