package chattemplate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleLoop = "{% for message in messages %}{{ message.role }}: {{ message.content }}\n{% endfor %}"

func twoMessages() []Message {
	return []Message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: "Hello"},
	}
}

func TestRender(t *testing.T) {
	a := Message{Role: "a", Content: "x"}
	b := Message{Role: "b", Content: "y"}

	tests := []struct {
		name     string
		template string
		messages []Message
		want     string
	}{
		{
			name:     "loop over messages",
			template: simpleLoop,
			messages: twoMessages(),
			want:     "system: You are a helpful assistant.\nuser: Hello\n",
		},
		{
			name:     "no messages",
			template: simpleLoop,
			messages: nil,
			want:     "",
		},
		{
			name:     "unterminated loop tag",
			template: "Hello {% for message in messages",
			messages: twoMessages(),
			want:     "Hello {% for message in messages",
		},
		{
			name:     "loop without endfor",
			template: "{% for message in messages %}body",
			messages: twoMessages(),
			want:     "{% for message in messages %}body",
		},
		{
			name:     "loop without endfor after literal",
			template: "before {% for message in messages %}broken {{ message.role }}",
			messages: []Message{a},
			want:     "before {% for message in messages %}broken {{ message.role }}",
		},
		{
			name:     "unknown placeholder",
			template: "{{ message.foo }}",
			messages: twoMessages(),
			want:     "{{ message.foo }}",
		},
		{
			name:     "template without newlines",
			template: "{% for message in messages %}{{ message.role }}: {{ message.content }}{% endfor %}",
			messages: twoMessages(),
			want:     "system: You are a helpful assistant.user: Hello",
		},
		{
			name: "sequential loops with literals",
			template: "prefix-\n" +
				"{% for message in messages %}A: {{ message.role }}\n{% endfor %}" +
				"middle-\n" +
				"{% for message in messages %}B: {{ message.content }}\n{% endfor %}suffix",
			messages: twoMessages(),
			want: "prefix-\n" +
				"A: system\n" +
				"A: user\n" +
				"middle-\n" +
				"B: You are a helpful assistant.\n" +
				"B: Hello\n" +
				"suffix",
		},
		{
			name:     "tag missing its closing delimiter",
			template: "oops {% for message in messages broken {% endfor %} tail",
			messages: []Message{b},
			want:     "oops {% for message in messages broken {% endfor %} tail",
		},
		{
			name:     "placeholders outside a loop bind to an empty message",
			template: "[{{ message.role }}|{{message.content}}]",
			messages: []Message{a},
			want:     "[|]",
		},
		{
			name:     "endfor outside a loop",
			template: "a{% endfor %}b",
			messages: []Message{a},
			want:     "a{% endfor %}b",
		},
		{
			name:     "nested loop folds into the body",
			template: "{% for message in messages %}<{% for message in messages %}{{ message.role }}>{% endfor %}|{% endfor %}",
			messages: []Message{a, b},
			want:     "<{% for message in messages %}a><{% for message in messages %}b>|{% endfor %}",
		},
		{
			name:     "unknown tags stay literal",
			template: "{% if x %}{{ message.role }}{% endif %}",
			messages: []Message{a},
			want:     "{% if x %}{% endif %}",
		},
		{
			name:     "tags without inner padding",
			template: "{%for message in messages%}{{ message.role }}{%endfor%}",
			messages: []Message{a, b},
			want:     "ab",
		},
		{
			name:     "tag split across lines stays literal",
			template: "{% for message in messages\n%}{{ message.role }}{% endfor\n%}",
			messages: []Message{a, b},
			want:     "{% for message in messages\n%}{% endfor\n%}",
		},
		{
			name:     "unterminated tag inside a loop body",
			template: "{% for message in messages %}a {% b\n{% endfor %}",
			messages: []Message{{Role: "user", Content: "hi"}},
			want:     "a {% b\n",
		},
		{
			name:     "stray tag open before a loop",
			template: "50{% off {% for message in messages %}{{ message.role }}{% endfor %}",
			messages: []Message{{Role: "user", Content: "hi"}},
			want:     "50{% off user",
		},
		{
			name:     "several stray tag opens",
			template: "{% {% x {% for message in messages %}{{ message.content }};{% endfor %}",
			messages: []Message{a, b},
			want:     "{% {% x x;y;",
		},
		{
			name:     "extra spaces between words",
			template: "{%  for  message in messages %}{{ message.role }}{% endfor %}",
			messages: []Message{a},
			want:     "{%  for  message in messages %}{% endfor %}",
		},
		{
			name:     "whitespace control markers",
			template: "{%- for message in messages -%}{{ message.role }}{%- endfor -%}",
			messages: []Message{a},
			want:     "{%- for message in messages -%}{%- endfor -%}",
		},
		{
			name:     "crlf terminators",
			template: "{% for message in messages %}{{ message.role }}\r\n{% endfor %}",
			messages: []Message{a, b},
			want:     "a\r\nb\r\n",
		},
		{
			name:     "unicode fields",
			template: "{% for message in messages %}«{{ message.role }}»{{ message.content }}{% endfor %}",
			messages: []Message{{Role: "ユーザー", Content: "こんにちは 🌍"}},
			want:     "«ユーザー»こんにちは 🌍",
		},
		{
			name:     "content is not escaped",
			template: "{% for message in messages %}{{ message.content }}{% endfor %}",
			messages: []Message{{Role: "user", Content: "Hello <world> & \"friends\""}},
			want:     "Hello <world> & \"friends\"",
		},
		{
			name:     "content is not re-interpreted",
			template: "{% for message in messages %}{{ message.content }}{% endfor %}",
			messages: []Message{{Role: "user", Content: "{{ message.role }}{% endfor %}"}},
			want:     "{{ message.role }}{% endfor %}",
		},
		{
			name:     "placeholder closed on a later line",
			template: "{% for message in messages %}{{ message.role }} {{ message.content\n}}{% endfor %}",
			messages: []Message{a, b},
			want:     "a {{ message.content\n}}b {{ message.content\n}}",
		},
		{
			name:     "text after an unterminated tag is interpolated",
			template: "{% for message in messages %}{{ message.role }}{% endfor %}{% {{ message.role }}",
			messages: []Message{a},
			want:     "a{% ",
		},
		{
			name:     "unterminated unknown tag at top level",
			template: "x {% if {{ message.role }}",
			messages: []Message{a},
			want:     "x {% if ",
		},
		{
			name:     "unterminated loop tag is copied as written",
			template: "{% for {{ message.role }}\n{{ message.role }}",
			messages: []Message{a},
			want:     "{% for {{ message.role }}\n{{ message.role }}",
		},
		{
			name:     "tag scanning resumes after an unterminated loop tag line",
			template: "{% for {{ message.role }}\n[{{ message.role }}]{% endfor %}",
			messages: []Message{a},
			want:     "{% for {{ message.role }}\n[]{% endfor %}",
		},
		{
			name:     "duplicate messages replay twice",
			template: "{% for message in messages %}{{ message.role }}{% endfor %}",
			messages: []Message{a, a},
			want:     "aa",
		},
		{
			name:     "literals around an empty loop",
			template: "pre\n{% for message in messages %}x{% endfor %}post",
			messages: nil,
			want:     "pre\npost",
		},
		{
			name:     "empty template",
			template: "",
			messages: []Message{a},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.template, tt.messages))
		})
	}
}

func TestRenderSequentialLoopsAreIndependent(t *testing.T) {
	tmpl := "{% for message in messages %}[{{ message.role }}]{% endfor %}" +
		"{% for message in messages %}({{ message.content }}){% endfor %}"

	got := Render(tmpl, twoMessages())
	require.Equal(t, "[system][user](You are a helpful assistant.)(Hello)", got)
}

func TestRenderDoesNotMutateMessages(t *testing.T) {
	messages := twoMessages()
	before := append([]Message(nil), messages...)

	Render(simpleLoop, messages)

	require.Equal(t, before, messages)
}

func TestTemplateConcurrentRender(t *testing.T) {
	tmpl := Parse(simpleLoop)
	want := "system: You are a helpful assistant.\nuser: Hello\n"

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = tmpl.Render(twoMessages())
		}()
	}
	wg.Wait()

	for _, got := range results {
		require.Equal(t, want, got)
	}
}

func TestTemplateSource(t *testing.T) {
	tmpl := Parse(simpleLoop)
	require.Equal(t, simpleLoop, tmpl.Source())

	frags := tmpl.Fragments()
	frags[0].Text = "changed"
	require.NotEqual(t, "changed", tmpl.Fragments()[0].Text)
}
