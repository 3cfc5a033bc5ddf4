package chattemplate

import (
	"fmt"
	"slices"
	"strings"
)

// Template is a segmented chat template. It is immutable and safe to render
// from several goroutines at once.
type Template struct {
	source    string
	fragments []Fragment
	issues    []Diagnostic
}

// Parse segments template once so it can be rendered many times.
func Parse(template string) *Template {
	diags := &diagnostics{}
	return &Template{
		source:    template,
		fragments: segment(template, diags),
		issues:    diags.list,
	}
}

// Render renders template against messages. It always succeeds; malformed
// constructs come out as literal text.
func Render(template string, messages []Message) string {
	return Parse(template).Render(messages)
}

// RenderStrict renders exactly like Render and additionally returns a
// *StrictError listing every fail-soft fallback that was taken.
func RenderStrict(template string, messages []Message) (string, error) {
	return Parse(template).RenderStrict(messages)
}

// Source returns the template text.
func (t *Template) Source() string { return t.source }

// Fragments returns a copy of the segmented template.
func (t *Template) Fragments() []Fragment { return slices.Clone(t.fragments) }

func (t *Template) Render(messages []Message) string {
	return t.render(messages, nil)
}

func (t *Template) RenderStrict(messages []Message) (string, error) {
	diags := &diagnostics{list: slices.Clone(t.issues)}
	out := t.render(messages, diags)
	if len(diags.list) == 0 {
		return out, nil
	}
	return out, &StrictError{Diagnostics: diags.resolve(t.source)}
}

// Check reports the fallbacks the template needs regardless of the messages
// it is rendered with.
func (t *Template) Check() []Diagnostic {
	diags := &diagnostics{list: slices.Clone(t.issues)}
	t.render(nil, diags)
	return diags.resolve(t.source)
}

// state is either top or *inLoop.
type state interface {
	isState()
}

// top emits fragments as they arrive.
type top struct{}

// inLoop collects a loop body until the matching endfor.
type inLoop struct {
	open Fragment
	body []Fragment
}

func (top) isState()     {}
func (*inLoop) isState() {}

type renderer struct {
	out      strings.Builder
	messages []Message
	diags    *diagnostics
}

func (t *Template) render(messages []Message, diags *diagnostics) string {
	r := &renderer{messages: messages, diags: diags}
	r.out.Grow(len(t.source))

	var st state = top{}
	for _, f := range t.fragments {
		st = r.step(st, f)
	}
	r.finish(st)
	return r.out.String()
}

func (r *renderer) step(st state, f Fragment) state {
	switch s := st.(type) {
	case top:
		switch f.Kind {
		case LoopOpen:
			return &inLoop{open: f}
		case LoopClose:
			r.diags.add(OrphanEndFor, f.Offset, f.Text)
		}
		emit(&r.out, f, emptyBinding, r.diags)
		return s
	case *inLoop:
		switch f.Kind {
		case LoopClose:
			r.replay(s.body)
			return top{}
		case LoopOpen:
			r.diags.add(NestedLoop, f.Offset, f.Text)
		}
		s.body = append(s.body, f)
		return s
	default:
		panic(fmt.Sprintf("chattemplate: unexpected render state %T", st))
	}
}

// replay runs body once per message in order. Diagnostics are taken from
// the first pass only, or from a discarded pass when there are no messages.
func (r *renderer) replay(body []Fragment) {
	if len(r.messages) == 0 {
		if r.diags != nil {
			var discard strings.Builder
			for _, f := range body {
				emit(&discard, f, emptyBinding, r.diags)
			}
		}
		return
	}
	for i, m := range r.messages {
		diags := r.diags
		if i > 0 {
			diags = nil
		}
		for _, f := range body {
			emit(&r.out, f, m, diags)
		}
	}
}

// finish flushes a loop that never saw its endfor: the open tag and the body
// are copied as they were written, without replay.
func (r *renderer) finish(st state) {
	s, ok := st.(*inLoop)
	if !ok {
		return
	}
	r.diags.add(UnclosedLoop, s.open.Offset, s.open.Text)
	r.out.WriteString(s.open.Text)
	for _, f := range s.body {
		r.out.WriteString(f.Text)
	}
}
