package chattemplate

import "strings"

const (
	placeholderOpen  = "{{"
	placeholderClose = "}}"

	roleKey    = "message.role"
	contentKey = "message.content"
)

// interpolate writes text to out with every recognised placeholder replaced
// by the matching field of m. offset is the position of text in the template
// and only feeds diagnostics.
func interpolate(out *strings.Builder, text string, m Message, offset int, diags *diagnostics) {
	for {
		start := strings.Index(text, placeholderOpen)
		if start < 0 {
			out.WriteString(text)
			return
		}
		out.WriteString(text[:start])
		rest := text[start:]

		end := strings.Index(rest[len(placeholderOpen):], placeholderClose)
		if end < 0 {
			diags.add(UnterminatedPlaceholder, offset+start, rest)
			out.WriteString(rest)
			return
		}

		span := rest[:len(placeholderOpen)+end+len(placeholderClose)]
		switch strings.TrimSpace(span[len(placeholderOpen) : len(span)-len(placeholderClose)]) {
		case roleKey:
			out.WriteString(m.Role)
		case contentKey:
			out.WriteString(m.Content)
		default:
			diags.add(UnknownPlaceholder, offset+start, span)
			out.WriteString(span)
		}

		text = rest[len(span):]
		offset += start + len(span)
	}
}

// emit writes a single fragment bound to m.
func emit(out *strings.Builder, f Fragment, m Message, diags *diagnostics) {
	if f.Kind == Verbatim {
		out.WriteString(f.Text)
		return
	}
	interpolate(out, f.Text, m, f.Offset, diags)
}
