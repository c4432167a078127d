// Package template implements the notification template engine. A template is
// an XML document with an optional subject (email shape), a required body, and
// zero or more date_format directives of the form "pattern#_variable". Subject
// and body text embed placeholder tokens written with an underscore prefix,
// e.g. _customer_firstname.
//
// Documents are parsed once into an AST of literal and placeholder nodes and
// shared read-only across renderings; rendering is pure given the bindings.
package template

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"time"

	apperrors "nsa-scheduler/internal/common/errors"
	"nsa-scheduler/internal/pattern"
)

// Shape selects the template layout.
type Shape string

const (
	ShapeEmail Shape = "email"
	ShapeText  Shape = "text"
)

// Rendered is the concrete message produced from a template.
type Rendered struct {
	Subject string
	Body    string
}

// node is one parsed segment of subject or body text.
type node struct {
	literal     string
	placeholder string // with the underscore prefix; empty for literals
}

// Template is an immutable parsed template document.
type Template struct {
	Shape      Shape
	subject    []node
	body       []node
	directives map[string]string // placeholder -> pattern
}

type xmlDocument struct {
	XMLName     xml.Name `xml:"template"`
	Subject     *string  `xml:"subject"`
	Body        *string  `xml:"body"`
	DateFormats []string `xml:"date_format"`
}

// LoadFile reads and parses a template document from disk.
func LoadFile(path string, shape Shape) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewValidationFailedError("template", err.Error())
	}
	return Parse(data, shape)
}

// Parse parses a template document. Directive variables must name a
// placeholder that occurs in the subject or body; anything else is a
// load-time validation failure.
func Parse(data []byte, shape Shape) (*Template, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewValidationFailedError("template", err.Error())
	}

	if doc.Body == nil || strings.TrimSpace(*doc.Body) == "" {
		return nil, apperrors.NewValidationFailedError("template", "body element is required")
	}

	t := &Template{
		Shape:      shape,
		body:       parseNodes(*doc.Body),
		directives: make(map[string]string, len(doc.DateFormats)),
	}

	if shape == ShapeEmail {
		if doc.Subject == nil || strings.TrimSpace(*doc.Subject) == "" {
			return nil, apperrors.NewValidationFailedError("template", "email template requires a subject element")
		}
		t.subject = parseNodes(*doc.Subject)
	}

	known := t.placeholderSet()
	for _, directive := range doc.DateFormats {
		pat, name, ok := strings.Cut(directive, "#")
		if !ok {
			return nil, apperrors.NewValidationFailedError("template",
				fmt.Sprintf("malformed date_format directive %q, want pattern#_variable", directive))
		}
		name = strings.TrimSpace(name)
		if _, exists := known[name]; !exists {
			return nil, apperrors.NewValidationFailedError("template",
				fmt.Sprintf("date_format directive references unknown placeholder %q", name))
		}
		t.directives[name] = pat
	}

	return t, nil
}

// Render substitutes bindings into the template. Date-directive variables
// must be bound to a time.Time; a placeholder with no binding at all fails
// the render with a MissingVariable error naming it.
func (t *Template) Render(bindings map[string]interface{}) (Rendered, error) {
	overrides, err := t.formatOverrides(bindings)
	if err != nil {
		return Rendered{}, err
	}

	body, err := renderNodes(t.body, bindings, overrides)
	if err != nil {
		return Rendered{}, err
	}

	out := Rendered{Body: body}
	if t.Shape == ShapeEmail {
		subject, err := renderNodes(t.subject, bindings, overrides)
		if err != nil {
			return Rendered{}, err
		}
		out.Subject = subject
	}

	return out, nil
}

// Placeholders returns the distinct placeholder names the template references.
func (t *Template) Placeholders() []string {
	set := t.placeholderSet()
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	return names
}

func (t *Template) placeholderSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, n := range t.subject {
		if n.placeholder != "" {
			set[n.placeholder] = struct{}{}
		}
	}
	for _, n := range t.body {
		if n.placeholder != "" {
			set[n.placeholder] = struct{}{}
		}
	}
	return set
}

func (t *Template) formatOverrides(bindings map[string]interface{}) (map[string]string, error) {
	if len(t.directives) == 0 {
		return nil, nil
	}

	overrides := make(map[string]string, len(t.directives))
	for name, pat := range t.directives {
		raw, bound := bindings[name]
		if !bound {
			// Caught again at substitution time if the placeholder occurs,
			// with the same MissingVariable error.
			continue
		}
		instant, ok := raw.(time.Time)
		if !ok {
			return nil, apperrors.NewValidationFailedError("template",
				fmt.Sprintf("date_format variable %q is bound to %T, want a timestamp", name, raw))
		}
		overrides[name] = pattern.Format(pat, instant)
	}
	return overrides, nil
}

func renderNodes(nodes []node, bindings map[string]interface{}, overrides map[string]string) (string, error) {
	var b strings.Builder
	for _, n := range nodes {
		if n.placeholder == "" {
			b.WriteString(n.literal)
			continue
		}
		if formatted, ok := overrides[n.placeholder]; ok {
			b.WriteString(formatted)
			continue
		}
		raw, ok := bindings[n.placeholder]
		if !ok {
			return "", apperrors.NewMissingVariableError(n.placeholder)
		}
		b.WriteString(fmt.Sprintf("%v", raw))
	}
	return b.String(), nil
}

// parseNodes splits text into literal and placeholder nodes in a single pass.
// A placeholder starts at an underscore and spans the longest run of word
// characters, so a variable name that is a prefix of another can never
// partially match.
func parseNodes(text string) []node {
	var nodes []node
	literalStart := 0

	for i := 0; i < len(text); {
		if text[i] != '_' || i+1 >= len(text) || !isWordChar(text[i+1]) {
			i++
			continue
		}

		end := i + 1
		for end < len(text) && isWordChar(text[end]) {
			end++
		}

		if literalStart < i {
			nodes = append(nodes, node{literal: text[literalStart:i]})
		}
		nodes = append(nodes, node{placeholder: text[i:end]})
		i = end
		literalStart = end
	}

	if literalStart < len(text) {
		nodes = append(nodes, node{literal: text[literalStart:]})
	}

	return nodes
}

func isWordChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
