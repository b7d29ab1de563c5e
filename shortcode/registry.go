package shortcode

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidTag is returned by Add for tag names that cannot appear in
// content.
var ErrInvalidTag = errors.New("invalid shortcode tag")

// Handler renders one occurrence of a tag. content is the enclosed text of
// [tag]...[/tag], or "" for a self-closing tag.
type Handler func(ctx context.Context, attrs map[string]string, content string, tag string) string

// Registry holds the handlers for every known tag.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Add registers handler for tag, replacing any previous handler.
func (r *Registry) Add(tag string, handler Handler) error {
	if tag == "" || strings.ContainsAny(tag, "[]/<>&\"' \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	if handler == nil {
		return fmt.Errorf("nil handler for shortcode %q", tag)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[tag] = handler
	return nil
}

func (r *Registry) Remove(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, tag)
}

func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[tag]
	return ok
}

// Tags returns the registered tag names in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.handlers))
	for tag := range r.handlers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func (r *Registry) handler(tag string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[tag]
}

// Do expands every registered tag in content. Unknown tags are left as they
// are, and [[tag]] produces the literal text [tag].
func (r *Registry) Do(ctx context.Context, content string) string {
	if !strings.Contains(content, "[") {
		return content
	}

	var out strings.Builder
	i := 0
	for i < len(content) {
		open := strings.IndexByte(content[i:], '[')
		if open < 0 {
			out.WriteString(content[i:])
			break
		}
		open += i
		out.WriteString(content[i:open])

		escaped := open+1 < len(content) && content[open+1] == '['
		start := open
		if escaped {
			start = open + 1
		}

		m, ok := r.match(content, start)
		if !ok {
			out.WriteByte('[')
			i = open + 1
			continue
		}

		if escaped {
			if m.end < len(content) && content[m.end] == ']' {
				out.WriteString(content[start:m.end])
				i = m.end + 1
				continue
			}
			// A lone extra bracket stays literal and the tag still expands.
			out.WriteByte('[')
		}

		out.WriteString(m.handler(ctx, ParseAttrs(m.attrs), m.content, m.tag))
		i = m.end
	}

	return out.String()
}

type match struct {
	tag     string
	attrs   string
	content string
	end     int
	handler Handler
}

// match parses a registered tag starting at the '[' at content[start].
func (r *Registry) match(content string, start int) (match, bool) {
	nameStart := start + 1
	nameEnd := nameStart
	for nameEnd < len(content) && !isNameEnd(content[nameEnd]) {
		nameEnd++
	}
	if nameEnd == nameStart || nameEnd >= len(content) {
		return match{}, false
	}

	tag := content[nameStart:nameEnd]
	handler := r.handler(tag)
	if handler == nil {
		return match{}, false
	}

	closeAt := tagClose(content, nameEnd)
	if closeAt < 0 {
		return match{}, false
	}

	attrs := strings.TrimSpace(content[nameEnd:closeAt])
	m := match{tag: tag, end: closeAt + 1, handler: handler}

	if strings.HasSuffix(attrs, "/") {
		m.attrs = strings.TrimSuffix(attrs, "/")
		return m, true
	}
	m.attrs = attrs

	closing := "[/" + tag + "]"
	if idx := strings.Index(content[m.end:], closing); idx >= 0 {
		m.content = content[m.end : m.end+idx]
		m.end += idx + len(closing)
	}

	return m, true
}

func isNameEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ']', '/', '[':
		return true
	}
	return false
}

// tagClose returns the index of the ']' closing the opening tag, skipping
// brackets inside quoted values, or -1.
func tagClose(content string, from int) int {
	var quote byte
	for i := from; i < len(content); i++ {
		c := content[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			return -1
		case c == ']':
			return i
		}
	}
	return -1
}
