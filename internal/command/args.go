package command

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	straightQuote = '"'
	openQuote     = '“'
	closeQuote    = '”'
)

// ParseArgs splits argString into at most len(args) tokens. A token is a
// quoted span (quotes stripped) or a run of non-space characters. When the
// limit is reached the rest of the text becomes the last token verbatim,
// unwrapped only if it is a single quoted span. A trailing infinite argument
// lifts the limit.
func ParseArgs(argString string, args []*Argument) []string {
	s := strings.TrimSpace(argString)
	if s == "" {
		return []string{}
	}

	limit := len(args)
	unbounded := limit == 0 || args[limit-1].Infinite

	tokens := []string{}
	pos := 0
	matched := true
	for remaining := limit; ; {
		if !unbounded {
			remaining--
			if remaining == 0 {
				break
			}
		}
		tok, next, ok := nextToken(s, pos)
		if !ok {
			matched = false
			break
		}
		tokens = append(tokens, tok)
		pos = next
	}

	if matched && pos < len(s) {
		tokens = append(tokens, unquote(s[pos:]))
	}
	return tokens
}

// nextToken reads one token starting at pos and returns it with the offset
// just past the whitespace that follows it.
func nextToken(s string, pos int) (string, int, bool) {
	pos = skipSpace(s, pos)
	if pos >= len(s) {
		return "", pos, false
	}

	open, size := utf8.DecodeRuneInString(s[pos:])
	if open == straightQuote || open == openQuote {
		body := pos + size
		if end, closeSize := findClosingQuote(s[body:], open); end >= 0 {
			tok := s[body : body+end]
			return tok, skipSpace(s, body+end+closeSize), true
		}
	}

	end := pos
	for end < len(s) {
		r, sz := utf8.DecodeRuneInString(s[end:])
		if unicode.IsSpace(r) {
			break
		}
		end += sz
	}
	return s[pos:end], skipSpace(s, end), true
}

// findClosingQuote returns the offset and width of the first quote closing a
// span opened with open. A span closes on the same quote or on ”.
func findClosingQuote(s string, open rune) (int, int) {
	for i, r := range s {
		if r == open || r == closeQuote {
			return i, utf8.RuneLen(r)
		}
	}
	return -1, 0
}

func skipSpace(s string, pos int) int {
	for pos < len(s) {
		r, sz := utf8.DecodeRuneInString(s[pos:])
		if !unicode.IsSpace(r) {
			break
		}
		pos += sz
	}
	return pos
}

// unquote strips one pair of wrapping quotes when s is a fully quoted span.
func unquote(s string) string {
	first, firstSize := utf8.DecodeRuneInString(s)
	if first != straightQuote && first != openQuote {
		return s
	}
	last, lastSize := utf8.DecodeLastRuneInString(s)
	if len(s) < firstSize+lastSize {
		return s
	}
	if last != first && last != closeQuote {
		return s
	}
	return s[firstSize : len(s)-lastSize]
}

// Args are the values bound to a command's formal arguments, in declaration
// order. Infinite arguments hold a []string.
type Args struct {
	keys   []string
	values map[string]any
}

func (a Args) set(key string, v any) {
	a.values[key] = v
}

// Keys returns the bound keys in declaration order.
func (a Args) Keys() []string { return append([]string(nil), a.keys...) }

// Len returns the number of bound arguments.
func (a Args) Len() int { return len(a.keys) }

// Get returns the raw bound value.
func (a Args) Get(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok
}

// String returns a scalar value as text. Infinite values are joined with a
// single space.
func (a Args) String(key string) string {
	switch v := a.values[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, " ")
	default:
		return fmt.Sprint(v)
	}
}

// Strings returns an infinite value. Scalars are wrapped in a slice.
func (a Args) Strings(key string) []string {
	switch v := a.values[key].(type) {
	case nil:
		return nil
	case []string:
		return v
	case string:
		return []string{v}
	default:
		return []string{fmt.Sprint(v)}
	}
}

// Encode renders the bound values as key=value pairs for logs.
func (a Args) Encode() string {
	parts := make([]string, 0, len(a.keys))
	for _, k := range a.keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, a.String(k)))
	}
	return strings.Join(parts, " ")
}

// NewArgs builds Args from alternating key, value pairs.
func NewArgs(kv ...any) Args {
	a := Args{values: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		a.keys = append(a.keys, key)
		a.set(key, kv[i+1])
	}
	return a
}

// ObtainArgs binds tokens to cmd's formal arguments. Missing values are filled
// from defaults; the first argument with neither fails the whole binding with
// an *ArgumentError.
func ObtainArgs(ctx context.Context, c *Context, cmd *Command, tokens []string) (Args, error) {
	out := Args{keys: make([]string, 0, len(cmd.Args)), values: make(map[string]any, len(cmd.Args))}

	for i, arg := range cmd.Args {
		var value any
		var empty bool
		if arg.Infinite {
			rest := []string{}
			if i < len(tokens) {
				rest = append(rest, tokens[i:]...)
			}
			value, empty = rest, len(rest) == 0
		} else {
			empty = i >= len(tokens) || tokens[i] == ""
			if !empty {
				value = tokens[i]
			}
		}

		if empty {
			if !arg.HasDefault() {
				return Args{}, &ArgumentError{Arg: arg}
			}
			v, err := arg.Default.Resolve(ctx, c, cmd)
			if err != nil {
				return Args{}, fmt.Errorf("default for %q: %w", arg.Key, err)
			}
			value = v
		}

		out.keys = append(out.keys, arg.Key)
		out.set(arg.Key, value)
	}
	return out, nil
}
