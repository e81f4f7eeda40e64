package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/client"
)

// The backend mixes snake_case and camelCase, wraps some payloads in
// {data: ...}, and sends ids and prices as either numbers or strings. The
// helpers here read those variants so the Normalize* functions can map each
// entity into one canonical shape.

type object = map[string]any

func decodeObject(raw json.RawMessage) (object, error) {
	var m object
	if err := json.Unmarshal(client.UnwrapData(raw), &m); err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}
	if m == nil {
		m = object{}
	}
	return m, nil
}

// decodeObjects accepts a bare array, {data: [...]}, or an object carrying
// the array under one of the usual collection keys.
func decodeObjects(raw json.RawMessage) ([]object, error) {
	inner := client.UnwrapData(raw)
	trimmed := bytes.TrimSpace(inner)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var list []object
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decoding list: %w", err)
		}
		return list, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decoding list envelope: %w", err)
	}
	for _, key := range []string{"items", "data", "results", "courses", "rows"} {
		if v, ok := env[key]; ok {
			return decodeObjects(v)
		}
	}
	return nil, nil
}

func pick(m object, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func pickString(m object, keys ...string) string {
	v, ok := pick(m, keys...)
	if !ok {
		return ""
	}
	return toString(v)
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func pickFloat(m object, keys ...string) *float64 {
	v, ok := pick(m, keys...)
	if !ok {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

// toID returns a positive integer id, or 0 when v carries none.
func toID(v any) int64 {
	f, ok := toFloat(v)
	if !ok || f <= 0 || f != math.Trunc(f) || f > math.MaxInt64 {
		return 0
	}
	return int64(f)
}

func pickID(m object, keys ...string) int64 {
	for _, k := range keys {
		if id := toID(m[k]); id > 0 {
			return id
		}
	}
	return 0
}

func pickBool(m object, keys ...string) bool {
	v, ok := pick(m, keys...)
	if !ok {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	}
	return false
}

func pickObject(m object, keys ...string) object {
	v, ok := pick(m, keys...)
	if !ok {
		return nil
	}
	o, _ := v.(map[string]any)
	return o
}

// nameOf reads a display name from either a plain string or a nested
// person/category object.
func nameOf(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case map[string]any:
		if s := pickString(x, "full_name", "fullName", "name", "title", "username"); s != "" {
			return s
		}
		first := pickString(x, "first_name", "firstName")
		last := pickString(x, "last_name", "lastName")
		return strings.TrimSpace(first + " " + last)
	}
	return ""
}

// stringList reads a list of strings, or of objects with a name/title.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return []string{strings.TrimSpace(s)}
		}
		return nil
	}
	var out []string
	for _, it := range items {
		if s := nameOf(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// plainText reduces rich-text HTML (course descriptions come from a WYSIWYG
// editor) to whitespace-collapsed text. Strings without markup pass through.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	root, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(strings.Fields(b.String()), " ")
}
