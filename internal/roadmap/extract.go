package roadmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	jsonFence = "```json"
	fence     = "```"
)

// ModuleDraft is one module as the model emitted it. Every field is optional
// at this boundary; BuildTree decides what to keep.
type ModuleDraft struct {
	Name        string
	Description string
	Link        string
}

// Chapter is a named group of module drafts, in model emission order.
type Chapter struct {
	Name    string
	Modules []ModuleDraft
}

// Envelope is the validated model answer.
type Envelope struct {
	// Query is always the caller's original query.
	Query string
	// ModelQuery is what the model echoed back; it may drift from Query.
	ModelQuery string
	// Chapters keep the key order of the model's chapters object.
	Chapters []Chapter
}

// QueryDrifted reports whether the model echoed a different query.
func (e Envelope) QueryDrifted() bool { return e.ModelQuery != e.Query }

// StripFences extracts the JSON payload from a model answer that may wrap it
// in a markdown code fence. A "```json" fence is preferred over a bare one; an
// unterminated fence yields the rest of the text. If the fenced region is
// empty the whole trimmed answer is returned.
func StripFences(text string) string {
	s := strings.TrimSpace(text)

	var inner string
	switch {
	case strings.Contains(s, jsonFence):
		_, after, _ := strings.Cut(s, jsonFence)
		inner, _, _ = strings.Cut(after, fence)
	case strings.Contains(s, fence):
		_, after, _ := strings.Cut(s, fence)
		inner, _, _ = strings.Cut(after, fence)
		inner = dropInfoString(inner)
	default:
		return s
	}

	if strings.TrimSpace(inner) == "" {
		return s
	}
	return strings.TrimSpace(inner)
}

// dropInfoString removes a language tag such as "JSON" or "javascript" that
// follows an opening fence on the same line.
func dropInfoString(inner string) string {
	line, rest, ok := strings.Cut(inner, "\n")
	if !ok {
		return inner
	}
	tag := strings.TrimSpace(line)
	if tag == "" {
		return rest
	}
	for _, r := range tag {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return inner
		}
	}
	return rest
}

// ParseEnvelope runs the extraction stages on a raw model answer:
// emptiness check, fence stripping, JSON parsing and chapters validation.
// The returned envelope's Query is always original.
//
// Failures are tagged with ErrNoContent, ErrParse or ErrInvalidFormat.
func ParseEnvelope(raw, original string) (Envelope, error) {
	if strings.TrimSpace(raw) == "" {
		return Envelope{}, ErrNoContent
	}
	payload := StripFences(raw)

	var doc any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	// Well-formed JSON of the wrong shape is a format problem, not a parse one.
	if _, ok := doc.(map[string]any); !ok {
		return Envelope{}, fmt.Errorf("%w: top-level value is not an object", ErrInvalidFormat)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	chaptersRaw := bytes.TrimSpace(obj["chapters"])
	if len(chaptersRaw) == 0 || bytes.Equal(chaptersRaw, []byte("null")) {
		return Envelope{}, fmt.Errorf("%w: missing chapters", ErrInvalidFormat)
	}
	chapters := gjson.ParseBytes(chaptersRaw)
	if !chapters.IsObject() {
		return Envelope{}, fmt.Errorf("%w: chapters is not an object", ErrInvalidFormat)
	}

	env := Envelope{
		Query:      original,
		ModelQuery: asString(gjson.ParseBytes(obj["query"])),
		Chapters:   collectChapters(chapters),
	}
	return env, nil
}

// collectChapters walks the chapters object in document order. A repeated key
// keeps its first position and its last value, like a JSON object would.
func collectChapters(chapters gjson.Result) []Chapter {
	var out []Chapter
	seen := map[string]int{}

	chapters.ForEach(func(key, value gjson.Result) bool {
		ch := Chapter{Name: key.String(), Modules: collectModules(value)}
		if i, ok := seen[ch.Name]; ok {
			out[i] = ch
			return true
		}
		seen[ch.Name] = len(out)
		out = append(out, ch)
		return true
	})
	return out
}

func collectModules(value gjson.Result) []ModuleDraft {
	if !value.IsArray() {
		return nil
	}
	var mods []ModuleDraft
	value.ForEach(func(_, m gjson.Result) bool {
		if !m.IsObject() {
			return true
		}
		mods = append(mods, ModuleDraft{
			Name:        stringField(m, "moduleName"),
			Description: stringField(m, "moduleDescription"),
			Link:        stringField(m, "link"),
		})
		return true
	})
	return mods
}

func stringField(obj gjson.Result, key string) string {
	return asString(obj.Get(key))
}

// asString returns v's value when it is a JSON string and "" otherwise.
func asString(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}
