package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/yungbote/mysteryparty-backend/internal/domain/jobs"
)

var digitAfterUnderscore = regexp.MustCompile(`_(\d)`)

// canonicalKey maps camelCase and snake_case spellings of a field to the
// stored column name: hostGuide and host_guide become host_guide,
// round2Questions and round_2_questions become round2_questions.
func canonicalKey(k string) string {
	k = strings.TrimSpace(k)
	var b strings.Builder
	b.Grow(len(k) + 4)
	for i, r := range k {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	out := digitAfterUnderscore.ReplaceAllString(b.String(), "$1")
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}

// normalizeKeys rewrites every map key in v to its canonical form. When both
// spellings of a key are present the snake_case value wins.
func normalizeKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			ck := canonicalKey(k)
			if _, dup := out[ck]; dup && k != ck {
				continue
			}
			out[ck] = normalizeKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeKeys(val)
		}
		return out
	default:
		return v
	}
}

// coerceText flattens writer values into the text stored in a column. Lists
// become one item per line.
func coerceText(v any) any {
	switch t := v.(type) {
	case nil, string:
		return t
	case []any:
		lines := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(fmt.Sprint(coerceText(item))); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	case map[string]any:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func coerceTextFields(m map[string]any, skip ...string) {
	for k, v := range m {
		if containsString(skip, k) {
			continue
		}
		if _, isMap := v.(map[string]any); isMap {
			delete(m, k)
			continue
		}
		m[k] = coerceText(v)
	}
}

var sectionByCanonical = func() map[string]string {
	out := map[string]string{}
	for _, name := range jobs.SectionNames() {
		out[canonicalKey(name)] = name
	}
	return out
}()

// sectionName maps a writer's section key to the camelCase name used in
// GenerationStatus.
func sectionName(k string) (string, bool) {
	name, ok := sectionByCanonical[canonicalKey(k)]
	return name, ok
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
