package docblock

import (
	"regexp"
	"sort"
	"strings"
)

// LabelRenderer formats one recognized `label`: description pair.
type LabelRenderer func(label, description string) string

// Vocabulary maps a field label token to the renderer used for it. A key
// ending in "[]" matches the indexed form, so "options[]" covers
// `options[0]`, `options[key]` and so on.
type Vocabulary map[string]LabelRenderer

// BulletLabel puts the label on its own Markdown bullet line.
func BulletLabel(label, description string) string {
	return "\n- `" + label + "`: " + description + "\n\n"
}

// DefaultVocabulary returns the labels used by form-style option docs.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		"id":        BulletLabel,
		"label":     BulletLabel,
		"value":     BulletLabel,
		"data":      BulletLabel,
		"options[]": BulletLabel,
	}
}

// Clone returns a copy that can be extended without touching the receiver.
func (v Vocabulary) Clone() Vocabulary {
	out := make(Vocabulary, len(v))
	for k, r := range v {
		out[k] = r
	}
	return out
}

// renderer looks up the rule for a matched label.
func (v Vocabulary) renderer(label string) LabelRenderer {
	if r, ok := v[label]; ok {
		return r
	}
	if i := strings.IndexByte(label, '['); i > 0 {
		return v[label[:i]+"[]"]
	}
	return nil
}

// pattern builds the matcher for every label in the vocabulary. Keys are
// sorted so the alternation is the same on every run.
func (v Vocabulary) pattern() *regexp.Regexp {
	if len(v) == 0 {
		return nil
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	alts := make([]string, 0, len(keys))
	for _, k := range keys {
		if base, ok := strings.CutSuffix(k, "[]"); ok {
			alts = append(alts, regexp.QuoteMeta(base)+`\[.*?\]`)
			continue
		}
		alts = append(alts, regexp.QuoteMeta(k))
	}
	return regexp.MustCompile("`(" + strings.Join(alts, "|") + ")`:[ \t]*(.*)")
}

// FieldLabels returns the stage that reformats `label`: description pairs
// found in v.
func FieldLabels(v Vocabulary) func(string) string {
	re := v.pattern()
	if re == nil {
		return func(s string) string { return s }
	}
	return func(s string) string {
		return re.ReplaceAllStringFunc(s, func(m string) string {
			sub := re.FindStringSubmatch(m)
			render := v.renderer(sub[1])
			if render == nil {
				return m
			}
			return render(sub[1], strings.TrimSpace(sub[2]))
		})
	}
}
