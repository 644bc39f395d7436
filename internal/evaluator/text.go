package evaluator

import (
	"strings"
	"unicode"
)

// synonyms folds common alternative words onto one stem. Keys and values are
// already singular.
var synonyms = map[string]string{
	"arachnid":  "spider",
	"tarantula": "spider",
	"canine":    "dog",
	"puppy":     "dog",
	"serpent":   "snake",
	"thunder":   "thunderstorm",
	"lightning": "thunderstorm",
	"storm":     "thunderstorm",
	"height":    "high",
	"crowd":     "crowded",
	"needle":    "injection",
	"syringe":   "injection",
	"darkness":  "dark",
	"blood":     "bleeding",
	"flying":    "flight",
	"airplane":  "flight",
	"plane":     "flight",
	"elevator":  "lift",
	"insect":    "bug",
}

// stopwords carry no trigger meaning and are dropped before matching.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"and": {}, "or": {}, "is": {}, "are": {}, "i": {}, "my": {}, "it": {}, "with": {},
}

// MatchText reports the first text that matches phrase, case-insensitively.
// A text matches when, after folding plurals and synonyms, either side
// contains the other as whole words, or every word of the phrase appears in
// the text in order.
func MatchText(phrase string, texts []string) (string, bool) {
	pw := words(phrase)
	if len(pw) == 0 {
		return "", false
	}
	for _, t := range texts {
		tw := words(t)
		if len(tw) == 0 {
			continue
		}
		if containsRun(tw, pw) || containsRun(pw, tw) || inOrder(tw, pw) {
			return strings.TrimSpace(t), true
		}
	}
	return "", false
}

// words lowercases s, splits it on non-alphanumerics, drops stopwords and
// folds each remaining word.
func words(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if _, skip := stopwords[f]; skip {
			continue
		}
		out = append(out, fold(f))
	}
	return out
}

func fold(w string) string {
	if s, ok := synonyms[w]; ok {
		return s
	}
	w = singular(w)
	if s, ok := synonyms[w]; ok {
		return s
	}
	return w
}

// singular strips simple English plural endings.
func singular(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && (strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes") ||
		strings.HasSuffix(w, "sses") || strings.HasSuffix(w, "xes")):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "us"):
		return w[:len(w)-1]
	}
	return w
}

// containsRun reports whether needle occurs in hay as a contiguous run.
func containsRun(hay, needle []string) bool {
	if len(needle) > len(hay) {
		return false
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		ok := true
		for j := range needle {
			if hay[i+j] != needle[j] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// inOrder reports whether every word of needle appears in hay, in order,
// possibly with other words between them.
func inOrder(hay, needle []string) bool {
	if len(needle) < 2 {
		return false
	}
	i := 0
	for _, w := range hay {
		if w == needle[i] {
			i++
			if i == len(needle) {
				return true
			}
		}
	}
	return false
}
