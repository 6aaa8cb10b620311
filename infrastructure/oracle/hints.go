package oracle

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// ArgHint proposes fallback argument tuples for one tool from the goal text
// and the current state.
type ArgHint func(goal string, current state.Fields) []tool.Args

var phrasePattern = regexp.MustCompile(`[A-Z][a-z]+(?:\s[A-Z][a-z]+)*`)

// leadingWords are capitalised only because they open a sentence.
var leadingWords = map[string]bool{
	"and": true, "arrange": true, "book": true, "can": true, "could": true,
	"drive": true, "find": true, "fly": true, "from": true, "get": true,
	"go": true, "head": true, "help": true, "i": true, "let": true,
	"make": true, "my": true, "need": true, "plan": true, "please": true,
	"reserve": true, "schedule": true, "show": true, "take": true, "then": true,
	"to": true, "travel": true, "visit": true, "want": true, "we": true,
	"would": true,
}

type phrase struct {
	text string
	prev string // preceding word, lower case
}

// findPhrases returns capitalised phrases in order of first appearance.
// A known verb or filler opening a sentence is not a phrase.
func findPhrases(goal string) []phrase {
	var out []phrase
	seen := make(map[string]bool)
	for _, loc := range phrasePattern.FindAllStringIndex(goal, -1) {
		text := goal[loc[0]:loc[1]]
		before := strings.TrimSpace(goal[:loc[0]])
		if sentenceStart(before) && leadingWords[strings.ToLower(text)] {
			continue
		}
		if seen[text] {
			continue
		}
		seen[text] = true

		var prev string
		if words := strings.Fields(before); len(words) > 0 {
			prev = strings.ToLower(strings.Trim(words[len(words)-1], ",;:"))
		}
		out = append(out, phrase{text: text, prev: prev})
	}
	return out
}

func sentenceStart(before string) bool {
	return before == "" || strings.HasSuffix(before, ".") || strings.HasSuffix(before, "!") || strings.HasSuffix(before, "?")
}

// Phrases returns the capitalised phrases of goal, deduplicated.
func Phrases(goal string) []string {
	ps := findPhrases(goal)
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.text
	}
	return out
}

type phraseOptions struct {
	avoid  map[string]bool
	except []string
}

// PhraseOption tunes PhraseAfter.
type PhraseOption func(*phraseOptions)

// AvoidAfter skips phrases following any of keywords unless they follow the
// hint's own keyword. "to" for an origin, "from" for a destination.
func AvoidAfter(keywords ...string) PhraseOption {
	return func(o *phraseOptions) {
		for _, k := range keywords {
			o.avoid[strings.ToLower(k)] = true
		}
	}
}

// ExceptField never proposes the current value of the named state fields.
func ExceptField(names ...string) PhraseOption {
	return func(o *phraseOptions) {
		o.except = append(o.except, names...)
	}
}

// PhraseAfter proposes the phrase following keyword ("from", "to"). Without
// one it proposes every phrase starting at offset, wrapping around, then def.
func PhraseAfter(keyword string, offset int, def string, opts ...PhraseOption) ArgHint {
	keyword = strings.ToLower(keyword)
	o := phraseOptions{avoid: make(map[string]bool)}
	for _, opt := range opts {
		opt(&o)
	}

	return func(goal string, current state.Fields) []tool.Args {
		taken := make(map[string]bool, len(o.except))
		for _, name := range o.except {
			if v, ok := current.Get(name); ok {
				taken[fmt.Sprint(v)] = true
			}
		}

		ps := findPhrases(goal)
		for _, p := range ps {
			if p.prev == keyword && !taken[p.text] {
				return []tool.Args{{p.text}}
			}
		}

		start := offset
		if start < 0 || start > len(ps) {
			start = 0
		}
		var out []tool.Args
		for _, p := range append(ps[start:len(ps):len(ps)], ps[:start]...) {
			if taken[p.text] || o.avoid[p.prev] || p.prev == keyword {
				continue
			}
			out = append(out, tool.Args{p.text})
		}
		if len(out) > 0 {
			return out
		}
		return []tool.Args{{def}}
	}
}

// PhrasesFrom proposes every phrase from offset on, or def when there are none.
func PhrasesFrom(offset int, def string) ArgHint {
	return func(goal string, _ state.Fields) []tool.Args {
		ps := findPhrases(goal)
		if offset < len(ps) {
			out := make([]tool.Args, 0, len(ps)-offset)
			for _, p := range ps[offset:] {
				out = append(out, tool.Args{p.text})
			}
			return out
		}
		return []tool.Args{{def}}
	}
}

// Category proposes the values mentioned in goal in order of appearance,
// or every value when none is mentioned.
func Category(values ...string) ArgHint {
	return func(goal string, _ state.Fields) []tool.Args {
		words := strings.FieldsFunc(strings.ToLower(goal), func(r rune) bool {
			return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '-')
		})
		wanted := make(map[string]bool, len(values))
		for _, v := range values {
			wanted[strings.ToLower(v)] = true
		}

		var out []tool.Args
		seen := make(map[string]bool)
		for _, w := range words {
			if wanted[w] && !seen[w] {
				seen[w] = true
				out = append(out, tool.Args{w})
			}
		}
		if len(out) > 0 {
			return out
		}
		for _, v := range values {
			out = append(out, tool.Args{v})
		}
		return out
	}
}

// Fixed always proposes the given tuples.
func Fixed(args ...tool.Args) ArgHint {
	return func(string, state.Fields) []tool.Args {
		return args
	}
}
