package schools

import (
	"sort"
	"strings"
	"unicode"
)

const (
	// MaxSuggestions caps every suggestion list.
	MaxSuggestions = 5

	fuzzyThreshold  = 0.4
	minPatternChars = 2
	// A match starting this many characters in costs one full error.
	locationDistance = 100
)

var stopWords = map[string]bool{"the": true, "for": true, "of": true, "and": true}

// Options tunes Suggest.
type Options struct {
	// IncludeInput puts the raw input first and drops listed names equal to it,
	// so on-site registration can accept schools that are not listed.
	IncludeInput bool
}

// Matcher suggests school names for partially typed input.
type Matcher struct {
	names    []string
	lower    [][]rune
	acronyms []string
}

// New builds a matcher over names, keeping their order.
func New(names []string) *Matcher {
	m := &Matcher{
		names:    append([]string(nil), names...),
		lower:    make([][]rune, len(names)),
		acronyms: make([]string, len(names)),
	}
	for i, n := range names {
		m.lower[i] = []rune(strings.ToLower(n))
		m.acronyms[i] = Acronym(n)
	}
	return m
}

// Names returns a copy of every known name.
func (m *Matcher) Names() []string {
	return append([]string(nil), m.names...)
}

// Acronym abbreviates a school name: "Delhi Public School, Kalinga" is "DPSK"
// and "DAV Public School" is "DAVPS".
func Acronym(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		clean := strings.ToLower(strings.Map(func(r rune) rune {
			if r < unicode.MaxASCII && unicode.IsLetter(r) {
				return r
			}
			return -1
		}, word))
		if clean == "" || stopWords[clean] {
			continue
		}
		if len([]rune(word)) > 1 && word == strings.ToUpper(word) {
			b.WriteString(word)
			continue
		}
		for _, r := range word {
			b.WriteRune(r)
			break
		}
	}
	return strings.ToUpper(b.String())
}

// Suggest returns up to MaxSuggestions names for input. Acronym matches come
// first, then approximate matches ranked by score.
func (m *Matcher) Suggest(input string, opts Options) []string {
	if strings.TrimSpace(input) == "" {
		return []string{}
	}

	seen := make(map[int]bool)
	var picked []int
	if len([]rune(input)) > 1 && input == strings.ToUpper(input) {
		for i, a := range m.acronyms {
			if strings.HasPrefix(a, input) {
				seen[i] = true
				picked = append(picked, i)
			}
		}
	}
	for _, i := range m.fuzzy(input) {
		if !seen[i] {
			seen[i] = true
			picked = append(picked, i)
		}
	}

	out := make([]string, 0, MaxSuggestions)
	if opts.IncludeInput {
		out = append(out, input)
	}
	for _, i := range picked {
		if len(out) == MaxSuggestions {
			break
		}
		if opts.IncludeInput && strings.EqualFold(m.names[i], input) {
			continue
		}
		out = append(out, m.names[i])
	}
	return out
}

type hit struct {
	index int
	score float64
}

// fuzzy returns indexes of names that approximately contain input, best first.
func (m *Matcher) fuzzy(input string) []int {
	pattern := []rune(strings.ToLower(input))
	if len(pattern) < minPatternChars {
		return nil
	}
	var hits []hit
	for i, text := range m.lower {
		if s, ok := matchScore(pattern, text); ok {
			hits = append(hits, hit{index: i, score: s})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score < hits[b].score })

	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.index
	}
	return out
}

// matchScore finds the substring of text closest to pattern by edit distance
// and scores it as errors per pattern character plus a penalty for how far
// into text the match starts. Lower is better; 0 is an exact prefix.
func matchScore(pattern, text []rune) (float64, bool) {
	m := len(pattern)
	// cost[j] and start[j] describe the best alignment of the pattern prefix
	// processed so far ending at text position j.
	cost := make([]int, len(text)+1)
	start := make([]int, len(text)+1)
	for j := range start {
		start[j] = j
	}
	prevCost := make([]int, len(text)+1)
	prevStart := make([]int, len(text)+1)

	for i := 1; i <= m; i++ {
		copy(prevCost, cost)
		copy(prevStart, start)
		cost[0] = i
		start[0] = 0
		for j := 1; j <= len(text); j++ {
			sub := prevCost[j-1]
			if pattern[i-1] != text[j-1] {
				sub++
			}
			best, from := sub, prevStart[j-1]
			if del := prevCost[j] + 1; del < best {
				best, from = del, prevStart[j]
			}
			if ins := cost[j-1] + 1; ins < best {
				best, from = ins, start[j-1]
			}
			cost[j], start[j] = best, from
		}
	}

	score, found := 0.0, false
	for j := 0; j <= len(text); j++ {
		s := float64(cost[j])/float64(m) + float64(start[j])/locationDistance
		if !found || s < score {
			score, found = s, true
		}
	}
	return score, found && score <= fuzzyThreshold
}
