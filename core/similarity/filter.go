// Package similarity removes duplicate, near-duplicate and non-music
// tracks from a candidate list before they are queued.
package similarity

import (
	"strings"

	"AutoQFM/model"
)

const (
	titleThreshold  = 0.85
	artistThreshold = 0.7

	// A long title containing a shorter one verbatim is scored as a fixed
	// near-match instead of its edit distance. Only applies when the longer
	// normalized title is non-trivial.
	containmentScore     = 0.8
	containmentMinLength = 10

	// At most this many tracks per artist survive one filter call, counted
	// against the avoid-list and the output accumulated so far.
	maxPerArtist = 5
)

// decorationWords are dropped from titles before comparison.
var decorationWords = map[string]struct{}{
	"official":   {},
	"video":      {},
	"audio":      {},
	"lyric":      {},
	"lyrics":     {},
	"hd":         {},
	"4k":         {},
	"mv":         {},
	"visualizer": {},
}

// nonMusicKeywords mark a result as not being an actual song.
var nonMusicKeywords = []string{
	"interview",
	"podcast",
	"tutorial",
	"vlog",
	"documentary",
	"reaction",
	"review",
	"trailer",
	"gameplay",
	"unboxing",
	"audiobook",
	"lecture",
}

// Filter returns the subset of candidates that are playable music and not
// duplicates of the avoid list or of each other. Candidates are processed
// in input order, so earlier candidates win ties.
func Filter(candidates, avoid []model.Track) []model.Track {
	accepted := make([]model.Track, 0, len(candidates))

	artistCount := make(map[string]int)
	for _, t := range avoid {
		artistCount[normalizeArtist(t.Artist)]++
	}

	for _, cand := range candidates {
		if isNonMusic(cand) {
			continue
		}
		artistKey := normalizeArtist(cand.Artist)
		if artistCount[artistKey] >= maxPerArtist {
			continue
		}
		if similarToAny(cand, avoid) || similarToAny(cand, accepted) {
			continue
		}
		accepted = append(accepted, cand)
		artistCount[artistKey]++
	}

	return accepted
}

// Similar reports whether two tracks are the same song: identical ids, or
// near-identical normalized titles by the same artist.
func Similar(a, b model.Track) bool {
	if model.SameTrack(a, b) {
		return true
	}

	titleSim := titleSimilarity(NormalizeTitle(a.Title), NormalizeTitle(b.Title))
	artistSim := stringSimilarity(normalizeArtist(a.Artist), normalizeArtist(b.Artist))

	return titleSim > titleThreshold && artistSim > artistThreshold
}

// NormalizeTitle lower-cases a title, strips parenthetical and bracketed
// content, and drops common decoration words.
func NormalizeTitle(title string) string {
	lower := strings.ToLower(title)
	stripped := stripBracketedSegments(lower)

	tokens := strings.Fields(stripped)
	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		trimmed := strings.Trim(token, ".,!?-_|:;\"'")
		if trimmed == "" {
			continue
		}
		if _, drop := decorationWords[trimmed]; drop {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}

	return strings.Join(cleaned, " ")
}

func normalizeArtist(artist string) string {
	return strings.Join(strings.Fields(strings.ToLower(artist)), " ")
}

func similarToAny(cand model.Track, against []model.Track) bool {
	for _, t := range against {
		if Similar(cand, t) {
			return true
		}
	}
	return false
}

func isNonMusic(t model.Track) bool {
	haystack := strings.ToLower(t.Title + " " + t.Artist)
	for _, kw := range nonMusicKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// titleSimilarity scores two normalized titles in [0,1]. A non-trivial
// longer title containing the shorter one verbatim scores a fixed 0.8
// instead of its edit-distance ratio.
func titleSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	longer, shorter := a, b
	if len([]rune(shorter)) > len([]rune(longer)) {
		longer, shorter = shorter, longer
	}
	if shorter != "" && len([]rune(longer)) > containmentMinLength && strings.Contains(longer, shorter) {
		return containmentScore
	}

	return stringSimilarity(a, b)
}

// stringSimilarity is 1 - levenshtein(a,b)/max(len(a),len(b)).
func stringSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}

	return 1.0 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

func levenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		copy(prev, curr)
	}

	return prev[len(rb)]
}

func stripBracketedSegments(input string) string {
	var out strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}

	return out.String()
}
