package spotify

import (
	"strings"
	"unicode"
)

const minArtistSimilarity = 0.55

var artistNoiseTokens = map[string]struct{}{
	"feat":      {},
	"featuring": {},
	"ft":        {},
}

// pickArtist chooses the search result that best matches the requested
// name. An exact normalized match wins; otherwise the closest name above
// minArtistSimilarity; otherwise Spotify's own top result.
func pickArtist(query string, candidates []spotifyArtist) (spotifyArtist, bool) {
	if len(candidates) == 0 {
		return spotifyArtist{}, false
	}

	want := normalizeName(query)
	best, bestScore := 0, -1.0
	for i, c := range candidates {
		got := normalizeName(c.Name)
		if got == want && want != "" {
			return c, true
		}
		if score := similarity(want, got); score > bestScore {
			best, bestScore = i, score
		}
	}
	if bestScore >= minArtistSimilarity {
		return candidates[best], true
	}
	return candidates[0], true
}

func normalizeName(input string) string {
	if input == "" {
		return ""
	}

	lower := strings.ToLower(input)
	filtered := stripBracketedSegments(lower)
	tokens := strings.Fields(cleanSeparators(filtered))

	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, drop := artistNoiseTokens[token]; drop {
			continue
		}
		cleaned = append(cleaned, token)
	}

	return strings.Join(cleaned, " ")
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

func cleanSeparators(input string) string {
	var out strings.Builder
	lastSpace := false
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			out.WriteRune(' ')
			lastSpace = true
		}
	}

	return out.String()
}

func similarity(a string, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

func levenshteinDistance(a string, b string) int {
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
