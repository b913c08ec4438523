package revlens

import (
	"regexp"
	"strings"
	"unicode"
)

// CleanedReview is a Review that survived cleaning and filtering.
type CleanedReview struct {
	Review
	NormalizedText string   `json:"normalized_text"`
	KeywordTokens  []string `json:"keyword_tokens"`
}

const maxReviewKeywords = 10

var (
	urlPattern        = regexp.MustCompile(`https?://[^\s]+`)
	emailPattern      = regexp.MustCompile(`[^\s]+@[^\s]+`)
	specialPattern    = regexp.MustCompile(`[^\w\s.!?,;:\-()]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

var stopWords = makeStopWords()

func makeStopWords() map[string]bool {
	words := strings.Fields(`
		a about above after again against all am an and any are as at be
		because been before being below between both but by can cannot could
		did do does doing down during each few for from further had has have
		having he her here hers herself him himself his how i if in into is it
		its itself just me more most my myself no nor not now of off on once
		only or other our ours ourselves out over own same she should so some
		such than that the their theirs them themselves then there these they
		this those through to too under until up very was we were what when
		where which while who whom why will with would you your yours yourself
		yourselves`)
	set := make(map[string]bool, len(words))
	for _, word := range words {
		set[word] = true
	}
	return set
}

// NormalizeReviews cleans raw reviews and drops the ones failing the
// configured length, word count and duplicate filters. Output order follows
// input order; the first of several reviews sharing a normalized text wins.
func NormalizeReviews(reviews []Review, cfg ClusterConfig) []CleanedReview {
	seen := make(map[string]bool)
	cleaned := make([]CleanedReview, 0, len(reviews))
	for _, review := range reviews {
		raw := strings.TrimSpace(review.RawText)
		if len(raw) < cfg.MinReviewLength {
			continue
		}
		if cfg.MaxReviewLength > 0 && len(raw) > cfg.MaxReviewLength {
			continue
		}
		text := CleanText(raw)
		if len(strings.Fields(text)) < cfg.MinWordCount {
			continue
		}
		if len(text) < cfg.MinReviewLength {
			continue
		}
		if seen[text] {
			continue
		}
		seen[text] = true
		cleaned = append(cleaned, CleanedReview{
			Review:         review,
			NormalizedText: text,
			KeywordTokens:  extractKeywords(text),
		})
	}
	return cleaned
}

// CleanText lower-cases text, strips URLs, email addresses and special
// characters, and collapses whitespace runs to a single space.
func CleanText(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = emailPattern.ReplaceAllString(text, "")
	text = specialPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// extractKeywords picks the first alphabetic non-stop-word tokens longer
// than 3 characters, up to maxReviewKeywords.
func extractKeywords(text string) []string {
	var keywords []string
	for _, field := range strings.Fields(text) {
		token := strings.Trim(field, ".!?,;:-()")
		if len(token) <= 3 || stopWords[token] || !isAlpha(token) {
			continue
		}
		keywords = append(keywords, token)
		if len(keywords) == maxReviewKeywords {
			break
		}
	}
	return keywords
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
