package revlens

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// minClusterDocuments is the smallest corpus worth vectorizing.
const minClusterDocuments = 2

// FeatureMatrix is a dense TF-IDF matrix over cleaned reviews. Rows follow
// the input review order; columns are vocabulary terms in lexicographic
// order.
type FeatureMatrix struct {
	Values *mat.Dense
	Terms  []string
	Index  map[string]int
}

var tokenPattern = regexp.MustCompile(`\w\w+`)

// BuildFeatureMatrix vectorizes cleaned reviews with TF-IDF: word n-grams in
// the configured range, stop words removed, document frequency bounds
// applied, vocabulary capped at max_features by corpus count, raw counts
// scaled by smoothed IDF and each row L2-normalized.
func BuildFeatureMatrix(cleaned []CleanedReview, cfg ClusterConfig) (*FeatureMatrix, error) {
	texts := make([]string, len(cleaned))
	for i, review := range cleaned {
		texts[i] = review.NormalizedText
	}
	if distinct := countDistinctTexts(texts); distinct < minClusterDocuments {
		return nil, &InsufficientDataError{
			Distinct: distinct,
			Minimum:  minClusterDocuments,
			Reason:   "not enough distinct review texts to vectorize",
		}
	}

	docs := make([][]string, len(texts))
	for i, text := range texts {
		docs[i] = ngramTerms(text, cfg.NGramRange[0], cfg.NGramRange[1])
	}

	docFreq, corpusCount := termStatistics(docs)
	vocabulary := selectVocabulary(docFreq, corpusCount, len(docs), cfg)
	if len(vocabulary) == 0 {
		return nil, &InsufficientDataError{
			Distinct: 0,
			Minimum:  1,
			Reason:   "vocabulary is empty after document frequency pruning",
		}
	}

	index := make(map[string]int, len(vocabulary))
	for i, term := range vocabulary {
		index[term] = i
	}

	idf := make([]float64, len(vocabulary))
	n := float64(len(docs))
	for i, term := range vocabulary {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	values := mat.NewDense(len(docs), len(vocabulary), nil)
	for row, terms := range docs {
		counts := make(map[int]int)
		for _, term := range terms {
			if col, ok := index[term]; ok {
				counts[col]++
			}
		}
		var norm float64
		for col, count := range counts {
			weight := float64(count) * idf[col]
			values.Set(row, col, weight)
			norm += weight * weight
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for col := range counts {
				values.Set(row, col, values.At(row, col)/norm)
			}
		}
	}

	return &FeatureMatrix{Values: values, Terms: vocabulary, Index: index}, nil
}

func countDistinctTexts(texts []string) int {
	seen := make(map[string]bool)
	for _, text := range texts {
		if text == "" {
			continue
		}
		seen[text] = true
	}
	return len(seen)
}

// tokenize splits text into word tokens of 2+ characters with stop words
// removed.
func tokenize(text string) []string {
	var tokens []string
	for _, token := range tokenPattern.FindAllString(text, -1) {
		if stopWords[token] {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// ngramTerms expands a text into space-joined word n-grams for every n in
// [lo, hi].
func ngramTerms(text string, lo, hi int) []string {
	tokens := tokenize(text)
	var terms []string
	for n := lo; n <= hi; n++ {
		if n < 1 {
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// termStatistics counts per-term document frequency and total corpus count.
func termStatistics(docs [][]string) (docFreq, corpusCount map[string]int) {
	docFreq = make(map[string]int)
	corpusCount = make(map[string]int)
	for _, terms := range docs {
		inDoc := make(map[string]bool, len(terms))
		for _, term := range terms {
			corpusCount[term]++
			if !inDoc[term] {
				inDoc[term] = true
				docFreq[term]++
			}
		}
	}
	return docFreq, corpusCount
}

// selectVocabulary applies the document frequency bounds, keeps the
// max_features most frequent terms (ties lexicographic) and returns them in
// lexicographic order.
func selectVocabulary(docFreq, corpusCount map[string]int, docs int, cfg ClusterConfig) []string {
	maxDoc := cfg.MaxDocShare * float64(docs)
	vocabulary := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df < cfg.MinDocFreq || float64(df) > maxDoc {
			continue
		}
		vocabulary = append(vocabulary, term)
	}
	if cfg.MaxFeatures > 0 && len(vocabulary) > cfg.MaxFeatures {
		sort.Slice(vocabulary, func(i, j int) bool {
			if corpusCount[vocabulary[i]] != corpusCount[vocabulary[j]] {
				return corpusCount[vocabulary[i]] > corpusCount[vocabulary[j]]
			}
			return vocabulary[i] < vocabulary[j]
		})
		vocabulary = vocabulary[:cfg.MaxFeatures]
	}
	sort.Strings(vocabulary)
	return vocabulary
}
