package revlens

// ClusterConfig configures the review clustering pipeline.
type ClusterConfig struct {
	MinReviewLength int
	MaxReviewLength int
	MinWordCount    int
	NClusters       int
	Seed            int64
	MaxFeatures     int
	NGramRange      [2]int
	MinDocFreq      int
	MaxDocShare     float64
	SampleSize      int
	TopKeywords     int
}

// DefaultClusterConfig returns the built-in pipeline configuration.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		MinReviewLength: 20,
		MaxReviewLength: 1000,
		MinWordCount:    3,
		NClusters:       8,
		Seed:            42,
		MaxFeatures:     1500,
		NGramRange:      [2]int{1, 3},
		MinDocFreq:      2,
		MaxDocShare:     0.95,
		SampleSize:      10,
		TopKeywords:     10,
	}
}

// Validate returns a ConfigurationError for the first invalid value.
func (c ClusterConfig) Validate() error {
	if c.NClusters < 1 {
		return &ConfigurationError{Parameter: "n_clusters", Value: c.NClusters, Reason: "must be at least 1"}
	}
	if c.MaxFeatures < 1 {
		return &ConfigurationError{Parameter: "max_features", Value: c.MaxFeatures, Reason: "must be at least 1"}
	}
	if c.NGramRange[0] < 1 || c.NGramRange[1] < c.NGramRange[0] {
		return &ConfigurationError{Parameter: "ngram_range", Value: c.NGramRange, Reason: "must be a non-empty range with 1 <= min <= max"}
	}
	if c.MinDocFreq < 1 {
		return &ConfigurationError{Parameter: "min_doc_freq", Value: c.MinDocFreq, Reason: "must be at least 1"}
	}
	if c.MaxDocShare <= 0 || c.MaxDocShare > 1 {
		return &ConfigurationError{Parameter: "max_doc_share", Value: c.MaxDocShare, Reason: "must be in (0, 1]"}
	}
	if c.SampleSize < 1 {
		return &ConfigurationError{Parameter: "sample_size", Value: c.SampleSize, Reason: "must be at least 1"}
	}
	if c.TopKeywords < 1 {
		return &ConfigurationError{Parameter: "top_keywords", Value: c.TopKeywords, Reason: "must be at least 1"}
	}
	if c.MinReviewLength < 0 {
		return &ConfigurationError{Parameter: "min_review_length", Value: c.MinReviewLength, Reason: "must not be negative"}
	}
	if c.MinWordCount < 0 {
		return &ConfigurationError{Parameter: "min_word_count", Value: c.MinWordCount, Reason: "must not be negative"}
	}
	return nil
}

// ClusterReport is the final clustering artifact for one category.
type ClusterReport struct {
	Category        string                   `json:"category"`
	TotalReviews    int                      `json:"total_reviews"`
	SilhouetteScore float64                  `json:"silhouette_score"`
	Clusters        []Cluster                `json:"clusters"`
	Representatives map[int][]Representative `json:"representative_reviews_per_cluster"`
}

// BuildClusterReport runs the full clustering pipeline over raw reviews:
// normalize, vectorize, cluster, select representatives. The whole run is
// synchronous and deterministic for a fixed config and input order.
func BuildClusterReport(category string, reviews []Review, cfg ClusterConfig) (*ClusterReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cleaned := NormalizeReviews(reviews, cfg)
	features, err := BuildFeatureMatrix(cleaned, cfg)
	if err != nil {
		return nil, err
	}
	result, err := RunKMeans(features.Values, cfg.NClusters, cfg.Seed)
	if err != nil {
		return nil, err
	}
	clusters, representatives := SelectRepresentatives(features, result, cleaned, cfg.SampleSize, cfg.TopKeywords)
	return &ClusterReport{
		Category:        category,
		TotalReviews:    len(cleaned),
		SilhouetteScore: silhouetteScore(features.Values, result.Labels, result.K),
		Clusters:        clusters,
		Representatives: representatives,
	}, nil
}
