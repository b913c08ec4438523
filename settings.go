package revlens

import (
	"fmt"
	"os"
	"time"

	"github.com/sosodev/duration"
	"gopkg.in/yaml.v3"
)

// AnalyzerSettings holds everything configurable through config.yaml.
type AnalyzerSettings struct {
	AppStores struct {
		GooglePlay struct {
			Country            string `yaml:"country"`
			Language           string `yaml:"language"`
			MaxAppsPerCategory int    `yaml:"max_apps_per_category"`
			MaxReviewsPerApp   int    `yaml:"max_reviews_per_app"`
		} `yaml:"google_play"`
	} `yaml:"app_stores"`
	RateLimiting struct {
		RequestDelay    string `yaml:"request_delay"`
		FreshnessWindow string `yaml:"freshness_window"`
	} `yaml:"rate_limiting"`
	Categories     []CategoryConfig `yaml:"categories"`
	DataProcessing struct {
		MinReviewLength int `yaml:"min_review_length"`
		MaxReviewLength int `yaml:"max_review_length"`
		MinWordCount    int `yaml:"min_word_count"`
	} `yaml:"data_processing"`
	Clustering struct {
		NClusters         int   `yaml:"n_clusters"`
		Seed              int64 `yaml:"seed"`
		SampleSize        int   `yaml:"sample_size"`
		TopKeywords       int   `yaml:"top_keywords"`
		FeatureExtraction struct {
			MaxFeatures int     `yaml:"max_features"`
			NGramRange  [2]int  `yaml:"ngram_range,flow"`
			MinDocFreq  int     `yaml:"min_doc_freq"`
			MaxDocShare float64 `yaml:"max_doc_share"`
		} `yaml:"feature_extraction"`
	} `yaml:"clustering"`

	requestDelay    time.Duration
	freshnessWindow time.Duration
}

// Settings holds the active configuration, populated by LoadSettings.
var Settings = defaultSettings()

func defaultSettings() AnalyzerSettings {
	var s AnalyzerSettings
	s.AppStores.GooglePlay.Country = "us"
	s.AppStores.GooglePlay.Language = "en"
	s.AppStores.GooglePlay.MaxAppsPerCategory = 20
	s.AppStores.GooglePlay.MaxReviewsPerApp = 500
	s.RateLimiting.RequestDelay = "PT2S"
	s.RateLimiting.FreshnessWindow = "P90D"
	s.Categories = DefaultCategories
	s.DataProcessing.MinReviewLength = 20
	s.DataProcessing.MaxReviewLength = 1000
	s.DataProcessing.MinWordCount = 3
	s.Clustering.NClusters = 8
	s.Clustering.Seed = 42
	s.Clustering.SampleSize = 10
	s.Clustering.TopKeywords = 10
	s.Clustering.FeatureExtraction.MaxFeatures = 1500
	s.Clustering.FeatureExtraction.NGramRange = [2]int{1, 3}
	s.Clustering.FeatureExtraction.MinDocFreq = 2
	s.Clustering.FeatureExtraction.MaxDocShare = 0.95
	s.requestDelay = 2 * time.Second
	s.freshnessWindow = 90 * 24 * time.Hour
	return s
}

// LoadSettings reads the yaml settings file over the defaults. A missing
// file keeps the defaults; invalid values fail the load.
func LoadSettings(path string) error {
	s := defaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := s.parseDurations(); err != nil {
		return err
	}
	if err := s.ClusterConfig().Validate(); err != nil {
		return err
	}
	Settings = s
	return nil
}

// parseDurations resolves the ISO-8601 duration strings once at load time.
func (s *AnalyzerSettings) parseDurations() error {
	d, err := duration.Parse(s.RateLimiting.RequestDelay)
	if err != nil {
		return &ConfigurationError{
			Parameter: "rate_limiting.request_delay",
			Value:     s.RateLimiting.RequestDelay,
			Reason:    "not an ISO-8601 duration",
		}
	}
	s.requestDelay = d.ToTimeDuration()

	s.freshnessWindow = 0
	if s.RateLimiting.FreshnessWindow != "" {
		w, err := duration.Parse(s.RateLimiting.FreshnessWindow)
		if err != nil {
			return &ConfigurationError{
				Parameter: "rate_limiting.freshness_window",
				Value:     s.RateLimiting.FreshnessWindow,
				Reason:    "not an ISO-8601 duration",
			}
		}
		s.freshnessWindow = w.ToTimeDuration()
	}
	return nil
}

// RequestDelay is the pause between Play Store requests.
func (s *AnalyzerSettings) RequestDelay() time.Duration { return s.requestDelay }

// FreshnessWindow is the maximum review age; zero means no age filter.
func (s *AnalyzerSettings) FreshnessWindow() time.Duration { return s.freshnessWindow }

// ClusterConfig flattens the settings into the clustering pipeline config.
func (s *AnalyzerSettings) ClusterConfig() ClusterConfig {
	return ClusterConfig{
		MinReviewLength: s.DataProcessing.MinReviewLength,
		MaxReviewLength: s.DataProcessing.MaxReviewLength,
		MinWordCount:    s.DataProcessing.MinWordCount,
		NClusters:       s.Clustering.NClusters,
		Seed:            s.Clustering.Seed,
		MaxFeatures:     s.Clustering.FeatureExtraction.MaxFeatures,
		NGramRange:      s.Clustering.FeatureExtraction.NGramRange,
		MinDocFreq:      s.Clustering.FeatureExtraction.MinDocFreq,
		MaxDocShare:     s.Clustering.FeatureExtraction.MaxDocShare,
		SampleSize:      s.Clustering.SampleSize,
		TopKeywords:     s.Clustering.TopKeywords,
	}
}
