package revlens

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

var reviewPhrases = []string{
	"the app crashes every time i open the camera",
	"battery drains way too fast since the last update",
	"login keeps failing with the wrong password error",
	"the dark mode theme looks absolutely beautiful",
	"sync between devices never works on my tablet",
	"notifications arrive hours late every single day",
	"the new interface is confusing and hard to navigate",
	"payment failed twice but support resolved it quickly",
	"offline mode saves my trips when i travel abroad",
	"ads interrupt the workout timer at the worst moments",
}

func syntheticReviews(n int) []Review {
	reviews := make([]Review, 0, n)
	for i := range n {
		phrase := reviewPhrases[i%len(reviewPhrases)]
		reviews = append(reviews, Review{
			ID:      fmt.Sprintf("review-%03d", i),
			AppID:   "com.example.app",
			RawText: fmt.Sprintf("%s, attempt number %d", phrase, i),
			Rating:  i%5 + 1,
		})
	}
	return reviews
}

func TestBuildClusterReportDeterministic(t *testing.T) {
	reviews := syntheticReviews(50)
	cfg := DefaultClusterConfig()

	first, err := BuildClusterReport("fitness", reviews, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildClusterReport("fitness", reviews, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Category != "fitness" {
		t.Errorf("unexpected category: %s", first.Category)
	}
	if first.TotalReviews != 50 {
		t.Errorf("expected 50 reviews after normalization, got %d", first.TotalReviews)
	}
	if len(first.Clusters) != cfg.NClusters {
		t.Errorf("expected %d clusters, got %d", cfg.NClusters, len(first.Clusters))
	}
	if !reflect.DeepEqual(first.Clusters, second.Clusters) {
		t.Error("clusters differ between identical runs")
	}
	if !reflect.DeepEqual(first.Representatives, second.Representatives) {
		t.Error("representatives differ between identical runs")
	}
	if first.SilhouetteScore != second.SilhouetteScore {
		t.Errorf("silhouette differs between runs: %f vs %f", first.SilhouetteScore, second.SilhouetteScore)
	}
	if first.SilhouetteScore < -1 || first.SilhouetteScore > 1 {
		t.Errorf("silhouette out of range: %f", first.SilhouetteScore)
	}
}

func TestBuildClusterReportPartition(t *testing.T) {
	reviews := syntheticReviews(50)
	cfg := DefaultClusterConfig()

	report, err := BuildClusterReport("travel", reviews, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := 0
	seen := make(map[string]bool)
	for i, cluster := range report.Clusters {
		if cluster.ClusterID != i {
			t.Errorf("cluster %d: unexpected id %d", i, cluster.ClusterID)
		}
		if cluster.Size != len(cluster.MemberReviewIDs) {
			t.Errorf("cluster %d: size %d does not match %d members", i, cluster.Size, len(cluster.MemberReviewIDs))
		}
		total += cluster.Size
		for _, id := range cluster.MemberReviewIDs {
			if seen[id] {
				t.Errorf("review %s assigned to more than one cluster", id)
			}
			seen[id] = true
		}

		reps := report.Representatives[cluster.ClusterID]
		if len(reps) > cfg.SampleSize {
			t.Errorf("cluster %d: %d representatives exceed the sample size", i, len(reps))
		}
		memberSet := make(map[string]bool, len(cluster.MemberReviewIDs))
		for _, id := range cluster.MemberReviewIDs {
			memberSet[id] = true
		}
		for _, rep := range reps {
			if !memberSet[rep.ID] {
				t.Errorf("cluster %d: representative %s is not a member", i, rep.ID)
			}
		}
	}
	if total != report.TotalReviews {
		t.Errorf("cluster sizes sum to %d, want %d", total, report.TotalReviews)
	}
}

func TestBuildClusterReportInsufficientData(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("checkout flow keeps failing at the payment step ", 4)) + " every single time"
	reviews := []Review{
		{ID: "s1", RawText: "Nice app"},
		{ID: "s2", RawText: "nice app!"},
		{ID: "s3", RawText: "Nice  app"},
		{ID: "s4", RawText: "nice app"},
		{ID: "s5", RawText: "NICE APP"},
		{ID: "long", RawText: long},
	}

	report, err := BuildClusterReport("finance", reviews, DefaultClusterConfig())
	if report != nil {
		t.Fatal("expected nil report")
	}
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if insufficient.Distinct != 1 || insufficient.Minimum != 2 {
		t.Errorf("unexpected counts: %d distinct, %d minimum", insufficient.Distinct, insufficient.Minimum)
	}
	if !strings.Contains(err.Error(), "insufficient data") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestBuildClusterReportInvalidConfig(t *testing.T) {
	cfg := DefaultClusterConfig()
	cfg.NClusters = 0
	_, err := BuildClusterReport("travel", nil, cfg)
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if confErr.Parameter != "n_clusters" {
		t.Errorf("unexpected parameter: %s", confErr.Parameter)
	}

	cfg = DefaultClusterConfig()
	cfg.NGramRange = [2]int{3, 1}
	_, err = BuildClusterReport("travel", nil, cfg)
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if confErr.Parameter != "ngram_range" {
		t.Errorf("unexpected parameter: %s", confErr.Parameter)
	}
	if !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestBuildClusterReportReducesClusters(t *testing.T) {
	reviews := []Review{
		{ID: "d1", RawText: "login screen freezes after every update cycle"},
		{ID: "d2", RawText: "login screen freezes when dark mode turns on"},
		{ID: "d3", RawText: "dark mode turns on randomly after every update cycle"},
	}

	report, err := BuildClusterReport("productivity", reviews, DefaultClusterConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Clusters) != 3 {
		t.Fatalf("expected one cluster per review, got %d", len(report.Clusters))
	}
	total := 0
	for _, cluster := range report.Clusters {
		total += cluster.Size
	}
	if total != 3 {
		t.Errorf("cluster sizes sum to %d, want 3", total)
	}
}

func TestClusterReportJSONContract(t *testing.T) {
	report, err := BuildClusterReport("travel", syntheticReviews(50), DefaultClusterConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, key := range []string{
		`"category"`, `"total_reviews"`, `"silhouette_score"`,
		`"clusters"`, `"representative_reviews_per_cluster"`,
		`"member_review_ids"`, `"top_keywords"`, `"distance_to_centroid"`,
	} {
		if !strings.Contains(string(data), key) {
			t.Errorf("marshaled report missing %s", key)
		}
	}
}
