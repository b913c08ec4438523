package revlens

import (
	"reflect"
	"testing"
)

func representativesFixture(values [][]float64, terms []string) *FeatureMatrix {
	index := make(map[string]int, len(terms))
	for i, term := range terms {
		index[term] = i
	}
	return &FeatureMatrix{
		Values: denseFromRows(values),
		Terms:  terms,
		Index:  index,
	}
}

func TestSelectRepresentativesOrdering(t *testing.T) {
	cleaned := cleanedReviews(
		"battery drains overnight",
		"battery life is poor",
		"screen flickers constantly",
	)
	features := representativesFixture([][]float64{
		{1, 0},
		{0.7071, 0.7071},
		{0, 1},
	}, []string{"alpha", "beta"})
	result := &KMeansResult{
		K:         1,
		Labels:    []int{0, 0, 0},
		Centroids: denseFromRows([][]float64{{1, 0}}),
	}

	clusters, representatives := SelectRepresentatives(features, result, cleaned, 2, 2)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].Size != 3 {
		t.Errorf("expected size 3, got %d", clusters[0].Size)
	}
	if !reflect.DeepEqual(clusters[0].MemberReviewIDs, []string{"r1", "r2", "r3"}) {
		t.Errorf("unexpected member ids: %v", clusters[0].MemberReviewIDs)
	}
	if !reflect.DeepEqual(clusters[0].CentroidVector, []float64{1, 0}) {
		t.Errorf("unexpected centroid vector: %v", clusters[0].CentroidVector)
	}

	reps := representatives[0]
	if len(reps) != 2 {
		t.Fatalf("expected sample capped at 2, got %d", len(reps))
	}
	if reps[0].ID != "r1" || reps[1].ID != "r2" {
		t.Errorf("expected the closest reviews first, got %s, %s", reps[0].ID, reps[1].ID)
	}
	if reps[0].Distance != 0 {
		t.Errorf("expected zero distance for the centroid row, got %f", reps[0].Distance)
	}
	if reps[0].Distance > reps[1].Distance {
		t.Errorf("distances not sorted: %f > %f", reps[0].Distance, reps[1].Distance)
	}
}

func TestSelectRepresentativesStableTies(t *testing.T) {
	cleaned := cleanedReviews(
		"crashes on startup every day",
		"crashes when opening settings",
		"crashes after the last update",
	)
	features := representativesFixture([][]float64{
		{1, 0},
		{1, 0},
		{1, 0},
	}, []string{"alpha", "beta"})
	result := &KMeansResult{
		K:         1,
		Labels:    []int{0, 0, 0},
		Centroids: denseFromRows([][]float64{{1, 0}}),
	}

	_, representatives := SelectRepresentatives(features, result, cleaned, 3, 1)
	reps := representatives[0]
	if len(reps) != 3 {
		t.Fatalf("expected 3 representatives, got %d", len(reps))
	}
	for i, want := range []string{"r1", "r2", "r3"} {
		if reps[i].ID != want {
			t.Errorf("tie order not stable at %d: got %s, want %s", i, reps[i].ID, want)
		}
	}
}

func TestSelectRepresentativesEmptyCluster(t *testing.T) {
	cleaned := cleanedReviews("battery drains overnight", "battery life is poor")
	features := representativesFixture([][]float64{
		{1, 0},
		{1, 0},
	}, []string{"alpha", "beta"})
	result := &KMeansResult{
		K:         2,
		Labels:    []int{0, 0},
		Centroids: denseFromRows([][]float64{{1, 0}, {0, 1}}),
	}

	clusters, representatives := SelectRepresentatives(features, result, cleaned, 5, 2)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	empty := clusters[1]
	if empty.Size != 0 {
		t.Errorf("expected empty cluster, got size %d", empty.Size)
	}
	if empty.MemberReviewIDs == nil || len(empty.MemberReviewIDs) != 0 {
		t.Errorf("expected empty member list, got %v", empty.MemberReviewIDs)
	}
	if !reflect.DeepEqual(empty.CentroidVector, []float64{0, 1}) {
		t.Errorf("expected the centroid preserved, got %v", empty.CentroidVector)
	}
	if len(representatives[1]) != 0 {
		t.Errorf("expected no representatives, got %d", len(representatives[1]))
	}
}

func TestClusterKeywords(t *testing.T) {
	features := representativesFixture([][]float64{
		{0.1, 0.9, 0},
		{0.2, 0.8, 0},
	}, []string{"alpha", "beta", "gamma"})

	keywords := clusterKeywords(features, []int{0, 1}, 2)
	if !reflect.DeepEqual(keywords, []string{"beta", "alpha"}) {
		t.Errorf("expected keywords by summed weight, got %v", keywords)
	}

	// Zero-weight terms never appear even when the limit allows more
	keywords = clusterKeywords(features, []int{0, 1}, 3)
	if !reflect.DeepEqual(keywords, []string{"beta", "alpha"}) {
		t.Errorf("expected zero-weight terms excluded, got %v", keywords)
	}

	if keywords := clusterKeywords(features, nil, 2); keywords != nil {
		t.Errorf("expected nil for an empty cluster, got %v", keywords)
	}
	if keywords := clusterKeywords(features, []int{0}, 0); keywords != nil {
		t.Errorf("expected nil for a zero limit, got %v", keywords)
	}
}

func TestSelectRepresentativesKeywords(t *testing.T) {
	cleaned := cleanedReviews("login fails after update", "login keeps failing daily")
	features := representativesFixture([][]float64{
		{0.9, 0.1},
		{0.8, 0.2},
	}, []string{"login", "update"})
	result := &KMeansResult{
		K:         1,
		Labels:    []int{0, 0},
		Centroids: denseFromRows([][]float64{{0.85, 0.15}}),
	}

	clusters, _ := SelectRepresentatives(features, result, cleaned, 10, 1)
	if !reflect.DeepEqual(clusters[0].TopKeywords, []string{"login"}) {
		t.Errorf("expected the heaviest term only, got %v", clusters[0].TopKeywords)
	}
}
