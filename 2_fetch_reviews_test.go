package revlens

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestComputeReviewStats(t *testing.T) {
	reviews := []Review{
		{Rating: 5, RawText: strings.Repeat("a", 10), HelpfulCount: 12},
		{Rating: 4, RawText: strings.Repeat("b", 20), ReplyText: "Thanks"},
		{Rating: 1, RawText: strings.Repeat("c", 30), HelpfulCount: 5},
		{Rating: 5, RawText: strings.Repeat("d", 25)},
	}

	stats := computeReviewStats(reviews)
	if stats.TotalReviews != 4 {
		t.Errorf("unexpected total: %d", stats.TotalReviews)
	}
	if stats.AverageRating != 3.75 {
		t.Errorf("unexpected average rating: %f", stats.AverageRating)
	}
	if stats.AverageLength != 21.25 {
		t.Errorf("unexpected average length: %f", stats.AverageLength)
	}
	want := map[int]int{1: 1, 2: 0, 3: 0, 4: 1, 5: 2}
	if !reflect.DeepEqual(stats.RatingDistribution, want) {
		t.Errorf("unexpected distribution: %v", stats.RatingDistribution)
	}
	// Helpful means upvoted past the threshold or answered by the developer
	if stats.HelpfulReviews != 2 {
		t.Errorf("unexpected helpful count: %d", stats.HelpfulReviews)
	}
}

func TestComputeReviewStatsEmpty(t *testing.T) {
	stats := computeReviewStats(nil)
	if stats.TotalReviews != 0 {
		t.Errorf("unexpected total: %d", stats.TotalReviews)
	}
	if stats.AverageRating != 0 || stats.AverageLength != 0 {
		t.Errorf("unexpected averages: %f, %f", stats.AverageRating, stats.AverageLength)
	}
	if len(stats.RatingDistribution) != 5 {
		t.Errorf("expected all five rating buckets, got %v", stats.RatingDistribution)
	}
}

func TestComputeReviewStatsOutOfRangeRatings(t *testing.T) {
	stats := computeReviewStats([]Review{
		{Rating: 0, RawText: "xx"},
		{Rating: 6, RawText: "yyyy"},
	})
	for rating, count := range stats.RatingDistribution {
		if count != 0 {
			t.Errorf("rating %d counted despite being out of range: %d", rating, count)
		}
	}
	if stats.AverageRating != 3 {
		t.Errorf("unexpected average rating: %f", stats.AverageRating)
	}
	if stats.AverageLength != 3 {
		t.Errorf("unexpected average length: %f", stats.AverageLength)
	}
}

func TestNullableTime(t *testing.T) {
	if v := nullableTime(time.Time{}); v != nil {
		t.Errorf("expected nil for the zero time, got %v", v)
	}
	replied := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v, ok := nullableTime(replied).(time.Time)
	if !ok || !v.Equal(replied) {
		t.Errorf("expected the time preserved, got %v", v)
	}
}
