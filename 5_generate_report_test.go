package revlens

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal %s: %v", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"travel":       "Travel",
		"":             "",
		"fitness apps": "Fitness apps",
	}
	for in, want := range cases {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatCategorySection(t *testing.T) {
	t.Chdir(t.TempDir())

	report := &ClusterReport{
		Category:     "travel",
		TotalReviews: 2,
		Clusters: []Cluster{
			{ClusterID: 0, Size: 2, TopKeywords: []string{"battery", "drain"}},
			{ClusterID: 1, Size: 0},
		},
		Representatives: map[int][]Representative{
			0: {
				{CleanedReview: CleanedReview{Review: Review{ID: "r1"}, NormalizedText: "battery drains fast"}, Distance: 0.1},
			},
			1: {},
		},
	}

	section := formatCategorySection(report)
	for _, want := range []string{
		"## Travel",
		"| 0 | 2 | battery, drain |",
		"| 1 | 0 | - |",
		"**Cluster 0** (battery, drain)",
		"> battery drains fast",
	} {
		if !strings.Contains(section, want) {
			t.Errorf("section missing %q", want)
		}
	}
	if strings.Contains(section, "**Cluster 1**") {
		t.Error("empty cluster should have no feedback block")
	}
	if strings.Contains(section, "Review Statistics") {
		t.Error("statistics rendered without fetched reviews")
	}
	if !strings.HasSuffix(section, "---\n\n") {
		t.Error("section not terminated with a separator")
	}
}

func TestFormatReport(t *testing.T) {
	t.Chdir(t.TempDir())

	writeJSON(t, filepath.Join("apps", "travel.json"), []PlayApp{
		{AppID: "com.example.travel", Name: "Travel Planner", Category: "travel"},
	})

	reviews := []Review{
		{ID: "r1", AppID: "com.example.travel", RawText: strings.Repeat("a", 10), Rating: 5, Timestamp: time.Now().UTC()},
		{ID: "r2", AppID: "com.example.travel", RawText: strings.Repeat("b", 30), Rating: 4, Timestamp: time.Now().UTC()},
	}
	writeJSON(t, filepath.Join("reviews", "com.example.travel.json"), AppReviews{
		AppID:     "com.example.travel",
		FetchedAt: time.Now().UTC(),
		Stats:     computeReviewStats(reviews),
		Reviews:   reviews,
	})

	writeJSON(t, filepath.Join("clusters", "travel.json"), &ClusterReport{
		Category:     "travel",
		TotalReviews: 2,
		Clusters: []Cluster{
			{ClusterID: 0, Size: 2, MemberReviewIDs: []string{"r1", "r2"}, TopKeywords: []string{"trips"}},
		},
		Representatives: map[int][]Representative{
			0: {{CleanedReview: CleanedReview{Review: Review{ID: "r1"}, NormalizedText: "great app for trips"}}},
		},
	})

	writeJSON(t, filepath.Join("insights", "travel.json"), CategoryInsights{
		Category:     "travel",
		TotalReviews: 2,
		GeneratedAt:  time.Now().UTC(),
		UXAnalysis: UXAnalysis{
			Insights:        "Users plan trips on the go.",
			Recommendations: "High: keep offline mode fast.",
			Summary:         "Travelers rely on the app daily.",
		},
	})

	report := formatReport()
	for _, want := range []string{
		"# App Review UX Report",
		"1 categories analyzed",
		"## Travel",
		"| Reviews fetched | 2 |",
		"| Reviews clustered | 2 |",
		"| Average rating | 4.50 |",
		"| 5★ reviews | 1 |",
		"| 0 | 2 | trips |",
		"> great app for trips",
		"### 💡 UX Insights",
		"Users plan trips on the go.",
		"High: keep offline mode fast.",
		"Travelers rely on the app daily.",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestFormatReportEmpty(t *testing.T) {
	t.Chdir(t.TempDir())

	report := formatReport()
	if !strings.Contains(report, "No clustered reviews found.") {
		t.Errorf("unexpected report: %q", report)
	}
}

func TestGenerateReportHTML(t *testing.T) {
	markdown := "# Hello\n\nSome **bold** text.\n\n| A | B |\n| --- | --- |\n| 1 | 2 |\n"
	page := generateReportHTML(markdown)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>App Review UX Report</title>",
		`<h1 id="hello">Hello</h1>`,
		"<strong>bold</strong>",
		"<table>",
		"box-sizing: border-box",
		"Generated on ",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("html missing %q", want)
		}
	}
}
