package revlens

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// ClusterReviewsCmd: Reads apps/ and reviews/, saves clusters/category.json
var ClusterReviewsCmd = &cobra.Command{
	Use:   "cluster-reviews [category-name]",
	Short: "Cluster fetched reviews by feedback theme",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		categories := selectCategories(args)
		if len(categories) == 0 {
			if len(args) > 0 {
				log.Fatalf("Category '%s' not found. Available categories: %s", args[0], categoryNames())
			}
			log.Fatalf("No categories configured")
		}

		if err := os.MkdirAll("clusters", 0755); err != nil {
			log.Fatalf("Failed to create clusters directory: %v", err)
		}

		cfg := Settings.ClusterConfig()
		for _, category := range categories {
			reviews, err := loadCategoryReviews(category.Name)
			if err != nil {
				log.Printf("Failed to load reviews for %s: %v (skipping)", category.Name, err)
				continue
			}

			log.Printf("📊 Clustering %d reviews for category %s...", len(reviews), category.Name)
			report, err := BuildClusterReport(category.Name, reviews, cfg)
			if err != nil {
				var insufficient *InsufficientDataError
				if errors.As(err, &insufficient) {
					log.Printf("⚠️  Skipping %s: %v", category.Name, err)
					continue
				}
				log.Fatalf("Failed to cluster reviews for %s: %v", category.Name, err)
			}

			if err := saveClusterReport(report); err != nil {
				log.Fatalf("Failed to save clusters for %s: %v", category.Name, err)
			}
			logClusterSummary(report)
		}
		log.Println("Review clustering complete.")
	},
}

// loadCategoryReviews collects the fetched reviews of every app discovered
// for a category.
func loadCategoryReviews(categoryName string) ([]Review, error) {
	data, err := os.ReadFile(filepath.Join("apps", categoryName+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read app list: %w", err)
	}
	var apps []PlayApp
	if err := json.Unmarshal(data, &apps); err != nil {
		return nil, fmt.Errorf("failed to parse app list: %w", err)
	}

	var reviews []Review
	for _, app := range apps {
		data, err := os.ReadFile(filepath.Join("reviews", app.AppID+".json"))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read reviews for %s: %w", app.AppID, err)
		}
		var artifact AppReviews
		if err := json.Unmarshal(data, &artifact); err != nil {
			return nil, fmt.Errorf("failed to parse reviews for %s: %w", app.AppID, err)
		}
		reviews = append(reviews, artifact.Reviews...)
	}
	return reviews, nil
}

// saveClusterReport saves the clustering result as clusters/category.json
func saveClusterReport(report *ClusterReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cluster report: %w", err)
	}
	path := filepath.Join("clusters", report.Category+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cluster report: %w", err)
	}
	return nil
}

// logClusterSummary prints the per-cluster breakdown for one category
func logClusterSummary(report *ClusterReport) {
	log.Printf("✅ Category %s: %d reviews in %d clusters (silhouette %.3f)",
		report.Category, report.TotalReviews, len(report.Clusters), report.SilhouetteScore)
	for _, cluster := range report.Clusters {
		keywords := strings.Join(cluster.TopKeywords, ", ")
		if keywords == "" {
			keywords = "-"
		}
		log.Printf("📦 Cluster %d: %d reviews [%s]", cluster.ClusterID, cluster.Size, keywords)
	}
}
