package revlens

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// PlayApp represents minimal app metadata from a store search
type PlayApp struct {
	AppID       string  `json:"app_id"`
	Name        string  `json:"name"`
	Developer   string  `json:"developer"`
	Rating      float64 `json:"rating"`
	RatingCount int     `json:"rating_count"`
	Category    string  `json:"category"`
	URL         string  `json:"url"`
}

// DiscoverAppsCmd: Searches the Play Store per category, saves apps/category.json
var DiscoverAppsCmd = &cobra.Command{
	Use:   "discover-apps [category-name]",
	Short: "Discover Play Store apps for configured categories",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		categories := selectCategories(args)
		if len(categories) == 0 {
			if len(args) > 0 {
				log.Fatalf("Category '%s' not found. Available categories: %s", args[0], categoryNames())
			}
			log.Fatalf("No categories configured")
		}

		if err := os.MkdirAll("apps", 0755); err != nil {
			log.Fatalf("Failed to create apps directory: %v", err)
		}

		log.Printf("Processing %d categories...", len(categories))
		for i, category := range categories {
			log.Printf("Category %d/%d: %s", i+1, len(categories), category.Name)
			apps, err := discoverCategoryApps(category)
			if err != nil {
				log.Fatalf("Failed to discover apps for %s: %v", category.Name, err)
			}
			for _, app := range apps {
				log.Printf("📱 [%s] %s by %s - %s", category.Name, app.Name, app.Developer, app.URL)
			}
			saveApps(category.Name, apps)
			log.Printf("Category %s: Found %d apps", category.Name, len(apps))
		}
		log.Println("Discovery complete.")
	},
}

// categoryNames returns a comma-separated list of configured category names
func categoryNames() string {
	var names []string
	for _, category := range Settings.Categories {
		names = append(names, category.Name)
	}
	return strings.Join(names, ", ")
}

// discoverCategoryApps searches every keyword of a category and merges the
// results, deduplicating by app ID and keeping the first occurrence. Searches
// run one at a time with a delay in between to stay under the store's rate
// limits.
func discoverCategoryApps(category CategoryConfig) ([]PlayApp, error) {
	limit := Settings.AppStores.GooglePlay.MaxAppsPerCategory
	seen := make(map[string]bool)
	var apps []PlayApp

	keywords := category.SearchKeywords()
	for i, keyword := range keywords {
		found, err := searchApps(keyword, limit)
		if err != nil {
			log.Printf("Search failed for keyword '%s': %v", keyword, err)
			continue
		}
		for _, app := range found {
			if seen[app.AppID] {
				continue
			}
			seen[app.AppID] = true
			app.Category = category.Name
			apps = append(apps, app)
			if limit > 0 && len(apps) >= limit {
				break
			}
		}
		if limit > 0 && len(apps) >= limit {
			break
		}
		if i < len(keywords)-1 {
			time.Sleep(Settings.RequestDelay())
		}
	}

	if len(apps) == 0 {
		return nil, fmt.Errorf("no apps found for category %s", category.Name)
	}
	return apps, nil
}

// saveApps saves discovered apps as apps/categoryName.json
func saveApps(categoryName string, apps []PlayApp) {
	data, _ := json.MarshalIndent(apps, "", "  ")
	path := filepath.Join("apps", categoryName+".json")
	_ = os.WriteFile(path, data, 0644)
}
