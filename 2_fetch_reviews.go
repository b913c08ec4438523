package revlens

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

// Review represents a single Play Store user review
type Review struct {
	ID           string    `json:"id"`
	AppID        string    `json:"app_id"`
	RawText      string    `json:"text"`
	Rating       int       `json:"rating"`
	Timestamp    time.Time `json:"timestamp"`
	Author       string    `json:"author,omitempty"`
	HelpfulCount int       `json:"helpful_count,omitempty"`
	ReplyText    string    `json:"reply_text,omitempty"`
	ReplyDate    time.Time `json:"reply_date,omitzero"`
}

// ReviewStats summarizes the reviews fetched for one app
type ReviewStats struct {
	TotalReviews       int         `json:"total_reviews"`
	AverageRating      float64     `json:"average_rating"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	AverageLength      float64     `json:"average_length"`
	HelpfulReviews     int         `json:"helpful_reviews"`
}

// AppReviews is the per-app artifact saved under reviews/
type AppReviews struct {
	AppID     string      `json:"app_id"`
	FetchedAt time.Time   `json:"fetched_at"`
	Stats     ReviewStats `json:"stats"`
	Reviews   []Review    `json:"reviews"`
}

// FetchReviewsCmd: Reads apps/, saves reviews/appID.json and caches rows in reviews.db
var FetchReviewsCmd = &cobra.Command{
	Use:   "fetch-reviews [category-name]",
	Short: "Fetch reviews for discovered apps",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		db, err := initReviewDB()
		if err != nil {
			log.Fatalf("Failed to initialize review database: %v", err)
		}
		defer db.Close()

		if err := os.MkdirAll("reviews", 0755); err != nil {
			log.Fatalf("Failed to create reviews directory: %v", err)
		}

		files, err := os.ReadDir("apps")
		if err != nil {
			log.Printf("Failed to read apps directory: %v", err)
			return
		}

		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			categoryName := strings.TrimSuffix(file.Name(), ".json")
			if len(args) > 0 && !strings.EqualFold(categoryName, args[0]) {
				continue
			}

			data, err := os.ReadFile(filepath.Join("apps", file.Name()))
			if err != nil {
				log.Printf("Failed to read %s: %v", file.Name(), err)
				continue
			}
			var apps []PlayApp
			if err := json.Unmarshal(data, &apps); err != nil {
				log.Printf("Failed to parse %s: %v", file.Name(), err)
				continue
			}

			log.Printf("Fetching reviews for %d apps in %s...", len(apps), categoryName)
			for _, app := range apps {
				reviews, err := fetchAppReviews(app.AppID)
				if err != nil {
					log.Printf("Failed to fetch reviews for %s: %v (skipping)", app.AppID, err)
					continue
				}
				cached, err := cacheReviews(db, reviews)
				if err != nil {
					log.Printf("Failed to cache reviews for %s: %v", app.AppID, err)
				}
				saveAppReviews(app.AppID, reviews)
				log.Printf("💬 [%s] %s: %d reviews (%d new)", categoryName, app.Name, len(reviews), cached)
				time.Sleep(Settings.RequestDelay())
			}
		}
		log.Println("Review fetch complete.")
	},
}

// fetchAppReviews pages through an app's reviews, newest first, until the
// per-app cap is reached, the continuation token runs out, or reviews fall
// outside the freshness window.
func fetchAppReviews(appID string) ([]Review, error) {
	maxReviews := Settings.AppStores.GooglePlay.MaxReviewsPerApp
	window := Settings.FreshnessWindow()
	cutoff := time.Now().Add(-window)

	var reviews []Review
	token := ""
	for {
		remaining := reviewPageSize
		if maxReviews > 0 {
			remaining = min(reviewPageSize, maxReviews-len(reviews))
		}
		if remaining <= 0 {
			break
		}

		page, next, err := fetchReviewsPage(appID, token, remaining)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch reviews page: %w", err)
		}

		stale := false
		for _, review := range page {
			if window > 0 && !review.Timestamp.IsZero() && review.Timestamp.Before(cutoff) {
				stale = true
				break
			}
			reviews = append(reviews, review)
		}

		if stale || next == "" || len(page) == 0 {
			break
		}
		if maxReviews > 0 && len(reviews) >= maxReviews {
			break
		}
		token = next
		time.Sleep(Settings.RequestDelay())
	}
	return reviews, nil
}

// initReviewDB initializes the SQLite cache for fetched reviews
func initReviewDB() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "reviews.db")
	if err != nil {
		return nil, err
	}

	// Create table if not exists
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		app_id TEXT NOT NULL,
		text TEXT,
		rating INTEGER,
		author TEXT,
		posted_at DATETIME,
		helpful_count INTEGER DEFAULT 0,
		reply_text TEXT,
		reply_at DATETIME,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_app_id ON reviews(app_id);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
		return nil, err
	}

	return db, nil
}

// cacheReviews inserts reviews into the cache, ignoring rows already present,
// and returns the number of newly cached reviews.
func cacheReviews(db *sql.DB, reviews []Review) (int, error) {
	cached := 0
	for _, review := range reviews {
		result, err := db.Exec(
			"INSERT OR IGNORE INTO reviews (id, app_id, text, rating, author, posted_at, helpful_count, reply_text, reply_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			review.ID, review.AppID, review.RawText, review.Rating, review.Author,
			review.Timestamp, review.HelpfulCount, review.ReplyText, nullableTime(review.ReplyDate),
		)
		if err != nil {
			return cached, fmt.Errorf("failed to insert review %s: %w", review.ID, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return cached, err
		}
		cached += int(rows)
	}
	return cached, nil
}

// nullableTime maps the zero time to NULL for optional date columns
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// computeReviewStats aggregates rating and length statistics for an app
func computeReviewStats(reviews []Review) ReviewStats {
	stats := ReviewStats{
		TotalReviews:       len(reviews),
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	if len(reviews) == 0 {
		return stats
	}

	ratingSum := 0
	lengthSum := 0
	for _, review := range reviews {
		ratingSum += review.Rating
		lengthSum += len(review.RawText)
		if review.Rating >= 1 && review.Rating <= 5 {
			stats.RatingDistribution[review.Rating]++
		}
		if review.HelpfulCount > 5 || review.ReplyText != "" {
			stats.HelpfulReviews++
		}
	}
	stats.AverageRating = math.Round(float64(ratingSum)/float64(len(reviews))*100) / 100
	stats.AverageLength = math.Round(float64(lengthSum)/float64(len(reviews))*100) / 100
	return stats
}

// saveAppReviews saves fetched reviews as reviews/appID.json
func saveAppReviews(appID string, reviews []Review) {
	artifact := AppReviews{
		AppID:     appID,
		FetchedAt: time.Now().UTC(),
		Stats:     computeReviewStats(reviews),
		Reviews:   reviews,
	}
	data, _ := json.MarshalIndent(artifact, "", "  ")
	path := filepath.Join("reviews", appID+".json")
	_ = os.WriteFile(path, data, 0644)
}
