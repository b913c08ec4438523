package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/cenkalti/revlens"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func getenv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return value
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file")
	}

	// Set configuration for the revlens package
	revlens.Config.OpenAIAPIKey = getenv("OPENAI_API_KEY")

	if err := revlens.LoadSettings("config.yaml"); err != nil {
		log.Fatalf("Failed to load config.yaml: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:   "revlens",
		Short: "Play Store review clustering and UX insight CLI",
	}

	// Add all commands from the revlens package
	rootCmd.AddCommand(revlens.DiscoverAppsCmd)
	rootCmd.AddCommand(revlens.FetchReviewsCmd)
	rootCmd.AddCommand(revlens.ClusterReviewsCmd)
	rootCmd.AddCommand(revlens.GenerateInsightsCmd)
	rootCmd.AddCommand(revlens.GenerateReportCmd)
	rootCmd.AddCommand(revlens.UploadReportCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: discover-apps -> fetch-reviews -> cluster-reviews -> generate-insights -> generate-report",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Running full pipeline...")
		revlens.DiscoverAppsCmd.Run(cmd, args)
		revlens.FetchReviewsCmd.Run(cmd, args)
		revlens.ClusterReviewsCmd.Run(cmd, args)
		revlens.GenerateInsightsCmd.Run(cmd, args)
		revlens.GenerateReportCmd.Run(cmd, args)
		log.Println("Pipeline complete.")
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old apps, reviews, clusters, insights, and reports",
	Run: func(cmd *cobra.Command, args []string) {
		dirs := []string{"apps", "reviews", "clusters", "insights"}
		for _, dir := range dirs {
			files, err := os.ReadDir(dir)
			if err != nil {
				log.Printf("Failed to read %s: %v", dir, err)
				continue
			}
			for _, file := range files {
				if file.IsDir() {
					continue
				}
				err := os.Remove(filepath.Join(dir, file.Name()))
				if err != nil {
					log.Printf("Failed to remove %s: %v", file.Name(), err)
				}
			}
		}

		// The review cache in reviews.db survives cleans
		for _, name := range []string{"report.md", "report.html"} {
			if err := os.Remove(name); err != nil {
				if !os.IsNotExist(err) {
					log.Printf("Failed to remove %s: %v", name, err)
				}
			}
		}

		log.Println("Cleaned apps, reviews, clusters, insights directories and reports.")
	},
}
