package revlens

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/report.html
var htmlTemplate string

//go:embed templates/styles.css
var cssStyles string

const reportTitle = "App Review UX Report"

// GenerateReportCmd: Reads clusters/ and insights/, saves report.md and report.html
var GenerateReportCmd = &cobra.Command{
	Use:   "generate-report",
	Short: "Generate final UX report in both markdown and HTML formats",
	Run: func(cmd *cobra.Command, args []string) {
		report := formatReport()
		if err := os.WriteFile("report.md", []byte(report), 0644); err != nil {
			log.Printf("Failed to write report file: %v", err)
			return
		}
		log.Println("Report generated: report.md")

		// Generate HTML version
		htmlContent := generateReportHTML(report)
		if err := os.WriteFile("report.html", []byte(htmlContent), 0644); err != nil {
			log.Printf("Failed to write HTML file: %v", err)
			return
		}
		log.Println("HTML report generated: report.html")
	},
}

// formatReport assembles the markdown report from every category's cluster
// artifact, review statistics, and generated insights.
func formatReport() string {
	files, err := os.ReadDir("clusters")
	if err != nil {
		return fmt.Sprintf("# %s\n\nNo clustered reviews found.\n", reportTitle)
	}

	var sections []string
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join("clusters", file.Name()))
		if err != nil {
			log.Printf("Failed to read %s: %v", file.Name(), err)
			continue
		}
		var clusterReport ClusterReport
		if err := json.Unmarshal(data, &clusterReport); err != nil {
			log.Printf("Failed to parse %s: %v", file.Name(), err)
			continue
		}
		sections = append(sections, formatCategorySection(&clusterReport))
	}

	if len(sections) == 0 {
		return fmt.Sprintf("# %s\n\nNo clustered reviews found.\n", reportTitle)
	}

	report := fmt.Sprintf("# %s\n\n", reportTitle)
	report += fmt.Sprintf("*Generated on %s - %d categories analyzed*\n\n", time.Now().Format("2 January 2006"), len(sections))
	report += strings.Join(sections, "")
	return report
}

// formatCategorySection renders one category: statistics, cluster table,
// representative feedback, and the AI analysis when present.
func formatCategorySection(clusterReport *ClusterReport) string {
	var section strings.Builder
	fmt.Fprintf(&section, "## %s\n\n", titleCase(clusterReport.Category))

	if reviews, err := loadCategoryReviews(clusterReport.Category); err == nil && len(reviews) > 0 {
		stats := computeReviewStats(reviews)
		section.WriteString("### 📊 Review Statistics\n\n")
		section.WriteString("| Metric | Value |\n| --- | --- |\n")
		fmt.Fprintf(&section, "| Reviews fetched | %d |\n", stats.TotalReviews)
		fmt.Fprintf(&section, "| Reviews clustered | %d |\n", clusterReport.TotalReviews)
		fmt.Fprintf(&section, "| Average rating | %.2f |\n", stats.AverageRating)
		fmt.Fprintf(&section, "| Average length | %.2f |\n", stats.AverageLength)
		fmt.Fprintf(&section, "| Helpful reviews | %d |\n", stats.HelpfulReviews)
		for rating := 1; rating <= 5; rating++ {
			fmt.Fprintf(&section, "| %d★ reviews | %d |\n", rating, stats.RatingDistribution[rating])
		}
		section.WriteString("\n")
	}

	section.WriteString("### 🧩 Feedback Clusters\n\n")
	section.WriteString("| Cluster | Reviews | Top Keywords |\n| --- | --- | --- |\n")
	for _, cluster := range clusterReport.Clusters {
		keywords := strings.Join(cluster.TopKeywords, ", ")
		if keywords == "" {
			keywords = "-"
		}
		fmt.Fprintf(&section, "| %d | %d | %s |\n", cluster.ClusterID, cluster.Size, keywords)
	}
	section.WriteString("\n")

	section.WriteString("### 🗣️ Representative Feedback\n\n")
	for _, cluster := range clusterReport.Clusters {
		representatives := clusterReport.Representatives[cluster.ClusterID]
		if len(representatives) == 0 {
			continue
		}
		keywords := strings.Join(cluster.TopKeywords, ", ")
		if keywords == "" {
			keywords = "-"
		}
		fmt.Fprintf(&section, "**Cluster %d** (%s)\n\n", cluster.ClusterID, keywords)
		for _, review := range representatives[:min(3, len(representatives))] {
			fmt.Fprintf(&section, "> %s\n\n", review.NormalizedText)
		}
	}

	if insights, err := loadInsights(clusterReport.Category); err == nil {
		fmt.Fprintf(&section, "### 💡 UX Insights\n\n%s\n\n", strings.TrimSpace(insights.Insights))
		fmt.Fprintf(&section, "### 🎯 UX Recommendations\n\n%s\n\n", strings.TrimSpace(insights.Recommendations))
		fmt.Fprintf(&section, "### 📋 Executive Summary\n\n%s\n\n", strings.TrimSpace(insights.Summary))
	}

	section.WriteString("---\n\n")
	return section.String()
}

// loadInsights loads generated insights from insights/category.json
func loadInsights(categoryName string) (CategoryInsights, error) {
	data, err := os.ReadFile(filepath.Join("insights", categoryName+".json"))
	if err != nil {
		return CategoryInsights{}, err
	}
	var insights CategoryInsights
	if err := json.Unmarshal(data, &insights); err != nil {
		return CategoryInsights{}, fmt.Errorf("failed to parse insights: %w", err)
	}
	return insights, nil
}

// titleCase uppercases the first letter of a category name for headings
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// generateReportHTML generates a complete HTML document with embedded CSS
func generateReportHTML(markdownContent string) string {
	// Configure goldmark with extensions
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Linkify,
			extension.Strikethrough,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)

	// Convert markdown to HTML
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdownContent), &buf); err != nil {
		log.Printf("Failed to convert markdown to HTML: %v", err)
		return ""
	}

	// Parse the HTML template
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		log.Printf("Failed to parse HTML template: %v", err)
		return ""
	}

	// Prepare template data
	data := struct {
		Title string
		Date  string
		Body  template.HTML
		CSS   template.CSS
	}{
		Title: reportTitle,
		Date:  time.Now().Format("2 January 2006"),
		Body:  template.HTML(buf.String()),
		CSS:   template.CSS(cssStyles),
	}

	// Execute template
	var result bytes.Buffer
	if err := tmpl.Execute(&result, data); err != nil {
		log.Printf("Failed to execute template: %v", err)
		return ""
	}

	return result.String()
}
