package revlens

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/spf13/cobra"
)

// UXAnalysis represents the structured response from OpenAI
type UXAnalysis struct {
	Insights        string `json:"insights" jsonschema:"description=3-5 key insights about user experience patterns and pain points"`
	Recommendations string `json:"recommendations" jsonschema:"description=5-7 actionable UX recommendations with High/Medium/Low priority levels"`
	Summary         string `json:"summary" jsonschema:"description=2-3 paragraph executive summary of the key UX findings"`
}

// CategoryInsights is the per-category artifact saved under insights/
type CategoryInsights struct {
	Category     string    `json:"category"`
	TotalReviews int       `json:"total_reviews"`
	GeneratedAt  time.Time `json:"generated_at"`
	UXAnalysis
}

// GenerateInsightsCmd: Reads clusters/, saves insights/category.json
var GenerateInsightsCmd = &cobra.Command{
	Use:   "generate-insights [category-name]",
	Short: "Generate UX insights from clustered reviews",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		files, err := os.ReadDir("clusters")
		if err != nil {
			log.Printf("Failed to read clusters directory: %v", err)
			return
		}

		if err := os.MkdirAll("insights", 0755); err != nil {
			log.Fatalf("Failed to create insights directory: %v", err)
		}

		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			categoryName := strings.TrimSuffix(file.Name(), ".json")
			if len(args) > 0 && !strings.EqualFold(categoryName, args[0]) {
				continue
			}

			data, err := os.ReadFile(filepath.Join("clusters", file.Name()))
			if err != nil {
				log.Printf("Failed to read %s: %v", file.Name(), err)
				continue
			}
			var report ClusterReport
			if err := json.Unmarshal(data, &report); err != nil {
				log.Printf("Failed to parse %s: %v", file.Name(), err)
				continue
			}

			log.Printf("🧠 Generating UX insights for category %s...", report.Category)
			analysis, err := generateInsights(&report)
			if err != nil {
				log.Printf("Failed to generate insights for %s: %v (skipping)", report.Category, err)
				continue
			}

			insights := CategoryInsights{
				Category:     report.Category,
				TotalReviews: report.TotalReviews,
				GeneratedAt:  time.Now().UTC(),
				UXAnalysis:   analysis,
			}
			saveInsights(insights)
			log.Printf("✅ Insights saved for category %s", report.Category)
		}
		log.Println("Insight generation complete.")
	},
}

// generateInsights sends the representative reviews of every cluster to
// OpenAI and returns the structured analysis.
func generateInsights(report *ClusterReport) (UXAnalysis, error) {
	apiKey := Config.OpenAIAPIKey

	// Generate JSON schema for structured output
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaObj := reflector.Reflect(&UXAnalysis{})

	if schemaObj.Type == "" {
		schemaObj.Type = "object"
	}

	// Convert to interface{} for OpenAI SDK
	schemaBytes, err := json.Marshal(schemaObj)
	if err != nil {
		return UXAnalysis{}, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schema any
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return UXAnalysis{}, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	// Create OpenAI client
	client := openai.NewClient(option.WithAPIKey(apiKey))

	systemContent := "You are a senior UX analyst. You analyze app store user feedback and produce actionable UX insights grounded strictly in what users wrote."
	userContent := buildInsightsPrompt(report)

	// Create chat completion with structured outputs
	chatCompletion, err := client.Chat.Completions.New(context.TODO(), openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemContent),
			openai.UserMessage(userContent),
		},
		Model:       openai.ChatModelGPT4_1,
		MaxTokens:   openai.Int(2000),
		Temperature: openai.Float(0.1),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "ux_analysis",
					Description: openai.String("UX insights, recommendations and executive summary from app reviews"),
					Schema:      schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return UXAnalysis{}, fmt.Errorf("failed to call OpenAI API: %w", err)
	}

	if len(chatCompletion.Choices) == 0 || chatCompletion.Choices[0].Message.Content == "" {
		return UXAnalysis{}, fmt.Errorf("no content in response")
	}

	var analysis UXAnalysis
	if err := json.Unmarshal([]byte(chatCompletion.Choices[0].Message.Content), &analysis); err != nil {
		return UXAnalysis{}, fmt.Errorf("failed to parse structured response: %w", err)
	}

	return analysis, nil
}

// buildInsightsPrompt numbers the representative reviews of every cluster
// into one flat feedback list. Cluster IDs are iterated in order so the
// prompt is deterministic for a given report.
func buildInsightsPrompt(report *ClusterReport) string {
	var clusterIDs []int
	for clusterID := range report.Representatives {
		clusterIDs = append(clusterIDs, clusterID)
	}
	sort.Ints(clusterIDs)

	var feedback strings.Builder
	counter := 1
	for _, clusterID := range clusterIDs {
		for _, review := range report.Representatives[clusterID] {
			fmt.Fprintf(&feedback, "Review %d: %q\n", counter, review.NormalizedText)
			counter++
		}
	}

	return fmt.Sprintf(`You are a senior UX analyst conducting a comprehensive analysis of %s app user feedback. Analyze the following user feedback data and provide actionable UX insights.

CRITICAL INSTRUCTIONS:
- Focus on USER EXPERIENCE patterns and insights
- ONLY analyze what is explicitly stated in the provided user feedback
- DO NOT make assumptions, inferences, or conclusions beyond what users have written
- Base all insights and recommendations ONLY on the actual user feedback provided
- If feedback doesn't mention something, do not assume it exists or doesn't exist
- DO NOT mention clusters, groups, or technical analysis methods in your response

OVERALL DATA:
- App Category: %s
- Total user reviews analyzed: %d

USER FEEDBACK DATA:
%s
Provide 3-5 key insights about user experience patterns, 5-7 specific UX recommendations with priority levels (High/Medium/Low), and a 2-3 paragraph executive summary. Every insight and recommendation must be directly supported by statements from the provided user feedback. Do not reference "User X" or "Group Y"; present insights as general patterns and trends.`,
		report.Category, report.Category, report.TotalReviews, feedback.String())
}

// saveInsights saves generated insights as insights/category.json
func saveInsights(insights CategoryInsights) {
	// Marshal without HTML escaping so LLM prose stays readable
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(insights); err != nil {
		log.Printf("Failed to marshal insights for %s: %v", insights.Category, err)
		return
	}
	path := filepath.Join("insights", insights.Category+".json")
	_ = os.WriteFile(path, buffer.Bytes(), 0644)
}
