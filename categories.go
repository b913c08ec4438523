package revlens

import "strings"

// CategoryConfig represents one Play Store category to analyze
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords,flow"`
}

// DefaultCategories contains the built-in category configurations
var DefaultCategories = []CategoryConfig{
	{
		Name:     "travel",
		Keywords: []string{"travel planner", "flight booking", "hotel deals"},
	},
	{
		Name:     "finance",
		Keywords: []string{"mobile banking", "budget tracker", "stock investing"},
	},
	{
		Name:     "fitness",
		Keywords: []string{"workout tracker", "home workout", "calorie counter"},
	},
	{
		Name:     "productivity",
		Keywords: []string{"todo list", "note taking", "habit tracker"},
	},
}

// SearchKeywords returns the category's search keywords with the category
// name itself always first.
func (c CategoryConfig) SearchKeywords() []string {
	keywords := []string{c.Name}
	for _, keyword := range c.Keywords {
		if strings.EqualFold(keyword, c.Name) {
			continue
		}
		keywords = append(keywords, keyword)
	}
	return keywords
}

// selectCategories filters the configured categories by an optional
// case-insensitive name argument.
func selectCategories(args []string) []CategoryConfig {
	if len(args) == 0 {
		return Settings.Categories
	}
	var selected []CategoryConfig
	for _, category := range Settings.Categories {
		if strings.EqualFold(category.Name, args[0]) {
			selected = append(selected, category)
		}
	}
	return selected
}
