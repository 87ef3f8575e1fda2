package intent

import (
	_ "embed"
	"encoding/json"

	"github.com/tmc/langchaingo/prompts"
)

//go:embed parse_prompt.txt
var parsePromptText string

// siteCategories is the storefront category tree as scraped from its DOM.
// The prompt includes it verbatim so the model maps terms to exact paths.
var siteCategories = map[string]any{
	"computers": map[string]any{
		"path": "/computers",
		"subcategories": map[string]string{
			"desktops":  "/desktops",
			"notebooks": "/notebooks",
			"laptops":   "/notebooks",
			"software":  "/software",
		},
	},
	"electronics": map[string]any{
		"path": "/electronics",
		"subcategories": map[string]string{
			"camera":    "/camera-photo",
			"photo":     "/camera-photo",
			"cellphone": "/cell-phones",
			"phone":     "/cell-phones",
			"mobile":    "/cell-phones",
			"others":    "/others",
		},
	},
	"apparel": map[string]any{
		"path": "/apparel",
		"subcategories": map[string]string{
			"shoes":       "/shoes",
			"clothing":    "/clothing",
			"accessories": "/accessories",
		},
	},
	"books":             map[string]any{"path": "/books"},
	"jewelry":           map[string]any{"path": "/jewelry"},
	"digital-downloads": map[string]any{"path": "/digital-downloads"},
	"gift-cards":        map[string]any{"path": "/gift-cards"},
}

var parsePrompt = prompts.NewPromptTemplate(parsePromptText, []string{"categories", "query"})

// renderPrompt fills the parse prompt with the category tree and the raw
// user query.
func renderPrompt(query string) (string, error) {
	categories, err := json.Marshal(siteCategories)
	if err != nil {
		return "", err
	}
	return parsePrompt.Format(map[string]any{
		"categories": string(categories),
		"query":      query,
	})
}
