package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"shop-agent/internal/application/port/input"
	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
)

var _ input.IntentParser = (*Parser)(nil)

// Parser combines LLM-assisted parsing with a rule-based fallback. The rules
// always run first; the LLM refines action, category and filters when it is
// configured and returns usable JSON. Credentials come exclusively from the
// local regex pass, never from the model output.
type Parser struct {
	llm    output.LLMPort
	logger output.LoggerPort
}

func NewParser(llm output.LLMPort, logger output.LoggerPort) *Parser {
	return &Parser{llm: llm, logger: logger}
}

func (p *Parser) Parse(ctx context.Context, text string) (entity.Intent, error) {
	result := ParseRules(text)

	if p.llm == nil {
		return result, nil
	}

	refined, err := p.parseWithLLM(ctx, text)
	if err != nil {
		p.logger.Warn("llm parse failed, using rule result", "error", err)
		return result, nil
	}

	if refined.Action.Valid() {
		result.Action = refined.Action
	}
	if refined.Category != "" {
		result.Category = refined.Category
		result.Subcategory = refined.Subcategory
	}
	if refined.Filters.MinPrice != nil {
		result.Filters.MinPrice = refined.Filters.MinPrice
	}
	if refined.Filters.MaxPrice != nil {
		result.Filters.MaxPrice = refined.Filters.MaxPrice
	}
	if q := strings.TrimSpace(refined.Filters.Query); q != "" {
		result.Filters.Query = q
	}
	result.Safe = result.Safe || result.Action == entity.ActionCheckout

	return result, nil
}

// wireIntent mirrors the JSON shape the parse prompt asks for.
type wireIntent struct {
	Action      string `json:"action"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Filters     struct {
		MinPrice *int   `json:"min_price"`
		MaxPrice *int   `json:"max_price"`
		Query    string `json:"query"`
	} `json:"filters"`
	Safe bool `json:"safe"`
}

func (p *Parser) parseWithLLM(ctx context.Context, text string) (entity.Intent, error) {
	prompt, err := renderPrompt(text)
	if err != nil {
		return entity.Intent{}, fmt.Errorf("render prompt: %w", err)
	}

	resp, err := p.llm.Chat(ctx, output.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleUser, Content: prompt},
		},
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return entity.Intent{}, err
	}

	jsonText := extractJSON(resp.Message.Content)
	var wire wireIntent
	if err := json.Unmarshal([]byte(jsonText), &wire); err != nil {
		// Some models emit single-quoted pseudo-JSON despite JSON mode.
		relaxed := strings.ReplaceAll(jsonText, "'", `"`)
		if json.Unmarshal([]byte(relaxed), &wire) != nil {
			return entity.Intent{}, fmt.Errorf("model output is not valid JSON: %w", err)
		}
	}

	return entity.Intent{
		Action:      entity.Action(wire.Action),
		Category:    wire.Category,
		Subcategory: wire.Subcategory,
		Filters: entity.Filters{
			MinPrice: wire.Filters.MinPrice,
			MaxPrice: wire.Filters.MaxPrice,
			Query:    wire.Filters.Query,
		},
		Safe: wire.Safe,
	}, nil
}

// extractJSON cuts the first balanced-looking JSON object out of a model
// reply that may carry prose around it.
func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	i := strings.Index(s, "{")
	j := strings.LastIndex(s, "}")
	if i != -1 && j > i {
		return s[i : j+1]
	}
	return s
}
