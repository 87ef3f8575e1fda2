package userinteraction

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

type ConsoleUserInteraction struct {
	reader *bufio.Reader
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		reader: bufio.NewReader(os.Stdin),
	}
}

func (u *ConsoleUserInteraction) Confirm(ctx context.Context, prompt string) (bool, error) {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("\n[CONFIRMATION REQUIRED] %s\n", prompt)
	fmt.Print("Proceed? [y/N] > ")

	answer, err := u.reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func (u *ConsoleUserInteraction) ShowIntent(ctx context.Context, intent entity.Intent) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("\n━━━ Plan: %s ━━━\n", intent.Action)

	dim := color.New(color.Faint)
	if intent.Category != "" {
		dim.Printf("   category: %s%s\n", intent.Category, intent.Subcategory)
	}
	if intent.Filters.Query != "" {
		dim.Printf("   query: %s\n", truncate(intent.Filters.Query, 80))
	}
	if intent.Filters.MinPrice != nil || intent.Filters.MaxPrice != nil {
		dim.Printf("   price: %s\n", priceRange(intent.Filters))
	}
	if intent.Credentials.Email != "" {
		dim.Printf("   account: %s\n", intent.Credentials.Email)
	}
}

func (u *ConsoleUserInteraction) ShowPhase(ctx context.Context, phase entity.Phase, substatus string) {
	icon := phaseIcon(phase)
	if substatus == "ok" || substatus == "added" || substatus == "completed" {
		green := color.New(color.FgGreen)
		green.Printf("%s %s: %s\n", icon, phase, substatus)
		return
	}
	yellow := color.New(color.FgYellow)
	yellow.Printf("%s %s: %s\n", icon, phase, substatus)
}

func (u *ConsoleUserInteraction) ShowResult(ctx context.Context, result *entity.WorkflowResult) {
	fmt.Println()
	switch result.Status {
	case entity.StatusOK:
		green := color.New(color.FgGreen, color.Bold)
		green.Println("✓ Workflow completed")
	case entity.StatusLoginFailed:
		red := color.New(color.FgRed, color.Bold)
		red.Println("✗ Login failed, run aborted")
	case entity.StatusNoItems:
		yellow := color.New(color.FgYellow, color.Bold)
		yellow.Println("— No matching products found")
	case entity.StatusFailedAdd:
		yellow := color.New(color.FgYellow, color.Bold)
		yellow.Println("— Nothing could be added to the cart")
	default:
		red := color.New(color.FgRed, color.Bold)
		red.Printf("✗ Workflow error: %s\n", truncate(result.Message, 200))
	}

	dim := color.New(color.Faint)
	dim.Printf("   screenshots: %d\n", result.TotalScreenshots)
	for _, phase := range []entity.Phase{entity.PhaseLogin, entity.PhaseSearch, entity.PhaseCart, entity.PhaseCheckout} {
		if sub, ok := result.PhaseResults[phase]; ok {
			dim.Printf("   %-8s %s\n", phase, sub)
		}
	}
	for _, a := range result.Artifacts {
		if a.ScreenshotPath != "" {
			dim.Printf("   %s\n", a.ScreenshotPath)
		}
	}
}

func phaseIcon(phase entity.Phase) string {
	switch phase {
	case entity.PhaseLogin:
		return "🔐"
	case entity.PhaseSearch:
		return "🔎"
	case entity.PhaseCart:
		return "🛒"
	case entity.PhaseCheckout:
		return "💳"
	}
	return "•"
}

func priceRange(f entity.Filters) string {
	switch {
	case f.MinPrice != nil && f.MaxPrice != nil:
		return fmt.Sprintf("$%d - $%d", *f.MinPrice, *f.MaxPrice)
	case f.MaxPrice != nil:
		return fmt.Sprintf("under $%d", *f.MaxPrice)
	case f.MinPrice != nil:
		return fmt.Sprintf("over $%d", *f.MinPrice)
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
