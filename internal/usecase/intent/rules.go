package intent

import (
	"regexp"
	"strconv"
	"strings"

	"shop-agent/internal/domain/entity"
)

// categoryRule maps a request keyword to a storefront category path. Rules
// are ordered: the first keyword found in the text wins.
type categoryRule struct {
	keyword     string
	category    string
	subcategory string
}

var categoryRules = []categoryRule{
	{"phone", "/electronics", "/cell-phones"},
	{"mobile", "/electronics", "/cell-phones"},
	{"smartphone", "/electronics", "/cell-phones"},
	{"cellphone", "/electronics", "/cell-phones"},
	{"camera", "/electronics", "/camera-photo"},
	{"photo", "/electronics", "/camera-photo"},

	{"laptop", "/computers", "/notebooks"},
	{"notebook", "/computers", "/notebooks"},
	{"desktop", "/computers", "/desktops"},
	{"computer", "/computers", ""},
	{"software", "/computers", "/software"},

	{"shoes", "/apparel", "/shoes"},
	{"clothing", "/apparel", "/clothing"},
	{"clothes", "/apparel", "/clothing"},
	{"accessories", "/apparel", "/accessories"},

	{"book", "/books", ""},
	{"jewelry", "/jewelry", ""},
	{"jewellery", "/jewelry", ""},
	{"gift card", "/gift-cards", ""},
	{"digital", "/digital-downloads", ""},
}

var (
	belowRe   = regexp.MustCompile(`(?:under|below|less than|max)\s*\$?(\d+)`)
	aboveRe   = regexp.MustCompile(`(?:over|above|more than|minimum|min)\s*\$?(\d+)`)
	betweenRe = regexp.MustCompile(`(?:between|from)\s*\$?(\d+)\s*(?:and|to)\s*\$?(\d+)`)
	rangeRe   = regexp.MustCompile(`\$?(\d+)\s*-\s*\$?(\d+)`)

	emailRe    = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	passwordRe = regexp.MustCompile(`(?i)(?:password|pass|pwd)\s*(?:is|:|=)?\s*(\S+)`)
)

// ParseRules is the rule-based parser. It always succeeds: unknown requests
// come back as a plain search with the raw text as the query.
func ParseRules(text string) entity.Intent {
	lower := strings.ToLower(text)

	result := entity.Intent{
		Action:  entity.ActionSearch,
		Filters: entity.Filters{Query: text},
	}

	switch {
	case containsAny(lower, "checkout", "buy", "purchase", "order"):
		result.Action = entity.ActionCheckout
		result.Safe = true
	case containsAny(lower, "add to cart", "addtocart", "add cart", "add"):
		result.Action = entity.ActionAddToCart
	case containsAny(lower, "login", "log in", "sign in"):
		result.Action = entity.ActionLogin
	}

	for _, rule := range categoryRules {
		if strings.Contains(lower, rule.keyword) {
			result.Category = rule.category
			result.Subcategory = rule.subcategory
			break
		}
	}

	result.Filters.MinPrice, result.Filters.MaxPrice = extractPrices(lower)
	result.Credentials = ExtractCredentials(text)
	return result
}

// extractPrices recognizes three filter shapes: a ceiling ("under 20"), a
// floor ("over 800") and a range ("between 500 and 1000", "500-1000"). A
// range wins over single-bound matches.
func extractPrices(lower string) (minPrice, maxPrice *int) {
	below := belowRe.FindStringSubmatch(lower)
	if below != nil {
		maxPrice = atoiPtr(below[1])
	}
	if above := aboveRe.FindStringSubmatch(lower); above != nil && below == nil {
		minPrice = atoiPtr(above[1])
	}

	between := betweenRe.FindStringSubmatch(lower)
	if between != nil {
		minPrice = atoiPtr(between[1])
		maxPrice = atoiPtr(between[2])
	}
	if r := rangeRe.FindStringSubmatch(lower); r != nil && between == nil {
		minPrice = atoiPtr(r[1])
		maxPrice = atoiPtr(r[2])
	}
	return minPrice, maxPrice
}

// ExtractCredentials pulls an email and password out of free text. The
// password match is dropped when it just re-captures the email.
func ExtractCredentials(text string) entity.Credentials {
	var creds entity.Credentials
	if email := emailRe.FindString(text); email != "" {
		creds.Email = email
	}
	if m := passwordRe.FindStringSubmatch(text); m != nil && m[1] != creds.Email {
		creds.Password = strings.Trim(m[1], `"'`)
	}
	return creds
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
