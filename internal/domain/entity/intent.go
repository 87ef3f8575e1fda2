package entity

type Action string

const (
	ActionSearch    Action = "search"
	ActionAddToCart Action = "add_to_cart"
	ActionCheckout  Action = "checkout"
	ActionLogin     Action = "login"
)

func (a Action) Valid() bool {
	switch a {
	case ActionSearch, ActionAddToCart, ActionCheckout, ActionLogin:
		return true
	}
	return false
}

// NeedsSearch reports whether the action requires the search phase.
func (a Action) NeedsSearch() bool {
	return a == ActionSearch || a == ActionAddToCart || a == ActionCheckout
}

func (a Action) NeedsCart() bool {
	return a == ActionAddToCart || a == ActionCheckout
}

func (a Action) NeedsCheckout() bool {
	return a == ActionCheckout
}

type Filters struct {
	MinPrice *int   `json:"min_price"`
	MaxPrice *int   `json:"max_price"`
	Query    string `json:"query"`
}

type Credentials struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Intent is the structured form of a shopping request. It is immutable once
// submitted to a workflow run.
type Intent struct {
	Action      Action      `json:"action"`
	Category    string      `json:"category,omitempty"`
	Subcategory string      `json:"subcategory,omitempty"`
	Filters     Filters     `json:"filters"`
	Credentials Credentials `json:"credentials"`
	UserID      int         `json:"user_id,omitempty"`

	// Safe marks intents that spend money and therefore need an explicit
	// confirmation before they are queued.
	Safe bool `json:"safe,omitempty"`
}

func (i Intent) HasPriceFilter() bool {
	return i.Filters.MinPrice != nil || i.Filters.MaxPrice != nil
}
