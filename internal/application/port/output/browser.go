package output

import (
	"context"
	"errors"
	"time"

	"shop-agent/internal/domain/entity"
)

// ErrElementNotVisible is returned by waits that ran out of time before the
// element appeared. Callers use it to distinguish a missing marker from a
// protocol failure.
var ErrElementNotVisible = errors.New("element not visible")

// SessionConfig carries everything a factory needs to open one browser
// session. ProxyURL may be empty.
type SessionConfig struct {
	Headless    bool
	ProxyURL    string
	StoragePath string
}

// SessionFactory opens isolated browser sessions. Each workflow run gets its
// own session so state never leaks between tasks.
type SessionFactory interface {
	Open(ctx context.Context, cfg SessionConfig) (BrowserSession, error)
}

// ProductSelectors tells Products how to read a results grid.
type ProductSelectors struct {
	Item  string
	Title string
	Price string
	Link  string
}

// BrowserSession is one live page. All waits honor the given timeout and
// return ErrElementNotVisible (possibly wrapped) on expiry.
type BrowserSession interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Fill(ctx context.Context, selector, text string, timeout time.Duration) error
	Click(ctx context.Context, selector string, timeout time.Duration) error
	// Press sends a single key to the element, e.g. Enter to submit a form.
	Press(ctx context.Context, selector, key string, timeout time.Duration) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	WaitIdle(ctx context.Context, timeout time.Duration) error
	SetChecked(ctx context.Context, selector string, checked bool, timeout time.Duration) error
	Eval(ctx context.Context, js string) error

	// Count returns how many elements currently match the selector.
	Count(ctx context.Context, selector string) (int, error)
	// ClickChild clicks the child selector inside the i-th match of the
	// item selector.
	ClickChild(ctx context.Context, itemSelector string, index int, childSelector string, timeout time.Duration) error
	Products(ctx context.Context, sel ProductSelectors) ([]entity.ProductSnapshot, error)

	CurrentURL() string
	// Capture takes a screenshot and an HTML snapshot. Either half may
	// fail independently; the returned artifact records what succeeded.
	Capture(ctx context.Context, label string) (entity.Artifact, error)
	// HumanDelay sleeps a short randomized interval between interactions.
	HumanDelay()
	// PersistStorage writes the session cookies to the configured storage
	// path so later runs can resume authenticated.
	PersistStorage(ctx context.Context) error
	Close()
}
