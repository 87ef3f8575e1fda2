package stealth

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Provider creates pages with a given level of automation masking.
type Provider interface {
	Name() string
	NewPage(browser *rod.Browser) (*rod.Page, error)
}

const (
	ModeRod   = "rod"
	ModeBasic = "basic"
	ModeNoop  = "noop"
)

// FromMode picks a provider by name, defaulting to the full rod-stealth
// bundle for unknown values. "off" is accepted as an alias for noop.
func FromMode(mode string) Provider {
	switch mode {
	case ModeBasic:
		return basicProvider{}
	case ModeNoop, "off":
		return noopProvider{}
	default:
		return rodProvider{}
	}
}

type rodProvider struct{}

func (rodProvider) Name() string { return ModeRod }

func (rodProvider) NewPage(browser *rod.Browser) (*rod.Page, error) {
	page, err := stealth.Page(browser)
	if err != nil {
		return nil, err
	}
	// The stealth bundle covers most probes; the WebGL vendor spoof is not
	// part of it, so the extra evasions go on top.
	if _, err := page.EvalOnNewDocument(basicEvasions); err != nil {
		page.Close()
		return nil, err
	}
	return page, nil
}

type basicProvider struct{}

func (basicProvider) Name() string { return ModeBasic }

func (basicProvider) NewPage(browser *rod.Browser) (*rod.Page, error) {
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	if _, err := page.EvalOnNewDocument(basicEvasions); err != nil {
		page.Close()
		return nil, err
	}
	return page, nil
}

type noopProvider struct{}

func (noopProvider) Name() string { return ModeNoop }

func (noopProvider) NewPage(browser *rod.Browser) (*rod.Page, error) {
	return browser.Page(proto.TargetCreateTarget{})
}
