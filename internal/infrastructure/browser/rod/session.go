package rod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
	"shop-agent/internal/infrastructure/artifacts"
	"shop-agent/internal/infrastructure/stealth"
)

var _ output.SessionFactory = (*Factory)(nil)
var _ output.BrowserSession = (*Session)(nil)

const (
	humanDelayMin = 150 * time.Millisecond
	humanDelayMax = 450 * time.Millisecond
)

// Factory launches one Chromium instance per session. Sessions share nothing:
// each gets its own launcher, browser and page.
type Factory struct {
	stealth stealth.Provider
	store   *artifacts.Store
	logger  output.LoggerPort
}

func NewFactory(provider stealth.Provider, store *artifacts.Store, logger output.LoggerPort) *Factory {
	return &Factory{stealth: provider, store: store, logger: logger}
}

func (f *Factory) Open(ctx context.Context, cfg output.SessionConfig) (output.BrowserSession, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(true).
		Delete("use-mock-keychain").
		Set("disable-setuid-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled")

	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}

	if cfg.StoragePath != "" {
		if err := restoreCookies(browser, cfg.StoragePath); err != nil {
			f.logger.Warn("cookie restore failed", "path", cfg.StoragePath, "error", err)
		}
	}

	page, err := f.stealth.NewPage(browser)
	if err != nil {
		browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	f.logger.Info("browser session opened",
		"headless", cfg.Headless,
		"stealth", f.stealth.Name(),
		"proxy", cfg.ProxyURL != "")

	return &Session{
		browser:     browser,
		launcher:    l,
		page:        page,
		store:       f.store,
		logger:      f.logger,
		storagePath: cfg.StoragePath,
	}, nil
}

type Session struct {
	browser     *rod.Browser
	launcher    *launcher.Launcher
	page        *rod.Page
	store       *artifacts.Store
	logger      output.LoggerPort
	storagePath string
}

func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	page := s.page.Context(ctx).Timeout(timeout)
	if err := page.Navigate(url); err != nil {
		return output.NewStepError("navigate", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return output.NewStepError("wait load", url, err)
	}
	return nil
}

func (s *Session) Fill(ctx context.Context, selector, text string, timeout time.Duration) error {
	el, err := s.element(ctx, selector, timeout)
	if err != nil {
		return visibilityError("fill", selector, err)
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return output.NewStepError("fill", selector, err)
	}
	return nil
}

func (s *Session) Click(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := s.element(ctx, selector, timeout)
	if err != nil {
		return visibilityError("click", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return output.NewStepError("click", selector, err)
	}
	return nil
}

func (s *Session) Press(ctx context.Context, selector, key string, timeout time.Duration) error {
	el, err := s.element(ctx, selector, timeout)
	if err != nil {
		return visibilityError("press", selector, err)
	}
	if err := el.Type(keyFor(key)); err != nil {
		return output.NewStepError("press", selector, err)
	}
	return nil
}

func keyFor(name string) input.Key {
	switch name {
	case "Enter":
		return input.Enter
	case "Tab":
		return input.Tab
	case "Escape":
		return input.Escape
	default:
		if len(name) == 1 {
			return input.Key(name[0])
		}
		return input.Enter
	}
}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := s.element(ctx, selector, timeout)
	if err != nil {
		return visibilityError("wait visible", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return visibilityError("wait visible", selector, err)
	}
	return nil
}

func (s *Session) WaitIdle(ctx context.Context, timeout time.Duration) error {
	if err := s.page.Context(ctx).WaitIdle(timeout); err != nil {
		return output.NewStepError("wait idle", "", err)
	}
	return nil
}

func (s *Session) SetChecked(ctx context.Context, selector string, checked bool, timeout time.Duration) error {
	el, err := s.element(ctx, selector, timeout)
	if err != nil {
		return visibilityError("set checked", selector, err)
	}
	prop, err := el.Property("checked")
	if err != nil {
		return output.NewStepError("set checked", selector, err)
	}
	if prop.Bool() != checked {
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return output.NewStepError("set checked", selector, err)
		}
	}
	return nil
}

func (s *Session) Eval(ctx context.Context, js string) error {
	if _, err := s.page.Context(ctx).Eval(js); err != nil {
		return output.NewStepError("eval", "", err)
	}
	return nil
}

func (s *Session) Count(ctx context.Context, selector string) (int, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return 0, output.NewStepError("count", selector, err)
	}
	return len(els), nil
}

func (s *Session) ClickChild(ctx context.Context, itemSelector string, index int, childSelector string, timeout time.Duration) error {
	els, err := s.page.Context(ctx).Elements(itemSelector)
	if err != nil {
		return output.NewStepError("click child", itemSelector, err)
	}
	if index < 0 || index >= len(els) {
		return output.NewStepError("click child", itemSelector,
			fmt.Errorf("index %d out of range (%d items)", index, len(els)))
	}
	child, err := els[index].Timeout(timeout).Element(childSelector)
	if err != nil {
		return visibilityError("click child", childSelector, err)
	}
	if err := child.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return output.NewStepError("click child", childSelector, err)
	}
	return nil
}

func (s *Session) CurrentURL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (s *Session) Capture(ctx context.Context, label string) (entity.Artifact, error) {
	var screenshot []byte
	bin, err := s.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		s.logger.Warn("screenshot capture failed", "label", label, "error", err)
	} else {
		screenshot = bin
	}

	htmlStr, err := s.page.Context(ctx).HTML()
	if err != nil {
		s.logger.Warn("html capture failed", "label", label, "error", err)
		htmlStr = ""
	}

	return s.store.Save(label, screenshot, htmlStr), nil
}

func (s *Session) HumanDelay() {
	span := humanDelayMax - humanDelayMin
	time.Sleep(humanDelayMin + time.Duration(rand.Int63n(int64(span))))
}

func (s *Session) PersistStorage(ctx context.Context) error {
	if s.storagePath == "" {
		return nil
	}
	cookies, err := s.browser.GetCookies()
	if err != nil {
		return fmt.Errorf("get cookies: %w", err)
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}
	if err := os.WriteFile(s.storagePath, data, 0600); err != nil {
		return fmt.Errorf("write storage: %w", err)
	}
	return nil
}

func (s *Session) Close() {
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
}

func (s *Session) element(ctx context.Context, selector string, timeout time.Duration) (*rod.Element, error) {
	return s.page.Context(ctx).Timeout(timeout).Element(selector)
}

// visibilityError folds element-lookup timeouts into ErrElementNotVisible so
// callers can treat "never appeared" uniformly.
func visibilityError(op, sel string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", output.ErrElementNotVisible, err)
	}
	return output.NewStepError(op, sel, err)
}

func restoreCookies(browser *rod.Browser, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var cookies []*proto.NetworkCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("parse storage: %w", err)
	}
	return browser.SetCookies(proto.CookiesToParams(cookies))
}
