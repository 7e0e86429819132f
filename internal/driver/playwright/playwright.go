// Package playwright adapts github.com/playwright-community/playwright-go
// to the internal/driver capability interfaces. It is the only package that
// imports the playwright-go SDK directly; everything upstream of it talks to
// driver.Page/driver.Browser/driver.Engine instead.
package playwright

import (
	"context"
	"fmt"
	"strings"
	"time"

	pw "github.com/playwright-community/playwright-go"

	"github.com/ametel01/claw-browser-automation/internal/driver"
)

// Engine wraps a running playwright.Playwright driver process.
type Engine struct {
	pw *pw.Playwright
}

// NewEngine installs the playwright driver (if not already present) and
// starts the driver process. It is grounded on the install-then-run sequence
// used throughout the teacher's browser pool.
func NewEngine() (*Engine, error) {
	if err := pw.Install(&pw.RunOptions{Verbose: false}); err != nil {
		return nil, fmt.Errorf("install playwright driver: %w", err)
	}
	run, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright driver: %w", err)
	}
	return &Engine{pw: run}, nil
}

func (e *Engine) Launch(ctx context.Context, opts driver.LaunchOptions) (driver.Browser, error) {
	remote := normalizeRemoteURL(opts.RemoteURL)
	if remote != "" {
		b, err := e.pw.Chromium.Connect(remote)
		if err != nil {
			return nil, fmt.Errorf("connect to remote browser: %w", err)
		}
		return &browser{b: b}, nil
	}

	b, err := e.pw.Chromium.Launch(pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(opts.Headless),
	})
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	return &browser{b: b}, nil
}

func (e *Engine) Close() error {
	if e.pw == nil {
		return nil
	}
	return e.pw.Stop()
}

func normalizeRemoteURL(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") {
		return "ws://" + strings.TrimPrefix(value, "http://")
	}
	if strings.HasPrefix(value, "https://") {
		return "wss://" + strings.TrimPrefix(value, "https://")
	}
	return value
}

type browser struct{ b pw.Browser }

func (br *browser) NewContext(ctx context.Context, opts driver.NewContextOptions) (driver.BrowserContext, error) {
	contextOpts := pw.BrowserNewContextOptions{
		UserAgent: pw.String(opts.UserAgent),
		Viewport: &pw.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		AcceptDownloads:   pw.Bool(opts.AcceptDownloads),
		IgnoreHttpsErrors: pw.Bool(opts.IgnoreHTTPSErrors),
	}
	bc, err := br.b.NewContext(contextOpts)
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	return &browserContext{bc: bc}, nil
}

func (br *browser) IsConnected() bool { return br.b.IsConnected() }

func (br *browser) OnDisconnected(handler func()) {
	br.b.OnDisconnected(func(pw.Browser) { handler() })
}

func (br *browser) Close(ctx context.Context) error { return br.b.Close() }

type browserContext struct{ bc pw.BrowserContext }

func (c *browserContext) NewPage(ctx context.Context) (driver.Page, error) {
	p, err := c.bc.NewPage()
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &page{p: p}, nil
}

func (c *browserContext) Pages() []driver.Page {
	pages := c.bc.Pages()
	out := make([]driver.Page, 0, len(pages))
	for _, p := range pages {
		out = append(out, &page{p: p})
	}
	return out
}

func (c *browserContext) Cookies(ctx context.Context) ([]driver.Cookie, error) {
	cookies, err := c.bc.Cookies()
	if err != nil {
		return nil, fmt.Errorf("list cookies: %w", err)
	}
	out := make([]driver.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		out = append(out, driver.Cookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Domain:   ck.Domain,
			Path:     ck.Path,
			Expires:  ck.Expires,
			HTTPOnly: ck.HttpOnly,
			Secure:   ck.Secure,
			SameSite: string(ck.SameSite),
		})
	}
	return out, nil
}

func (c *browserContext) AddCookies(ctx context.Context, cookies []driver.Cookie) error {
	opts := make([]pw.OptionalCookie, 0, len(cookies))
	for _, ck := range cookies {
		opts = append(opts, pw.OptionalCookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Domain:   pw.String(ck.Domain),
			Path:     pw.String(ck.Path),
			Expires:  pw.Float(ck.Expires),
			HttpOnly: pw.Bool(ck.HTTPOnly),
			Secure:   pw.Bool(ck.Secure),
		})
	}
	return c.bc.AddCookies(opts)
}

func (c *browserContext) ClearCookies(ctx context.Context) error { return c.bc.ClearCookies() }

func (c *browserContext) StorageState(ctx context.Context) ([]byte, error) {
	return nil, fmt.Errorf("storage state capture not wired to playwright-go's file-path API")
}

func (c *browserContext) Close(ctx context.Context) error { return c.bc.Close() }

type page struct{ p pw.Page }

func (p *page) Goto(ctx context.Context, url string, timeout time.Duration) error {
	_, err := p.p.Goto(url, pw.PageGotoOptions{Timeout: pw.Float(float64(timeout.Milliseconds()))})
	return err
}

func (p *page) Reload(ctx context.Context, timeout time.Duration) error {
	_, err := p.p.Reload(pw.PageReloadOptions{Timeout: pw.Float(float64(timeout.Milliseconds()))})
	return err
}

func (p *page) GoBack(ctx context.Context, timeout time.Duration) error {
	_, err := p.p.GoBack(pw.PageGoBackOptions{Timeout: pw.Float(float64(timeout.Milliseconds()))})
	return err
}

func (p *page) GoForward(ctx context.Context, timeout time.Duration) error {
	_, err := p.p.GoForward(pw.PageGoForwardOptions{Timeout: pw.Float(float64(timeout.Milliseconds()))})
	return err
}

func (p *page) WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error {
	return p.p.WaitForLoadState(pw.PageWaitForLoadStateOptions{
		State:   pw.WaitForLoadStateState(state),
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
}

func (p *page) WaitForNavigation(ctx context.Context, timeout time.Duration) error {
	return p.p.WaitForURL("**/*", pw.PageWaitForURLOptions{Timeout: pw.Float(float64(timeout.Milliseconds()))})
}

func (p *page) QuerySelector(ctx context.Context, cssSelector string) (driver.Element, error) {
	el, err := p.p.QuerySelector(cssSelector)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, nil
	}
	return &element{el: el}, nil
}

func (p *page) QuerySelectorAll(ctx context.Context, cssSelector string) ([]driver.Element, error) {
	els, err := p.p.QuerySelectorAll(cssSelector)
	if err != nil {
		return nil, err
	}
	return wrapElements(els), nil
}

func (p *page) QueryByRole(ctx context.Context, role string, name string) ([]driver.Element, error) {
	loc := p.p.GetByRole(pw.AriaRole(role), pw.PageGetByRoleOptions{Name: pw.String(name)})
	return locatorElements(loc)
}

func (p *page) QueryByText(ctx context.Context, text string, exact bool) ([]driver.Element, error) {
	loc := p.p.GetByText(text, pw.PageGetByTextOptions{Exact: pw.Bool(exact)})
	return locatorElements(loc)
}

func (p *page) QueryByLabel(ctx context.Context, label string) ([]driver.Element, error) {
	loc := p.p.GetByLabel(label, pw.PageGetByLabelOptions{})
	return locatorElements(loc)
}

func (p *page) QueryByTestID(ctx context.Context, testID string) ([]driver.Element, error) {
	loc := p.p.GetByTestId(testID)
	return locatorElements(loc)
}

func (p *page) QueryByXPath(ctx context.Context, expr string) ([]driver.Element, error) {
	if !strings.HasPrefix(expr, "xpath=") {
		expr = "xpath=" + expr
	}
	els, err := p.p.QuerySelectorAll(expr)
	if err != nil {
		return nil, err
	}
	return wrapElements(els), nil
}

func (p *page) Evaluate(ctx context.Context, script string, arg any) (any, error) {
	return p.p.Evaluate(script, arg)
}

func (p *page) Content(ctx context.Context) (string, error) { return p.p.Content() }

func (p *page) URL() string { return p.p.URL() }

func (p *page) Title(ctx context.Context) (string, error) { return p.p.Title() }

func (p *page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	return p.p.Screenshot(pw.PageScreenshotOptions{FullPage: pw.Bool(fullPage)})
}

func (p *page) PDF(ctx context.Context) ([]byte, error) { return p.p.PDF() }

func (p *page) SetViewportSize(ctx context.Context, width, height int) error {
	return p.p.SetViewportSize(width, height)
}

func (p *page) Scroll(ctx context.Context, dx, dy float64) error {
	_, err := p.p.Evaluate(`([dx, dy]) => window.scrollBy(dx, dy)`, []float64{dx, dy})
	return err
}

func (p *page) OnDialog(handler func(driver.Dialog)) {
	p.p.OnDialog(func(d pw.Dialog) {
		handler(&dialog{d: d})
	})
}

func (p *page) OnCrash(handler func()) {
	p.p.OnCrash(func(pw.Page) { handler() })
}

func (p *page) OnClose(handler func()) {
	p.p.OnClose(func(pw.Page) { handler() })
}

func (p *page) IsClosed() bool { return p.p.IsClosed() }

func (p *page) Close(ctx context.Context) error { return p.p.Close() }

type dialog struct{ d pw.Dialog }

func (d *dialog) Type() string    { return d.d.Type() }
func (d *dialog) Message() string { return d.d.Message() }
func (d *dialog) Accept(ctx context.Context, promptText string) error {
	return d.d.Accept(promptText)
}
func (d *dialog) Dismiss(ctx context.Context) error { return d.d.Dismiss() }

type element struct{ el pw.ElementHandle }

func (e *element) Click(ctx context.Context, opts driver.ClickOptions) error {
	clickOpts := pw.ElementHandleClickOptions{Force: pw.Bool(opts.Force)}
	if opts.Button != "" {
		clickOpts.Button = pw.MouseButton(opts.Button)
	}
	if opts.ClickCount > 0 {
		clickOpts.ClickCount = pw.Int(opts.ClickCount)
	}
	return e.el.Click(clickOpts)
}

func (e *element) Fill(ctx context.Context, value string) error { return e.el.Fill(value) }

func (e *element) Type(ctx context.Context, text string, delayMs int) error {
	return e.el.Type(text, pw.ElementHandleTypeOptions{Delay: pw.Float(float64(delayMs))})
}

func (e *element) Press(ctx context.Context, key string) error { return e.el.Press(key) }

func (e *element) Hover(ctx context.Context) error { return e.el.Hover() }

func (e *element) SelectOption(ctx context.Context, values []string) error {
	selected := append([]string(nil), values...)
	_, err := e.el.SelectOption(pw.SelectOptionValues{Values: &selected})
	return err
}

func (e *element) SetChecked(ctx context.Context, checked bool) error {
	return e.el.SetChecked(checked)
}

func (e *element) TextContent(ctx context.Context) (string, error) {
	s, err := e.el.TextContent()
	return s, err
}

func (e *element) InnerHTML(ctx context.Context) (string, error) { return e.el.InnerHTML() }

func (e *element) GetAttribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.GetAttribute(name)
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

func (e *element) BoundingBox(ctx context.Context) (driver.Rect, error) {
	box, err := e.el.BoundingBox()
	if err != nil || box == nil {
		return driver.Rect{}, err
	}
	return driver.Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}, nil
}

func (e *element) IsVisible(ctx context.Context) (bool, error) { return e.el.IsVisible() }

func (e *element) IsAttached(ctx context.Context) (bool, error) {
	// A stale/detached handle errors on any property probe; visibility
	// itself is irrelevant here, only whether the probe succeeded at all.
	if _, err := e.el.IsVisible(); err != nil {
		return false, nil
	}
	return true, nil
}

func (e *element) Screenshot(ctx context.Context) ([]byte, error) {
	return e.el.Screenshot()
}

func wrapElements(els []pw.ElementHandle) []driver.Element {
	out := make([]driver.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{el: el})
	}
	return out
}

func locatorElements(loc pw.Locator) ([]driver.Element, error) {
	count, err := loc.Count()
	if err != nil {
		return nil, err
	}
	out := make([]driver.Element, 0, count)
	for i := 0; i < count; i++ {
		el, err := loc.Nth(i).ElementHandle()
		if err != nil {
			continue
		}
		out = append(out, &element{el: el})
	}
	return out, nil
}
