// Package drivertest provides an in-memory fake implementing the
// internal/driver capability interfaces, so engine/selector/pool/handle
// logic can be exercised without a real browser. Modelled on the teacher's
// preference for in-memory fakes over mocks (see its MemoryApprovalStore).
package drivertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ametel01/claw-browser-automation/internal/driver"
)

// Node is a single fake DOM node. Tests build a tree of these and attach it
// to a Page via SetTree.
type Node struct {
	CSS      string
	Role     string
	Name     string
	Text     string
	Label    string
	TestID   string
	Attrs    map[string]string
	Visible  bool
	Attached bool
	Rect     driver.Rect
	Children []*Node

	clicks int
	typed  string
	mu     sync.Mutex
}

func NewNode(css string) *Node {
	return &Node{CSS: css, Attrs: map[string]string{}, Visible: true, Attached: true}
}

func (n *Node) Clicks() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.clicks
}

func (n *Node) TypedText() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.typed
}

// Engine is a fake driver.Engine that hands out in-memory browsers.
type Engine struct {
	mu      sync.Mutex
	Launches int
}

func NewEngine() *Engine { return &Engine{} }

func (e *Engine) Launch(ctx context.Context, opts driver.LaunchOptions) (driver.Browser, error) {
	e.mu.Lock()
	e.Launches++
	e.mu.Unlock()
	return &Browser{connected: true}, nil
}

func (e *Engine) Close() error { return nil }

// Browser is a fake driver.Browser.
type Browser struct {
	mu             sync.Mutex
	connected      bool
	closed         bool
	disconnectedH  func()
}

func (b *Browser) NewContext(ctx context.Context, opts driver.NewContextOptions) (driver.BrowserContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("browser closed")
	}
	return &Context{}, nil
}

func (b *Browser) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected && !b.closed
}

func (b *Browser) OnDisconnected(handler func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnectedH = handler
}

func (b *Browser) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.connected = false
	h := b.disconnectedH
	b.mu.Unlock()
	if h != nil {
		h()
	}
	return nil
}

// Disconnect simulates the browser process dying on its own, firing the
// registered OnDisconnected handler without going through Close.
func (b *Browser) Disconnect() {
	b.mu.Lock()
	b.connected = false
	h := b.disconnectedH
	b.mu.Unlock()
	if h != nil {
		h()
	}
}

// Context is a fake driver.BrowserContext.
type Context struct {
	mu      sync.Mutex
	pages   []*Page
	cookies []driver.Cookie
	closed  bool
}

func (c *Context) NewPage(ctx context.Context) (driver.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("context closed")
	}
	p := &Page{url: "about:blank"}
	c.pages = append(c.pages, p)
	return p, nil
}

func (c *Context) Pages() []driver.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]driver.Page, 0, len(c.pages))
	for _, p := range c.pages {
		out = append(out, p)
	}
	return out
}

func (c *Context) Cookies(ctx context.Context) ([]driver.Cookie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]driver.Cookie(nil), c.cookies...), nil
}

func (c *Context) AddCookies(ctx context.Context, cookies []driver.Cookie) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookies = append(c.cookies, cookies...)
	return nil
}

func (c *Context) ClearCookies(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookies = nil
	return nil
}

func (c *Context) StorageState(ctx context.Context) ([]byte, error) {
	return []byte(`{"cookies":[]}`), nil
}

func (c *Context) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Page is a fake driver.Page backed by a flat registry of Nodes, keyed by
// CSS selector for QuerySelector and filtered by field for the other
// lookup strategies.
type Page struct {
	mu          sync.Mutex
	url         string
	closed      bool
	nodes       []*Node
	dialogH     func(driver.Dialog)
	crashH      func()
	closeH      func()
	NavCalls    int
	Scrolls     [][2]float64
	Viewport    [2]int

	// EvalFunc, when set, backs Evaluate so tests can script readyState
	// probes and other evaluate-dependent behaviour.
	EvalFunc func(ctx context.Context, script string, arg any) (any, error)
}

func (p *Page) SetTree(nodes ...*Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes = nodes
}

func (p *Page) Goto(ctx context.Context, url string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.NavCalls++
	return nil
}

func (p *Page) Reload(ctx context.Context, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.NavCalls++
	return nil
}

func (p *Page) GoBack(ctx context.Context, timeout time.Duration) error    { return nil }
func (p *Page) GoForward(ctx context.Context, timeout time.Duration) error { return nil }

func (p *Page) WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error {
	return nil
}

func (p *Page) WaitForNavigation(ctx context.Context, timeout time.Duration) error { return nil }

func (p *Page) QuerySelector(ctx context.Context, cssSelector string) (driver.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.nodes {
		if n.CSS == cssSelector {
			return &element{n: n}, nil
		}
	}
	return nil, nil
}

func (p *Page) QuerySelectorAll(ctx context.Context, cssSelector string) ([]driver.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []driver.Element
	for _, n := range p.nodes {
		if n.CSS == cssSelector {
			out = append(out, &element{n: n})
		}
	}
	return out, nil
}

func (p *Page) QueryByRole(ctx context.Context, role string, name string) ([]driver.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []driver.Element
	for _, n := range p.nodes {
		if n.Role == role && (name == "" || n.Name == name) {
			out = append(out, &element{n: n})
		}
	}
	return out, nil
}

func (p *Page) QueryByText(ctx context.Context, text string, exact bool) ([]driver.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []driver.Element
	for _, n := range p.nodes {
		if n.Text == text {
			out = append(out, &element{n: n})
		}
	}
	return out, nil
}

func (p *Page) QueryByLabel(ctx context.Context, label string) ([]driver.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []driver.Element
	for _, n := range p.nodes {
		if n.Label == label {
			out = append(out, &element{n: n})
		}
	}
	return out, nil
}

func (p *Page) QueryByTestID(ctx context.Context, testID string) ([]driver.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []driver.Element
	for _, n := range p.nodes {
		if n.TestID == testID {
			out = append(out, &element{n: n})
		}
	}
	return out, nil
}

func (p *Page) QueryByXPath(ctx context.Context, expr string) ([]driver.Element, error) {
	return nil, fmt.Errorf("drivertest: xpath lookup not supported by fake page")
}

func (p *Page) Evaluate(ctx context.Context, script string, arg any) (any, error) {
	p.mu.Lock()
	fn := p.EvalFunc
	p.mu.Unlock()
	if fn != nil {
		return fn(ctx, script, arg)
	}
	return nil, nil
}

func (p *Page) Content(ctx context.Context) (string, error) { return "<html></html>", nil }

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Title(ctx context.Context) (string, error) { return "", nil }

func (p *Page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	return []byte("fake-png-bytes"), nil
}

func (p *Page) PDF(ctx context.Context) ([]byte, error) { return []byte("fake-pdf-bytes"), nil }

func (p *Page) SetViewportSize(ctx context.Context, width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Viewport = [2]int{width, height}
	return nil
}

func (p *Page) Scroll(ctx context.Context, dx, dy float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Scrolls = append(p.Scrolls, [2]float64{dx, dy})
	return nil
}

func (p *Page) OnDialog(handler func(driver.Dialog)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialogH = handler
}

func (p *Page) OnCrash(handler func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.crashH = handler
}

func (p *Page) OnClose(handler func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeH = handler
}

// Crash fires the registered crash handler, simulating a renderer crash.
func (p *Page) Crash() {
	p.mu.Lock()
	h := p.crashH
	p.mu.Unlock()
	if h != nil {
		h()
	}
}

func (p *Page) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	h := p.closeH
	p.mu.Unlock()
	if h != nil {
		h()
	}
	return nil
}

type element struct{ n *Node }

func (e *element) Click(ctx context.Context, opts driver.ClickOptions) error {
	e.n.mu.Lock()
	defer e.n.mu.Unlock()
	if !e.n.Attached {
		return fmt.Errorf("drivertest: element detached")
	}
	e.n.clicks++
	return nil
}

func (e *element) Fill(ctx context.Context, value string) error {
	e.n.mu.Lock()
	defer e.n.mu.Unlock()
	e.n.typed = value
	return nil
}

func (e *element) Type(ctx context.Context, text string, delayMs int) error {
	e.n.mu.Lock()
	defer e.n.mu.Unlock()
	e.n.typed += text
	return nil
}

func (e *element) Press(ctx context.Context, key string) error { return nil }
func (e *element) Hover(ctx context.Context) error              { return nil }

func (e *element) SelectOption(ctx context.Context, values []string) error { return nil }

func (e *element) SetChecked(ctx context.Context, checked bool) error { return nil }

func (e *element) TextContent(ctx context.Context) (string, error) {
	return e.n.Text, nil
}

func (e *element) InnerHTML(ctx context.Context) (string, error) { return "", nil }

func (e *element) GetAttribute(ctx context.Context, name string) (string, bool, error) {
	v, ok := e.n.Attrs[name]
	return v, ok, nil
}

func (e *element) BoundingBox(ctx context.Context) (driver.Rect, error) { return e.n.Rect, nil }

func (e *element) IsVisible(ctx context.Context) (bool, error) {
	if !e.n.Attached {
		return false, fmt.Errorf("drivertest: element detached")
	}
	return e.n.Visible, nil
}

func (e *element) IsAttached(ctx context.Context) (bool, error) { return e.n.Attached, nil }

func (e *element) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte("fake-element-png"), nil
}
