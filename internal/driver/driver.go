// Package driver defines the capability surface the rest of the runtime
// depends on, independent of any particular browser automation library.
// internal/driver/playwright implements it against
// github.com/playwright-community/playwright-go; internal/driver/drivertest
// implements it in-memory for unit tests that should not need a real browser.
package driver

import (
	"context"
	"time"
)

// Rect is an element's bounding box in viewport coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Element is a live reference to a single DOM node within a Page. Handles
// become stale when the underlying node is detached or replaced; IsAttached
// and IsVisible report current state without error on staleness.
type Element interface {
	Click(ctx context.Context, opts ClickOptions) error
	Fill(ctx context.Context, value string) error
	Type(ctx context.Context, text string, delayMs int) error
	Press(ctx context.Context, key string) error
	Hover(ctx context.Context) error
	SelectOption(ctx context.Context, values []string) error
	SetChecked(ctx context.Context, checked bool) error
	TextContent(ctx context.Context) (string, error)
	InnerHTML(ctx context.Context) (string, error)
	GetAttribute(ctx context.Context, name string) (string, bool, error)
	BoundingBox(ctx context.Context) (Rect, error)
	IsVisible(ctx context.Context) (bool, error)
	IsAttached(ctx context.Context) (bool, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// ClickOptions mirrors the subset of click modifiers the action layer needs.
type ClickOptions struct {
	Button     string // "left", "right", "middle"
	ClickCount int
	Force      bool
}

// Dialog represents a native browser dialog (alert/confirm/prompt/beforeunload).
type Dialog interface {
	Type() string
	Message() string
	Accept(ctx context.Context, promptText string) error
	Dismiss(ctx context.Context) error
}

// Page is the capability surface of a single browser tab.
type Page interface {
	Goto(ctx context.Context, url string, timeout time.Duration) error
	Reload(ctx context.Context, timeout time.Duration) error
	GoBack(ctx context.Context, timeout time.Duration) error
	GoForward(ctx context.Context, timeout time.Duration) error
	WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error
	WaitForNavigation(ctx context.Context, timeout time.Duration) error

	QuerySelector(ctx context.Context, cssSelector string) (Element, error)
	QuerySelectorAll(ctx context.Context, cssSelector string) ([]Element, error)
	QueryByRole(ctx context.Context, role string, name string) ([]Element, error)
	QueryByText(ctx context.Context, text string, exact bool) ([]Element, error)
	QueryByLabel(ctx context.Context, label string) ([]Element, error)
	QueryByTestID(ctx context.Context, testID string) ([]Element, error)
	QueryByXPath(ctx context.Context, expr string) ([]Element, error)

	Evaluate(ctx context.Context, script string, arg any) (any, error)
	Content(ctx context.Context) (string, error)
	URL() string
	Title(ctx context.Context) (string, error)

	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	PDF(ctx context.Context) ([]byte, error)
	SetViewportSize(ctx context.Context, width, height int) error
	Scroll(ctx context.Context, dx, dy float64) error

	OnDialog(handler func(Dialog))
	OnCrash(handler func())
	OnClose(handler func())
	IsClosed() bool
	Close(ctx context.Context) error
}

// BrowserContext groups pages that share cookies, storage, and permissions —
// the unit a BrowserSession wraps and that profile snapshots capture.
type BrowserContext interface {
	NewPage(ctx context.Context) (Page, error)
	Pages() []Page
	Cookies(ctx context.Context) ([]Cookie, error)
	AddCookies(ctx context.Context, cookies []Cookie) error
	ClearCookies(ctx context.Context) error
	StorageState(ctx context.Context) ([]byte, error)
	Close(ctx context.Context) error
}

// Cookie mirrors the fields the spec's session snapshot persists.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  float64
	HTTPOnly bool
	Secure   bool
	SameSite string
}

// Browser is a running browser process, capable of producing contexts.
type Browser interface {
	NewContext(ctx context.Context, opts NewContextOptions) (BrowserContext, error)
	IsConnected() bool
	// OnDisconnected registers a handler fired once when the underlying
	// browser process exits or its connection drops, whether that happens
	// because Close was called or because the process/connection died on
	// its own. Broadcasts a single browser-wide event, unlike the
	// per-session health probe in internal/pool, which only detects the
	// loss for whichever session happens to touch it next.
	OnDisconnected(handler func())
	Close(ctx context.Context) error
}

// NewContextOptions mirrors the subset of context-creation options the pool
// configures per launched instance.
type NewContextOptions struct {
	UserAgent         string
	ViewportWidth     int
	ViewportHeight    int
	StorageStateJSON  []byte
	AcceptDownloads   bool
	IgnoreHTTPSErrors bool
}

// LaunchOptions configures a new browser process or remote connection.
type LaunchOptions struct {
	Headless  bool
	RemoteURL string // when set, Connect is used instead of Launch
}

// Engine is the top-level factory the pool uses to obtain browsers. It
// models the playwright.Playwright driver handle without naming the library
// in the rest of the codebase.
type Engine interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
	Close() error
}
