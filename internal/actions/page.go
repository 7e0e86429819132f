package actions

import (
	"context"

	"github.com/ametel01/claw-browser-automation/internal/engine"
)

// ArtifactResult is returned by screenshot/pdf: the written file path, or
// empty when no artifact writer was configured.
type ArtifactResult struct {
	Path string
}

// Screenshot captures the page (or full scrollable document when fullPage)
// and writes it under the configured artifact directory.
func (c *Context) Screenshot(ctx context.Context, label string, fullPage bool, epochMs int64, opts engine.Options) engine.ActionResult[ArtifactResult] {
	return engine.ExecuteAction(ctx, c.Session, "screenshot", opts, func(ctx context.Context) (ArtifactResult, error) {
		data, err := c.Session.Page.Screenshot(ctx, fullPage)
		if err != nil {
			return ArtifactResult{}, err
		}
		if c.WriteArtifact == nil {
			return ArtifactResult{}, nil
		}
		path, err := c.WriteArtifact(c.Session.ID, epochMs, "screenshot", label, "png", data)
		if err != nil {
			return ArtifactResult{}, err
		}
		return ArtifactResult{Path: path}, nil
	})
}

// PDF renders the page to PDF and writes it under the configured artifact
// directory.
func (c *Context) PDF(ctx context.Context, label string, epochMs int64, opts engine.Options) engine.ActionResult[ArtifactResult] {
	return engine.ExecuteAction(ctx, c.Session, "pdf", opts, func(ctx context.Context) (ArtifactResult, error) {
		data, err := c.Session.Page.PDF(ctx)
		if err != nil {
			return ArtifactResult{}, err
		}
		if c.WriteArtifact == nil {
			return ArtifactResult{}, nil
		}
		path, err := c.WriteArtifact(c.Session.ID, epochMs, "pdf", label, "pdf", data)
		if err != nil {
			return ArtifactResult{}, err
		}
		return ArtifactResult{Path: path}, nil
	})
}

// Scroll scrolls the page by (dx, dy).
func (c *Context) Scroll(ctx context.Context, dx, dy float64, opts engine.Options) engine.ActionResult[struct{}] {
	return engine.ExecuteAction(ctx, c.Session, "scroll", opts, func(ctx context.Context) (struct{}, error) {
		if err := c.Session.Page.Scroll(ctx, dx, dy); err != nil {
			return struct{}{}, err
		}
		recordEvent(ctx)
		return struct{}{}, nil
	})
}

// PageState is the snapshot getPageState returns.
type PageState struct {
	URL         string
	Title       string
	ReadyState  string
	IsLoading   bool
}

const readyStateScript = `() => document.readyState`

// GetPageState reports the current URL, title, document.readyState, and a
// derived IsLoading flag (readyState != "complete").
func (c *Context) GetPageState(ctx context.Context, opts engine.Options) engine.ActionResult[PageState] {
	return engine.ExecuteAction(ctx, c.Session, "getPageState", opts, func(ctx context.Context) (PageState, error) {
		title, err := c.Session.Page.Title(ctx)
		if err != nil {
			return PageState{}, err
		}

		out, err := c.Session.Page.Evaluate(ctx, readyStateScript, nil)
		if err != nil {
			return PageState{}, err
		}
		readyState, _ := out.(string)
		if readyState == "" {
			readyState = "complete"
		}

		return PageState{
			URL:        c.Session.Page.URL(),
			Title:      title,
			ReadyState: readyState,
			IsLoading:  readyState != "complete",
		}, nil
	})
}
