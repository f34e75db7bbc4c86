package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"

	appLog "dtpicker/internal/log"
	"dtpicker/internal/placement"
)

// Default capture parameters: a laptop-sized viewport.
const (
	DefaultWidth      = 1280
	DefaultHeight     = 800
	DefaultTimeoutSec = 30
)

// CaptureOptions defines parameters for a Chromium-based popover capture.
type CaptureOptions struct {
	// URL of a page served by `dtpicker serve`, e.g. "http://127.0.0.1:8080/".
	URL string

	// Anchor is the id of the input whose popover is opened.
	Anchor string

	// OutputPath is where the PNG screenshot will be written. Empty means
	// measure only.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero, a sane default
	// (DefaultTimeoutSec) is used.
	Timeout time.Duration
}

// Result is what the browser saw after opening the popover.
type Result struct {
	Geometry placement.Geometry
	// Placement is what Place computes for Geometry; it should agree with
	// the position-top/bottom class the page rendered.
	Placement placement.Placement
	// Vertical is the side the rendered popover actually opened on.
	Vertical placement.Vertical
}

func (o CaptureOptions) normalize() (CaptureOptions, error) {
	if o.URL == "" {
		return o, errors.New("capture: URL is required")
	}
	if o.Anchor == "" {
		return o, errors.New("capture: Anchor is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return o, nil
}

// measured is the JSON shape returned by measureScript.
type measured struct {
	Geometry placement.Geometry `json:"geometry"`
	Top      bool               `json:"top"`
}

// measureScript returns JS that reads the anchor, popover and viewport
// rectangles the same way the page script reports them.
func measureScript(anchor string) string {
	id, _ := json.Marshal(anchor)
	return fmt.Sprintf(`(() => {
  const input = document.getElementById(%s);
  const modal = input.parentElement.querySelector('.picker-modal');
  const r = (el) => { const b = el.getBoundingClientRect(); return {top: b.top, left: b.left, width: b.width, height: b.height}; };
  return {
    geometry: {anchor: r(input), popover: r(modal), viewport: {width: window.innerWidth, height: window.innerHeight}},
    top: modal.classList.contains('position-top'),
  };
})()`, id)
}

// CapturePopover launches a headless Chromium instance via chromedp,
// navigates to opts.URL, clicks the anchor input and waits for the popover
// to signal readiness:
//
//	<div class="picker-modal active" data-ready="true" ...>
//
// It then measures the page geometry and, when OutputPath is set, writes a
// PNG screenshot of the viewport.
func CapturePopover(parentCtx context.Context, opts CaptureOptions) (Result, error) {
	opts, err := opts.normalize()
	if err != nil {
		return Result{}, err
	}

	// Create a new chromedp context.
	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	// Apply timeout to the entire capture sequence.
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var (
		m   measured
		png []byte
	)
	anchorSel := "#" + opts.Anchor
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(anchorSel, chromedp.ByID),
		chromedp.Click(anchorSel, chromedp.ByID),
		chromedp.WaitVisible(`.picker-modal.active[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow the post-open reposition round trip.
		chromedp.Sleep(300 * time.Millisecond),
		chromedp.Evaluate(measureScript(opts.Anchor), &m),
	}
	if opts.OutputPath != "" {
		tasks = append(tasks, chromedp.CaptureScreenshot(&png))
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return Result{}, fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	res := Result{
		Geometry:  m.Geometry,
		Placement: placement.Place(m.Geometry),
		Vertical:  placement.Bottom,
	}
	if m.Top {
		res.Vertical = placement.Top
	}

	if opts.OutputPath != "" {
		if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
			return res, fmt.Errorf("capture: failed to write PNG: %w", err)
		}
	}

	appLog.Info("capture: popover measured",
		"anchor", opts.Anchor,
		"vertical", string(res.Vertical),
		"expected", string(res.Placement.Vertical),
		"left_offset", res.Placement.LeftOffset,
	)
	return res, nil
}
