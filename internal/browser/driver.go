// File: internal/browser/driver.go

// Package browser implements the PageDriver interface over a headless Chrome
// instance driven through the DevTools protocol. All DOM queries run as
// injected JavaScript so the engine sees one consistent element-indexing
// scheme: QuerySelectorAll tags every match with a data attribute, and the
// node-addressed methods resolve elements through that tag.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/api/schemas"
	"github.com/seekwell-dev/seekwell/internal/config"
)

// indexAttr is the attribute QuerySelectorAll stamps on matched nodes so
// later node-addressed calls can find them again.
const indexAttr = "data-swq-index"

// ChromeDriver drives one Chrome tab. It is not safe for concurrent use; the
// engine runs commands sequentially by construction.
type ChromeDriver struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	cfg    config.BrowserConfig
	logger *zap.Logger
}

var _ schemas.PageDriver = (*ChromeDriver)(nil)

// NewChromeDriver launches the browser and opens a tab. Close must be called
// to tear the process down.
func NewChromeDriver(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*ChromeDriver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	for _, arg := range cfg.Args {
		name, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if found {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	d := &ChromeDriver{cfg: cfg, logger: logger.Named("browser")}
	d.allocCtx, d.allocCancel = chromedp.NewExecAllocator(parent, opts...)
	d.browserCtx, d.browserCancel = chromedp.NewContext(d.allocCtx,
		chromedp.WithLogf(d.logger.Sugar().Debugf))

	// Eagerly start the browser and pin a deterministic viewport so scroll
	// math is reproducible across environments.
	err := chromedp.Run(d.browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return emulation.SetDeviceMetricsOverride(1366, 900, 1, false).Do(ctx)
	}))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	d.logger.Info("Browser launched", zap.Bool("headless", cfg.Headless))
	return d, nil
}

// Close tears down the tab and the browser process.
func (d *ChromeDriver) Close() {
	if d.browserCancel != nil {
		d.browserCancel()
	}
	if d.allocCancel != nil {
		d.allocCancel()
	}
}

// run executes chromedp actions on the browser context while honoring the
// caller's cancellation.
func (d *ChromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// NavigateTo loads the URL and waits for the document body to be ready.
func (d *ChromeDriver) NavigateTo(ctx context.Context, url string) error {
	timeout := d.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	d.logger.Debug("Navigating", zap.String("url", url))
	if err := d.run(navCtx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// GoBack navigates one entry back in the tab history.
func (d *ChromeDriver) GoBack(ctx context.Context) error {
	if err := d.run(ctx, chromedp.NavigateBack()); err != nil {
		return fmt.Errorf("history navigation failed: %w", err)
	}
	return nil
}

// ClickSelector clicks and focuses the first match. A missing element is
// (false, nil); the caller decides whether absence is fatal.
func (d *ChromeDriver) ClickSelector(ctx context.Context, sel string) (bool, error) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.scrollIntoView({block: 'center'});
		if (el.focus) el.focus();
		el.click();
		return true;
	})()`, sel)

	var clicked bool
	if err := d.run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return false, fmt.Errorf("click on %q failed: %w", sel, err)
	}
	return clicked, nil
}

// SelectDropdownOption picks an option on a select element, matching by text
// or value when text is given, by index otherwise.
func (d *ChromeDriver) SelectDropdownOption(ctx context.Context, sel string, index int, text string) error {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el || !el.options) return false;
		let idx = %d;
		const want = %q;
		if (want !== '') {
			idx = -1;
			for (let i = 0; i < el.options.length; i++) {
				const opt = el.options[i];
				if (opt.text.trim() === want || opt.value === want) { idx = i; break; }
			}
		}
		if (idx < 0 || idx >= el.options.length) return false;
		el.selectedIndex = idx;
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, sel, index, text)

	var ok bool
	if err := d.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return fmt.Errorf("select on %q failed: %w", sel, err)
	}
	if !ok {
		return fmt.Errorf("no matching option on %q (index=%d text=%q)", sel, index, text)
	}
	return nil
}

// SendKeys types into the currently focused element.
func (d *ChromeDriver) SendKeys(ctx context.Context, keys string) error {
	if err := d.run(ctx, chromedp.KeyEvent(keys)); err != nil {
		return fmt.Errorf("key input failed: %w", err)
	}
	return nil
}

// ClearFocused empties the value of the focused input.
func (d *ChromeDriver) ClearFocused(ctx context.Context) error {
	js := `(() => {
		const el = document.activeElement;
		if (!el) return false;
		if ('value' in el) {
			el.value = '';
			el.dispatchEvent(new Event('input', {bubbles: true}));
		}
		return true;
	})()`
	var ok bool
	if err := d.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("no focused element to clear")
	}
	return nil
}

// ScrollToNextPage scrolls the window down by most of a viewport.
func (d *ChromeDriver) ScrollToNextPage(ctx context.Context) error {
	return d.scrollBy(ctx, 0.9)
}

// ScrollToPreviousPage scrolls the window up by most of a viewport.
func (d *ChromeDriver) ScrollToPreviousPage(ctx context.Context) error {
	return d.scrollBy(ctx, -0.9)
}

func (d *ChromeDriver) scrollBy(ctx context.Context, viewports float64) error {
	js := fmt.Sprintf(`window.scrollBy(0, window.innerHeight * %f); undefined`, viewports)
	if err := d.run(ctx, chromedp.Evaluate(js, nil)); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

// ScrollToPercent scrolls the window to the given percentage of the document
// height.
func (d *ChromeDriver) ScrollToPercent(ctx context.Context, percent int) error {
	js := fmt.Sprintf(`window.scrollTo(0, document.documentElement.scrollHeight * %d / 100); undefined`, percent)
	if err := d.run(ctx, chromedp.Evaluate(js, nil)); err != nil {
		return fmt.Errorf("scroll to %d%% failed: %w", percent, err)
	}
	return nil
}

// SelectorExists reports whether the selector matches at least one node.
func (d *ChromeDriver) SelectorExists(ctx context.Context, sel string) (bool, error) {
	js := fmt.Sprintf(`document.querySelector(%q) !== null`, sel)
	var exists bool
	if err := d.run(ctx, chromedp.Evaluate(js, &exists)); err != nil {
		return false, fmt.Errorf("existence check for %q failed: %w", sel, err)
	}
	return exists, nil
}

// CountSelector returns the number of nodes the selector matches.
func (d *ChromeDriver) CountSelector(ctx context.Context, sel string) (int, error) {
	js := fmt.Sprintf(`document.querySelectorAll(%q).length`, sel)
	var count int
	if err := d.run(ctx, chromedp.Evaluate(js, &count)); err != nil {
		return 0, fmt.Errorf("count for %q failed: %w", sel, err)
	}
	return count, nil
}

// QuerySelectorAll returns a handle per match, stamping each node with its
// index so ClickElementNode and InputTextElementNode can address it later.
// The handle carries the node's inner text, its own or first contained link,
// and whatever id-bearing attribute the node exposes.
func (d *ChromeDriver) QuerySelectorAll(ctx context.Context, sel string) ([]schemas.ElementHandle, error) {
	js := fmt.Sprintf(`(() => {
		const out = [];
		document.querySelectorAll(%q).forEach((el, i) => {
			el.setAttribute(%q, String(i));
			const link = el.matches('a[href]') ? el : el.querySelector('a[href]');
			const dataId = el.getAttribute('data-id') || el.getAttribute('data-item-id') || el.id || '';
			out.push({
				index: i,
				text: (el.innerText || '').trim().slice(0, 4000),
				href: link ? link.href : '',
				dataId: dataId,
			});
		});
		return out;
	})()`, sel, indexAttr)

	var handles []schemas.ElementHandle
	if err := d.run(ctx, chromedp.Evaluate(js, &handles)); err != nil {
		return nil, fmt.Errorf("query for %q failed: %w", sel, err)
	}
	return handles, nil
}

// GetTextFromSelector returns the inner text of every match.
func (d *ChromeDriver) GetTextFromSelector(ctx context.Context, sel string) ([]string, error) {
	js := fmt.Sprintf(`(() => {
		const out = [];
		document.querySelectorAll(%q).forEach(el => out.push((el.innerText || '').trim()));
		return out;
	})()`, sel)

	var texts []string
	if err := d.run(ctx, chromedp.Evaluate(js, &texts)); err != nil {
		return nil, fmt.Errorf("text query for %q failed: %w", sel, err)
	}
	return texts, nil
}

// GetDomElementByIndex re-resolves a handle stamped by the last
// QuerySelectorAll.
func (d *ChromeDriver) GetDomElementByIndex(ctx context.Context, index int) (schemas.ElementHandle, error) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector('[%s="%d"]');
		if (!el) return null;
		const link = el.matches('a[href]') ? el : el.querySelector('a[href]');
		return {
			index: %d,
			text: (el.innerText || '').trim().slice(0, 4000),
			href: link ? link.href : '',
			dataId: el.getAttribute('data-id') || el.getAttribute('data-item-id') || el.id || '',
		};
	})()`, indexAttr, index, index)

	var handle *schemas.ElementHandle
	if err := d.run(ctx, chromedp.Evaluate(js, &handle)); err != nil {
		return schemas.ElementHandle{}, fmt.Errorf("element lookup for index %d failed: %w", index, err)
	}
	if handle == nil {
		return schemas.ElementHandle{}, fmt.Errorf("no element tagged with index %d; run a query first", index)
	}
	return *handle, nil
}

// ClickElementNode clicks an element by its stamped index.
func (d *ChromeDriver) ClickElementNode(ctx context.Context, index int) error {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector('[%s="%d"]');
		if (!el) return false;
		el.scrollIntoView({block: 'center'});
		el.click();
		return true;
	})()`, indexAttr, index)

	var clicked bool
	if err := d.run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return fmt.Errorf("click on element %d failed: %w", index, err)
	}
	if !clicked {
		return fmt.Errorf("no element tagged with index %d; run a query first", index)
	}
	return nil
}

// InputTextElementNode sets the value of an element by its stamped index.
func (d *ChromeDriver) InputTextElementNode(ctx context.Context, index int, text string) error {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector('[%s="%d"]');
		if (!el) return false;
		if (el.focus) el.focus();
		if ('value' in el) {
			el.value = %q;
			el.dispatchEvent(new Event('input', {bubbles: true}));
		} else {
			el.textContent = %q;
		}
		return true;
	})()`, indexAttr, index, text, text)

	var ok bool
	if err := d.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return fmt.Errorf("input on element %d failed: %w", index, err)
	}
	if !ok {
		return fmt.Errorf("no element tagged with index %d; run a query first", index)
	}
	return nil
}

// pageStateJS measures scroll position and viewport, and maps every node
// stamped by the last QuerySelectorAll back to a unique selector so state
// consumers can re-address indexed elements.
var pageStateJS = fmt.Sprintf(`(() => {
	const map = {};
	document.querySelectorAll('[%[1]s]').forEach(el => {
		const idx = el.getAttribute('%[1]s');
		map[idx] = '[%[1]s="' + idx + '"]';
	});
	return {
		scrollY: window.scrollY,
		scrollHeight: Math.max(document.body.scrollHeight, document.documentElement.scrollHeight),
		visualViewportHeight: window.visualViewport ? window.visualViewport.height : window.innerHeight,
		selectorMap: map,
	};
})()`, indexAttr)

// GetState returns the scroll and viewport measurements used by end-of-page
// detection, plus the index-to-selector map of the last element query.
func (d *ChromeDriver) GetState(ctx context.Context) (schemas.PageState, error) {
	var state schemas.PageState
	if err := d.run(ctx, chromedp.Evaluate(pageStateJS, &state)); err != nil {
		return schemas.PageState{}, fmt.Errorf("page state query failed: %w", err)
	}
	return state, nil
}
