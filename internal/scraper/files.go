// internal/scraper/files.go
package scraper

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stepwright/stepwright/internal/browser"
)

const downloadExpectMs = 10000

var pdfRe = regexp.MustCompile(`(?i)\.pdf`)

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

func browserCookie(name, value, pageURL string) browser.Cookie {
	return browser.Cookie{Name: name, Value: value, URL: pageURL}
}

// cookieHeader renders the context's cookies for target into a Cookie
// header value, used when fetching files outside the page itself.
func cookieHeader(bctx browser.Context, target string) string {
	cookies, err := bctx.Cookies(target)
	if err != nil || len(cookies) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

func fetchHeaders(bctx browser.Context, fileURL, referer string) map[string]string {
	headers := map[string]string{
		"Referer":    referer,
		"User-Agent": "Mozilla/5.0",
	}
	if ch := cookieHeader(bctx, fileURL); ch != "" {
		headers["Cookie"] = ch
	}
	return headers
}

// handleEventDownload clicks the target expecting it to trigger a
// download event, saving the payload to the path in value. The collector
// key records the saved path, or nil when nothing was saved.
func (e *Engine) handleEventDownload(sc *stepContext, step *Step) error {
	if step.Value == "" {
		return fmt.Errorf("download step %q requires a target filepath: %w", step.ID, ErrValidation)
	}
	key := step.outputKey("file")
	var savedPath interface{}
	defer func() { sc.collector.Set(key, savedPath) }()

	target := locatorFor(sc.page, step.SelectorType, step.Selector).First()
	visible, err := target.IsVisible()
	if err != nil || !visible {
		e.observer.Warning(step, "download target not visible or missing", err)
		return nil
	}

	path := ReplaceDataPlaceholders(step.Value, sc.collector)
	if err := ensureDir(path); err != nil {
		e.observer.Warning(step, "prepare download path failed", err)
		return nil
	}
	if err := sc.page.ExpectDownload(path, downloadExpectMs, func() error {
		return target.Click(plainClick())
	}); err != nil {
		e.observer.Warning(step, "download failed", err)
		return nil
	}
	savedPath = path
	return nil
}

// handleDownloadFile resolves the target's href (clicking through a new
// tab when the link is javascript-driven), fetches the bytes with the
// context's cookies, and writes them to the path in value.
func (e *Engine) handleDownloadFile(sc *stepContext, step *Step) error {
	if step.Selector == "" {
		return fmt.Errorf("download step %q requires a selector: %w", step.ID, ErrValidation)
	}
	if step.Value == "" {
		return fmt.Errorf("download step %q requires a target filepath: %w", step.ID, ErrValidation)
	}
	key := step.outputKey("file")
	var savedPath interface{}
	defer func() { sc.collector.Set(key, savedPath) }()

	link := locatorFor(sc.page, step.SelectorType, step.Selector)
	if n, err := link.Count(); err != nil || n == 0 {
		e.observer.Warning(step, "download link not found", err)
		return nil
	}

	href, err := link.First().GetAttribute("href")
	if err != nil {
		href = ""
	}

	if href == "" || strings.HasPrefix(href, "javascript") {
		// Click through to discover the real URL.
		newPage, expectErr := sc.page.Context().ExpectPage(0, func() error {
			if clickErr := link.First().Click(clickWithMeta()); clickErr != nil {
				return link.First().Click(plainClick())
			}
			return nil
		})
		if expectErr != nil {
			e.observer.Warning(step, "could not resolve download URL", expectErr)
			return nil
		}
		if loadErr := newPage.WaitForLoadState("domcontentloaded"); loadErr != nil {
			e.observer.Warning(step, "child page load wait failed", loadErr)
		}
		href = newPage.URL()
		newPage.Close()
	}

	if href == "" {
		e.observer.Warning(step, "could not resolve download URL", nil)
		return nil
	}
	href = resolveHref(sc.page.URL(), href)

	bctx := sc.page.Context()
	body, status, err := bctx.Fetch(href, fetchHeaders(bctx, href, sc.page.URL()))
	if err != nil || status >= 400 {
		e.observer.Warning(step, fmt.Sprintf("download GET %s returned %d", href, status), err)
		return nil
	}

	path := ReplaceDataPlaceholders(step.Value, sc.collector)
	if err := ensureDir(path); err != nil {
		e.observer.Warning(step, "prepare download path failed", err)
		return nil
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		e.observer.Warning(step, "write download failed", err)
		return nil
	}
	savedPath = path
	return nil
}

// handleSavePDF saves the document behind the current page: it first
// tries to resolve a direct PDF URL (query parameters, the URL itself,
// then common viewer elements), fetching the bytes with the context's
// cookies; failing that it falls back to the viewer's download button
// and finally to scraping download-labelled anchors.
func (e *Engine) handleSavePDF(sc *stepContext, step *Step) error {
	if step.Value == "" {
		return fmt.Errorf("savePDF step %q requires a target filepath: %w", step.ID, ErrValidation)
	}
	key := step.outputKey("file")
	var savedPath interface{}
	defer func() { sc.collector.Set(key, savedPath) }()

	if err := sc.page.WaitForLoadState("domcontentloaded"); err != nil {
		e.observer.Warning(step, "initial load wait failed", err)
	}

	currentURL := sc.page.URL()
	pdfURL := resolvePDFURL(sc, currentURL)
	if pdfURL == "" && step.Wait > 0 {
		// Some viewers populate the iframe src late.
		sc.page.WaitForTimeout(float64(step.Wait))
		pdfURL = discoverViewerPDF(sc)
	}

	if pdfURL != "" {
		pdfURL = resolveHref(currentURL, pdfURL)
		bctx := sc.page.Context()
		body, status, err := bctx.Fetch(pdfURL, fetchHeaders(bctx, pdfURL, currentURL))
		if err == nil && status < 400 {
			path := ReplaceDataPlaceholders(step.Value, sc.collector)
			if dirErr := ensureDir(path); dirErr == nil {
				if writeErr := os.WriteFile(path, body, 0644); writeErr == nil {
					savedPath = path
					return nil
				}
			}
		}
		e.observer.Warning(step, fmt.Sprintf("direct PDF GET %s failed (status %d)", pdfURL, status), err)
	}

	// Viewer download button fallback.
	path := ReplaceDataPlaceholders(step.Value, sc.collector)
	if err := ensureDir(path); err != nil {
		e.observer.Warning(step, "prepare save path failed", err)
		return nil
	}
	if err := sc.page.ExpectDownload(path, 5000, func() error {
		_, evalErr := sc.page.Evaluate(viewerDownloadClickScript)
		return evalErr
	}); err == nil {
		savedPath = path
		return nil
	}

	// Last resort: scrape download-labelled anchors out of the HTML and
	// fetch the first that responds.
	for _, href := range downloadAnchorHrefs(sc) {
		bctx := sc.page.Context()
		body, status, err := bctx.Fetch(href, fetchHeaders(bctx, href, currentURL))
		if err != nil || status >= 400 {
			continue
		}
		if writeErr := os.WriteFile(path, body, 0644); writeErr == nil {
			savedPath = path
			return nil
		}
	}
	e.observer.Warning(step, "could not save PDF", nil)
	return nil
}

// resolvePDFURL looks for a direct PDF URL in the current location's
// query parameters, the location itself, then viewer elements.
func resolvePDFURL(sc *stepContext, currentURL string) string {
	if parsed, err := url.Parse(currentURL); err == nil {
		query := parsed.Query()
		for _, param := range []string{"file", "src", "document", "url"} {
			if v := query.Get(param); v != "" && pdfRe.MatchString(v) {
				return v
			}
		}
	}
	if pdfRe.MatchString(currentURL) {
		return currentURL
	}
	return discoverViewerPDF(sc)
}

const viewerPDFScript = `() => {
	const abs = (src) => {
		if (!src) return null;
		try { return new URL(src, window.location.href).toString(); } catch { return src; }
	};
	const embed = document.querySelector('embed[type="application/pdf"]');
	if (embed && embed.getAttribute('src')) return abs(embed.getAttribute('src'));
	const obj = document.querySelector('object[type="application/pdf"]');
	if (obj && obj.getAttribute('data')) return abs(obj.getAttribute('data'));
	const iframe = Array.from(document.querySelectorAll('iframe'))
		.find(f => /pdf/i.test(f.getAttribute('src') || ''));
	if (iframe && iframe.getAttribute('src')) return abs(iframe.getAttribute('src'));
	return null;
}`

const viewerDownloadClickScript = `() => {
	const targetIds = ['download', 'save'];
	const visited = new Set();
	function tryClick(node) {
		if (!node || visited.has(node)) return false;
		visited.add(node);
		if (node.id && targetIds.includes(node.id)) { node.click(); return true; }
		if (node.shadowRoot) {
			for (const child of Array.from(node.shadowRoot.children)) {
				if (tryClick(child)) return true;
			}
		}
		for (const child of Array.from(node.children || [])) {
			if (tryClick(child)) return true;
		}
		return false;
	}
	return tryClick(document.documentElement);
}`

func discoverViewerPDF(sc *stepContext) string {
	result, err := sc.page.Evaluate(viewerPDFScript)
	if err != nil {
		return ""
	}
	if s, ok := result.(string); ok {
		return s
	}
	return ""
}

// downloadAnchorHrefs parses the page HTML and returns up to three
// anchors that look like download links: a download attribute, or
// "download" in the text or aria-label.
func downloadAnchorHrefs(sc *stepContext) []string {
	html, err := sc.page.Content()
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base := sc.page.URL()
	var hrefs []string
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return true
		}
		_, hasDownload := s.Attr("download")
		text := strings.ToLower(s.Text())
		aria := strings.ToLower(s.AttrOr("aria-label", ""))
		if hasDownload || strings.Contains(text, "download") || strings.Contains(aria, "download") {
			hrefs = append(hrefs, resolveHref(base, href))
		}
		return len(hrefs) < 3
	})
	return hrefs
}
