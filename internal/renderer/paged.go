package renderer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech/document"
)

// page is one fixed screen of text. Offsets in spans refer to the page's
// own text.
type page struct {
	text wrappedText
}

// Paged renders plain text pre-paginated into fixed-height pages. Pages
// are numbered from 1 and each page's text stands alone.
type Paged struct {
	pointerHub

	width  int
	height int

	mu      sync.Mutex
	pages   []page
	current int

	hlPage       int
	hlStart      int
	hlEnd        int
	hasHighlight bool
}

// NewPaged wraps content at width and cuts it into pages of height
// lines.
func NewPaged(content string, width, height int) *Paged {
	if height < 1 {
		height = 24
	}
	whole := wrapText(content, width)

	p := &Paged{width: width, height: height, current: 1}
	for start := 0; start < len(whole.lines); start += height {
		end := start + height
		if end > len(whole.lines) {
			end = len(whole.lines)
		}
		text := strings.Join(whole.lines[start:end], "\n")
		p.pages = append(p.pages, page{text: wrapText(text, width)})
	}
	if len(p.pages) == 0 {
		p.pages = append(p.pages, page{text: wrapText("", width)})
	}
	return p
}

// PageCount returns the number of pages.
func (p *Paged) PageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pages)
}

// CurrentPage reports the visible page. The offset is always the page
// top.
func (p *Paged) CurrentPage() (int, int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, 0, true
}

// Display navigates to a page.
func (p *Paged) Display(_ context.Context, pg int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pg < 1 || pg > len(p.pages) {
		return fmt.Errorf("renderer: page %d out of range 1..%d", pg, len(p.pages))
	}
	p.current = pg
	return nil
}

// PageText returns a page's text.
func (p *Paged) PageText(_ context.Context, pg int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pg < 1 || pg > len(p.pages) {
		return "", fmt.Errorf("renderer: page %d out of range 1..%d", pg, len(p.pages))
	}
	return p.pages[pg-1].text.text, nil
}

// LocatorAt resolves viewport coordinates to a position on the visible
// page.
func (p *Paged) LocatorAt(x, y int) (int, int, string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pg := p.pages[p.current-1]
	offset, ok := pg.text.offsetAt(y, x)
	if !ok {
		return 0, 0, "", false
	}
	return p.current, offset, pg.text.wordAt(offset), true
}

// Highlight marks a character span on a page.
func (p *Paged) Highlight(pg, charStart, charEnd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pg < 1 || pg > len(p.pages) {
		return fmt.Errorf("renderer: page %d out of range 1..%d", pg, len(p.pages))
	}
	p.hlPage = pg
	p.hlStart = charStart
	p.hlEnd = charEnd
	p.hasHighlight = true
	return nil
}

// ClearHighlight removes the mark.
func (p *Paged) ClearHighlight() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hasHighlight = false
}

// View renders the visible page, marking any highlighted span line by
// line.
func (p *Paged) View() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	pg := p.pages[p.current-1]

	var b strings.Builder
	for i, line := range pg.text.lines {
		if p.hasHighlight && p.hlPage == p.current && p.lineInSpanLocked(pg, i) {
			line = highlightStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(fmt.Sprintf("\n%d / %d", p.current, len(p.pages)))
	return b.String()
}

func (p *Paged) lineInSpanLocked(pg page, line int) bool {
	start := pg.text.lineStarts[line]
	end := start + len([]rune(pg.text.lines[line]))
	return end > p.hlStart && start < p.hlEnd
}

var _ document.PagedRenderer = (*Paged)(nil)
