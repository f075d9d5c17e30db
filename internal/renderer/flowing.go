package renderer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
	"github.com/Christian-Gennari/local-digital-library-sub001/speech/document"
)

// anchorPrefix is the fine-anchor scheme this renderer emits. The format
// is private here; everything upstream treats anchors as opaque strings.
const anchorPrefix = "line:"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	highlightStyle = lipgloss.NewStyle().Reverse(true)
)

// chapter is one top-level section of a markdown document.
type chapter struct {
	ref   string
	title string
	text  wrappedText
}

// Flowing renders markdown as a sequence of chapters split on top-level
// headings. One chapter is visible at a time and scrolls by line.
type Flowing struct {
	pointerHub

	width  int
	height int

	mu       sync.Mutex
	chapters []chapter
	byRef    map[string]int
	current  int
	scroll   int

	hlChapter    int
	hlStart      int
	hlEnd        int
	hasHighlight bool
}

// NewFlowing splits markdown content on "# " headings and wraps each
// chapter at width. Content before the first heading becomes its own
// chapter.
func NewFlowing(content string, width, height int) *Flowing {
	f := &Flowing{
		width:  width,
		height: height,
		byRef:  make(map[string]int),
	}

	var (
		title string
		body  strings.Builder
	)
	flush := func() {
		text := strings.TrimSpace(body.String())
		if title == "" && text == "" {
			return
		}
		ref := fmt.Sprintf("ch-%04d", len(f.chapters)+1)
		f.byRef[ref] = len(f.chapters)
		f.chapters = append(f.chapters, chapter{
			ref:   ref,
			title: title,
			text:  wrapText(text, width),
		})
		body.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") {
			flush()
			title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	flush()

	return f
}

// Chapters lists chapter references in document order.
func (f *Flowing) Chapters() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	refs := make([]string, len(f.chapters))
	for i, c := range f.chapters {
		refs[i] = c.ref
	}
	return refs
}

// ChapterTitle returns a chapter's heading text.
func (f *Flowing) ChapterTitle(chapterRef string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.byRef[chapterRef]; ok {
		return f.chapters[i].title
	}
	return ""
}

// ChapterText returns the chapter's wrapped body text.
func (f *Flowing) ChapterText(_ context.Context, chapterRef string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.byRef[chapterRef]
	if !ok {
		return "", fmt.Errorf("renderer: unknown chapter %q", chapterRef)
	}
	return f.chapters[i].text.text, nil
}

// CurrentPosition reports the visible chapter and the anchor of the top
// visible line.
func (f *Flowing) CurrentPosition() (string, speech.FineAnchor, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.chapters) == 0 {
		return "", "", false
	}
	c := f.chapters[f.current]
	return c.ref, speech.FineAnchor(anchorPrefix + strconv.Itoa(f.scroll)), true
}

// Display switches to a chapter and scrolls it to the anchored line. An
// empty anchor shows the chapter top.
func (f *Flowing) Display(_ context.Context, chapterRef string, anchor speech.FineAnchor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.byRef[chapterRef]
	if !ok {
		return fmt.Errorf("renderer: unknown chapter %q", chapterRef)
	}
	f.current = i
	f.scroll = 0
	if line, ok := parseAnchor(anchor); ok {
		if max := len(f.chapters[i].text.lines) - 1; line > max {
			line = max
		}
		if line < 0 {
			line = 0
		}
		f.scroll = line
	}
	return nil
}

// AnchorForOffset anchors a chapter-local rune offset to its wrapped
// line.
func (f *Flowing) AnchorForOffset(chapterRef string, offset int) (speech.FineAnchor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.byRef[chapterRef]
	if !ok {
		return "", fmt.Errorf("renderer: unknown chapter %q", chapterRef)
	}
	line := f.chapters[i].text.lineFor(offset)
	return speech.FineAnchor(anchorPrefix + strconv.Itoa(line)), nil
}

// LocatorAt resolves viewport coordinates to a position in the visible
// chapter.
func (f *Flowing) LocatorAt(x, y int) (string, int, string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.chapters) == 0 {
		return "", 0, "", false
	}
	c := f.chapters[f.current]
	offset, ok := c.text.offsetAt(f.scroll+y, x)
	if !ok {
		return "", 0, "", false
	}
	return c.ref, offset, c.text.wordAt(offset), true
}

// Highlight marks the lines between two anchors in the current chapter.
func (f *Flowing) Highlight(start, end speech.FineAnchor) error {
	s, okS := parseAnchor(start)
	e, okE := parseAnchor(end)
	if !okS || !okE {
		return fmt.Errorf("renderer: bad anchor pair %q..%q", start, end)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hlChapter = f.current
	f.hlStart = s
	f.hlEnd = e
	f.hasHighlight = true
	return nil
}

// ClearHighlight removes the mark.
func (f *Flowing) ClearHighlight() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hasHighlight = false
}

// View renders the visible window of the current chapter.
func (f *Flowing) View() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.chapters) == 0 {
		return ""
	}
	c := f.chapters[f.current]

	var b strings.Builder
	if c.title != "" {
		b.WriteString(titleStyle.Render(c.title))
		b.WriteByte('\n')
	}
	end := f.scroll + f.height
	if end > len(c.text.lines) {
		end = len(c.text.lines)
	}
	for i := f.scroll; i < end; i++ {
		line := c.text.lines[i]
		if f.hasHighlight && f.hlChapter == f.current && i >= f.hlStart && i <= f.hlEnd {
			line = highlightStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Scroll moves the viewport by delta lines, clamped to the chapter.
func (f *Flowing) Scroll(delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.chapters) == 0 {
		return
	}
	f.scroll += delta
	if max := len(f.chapters[f.current].text.lines) - 1; f.scroll > max {
		f.scroll = max
	}
	if f.scroll < 0 {
		f.scroll = 0
	}
}

func parseAnchor(a speech.FineAnchor) (int, bool) {
	s := string(a)
	if !strings.HasPrefix(s, anchorPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(s[len(anchorPrefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}

var _ document.FlowingRenderer = (*Flowing)(nil)
