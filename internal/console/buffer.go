package console

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// bufferRetention caps how many characters a buffer keeps. Oldest lines
// are trimmed past it so long sessions do not grow without bound.
const bufferRetention = 200_000

// Buffer is an append-only text container with a character cursor. The
// session owns two of these (command output and log tail) for its full
// lifetime; nothing outside this package writes to them.
type Buffer struct {
	content []rune
	cursor  int
	limit   int
}

// NewBuffer returns an empty buffer with the default retention cap.
func NewBuffer() *Buffer {
	return &Buffer{limit: bufferRetention}
}

// Len returns the buffer length in characters.
func (b *Buffer) Len() int { return len(b.content) }

// Cursor returns the cursor position in characters.
func (b *Buffer) Cursor() int { return b.cursor }

// String returns the full buffer content.
func (b *Buffer) String() string { return string(b.content) }

// SetCursor moves the cursor, clamped to [0, Len].
func (b *Buffer) SetCursor(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(b.content) {
		pos = len(b.content)
	}
	b.cursor = pos
}

// ScrollBy moves the cursor by delta characters, clamped to the content.
func (b *Buffer) ScrollBy(delta int) {
	b.SetCursor(b.cursor + delta)
}

// ScrollToEnd pins the cursor to the newest content.
func (b *Buffer) ScrollToEnd() {
	b.cursor = len(b.content)
}

// Append adds text at the end. The cursor does not move; callers decide
// whether to follow the new content.
func (b *Buffer) Append(text string) {
	b.content = append(b.content, []rune(text)...)
	b.trim()
}

// SetContent replaces the whole buffer. The cursor keeps its position
// while still valid and clamps to the new end otherwise.
func (b *Buffer) SetContent(text string) {
	b.content = []rune(text)
	if b.cursor > len(b.content) {
		b.cursor = len(b.content)
	}
}

// Clear empties the buffer and resets the cursor.
func (b *Buffer) Clear() {
	b.content = b.content[:0]
	b.cursor = 0
}

// Window renders the part of the buffer visible in a width by height
// viewport. Long lines hard-wrap at the display width and the viewport
// scrolls just enough to keep the cursor's line visible, so a cursor at
// the end shows the newest content and a cursor at zero the oldest.
func (b *Buffer) Window(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	lines, starts := b.wrap(width)

	cursorLine := 0
	for i, start := range starts {
		if start > b.cursor {
			break
		}
		cursorLine = i
	}

	top := 0
	if cursorLine >= height {
		top = cursorLine - height + 1
	}
	end := top + height
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[top:end], "\n")
}

// wrap splits the content into display lines no wider than width and
// records the character offset each line starts at.
func (b *Buffer) wrap(width int) ([]string, []int) {
	var (
		lines    []string
		starts   []int
		cur      []rune
		curWidth int
	)
	lineStart := 0

	flush := func(next int) {
		lines = append(lines, string(cur))
		starts = append(starts, lineStart)
		cur = cur[:0]
		curWidth = 0
		lineStart = next
	}

	for i, r := range b.content {
		if r == '\n' {
			flush(i + 1)
			continue
		}
		w := runewidth.RuneWidth(r)
		if curWidth+w > width && len(cur) > 0 {
			flush(i)
		}
		cur = append(cur, r)
		curWidth += w
	}
	flush(len(b.content))
	return lines, starts
}

// trim drops the oldest content once the retention cap is exceeded,
// cutting at a line boundary and shifting the cursor by the same amount.
func (b *Buffer) trim() {
	if b.limit <= 0 || len(b.content) <= b.limit {
		return
	}
	cut := len(b.content) - b.limit
	for cut < len(b.content) && b.content[cut-1] != '\n' {
		cut++
	}
	b.content = append(b.content[:0:0], b.content[cut:]...)
	b.cursor -= cut
	if b.cursor < 0 {
		b.cursor = 0
	}
}
