package editor

import "sync"

// Buffer is an editable text field with a selection.
type Buffer interface {
	Value() string
	Selection() (start, end int)
	SetValue(s string)
	// SetCaret collapses the selection to pos.
	SetCaret(pos int)
}

// TextBuffer is an in-memory Buffer.
type TextBuffer struct {
	mu         sync.Mutex
	text       string
	start, end int
}

func NewTextBuffer(text string) *TextBuffer {
	n := len([]rune(text))
	return &TextBuffer{text: text, start: n, end: n}
}

// A nil *TextBuffer reads as empty and ignores writes.
func (b *TextBuffer) Value() string {
	if b == nil {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *TextBuffer) Selection() (int, int) {
	if b == nil {
		return 0, 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.start, b.end
}

func (b *TextBuffer) SetValue(s string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = s
	n := len([]rune(s))
	b.start, b.end = clampRange(n, b.start, b.end)
}

func (b *TextBuffer) SetCaret(pos int) {
	b.Select(pos, pos)
}

// Select sets the selection, clamped to the text.
func (b *TextBuffer) Select(start, end int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.start, b.end = clampRange(len([]rune(b.text)), start, end)
}

func apply(b Buffer, e Edit) {
	b.SetValue(e.Text)
	b.SetCaret(e.Caret)
}
