// Package editor implements the admin article editor: cursor-based markup
// insertion for the content field, the toolbar built on it, and the article
// form with its cover image draft.
//
// Offsets are rune offsets into the buffer.
package editor

import "unicode/utf8"

// Edit is the outcome of an insertion: the new buffer text and the caret
// position the caller should restore.
type Edit struct {
	Text  string
	Caret int
}

// WrapSelection surrounds buf[start:end] with prefix and suffix. An empty
// selection is replaced by placeholder. The caret lands after the wrapped
// text, before the suffix. Offsets outside the buffer are clamped and
// reversed offsets swapped.
func WrapSelection(buf string, start, end int, prefix, suffix, placeholder string) Edit {
	runes := []rune(buf)
	start, end = clampRange(len(runes), start, end)

	wrapped := string(runes[start:end])
	if wrapped == "" {
		wrapped = placeholder
	}

	text := string(runes[:start]) + prefix + wrapped + suffix + string(runes[end:])
	caret := start + utf8.RuneCountInString(prefix) + utf8.RuneCountInString(wrapped)
	return Edit{Text: text, Caret: caret}
}

// Replace swaps buf[start:end] for insert and puts the caret after it.
func Replace(buf string, start, end int, insert string) Edit {
	runes := []rune(buf)
	start, end = clampRange(len(runes), start, end)

	return Edit{
		Text:  string(runes[:start]) + insert + string(runes[end:]),
		Caret: start + utf8.RuneCountInString(insert),
	}
}

func clampRange(n, start, end int) (int, int) {
	if start > end {
		start, end = end, start
	}
	return clamp(start, 0, n), clamp(end, 0, n)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
