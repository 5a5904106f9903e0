package speech

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	bracketedRe = regexp.MustCompile(`\[[^\]]*\]`)
	urlRe       = regexp.MustCompile(`https?://\S+`)
)

// pictographic blocks stripped before anything else
var emojiRanges = []*unicode.RangeTable{
	{R32: []unicode.Range32{
		{Lo: 0x1F000, Hi: 0x1F02F, Stride: 1},
		{Lo: 0x1F0A0, Hi: 0x1F0FF, Stride: 1},
		{Lo: 0x1F300, Hi: 0x1F9FF, Stride: 1},
		{Lo: 0x1FA00, Hi: 0x1FAFF, Stride: 1},
	}},
	{R16: []unicode.Range16{
		{Lo: 0x2600, Hi: 0x26FF, Stride: 1},
		{Lo: 0x2700, Hi: 0x27BF, Stride: 1},
		{Lo: 0xFE00, Hi: 0xFE0F, Stride: 1},
	}},
}

const decoration = "•◆►▪■□–—-*_#`~"

const allowedPunct = ".,!?;:()'-"

// Sanitize turns a chat reply into plain prose for a speech synthesizer:
// emoji, bullets, markdown marks, bracketed artifacts and URLs are dropped and
// whitespace is normalized. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	if s == "" {
		return ""
	}

	// combining marks would otherwise be dropped apart from their base letter
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\u200d' || unicode.IsOneOf(emojiRanges, r) {
			return -1
		}
		if strings.ContainsRune(decoration, r) {
			return ' '
		}
		return r
	}, s)
	s = collapseSpaces(s)

	s = bracketedRe.ReplaceAllString(s, "")
	s = urlRe.ReplaceAllString(s, "")

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || strings.ContainsRune(allowedPunct, r) {
			return r
		}
		return ' '
	}, s)

	return collapseSpaces(s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
