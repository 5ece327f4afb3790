package source

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const upperHex = "0123456789ABCDEF"

// FixURL repairs a URL containing non-ASCII characters or spaces so that it
// can be handed to ffmpeg: the text is NFC-normalized and every byte outside
// printable ASCII is percent-encoded. Existing escapes and reserved
// characters are left alone.
func FixURL(raw string) string {
	normalized := norm.NFC.String(raw)
	if !utf8.ValidString(normalized) {
		normalized = strings.ToValidUTF8(normalized, "�")
	}
	var b strings.Builder
	b.Grow(len(normalized) + 16)
	for i := 0; i < len(normalized); i++ {
		c := normalized[i]
		if c > 0x20 && c < 0x7f {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
