package query

import "unicode/utf8"

// UTF8Len returns the number of bytes needed to encode s as UTF-8.
// Invalid byte sequences count as the encoded replacement character.
func UTF8Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf8.RuneLen(r)
	}
	return n
}
