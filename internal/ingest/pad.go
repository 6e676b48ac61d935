package ingest

import "regexp"

const hexWidth = 64

var coinbasePattern = regexp.MustCompile(`^0+$`)

// pad64 right-pads s with '0' to exactly 64 characters, truncating to
// 64 if longer (spec §4.1c).
func pad64(s string) string {
	if len(s) >= hexWidth {
		return s[:hexWidth]
	}
	padding := make([]byte, hexWidth-len(s))
	for i := range padding {
		padding[i] = '0'
	}
	return s + string(padding)
}

// isCoinbase reports whether s matches ^0+$: one or more '0'
// characters and nothing else. Applied to the wire-supplied input
// txid, before any padding (spec §9's glossary note: "Do not require
// width-64").
func isCoinbase(s string) bool {
	return coinbasePattern.MatchString(s)
}
