package narrator

import (
	"regexp"
	"strings"
)

const hashPrefix = "hash "

var hexRun = regexp.MustCompile(`(hash )?[0-9a-fA-F]{6,}`)

// CleanText normalises narration text: whitespace runs collapse to a single
// space and long identifiers that look like hashes are shortened to
// "hash <first six characters>". Already shortened hashes are kept, so
// cleaning twice gives the same result as cleaning once.
func CleanText(text string) string {
	text = strings.Join(strings.Fields(text), " ")

	return hexRun.ReplaceAllStringFunc(text, func(match string) string {
		if run, ok := strings.CutPrefix(match, hashPrefix); ok {
			if len(run) == 6 {
				return match
			}
			return hashPrefix + shortenHex(run)
		}
		if isMixedHex(match) {
			return hashPrefix + match[:6]
		}
		return match
	})
}

func shortenHex(run string) string {
	if isMixedHex(run) {
		return run[:6]
	}
	return run
}

func isMixedHex(run string) bool {
	return strings.ContainsAny(run, "0123456789") &&
		strings.ContainsAny(run, "abcdefABCDEF")
}
