package synth

import (
	"regexp"
	"strings"
)

var (
	pauseMarker     = regexp.MustCompile(`\[PAUSE\]`)
	longPauseMarker = regexp.MustCompile(`\[LONG_PAUSE\]`)
	markupTag       = regexp.MustCompile(`<[^>]*>`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// CleanText prepares a script for speech: pause markers and angle-bracket
// tags are removed and whitespace is collapsed. *emphasis* asterisks are
// left in place. Removal repeats until nothing changes, so a marker that is
// only formed by a previous removal ("[PAU<x>SE]") is stripped too and
// CleanText(CleanText(s)) == CleanText(s).
func CleanText(text string) string {
	for {
		next := pauseMarker.ReplaceAllString(text, "")
		next = longPauseMarker.ReplaceAllString(next, "")
		next = markupTag.ReplaceAllString(next, "")
		if next == text {
			break
		}
		text = next
	}
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
