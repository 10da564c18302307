package pipeline

import (
	"unicode/utf8"

	"github.com/example/whatsapp-ai-responder/internal/util"
)

// MaxReplyRunes is the outbound length ceiling.
const MaxReplyRunes = 1500

const ellipsis = "..."

// Finalize enforces MaxReplyRunes, cutting long text to make room for an
// ellipsis.
func Finalize(text string) string {
	if utf8.RuneCountInString(text) <= MaxReplyRunes {
		return text
	}
	return util.TruncateRunes(text, MaxReplyRunes-len(ellipsis)) + ellipsis
}
