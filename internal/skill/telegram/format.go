package telegram

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxMessageLen stays under Telegram's 4096-character limit with room for
// markup added by the HTML conversion.
const maxMessageLen = 4000

var (
	reCodeBlock  = regexp.MustCompile("(?s)```[\\w]*\\n?([\\s\\S]*?)```")
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reHeader     = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	reBlockquote = regexp.MustCompile(`(?m)^>\s*(.*)$`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	reBold1      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBold2      = regexp.MustCompile(`__(.+?)__`)
	reItalic     = regexp.MustCompile(`(^|[^a-zA-Z0-9])_([^_]+)_([^a-zA-Z0-9]|$)`)
	reStrike     = regexp.MustCompile(`~~(.+?)~~`)
	reBullet     = regexp.MustCompile(`(?m)^[-*]\s+`)
)

// markdownToHTML converts common Markdown to the HTML subset Telegram
// accepts with parse_mode=HTML.
func markdownToHTML(text string) string {
	if text == "" {
		return ""
	}

	// Code is pulled out first so its content is escaped but not formatted.
	var codeBlocks []string
	text = reCodeBlock.ReplaceAllStringFunc(text, func(m string) string {
		groups := reCodeBlock.FindStringSubmatch(m)
		codeBlocks = append(codeBlocks, groups[1])
		return fmt.Sprintf("\x00CB%d\x00", len(codeBlocks)-1)
	})

	var inlineCodes []string
	text = reInlineCode.ReplaceAllStringFunc(text, func(m string) string {
		groups := reInlineCode.FindStringSubmatch(m)
		inlineCodes = append(inlineCodes, groups[1])
		return fmt.Sprintf("\x00IC%d\x00", len(inlineCodes)-1)
	})

	text = reHeader.ReplaceAllString(text, "$1")
	text = reBlockquote.ReplaceAllString(text, "$1")

	text = htmlEscape(text)

	text = reLink.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = reBold1.ReplaceAllString(text, "<b>$1</b>")
	text = reBold2.ReplaceAllString(text, "<b>$1</b>")
	text = reItalic.ReplaceAllString(text, "$1<i>$2</i>$3")
	text = reStrike.ReplaceAllString(text, "<s>$1</s>")
	text = reBullet.ReplaceAllString(text, "• ")

	for i, code := range inlineCodes {
		text = strings.ReplaceAll(text, fmt.Sprintf("\x00IC%d\x00", i),
			"<code>"+htmlEscape(code)+"</code>")
	}
	for i, code := range codeBlocks {
		text = strings.ReplaceAll(text, fmt.Sprintf("\x00CB%d\x00", i),
			"<pre><code>"+htmlEscape(code)+"</code></pre>")
	}
	return text
}

func htmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// splitMessage splits content into chunks that fit within maxLen,
// preferring newline breaks, then space breaks, then hard cut.
func splitMessage(content string, maxLen int) []string {
	if len(content) <= maxLen {
		return []string{content}
	}
	var chunks []string
	for len(content) > 0 {
		if len(content) <= maxLen {
			chunks = append(chunks, content)
			break
		}
		cut := content[:maxLen]
		pos := strings.LastIndex(cut, "\n")
		if pos <= 0 {
			pos = strings.LastIndex(cut, " ")
		}
		if pos <= 0 {
			pos = runeCut(content, maxLen)
		}
		chunks = append(chunks, content[:pos])
		content = strings.TrimLeft(content[pos:], " \t\n")
	}
	return chunks
}

// runeCut returns the largest offset <= n that does not split a UTF-8
// sequence. It always advances past at least one rune.
func runeCut(s string, n int) int {
	pos := n
	for pos > 0 && !utf8.RuneStart(s[pos]) {
		pos--
	}
	if pos == 0 {
		_, size := utf8.DecodeRuneInString(s)
		pos = size
	}
	return pos
}
