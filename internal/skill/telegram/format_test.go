package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestMarkdownToHTML(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"**bold**", "<b>bold</b>"},
		{"__bold__", "<b>bold</b>"},
		{"an _italic_ word", "an <i>italic</i> word"},
		{"snake_case_name", "snake_case_name"},
		{"~~gone~~", "<s>gone</s>"},
		{"# Title", "Title"},
		{"> quoted", "quoted"},
		{"- item", "• item"},
		{"[site](https://example.com)", `<a href="https://example.com">site</a>`},
		{"a < b & c", "a &lt; b &amp; c"},
		{"use `x<y`", "use <code>x&lt;y</code>"},
		{"```go\nif a && b {}\n```", "<pre><code>if a &amp;&amp; b {}\n</code></pre>"},
	}
	for _, tc := range cases {
		if got := markdownToHTML(tc.in); got != tc.want {
			t.Errorf("markdownToHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("short message split: %v", got)
	}

	got := splitMessage("line one\nline two\nline three", 18)
	if len(got) != 2 || got[0] != "line one\nline two" || got[1] != "line three" {
		t.Errorf("newline split: %q", got)
	}

	got = splitMessage("alpha beta gamma", 11)
	if len(got) != 2 || got[0] != "alpha beta" || got[1] != "gamma" {
		t.Errorf("space split: %q", got)
	}

	long := strings.Repeat("x", 25)
	got = splitMessage(long, 10)
	if len(got) != 3 || len(got[0]) != 10 || len(got[2]) != 5 {
		t.Errorf("hard cut: %q", got)
	}

	euros := strings.Repeat("€", 2000)
	got = splitMessage(euros, maxMessageLen)
	if strings.Join(got, "") != euros {
		t.Errorf("multi-byte split lost text")
	}
	for i, chunk := range got {
		if !utf8.ValidString(chunk) || len(chunk) > maxMessageLen {
			t.Errorf("chunk %d: %d bytes, valid=%v", i, len(chunk), utf8.ValidString(chunk))
		}
	}

	if got := splitMessage("€€", 2); len(got) != 2 || got[0] != "€" || got[1] != "€" {
		t.Errorf("limit below rune width: %q", got)
	}
}
