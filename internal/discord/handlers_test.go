package discord

import (
	"strings"
	"testing"
)

func TestStripMention(t *testing.T) {
	cases := []struct {
		name, in, userID, want string
	}{
		{"standard", "<@123456> lighten my afternoon", "123456", "lighten my afternoon"},
		{"nickname form", "<@!123456> hello", "123456", "hello"},
		{"both forms", "<@123> and <@!123>", "123", "and"},
		{"no mention", "just text", "123", "just text"},
		{"different user", "<@999> hello", "123", "<@999> hello"},
		{"empty", "", "123", ""},
	}
	for _, tc := range cases {
		if got := stripMention(tc.in, tc.userID); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSplitMessageShort(t *testing.T) {
	chunks := splitMessage("hello", 2000)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("chunks = %v", chunks)
	}
	if chunks := splitMessage(strings.Repeat("a", 2000), 2000); len(chunks) != 1 {
		t.Errorf("exact-limit message split into %d chunks", len(chunks))
	}
}

func TestSplitMessagePrefersNewline(t *testing.T) {
	s := strings.Repeat("a", 15) + "\n" + strings.Repeat("b", 15)
	chunks := splitMessage(s, 20)
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d: %v", len(chunks), chunks)
	}
	if chunks[0] != strings.Repeat("a", 15)+"\n" || chunks[1] != strings.Repeat("b", 15) {
		t.Errorf("chunks = %q", chunks)
	}

	// The last newline before the limit wins.
	chunks = splitMessage("line1\nline2\nline3\nline4", 12)
	if chunks[0] != "line1\nline2\n" {
		t.Errorf("chunk[0] = %q", chunks[0])
	}
}

func TestSplitMessageHardSplit(t *testing.T) {
	chunks := splitMessage(strings.Repeat("x", 50), 20)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d", len(chunks))
	}
	if len(chunks[0]) != 20 || len(chunks[1]) != 20 || len(chunks[2]) != 10 {
		t.Errorf("chunk lengths = %d %d %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}
