package relay

import (
	"testing"

	"github.com/bridgeworks/slackrelay/internal/directory"
)

func TestRewrite(t *testing.T) {
	users := map[string]directory.User{
		"U1": {Name: "alice", AvatarURL: "https://img.example/alice_32.jpg"},
		"U2": {Name: "bob"},
	}
	channels := map[string]directory.Channel{
		"C1": {Name: "general"},
	}

	tests := []struct {
		name     string
		text     string
		alias    string
		expected string
	}{
		{
			name:     "plain text unchanged",
			text:     "just a normal message",
			expected: "just a normal message",
		},
		{
			name:     "resolvable user reference",
			text:     "hi <@U1>",
			expected: "hi @alice",
		},
		{
			name:     "unresolvable user reference kept",
			text:     "hi <@U9>",
			expected: "hi <@U9>",
		},
		{
			name:     "user reference with embedded fallback",
			text:     "<@U9|carol> uploaded a file",
			expected: "@carol uploaded a file",
		},
		{
			name:     "embedded fallback wins over lookup",
			text:     "<@U1|uploader> uploaded a file",
			expected: "@uploader uploaded a file",
		},
		{
			name:     "resolvable channel reference",
			text:     "see <#C1> for details",
			expected: "see #general for details",
		},
		{
			name:     "unresolvable channel reference kept",
			text:     "see <#C9> for details",
			expected: "see <#C9> for details",
		},
		{
			name:     "alias becomes broadcast mention",
			text:     "@acme hi",
			alias:    "acme",
			expected: "@channel hi",
		},
		{
			name:     "alias is case-insensitive",
			text:     "ping @ACME now",
			alias:    "acme",
			expected: "ping @channel now",
		},
		{
			name:     "alias only matches whole words",
			text:     "@acmecorp hi",
			alias:    "acme",
			expected: "@acmecorp hi",
		},
		{
			name:     "alias after punctuation",
			text:     "fyi: @acme",
			alias:    "acme",
			expected: "fyi: @channel",
		},
		{
			name:     "alias not matched inside a word",
			text:     "mail@acme is not a mention",
			alias:    "acme",
			expected: "mail@acme is not a mention",
		},
		{
			name:     "all passes combined",
			text:     "hi <@U1> and <@U9> in <#C1>, cc @acme",
			alias:    "acme",
			expected: "hi @alice and <@U9> in #general, cc @channel",
		},
		{
			name:     "escaped brackets are not references",
			text:     "test &lt;@wdoekes&gt; 1..2..3",
			expected: "test &lt;@wdoekes&gt; 1..2..3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rewrite(tt.text, users, channels, tt.alias)
			if got != tt.expected {
				t.Errorf("Rewrite(%q) = %q, want %q", tt.text, got, tt.expected)
			}
		})
	}
}

// Rewrite must be the identity on text with no tokens and no alias hits,
// no matter what the directory contains.
func TestRewriteIdempotent(t *testing.T) {
	texts := []string{
		"hello world",
		"a url <https://example.com/x_48.jpg> stays",
		"punctuation, everywhere!",
	}
	users := map[string]directory.User{"U1": {Name: "alice"}}

	for _, text := range texts {
		if got := Rewrite(text, users, nil, "acme"); got != text {
			t.Errorf("Rewrite(%q) = %q, want unchanged", text, got)
		}
		// A second pass over already-rewritten text must also be stable.
		once := Rewrite("hi <@U1>", users, nil, "")
		twice := Rewrite(once, users, nil, "")
		if once != twice {
			t.Errorf("second pass changed output: %q -> %q", once, twice)
		}
	}
}
