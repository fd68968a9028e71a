package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPattern(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		self   string
		body   string
		ok     bool
		want   Match
	}{
		{"prefix", "!", "bot", "!ping now", true, Match{Lead: "!", Token: "ping", ArgString: " now"}},
		{"prefix with space", "!", "bot", "!  ping", true, Match{Lead: "!  ", Token: "ping", ArgString: ""}},
		{"mention", "!", "bot", "@bot ping x", true, Match{Lead: "@bot ", Token: "ping", ArgString: " x"}},
		{"mention and prefix", "!", "bot", "@bot !ping", true, Match{Lead: "@bot !", Token: "ping", ArgString: ""}},
		{"case insensitive mention", "!", "Bot", "@BOT ping", true, Match{Lead: "@BOT ", Token: "ping", ArgString: ""}},
		{"regex chars in prefix", ".*", "bot", ".*ping", true, Match{Lead: ".*", Token: "ping", ArgString: ""}},
		{"regex chars do not act as wildcards", ".*", "bot", "xxping", false, Match{}},
		{"word prefix", "bot", "1", "BOT ping", true, Match{Lead: "BOT ", Token: "ping", ArgString: ""}},
		{"prefix not at start", "!", "bot", "hey !ping", false, Match{}},
		{"mention without space", "!", "bot", "@botping", false, Match{}},
		{"empty prefix ignores prefix form", "", "bot", "!ping", false, Match{}},
		{"empty prefix mention", "", "bot", "@bot ping", true, Match{Lead: "@bot ", Token: "ping", ArgString: ""}},
		{"no-break space ends the token", "!", "bot", "!ping\u00a0x", true, Match{Lead: "!", Token: "ping", ArgString: "\u00a0x"}},
		{"ideographic space after mention", "!", "bot", "@bot\u3000ping", true, Match{Lead: "@bot\u3000", Token: "ping", ArgString: ""}},
		{"vertical tab after prefix", "!", "bot", "!\vping", true, Match{Lead: "!\v", Token: "ping", ArgString: ""}},
		{"no self", "!", "", "@ ping", false, Match{}},
		{"nothing to match", "", "", "@bot ping", false, Match{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := match(buildPattern(tt.prefix, tt.self), tt.body)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatternCache(t *testing.T) {
	var c patternCache

	first := c.get("!", "bot")
	assert.Same(t, first, c.get("!", "bot"))

	second := c.get("?", "bot")
	assert.NotSame(t, first, second)
	_, ok := match(second, "?ping")
	assert.True(t, ok)

	third := c.get("?", "other")
	_, ok = match(third, "@other ping")
	assert.True(t, ok)
	_, ok = match(third, "@bot ping")
	assert.False(t, ok)
}
