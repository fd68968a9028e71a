package dispatcher

import (
	"regexp"
	"sync"
)

// Match is a message body split into the command token and the text after it.
type Match struct {
	// Lead is the matched prefix or mention, including trailing space.
	Lead      string
	Token     string
	ArgString string
}

// space matches what unicode.IsSpace accepts, so the pattern and ParseArgs
// split on the same characters.
const (
	space    = `[\s\v\x{85}\p{Zs}]`
	notSpace = `[^\s\v\x{85}\p{Zs}]`
)

// buildPattern compiles the invocation pattern. Group 1 is the lead, group 2
// the command token. With no prefix only the mention form matches.
func buildPattern(prefix, self string) *regexp.Regexp {
	var mention, lead string
	if self != "" {
		mention = `@` + regexp.QuoteMeta(self) + space + `+`
	}

	switch {
	case prefix == "" && mention == "":
		return nil
	case prefix == "":
		lead = mention
	case mention == "":
		lead = regexp.QuoteMeta(prefix) + space + `*`
	default:
		p := regexp.QuoteMeta(prefix)
		lead = mention + `(?:` + p + space + `*)?|` + p + space + `*`
	}
	return regexp.MustCompile(`(?i)^(` + lead + `)(` + notSpace + `+)`)
}

// patternCache holds the compiled pattern for the current prefix and self
// address and rebuilds it when either changes.
type patternCache struct {
	mu      sync.Mutex
	prefix  string
	self    string
	built   bool
	pattern *regexp.Regexp
}

func (c *patternCache) get(prefix, self string) *regexp.Regexp {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.built || c.prefix != prefix || c.self != self {
		c.pattern = buildPattern(prefix, self)
		c.prefix, c.self, c.built = prefix, self, true
	}
	return c.pattern
}

func match(re *regexp.Regexp, body string) (Match, bool) {
	if re == nil {
		return Match{}, false
	}
	loc := re.FindStringSubmatchIndex(body)
	if loc == nil {
		return Match{}, false
	}
	return Match{
		Lead:      body[loc[2]:loc[3]],
		Token:     body[loc[4]:loc[5]],
		ArgString: body[loc[5]:],
	}, true
}
