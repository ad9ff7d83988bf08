package analysis

import (
	"regexp"
	"strings"
)

// unknownKey is the clustering key of last resort, used when a
// transaction has neither a usable description nor a counterparty id.
const unknownKey = "unknown"

// stripRule removes one class of noise token from a lowercased
// description. Rules run in order; each is a pure removal, so the
// pipeline converges to a fixed point.
type stripRule struct {
	re   *regexp.Regexp
	repl string
}

var stripRules = []stripRule{
	// Statement separators like "PAYPAL *SPOTIFY" or "SQ_COFFEE".
	{regexp.MustCompile(`[*_|]+`), " "},
	// Payment-processor prefixes carry no merchant signal.
	{regexp.MustCompile(`^\s*(?:paypal|pp|sq|sumup|zettle|izettle)\s+`), ""},
	// Store and branch numbers: "store #1234", "branch 42".
	{regexp.MustCompile(`\b(?:store|branch|shop|outlet|till)\s*#?\s*\d+\b`), " "},
	// Reference codes: "ref: ab123", "reference x9".
	{regexp.MustCompile(`\bref(?:erence)?[:.]?\s*[a-z0-9-]+\b`), " "},
	// Card terminal identifiers: "crd 0123", "card 9876".
	{regexp.MustCompile(`\b(?:crd|card)\s*\d+\b`), " "},
	// Digit-heavy tokens are transaction or terminal references, not
	// merchant words. Short numbers (store "123") are left alone.
	{regexp.MustCompile(`\b[a-z]{0,3}\d{5,}[a-z0-9]*\b`), " "},
	// Trailing city, region and company-suffix tokens.
	{regexp.MustCompile(`(?:\s+(?:london|manchester|birmingham|leeds|glasgow|edinburgh|bristol|liverpool|cardiff|dublin|amsterdam|luxembourg|stockholm|dun laoghaire|gb|gbr|uk|ie|nl|lu|ltd|plc|llc|inc))+$`), ""},
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// aliases maps normalized keys that still vary per statement onto one
// stable key. Values must themselves be fixed points of the pipeline.
var aliases = map[string]string{
	"amzn":         "amazon",
	"amzn mktp":    "amazon",
	"amazon.co.uk": "amazon",
	"amazon mktpl": "amazon",
	"netflix com":  "netflix.com",
	"spotify ab":   "spotify",
	"tfl travel":   "tfl",
	"tfl travel ch": "tfl",
}

// Normalize canonicalizes a raw merchant description into a stable
// clustering key. It is deterministic and idempotent: normalizing an
// already-normalized key returns it unchanged. When the description
// reduces to nothing it falls back to the counterparty id, and failing
// that to a fixed "unknown" key, so every transaction is clusterable.
func Normalize(raw, counterpartyID string) string {
	key := normalizeKey(raw)
	if key == "" {
		key = normalizeKey(counterpartyID)
	}
	if key == "" {
		return unknownKey
	}
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

// normalizeKey runs the strip pipeline to a fixed point. A single pass
// is almost always enough; the loop guards the idempotence contract for
// inputs where one removal exposes another.
func normalizeKey(raw string) string {
	key := strings.ToLower(raw)
	for range [3]struct{}{} {
		prev := key
		for _, rule := range stripRules {
			key = rule.re.ReplaceAllString(key, rule.repl)
		}
		key = whitespaceRe.ReplaceAllString(key, " ")
		key = strings.Trim(key, " -#*")
		key = strings.TrimSuffix(key, ".")
		if key == prev {
			break
		}
	}
	return key
}
