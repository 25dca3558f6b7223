// Package extract recovers field values from a raw line by turning its
// mined template back into a capturing pattern.
package extract

import (
	"regexp"
	"strings"
)

// OrdinalKey is the parameter key carrying the record's original file
// position. Derived timestamps can fail or misparse, so the ordinal stays
// the canonical ordering key.
const OrdinalKey = "_Original_Line_Index"

var (
	tagPattern = regexp.MustCompile(`<[A-Z]+>`)

	// headerValuePattern re-extracts timestamp and hostname straight from
	// the raw line. The syslog header format is trusted, so these values
	// override anything the template-derived pattern guessed.
	headerValuePattern = regexp.MustCompile(`^([A-Z][a-z]{2}\s+\d+\s\d{2}:\d{2}:\d{2})\s+(\S+)`)

	whitespaceRun = regexp.MustCompile(`(?:\\?\s)+`)
)

// specialTags get tightly-scoped capture patterns; every other tag is a
// non-greedy catch-all.
var specialTags = map[string]string{
	"<TIMESTAMP>": `([A-Z][a-z]{2}\s+\d+\s\d{2}:\d{2}:\d{2})`,
	"<HOSTNAME>":  `(\S+)`,
}

// Extractor caches compiled per-template patterns across lines. Templates
// repeat heavily within a run, so the cache pays for itself quickly.
type Extractor struct {
	cache map[string]*compiledTemplate
}

type compiledTemplate struct {
	re   *regexp.Regexp
	tags []string
}

// New builds an Extractor with an empty pattern cache.
func New() *Extractor {
	return &Extractor{cache: make(map[string]*compiledTemplate)}
}

// Extract maps tag names to the values a canonicalized raw line holds at
// the template's tag positions. Extraction is conservative: if the pattern
// fails to compile, does not match, or wildcard markers leave more capture
// groups than named tags, the result is an empty map rather than a
// misaligned one.
func (e *Extractor) Extract(cleanRaw, template string) map[string]string {
	params := make(map[string]string)

	ct, ok := e.cache[template]
	if !ok {
		ct = compileTemplate(template)
		e.cache[template] = ct
	}
	if ct.re == nil {
		return params
	}

	m := ct.re.FindStringSubmatch(cleanRaw)
	if m == nil {
		return params
	}
	groups := m[1:]
	if len(groups) != len(ct.tags) {
		// Wildcard markers added unnamed captures; positional mapping
		// would misalign, so abandon this record.
		return params
	}

	for i, tag := range ct.tags {
		key := strings.Trim(tag, "<>")
		value := groups[i]
		if prev, dup := params[key]; dup {
			if !strings.Contains(prev, value) {
				params[key] = prev + ", " + value
			}
		} else {
			params[key] = value
		}
	}
	return params
}

// ExtractHeader pulls the trusted timestamp and hostname off the front of
// the raw line. ok is false when the line has no syslog header.
func ExtractHeader(rawLine string) (timestamp, hostname string, ok bool) {
	m := headerValuePattern.FindStringSubmatch(rawLine)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// compileTemplate turns a mined template into an anchored capturing
// pattern. A nil re means the template cannot be matched against.
func compileTemplate(template string) *compiledTemplate {
	pattern := regexp.QuoteMeta(template)

	// Literal whitespace becomes flexible: values vary in surrounding
	// spacing, and the non-greedy quantifier leaves the extra spaces to
	// the neighboring capture.
	pattern = whitespaceRun.ReplaceAllString(pattern, `\s+?`)

	// Wildcard markers capture too; the group-count check above decides
	// whether positional mapping is still safe.
	pattern = strings.ReplaceAll(pattern, regexp.QuoteMeta("<*>"), `(.*?)`)

	for tag, capture := range specialTags {
		pattern = strings.ReplaceAll(pattern, regexp.QuoteMeta(tag), capture)
	}

	tags := tagPattern.FindAllString(template, -1)
	for _, tag := range tags {
		if _, special := specialTags[tag]; special {
			continue
		}
		pattern = strings.ReplaceAll(pattern, regexp.QuoteMeta(tag), `(.*?)`)
	}

	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return &compiledTemplate{}
	}
	return &compiledTemplate{re: re, tags: tags}
}
