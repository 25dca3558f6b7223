// Package normalize rewrites volatile substrings of syslog lines into
// stable placeholder tags before template mining. The rewrite pipeline is
// an ordered rule list and is idempotent: feeding its own output back in
// leaves already-placed tags untouched.
package normalize

import (
	"regexp"
	"strings"
)

var (
	// headerPattern matches the fixed-width syslog prefix: three-letter
	// month, day, time, then the hostname token.
	headerPattern = regexp.MustCompile(`^([A-Z][a-z]{2}\s+\d+\s\d{2}:\d{2}:\d{2})\s+(\S+)`)

	// trailingTimestampPattern matches the redundant duplicate timestamp
	// some daemons append, e.g. " at Sat Jun 18 02:08:12 2005".
	trailingTimestampPattern = regexp.MustCompile(`\s+at\s+\w{3}\s+\w{3}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2}\s+\d{4}$`)

	// loginUIDPattern canonicalizes "LOGIN(uid=0)" to "(uid=0)" so raw
	// lines line up with the mined template.
	loginUIDPattern = regexp.MustCompile(`\b\w+\(uid=`)

	// ftpdHostPattern matches ftpd's "connection from ip (resolved)" form.
	ftpdHostPattern = regexp.MustCompile(`(connection from)\s+(\d{1,3}(?:\.\d{1,3}){3})\s*\(([^)]*)\)`)
)

// Normalizer applies the ordered rewrite pipeline. It is stateless after
// construction and safe to reuse across lines within a run.
type Normalizer struct {
	rules []rule
}

// New builds a Normalizer with the fixed rule table.
func New() *Normalizer {
	return &Normalizer{rules: maskRules}
}

// Normalize converts one raw line into its tagged form for the clustering
// engine: canonicalize, replace the trusted header with tags, then run the
// masking rules in order.
func (n *Normalizer) Normalize(line string) string {
	out := StripTrailingTimestamp(line)
	out = FlattenFTPDHost(out)
	out = headerPattern.ReplaceAllString(out, "<TIMESTAMP> <HOSTNAME>")
	out = strings.TrimSpace(out)
	for _, r := range n.rules {
		out = r.apply(out)
	}
	return out
}

// CanonicalizeRaw prepares the original line for parameter extraction:
// the same canonicalizers as Normalize, but no header tagging and no
// masking, so field values survive.
func (n *Normalizer) CanonicalizeRaw(line string) string {
	out := StripTrailingTimestamp(line)
	out = loginUIDPattern.ReplaceAllString(out, "(uid=")
	out = FlattenFTPDHost(out)
	return out
}

// StripTrailingTimestamp removes a redundant duplicate timestamp from the
// end of the line.
func StripTrailingTimestamp(line string) string {
	return trailingTimestampPattern.ReplaceAllString(line, "")
}

// FlattenFTPDHost rewrites "connection from 1.2.3.4 (host)" so that an
// empty resolved name does not leave dangling parentheses behind.
func FlattenFTPDHost(line string) string {
	return ftpdHostPattern.ReplaceAllStringFunc(line, func(m string) string {
		parts := ftpdHostPattern.FindStringSubmatch(m)
		inner := strings.TrimSpace(parts[3])
		if inner == "" {
			return parts[1] + " " + parts[2]
		}
		return parts[1] + " " + parts[2] + " (" + inner + ")"
	})
}
