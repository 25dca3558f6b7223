package normalize

import (
	"regexp"
	"time"

	"github.com/dlclark/regexp2"
)

// ruleTimeout bounds backtracking in the lookaround rules so a hostile
// line cannot stall the pipeline.
const ruleTimeout = 500 * time.Millisecond

// rule is one rewrite step. Rules that need lookaround compile under
// regexp2; everything else stays on the stdlib RE2 engine.
type rule struct {
	name    string
	std     *regexp.Regexp
	look    *regexp2.Regexp
	replace string
}

func (r rule) apply(s string) string {
	if r.std != nil {
		return r.std.ReplaceAllString(s, r.replace)
	}
	out, err := r.look.Replace(s, r.replace, -1, -1)
	if err != nil {
		// Timeout or engine error: leave the text untouched rather than
		// emit a half-rewritten line.
		return s
	}
	return out
}

func stdRule(name, pattern, replace string) rule {
	return rule{name: name, std: regexp.MustCompile(pattern), replace: replace}
}

func lookRule(name, pattern, replace string) rule {
	re, err := regexp2.Compile(pattern, 0)
	if err != nil {
		panic("normalize: bad rule " + name + ": " + err.Error())
	}
	re.MatchTimeout = ruleTimeout
	return rule{name: name, look: re, replace: replace}
}

// maskRules is the ordered rewrite table. Order is load-bearing:
// context-bound rules (rhost=, uid parentheticals, connection-from) must run
// before the generic catch-alls (naked IPv4, bare "user <token>") or the
// generic rule would consume text meant for a specific tag. Do not reorder.
var maskRules = []rule{
	// Context-bound rules first.
	stdRule("addr-in-use", `\(Address already in use \(errno = \d+\)\)`, "(Address already in use (errno = <NUM>))"),
	stdRule("failed-login-count", `FAILED LOGIN\s+\d+`, "FAILED LOGIN <NUM>"),
	stdRule("fd-number", `fd\s+\d+`, "fd <NUM>"),
	stdRule("seconds", `\b\d+\s+seconds`, "<NUM> seconds"),
	stdRule("comparison", `\b\d+\s*([<>=!]+)\s*\d+`, "<NUM> ${1} <NUM>"),
	stdRule("bad-username", `bad username\s*\[.*?\]`, "bad username [<USERNAME>]"),
	stdRule("password-changed", `password changed for\s+\S+`, "password changed for <USERNAME>"),
	stdRule("for-clause", `FOR\s+.*?,`, "FOR <USERNAME>,"),
	stdRule("uid-parenthetical", `\b(?:\w+)?\(uid=\d+\)`, "(uid=<UID>)"),
	stdRule("connect-from", `([cC]onnect(?:ion)? from)\s+\S+`, "${1} <RHOST>"),
	// State words are not masked when they introduce a clause ("startup:").
	lookRule("state-word", `\b(startup|shutdown|opened|closed)\b(?!:)`, "<STATE>"),
	stdRule("anonymous-ftp", `ANONYMOUS FTP LOGIN FROM .+`, "ANONYMOUS FTP LOGIN FROM <RHOST>"),
	stdRule("euid", `\beuid=\d+`, "euid=<EUID>"),
	stdRule("tty", `\btty=\S+`, "tty=<TTY>"),

	// Generic catch-alls last.
	stdRule("full-timestamp", `\w{3}\s+\w{3}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2}\s+\d{4}`, "<TIMESTAMP>"),
	stdRule("bracketed-pid", `\[\d+\]`, "[<PID>]"),
	stdRule("prefixed-uid", `\b(\w+)\(uid=\d+\)`, "${1}(uid=<UID>)"),
	stdRule("uid", `\buid=\d+`, "uid=<UID>"),
	stdRule("user-assignment", `user=\S+`, "user=<USERNAME>"),
	// "user does not exist" keeps its phrasing; anything else after "user"
	// is a username.
	lookRule("user-word", `user\s+(?!does\b)\S+`, "user <USERNAME>"),
	// Parenthetical remote hosts, excluding uid annotations, errno text,
	// the ftpd marker, and byte-count annotations like "(36 chars)".
	lookRule("paren-rhost", `(?<=\s)\((?!uid=|Address|errno|ftpd|.*?chars)[^)]*\)`, "(<RHOST>)"),
	stdRule("rhost-assignment", `rhost=\S+`, "rhost=<RHOST>"),
	lookRule("naked-ipv4", `(?<!\d)\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}(?!\d)(?::\d+)?`, "<RHOST>"),
}

// RuleNames returns the rule names in evaluation order, for auditing.
func RuleNames() []string {
	names := make([]string, len(maskRules))
	for i, r := range maskRules {
		names[i] = r.name
	}
	return names
}
