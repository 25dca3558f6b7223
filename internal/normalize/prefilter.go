package normalize

import "strings"

// baseBlacklist lists housekeeping process names whose lines carry no
// security signal. Matching is prefix-based against the syslog process
// token (fifth whitespace field).
var baseBlacklist = []string{
	// Hardware & boot
	"kernel", "rc", "irqbalance", "sysctl", "network", "random", "udev",
	"apmd", "smartd", "init",
	// Peripherals
	"bluetooth", "sdpd", "hcid", "cups", "gpm",
	// System housekeeping
	"logrotate", "syslog", "klogd", "crond", "anacron", "atd", "readahead",
	"messagebus", "ntpd", "dd",
	// Network plumbing
	"rpc.statd", "rpcidmapd", "portmap", "nfslock", "automount", "ifup",
	"netfs", "autofs",
	// Proxies & servers
	"privoxy", "squid", "sendmail", "spamassassin", "httpd", "xfs",
	"IIim", "htt", "htt_server", "canna", "named", "rsyncd", "mysqld", "FreeWnn",
}

// Prefilter drops noise lines from housekeeping daemons before analysis.
type Prefilter struct {
	keywords []string
}

// NewPrefilter builds a Prefilter from the base blacklist plus any extra
// keywords from configuration.
func NewPrefilter(extra ...string) *Prefilter {
	kw := make([]string, 0, len(baseBlacklist)+len(extra))
	kw = append(kw, baseBlacklist...)
	for _, e := range extra {
		e = strings.TrimSpace(e)
		if e != "" {
			kw = append(kw, e)
		}
	}
	return &Prefilter{keywords: kw}
}

// Match returns the blacklist keyword the line's process token matches, or
// "" to keep the line. Lines too short to carry a process token are kept.
func (p *Prefilter) Match(line string) string {
	tokens := strings.Fields(strings.TrimSpace(line))
	if len(tokens) < 5 {
		return ""
	}
	process := tokens[4]
	for _, kw := range p.keywords {
		if strings.HasPrefix(process, kw) {
			return kw
		}
	}
	return ""
}

// Keywords returns the active blacklist, for reporting.
func (p *Prefilter) Keywords() []string {
	out := make([]string, len(p.keywords))
	copy(out, p.keywords)
	return out
}
