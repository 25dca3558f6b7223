package classify

import "github.com/tinysift/sift/internal/model"

// Keyword tables driving classification. A YAML override file can replace
// any of these lists wholesale; see LoadTables.

// Tables holds the keyword lists for severity and security tagging.
type Tables struct {
	CriticalKeywords     []string `yaml:"critical_keywords"`
	CriticalSuppressions []string `yaml:"critical_suppressions"`
	WarningKeywords      []string `yaml:"warning_keywords"`

	IllegalAccessPhrases   []string `yaml:"illegal_access_phrases"`
	AuthFailurePhrases     []string `yaml:"auth_failure_phrases"`
	PrivilegeServices      []string `yaml:"privilege_services"`
	PrivilegeTextMarkers   []string `yaml:"privilege_text_markers"`
	SuccessfulLoginPhrases []string `yaml:"successful_login_phrases"`
	SessionLogoutPhrases   []string `yaml:"session_logout_phrases"`
}

// DefaultTables returns the built-in keyword tables.
func DefaultTables() Tables {
	return Tables{
		CriticalKeywords: []string{"critical", "fatal", "panic", "emergency", "alert", "died"},
		// telnetd's "ttloop: peer died" is connection teardown noise, not
		// a crash.
		CriticalSuppressions: []string{"peer died"},
		WarningKeywords:      []string{"warning", "warn", "error", "refused", "failed"},

		IllegalAccessPhrases:   []string{"illegal", "invalid user"},
		AuthFailurePhrases:     []string{"authentication failure", "failed password", "couldn't authenticate"},
		PrivilegeServices:      []string{"sudo", "su"},
		PrivilegeTextMarkers:   []string{"uid=0", "id=0", "user=root"},
		SuccessfulLoginPhrases: []string{"session opened", "accepted"},
		SessionLogoutPhrases:   []string{"session closed", "logged out"},
	}
}

// securityRules maps each tag to the table lists that trigger it, in the
// fixed order tags are reported in.
func (t Tables) securityRules() []securityRule {
	return []securityRule{
		{model.TagIllegalAccess, t.IllegalAccessPhrases, nil},
		{model.TagAuthFailure, t.AuthFailurePhrases, nil},
		{model.TagPrivilegeActivity, t.PrivilegeTextMarkers, t.PrivilegeServices},
		{model.TagSuccessfulLogin, t.SuccessfulLoginPhrases, nil},
		{model.TagSessionLogout, t.SessionLogoutPhrases, nil},
	}
}

type securityRule struct {
	tag         model.SecurityTag
	textPhrases []string
	services    []string
}
