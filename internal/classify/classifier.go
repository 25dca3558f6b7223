// Package classify assigns severity levels and security tags to records
// using keyword tables. The tables ship with defaults tuned for Linux auth
// logs and can be overridden from a YAML file.
package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tinysift/sift/internal/model"
)

// Classifier applies the keyword tables to one record at a time.
type Classifier struct {
	tables Tables
}

// New builds a Classifier over the given tables.
func New(tables Tables) *Classifier {
	return &Classifier{tables: tables}
}

// LoadTables reads a YAML override file on top of the defaults. Lists
// present in the file replace the default list wholesale; absent lists keep
// their defaults.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("reading classify tables: %w", err)
	}
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return Tables{}, fmt.Errorf("parsing classify tables %s: %w", path, err)
	}
	return tables, nil
}

// Classify sets the record's Severity and Tags from its raw line and
// template text.
func (c *Classifier) Classify(r *model.LogRecord) {
	text := strings.ToLower(r.RawLine + " " + r.Template)
	r.Severity = c.severity(text)
	r.Tags = c.security(text, strings.ToLower(r.Service))
}

func (c *Classifier) severity(text string) model.Severity {
	for _, s := range c.tables.CriticalSuppressions {
		if strings.Contains(text, s) {
			return model.SeverityInfo
		}
	}
	for _, k := range c.tables.CriticalKeywords {
		if strings.Contains(text, k) {
			return model.SeverityCritical
		}
	}
	for _, k := range c.tables.WarningKeywords {
		if strings.Contains(text, k) {
			return model.SeverityWarning
		}
	}
	return model.SeverityInfo
}

func (c *Classifier) security(text, service string) []model.SecurityTag {
	var tags []model.SecurityTag
	for _, rule := range c.tables.securityRules() {
		if matchRule(rule, text, service) {
			tags = append(tags, rule.tag)
		}
	}
	return tags
}

func matchRule(rule securityRule, text, service string) bool {
	for _, p := range rule.textPhrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	for _, s := range rule.services {
		if strings.Contains(service, s) {
			return true
		}
	}
	return false
}
