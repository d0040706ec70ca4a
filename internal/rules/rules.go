// Package rules loads the declarative business-flow pattern library.
//
// Rules are configuration, not code: adding a new business-flow checklist
// means editing the YAML file, never touching a detector. A missing or
// malformed file falls back to the built-in minimal rule set so a bad
// config can degrade a run but never abort it.
package rules

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/guardlint/guardlint/internal/support"
)

// Element is one required element of a business-flow checklist.
type Element struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Optional bool     `yaml:"optional"`
}

// Rule describes what to detect and how severely to report it.
type Rule struct {
	ID               string    `yaml:"id"`
	DetectionPattern string    `yaml:"detection_pattern"`
	RequiredElements []Element `yaml:"required_elements"`
	Severity         string    `yaml:"severity"`
	FixStrategy      string    `yaml:"fix_strategy"`

	detect *regexp.Regexp
}

// Matches reports whether the rule's detection pattern hits the given
// function name or docstring.
func (r *Rule) Matches(name, docstring string) bool {
	if r.detect == nil {
		return false
	}
	return r.detect.MatchString(name) || (docstring != "" && r.detect.MatchString(docstring))
}

// Library is the immutable set of loaded rules, shared read-only across
// all analyzer workers.
type Library struct {
	Rules []Rule
	// FallbackReason is non-empty when the built-in rules are in use
	// because the configured file was missing or malformed.
	FallbackReason string
}

type ruleFile struct {
	Patterns []Rule `yaml:"patterns"`
}

// Load reads the pattern library from path. On any failure it returns the
// built-in library with FallbackReason set, never an unusable library.
func Load(path string) *Library {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return builtinWithReason("")
		}
		return builtinWithReason(fmt.Sprintf("read %s: %v", path, err))
	}
	var rf ruleFile
	if err := yaml.Unmarshal(support.StripBOM(data), &rf); err != nil {
		return builtinWithReason(fmt.Sprintf("parse %s: %v", path, err))
	}
	lib, err := compile(rf.Patterns)
	if err != nil {
		return builtinWithReason(err.Error())
	}
	if len(lib.Rules) == 0 {
		return builtinWithReason(fmt.Sprintf("%s defines no patterns", path))
	}
	return lib
}

func compile(rs []Rule) (*Library, error) {
	out := make([]Rule, 0, len(rs))
	for _, r := range rs {
		if r.ID == "" || r.DetectionPattern == "" {
			return nil, fmt.Errorf("pattern entries need id and detection_pattern")
		}
		re, err := regexp.Compile("(?i)" + r.DetectionPattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", r.ID, err)
		}
		r.detect = re
		if r.Severity == "" {
			r.Severity = "critical"
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return &Library{Rules: out}, nil
}

func builtinWithReason(reason string) *Library {
	lib, err := compile(builtinRules())
	if err != nil {
		// Built-in rules are static; a compile failure here is a programming
		// error, not a runtime condition.
		panic(err)
	}
	lib.FallbackReason = reason
	return lib
}

// builtinRules is the minimal compiled-in checklist set used when no
// pattern file is available.
func builtinRules() []Rule {
	return []Rule{
		{
			ID:               "password_reset",
			DetectionPattern: `reset.?password|password.?reset|forgot.?password`,
			Severity:         "critical",
			FixStrategy:      "Implement the full reset flow: generate a single-use token, persist it with an expiry, verify both on redemption, and invalidate the token after use.",
			RequiredElements: []Element{
				{Name: "token_generation", Keywords: []string{"token", "secrets.", "uuid", "random"}},
				{Name: "expiry_check", Keywords: []string{"expire", "expiry", "expiration", "ttl", "timeout", "valid_until"}},
				{Name: "token_invalidation", Keywords: []string{"invalidate", "delete", "used", "consume", "revoke"}},
				{Name: "notification", Keywords: []string{"email", "send", "notify", "sms"}, Optional: true},
			},
		},
		{
			ID:               "registration",
			DetectionPattern: `register|signup|sign.?up|create.?account`,
			Severity:         "critical",
			FixStrategy:      "Validate input, reject duplicate accounts, hash the password, and confirm the address before activating the account.",
			RequiredElements: []Element{
				{Name: "input_validation", Keywords: []string{"validate", "validation", "clean", "schema", "sanitize"}},
				{Name: "duplicate_check", Keywords: []string{"exists", "already", "duplicate", "unique"}},
				{Name: "password_hashing", Keywords: []string{"hash", "bcrypt", "argon2", "pbkdf2", "scrypt"}},
				{Name: "email_verification", Keywords: []string{"verify", "confirmation", "confirm", "activate"}, Optional: true},
			},
		},
		{
			ID:               "authentication",
			DetectionPattern: `\blogin\b|authenticate|sign.?in|\bauth\b`,
			Severity:         "critical",
			FixStrategy:      "Compare hashed credentials, throttle repeated failures, and establish a fresh session on success.",
			RequiredElements: []Element{
				{Name: "credential_check", Keywords: []string{"hash", "check_password", "verify", "compare"}},
				{Name: "rate_limiting", Keywords: []string{"rate", "limit", "throttle", "attempts", "lockout"}},
				{Name: "session_handling", Keywords: []string{"session", "jwt", "token", "cookie"}},
			},
		},
		{
			ID:               "payment",
			DetectionPattern: `payment|checkout|charge|billing`,
			Severity:         "critical",
			FixStrategy:      "Validate the amount server-side, make the charge idempotent, record an audit entry, and screen for fraud.",
			RequiredElements: []Element{
				{Name: "amount_validation", Keywords: []string{"amount", "validate", "positive", "decimal"}},
				{Name: "idempotency", Keywords: []string{"idempoten", "duplicate", "transaction_id", "already_processed"}},
				{Name: "audit_log", Keywords: []string{"audit", "log", "record", "history"}},
				{Name: "fraud_check", Keywords: []string{"fraud", "risk", "suspicious", "velocity"}, Optional: true},
			},
		},
	}
}
