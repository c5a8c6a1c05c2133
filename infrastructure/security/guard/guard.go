// Package guard screens session input for prompt-injection attacks and
// classifies synthesized artifacts by risk. It sits before perception in
// the cognitive graph; blocked input never reaches a reasoner.
package guard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/praxis-agent/praxis/domain/ledger"
)

// DefaultThreshold is the suspicion score at or above which input is blocked.
const DefaultThreshold = 0.7

// perMatchScore is the suspicion contributed by each matched pattern,
// capped at 1.0 total.
const perMatchScore = 0.3

type pattern struct {
	name string
	re   *regexp.Regexp
}

// Known injection shapes. The prefilter is deliberately cheap: it catches
// the obvious attacks locally; subtle ones are a collaborator's problem.
var injectionPatterns = []pattern{
	{"instruction_override", regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|above|prior)\s+(instructions|prompts|rules)`)},
	{"role_override", regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|the|DAN|unrestricted|unfiltered)`)},
	{"jailbreak_dan", regexp.MustCompile(`(?i)\b(DAN|do\s+anything\s+now|developer\s+mode|unrestricted\s+mode)\b`)},
	{"system_prompt_leak", regexp.MustCompile(`(?i)(show|reveal|print|output|repeat)\s+(your\s+)?(system\s+prompt|instructions|rules)`)},
	{"prompt_delimiter", regexp.MustCompile(`(?i)(---+|===+|###)\s*(system|instruction|prompt)`)},
	{"encoding_trick", regexp.MustCompile(`(?i)(base64|rot13|hex)\s*(decode|encode|convert)`)},
}

// Result is the outcome of one input scan.
type Result struct {
	SuspicionScore  float64  `json:"suspicion_score"`
	FlaggedPatterns []string `json:"flagged_patterns,omitempty"`
	Blocked         bool     `json:"blocked"`
	SanitizedInput  string   `json:"sanitized_input"`
}

// Guard is the injection prefilter. Stateless apart from configuration;
// safe for concurrent use.
type Guard struct {
	threshold float64
	audit     *ledger.Ledger
}

// Option configures a Guard.
type Option func(*Guard)

// WithThreshold overrides the blocking threshold.
func WithThreshold(t float64) Option {
	return func(g *Guard) { g.threshold = t }
}

// New creates a guard writing scan outcomes to the given ledger.
func New(audit *ledger.Ledger, opts ...Option) *Guard {
	g := &Guard{threshold: DefaultThreshold, audit: audit}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Analyze scans input text. Blocked input comes back with an empty
// sanitized form so a careless caller cannot forward the raw text. The
// scan outcome is audited before Analyze returns.
func (g *Guard) Analyze(text string) Result {
	res := g.scan(text)

	if g.audit != nil {
		outcome := ledger.OutcomeAllowed
		if res.Blocked {
			outcome = ledger.OutcomeDenied
		}
		_, _ = g.audit.Append(ledger.Entry{
			Category: ledger.CategoryGuard,
			Action:   "injection.scan",
			Actor:    "guard",
			Outcome:  outcome,
			Details: map[string]string{
				"score":    formatScore(res.SuspicionScore),
				"patterns": strings.Join(res.FlaggedPatterns, ","),
			},
		})
	}
	return res
}

func (g *Guard) scan(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{SanitizedInput: text}
	}

	var flagged []string
	for _, p := range injectionPatterns {
		if p.re.MatchString(text) {
			flagged = append(flagged, p.name)
		}
	}
	if len(flagged) == 0 {
		return Result{SanitizedInput: text}
	}

	score := float64(len(flagged)) * perMatchScore
	if score > 1.0 {
		score = 1.0
	}

	res := Result{
		SuspicionScore:  score,
		FlaggedPatterns: flagged,
		Blocked:         score >= g.threshold,
	}
	if !res.Blocked {
		res.SanitizedInput = text
	}
	return res
}

func formatScore(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
