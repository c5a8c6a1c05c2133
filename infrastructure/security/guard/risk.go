package guard

import "regexp"

// RiskLevel grades a synthesized artifact from 1 (read-only) to 5
// (destructive). Artifacts at ApprovalRiskLevel or above are routed to the
// review phase instead of straight to execution.
type RiskLevel int

// ApprovalRiskLevel is the grade at which execution requires approval.
const ApprovalRiskLevel RiskLevel = 4

type riskRule struct {
	name  string
	level RiskLevel
	re    *regexp.Regexp
}

// Graded by worst plausible effect, not likelihood. The classifier only
// sees source text; a match raises the artifact to at least that level.
var riskRules = []riskRule{
	{"destructive_fs", 5, regexp.MustCompile(`(?i)\b(rm\s+-rf|os\.RemoveAll|shutil\.rmtree|unlink|rmdir|format\s+c:)\b`)},
	{"privilege", 5, regexp.MustCompile(`(?i)\b(sudo|setuid|seteuid|chmod\s+[0-7]*7[0-7]*7)\b`)},
	{"process_spawn", 4, regexp.MustCompile(`(?i)\b(subprocess|exec\.Command|os\.system|popen|fork\s*\()`)},
	{"network_egress", 4, regexp.MustCompile(`(?i)\b(http\.Get|requests\.(get|post)|urllib|socket\.connect|net\.Dial|curl|wget)\b`)},
	{"env_access", 3, regexp.MustCompile(`(?i)\b(os\.environ|os\.Getenv|process\.env)\b`)},
	{"file_write", 3, regexp.MustCompile(`(?i)\b(os\.WriteFile|open\([^)]*['"]w|ioutil\.WriteFile|os\.Create)\b`)},
	{"file_read", 2, regexp.MustCompile(`(?i)\b(os\.ReadFile|open\(|ioutil\.ReadFile)\b`)},
}

// RiskReport is the grading of one artifact.
type RiskReport struct {
	Level            RiskLevel `json:"level"`
	MatchedRules     []string  `json:"matched_rules,omitempty"`
	RequiresApproval bool      `json:"requires_approval"`
}

// ClassifyArtifact grades source text. An artifact matching nothing is
// level 1: pure computation with no observable side effects.
func ClassifyArtifact(code string) RiskReport {
	report := RiskReport{Level: 1}
	for _, rule := range riskRules {
		if rule.re.MatchString(code) {
			report.MatchedRules = append(report.MatchedRules, rule.name)
			if rule.level > report.Level {
				report.Level = rule.level
			}
		}
	}
	report.RequiresApproval = report.Level >= ApprovalRiskLevel
	return report
}
