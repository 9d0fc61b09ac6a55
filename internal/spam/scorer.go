// Package spam scores messages with a fixed set of additive heuristics.
package spam

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// Rule weights.
const (
	SubjectKeywordWeight   = 12
	BodyKeywordWeight      = 8
	AllCapsSubjectWeight   = 20
	ExclamationWeight      = 10
	DollarWeight           = 10
	ReportedSenderWeight   = 40
	SuspiciousSenderWeight = 15

	// SpamThreshold is the lowest score classified as spam.
	SpamThreshold = 50
	// HighConfidenceThreshold is the lowest score reported with high confidence.
	HighConfidenceThreshold = 75

	MaxScore = 100
)

// Confidence levels.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Keywords are matched case-insensitively as substrings.
var Keywords = []string{
	"act now",
	"buy now",
	"click here",
	"congratulations",
	"credit card",
	"earn money",
	"exclusive deal",
	"free",
	"guaranteed",
	"inheritance",
	"limited time",
	"lottery",
	"make money",
	"no cost",
	"prize",
	"risk-free",
	"urgent",
	"viagra",
	"winner",
	"wire transfer",
}

var strictPolicy = bluemonday.StrictPolicy()

// keywordPatterns match Keywords with Unicode case folding on the original text,
// so match offsets stay valid whatever the casing of the input.
var keywordPatterns = compileKeywords(Keywords)

func compileKeywords(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		patterns[i] = regexp.MustCompile("(?i)" + regexp.QuoteMeta(kw))
	}
	return patterns
}

// Input is the message being scored. Body may be plain text or HTML.
type Input struct {
	Subject        string
	Body           string
	Sender         string
	SenderReported bool
}

// Result is the outcome of Score.
type Result struct {
	Score      int      `json:"score"`
	IsSpam     bool     `json:"is_spam"`
	Confidence string   `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// Score applies every rule to in and sums the weights of those that match.
// Adding keyword occurrences never lowers the score.
func Score(in Input) Result {
	subject := in.Subject
	body := PlainText(in.Body)

	score := 0
	reasons := []string{}

	for i, kw := range Keywords {
		pattern := keywordPatterns[i]
		if n := len(pattern.FindAllStringIndex(subject, -1)); n > 0 {
			score += n * SubjectKeywordWeight
			reasons = append(reasons, fmt.Sprintf("subject contains %q (x%d)", kw, n))
		}
		if n := len(pattern.FindAllStringIndex(body, -1)); n > 0 {
			score += n * BodyKeywordWeight
			reasons = append(reasons, fmt.Sprintf("body contains %q (x%d)", kw, n))
		}
	}

	if isAllCaps(stripKeywords(subject)) {
		score += AllCapsSubjectWeight
		reasons = append(reasons, "subject is all caps")
	}

	text := subject + " " + body
	if strings.Count(text, "!") >= 3 {
		score += ExclamationWeight
		reasons = append(reasons, "excessive exclamation marks")
	}
	if strings.Count(text, "$") >= 3 {
		score += DollarWeight
		reasons = append(reasons, "excessive dollar signs")
	}

	if in.SenderReported {
		score += ReportedSenderWeight
		reasons = append(reasons, "sender was previously reported")
	}
	if SuspiciousLocalPart(in.Sender) {
		score += SuspiciousSenderWeight
		reasons = append(reasons, "suspicious sender address")
	}

	if score > MaxScore {
		score = MaxScore
	}
	if score < 0 {
		score = 0
	}

	return Result{
		Score:      score,
		IsSpam:     score >= SpamThreshold,
		Confidence: confidence(score),
		Reasons:    reasons,
	}
}

// PlainText reduces an HTML body to its text. Plain bodies are returned unchanged.
func PlainText(body string) string {
	if !strings.Contains(body, "<") || !strings.Contains(body, ">") {
		return body
	}
	return html.UnescapeString(strictPolicy.Sanitize(body))
}

// SuspiciousLocalPart flags generated-looking sender names: all digits,
// a run of four or more digits, or twenty or more characters mixing letters and digits.
func SuspiciousLocalPart(sender string) bool {
	local := sender
	if at := strings.LastIndex(sender, "@"); at >= 0 {
		local = sender[:at]
	}
	local = strings.TrimSpace(local)
	if local == "" {
		return false
	}

	var letters, digits, run, maxRun int
	for _, r := range local {
		switch {
		case unicode.IsDigit(r):
			digits++
			run++
			if run > maxRun {
				maxRun = run
			}
		default:
			if unicode.IsLetter(r) {
				letters++
			}
			run = 0
		}
	}

	switch {
	case digits == len([]rune(local)):
		return true
	case maxRun >= 4:
		return true
	case len([]rune(local)) >= 20 && letters > 0 && digits > 0:
		return true
	}
	return false
}

// isAllCaps needs at least five letters and no lowercase ones.
func isAllCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 5
}

// stripKeywords blanks keyword matches so the caps rule only sees the rest of the subject.
func stripKeywords(s string) string {
	out := []byte(s)
	for _, pattern := range keywordPatterns {
		for _, loc := range pattern.FindAllStringIndex(s, -1) {
			for k := loc[0]; k < loc[1]; k++ {
				out[k] = ' '
			}
		}
	}
	return string(out)
}

func confidence(score int) string {
	switch {
	case score >= HighConfidenceThreshold:
		return ConfidenceHigh
	case score >= SpamThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
