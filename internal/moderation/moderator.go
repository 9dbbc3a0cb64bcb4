package moderation

import "regexp"

// Maximum length of text accepted by the scanner; longer input is truncated
// to match the UI's own message limit.
const maxTextLength = 5000

// Placeholder tokens used when masking. They are chosen so that no detection
// or mask pattern ever matches them again, keeping sanitization idempotent.
const (
	maskPhone = "[TELEFONE REMOVIDO]"
	maskEmail = "[EMAIL REMOVIDO]"
	maskURL   = "[LINK REMOVIDO]"
	maskValue = "[VALOR REMOVIDO]"
)

// Result is the outcome of scanning one message. It is never persisted;
// callers store SanitizedText and surface Warning to the sender.
type Result struct {
	HasViolation  bool            `json:"has_violation"`
	Violations    []ViolationKind `json:"violations"`
	SanitizedText string          `json:"sanitized_text"`
	Warning       string          `json:"warning,omitempty"`
}

// Mask patterns are a separate, narrower set than the detection patterns:
// only phone numbers, e-mail addresses and URLs are rewritten. The other
// kinds are flagged but pass through unchanged; that asymmetry is policy.
var (
	maskEmailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
	}
	maskPhonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+55[\s.-]?\(?\d{2}\)?[\s.-]?\d{4,5}[\s.-]?\d{4}\b`),
		regexp.MustCompile(`\+\d{1,3}[\s.-]\d{4,10}\b`),
		regexp.MustCompile(`\(?\d{2}\)?[\s.-]?\d{4,5}[\s.-]?\d{4}\b`),
		regexp.MustCompile(`\b\d{4,5}[\s.-]\d{4}\b`),
	}
	maskURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://\S+`),
		regexp.MustCompile(`(?i)\bwww\.\S+`),
		regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9-]*\.(com|br|net|org|io|co|app|dev|site|online)\b(/\S*)?`),
	}
	currencyPattern = regexp.MustCompile(`R\$\s*\d+(\.\d{3})*(,\d{2})?`)
)

// Moderate scans free text for prohibited content. It is pure: no I/O, no
// shared state, safe to call concurrently. Any input yields a Result.
func Moderate(text string) Result {
	text = truncate(text)

	result := Result{SanitizedText: text}
	for i := range rules {
		rule := &rules[i]
		for _, p := range rule.Patterns {
			if p.MatchString(text) {
				result.Violations = append(result.Violations, rule.Kind)
				break
			}
		}
	}

	if len(result.Violations) == 0 {
		return result
	}

	result.HasViolation = true
	result.Warning = WarningOf(result.Violations[0])
	result.SanitizedText = maskText(text)
	return result
}

// HasSevereViolation reports whether the text contains at least one
// high-severity violation kind.
func HasSevereViolation(text string) bool {
	for _, kind := range Moderate(text).Violations {
		if SeverityOf(kind) == SeverityHigh {
			return true
		}
	}
	return false
}

// SanitizeProjectPosting applies the stricter variant used for project
// descriptions: phone numbers and e-mails are removed entirely, URLs are
// masked and currency amounts are replaced, so postings cannot anchor
// off-platform negotiation.
func SanitizeProjectPosting(text string) string {
	text = truncate(text)
	for _, p := range maskEmailPatterns {
		text = p.ReplaceAllString(text, "")
	}
	for _, p := range maskPhonePatterns {
		text = p.ReplaceAllString(text, "")
	}
	for _, p := range maskURLPatterns {
		text = p.ReplaceAllString(text, maskURL)
	}
	return currencyPattern.ReplaceAllString(text, maskValue)
}

// maskText rewrites only the high-confidence patterns. E-mails go first so
// their domain part is not half-eaten by the URL pass.
func maskText(text string) string {
	for _, p := range maskEmailPatterns {
		text = p.ReplaceAllString(text, maskEmail)
	}
	for _, p := range maskPhonePatterns {
		text = p.ReplaceAllString(text, maskPhone)
	}
	for _, p := range maskURLPatterns {
		text = p.ReplaceAllString(text, maskURL)
	}
	return text
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxTextLength {
		return text
	}
	return string(runes[:maxTextLength])
}
