// Package redact applies the PII transform spec.md §6 requires before any
// text reaches the extractor.
package redact

import "regexp"

var (
	ssnPattern    = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	ccPattern     = regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
)

// Text replaces SSN-like, credit-card-like, and email-address substrings
// with fixed markers, in that order (SSNs and card numbers must be caught
// before a trailing domain-shaped token could be mistaken for part of an
// email match).
func Text(s string) string {
	s = ssnPattern.ReplaceAllString(s, "[SSN_REDACTED]")
	s = ccPattern.ReplaceAllString(s, "[CC_REDACTED]")
	s = emailPattern.ReplaceAllString(s, "[EMAIL_REDACTED]")
	return s
}
