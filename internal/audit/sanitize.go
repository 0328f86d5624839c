package audit

import (
	"fmt"
	"regexp"
	"strings"
)

// piiFields are the structured field names scrubbed from free-text log and
// error strings before they are written anywhere.
const piiFields = `forename|surname|mobile|email|location|dateOfBirth`

var (
	// "forename": "Jane"  /  "email":"jane@example.org"
	quotedPII = regexp.MustCompile(`(?i)"(` + piiFields + `)"\s*:\s*"[^"]*"`)
	// forename=Jane  /  email=jane@example.org
	unquotedPII = regexp.MustCompile(`(?i)\b(` + piiFields + `)=[^\s,}]*`)

	// Separator debris left behind once fields are removed.
	doubleComma   = regexp.MustCompile(`,(\s*,)+`)
	openingComma  = regexp.MustCompile(`([{\[(])\s*,\s*`)
	closingComma  = regexp.MustCompile(`\s*,\s*([}\])])`)
	trailingComma = regexp.MustCompile(`\s*,\s*$`)
)

// Sanitize strips known PII field patterns from an arbitrary message and
// appends a context tag carrying only the crn and uuid. This is a textual
// best-effort filter over strings we do not control (upstream error bodies,
// wrapped exceptions), not a structural guarantee; audit rows themselves are
// built from non-PII fields only.
func Sanitize(message string, crn, uuid string) string {
	out := quotedPII.ReplaceAllString(message, "")
	out = unquotedPII.ReplaceAllString(out, "")

	out = doubleComma.ReplaceAllString(out, ",")
	out = openingComma.ReplaceAllString(out, "$1")
	out = closingComma.ReplaceAllString(out, "$1")
	out = trailingComma.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)

	return fmt.Sprintf("%s (crn=%s, uuid=%s)", out, crn, uuid)
}
