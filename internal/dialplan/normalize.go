package dialplan

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// normalizeDomain strips non-alphanumeric characters and lowercases,
// for the inter-domain guard's equality check.
func normalizeDomain(s string) string {
	return strings.ToLower(nonAlnum.ReplaceAllString(s, ""))
}

var tenDigit = regexp.MustCompile(`^(\+?1?)?(\d{10})$`)

// matchOutboundPSTN reports whether destination looks like a 10-digit
// North American number (optionally prefixed with +1 or 1), and
// returns it reformatted as "+1" + the 10 captured digits.
func matchOutboundPSTN(destination string) (string, bool) {
	m := tenDigit.FindStringSubmatch(destination)
	if m == nil {
		return "", false
	}
	return "+1" + m[2], true
}

var externalDialOut = regexp.MustCompile(`^\+?\d{10,15}$`)

// matchExternalDialOut reports whether destination looks like a direct
// external number dialed from inside the tenant (step 5 of local
// dispatch).
func matchExternalDialOut(destination string) bool {
	return externalDialOut.MatchString(destination)
}

var regexMeta = regexp.MustCompile(`([.^$*+?()\[\]{}|\\])`)

// escapeRegexLiteral backslash-escapes regex metacharacters so a
// destination string can be embedded literally inside an anchored
// condition expression.
func escapeRegexLiteral(s string) string {
	return regexMeta.ReplaceAllString(s, `\$1`)
}

var xmlAttrEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
	`'`, "&apos;",
)

// escapeXMLAttr escapes XML-attribute-special characters. xmlgen writes
// the "expression" and action "data" attributes verbatim, so anything
// built from a call variable or other caller-supplied string must be
// escaped here before it reaches the emitter.
func escapeXMLAttr(s string) string {
	return xmlAttrEscaper.Replace(s)
}

// anchoredExpression returns the "^<escaped-destination>$" condition
// expression every emitted extension uses. The destination is first
// regex-escaped so it matches literally, then XML-escaped so a quote
// or angle bracket in the input can't break out of the attribute.
func anchoredExpression(destination string) string {
	return "^" + escapeXMLAttr(escapeRegexLiteral(destination)) + "$"
}

// normalizeUserID applies the same alphanumeric-lowercase comparison
// used when matching a destination against a SIP client's user_id.
func normalizeUserID(s string) string {
	return normalizeDomain(s)
}

// stripLeadingCountryCode removes a leading "+1" from a number, used
// when normalizing CNAM-enriched display name/number pairs.
func stripLeadingCountryCode(number string) string {
	return strings.TrimPrefix(number, "+1")
}

// normalizeDID gives a bare 10-digit DID a leading "+1" so lookups
// compare against the canonical stored form (invariant (e)).
func normalizeDID(did string) string {
	if len(did) == 10 && isAllDigits(did) {
		return "+1" + did
	}
	return did
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
