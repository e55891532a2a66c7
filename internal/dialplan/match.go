package dialplan

import "regexp"

// anchoredMatch compiles expr (a tenant-declared, anchored-by-convention
// regex) and reports whether it matches destination. A compile failure
// is returned as (false, err); the caller treats it as "no match", so a
// malformed tenant-authored regex does not crash the resolver.
func anchoredMatch(expr, destination string) (bool, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return false, err
	}
	return re.MatchString(destination), nil
}
