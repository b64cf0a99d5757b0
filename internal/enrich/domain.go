package enrich

import (
	"regexp"
	"strings"
)

var (
	// entitySuffix matches a trailing legal-entity word, e.g. "Acme, Inc".
	// A suffix followed by a period is kept: "Acme Corp." derives
	// acmecorp.com and "Acme Inc." derives acmeinc.com.
	entitySuffix  = regexp.MustCompile(`\s+(inc|llc|corp|corporation|company|co|ltd|limited)\s*$`)
	notDomainChar = regexp.MustCompile(`[^a-z0-9 ]`)
)

// DeriveDomain guesses a .com domain from a company name: the name is
// lower-cased, a trailing entity suffix is dropped, and everything except
// letters and digits is removed. Returns "" when nothing usable remains.
//
//	DeriveDomain("Acme, Inc")  == "acme.com"
//	DeriveDomain("Acme Corp.") == "acmecorp.com"
func DeriveDomain(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = entitySuffix.ReplaceAllString(n, "")
	n = notDomainChar.ReplaceAllString(n, "")
	n = strings.Join(strings.Fields(n), "")
	if n == "" {
		return ""
	}
	return n + ".com"
}

// NormalizeDomain reduces a URL or host to a bare lower-case domain:
// "https://www.Example.com/path?x=1" becomes "example.com". If nothing is
// left the trimmed input is returned unchanged.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(d, scheme) {
			d = d[len(scheme):]
			break
		}
	}
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?"); i >= 0 {
		d = d[:i]
	}
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimSpace(d)
	if d == "" {
		return strings.TrimSpace(raw)
	}
	return d
}

// resolveDomain picks the domain to enrich a record with: the domain column,
// then the website column, then one derived from the company name.
func resolveDomain(domain, website, company string) string {
	for _, candidate := range []string{domain, website} {
		if strings.TrimSpace(candidate) != "" {
			return NormalizeDomain(candidate)
		}
	}
	if derived := DeriveDomain(company); derived != "" {
		return NormalizeDomain(derived)
	}
	return ""
}
