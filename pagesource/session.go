package pagesource

import (
	"strings"
)

var blockMarkers = []string{
	"azure waf",
	"access denied",
	"request unsuccessful",
	"this request was blocked",
}

// SessionExpired reports whether a snapshot landed on a login page instead
// of the requested content, meaning the persisted session is no longer
// valid.
func SessionExpired(snap *Snapshot) bool {
	title := strings.ToLower(snap.Title)
	if strings.Contains(title, "login") || strings.Contains(title, "sign in") {
		return true
	}
	url := strings.ToLower(snap.URL)
	return strings.Contains(url, "login") || strings.Contains(url, "log-in")
}

// Blocked reports whether the page title carries a WAF or access-denied
// marker, a throttling signal rather than a content miss.
func Blocked(snap *Snapshot) bool {
	title := strings.ToLower(snap.Title)
	for _, marker := range blockMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return false
}

// LooksLikeLoginText reports whether extracted text is actually login-page
// chrome, which happens when the session expires mid-run and the detail page
// silently redirects.
func LooksLikeLoginText(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "login") || strings.Contains(t, "sign in")
}
