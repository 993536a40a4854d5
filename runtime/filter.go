package runtime

import "strings"

// Acceptable is the acceptance filter for responder replies: after
// trimming, a reply must be non-empty and contain at least three
// whitespace-separated tokens. One or two word non-answers ("ok",
// "sure thing") and empty stay-silent replies are dropped before they
// reach the ledger or any client.
func Acceptable(reply string) bool {
	return len(strings.Fields(reply)) >= 3
}
