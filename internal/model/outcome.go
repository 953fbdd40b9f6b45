package model

// OutcomeKind classifies the terminal result of a bridge request.
type OutcomeKind string

const (
	// OutcomeRedirected means a checkout was created and the buyer should
	// be sent to its URL.
	OutcomeRedirected OutcomeKind = "redirected"

	// OutcomeFallback means the request could not be bridged and the buyer
	// should be sent back to the origin store's cart.
	OutcomeFallback OutcomeKind = "fallback"

	// OutcomeRejected means the request failed and the deployment's failure
	// policy is strict: the caller receives an error response.
	OutcomeRejected OutcomeKind = "rejected"
)

// Outcome is the terminal result of one bridge request. Exactly one of
// URL (redirected/fallback) or Err (rejected) is meaningful.
type Outcome struct {
	Kind OutcomeKind
	URL  string
	Err  error

	// Matched lists the successfully bridged items, for notification.
	Matched []MatchedItem

	// Unmatched lists requested SKUs that had no catalog match. Diagnostic
	// only; misses never fail a request on their own.
	Unmatched []string
}

// Redirected builds a success outcome pointing at the created checkout.
func Redirected(url string) *Outcome {
	return &Outcome{Kind: OutcomeRedirected, URL: url}
}

// FallbackRedirected builds an outcome sending the buyer back to the
// origin cart.
func FallbackRedirected(url string) *Outcome {
	return &Outcome{Kind: OutcomeFallback, URL: url}
}

// Rejected builds a strict-policy failure outcome.
func Rejected(err error) *Outcome {
	return &Outcome{Kind: OutcomeRejected, Err: err}
}
