package puffin

import "github.com/bidfx-oss/pricing-go/pricing"

// statusAdaptor maps a Status message's numeric Id to a SubscriptionStatus,
// ported verbatim from puffin_provider.py's _status_adaptor table.
var statusAdaptor = []pricing.SubscriptionStatus{
	pricing.SubOK,
	pricing.SubPending,
	pricing.SubTimeout,
	pricing.SubStale,
	pricing.SubClosed,
	pricing.SubClosed,
	pricing.SubClosed,
	pricing.SubClosed,
	pricing.SubClosed,
	pricing.SubUnavailable,
	pricing.SubClosed,
	pricing.SubUnavailable,
	pricing.SubProhibited,
	pricing.SubStale,
	pricing.SubUnavailable,
	pricing.SubClosed,
	pricing.SubClosed,
	pricing.SubRejected,
	pricing.SubExhausted,
}

// adaptStatus resolves a Puffin status id to a SubscriptionStatus, falling
// back to SubUnavailable for any id the server sends beyond the known table.
func adaptStatus(statusID int) pricing.SubscriptionStatus {
	if statusID < 0 || statusID >= len(statusAdaptor) {
		return pricing.SubUnavailable
	}
	return statusAdaptor[statusID]
}
