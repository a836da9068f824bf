package pricing

import "context"

// Protocol identifies which wire protocol a PriceProvider implements.
type Protocol string

const (
	// ProtocolPixie is the binary protocol used for exclusive, tradable
	// price streams and RFQ.
	ProtocolPixie Protocol = "Pixie"
	// ProtocolPuffin is the XML protocol used for shared, indicative price
	// streams such as exchange-listed pricing.
	ProtocolPuffin Protocol = "Puffin"
)

// Provider encapsulates the operations of an underlying price provider
// implementation, ported from bidfx/pricing/provider.py's PriceProvider, and
// shaped after the teacher's provider.Provider interface.
type Provider interface {
	// Start connects to and manages the upstream service asynchronously,
	// running until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop tears down the connection and any background goroutines.
	Stop()

	// Subscribe requests real-time price publication for subject.
	Subscribe(subject Subject)

	// Unsubscribe cancels a previous Subscribe call.
	Unsubscribe(subject Subject)
}

// disabledProvider is returned in place of a real provider when a protocol
// has been turned off by configuration, mirroring the source's
// DisabledProvider.
type disabledProvider struct{}

// NewDisabledProvider returns a Provider that does nothing; used to turn off
// one of the two protocols via configuration without special-casing the
// façade's dispatch logic.
func NewDisabledProvider() Provider { return disabledProvider{} }

func (disabledProvider) Start(context.Context) error { return nil }
func (disabledProvider) Stop()                       {}
func (disabledProvider) Subscribe(Subject)            {}
func (disabledProvider) Unsubscribe(Subject)          {}
