package pricing

import "context"

// Facade is the top-level pricing interface: it implements Provider itself
// by routing each call to one of two underlying providers, Pixie for
// exclusive/tradable FX subjects and Puffin for everything else, exactly as
// bidfx/pricing/pricing.py's PricingAPI routes between them. Construction of
// the underlying providers from configuration lives outside this package
// (in the top-level session wiring) to avoid a dependency cycle between
// pricing and the protocol packages that import it.
type Facade struct {
	pixie     Provider
	puffin    Provider
	callbacks *Callbacks
	builder   *SubjectBuilder
}

// NewFacade assembles a Facade from already-constructed Pixie and Puffin
// providers. Pass NewDisabledProvider() for a protocol turned off by
// configuration.
func NewFacade(pixie, puffin Provider, callbacks *Callbacks, builder *SubjectBuilder) *Facade {
	if callbacks == nil {
		callbacks = NewCallbacks()
	}
	return &Facade{pixie: pixie, puffin: puffin, callbacks: callbacks, builder: builder}
}

// Start connects both underlying providers.
func (f *Facade) Start(ctx context.Context) error {
	if err := f.pixie.Start(ctx); err != nil {
		return err
	}
	if err := f.puffin.Start(ctx); err != nil {
		return err
	}
	return nil
}

// Stop tears down both underlying providers.
func (f *Facade) Stop() {
	f.pixie.Stop()
	f.puffin.Stop()
}

// Subscribe routes subject to whichever provider serves it.
func (f *Facade) Subscribe(subject Subject) {
	f.providerFor(subject).Subscribe(subject)
}

// Unsubscribe routes subject to whichever provider serves it.
func (f *Facade) Unsubscribe(subject Subject) {
	f.providerFor(subject).Unsubscribe(subject)
}

// Build returns the guided SubjectBuilder for constructing well-formed
// subjects.
func (f *Facade) Build() *SubjectBuilder { return f.builder }

// Callbacks returns the callback set used for all price, subscription and
// provider events raised by either protocol.
func (f *Facade) Callbacks() *Callbacks { return f.callbacks }

// providerFor implements PricingAPI._is_exclusive_subject: a subject with a
// User component and AssetClass=Fx is an exclusive, tradable price stream
// served by Pixie; everything else is shared/indicative and served by
// Puffin.
func (f *Facade) providerFor(subject Subject) Provider {
	if subject.Contains(KeyUser) && subject.Get(KeyAssetClass, "") == "Fx" {
		return f.pixie
	}
	return f.puffin
}
