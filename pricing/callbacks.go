package pricing

// Callbacks holds the set of handler functions that the API user can
// override to receive PriceEvent, SubscriptionEvent and ProviderEvent
// notifications. The zero value is safe to use: every field defaults to a
// no-op, ported from bidfx/pricing/callbacks.py.
type Callbacks struct {
	PriceEventFn        func(PriceEvent)
	SubscriptionEventFn func(SubscriptionEvent)
	ProviderEventFn     func(ProviderEvent)
}

// NewCallbacks returns a Callbacks value with every handler set to a no-op,
// ready to have individual fields overridden.
func NewCallbacks() *Callbacks {
	return &Callbacks{
		PriceEventFn:        func(PriceEvent) {},
		SubscriptionEventFn: func(SubscriptionEvent) {},
		ProviderEventFn:     func(ProviderEvent) {},
	}
}

func (c *Callbacks) firePrice(e PriceEvent) {
	if c != nil && c.PriceEventFn != nil {
		c.PriceEventFn(e)
	}
}

func (c *Callbacks) fireSubscription(e SubscriptionEvent) {
	if c != nil && c.SubscriptionEventFn != nil {
		c.SubscriptionEventFn(e)
	}
}

func (c *Callbacks) fireProvider(e ProviderEvent) {
	if c != nil && c.ProviderEventFn != nil {
		c.ProviderEventFn(e)
	}
}

// FirePrice invokes the price-event handler, used by protocol providers
// outside this package; it is nil-safe like the private helpers above.
func (c *Callbacks) FirePrice(e PriceEvent) { c.firePrice(e) }

// FireSubscription invokes the subscription-event handler.
func (c *Callbacks) FireSubscription(e SubscriptionEvent) { c.fireSubscription(e) }

// FireProvider invokes the provider-event handler.
func (c *Callbacks) FireProvider(e ProviderEvent) { c.fireProvider(e) }
