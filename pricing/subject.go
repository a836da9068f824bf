// Package pricing implements the subject model, the guided subject builder,
// the price/subscription/provider event types, and the façade that routes
// subscriptions between the Pixie and Puffin providers.
package pricing

import (
	"sort"
	"strings"
)

// Component key constants shared across the subject model and builder,
// mirroring bidfx/pricing/subject.py's class-level constants.
const (
	KeyAssetClass       = "AssetClass"
	KeyBuySideAccount   = "BuySideAccount"
	KeyCurrency         = "Currency"
	KeyDealType         = "DealType"
	KeyExchange         = "Exchange"
	KeyExpiryDate       = "ExpiryDate"
	KeyFarCurrency      = "FarCurrency"
	KeyFarFixingDate    = "FarFixingDate"
	KeyFarQuantity      = "FarQuantity"
	KeyFarSettlementDate = "FarSettlementDate"
	KeyFarTenor         = "FarTenor"
	KeyFixingCcy        = "FixingCcy"
	KeyFixingDate       = "FixingDate"
	KeyLevel            = "Level"
	KeyLiquidityProvider = "LiquidityProvider"
	KeyOnBehalfOf       = "OnBehalfOf"
	KeyPutCall          = "PutCall"
	KeyQuantity         = "Quantity"
	KeyRequestType      = "RequestFor"
	KeyRoute            = "Route"
	KeyRows             = "Rows"
	KeySettlementDate   = "SettlementDate"
	KeySource           = "Source"
	KeyStrike           = "Strike"
	KeySymbol           = "Symbol"
	KeyTenor            = "Tenor"
	KeyUser             = "User"
)

// Subject is an immutable, ordered sequence of (key, value) string pairs
// sorted lexicographically by key. The components are folded into a single
// canonical "K1=V1,K2=V2,..." string at construction time so that Subject
// remains comparable and hashable — usable directly as a map key, exactly as
// spec §3 requires — without the slice-valued representation that would
// otherwise make it incomparable.
type Subject struct {
	repr string
}

// NewSubjectFromMap builds a Subject from a map, stably sorting the entries
// by key — the Go analogue of Subject.from_dict.
func NewSubjectFromMap(m map[string]string) Subject {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(m[k])
	}
	return Subject{repr: b.String()}
}

// ParseSubject parses the canonical "K1=V1,K2=V2,..." wire form. Components
// are assumed already in sorted order, as they always are when produced by
// String() or received from the server.
func ParseSubject(s string) Subject {
	return Subject{repr: s}
}

// components splits the canonical form back into key/value pairs. Subject's
// hot paths (Get, Contains, routing) are called once per subscribe/dispatch,
// not per message, so re-splitting the string is not a steady-state cost.
func (s Subject) components() []string {
	if s.repr == "" {
		return nil
	}
	return strings.Split(s.repr, ",")
}

// Get returns the value stored under key, or def if the key is absent.
func (s Subject) Get(key, def string) string {
	for _, c := range s.components() {
		k, v, ok := splitComponent(c)
		if ok && k == key {
			return v
		}
	}
	return def
}

// Contains reports whether key is present in the subject.
func (s Subject) Contains(key string) bool {
	for _, c := range s.components() {
		k, _, ok := splitComponent(c)
		if ok && k == key {
			return true
		}
	}
	return false
}

func splitComponent(c string) (key, value string, ok bool) {
	i := strings.IndexByte(c, '=')
	if i < 0 {
		return c, "", false
	}
	return c[:i], c[i+1:], true
}

// Len returns the number of components.
func (s Subject) Len() int {
	if s.repr == "" {
		return 0
	}
	return len(s.components())
}

// Flatten returns [k1, v1, k2, v2, ...] in key order.
func (s Subject) Flatten() []string {
	comps := s.components()
	out := make([]string, 0, len(comps)*2)
	for _, c := range comps {
		k, v, _ := splitComponent(c)
		out = append(out, k, v)
	}
	return out
}

// String renders the canonical wire form, which is also Subject's internal
// representation.
func (s Subject) String() string { return s.repr }

// Equal reports structural equality. Since the canonical form is uniquely
// determined by the sorted component sequence, string equality of the
// internal representation is equivalent to component-wise equality.
func (s Subject) Equal(o Subject) bool { return s.repr == o.repr }
