package pricing

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bidfx-oss/pricing-go/pricingerrors"
)

// builderState is the mutable core shared by every stage of a subject
// construction. Each stage type exposes only the methods valid for that
// stage (the state-machine-of-types redesign called for in spec §9, in
// place of the source's single mutable dict with every method reachable at
// every step); the first validation failure recorded here is surfaced from
// CreateSubject, mirroring the source's lazy, single-exception-on-build
// behavior without letting a broken chain silently continue past it.
type builderState struct {
	components map[string]string
	mandatory  map[string]bool
	err        error
}

func newBuilderState() *builderState {
	return &builderState{
		components: map[string]string{KeyLevel: "1"},
		mandatory:  map[string]bool{KeySymbol: true},
	}
}

func (s *builderState) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *builderState) set(key, value string)      { s.components[key] = value }
func (s *builderState) require(key string)          { s.mandatory[key] = true }
func (s *builderState) get(key string) (string, bool) {
	v, ok := s.components[key]
	return v, ok
}

func (s *builderState) book(rows *int) {
	s.set(KeyLiquidityProvider, "FXTS")
	s.set(KeyLevel, "2")
	if rows != nil {
		s.set(KeyRows, strconv.Itoa(*rows))
	}
}

func (s *builderState) createSubject() (Subject, error) {
	if s.err != nil {
		return Subject{}, s.err
	}
	var missing []string
	for k := range s.mandatory {
		if _, ok := s.components[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Subject{}, pricingerrors.ErrInvalidSubject.Wrapf(
			"incomplete subject is missing: %s", strings.Join(missing, ", "))
	}
	return NewSubjectFromMap(s.components), nil
}

func (s *builderState) setSettlementDate(key string, date int) {
	tenorKey := KeyTenor
	if key == KeyFarSettlementDate {
		tenorKey = KeyFarTenor
	}
	if _, ok := s.components[tenorKey]; !ok {
		s.set(tenorKey, TenorBrokenDate)
	}
	formatted, err := validateDate(date)
	if err != nil {
		s.fail(err)
		return
	}
	s.set(key, formatted)
}

func (s *builderState) setFixingDate(key string, date int) {
	formatted, err := validateDate(date)
	if err != nil {
		s.fail(err)
		return
	}
	s.set(key, formatted)
}

func validateCurrency(ccy string) error {
	if !IsValidCurrencyCode(ccy) {
		return pricingerrors.ErrInvalidSubject.Wrapf("invalid ISO currency code: %q", ccy)
	}
	return nil
}

func validateCurrencyPair(pair string) error {
	if len(pair) == 6 {
		half1, half2 := pair[:3], pair[3:]
		if half1 != half2 && (IsValidCurrencyCode(half1) || IsValidCurrencyCode(half2)) {
			return nil
		}
	}
	return pricingerrors.ErrInvalidSubject.Wrapf("invalid currency pair code: %q", pair)
}

func validateCcyAgainstPair(ccy, pair string) error {
	if ccy != "" && pair != "" {
		if ccy != pair[:3] && ccy != pair[3:] {
			return pricingerrors.ErrInvalidSubject.Wrapf(
				"currency %q is not part of currency pair %q", ccy, pair)
		}
	}
	return nil
}

func validateDate(date int) (string, error) {
	if date > 19000101 {
		return strconv.Itoa(date), nil
	}
	return "", pricingerrors.ErrInvalidSubject.Wrapf(
		"incorrectly formatted date %q, expected YYYYMMDD", strconv.Itoa(date))
}

func formatQuantity(qty float64) (string, error) {
	d := decimal.NewFromFloat(qty)
	if d.Sign() <= 0 {
		return "", pricingerrors.ErrInvalidSubject.Wrapf(
			"invalid quantity, positive number expected instead of: %v", qty)
	}
	return d.StringFixed(2), nil
}

// ---------------------------------------------------------------------
// SubjectBuilder — entry point.

// SubjectBuilder is a multi-stage guided builder for well-formed Subjects.
// Call NewSubjectBuilder to create one, then descend through the FX, Future,
// or Equity stages.
type SubjectBuilder struct {
	username       string
	defaultAccount string
}

// NewSubjectBuilder constructs a SubjectBuilder for the given username and
// optional default buy-side account (used for dealable FX shapes when no
// explicit account is supplied).
func NewSubjectBuilder(username, defaultAccount string) (*SubjectBuilder, error) {
	if username == "" {
		return nil, pricingerrors.ErrPricing.Wrap("a username must be provided to subject builder")
	}
	return &SubjectBuilder{username: username, defaultAccount: defaultAccount}, nil
}

// FX begins a method-chain for building an FX Subject.
func (b *SubjectBuilder) FX() FxStage {
	return FxStage{username: b.username, defaultAccount: b.defaultAccount}
}

// Future begins a method-chain for building a listed Future Subject.
func (b *SubjectBuilder) Future() *ListedBuilder {
	return newListedBuilder("Future")
}

// Equity begins a method-chain for building a listed Equity Subject.
func (b *SubjectBuilder) Equity() *ListedBuilder {
	return newListedBuilder("Equity")
}

// ---------------------------------------------------------------------
// FX stage.

// FxStage chooses between indicative and dealable (stream/quote) shapes.
type FxStage struct {
	username       string
	defaultAccount string
}

// Indicative begins the indicative (shared/non-dealable) FX shape.
func (f FxStage) Indicative() IndicativeStage { return IndicativeStage{} }

// Stream begins a dealable, streaming-priced FX shape.
func (f FxStage) Stream() DealableStage {
	return newDealableStage(f.username, f.defaultAccount, "Stream")
}

// Quote begins a dealable, quote-on-request FX shape.
func (f FxStage) Quote() DealableStage {
	return newDealableStage(f.username, f.defaultAccount, "Quote")
}

// ---------------------------------------------------------------------
// Indicative FX.

// IndicativeStage offers the single supported indicative shape.
type IndicativeStage struct{}

// Spot begins an indicative FX spot subject.
func (IndicativeStage) Spot() *IndicativeSpotBuilder {
	state := newBuilderState()
	state.set(KeyAssetClass, "Fx")
	state.set(KeyExchange, "OTC")
	state.set(KeySource, "Indi")
	return &IndicativeSpotBuilder{state: state}
}

// IndicativeSpotBuilder builds an indicative FX spot Subject such as
// AssetClass=Fx,Exchange=OTC,Level=1,Source=Indi,Symbol=EURUSD.
type IndicativeSpotBuilder struct{ state *builderState }

// Source overrides the default "Indi" price source.
func (b *IndicativeSpotBuilder) Source(source string) *IndicativeSpotBuilder {
	b.state.set(KeySource, source)
	return b
}

// CurrencyPair sets and validates the traded currency pair code.
func (b *IndicativeSpotBuilder) CurrencyPair(pair string) *IndicativeSpotBuilder {
	if err := validateCurrencyPair(pair); err != nil {
		b.state.fail(err)
		return b
	}
	b.state.set(KeySymbol, pair)
	return b
}

// Book switches this to a level-2 ("depth") subject, optionally bounding the
// number of rows reported.
func (b *IndicativeSpotBuilder) Book(rows *int) *IndicativeSpotBuilder {
	b.state.book(rows)
	return b
}

// CreateSubject finalizes the subject, validating mandatory keys.
func (b *IndicativeSpotBuilder) CreateSubject() (Subject, error) { return b.state.createSubject() }

// ---------------------------------------------------------------------
// Dealable FX (stream/quote).

func newDealableStage(username, defaultAccount, requestType string) DealableStage {
	return DealableStage{username: username, defaultAccount: defaultAccount, requestType: requestType}
}

// DealableStage chooses between spot, forward, NDF, swap, and NDS shapes.
type DealableStage struct {
	username       string
	defaultAccount string
	requestType    string
}

func (d DealableStage) newState() *builderState {
	state := newBuilderState()
	state.set(KeyAssetClass, "Fx")
	state.set(KeyRequestType, d.requestType)
	state.set(KeyUser, d.username)
	if d.defaultAccount != "" {
		state.set(KeyBuySideAccount, d.defaultAccount)
	}
	return state
}

// Spot begins a dealable FX spot subject.
func (d DealableStage) Spot() *SpotBuilder {
	state := d.newState()
	state.set(KeyDealType, "Spot")
	state.set(KeyTenor, TenorSpot)
	state.require(KeyBuySideAccount)
	state.require(KeyCurrency)
	state.require(KeySymbol)
	state.require(KeyQuantity)
	state.require(KeyLiquidityProvider)
	return &SpotBuilder{state: state}
}

// Forward begins a deliverable FX forward subject.
func (d DealableStage) Forward() *ForwardBuilder {
	return newForwardBuilder(d.newState(), true)
}

// Ndf begins a non-deliverable forward subject.
func (d DealableStage) Ndf() *ForwardBuilder {
	return newForwardBuilder(d.newState(), false)
}

// Swap begins a deliverable FX swap subject.
func (d DealableStage) Swap() *SwapBuilder {
	return newSwapBuilder(d.newState(), true)
}

// Nds begins a non-deliverable swap subject.
func (d DealableStage) Nds() *SwapBuilder {
	return newSwapBuilder(d.newState(), false)
}

// SpotBuilder builds a dealable FX spot Subject.
type SpotBuilder struct{ state *builderState }

func (b *SpotBuilder) LiquidityProvider(lp string) *SpotBuilder {
	b.state.set(KeyLiquidityProvider, lp)
	return b
}

func (b *SpotBuilder) CurrencyPair(pair string) *SpotBuilder {
	if err := validateCurrencyPair(pair); err != nil {
		b.state.fail(err)
		return b
	}
	ccy, _ := b.state.get(KeyCurrency)
	if err := validateCcyAgainstPair(ccy, pair); err != nil {
		b.state.fail(err)
		return b
	}
	b.state.set(KeySymbol, pair)
	return b
}

func (b *SpotBuilder) Currency(ccy string) *SpotBuilder {
	if err := validateCurrency(ccy); err != nil {
		b.state.fail(err)
		return b
	}
	pair, _ := b.state.get(KeySymbol)
	if err := validateCcyAgainstPair(ccy, pair); err != nil {
		b.state.fail(err)
		return b
	}
	b.state.set(KeyCurrency, ccy)
	return b
}

func (b *SpotBuilder) Quantity(qty float64) *SpotBuilder {
	formatted, err := formatQuantity(qty)
	if err != nil {
		b.state.fail(err)
		return b
	}
	b.state.set(KeyQuantity, formatted)
	return b
}

func (b *SpotBuilder) BuySideAccount(account string) *SpotBuilder {
	b.state.set(KeyBuySideAccount, account)
	return b
}

func (b *SpotBuilder) OnBehalfOf(username string) *SpotBuilder {
	b.state.set(KeyOnBehalfOf, username)
	return b
}

func (b *SpotBuilder) Book(rows *int) *SpotBuilder {
	b.state.book(rows)
	return b
}

func (b *SpotBuilder) CreateSubject() (Subject, error) { return b.state.createSubject() }

// ---------------------------------------------------------------------
// Forward / NDF.

func newForwardBuilder(state *builderState, deliverable bool) *ForwardBuilder {
	dealType := "NDF"
	if deliverable {
		dealType = "Outright"
	}
	state.set(KeyDealType, dealType)
	state.require(KeyTenor)
	state.require(KeyBuySideAccount)
	state.require(KeyCurrency)
	state.require(KeySymbol)
	state.require(KeyDealType)
	state.require(KeyQuantity)
	state.require(KeyLiquidityProvider)
	return &ForwardBuilder{state: state}
}

// ForwardBuilder builds a dealable FX forward or NDF Subject.
type ForwardBuilder struct{ state *builderState }

func (b *ForwardBuilder) LiquidityProvider(lp string) *ForwardBuilder {
	b.state.set(KeyLiquidityProvider, lp)
	return b
}

func (b *ForwardBuilder) CurrencyPair(pair string) *ForwardBuilder {
	if err := validateCurrencyPair(pair); err != nil {
		b.state.fail(err)
		return b
	}
	ccy, _ := b.state.get(KeyCurrency)
	if err := validateCcyAgainstPair(ccy, pair); err != nil {
		b.state.fail(err)
		return b
	}
	b.state.set(KeySymbol, pair)
	return b
}

func (b *ForwardBuilder) Currency(ccy string) *ForwardBuilder {
	if err := validateCurrency(ccy); err != nil {
		b.state.fail(err)
		return b
	}
	pair, _ := b.state.get(KeySymbol)
	if err := validateCcyAgainstPair(ccy, pair); err != nil {
		b.state.fail(err)
		return b
	}
	b.state.set(KeyCurrency, ccy)
	return b
}

func (b *ForwardBuilder) Quantity(qty float64) *ForwardBuilder {
	formatted, err := formatQuantity(qty)
	if err != nil {
		b.state.fail(err)
		return b
	}
	b.state.set(KeyQuantity, formatted)
	return b
}

func (b *ForwardBuilder) BuySideAccount(account string) *ForwardBuilder {
	b.state.set(KeyBuySideAccount, account)
	return b
}

func (b *ForwardBuilder) Tenor(tenor string) *ForwardBuilder {
	b.state.set(KeyTenor, tenor)
	if IsBrokenDateTenor(tenor) {
		b.state.require(KeySettlementDate)
	}
	return b
}

func (b *ForwardBuilder) SettlementDate(date int) *ForwardBuilder {
	b.state.setSettlementDate(KeySettlementDate, date)
	return b
}

func (b *ForwardBuilder) FixingDate(date int) *ForwardBuilder {
	b.state.setFixingDate(KeyFixingDate, date)
	return b
}

func (b *ForwardBuilder) OnBehalfOf(username string) *ForwardBuilder {
	b.state.set(KeyOnBehalfOf, username)
	return b
}

func (b *ForwardBuilder) Book(rows *int) *ForwardBuilder {
	b.state.book(rows)
	return b
}

func (b *ForwardBuilder) CreateSubject() (Subject, error) { return b.state.createSubject() }

// ---------------------------------------------------------------------
// Swap / NDS.

func newSwapBuilder(state *builderState, deliverable bool) *SwapBuilder {
	dealType := "NDS"
	if deliverable {
		dealType = "Swap"
	}
	state.set(KeyDealType, dealType)
	state.require(KeyTenor)
	state.require(KeyFarTenor)
	state.require(KeyFarQuantity)
	state.require(KeyBuySideAccount)
	state.require(KeyCurrency)
	state.require(KeySymbol)
	state.require(KeyDealType)
	state.require(KeyQuantity)
	state.require(KeyLiquidityProvider)
	return &SwapBuilder{state: state}
}

// SwapBuilder builds a dealable FX swap or NDS Subject.
type SwapBuilder struct{ state *builderState }

func (b *SwapBuilder) LiquidityProvider(lp string) *SwapBuilder {
	b.state.set(KeyLiquidityProvider, lp)
	return b
}

func (b *SwapBuilder) CurrencyPair(pair string) *SwapBuilder {
	if err := validateCurrencyPair(pair); err != nil {
		b.state.fail(err)
		return b
	}
	ccy, _ := b.state.get(KeyCurrency)
	if err := validateCcyAgainstPair(ccy, pair); err != nil {
		b.state.fail(err)
		return b
	}
	b.state.set(KeySymbol, pair)
	return b
}

func (b *SwapBuilder) Currency(ccy string) *SwapBuilder {
	if err := validateCurrency(ccy); err != nil {
		b.state.fail(err)
		return b
	}
	pair, _ := b.state.get(KeySymbol)
	if err := validateCcyAgainstPair(ccy, pair); err != nil {
		b.state.fail(err)
		return b
	}
	b.state.set(KeyCurrency, ccy)
	b.state.set(KeyFarCurrency, ccy)
	return b
}

func (b *SwapBuilder) NearQuantity(qty float64) *SwapBuilder {
	formatted, err := formatQuantity(qty)
	if err != nil {
		b.state.fail(err)
		return b
	}
	b.state.set(KeyQuantity, formatted)
	return b
}

func (b *SwapBuilder) FarQuantity(qty float64) *SwapBuilder {
	formatted, err := formatQuantity(qty)
	if err != nil {
		b.state.fail(err)
		return b
	}
	b.state.set(KeyFarQuantity, formatted)
	return b
}

func (b *SwapBuilder) BuySideAccount(account string) *SwapBuilder {
	b.state.set(KeyBuySideAccount, account)
	return b
}

func (b *SwapBuilder) NearTenor(tenor string) *SwapBuilder {
	b.state.set(KeyTenor, tenor)
	if IsBrokenDateTenor(tenor) {
		b.state.require(KeySettlementDate)
	}
	return b
}

func (b *SwapBuilder) FarTenor(tenor string) *SwapBuilder {
	b.state.set(KeyFarTenor, tenor)
	if IsBrokenDateTenor(tenor) {
		b.state.require(KeyFarSettlementDate)
	}
	return b
}

func (b *SwapBuilder) NearSettlementDate(date int) *SwapBuilder {
	b.state.setSettlementDate(KeySettlementDate, date)
	return b
}

func (b *SwapBuilder) FarSettlementDate(date int) *SwapBuilder {
	b.state.setSettlementDate(KeyFarSettlementDate, date)
	return b
}

func (b *SwapBuilder) NearFixingDate(date int) *SwapBuilder {
	b.state.setFixingDate(KeyFixingDate, date)
	return b
}

func (b *SwapBuilder) FarFixingDate(date int) *SwapBuilder {
	b.state.setFixingDate(KeyFarFixingDate, date)
	return b
}

func (b *SwapBuilder) OnBehalfOf(username string) *SwapBuilder {
	b.state.set(KeyOnBehalfOf, username)
	return b
}

func (b *SwapBuilder) Book(rows *int) *SwapBuilder {
	b.state.book(rows)
	return b
}

func (b *SwapBuilder) CreateSubject() (Subject, error) { return b.state.createSubject() }

// ---------------------------------------------------------------------
// Listed (Future / Equity).

func newListedBuilder(assetClass string) *ListedBuilder {
	state := newBuilderState()
	state.set(KeyAssetClass, assetClass)
	state.require(KeyExchange)
	state.require(KeySource)
	return &ListedBuilder{state: state}
}

// ListedBuilder builds a listed equity or future Subject.
type ListedBuilder struct{ state *builderState }

func (b *ListedBuilder) Source(source string) *ListedBuilder {
	b.state.set(KeySource, source)
	return b
}

func (b *ListedBuilder) Level(level string) *ListedBuilder {
	b.state.set(KeyLevel, level)
	return b
}

func (b *ListedBuilder) Exchange(exchange string) *ListedBuilder {
	b.state.set(KeyExchange, exchange)
	return b
}

func (b *ListedBuilder) Symbol(symbol string) *ListedBuilder {
	b.state.set(KeySymbol, symbol)
	return b
}

func (b *ListedBuilder) Book(rows *int) *ListedBuilder {
	b.state.book(rows)
	return b
}

func (b *ListedBuilder) CreateSubject() (Subject, error) { return b.state.createSubject() }
