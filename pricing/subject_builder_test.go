package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfx-oss/pricing-go/pricing"
)

func newBuilder(t *testing.T) *pricing.SubjectBuilder {
	t.Helper()
	b, err := pricing.NewSubjectBuilder("trader1", "ACC-1")
	require.NoError(t, err)
	return b
}

func TestNewSubjectBuilderRequiresUsername(t *testing.T) {
	_, err := pricing.NewSubjectBuilder("", "ACC-1")
	assert.Error(t, err)
}

func TestIndicativeSpotSubject(t *testing.T) {
	b := newBuilder(t)
	s, err := b.FX().Indicative().Spot().CurrencyPair("EURUSD").CreateSubject()
	require.NoError(t, err)
	assert.Equal(t, "AssetClass=Fx,Exchange=OTC,Level=1,Source=Indi,Symbol=EURUSD", s.String())
}

func TestIndicativeSpotBook(t *testing.T) {
	b := newBuilder(t)
	rows := 5
	s, err := b.FX().Indicative().Spot().CurrencyPair("EURUSD").Book(&rows).CreateSubject()
	require.NoError(t, err)
	assert.Equal(t, "2", s.Get("Level", ""))
	assert.Equal(t, "5", s.Get("Rows", ""))
	assert.Equal(t, "FXTS", s.Get("LiquidityProvider", ""))
}

func TestIndicativeSpotInvalidCurrencyPair(t *testing.T) {
	b := newBuilder(t)
	_, err := b.FX().Indicative().Spot().CurrencyPair("XXXYYY").CreateSubject()
	assert.Error(t, err)
}

func TestDealableSpotSubject(t *testing.T) {
	b := newBuilder(t)
	s, err := b.FX().Stream().Spot().
		LiquidityProvider("CSFX").
		CurrencyPair("GBPUSD").
		Currency("GBP").
		Quantity(1000000).
		CreateSubject()
	require.NoError(t, err)
	assert.Equal(t, "GBP", s.Get("Currency", ""))
	assert.Equal(t, "GBPUSD", s.Get("Symbol", ""))
	assert.Equal(t, "1000000.00", s.Get("Quantity", ""))
	assert.Equal(t, "ACC-1", s.Get("BuySideAccount", ""))
	assert.Equal(t, "trader1", s.Get("User", ""))
	assert.Equal(t, "Stream", s.Get("RequestFor", ""))
}

func TestDealableSpotInvalidQuantity(t *testing.T) {
	b := newBuilder(t)
	_, err := b.FX().Stream().Spot().
		LiquidityProvider("CSFX").
		CurrencyPair("GBPUSD").
		Currency("GBP").
		Quantity(-5).
		CreateSubject()
	assert.Error(t, err)
}

func TestDealableSpotCurrencyNotInPair(t *testing.T) {
	b := newBuilder(t)
	_, err := b.FX().Stream().Spot().
		CurrencyPair("GBPUSD").
		Currency("JPY").
		CreateSubject()
	assert.Error(t, err)
}

func TestDealableSpotMissingKeysAreAlphabetical(t *testing.T) {
	b, err := pricing.NewSubjectBuilder("trader1", "")
	require.NoError(t, err)
	_, err = b.FX().Stream().Spot().CreateSubject()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BuySideAccount, Currency, LiquidityProvider, Quantity, Symbol")
}

func TestForwardRequiresSettlementDateForBrokenDateTenor(t *testing.T) {
	b := newBuilder(t)
	_, err := b.FX().Quote().Forward().
		LiquidityProvider("CSFX").
		CurrencyPair("EURUSD").
		Currency("EUR").
		Quantity(100000).
		Tenor(pricing.TenorBrokenDate).
		CreateSubject()
	assert.Error(t, err)
}

func TestForwardWithSettlementDate(t *testing.T) {
	b := newBuilder(t)
	s, err := b.FX().Quote().Forward().
		LiquidityProvider("CSFX").
		CurrencyPair("EURUSD").
		Currency("EUR").
		Quantity(100000).
		Tenor(pricing.TenorBrokenDate).
		SettlementDate(20260901).
		CreateSubject()
	require.NoError(t, err)
	assert.Equal(t, "20260901", s.Get("SettlementDate", ""))
	assert.Equal(t, "Outright", s.Get("DealType", ""))
}

func TestForwardInvalidSettlementDate(t *testing.T) {
	b := newBuilder(t)
	_, err := b.FX().Quote().Forward().
		LiquidityProvider("CSFX").
		CurrencyPair("EURUSD").
		Currency("EUR").
		Quantity(100000).
		Tenor(pricing.TenorBrokenDate).
		SettlementDate(20260101).
		SettlementDate(123).
		CreateSubject()
	assert.Error(t, err)
}

func TestNdfDealType(t *testing.T) {
	b := newBuilder(t)
	s, err := b.FX().Quote().Ndf().
		LiquidityProvider("CSFX").
		CurrencyPair("USDKRW").
		Currency("USD").
		Quantity(50000).
		Tenor(pricing.Tenor1Month).
		CreateSubject()
	require.NoError(t, err)
	assert.Equal(t, "NDF", s.Get("DealType", ""))
}

func TestSwapSubject(t *testing.T) {
	b := newBuilder(t)
	s, err := b.FX().Stream().Swap().
		LiquidityProvider("CSFX").
		CurrencyPair("EURUSD").
		Currency("EUR").
		NearQuantity(100000).
		FarQuantity(100000).
		NearTenor(pricing.TenorSpot).
		FarTenor(pricing.Tenor1Month).
		CreateSubject()
	require.NoError(t, err)
	assert.Equal(t, "Swap", s.Get("DealType", ""))
	assert.Equal(t, "EUR", s.Get("FarCurrency", ""))
	assert.Equal(t, "100000.00", s.Get("FarQuantity", ""))
}

func TestSwapMissingFarTenorFails(t *testing.T) {
	b := newBuilder(t)
	_, err := b.FX().Stream().Swap().
		LiquidityProvider("CSFX").
		CurrencyPair("EURUSD").
		Currency("EUR").
		NearQuantity(100000).
		FarQuantity(100000).
		NearTenor(pricing.TenorSpot).
		CreateSubject()
	assert.Error(t, err)
}

func TestListedFutureSubject(t *testing.T) {
	b := newBuilder(t)
	s, err := b.Future().
		Exchange("CME").
		Source("Bbg").
		Symbol("ESZ6").
		CreateSubject()
	require.NoError(t, err)
	assert.Equal(t, "Future", s.Get("AssetClass", ""))
	assert.Equal(t, "CME", s.Get("Exchange", ""))
}

func TestListedEquityMissingExchangeFails(t *testing.T) {
	b := newBuilder(t)
	_, err := b.Equity().Source("Bbg").Symbol("VOD.L").CreateSubject()
	assert.Error(t, err)
}
