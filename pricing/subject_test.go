package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bidfx-oss/pricing-go/pricing"
)

func TestSubjectFromMapSortsKeys(t *testing.T) {
	s := pricing.NewSubjectFromMap(map[string]string{
		"Symbol":     "EURUSD",
		"AssetClass": "Fx",
		"Level":      "1",
	})
	assert.Equal(t, "AssetClass=Fx,Level=1,Symbol=EURUSD", s.String())
	assert.Equal(t, []string{"AssetClass", "Fx", "Level", "1", "Symbol", "EURUSD"}, s.Flatten())
}

func TestSubjectParseStringRoundTrip(t *testing.T) {
	str := "AssetClass=Fx,Exchange=OTC,Level=1,Source=Indi,Symbol=USDJPY"
	s := pricing.ParseSubject(str)
	assert.Equal(t, str, s.String())
	assert.Equal(t, "USDJPY", s.Get("Symbol", ""))
	assert.True(t, s.Contains("Exchange"))
	assert.False(t, s.Contains("Currency"))
}

func TestSubjectEqualityAndMapKey(t *testing.T) {
	a := pricing.NewSubjectFromMap(map[string]string{"A": "1", "B": "2"})
	b := pricing.ParseSubject("A=1,B=2")
	assert.True(t, a.Equal(b))

	m := map[pricing.Subject]int{a: 1}
	m[b] = 2
	assert.Len(t, m, 1)
}

func TestSubjectGetDefault(t *testing.T) {
	s := pricing.ParseSubject("Level=1")
	assert.Equal(t, "fallback", s.Get("Missing", "fallback"))
}
