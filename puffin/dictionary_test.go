package puffin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfx-oss/pricing-go/puffin"
)

func TestInsertAndGetTokenRoundTrip(t *testing.T) {
	d := puffin.NewDictionary(true)
	token := puffin.Token{Type: puffin.TokenStart, Text: "Update"}
	usage := d.InsertToken(token)
	require.NotNil(t, usage)

	got, err := d.GetToken(usage.Symbol)
	require.NoError(t, err)
	assert.Equal(t, token, got)
}

func TestGetTokenUnknownSymbolErrors(t *testing.T) {
	d := puffin.NewDictionary(false)
	_, err := d.GetToken(5)
	assert.Error(t, err)
}

func TestSymbolBytesOneAndTwoByte(t *testing.T) {
	assert.Equal(t, []byte{0x80}, puffin.SymbolBytes(0))
	assert.Equal(t, []byte{0x80 | 0x7f}, puffin.SymbolBytes(127))

	two := puffin.SymbolBytes(200)
	require.Len(t, two, 2)
	assert.True(t, puffin.IsFirstByteOfSymbol(two[0]))
	assert.True(t, puffin.IsSecondByteOfSymbol(two[1]))
	reconstructed := puffin.FirstByteSymbol(two[0]) | puffin.SecondByteSymbol(two[1])
	assert.Equal(t, 200, reconstructed)
}

func TestOptimiseTokenUsagePromotesFrequentTwoByteSymbol(t *testing.T) {
	d := puffin.NewDictionary(true)

	// Fill the one-byte region with 128 low-usage tokens.
	for i := 0; i < puffin.NumOneByteSymbols; i++ {
		tok := puffin.Token{Type: puffin.TokenName, Text: string(rune('a' + i%26)) + "_" + string(rune(i))}
		d.InsertToken(tok)
	}
	// Now push one into the two-byte region.
	overflow := puffin.Token{Type: puffin.TokenName, Text: "HotAttr"}
	usage := d.InsertToken(overflow)
	require.NotNil(t, usage)
	assert.GreaterOrEqual(t, usage.Symbol, puffin.NumOneByteSymbols)

	// Drive its usage count up; eventually it should be promoted into the
	// one-byte region (a symbol < NumOneByteSymbols).
	promoted := false
	for i := 0; i < 1000; i++ {
		d.OptimiseTokenUsage(usage)
		if usage.Symbol < puffin.NumOneByteSymbols {
			promoted = true
			break
		}
	}
	assert.True(t, promoted)
}
