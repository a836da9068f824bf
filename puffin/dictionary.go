package puffin

import (
	"sort"

	"github.com/bidfx-oss/pricing-go/pricingerrors"
)

// Dictionary-framing constants, ported from
// bidfx/pricing/_puffin/token_dictionary.py's Dictionary class constants.
const (
	SymbolBits        = 7
	SymbolBit         = 1 << SymbolBits // 0x80
	SymbolMask        = SymbolBit - 1   // 0x7F
	NumOneByteSymbols = SymbolBit       // 128
	MaxSymbol         = (NumOneByteSymbols - NumTokenTypes) << SymbolBits
)

// Dictionary is the learning, mirrored symbol table shared by a
// MessageCompressor and a MessageDecompressor. Both peers build identical
// dictionaries from the sequence of tokens they see; no dictionary is ever
// transmitted.
type Dictionary struct {
	nextSymbol    int
	winningPost   int
	usageBySymbol []*TokenUsage

	// usageByToken is the compressor-side reverse lookup keyed by token
	// value; nil for a decompressor's dictionary, which only ever looks
	// tokens up by symbol.
	usageByToken map[Token]*TokenUsage
}

// NewDictionary constructs an empty Dictionary. Pass trackByToken=true for
// the compressor side, which needs the reverse (token → usage) lookup to
// recognise a previously-seen token; a decompressor has no such need.
func NewDictionary(trackByToken bool) *Dictionary {
	d := &Dictionary{}
	if trackByToken {
		d.usageByToken = make(map[Token]*TokenUsage)
	}
	return d
}

// lookup returns the TokenUsage previously recorded for token, or nil.
func (d *Dictionary) lookup(token Token) *TokenUsage {
	if d.usageByToken == nil {
		return nil
	}
	return d.usageByToken[token]
}

// GetToken resolves symbol to its Token, bumping its usage count and
// possibly promoting it, mirroring Dictionary.get_token.
func (d *Dictionary) GetToken(symbol int) (Token, error) {
	if symbol >= 0 && symbol < d.nextSymbol {
		usage := d.usageBySymbol[symbol]
		if usage != nil {
			d.OptimiseTokenUsage(usage)
			return usage.Token, nil
		}
	}
	return Token{}, pricingerrors.ErrPricing.Wrapf("puffin protocol syntax error: no token for symbol %d", symbol)
}

// OptimiseTokenUsage increments usage's count and, once it has drifted
// enough occurrences into the two-byte symbol region, swaps it into the
// first one-byte slot with a lower count than its own — promoting
// frequently-seen tokens into the cheaper encoding over time. It returns
// the symbol to actually emit for this occurrence: the token's old symbol
// when a swap occurred (the new state takes effect from the next
// reference), otherwise its current symbol.
func (d *Dictionary) OptimiseTokenUsage(usage *TokenUsage) int {
	usage.Count++
	if usage.Symbol >= NumOneByteSymbols && usage.Count > d.winningPost {
		count := usage.Count
		for symbol := 0; symbol < NumOneByteSymbols; symbol++ {
			swap := d.usageBySymbol[symbol]
			if count > swap.Count {
				d.usageBySymbol[usage.Symbol] = swap
				swap.Symbol = usage.Symbol
				d.usageBySymbol[symbol] = usage
				usage.Symbol = symbol
				return swap.Symbol
			}
		}
		d.winningPost = count
	}
	return usage.Symbol
}

// InsertToken allocates the next free symbol for token, purging the
// dictionary first if it is full. It registers the new usage in the
// reverse lookup when this dictionary tracks one.
func (d *Dictionary) InsertToken(token Token) *TokenUsage {
	var usage *TokenUsage
	if d.spaceAvailable() {
		usage = d.addToken(token)
	} else {
		d.purgeDictionary()
		if d.spaceAvailable() {
			usage = d.addToken(token)
		}
	}
	if usage != nil && d.usageByToken != nil {
		d.usageByToken[token] = usage
	}
	return usage
}

func (d *Dictionary) addToken(token Token) *TokenUsage {
	symbol := d.nextSymbol
	usage := &TokenUsage{Token: token, Symbol: symbol}
	d.nextSymbol++
	d.growTo(symbol)
	d.usageBySymbol[symbol] = usage
	return usage
}

func (d *Dictionary) growTo(index int) {
	if index >= len(d.usageBySymbol) {
		grown := make([]*TokenUsage, index+1)
		copy(grown, d.usageBySymbol)
		d.usageBySymbol = grown
	}
}

func (d *Dictionary) spaceAvailable() bool { return d.nextSymbol < MaxSymbol }

// purgeDictionary evicts every entry whose usage count falls at or below
// the estimated lower quartile, compacting survivors to contiguous symbols
// starting at 0, mirroring Dictionary._purge_dictionary.
func (d *Dictionary) purgeDictionary() {
	threshold := d.estimateLowerQuartile()
	newSymbol := 0
	for oldSymbol := 0; oldSymbol < d.nextSymbol; oldSymbol++ {
		usage := d.usageBySymbol[oldSymbol]
		if usage != nil && usage.Count > threshold {
			if newSymbol < oldSymbol {
				usage.Symbol = newSymbol
				d.usageBySymbol[newSymbol] = usage
			}
			newSymbol++
		} else if usage != nil && d.usageByToken != nil {
			delete(d.usageByToken, usage.Token)
		}
	}
	for i := newSymbol; i < d.nextSymbol; i++ {
		d.usageBySymbol[i] = nil
	}
	d.nextSymbol = newSymbol
}

// estimateLowerQuartile samples 7 evenly-spaced usage counts across the
// full symbol range and returns the lower-quartile value among them,
// mirroring Dictionary.estimate_lower_quartile.
func (d *Dictionary) estimateLowerQuartile() int {
	const sampleCount = 7
	step := MaxSymbol / (sampleCount + 1)
	if step == 0 {
		return d.usageBySymbol[MaxSymbol/2].Count
	}
	samples := make([]int, 0, sampleCount)
	j := step - 1
	for i := 0; i < sampleCount; i++ {
		samples = append(samples, d.usageBySymbol[j].Count)
		j += step
	}
	sort.Ints(samples)
	return samples[sampleCount/4]
}

// SymbolBytes renders symbol per the one/two-byte wire encoding.
func SymbolBytes(symbol int) []byte {
	if symbol < NumOneByteSymbols {
		return []byte{byte(SymbolBit | symbol)}
	}
	return []byte{
		byte(SymbolBit | (symbol & SymbolMask)),
		byte((symbol >> SymbolBits) + NumTokenTypes),
	}
}

// IsFirstByteOfSymbol reports whether b's top bit is set.
func IsFirstByteOfSymbol(b byte) bool { return b&SymbolBit != 0 }

// IsSecondByteOfSymbol reports whether b falls in the second-symbol-byte
// range, distinguishing it from a type byte by value rather than top bit.
func IsSecondByteOfSymbol(b byte) bool { return b >= NumTokenTypes && b < NumOneByteSymbols }

// IsPlainText reports whether b is an ASCII byte belonging to unseen-token
// text (the same numeric range as IsSecondByteOfSymbol, but checked in a
// different context).
func IsPlainText(b byte) bool { return b >= NumTokenTypes && b < NumOneByteSymbols }

// IsTokenType reports whether b, masked to 7 bits, names a token type.
func IsTokenType(b byte) bool { return int(b&SymbolMask) < NumTokenTypes }

// FirstByteSymbol extracts the low 7 bits of a symbol's first byte.
func FirstByteSymbol(b byte) int { return int(b & SymbolMask) }

// SecondByteSymbol reconstructs the high bits of a two-byte symbol from its
// second byte.
func SecondByteSymbol(b byte) int { return int(b-NumTokenTypes) << SymbolBits }
