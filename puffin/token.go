// Package puffin implements the Puffin XML wire protocol: the learning
// token dictionary, the element codec built on top of it, the
// pre-handshake plain-XML parser, and the provider lifecycle, ported from
// bidfx/pricing/_puffin.
package puffin

import "fmt"

// TokenType enumerates the 9 token kinds exchanged on the Puffin wire,
// ported verbatim (including numeric values) from
// bidfx/pricing/_puffin/token_dictionary.py's TokenType.
type TokenType int

const (
	TokenEnd TokenType = iota
	TokenEmpty
	TokenStart
	TokenContent
	TokenName
	TokenInteger
	TokenDouble
	TokenFraction
	TokenString
)

// NumTokenTypes is the number of distinct token kinds.
const NumTokenTypes = 9

func (t TokenType) String() string {
	switch t {
	case TokenEnd:
		return "END"
	case TokenEmpty:
		return "EMPTY"
	case TokenStart:
		return "START"
	case TokenContent:
		return "CONTENT"
	case TokenName:
		return "NAME"
	case TokenInteger:
		return "INTEGER"
	case TokenDouble:
		return "DOUBLE"
	case TokenFraction:
		return "FRACTION"
	case TokenString:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// Token is a single lexical unit of the Puffin wire format: a tag, an
// attribute name, a value, or a structural marker with no text. Token is
// comparable so it can be used directly as a map key in the compressor's
// reverse lookup.
type Token struct {
	Type TokenType
	Text string
}

func (t Token) String() string {
	switch t.Type {
	case TokenStart:
		return fmt.Sprintf("<%s>", t.Text)
	case TokenEnd:
		return fmt.Sprintf("</%s>", t.Text)
	case TokenName:
		return fmt.Sprintf("%s=", t.Text)
	case TokenEmpty:
		return fmt.Sprintf("<%s />", t.Text)
	case TokenContent:
		return t.Text
	default:
		return fmt.Sprintf(`="%s"`, t.Text)
	}
}

// HasText reports whether the token carries dictionary-resident text.
// EMPTY, and null-valued STRING/CONTENT tokens, never carry text.
func (t Token) HasText() bool { return t.Text != "" }

// TokenUsage records a token's current dictionary symbol and how often it
// has been referenced, used to drive promotion into the one-byte symbol
// region and eviction during a purge.
type TokenUsage struct {
	Token  Token
	Symbol int
	Count  int
}

func (u *TokenUsage) String() string {
	return fmt.Sprintf("TokenUsage(%s symbol=%d count=%d)", u.Token, u.Symbol, u.Count)
}
