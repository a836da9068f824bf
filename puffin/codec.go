package puffin

import (
	"bufio"
	"io"
	"strconv"

	"github.com/bidfx-oss/pricing-go/pricingerrors"
)

// MessageCompressor writes Elements to w, building up a learning Dictionary
// shared with the peer's MessageDecompressor. Ported from
// bidfx/pricing/_puffin/message_compressor.py.
type MessageCompressor struct {
	w    io.Writer
	dict *Dictionary
}

// NewMessageCompressor constructs a compressor writing to w.
func NewMessageCompressor(w io.Writer) *MessageCompressor {
	return &MessageCompressor{w: w, dict: NewDictionary(true)}
}

// CompressMessage writes element and its descendants as a token stream,
// mirroring MessageCompressor.compress_message.
func (c *MessageCompressor) CompressMessage(element *Element) error {
	return c.writeElement(element)
}

func (c *MessageCompressor) writeElement(element *Element) error {
	if err := c.writeToken(Token{Type: TokenStart, Text: element.Tag}); err != nil {
		return err
	}
	for _, a := range element.attributes {
		if err := c.writeToken(Token{Type: TokenName, Text: a.name}); err != nil {
			return err
		}
		if err := c.writeValueToken(a.value); err != nil {
			return err
		}
	}
	if len(element.children) == 0 {
		return c.writeToken(Token{Type: TokenEmpty})
	}
	for _, child := range element.children {
		if err := c.writeElement(child); err != nil {
			return err
		}
	}
	return c.writeToken(Token{Type: TokenEnd})
}

// writeValueToken picks the most specific token type for an attribute value,
// mirroring the Python compressor's type-sniffing of outgoing values.
func (c *MessageCompressor) writeValueToken(value string) error {
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return c.writeToken(Token{Type: TokenInteger, Text: value})
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return c.writeToken(Token{Type: TokenDouble, Text: value})
	}
	return c.writeToken(Token{Type: TokenString, Text: value})
}

// writeToken emits a single token, resolving it to a symbol via the shared
// dictionary (allocating one on first sight) and writing type/symbol bytes
// followed by raw text for an unseen token.
func (c *MessageCompressor) writeToken(token Token) error {
	if !token.HasText() {
		return c.writeByte(byte(token.Type))
	}
	if usage := c.dict.lookup(token); usage != nil {
		symbol := c.dict.OptimiseTokenUsage(usage)
		return c.writeBytes(SymbolBytes(symbol))
	}
	if err := c.writeByte(byte(token.Type)); err != nil {
		return err
	}
	if err := c.writeText(token.Text); err != nil {
		return err
	}
	c.dict.InsertToken(token)
	return nil
}

func (c *MessageCompressor) writeText(text string) error {
	if _, err := c.w.Write([]byte(text)); err != nil {
		return pricingerrors.ErrTransport.Wrapf("failed to write puffin text: %v", err)
	}
	return c.writeByte(0)
}

func (c *MessageCompressor) writeByte(b byte) error {
	return c.writeBytes([]byte{b})
}

func (c *MessageCompressor) writeBytes(b []byte) error {
	if _, err := c.w.Write(b); err != nil {
		return pricingerrors.ErrTransport.Wrapf("failed to write puffin bytes: %v", err)
	}
	return nil
}

// MessageDecompressor reads Elements from r, maintaining the mirror image of
// a peer MessageCompressor's Dictionary. Ported from
// bidfx/pricing/_puffin/message_decompressor.py.
type MessageDecompressor struct {
	r        *bufio.Reader
	dict     *Dictionary
	tagStack []string
}

// NewMessageDecompressor constructs a decompressor reading from r.
func NewMessageDecompressor(r *bufio.Reader) *MessageDecompressor {
	return &MessageDecompressor{r: r, dict: NewDictionary(false)}
}

// DecompressMessage reads one complete element (with any nested children)
// from the stream, mirroring MessageDecompressor.decompress_message's
// START/NAME+value/END-or-EMPTY state machine.
func (d *MessageDecompressor) DecompressMessage() (*Element, error) {
	token, err := d.nextToken()
	if err != nil {
		return nil, err
	}
	if token.Type != TokenStart {
		return nil, pricingerrors.ErrPricing.Wrapf("puffin protocol syntax error: expected START token, got %s", token)
	}
	return d.parseElement(token.Text)
}

func (d *MessageDecompressor) parseElement(tag string) (*Element, error) {
	element := NewElement(tag)
	d.tagStack = append(d.tagStack, tag)
	for {
		token, err := d.nextToken()
		if err != nil {
			return nil, err
		}
		switch token.Type {
		case TokenName:
			value, err := d.nextToken()
			if err != nil {
				return nil, err
			}
			if !value.valueType() {
				return nil, pricingerrors.ErrPricing.Wrapf("puffin protocol syntax error: expected value token after NAME, got %s", value)
			}
			element.Set(token.Text, value.Text)
		case TokenEmpty:
			d.popTag()
			return element, nil
		case TokenStart:
			child, err := d.parseElement(token.Text)
			if err != nil {
				return nil, err
			}
			element.Nest(child)
		case TokenEnd:
			d.popTag()
			return element, nil
		case TokenContent:
			// Bare content outside of an attribute has no home in the
			// Element model; discard it.
		default:
			return nil, pricingerrors.ErrPricing.Wrapf("puffin protocol syntax error: unexpected token %s", token)
		}
	}
}

func (d *MessageDecompressor) popTag() {
	if len(d.tagStack) > 0 {
		d.tagStack = d.tagStack[:len(d.tagStack)-1]
	}
}

// valueType reports whether t is a token kind that can follow NAME.
func (t Token) valueType() bool {
	switch t.Type {
	case TokenInteger, TokenDouble, TokenFraction, TokenString:
		return true
	default:
		return false
	}
}

// nextToken reads a single token, dispatching on the lead byte: a two-byte
// symbol reference, a one-byte symbol reference, or an unseen token's
// type-byte-plus-text, mirroring MessageDecompressor._next_token.
func (d *MessageDecompressor) nextToken() (Token, error) {
	b, err := d.readByte()
	if err != nil {
		return Token{}, err
	}
	if !IsFirstByteOfSymbol(b) {
		if int(b) >= NumTokenTypes {
			return Token{}, pricingerrors.ErrPricing.Wrapf("puffin protocol syntax error: unexpected byte 0x%02x", b)
		}
		return d.parseUnseenToken(TokenType(b))
	}
	low := FirstByteSymbol(b)
	if next, err := d.r.Peek(1); err == nil && IsSecondByteOfSymbol(next[0]) {
		return d.parseTwoByteToken(low)
	}
	return d.dict.GetToken(low)
}

// parseTwoByteToken resolves a two-byte symbol reference given its already
// consumed first byte's low bits.
func (d *MessageDecompressor) parseTwoByteToken(low int) (Token, error) {
	second, err := d.readByte()
	if err != nil {
		return Token{}, err
	}
	symbol := low | (int(second-NumTokenTypes) << SymbolBits)
	return d.dict.GetToken(symbol)
}

// parseUnseenToken reads a type byte identifying a never-before-seen token's
// kind, then its NUL-terminated text, registering it in the dictionary under
// the next free symbol.
func (d *MessageDecompressor) parseUnseenToken(tokenType TokenType) (Token, error) {
	if tokenType == TokenEnd || tokenType == TokenEmpty {
		return Token{Type: tokenType}, nil
	}
	text, err := d.readText()
	if err != nil {
		return Token{}, err
	}
	token := Token{Type: tokenType, Text: text}
	d.dict.InsertToken(token)
	return token, nil
}

func (d *MessageDecompressor) readText() (string, error) {
	var buf []byte
	for {
		b, err := d.readByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

func (d *MessageDecompressor) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, pricingerrors.ErrTransport.Wrap("end of socket stream")
	}
	return b, nil
}
