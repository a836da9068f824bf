package puffin

import (
	"bufio"
	"strings"

	"github.com/bidfx-oss/pricing-go/pricingerrors"
)

// PlainXMLParser reads plain ASCII XML elements from a stream byte-by-byte,
// used before the token dictionary becomes active: the Welcome, Grant, and
// ServiceDescription handshake messages. Ported from
// bidfx/pricing/_puffin/element.py's ElementParser.
type PlainXMLParser struct {
	r *bufio.Reader
}

// NewPlainXMLParser wraps r for plain-XML element parsing.
func NewPlainXMLParser(r *bufio.Reader) *PlainXMLParser {
	return &PlainXMLParser{r: r}
}

// ParseElement parses one `<tag attr="value" attr="value" />` element.
func (p *PlainXMLParser) ParseElement() (*Element, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	tag, terminator, err := p.parseText(" /")
	if err != nil {
		return nil, err
	}
	element := NewElement(tag)
	if terminator == ' ' {
		if err := p.parseAttributes(element); err != nil {
			return nil, err
		}
	}
	if err := p.expect('>'); err != nil {
		return nil, err
	}
	return element, nil
}

func (p *PlainXMLParser) parseAttributes(element *Element) error {
	b, err := p.readByte()
	if err != nil {
		return err
	}
	for b != '/' {
		name, _, err := p.parseTextFrom("=", b)
		if err != nil {
			return err
		}
		if err := p.expect('"'); err != nil {
			return err
		}
		value, _, err := p.parseText(`"`)
		if err != nil {
			return err
		}
		element.Set(name, value)
		b, err = p.expectOneOf(" /")
		if err != nil {
			return err
		}
		if b == ' ' {
			b, err = p.readByte()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *PlainXMLParser) expect(want byte) error {
	b, err := p.readByte()
	if err != nil {
		return err
	}
	if b != want {
		return pricingerrors.ErrPricing.Wrapf("expected '%c' char while parsing XML element, got '%c'", want, b)
	}
	return nil
}

func (p *PlainXMLParser) expectOneOf(want string) (byte, error) {
	b, err := p.readByte()
	if err != nil {
		return 0, err
	}
	if !strings.ContainsRune(want, rune(b)) {
		return 0, pricingerrors.ErrPricing.Wrapf("expected one of %q while parsing XML element, got '%c'", want, b)
	}
	return b, nil
}

func (p *PlainXMLParser) parseText(terminal string) (string, byte, error) {
	first, err := p.readByte()
	if err != nil {
		return "", 0, err
	}
	return p.parseTextFrom(terminal, first)
}

func (p *PlainXMLParser) parseTextFrom(terminal string, first byte) (string, byte, error) {
	var text strings.Builder
	b := first
	for !strings.ContainsRune(terminal, rune(b)) {
		text.WriteByte(b)
		next, err := p.readByte()
		if err != nil {
			return "", 0, err
		}
		b = next
	}
	return text.String(), b, nil
}

func (p *PlainXMLParser) readByte() (byte, error) {
	b, err := p.r.ReadByte()
	if err != nil {
		return 0, pricingerrors.ErrTransport.Wrap("end of socket stream")
	}
	return b, nil
}
