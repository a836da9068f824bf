package puffin

import "strings"

// omittedPriceKeys lists attribute names stripped out of an update's price
// map by ExtractPrice, mirroring element.py's OMITTED_KEYS.
var omittedPriceKeys = map[string]bool{"Status": true, "SystemTime": true}

// attribute is an ordered (name, value) pair; Element preserves attribute
// insertion order, as the source list-backed implementation does.
type attribute struct {
	name  string
	value string
}

// Element is a single Puffin XML element: a tag, an ordered attribute list,
// and nested child elements. It is the unit exchanged by both the plain-XML
// pre-handshake parser and the compressed message codec.
type Element struct {
	Tag        string
	attributes []attribute
	children   []*Element
}

// NewElement constructs an empty Element with the given tag.
func NewElement(tag string) *Element {
	return &Element{Tag: tag}
}

// Nest appends a child element and returns the receiver for chaining.
func (e *Element) Nest(child *Element) *Element {
	e.children = append(e.children, child)
	return e
}

// Set appends an attribute and returns the receiver for chaining, mirroring
// the builder-style Element.set used to construct outgoing messages.
func (e *Element) Set(name, value string) *Element {
	e.attributes = append(e.attributes, attribute{name, value})
	return e
}

// Get returns the first attribute's value matching key, or def.
func (e *Element) Get(key, def string) string {
	for _, a := range e.attributes {
		if a.name == key {
			return a.value
		}
	}
	return def
}

// Attribute returns the first attribute's value matching key and whether it
// was present, the Go analogue of Element.__getitem__.
func (e *Element) Attribute(key string) (string, bool) {
	for _, a := range e.attributes {
		if a.name == key {
			return a.value, true
		}
	}
	return "", false
}

// Attributes returns the ordered (name, value) pairs.
func (e *Element) Attributes() [][2]string {
	out := make([][2]string, len(e.attributes))
	for i, a := range e.attributes {
		out[i] = [2]string{a.name, a.value}
	}
	return out
}

// Children returns the nested sub-elements in document order.
func (e *Element) Children() []*Element { return e.children }

// ExtractPrice returns the first child element's attributes as a price map,
// excluding the Status and SystemTime keys, mirroring
// Element.extract_price.
func (e *Element) ExtractPrice() map[string]string {
	if len(e.children) == 0 {
		return map[string]string{}
	}
	price := make(map[string]string, len(e.children[0].attributes))
	for _, a := range e.children[0].attributes {
		if !omittedPriceKeys[a.name] {
			price[a.name] = a.value
		}
	}
	return price
}

// String renders the element in its XML wire form.
func (e *Element) String() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(e.Tag)
	for _, a := range e.attributes {
		b.WriteByte(' ')
		b.WriteString(a.name)
		b.WriteString(`="`)
		b.WriteString(a.value)
		b.WriteByte('"')
	}
	if len(e.children) == 0 {
		b.WriteString(" />")
		return b.String()
	}
	b.WriteByte('>')
	for _, c := range e.children {
		b.WriteString(c.String())
	}
	b.WriteString("</")
	b.WriteString(e.Tag)
	b.WriteByte('>')
	return b.String()
}
