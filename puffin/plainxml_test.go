package puffin_test

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfx-oss/pricing-go/puffin"
)

func parseXML(t *testing.T, xml string) *puffin.Element {
	t.Helper()
	parser := puffin.NewPlainXMLParser(bufio.NewReader(strings.NewReader(xml)))
	element, err := parser.ParseElement()
	require.NoError(t, err)
	return element
}

func TestParseElementNoAttributes(t *testing.T) {
	e := parseXML(t, "<Heartbeat />")
	assert.Equal(t, "Heartbeat", e.Tag)
	assert.Empty(t, e.Attributes())
}

func TestParseElementWithAttributes(t *testing.T) {
	e := parseXML(t, `<Welcome Version="8" Interval="10000" PublicKey="" />`)
	assert.Equal(t, "Welcome", e.Tag)
	assert.Equal(t, "8", e.Get("Version", ""))
	assert.Equal(t, "10000", e.Get("Interval", ""))
}

func TestParseElementMissingClosingAngleErrors(t *testing.T) {
	parser := puffin.NewPlainXMLParser(bufio.NewReader(strings.NewReader(`<Welcome Version="8"`)))
	_, err := parser.ParseElement()
	assert.Error(t, err)
}
