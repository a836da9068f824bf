package puffin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bidfx-oss/pricing-go/puffin"
)

func TestElementStringSelfClosing(t *testing.T) {
	e := puffin.NewElement("Subscribe").Set("Subject", "Foo=Bar")
	assert.Equal(t, `<Subscribe Subject="Foo=Bar" />`, e.String())
}

func TestElementStringNested(t *testing.T) {
	parent := puffin.NewElement("Update").Set("Subject", "x")
	child := puffin.NewElement("Price").Set("Bid", "1.234").Set("Status", "1")
	parent.Nest(child)
	assert.Equal(t, `<Update Subject="x"><Price Bid="1.234" Status="1" /></Update>`, parent.String())
}

func TestElementGetAndAttribute(t *testing.T) {
	e := puffin.NewElement("Login").Set("Name", "trader1")
	assert.Equal(t, "trader1", e.Get("Name", ""))
	assert.Equal(t, "fallback", e.Get("Missing", "fallback"))

	value, ok := e.Attribute("Name")
	assert.True(t, ok)
	assert.Equal(t, "trader1", value)

	_, ok = e.Attribute("Missing")
	assert.False(t, ok)
}

func TestElementExtractPriceOmitsStatusAndSystemTime(t *testing.T) {
	parent := puffin.NewElement("Update")
	child := puffin.NewElement("Price").Set("Bid", "1.2").Set("Status", "1").Set("SystemTime", "123")
	parent.Nest(child)

	price := parent.ExtractPrice()
	assert.Equal(t, map[string]string{"Bid": "1.2"}, price)
}

func TestElementExtractPriceNoChildrenReturnsEmpty(t *testing.T) {
	e := puffin.NewElement("Update")
	assert.Empty(t, e.ExtractPrice())
}
