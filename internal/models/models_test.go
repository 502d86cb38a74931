package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceListValid(t *testing.T) {
	assert.True(t, List1.Valid())
	assert.True(t, List4.Valid())
	assert.False(t, PriceList(0).Valid())
	assert.False(t, PriceList(5).Valid())
}

func TestPriceListSpecial(t *testing.T) {
	assert.False(t, List1.Special())
	assert.False(t, List3.Special())
	assert.True(t, List4.Special())
}

func TestPriceFor(t *testing.T) {
	p := Product{Price1: 100, Price2: 90, Price3: 80, Price4: 70}

	assert.Equal(t, 100.0, p.PriceFor(List1))
	assert.Equal(t, 90.0, p.PriceFor(List2))
	assert.Equal(t, 80.0, p.PriceFor(List3))
	assert.Equal(t, 70.0, p.PriceFor(List4))

	// Out-of-range lists fall back to list 1.
	assert.Equal(t, 100.0, p.PriceFor(PriceList(0)))
	assert.Equal(t, 100.0, p.PriceFor(PriceList(9)))
}

func TestCartLineSubtotal(t *testing.T) {
	line := CartLine{
		Product:       Product{ID: "A1"},
		Quantity:      3,
		SelectedPrice: 90,
	}
	assert.Equal(t, 270.0, line.Subtotal())
}
