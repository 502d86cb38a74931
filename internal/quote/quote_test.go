package quote

import (
	"bytes"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/laflotawines-debug/presupuestadorpro/internal/models"

	"github.com/stretchr/testify/assert"
)

func sampleLines() []models.CartLine {
	return []models.CartLine{
		{
			Product:       models.Product{ID: "A1", Name: "Malbec Reserva"},
			Quantity:      2,
			SelectedPrice: 90,
			SelectedList:  models.List2,
		},
		{
			Product:       models.Product{ID: "B2", Name: "Gin Artesanal"},
			Quantity:      1,
			SelectedPrice: 1234.5,
			SelectedList:  models.List2,
		},
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "0"},
		{90, "90"},
		{1800, "1.800"},
		{1234.5, "1.234,50"},
		{1234567.89, "1.234.567,89"},
		{0.5, "0,50"},
		{-1800, "-1.800"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.v), "v=%v", tt.v)
	}
}

func TestNumberShape(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	n := Number(now)

	assert.True(t, strings.HasPrefix(n, "202608-31-"), n)
	assert.Len(t, n, len("202608-31-000"))
}

func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink(sampleLines(), 1414.5)
	assert.True(t, strings.HasPrefix(link, "https://wa.me/?text="))

	text, err := url.QueryUnescape(strings.TrimPrefix(link, "https://wa.me/?text="))
	assert.NoError(t, err)

	assert.Contains(t, text, "*PEDIDO ALFONSA DISTRIBUIDORA*")
	assert.Contains(t, text, "• *(2)* Malbec Reserva | $180")
	assert.Contains(t, text, "• *(1)* Gin Artesanal | $1.234,50")
	assert.Contains(t, text, "*TOTAL FINAL: $1.414,50*")
}

func TestGeneratePDF(t *testing.T) {
	data, err := GeneratePDF(sampleLines(), "Almacén Don José", 1414.5)
	assert.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestGeneratePDFManyLinesPaginates(t *testing.T) {
	lines := make([]models.CartLine, 60)
	for i := range lines {
		lines[i] = models.CartLine{
			Product:       models.Product{ID: "A1", Name: "Producto"},
			Quantity:      1,
			SelectedPrice: 10,
			SelectedList:  models.List1,
		}
	}

	data, err := GeneratePDF(lines, "", 600)
	assert.NoError(t, err)
	assert.NotEmpty(t, data)
}
