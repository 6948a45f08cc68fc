package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnit(t *testing.T) {
	unit, err := ParseUnit(" kg ")
	require.NoError(t, err)
	assert.Equal(t, UnitKg, unit)

	unit, err = ParseUnit("TONNE")
	require.NoError(t, err)
	assert.Equal(t, UnitTonne, unit)

	_, err = ParseUnit("litre")
	assert.Error(t, err)
}

func TestParseMovementReason(t *testing.T) {
	for _, raw := range []string{"sale", "RESTORE", "Adjustment", "modification"} {
		_, err := ParseMovementReason(raw)
		assert.NoError(t, err, raw)
	}
	_, err := ParseMovementReason("THEFT")
	assert.Error(t, err)
}

func TestParsePaymentMode(t *testing.T) {
	mode, err := ParsePaymentMode("momo")
	require.NoError(t, err)
	assert.Equal(t, PaymentMomo, mode)

	_, err = ParsePaymentMode("cheque")
	assert.Error(t, err)
}

func TestParseInvoiceStatus(t *testing.T) {
	status, err := ParseInvoiceStatus("paid")
	require.NoError(t, err)
	assert.Equal(t, InvoicePaid, status)

	_, err = ParseInvoiceStatus("overdue")
	assert.Error(t, err)
}

func TestSaleTotal(t *testing.T) {
	total := SaleTotal(3, decimal.RequireFromString("2.50"))
	assert.True(t, total.Equal(decimal.RequireFromString("7.50")), total.String())

	// Rounds to 2 decimal places, half away from zero.
	total = SaleTotal(3, decimal.RequireFromString("0.333"))
	assert.Equal(t, "1.00", total.StringFixed(2))

	total = SaleTotal(0.5, decimal.RequireFromString("1.99"))
	assert.Equal(t, "1.00", total.StringFixed(2))
}
