package model

import (
	"github.com/shopspring/decimal"
)

// VoucherType classifies a transaction for the accounting import.
type VoucherType string

const (
	VoucherPayment VoucherType = "Payment"
	VoucherReceipt VoucherType = "Receipt"
)

// Transaction represents one date-anchored line parsed from a statement.
type Transaction struct {
	Date       string          `json:"date"` // DD-MM-YYYY, as found in the source text
	Narration  string          `json:"narration"`
	Deposit    decimal.Decimal `json:"deposit"`    // zero if absent
	Withdrawal decimal.Decimal `json:"withdrawal"` // zero if absent
}

// VoucherType returns Payment for any non-zero withdrawal, Receipt otherwise.
// A withdrawal takes precedence even when a deposit is also present.
func (t Transaction) VoucherType() VoucherType {
	if !t.Withdrawal.IsZero() {
		return VoucherPayment
	}
	return VoucherReceipt
}
