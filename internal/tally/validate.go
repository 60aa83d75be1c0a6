package tally

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError describes one voucher that Tally is likely to reject.
type ValidationError struct {
	Rule    int
	Voucher int
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("rule %d [voucher %d]: %s", e.Rule, e.Voucher, e.Message)
}

// Validate checks every voucher in env. It never modifies env.
//
//  1. exactly two ledger entries
//  2. ledger amounts sum to zero
//  3. ledger names are set
//  4. date is YYYYMMDD digits
//  5. voucher numbers are contiguous
func Validate(env *Envelope) []ValidationError {
	var errs []ValidationError

	msgs := env.Body.ImportData.RequestData.Messages
	for i, msg := range msgs {
		v := msg.Voucher

		if len(v.LedgerEntries) != 2 {
			errs = append(errs, ValidationError{
				Rule:    1,
				Voucher: v.VoucherNumber,
				Message: fmt.Sprintf("expected 2 ledger entries, got %d", len(v.LedgerEntries)),
			})
		}

		total := decimal.Zero
		for _, le := range v.LedgerEntries {
			amt, err := decimal.NewFromString(le.Amount)
			if err != nil {
				errs = append(errs, ValidationError{
					Rule:    2,
					Voucher: v.VoucherNumber,
					Message: fmt.Sprintf("amount %q is not a number", le.Amount),
				})
				continue
			}
			total = total.Add(amt)

			if le.LedgerName == "" {
				errs = append(errs, ValidationError{
					Rule:    3,
					Voucher: v.VoucherNumber,
					Message: "ledger name is empty",
				})
			}
		}
		if !total.IsZero() {
			errs = append(errs, ValidationError{
				Rule:    2,
				Voucher: v.VoucherNumber,
				Message: fmt.Sprintf("ledger amounts sum to %s", total),
			})
		}

		if !isCompactDate(v.Date) {
			errs = append(errs, ValidationError{
				Rule:    4,
				Voucher: v.VoucherNumber,
				Message: fmt.Sprintf("date %q is not YYYYMMDD", v.Date),
			})
		}

		if i > 0 && v.VoucherNumber != msgs[i-1].Voucher.VoucherNumber+1 {
			errs = append(errs, ValidationError{
				Rule:    5,
				Voucher: v.VoucherNumber,
				Message: fmt.Sprintf("follows voucher %d", msgs[i-1].Voucher.VoucherNumber),
			})
		}
	}

	return errs
}

func isCompactDate(s string) bool {
	if len(s) != 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
