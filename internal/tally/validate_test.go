package tally

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stmt2tally/internal/model"
)

func TestValidate_Clean(t *testing.T) {
	env := Build([]model.Transaction{
		txn("01-01-2024", "a", "10", "0"),
		txn("02-01-2024", "b", "0", "7.5"),
	}, testOpts)
	assert.Empty(t, Validate(env))
}

func TestValidate_EmptyLedgerNames(t *testing.T) {
	env := Build([]model.Transaction{txn("01-01-2024", "a", "10", "0")}, Options{})
	errs := Validate(env)
	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.Equal(t, 3, e.Rule)
		assert.Equal(t, 1, e.Voucher)
	}
}

func TestValidate_BadDate(t *testing.T) {
	env := Build([]model.Transaction{txn("1-1-24", "a", "10", "0")}, testOpts)
	errs := Validate(env)
	require.Len(t, errs, 1)
	assert.Equal(t, 4, errs[0].Rule)
	assert.Contains(t, errs[0].Error(), "rule 4 [voucher 1]")
}

func TestValidate_Unbalanced(t *testing.T) {
	env := Build([]model.Transaction{txn("01-01-2024", "a", "10", "0")}, testOpts)
	env.Body.ImportData.RequestData.Messages[0].Voucher.LedgerEntries[1].Amount = "-9"
	errs := Validate(env)
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Rule)
	assert.Contains(t, errs[0].Message, "sum to 1")
}

func TestValidate_EntryCountAndSequence(t *testing.T) {
	env := Build([]model.Transaction{
		txn("01-01-2024", "a", "10", "0"),
		txn("02-01-2024", "b", "10", "0"),
	}, testOpts)
	msgs := env.Body.ImportData.RequestData.Messages
	msgs[0].Voucher.LedgerEntries = msgs[0].Voucher.LedgerEntries[:1]
	msgs[0].Voucher.LedgerEntries[0].Amount = "0"
	msgs[1].Voucher.VoucherNumber = 5

	errs := Validate(env)
	rules := make([]int, len(errs))
	for i, e := range errs {
		rules[i] = e.Rule
	}
	assert.Equal(t, []int{1, 5}, rules)
}
