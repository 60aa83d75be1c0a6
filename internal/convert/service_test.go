package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stmt2tally/internal/auditlog"
	"github.com/cleared-dev/stmt2tally/internal/extract"
	"github.com/cleared-dev/stmt2tally/internal/importer"
	"github.com/cleared-dev/stmt2tally/internal/logging"
	"github.com/cleared-dev/stmt2tally/internal/tally"
)

const fixture = "../../testdata/statement.txt"

var ledgers = tally.Options{BankLedger: "HDFC Bank", ContraLedger: "Suspense"}

func newTestService(auditPath string) *Service {
	return NewService(importer.DefaultRegistry(), logging.Discard(), auditPath)
}

func TestParseFile_Fixture(t *testing.T) {
	svc := newTestService("")
	parsed, err := svc.ParseFile(context.Background(), fixture, "auto")
	require.NoError(t, err)
	assert.Len(t, parsed.Transactions, 4)
	assert.Positive(t, parsed.TextBytes)
}

func TestParse_UnknownLayout(t *testing.T) {
	svc := newTestService("")
	_, err := svc.Parse(context.Background(), "x.txt", strings.NewReader("x"), 1, "sideways")
	assert.ErrorIs(t, err, ErrUnknownLayout)
}

func TestParse_NotAPDF(t *testing.T) {
	svc := newTestService("")
	data := "this is not a pdf"
	_, err := svc.Parse(context.Background(), "upload.pdf", strings.NewReader(data), int64(len(data)), "auto")
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrNotPDF)
	assert.Contains(t, err.Error(), "extracting text")
}

func TestExport_Empty(t *testing.T) {
	svc := newTestService("")
	data, err := svc.Export(nil, ledgers, tally.Format{XMLHeader: true})
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestExport_HeaderAndTwoVouchers(t *testing.T) {
	svc := newTestService("")
	text := "Date Narration Deposits Withdrawals\n" +
		"01-02-2023 Grocery Store 1,200.50 0.00\n" +
		"03-02-2023 Electricity Bill 0.00 845.00\n"
	parsed, err := svc.Parse(context.Background(), "s.txt", strings.NewReader(text), int64(len(text)), "auto")
	require.NoError(t, err)

	data, err := svc.Export(parsed.Transactions, ledgers, tally.Format{})
	require.NoError(t, err)
	out := string(data)

	assert.Equal(t, 2, strings.Count(out, "<TALLYMESSAGE>"))
	assert.Contains(t, out, "<VOUCHERNUMBER>1</VOUCHERNUMBER><NARRATION>Grocery Store</NARRATION>")
	assert.Contains(t, out, "<VOUCHERNUMBER>2</VOUCHERNUMBER><NARRATION>Electricity Bill</NARRATION>")
	assert.Contains(t, out, `<VOUCHER VCHTYPE="Payment"`)
}

func TestConvertFile_WritesOutput(t *testing.T) {
	dir := t.TempDir()
	auditPath := filepath.Join(dir, "logs", "audit.csv")
	svc := newTestService(auditPath)

	outPath := filepath.Join(dir, tally.FileName)
	out, err := svc.ConvertFile(context.Background(), Request{
		Source: fixture,
		Output: outPath,
		Layout: "auto",
		Tally:  ledgers,
	})
	require.NoError(t, err)
	assert.True(t, out.Written)
	assert.Equal(t, 4, out.Transactions)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), "<TALLYMESSAGE>"))
	assert.Contains(t, string(data), "<DATE>20240402</DATE>")

	entries, err := auditlog.Read(auditPath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, auditlog.StatusExported, entries[0].Status)
	assert.Equal(t, 4, entries[0].Vouchers)
	assert.Equal(t, outPath, entries[0].Output)
}

func TestConvertFile_EmptyStatementWritesNothing(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(src, []byte("Statement of Account\nNo transactions this period\n"), 0o644))
	auditPath := filepath.Join(dir, "audit.csv")
	svc := newTestService(auditPath)

	outPath := filepath.Join(dir, tally.FileName)
	out, err := svc.ConvertFile(context.Background(), Request{Source: src, Output: outPath, Layout: "auto", Tally: ledgers})
	require.NoError(t, err)
	assert.False(t, out.Written)

	_, err = os.Stat(outPath)
	assert.True(t, os.IsNotExist(err))

	entries, err := auditlog.Read(auditPath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, auditlog.StatusEmpty, entries[0].Status)
}

func TestConvertFile_MissingSourceAudited(t *testing.T) {
	dir := t.TempDir()
	auditPath := filepath.Join(dir, "audit.csv")
	svc := newTestService(auditPath)

	_, err := svc.ConvertFile(context.Background(), Request{
		Source: filepath.Join(dir, "missing.pdf"),
		Output: filepath.Join(dir, "out.xml"),
		Layout: "auto",
	})
	require.Error(t, err)

	entries, err := auditlog.Read(auditPath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, auditlog.StatusFailed, entries[0].Status)
	assert.Contains(t, entries[0].Error, "opening statement")
}
