package tally

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/stmt2tally/internal/model"
)

const (
	// FileName is the name the import file is offered under.
	FileName = "TallyData.xml"
	// ContentType is the MIME type of the import file.
	ContentType = "application/xml"
	// DefaultCompany is used when no company name is configured.
	DefaultCompany = "Your Company Name"

	tallyRequest = "Import Data"
	reportName   = "Vouchers"
	actionCreate = "Create"
	objView      = "Accounting Voucher View"
	deemedYes    = "Yes"
	deemedNo     = "No"
)

// Options controls voucher construction.
type Options struct {
	Company      string
	BankLedger   string
	ContraLedger string
	VoucherStart int // first voucher number; 0 means 1
}

// Format controls serialization.
type Format struct {
	Indent    bool
	XMLHeader bool
}

// FormatDate rearranges DD-MM-YYYY into YYYYMMDD. No calendar validation is
// done; input that is not three dash-separated parts is returned unchanged.
func FormatDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return parts[2] + parts[1] + parts[0]
}

// Build maps transactions into an Envelope, one voucher per transaction in
// input order.
func Build(txns []model.Transaction, opts Options) *Envelope {
	company := opts.Company
	if company == "" {
		company = DefaultCompany
	}
	start := opts.VoucherStart
	if start <= 0 {
		start = 1
	}

	msgs := make([]TallyMessage, len(txns))
	for i, txn := range txns {
		msgs[i] = TallyMessage{Voucher: buildVoucher(txn, start+i, opts)}
	}

	return &Envelope{
		Header: Header{TallyRequest: tallyRequest},
		Body: Body{ImportData: ImportData{
			RequestDesc: RequestDesc{
				ReportName:      reportName,
				StaticVariables: StaticVariables{CurrentCompany: company},
			},
			RequestData: RequestData{Messages: msgs},
		}},
	}
}

func buildVoucher(txn model.Transaction, number int, opts Options) Voucher {
	vt := txn.VoucherType()

	// Contra ledger first, bank ledger second; the flags and signs mirror
	// each other so the voucher balances.
	contra := LedgerEntry{LedgerName: opts.ContraLedger}
	bank := LedgerEntry{LedgerName: opts.BankLedger}
	if vt == model.VoucherPayment {
		contra.IsDeemedPositive, contra.Amount = deemedYes, txn.Withdrawal.Neg().String()
		bank.IsDeemedPositive, bank.Amount = deemedNo, txn.Withdrawal.String()
	} else {
		contra.IsDeemedPositive, contra.Amount = deemedNo, txn.Deposit.String()
		bank.IsDeemedPositive, bank.Amount = deemedYes, txn.Deposit.Neg().String()
	}

	return Voucher{
		VchType:         string(vt),
		Action:          actionCreate,
		ObjView:         objView,
		Date:            FormatDate(txn.Date),
		VoucherTypeName: string(vt),
		VoucherNumber:   number,
		Narration:       txn.Narration,
		LedgerEntries:   []LedgerEntry{contra, bank},
	}
}

// Write serializes env to w.
func Write(w io.Writer, env *Envelope, f Format) error {
	if f.XMLHeader {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return fmt.Errorf("writing xml header: %w", err)
		}
	}
	enc := xml.NewEncoder(w)
	if f.Indent {
		enc.Indent("", "  ")
	}
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flushing envelope: %w", err)
	}
	if f.Indent {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return fmt.Errorf("writing trailing newline: %w", err)
		}
	}
	return nil
}
