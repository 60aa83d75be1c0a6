package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmt2tally/internal/model"
)

// Output formats for the parse command.
const (
	outputTable = "table"
	outputCSV   = "csv"
	outputJSON  = "json"
)

// transactionRow is the flat CSV shape of a parsed transaction.
type transactionRow struct {
	Date        string `csv:"date"`
	Narration   string `csv:"narration"`
	Deposit     string `csv:"deposit"`
	Withdrawal  string `csv:"withdrawal"`
	VoucherType string `csv:"voucher_type"`
}

func newParseCommand(a *app) *cobra.Command {
	var layout, output string

	cmd := &cobra.Command{
		Use:   "parse <statement.pdf|statement.txt>",
		Short: "Print the transactions found in a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("layout") {
				a.cfg.Parser.Layout = layout
			}
			return runParse(cmd, a, args[0], output)
		},
	}

	cmd.Flags().StringVar(&layout, "layout", "", "column layout: auto, with-balance, without-balance")
	cmd.Flags().StringVarP(&output, "output", "f", outputTable, "output format: table, csv, json")

	return cmd
}

func runParse(cmd *cobra.Command, a *app, path, output string) error {
	parsed, err := a.service().ParseFile(cmd.Context(), path, a.cfg.Parser.Layout)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch output {
	case outputTable:
		return writeTable(w, parsed.Transactions)
	case outputCSV:
		return writeCSV(w, parsed.Transactions)
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if parsed.Transactions == nil {
			parsed.Transactions = []model.Transaction{}
		}
		return enc.Encode(parsed.Transactions)
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func writeTable(w io.Writer, txns []model.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tNARRATION\tDEPOSIT\tWITHDRAWAL\tTYPE")
	for _, t := range txns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			t.Date, t.Narration, t.Deposit.StringFixed(2), t.Withdrawal.StringFixed(2), t.VoucherType())
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	fmt.Fprintf(w, "%d transactions\n", len(txns))
	return nil
}

func writeCSV(w io.Writer, txns []model.Transaction) error {
	rows := make([]transactionRow, len(txns))
	for i, t := range txns {
		rows[i] = transactionRow{
			Date:        t.Date,
			Narration:   t.Narration,
			Deposit:     t.Deposit.StringFixed(2),
			Withdrawal:  t.Withdrawal.StringFixed(2),
			VoucherType: string(t.VoucherType()),
		}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
