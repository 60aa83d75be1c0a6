package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmt2tally/internal/convert"
	"github.com/cleared-dev/stmt2tally/internal/importer"
	"github.com/cleared-dev/stmt2tally/internal/tally"
)

type convertFlags struct {
	bank      string
	contra    string
	company   string
	out       string
	dir       string
	layout    string
	indent    bool
	xmlHeader bool
}

func newConvertCommand(a *app) *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:   "convert [statement.pdf|statement.txt]...",
		Short: "Convert bank statements into a Tally voucher import",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && f.dir == "" {
				return fmt.Errorf("no statements given: pass statement files or --dir")
			}
			if len(args) > 0 && f.dir != "" {
				return fmt.Errorf("pass statement files or --dir, not both")
			}
			if f.out != "" && len(args) > 1 {
				return fmt.Errorf("--out only applies to a single statement")
			}
			a.applyConvertFlags(cmd, f)
			return runConvert(cmd, a, args, f)
		},
	}

	cmd.Flags().StringVar(&f.bank, "bank", "", "bank ledger name (overrides config)")
	cmd.Flags().StringVar(&f.contra, "ledger", "", "contra ledger name (overrides config)")
	cmd.Flags().StringVar(&f.company, "company", "", "Tally company name (overrides config)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output file (single statement only)")
	cmd.Flags().StringVar(&f.dir, "dir", "", "convert every statement in <dir>/import")
	cmd.Flags().StringVar(&f.layout, "layout", "", "column layout: auto, with-balance, without-balance")
	cmd.Flags().BoolVar(&f.indent, "indent", false, "indent the generated XML")
	cmd.Flags().BoolVar(&f.xmlHeader, "xml-header", false, "prepend an XML declaration")

	return cmd
}

// applyConvertFlags folds explicitly set flags over the resolved config.
func (a *app) applyConvertFlags(cmd *cobra.Command, f convertFlags) {
	flags := cmd.Flags()
	if flags.Changed("bank") {
		a.cfg.Ledgers.Bank = f.bank
	}
	if flags.Changed("ledger") {
		a.cfg.Ledgers.Contra = f.contra
	}
	if flags.Changed("company") {
		a.cfg.Company.Name = f.company
	}
	if flags.Changed("layout") {
		a.cfg.Parser.Layout = f.layout
	}
	if flags.Changed("indent") {
		a.cfg.Export.Indent = f.indent
	}
	if flags.Changed("xml-header") {
		a.cfg.Export.XMLHeader = f.xmlHeader
	}
}

func (a *app) tallyOptions() tally.Options {
	return tally.Options{
		Company:      a.cfg.Company.Name,
		BankLedger:   a.cfg.Ledgers.Bank,
		ContraLedger: a.cfg.Ledgers.Contra,
		VoucherStart: a.cfg.Export.VoucherStart,
	}
}

func (a *app) format() tally.Format {
	return tally.Format{Indent: a.cfg.Export.Indent, XMLHeader: a.cfg.Export.XMLHeader}
}

func (a *app) service() *convert.Service {
	return convert.NewService(importer.DefaultRegistry(), a.log, a.cfg.Audit.Path)
}

func runConvert(cmd *cobra.Command, a *app, args []string, f convertFlags) error {
	if a.cfg.Ledgers.Bank == "" || a.cfg.Ledgers.Contra == "" {
		return fmt.Errorf("bank and contra ledger names are required (--bank/--ledger or %s)", a.cfgPath)
	}

	svc := a.service()
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if f.dir != "" {
		return convertDir(cmd, a, svc, f.dir)
	}

	for _, src := range args {
		out := f.out
		if out == "" {
			out = a.cfg.Export.FileName
			if len(args) > 1 {
				out = outputName(filepath.Dir(src), src)
			}
		}

		res, err := svc.ConvertFile(ctx, a.request(src, out))
		if err != nil {
			return fmt.Errorf("converting %s: %w", src, err)
		}
		printOutcome(w, src, out, res)
	}
	return nil
}

func convertDir(cmd *cobra.Command, a *app, svc *convert.Service, dir string) error {
	files, err := importer.Scan(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No statements in %s\n", filepath.Join(dir, "import"))
		return nil
	}

	exportDir := filepath.Join(dir, "exports")
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return fmt.Errorf("creating exports dir: %w", err)
	}

	var failed int
	for _, fi := range files {
		out := outputName(exportDir, fi.Name)
		res, err := svc.ConvertFile(cmd.Context(), a.request(fi.Path, out))
		if err != nil {
			failed++
			a.log.WithError(err).WithField("source", fi.Name).Error("conversion failed")
			continue
		}
		printOutcome(cmd.OutOrStdout(), fi.Name, out, res)

		if err := importer.MarkProcessed(dir, fi.Name); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed", failed, len(files))
	}
	return nil
}

func (a *app) request(src, out string) convert.Request {
	return convert.Request{
		Source: src,
		Output: out,
		Layout: a.cfg.Parser.Layout,
		Tally:  a.tallyOptions(),
		Format: a.format(),
	}
}

// outputName maps statement.pdf to <dir>/statement.xml.
func outputName(dir, src string) string {
	base := filepath.Base(src)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".xml")
}

func printOutcome(w io.Writer, src, out string, res convert.Outcome) {
	if !res.Written {
		fmt.Fprintf(w, "%s: no transactions found, nothing written\n", src)
		return
	}
	fmt.Fprintf(w, "%s: wrote %d vouchers to %s\n", src, res.Transactions, out)
}
