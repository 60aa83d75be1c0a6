// Package convert runs the extract -> parse -> export pipeline.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/stmt2tally/internal/auditlog"
	"github.com/cleared-dev/stmt2tally/internal/extract"
	"github.com/cleared-dev/stmt2tally/internal/importer"
	"github.com/cleared-dev/stmt2tally/internal/model"
	"github.com/cleared-dev/stmt2tally/internal/tally"
)

// ErrUnknownLayout is returned for a layout name with no registered parser.
var ErrUnknownLayout = errors.New("unknown statement layout")

// Service provides the conversion pipeline.
type Service struct {
	registry  *importer.Registry
	log       logrus.FieldLogger
	auditPath string
}

// NewService creates a Service. auditPath may be empty to disable the audit log.
func NewService(registry *importer.Registry, log logrus.FieldLogger, auditPath string) *Service {
	return &Service{registry: registry, log: log, auditPath: auditPath}
}

// Parsed is the outcome of extracting and parsing one document.
type Parsed struct {
	TextBytes    int
	Transactions []model.Transaction
}

// Parse extracts the text of a document and parses it with layout.
// name only selects the extractor (.txt vs PDF).
func (s *Service) Parse(ctx context.Context, name string, r io.ReaderAt, size int64, layout string) (Parsed, error) {
	parser := s.registry.Get(layout)
	if parser == nil {
		return Parsed{}, fmt.Errorf("%w: %q", ErrUnknownLayout, layout)
	}

	text, err := extract.ForName(name).Extract(ctx, r, size)
	if err != nil {
		return Parsed{}, fmt.Errorf("extracting text: %w", err)
	}

	txns, err := parser.Parse(strings.NewReader(text))
	if err != nil {
		return Parsed{}, fmt.Errorf("parsing statement: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"source":       name,
		"layout":       parser.Format(),
		"text_bytes":   len(text),
		"transactions": len(txns),
	}).Debug("parsed statement")

	return Parsed{TextBytes: len(text), Transactions: txns}, nil
}

// ParseFile opens path and parses it.
func (s *Service) ParseFile(ctx context.Context, path, layout string) (Parsed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Parsed{}, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Parsed{}, fmt.Errorf("stat statement: %w", err)
	}
	return s.Parse(ctx, filepath.Base(path), f, info.Size(), layout)
}

// Export builds the Tally document for txns. It returns nil when there is
// nothing to export. Validation problems are logged, not returned.
func (s *Service) Export(txns []model.Transaction, opts tally.Options, f tally.Format) ([]byte, error) {
	if len(txns) == 0 {
		return nil, nil
	}

	env := tally.Build(txns, opts)
	for _, ve := range tally.Validate(env) {
		s.log.WithFields(logrus.Fields{
			"rule":    ve.Rule,
			"voucher": ve.Voucher,
		}).Warn(ve.Message)
	}

	var buf bytes.Buffer
	if err := tally.Write(&buf, env, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Request describes one file conversion.
type Request struct {
	Source string
	Output string
	Layout string
	Tally  tally.Options
	Format tally.Format
}

// Outcome reports what a conversion did.
type Outcome struct {
	Transactions int
	Written      bool
}

// ConvertFile converts Source into Output. When the statement has no
// transactions Output is not created.
func (s *Service) ConvertFile(ctx context.Context, req Request) (out Outcome, err error) {
	defer func() { s.audit(req, out, err) }()

	parsed, err := s.ParseFile(ctx, req.Source, req.Layout)
	if err != nil {
		return Outcome{}, err
	}
	out.Transactions = len(parsed.Transactions)

	data, err := s.Export(parsed.Transactions, req.Tally, req.Format)
	if err != nil {
		return out, err
	}
	if data == nil {
		s.log.WithField("source", req.Source).Info("no transactions found; nothing written")
		return out, nil
	}

	if err := os.WriteFile(req.Output, data, 0o644); err != nil {
		return out, fmt.Errorf("writing %s: %w", req.Output, err)
	}
	out.Written = true

	s.log.WithFields(logrus.Fields{
		"source":   req.Source,
		"output":   req.Output,
		"vouchers": out.Transactions,
	}).Info("exported vouchers")
	return out, nil
}

func (s *Service) audit(req Request, out Outcome, err error) {
	if s.auditPath == "" {
		return
	}

	e := auditlog.Entry{
		Timestamp:    time.Now().UTC().Truncate(time.Second),
		Source:       req.Source,
		Layout:       req.Layout,
		Transactions: out.Transactions,
		Status:       auditlog.StatusEmpty,
	}
	switch {
	case err != nil:
		e.Status = auditlog.StatusFailed
		e.Error = err.Error()
	case out.Written:
		e.Status = auditlog.StatusExported
		e.Vouchers = out.Transactions
		e.Output = req.Output
	}

	if aerr := auditlog.Append(s.auditPath, []auditlog.Entry{e}); aerr != nil {
		s.log.WithError(aerr).Warn("failed to write audit log")
	}
}
