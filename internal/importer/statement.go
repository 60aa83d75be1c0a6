package importer

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stmt2tally/internal/model"
)

// Layout names the trailing amount columns of a statement line.
type Layout string

const (
	// LayoutWithBalance reads "... narration deposit withdrawal balance".
	LayoutWithBalance Layout = "with-balance"
	// LayoutWithoutBalance reads "... narration deposit withdrawal".
	LayoutWithoutBalance Layout = "without-balance"
	// LayoutAuto picks with-balance when the last three tokens are all amounts.
	LayoutAuto Layout = "auto"
)

// minTokens is the date token plus at least three more.
const minTokens = 4

var datePattern = regexp.MustCompile(`\d{2}-\d{2}-\d{4}`)

// StatementParser parses date-anchored statement lines.
// Lines without a DD-MM-YYYY date, or with too few tokens, are skipped.
// Amount tokens that do not parse become zero.
type StatementParser struct {
	layout Layout
}

// NewStatementParser returns a parser for the given column layout.
func NewStatementParser(layout Layout) *StatementParser {
	return &StatementParser{layout: layout}
}

// Format returns the layout name.
func (p *StatementParser) Format() string { return string(p.layout) }

// Parse reads all text from r and returns one Transaction per matching line.
func (p *StatementParser) Parse(r io.Reader) ([]model.Transaction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading statement text: %w", err)
	}
	return p.ParseText(string(data)), nil
}

// ParseText splits text into lines and parses each, preserving order.
func (p *StatementParser) ParseText(text string) []model.Transaction {
	var txns []model.Transaction
	for _, line := range strings.Split(text, "\n") {
		txn, ok := p.parseLine(strings.TrimSuffix(line, "\r"))
		if !ok {
			continue
		}
		txns = append(txns, txn)
	}
	return txns
}

func (p *StatementParser) parseLine(line string) (model.Transaction, bool) {
	date := datePattern.FindString(line)
	if date == "" {
		return model.Transaction{}, false
	}

	tokens := strings.Fields(line)
	n := len(tokens)
	if n < minTokens {
		return model.Transaction{}, false
	}

	// Deposit column index; withdrawal always follows it.
	dep := n - 2
	if p.hasBalance(tokens) {
		dep = n - 3
	}

	return model.Transaction{
		Date:       date,
		Narration:  strings.Join(tokens[1:dep], " "),
		Deposit:    ParseAmount(tokens[dep]),
		Withdrawal: ParseAmount(tokens[dep+1]),
	}, true
}

func (p *StatementParser) hasBalance(tokens []string) bool {
	switch p.layout {
	case LayoutWithBalance:
		return true
	case LayoutWithoutBalance:
		return false
	}
	for _, tok := range tokens[len(tokens)-3:] {
		if _, ok := amount(tok); !ok {
			return false
		}
	}
	return true
}

// ParseAmount parses a statement amount such as "1,200.50".
// Thousands separators are stripped; anything unparseable yields zero.
// The result is never negative.
func ParseAmount(tok string) decimal.Decimal {
	d, ok := amount(tok)
	if !ok {
		return decimal.Zero
	}
	return d.Abs()
}

func amount(tok string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.ReplaceAll(tok, ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
