package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Status values recorded for a conversion.
const (
	StatusExported = "exported"
	StatusEmpty    = "empty"
	StatusFailed   = "failed"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp    time.Time
	Source       string
	Layout       string
	Transactions int
	Vouchers     int
	Output       string
	Status       string
	Error        string
}

// Header is the CSV header for the audit log.
const Header = "timestamp,source,layout,transactions,vouchers,output,status,error"

const (
	numFields       = 8
	colTimestamp    = 0
	colSource       = 1
	colLayout       = 2
	colTransactions = 3
	colVouchers     = 4
	colOutput       = 5
	colStatus       = 6
	colError        = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colSource] = e.Source
	row[colLayout] = e.Layout
	row[colTransactions] = strconv.Itoa(e.Transactions)
	row[colVouchers] = strconv.Itoa(e.Vouchers)
	row[colOutput] = e.Output
	row[colStatus] = e.Status
	row[colError] = e.Error
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	txns, err := strconv.Atoi(record[colTransactions])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing transactions %q: %w", record[colTransactions], err)
	}
	vouchers, err := strconv.Atoi(record[colVouchers])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing vouchers %q: %w", record[colVouchers], err)
	}

	return Entry{
		Timestamp:    ts,
		Source:       record[colSource],
		Layout:       record[colLayout],
		Transactions: txns,
		Vouchers:     vouchers,
		Output:       record[colOutput],
		Status:       record[colStatus],
		Error:        record[colError],
	}, nil
}

// Append writes entries to the CSV file at path, creating the file, its
// directory and the header if needed.
func Append(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating audit log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from the audit log at path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
