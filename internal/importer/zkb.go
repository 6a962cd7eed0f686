// Package importer parses bank statement exports into the neutral records
// the classification pipeline consumes.
package importer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendlog/spendlog/internal/service"
)

const zkbDateLayout = "02.01.2006"

// zkbRow is one raw statement line keyed by header name.
type zkbRow struct {
	date          string
	bookingText   string
	debit         string
	credit        string
	reference     string
	amountDetails string
}

// ParseZKB parses a ZKB (Zürcher Kantonalbank) CSV statement. The export
// is semicolon-delimited, newest row first, and may carry grouped
// transactions: a dated parent summary row followed by undated sub-rows
// whose amount lives in the "Amount details" column. Only the sub-rows
// are imported; they inherit the parent's date. Output is chronological
// (oldest first), as the pipeline expects.
func ParseZKB(r io.Reader) ([]service.Record, error) {
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.Comma = ';'
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true

	header, err := csvr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Date", "Booking text"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("statement is missing column %q", required)
		}
	}

	var rows []zkbRow
	for {
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, zkbRow{
			date:          field(rec, cols, "Date"),
			bookingText:   field(rec, cols, "Booking text"),
			debit:         field(rec, cols, "Debit CHF"),
			credit:        field(rec, cols, "Credit CHF"),
			reference:     field(rec, cols, "ZKB reference"),
			amountDetails: field(rec, cols, "Amount details"),
		})
	}

	var records []service.Record
	var lastDate time.Time
	for i := 0; i < len(rows); i++ {
		row := rows[i]

		// Undated sub-row of a grouped transaction: inherit the parent date.
		if row.date == "" && row.amountDetails != "" {
			if lastDate.IsZero() {
				continue
			}
			amount, err := parseAmount(row.amountDetails)
			if err != nil {
				return nil, fmt.Errorf("row %d amount details: %w", i+2, err)
			}
			records = append(records, service.Record{
				Date:        lastDate,
				Description: row.bookingText,
				Amount:      amount,
				IsCredit:    false, // grouped rows are expense breakdowns
				Reference:   row.reference,
			})
			continue
		}

		if row.date == "" || (row.debit == "" && row.credit == "") {
			continue
		}

		date, err := time.Parse(zkbDateLayout, row.date)
		if err != nil {
			return nil, fmt.Errorf("row %d date: %w", i+2, err)
		}
		lastDate = date

		// A dated row directly followed by an undated amount-details row is
		// a parent summary; skip it in favor of its breakdown.
		if i+1 < len(rows) && rows[i+1].date == "" && rows[i+1].amountDetails != "" {
			continue
		}

		isCredit := row.credit != "" && row.debit == ""
		raw := row.debit
		if isCredit {
			raw = row.credit
		}
		amount, err := parseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d amount: %w", i+2, err)
		}
		records = append(records, service.Record{
			Date:        date,
			Description: row.bookingText,
			Amount:      amount,
			IsCredit:    isCredit,
			Reference:   row.reference,
		})
	}

	// Statement arrives newest first; the pipeline wants oldest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "'", "")
	return decimal.NewFromString(s)
}
