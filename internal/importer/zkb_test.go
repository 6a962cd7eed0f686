package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseZKBSimple(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Date;Booking text;ZKB reference;Debit CHF;Credit CHF;Value date;Balance CHF;Amount details",
		"15.01.2025;Salary ACME Corp;Z1;;5000.00;15.01.2025;7200.00;",
		"12.01.2025;Migros Zuerich HB;Z2;23.55;;12.01.2025;2200.00;",
	}, "\n")

	records, err := ParseZKB(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Statement is newest first; output is chronological.
	require.Equal(t, "Migros Zuerich HB", records[0].Description)
	require.True(t, records[0].Amount.Equal(decimal.RequireFromString("23.55")))
	require.False(t, records[0].IsCredit)
	require.Equal(t, "Z2", records[0].Reference)
	require.Equal(t, time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC), records[0].Date)

	require.Equal(t, "Salary ACME Corp", records[1].Description)
	require.True(t, records[1].IsCredit)
	require.True(t, records[1].Amount.Equal(decimal.RequireFromString("5000")))
}

func TestParseZKBGroupedRows(t *testing.T) {
	t.Parallel()

	// A parent summary row followed by undated sub-rows: only the sub-rows
	// count, dated like the parent.
	data := strings.Join([]string{
		"Date;Booking text;ZKB reference;Debit CHF;Credit CHF;Value date;Balance CHF;Amount details",
		"20.01.2025;Debit card settlement;Z9;75.00;;20.01.2025;1000.00;",
		";Coop Pronto;Z9-1;;;;;25.00",
		";SBB Ticket;Z9-2;;;;;50.00",
	}, "\n")

	records, err := ParseZKB(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 2, "parent summary is skipped")

	require.Equal(t, "SBB Ticket", records[0].Description)
	require.True(t, records[0].Amount.Equal(decimal.RequireFromString("50")))
	require.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), records[0].Date)
	require.False(t, records[0].IsCredit)

	require.Equal(t, "Coop Pronto", records[1].Description)
	require.True(t, records[1].Amount.Equal(decimal.RequireFromString("25")))
}

func TestParseZKBThousandsSeparator(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Date;Booking text;ZKB reference;Debit CHF;Credit CHF;Value date;Balance CHF;Amount details",
		"10.01.2025;Rent January;Z3;1'850.00;;10.01.2025;500.00;",
	}, "\n")

	records, err := ParseZKB(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].Amount.Equal(decimal.RequireFromString("1850")))
}

func TestParseZKBMissingColumns(t *testing.T) {
	t.Parallel()

	_, err := ParseZKB(strings.NewReader("Datum;Buchungstext\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Date")
}

func TestParseZKBBOMHeader(t *testing.T) {
	t.Parallel()

	data := "\uFEFFDate;Booking text;ZKB reference;Debit CHF;Credit CHF;Value date;Balance CHF;Amount details\n" +
		"10.01.2025;Coffee;Z4;4.50;;10.01.2025;100.00;\n"

	records, err := ParseZKB(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
}
