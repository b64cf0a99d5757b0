// Package sheet converts uploaded spreadsheets into input records and
// enriched records back into an xlsx workbook.
package sheet

import (
	"bytes"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/equitle/enrichment-cli/internal/model"
)

// ErrMalformedInput is returned when a file cannot be read as a spreadsheet
// or lacks a header row and at least one data row.
var ErrMalformedInput = eris.New("sheet: file must have a header row and at least one data row")

// xlsxMagic is the ZIP local file header every OOXML workbook starts with.
var xlsxMagic = []byte("PK\x03\x04")

// xlsMagic is the OLE2 compound file signature of legacy .xls workbooks.
var xlsMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Parse reads the first sheet of an xlsx or xls workbook (or a CSV file) and
// maps each data row to an InputRecord. Rows without a company, domain or
// website are dropped. Row order is preserved.
func Parse(buf []byte) ([]model.InputRecord, error) {
	var (
		rows [][]string
		err  error
	)
	switch {
	case IsXLSX(buf):
		rows, err = readXLSX(buf)
	case IsXLS(buf):
		rows, err = readXLS(buf)
	default:
		rows, err = readCSV(buf)
	}
	if err != nil {
		return nil, errors.Join(ErrMalformedInput, eris.Wrap(err, "sheet: parse spreadsheet"))
	}

	if len(rows) < 2 {
		return nil, eris.Wrapf(ErrMalformedInput, "sheet: parse spreadsheet: found %d rows", len(rows))
	}

	records := mapRows(rows[0], rows[1:])

	zap.L().Debug("sheet: parsed spreadsheet",
		zap.Int("data_rows", len(rows)-1),
		zap.Int("records", len(records)),
		zap.Strings("headers", rows[0]),
	)

	return records, nil
}

// IsXLSX reports whether buf looks like an OOXML workbook.
func IsXLSX(buf []byte) bool {
	return bytes.HasPrefix(buf, xlsxMagic)
}

// IsXLS reports whether buf looks like a legacy BIFF workbook.
func IsXLS(buf []byte) bool {
	return bytes.HasPrefix(buf, xlsMagic)
}

type field int

const (
	fieldExtra field = iota
	fieldCompany
	fieldDomain
	fieldEmail
	fieldPhone
)

// classifyHeader maps a header to a record field by case-insensitive
// substring match. Buckets are checked in order, so "Company Website" is a
// company column.
func classifyHeader(header string) field {
	h := strings.ToLower(strings.TrimSpace(header))
	switch {
	case h == "":
		return fieldExtra
	case strings.Contains(h, "company") || strings.Contains(h, "name"):
		return fieldCompany
	case strings.Contains(h, "domain") || strings.Contains(h, "website") || strings.Contains(h, "url"):
		return fieldDomain
	case strings.Contains(h, "email"):
		return fieldEmail
	case strings.Contains(h, "phone"):
		return fieldPhone
	default:
		return fieldExtra
	}
}

func mapRows(headers []string, data [][]string) []model.InputRecord {
	fields := make([]field, len(headers))
	for i, h := range headers {
		fields[i] = classifyHeader(h)
	}

	records := make([]model.InputRecord, 0, len(data))
	for i, row := range data {
		rec := model.InputRecord{Row: i + 2}

		for col, f := range fields {
			value := ""
			if col < len(row) {
				value = strings.TrimSpace(row[col])
			}

			// First non-empty column wins within a bucket.
			switch f {
			case fieldCompany:
				setIfEmpty(&rec.Company, value)
			case fieldDomain:
				setIfEmpty(&rec.Domain, value)
				setIfEmpty(&rec.Website, value)
			case fieldEmail:
				setIfEmpty(&rec.Email, value)
			case fieldPhone:
				setIfEmpty(&rec.Phone, value)
			default:
				header := strings.TrimSpace(headers[col])
				if header == "" {
					continue
				}
				if rec.Extra == nil {
					rec.Extra = make(map[string]string)
				}
				if _, seen := rec.Extra[header]; !seen {
					rec.ExtraHeaders = append(rec.ExtraHeaders, header)
				}
				rec.Extra[header] = value
			}
		}

		if !rec.HasIdentity() {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
