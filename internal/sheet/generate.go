package sheet

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/equitle/enrichment-cli/internal/model"
)

// OutputSheetName is the name of the single sheet in generated workbooks.
const OutputSheetName = "Enriched Data"

// ContentType is the MIME type of generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Contact-count badges shown in the Enrichment Status column.
const (
	BadgeNoContacts       = "No Contacts Found"
	BadgeOneContact       = "1 Contact Found"
	BadgeMultipleContacts = "Multiple Contacts Found"
)

// maxContactColumns is how many contacts get their own columns.
const maxContactColumns = 2

// OutputColumns defines the ordered output header row.
var OutputColumns = []string{
	"Company Name",
	"Company Website",
	"Contact 1 Name",
	"Contact 1 Title",
	"Contact 1 Email",
	"Contact 2 Name",
	"Contact 2 Title",
	"Contact 2 Email",
	"Enrichment Status",
	"Data Source",
	"Notes",
}

// Generate writes records to a new xlsx workbook, one row per record in the
// given order.
func Generate(records []model.EnrichedRecord) ([]byte, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(OutputSheetName)
	if err != nil {
		return nil, eris.Wrap(err, "sheet: generate spreadsheet: add sheet")
	}

	headerStyle := xlsx.NewStyle()
	headerStyle.Font.Bold = true
	headerStyle.ApplyFont = true

	header := sheet.AddRow()
	for _, col := range OutputColumns {
		cell := header.AddCell()
		cell.SetString(col)
		cell.SetStyle(headerStyle)
	}

	for _, r := range records {
		row := sheet.AddRow()
		for _, value := range BuildRow(r) {
			row.AddCell().SetString(value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "sheet: generate spreadsheet: write workbook")
	}
	return buf.Bytes(), nil
}

// BuildRow maps an EnrichedRecord to output cells in OutputColumns order.
// Missing data renders as empty cells.
func BuildRow(r model.EnrichedRecord) []string {
	var company *model.CompanyData
	source := ""
	if r.EnrichedData != nil {
		company = r.EnrichedData.Company
		source = r.EnrichedData.Source
	}
	contacts := r.Contacts()

	name := r.Company
	if name == "" && company != nil {
		name = company.Name
	}
	website := r.Website
	if website == "" {
		website = r.Domain
	}
	if website == "" && company != nil {
		website = company.Website
	}

	row := make([]string, 0, len(OutputColumns))
	row = append(row, name, website)
	for i := 0; i < maxContactColumns; i++ {
		if i < len(contacts) {
			c := contacts[i]
			row = append(row, c.Name, c.Title, c.Email)
		} else {
			row = append(row, "", "", "")
		}
	}
	row = append(row, StatusBadge(len(contacts)), source, notes(r, len(contacts)))
	return row
}

// StatusBadge labels a row by how many contacts were found.
func StatusBadge(contactCount int) string {
	switch {
	case contactCount <= 0:
		return BadgeNoContacts
	case contactCount == 1:
		return BadgeOneContact
	default:
		return BadgeMultipleContacts
	}
}

func notes(r model.EnrichedRecord, contactCount int) string {
	if r.ErrorMessage != "" {
		return r.ErrorMessage
	}
	if contactCount == 1 {
		return "1 contact found"
	}
	return fmt.Sprintf("%d contacts found", contactCount)
}

// OutputFileName names the enriched workbook after the upload:
// "companies.csv" becomes "enriched_companies.xlsx".
func OutputFileName(upload string) string {
	base := filepath.Base(upload)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "data"
	}
	return "enriched_" + base + ".xlsx"
}
