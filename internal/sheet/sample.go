package sheet

import (
	"bytes"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// SampleFileName is the download name of the template workbook.
const SampleFileName = "enrichment_sample.xlsx"

// SampleHeaders is the header row of the template workbook. Each header
// lands in a different column bucket.
var SampleHeaders = []string{"Company Name", "Website", "Email Address", "Phone Number", "Industry"}

// SampleRows are the example data rows of the template workbook.
var SampleRows = [][]string{
	{"Shopify", "https://www.shopify.com", "", "", "E-commerce"},
	{"Tech Solutions Inc", "techsolutions.com", "jane@techsolutions.com", "+1 555 0100", ""},
	{"Acme Corp", "", "", "", "Manufacturing"},
}

// HeaderGuide describes how upload headers are matched to record fields,
// in the order the buckets are checked.
var HeaderGuide = []string{
	`Company: any header containing "company" or "name" (Company Name, Business Name)`,
	`Domain: any header containing "domain", "website" or "url" (Website, Company URL)`,
	`Email: any header containing "email" (Email Address, Work Email)`,
	`Phone: any header containing "phone" (Phone Number, Mobile Phone)`,
	"Any other header is carried through unchanged",
}

// SampleRecords returns SampleRows keyed by SampleHeaders.
func SampleRecords() []map[string]string {
	out := make([]map[string]string, 0, len(SampleRows))
	for _, row := range SampleRows {
		m := make(map[string]string, len(SampleHeaders))
		for i, h := range SampleHeaders {
			m[h] = row[i]
		}
		out = append(out, m)
	}
	return out
}

// Sample builds the template workbook that Parse accepts as an upload.
func Sample() ([]byte, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Companies")
	if err != nil {
		return nil, eris.Wrap(err, "sheet: build sample: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range SampleHeaders {
		header.AddCell().SetString(h)
	}
	for _, values := range SampleRows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "sheet: build sample: write workbook")
	}
	return buf.Bytes(), nil
}
