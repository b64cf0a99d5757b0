package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/equitle/enrichment-cli/internal/model"
)

func readGenerated(t *testing.T, buf []byte) [][]string {
	t.Helper()
	f, err := xlsx.OpenBinary(buf)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Equal(t, OutputSheetName, f.Sheets[0].Name)

	rows, err := readXLSX(buf)
	require.NoError(t, err)
	for i := range rows {
		for len(rows[i]) < len(OutputColumns) {
			rows[i] = append(rows[i], "")
		}
	}
	return rows
}

func TestGenerate_HeaderAndRows(t *testing.T) {
	records := []model.EnrichedRecord{
		{
			InputRecord: model.InputRecord{Row: 2, Company: "Shopify", Domain: "shopify.com", Website: "shopify.com"},
			EnrichedData: &model.EnrichedData{
				Company: &model.CompanyData{Name: "Shopify Inc.", Website: "https://shopify.com"},
				Contacts: []model.ContactData{
					{Name: "Tobi Lutke", Title: "CEO", Email: "tobi@shopify.com"},
					{Name: "Jeff Hoffmeister", Title: "CFO", Email: "jeff@shopify.com"},
					{Name: "Third Person", Title: "Director", Email: "third@shopify.com"},
				},
				Source: "apollo",
			},
			Status: model.RecordStatusSuccess,
		},
		{
			InputRecord:  model.InputRecord{Row: 3, Company: "Unknown Obscure LLC"},
			Status:       model.RecordStatusError,
			ErrorMessage: "No organization data found",
		},
	}

	buf, err := Generate(records)
	require.NoError(t, err)

	rows := readGenerated(t, buf)
	require.Len(t, rows, 3)
	assert.Equal(t, OutputColumns, rows[0])

	assert.Equal(t, []string{
		"Shopify", "shopify.com",
		"Tobi Lutke", "CEO", "tobi@shopify.com",
		"Jeff Hoffmeister", "CFO", "jeff@shopify.com",
		BadgeMultipleContacts, "apollo", "3 contacts found",
	}, rows[1])

	assert.Equal(t, []string{
		"Unknown Obscure LLC", "",
		"", "", "",
		"", "", "",
		BadgeNoContacts, "", "No organization data found",
	}, rows[2])
}

func TestGenerate_Empty(t *testing.T) {
	buf, err := Generate([]model.EnrichedRecord{})
	require.NoError(t, err)

	rows := readGenerated(t, buf)
	require.Len(t, rows, 1)
	assert.Equal(t, OutputColumns, rows[0])
}

func TestBuildRow_Fallbacks(t *testing.T) {
	r := model.EnrichedRecord{
		InputRecord: model.InputRecord{Row: 2, Domain: "acme.com"},
		EnrichedData: &model.EnrichedData{
			Company:  &model.CompanyData{Name: "Acme Corporation", Website: "https://acme.com"},
			Contacts: []model.ContactData{{Name: "Jane Doe", Title: "VP Sales"}},
			Source:   "apollo",
		},
		Status: model.RecordStatusSuccess,
	}

	row := BuildRow(r)
	require.Len(t, row, len(OutputColumns))
	assert.Equal(t, "Acme Corporation", row[0])
	assert.Equal(t, "acme.com", row[1])
	assert.Equal(t, "Jane Doe", row[2])
	assert.Equal(t, "VP Sales", row[3])
	assert.Empty(t, row[4])
	assert.Equal(t, BadgeOneContact, row[8])
	assert.Equal(t, "1 contact found", row[10])
}

func TestBuildRow_EnrichedWebsite(t *testing.T) {
	r := model.EnrichedRecord{
		InputRecord: model.InputRecord{Row: 2, Company: "Acme"},
		EnrichedData: &model.EnrichedData{
			Company: &model.CompanyData{Name: "Acme", Website: "https://acme.com"},
			Source:  "apollo",
		},
		Status:       model.RecordStatusPartial,
		ErrorMessage: "No contacts found for company",
	}

	row := BuildRow(r)
	assert.Equal(t, "https://acme.com", row[1])
	assert.Equal(t, BadgeNoContacts, row[8])
	assert.Equal(t, "No contacts found for company", row[10])
}

func TestStatusBadge(t *testing.T) {
	assert.Equal(t, BadgeNoContacts, StatusBadge(0))
	assert.Equal(t, BadgeOneContact, StatusBadge(1))
	assert.Equal(t, BadgeMultipleContacts, StatusBadge(2))
	assert.Equal(t, BadgeMultipleContacts, StatusBadge(7))
}

func TestOutputFileName(t *testing.T) {
	assert.Equal(t, "enriched_companies.xlsx", OutputFileName("companies.csv"))
	assert.Equal(t, "enriched_q3 list.xlsx", OutputFileName("q3 list.xlsx"))
	assert.Equal(t, "enriched_leads.xlsx", OutputFileName("/tmp/uploads/leads.xls"))
	assert.Equal(t, "enriched_data.xlsx", OutputFileName(""))
}
