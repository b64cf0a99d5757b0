package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/equitle/enrichment-cli/internal/model"
	"github.com/equitle/enrichment-cli/internal/sheet"
)

func csvFile(lines ...string) []byte {
	var out []byte
	for _, l := range lines {
		out = append(out, l...)
		out = append(out, '\n')
	}
	return out
}

func readOutput(t *testing.T, buf []byte) [][]string {
	t.Helper()
	f, err := xlsx.OpenBinary(buf)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(sheet.OutputColumns))
		for i, c := range row.Cells {
			if i < len(cells) {
				cells[i] = c.String()
			}
		}
		rows = append(rows, cells)
	}
	return rows
}

func TestEnrichRecord_StatusClassification(t *testing.T) {
	ceo := model.ContactData{Name: "Pat", Title: "CEO"}

	tests := []struct {
		name        string
		company     model.EnrichmentResult
		contacts    model.EnrichmentResult
		wantStatus  model.RecordStatus
		wantMessage string
		wantData    bool
	}{
		{
			name:       "both",
			company:    companyResult("Acme", "https://acme.com"),
			contacts:   contactsResult(ceo),
			wantStatus: model.RecordStatusSuccess,
			wantData:   true,
		},
		{
			name:        "company only",
			company:     companyResult("Acme", "https://acme.com"),
			contacts:    notFound("No contacts found for company"),
			wantStatus:  model.RecordStatusPartial,
			wantMessage: MsgContactsNotFound,
			wantData:    true,
		},
		{
			name:        "contacts only",
			company:     notFound("No organization data found"),
			contacts:    contactsResult(ceo),
			wantStatus:  model.RecordStatusPartial,
			wantMessage: MsgCompanyNotFound,
			wantData:    true,
		},
		{
			name:        "neither prefers company error",
			company:     notFound("No organization data found"),
			contacts:    notFound("No contacts found for company"),
			wantStatus:  model.RecordStatusError,
			wantMessage: "No organization data found",
		},
		{
			name:        "neither falls back to contact error",
			company:     notFound(""),
			contacts:    notFound("No contacts found for company"),
			wantStatus:  model.RecordStatusError,
			wantMessage: "No contacts found for company",
		},
		{
			name:        "neither without messages",
			company:     notFound(""),
			contacts:    notFound(""),
			wantStatus:  model.RecordStatusError,
			wantMessage: MsgFailed,
		},
		{
			name:        "empty contact list is not success",
			company:     notFound("No organization data found"),
			contacts:    contactsResult(),
			wantStatus:  model.RecordStatusError,
			wantMessage: "No organization data found",
		},
		{
			name:        "success without contacts is contacts not found",
			company:     companyResult("Acme", "https://acme.com"),
			contacts:    contactsResult(),
			wantStatus:  model.RecordStatusPartial,
			wantMessage: MsgContactsNotFound,
			wantData:    true,
		},
		{
			name:        "success without company is company not found",
			company:     model.EnrichmentResult{Success: true, Source: "Apollo"},
			contacts:    contactsResult(ceo),
			wantStatus:  model.RecordStatusPartial,
			wantMessage: MsgCompanyNotFound,
			wantData:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockProvider{}
			p.On("EnrichCompany", mock.Anything, "acme.com").Return(tt.company, nil)
			p.On("SearchContacts", mock.Anything, "Acme", "acme.com", DefaultContactLimit).Return(tt.contacts, nil)

			e := New(p, Options{})
			got := e.EnrichRecord(context.Background(), model.InputRecord{Row: 2, Company: "Acme", Domain: "acme.com"})

			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantMessage, got.ErrorMessage)
			if !tt.wantData {
				assert.Nil(t, got.EnrichedData)
				return
			}
			require.NotNil(t, got.EnrichedData)
			assert.Equal(t, "Apollo", got.EnrichedData.Source)
			assert.NotNil(t, got.EnrichedData.Contacts)
			assert.Equal(t, tt.company.Company != nil, got.EnrichedData.Company != nil)
			p.AssertExpectations(t)
		})
	}
}

func TestEnrichRecord_RanksContactsBySeniority(t *testing.T) {
	p := &mockProvider{}
	p.On("EnrichCompany", mock.Anything, "acme.com").Return(companyResult("Acme", ""), nil)
	p.On("SearchContacts", mock.Anything, "Acme", "acme.com", 3).Return(contactsResult(
		model.ContactData{Name: "Manager", Title: "Office Manager"},
		model.ContactData{Name: "VP", Title: "VP Sales"},
		model.ContactData{Name: "Boss", Title: "Founder & CEO"},
	), nil)

	got := New(p, Options{}).EnrichRecord(context.Background(), model.InputRecord{Row: 2, Company: "Acme", Domain: "acme.com"})

	require.NotNil(t, got.EnrichedData)
	names := []string{}
	for _, c := range got.Contacts() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Boss", "VP", "Manager"}, names)
}

func TestEnrichRecord_NoDomainSkipsProvider(t *testing.T) {
	p := &mockProvider{}
	e := New(p, Options{})

	got := e.EnrichRecord(context.Background(), model.InputRecord{Row: 4, Company: "???"})

	assert.Equal(t, model.RecordStatusError, got.Status)
	assert.Equal(t, MsgNoDomain, got.ErrorMessage)
	assert.Nil(t, got.EnrichedData)
	p.AssertNotCalled(t, "EnrichCompany", mock.Anything, mock.Anything)
	p.AssertNotCalled(t, "SearchContacts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnrichRecord_DomainResolution(t *testing.T) {
	tests := []struct {
		name string
		rec  model.InputRecord
		want string
	}{
		{"domain column", model.InputRecord{Company: "Acme", Domain: "https://www.Acme.com/about", Website: "other.com"}, "acme.com"},
		{"website column", model.InputRecord{Company: "Acme", Website: "http://acme.io:443"}, "acme.io"},
		{"derived from name", model.InputRecord{Company: "Acme, Inc"}, "acme.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockProvider{}
			p.On("EnrichCompany", mock.Anything, tt.want).Return(notFound("No organization data found"), nil).Once()
			p.On("SearchContacts", mock.Anything, tt.rec.Company, tt.want, 3).Return(notFound("No contacts found for company"), nil).Once()

			New(p, Options{}).EnrichRecord(context.Background(), tt.rec)
			p.AssertExpectations(t)
		})
	}
}

func TestEnrichRecord_ProviderErrorBecomesFailedResult(t *testing.T) {
	p := &mockProvider{}
	p.On("EnrichCompany", mock.Anything, "acme.com").Return(model.EnrichmentResult{}, errors.New("boom"))
	p.On("SearchContacts", mock.Anything, "Acme", "acme.com", 3).Return(contactsResult(model.ContactData{Name: "Pat"}), nil)

	got := New(p, Options{}).EnrichRecord(context.Background(), model.InputRecord{Company: "Acme", Domain: "acme.com"})

	assert.Equal(t, model.RecordStatusPartial, got.Status)
	assert.Equal(t, MsgCompanyNotFound, got.ErrorMessage)
}

func TestEnrichRecord_RecoversPanic(t *testing.T) {
	p := &mockProvider{}
	p.On("EnrichCompany", mock.Anything, "acme.com").Panic("provider exploded")

	got := New(p, Options{}).EnrichRecord(context.Background(), model.InputRecord{Row: 3, Company: "Acme", Domain: "acme.com"})

	assert.Equal(t, model.RecordStatusError, got.Status)
	assert.Contains(t, got.ErrorMessage, "provider exploded")
	assert.Equal(t, 3, got.Row)
	assert.Equal(t, "Acme", got.Company)
}

func TestEnrichAll_FaultIsolation(t *testing.T) {
	p := &mockProvider{}
	p.On("EnrichCompany", mock.Anything, "one.com").Return(companyResult("One", ""), nil)
	p.On("SearchContacts", mock.Anything, "One", "one.com", 3).Return(contactsResult(model.ContactData{Name: "A"}), nil)

	p.On("EnrichCompany", mock.Anything, "two.com").Panic("bad row")

	p.On("EnrichCompany", mock.Anything, "three.com").Return(model.EnrichmentResult{}, errors.New("network down"))
	p.On("SearchContacts", mock.Anything, "Three", "three.com", 3).Return(model.EnrichmentResult{}, errors.New("network down"))

	p.On("EnrichCompany", mock.Anything, "four.com").Return(companyResult("Four", ""), nil)
	p.On("SearchContacts", mock.Anything, "Four", "four.com", 3).Return(contactsResult(model.ContactData{Name: "B"}), nil)

	records := []model.InputRecord{
		{Row: 2, Company: "One", Domain: "one.com"},
		{Row: 3, Company: "Two", Domain: "two.com"},
		{Row: 4, Company: "Three", Domain: "three.com"},
		{Row: 5, Company: "Four", Domain: "four.com"},
	}

	got, err := New(p, Options{}).EnrichAll(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, model.RecordStatusSuccess, got[0].Status)
	assert.Equal(t, model.RecordStatusError, got[1].Status)
	assert.Contains(t, got[1].ErrorMessage, "bad row")
	assert.Equal(t, model.RecordStatusError, got[2].Status)
	assert.Equal(t, "network down", got[2].ErrorMessage)
	assert.Equal(t, model.RecordStatusSuccess, got[3].Status)

	for i, r := range got {
		assert.Equal(t, records[i].Row, r.Row)
	}
}

func TestEnrichAll_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &mockProvider{}
	p.On("EnrichCompany", mock.Anything, "one.com").Run(func(mock.Arguments) { cancel() }).
		Return(notFound("No organization data found"), nil)
	p.On("SearchContacts", mock.Anything, "One", "one.com", 3).Return(notFound("No contacts found for company"), nil)

	got, err := New(p, Options{}).EnrichAll(ctx, []model.InputRecord{
		{Row: 2, Company: "One", Domain: "one.com"},
		{Row: 3, Company: "Two", Domain: "two.com"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
	p.AssertNotCalled(t, "EnrichCompany", mock.Anything, "two.com")
}

func TestEnrichAll_Pacing(t *testing.T) {
	p := &mockProvider{}
	p.On("EnrichCompany", mock.Anything, mock.Anything).Return(notFound("x"), nil)
	p.On("SearchContacts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(notFound("y"), nil)

	records := []model.InputRecord{
		{Company: "A", Domain: "a.com"},
		{Company: "B", Domain: "b.com"},
		{Company: "C", Domain: "c.com"},
	}

	start := time.Now()
	_, err := New(p, Options{Delay: 20 * time.Millisecond}).EnrichAll(context.Background(), records)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestEnrichAll_CancelledDuringPause(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	p := &mockProvider{}
	p.On("EnrichCompany", mock.Anything, mock.Anything).Return(notFound("x"), nil)
	p.On("SearchContacts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(notFound("y"), nil)

	_, err := New(p, Options{Delay: time.Hour}).EnrichAll(ctx, []model.InputRecord{
		{Company: "A", Domain: "a.com"},
		{Company: "B", Domain: "b.com"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProcessFile_Shopify(t *testing.T) {
	p := &mockProvider{}
	p.On("EnrichCompany", mock.Anything, "shopify.com").Return(model.EnrichmentResult{
		Company: &model.CompanyData{Name: "Shopify", Website: "http://www.shopify.com", Industry: "internet"},
		Success: true,
		Source:  "Apollo",
	}, nil)
	p.On("SearchContacts", mock.Anything, "Shopify", "shopify.com", 3).Return(contactsResult(
		model.ContactData{Name: "Jeff Hoffmeister", Title: "CFO", Email: "jeff@shopify.com"},
		model.ContactData{Name: "Tobi Lutke", Title: "CEO", Email: "tobi@shopify.com"},
	), nil)

	p.On("EnrichCompany", mock.Anything, "unknownobscure.com").Return(notFound("No organization data found"), nil)
	p.On("SearchContacts", mock.Anything, "Unknown Obscure LLC", "unknownobscure.com", 3).
		Return(notFound("No contacts found for company"), nil)

	in := csvFile(
		"Company Name,Domain,Industry",
		"Shopify,shopify.com,Commerce",
		"Unknown Obscure LLC,,",
	)

	out, err := New(p, Options{}).ProcessFile(context.Background(), in)
	require.NoError(t, err)

	rows := readOutput(t, out)
	require.Len(t, rows, 3)
	assert.Equal(t, sheet.OutputColumns, rows[0])

	assert.Equal(t, []string{
		"Shopify", "shopify.com",
		"Tobi Lutke", "CEO", "tobi@shopify.com",
		"Jeff Hoffmeister", "CFO", "jeff@shopify.com",
		sheet.BadgeMultipleContacts, "Apollo", "2 contacts found",
	}, rows[1])

	assert.Equal(t, "Unknown Obscure LLC", rows[2][0])
	assert.Equal(t, sheet.BadgeNoContacts, rows[2][8])
	assert.Equal(t, "No organization data found", rows[2][10])
	p.AssertExpectations(t)
}

func TestProcessFile_RowCountMatchesInput(t *testing.T) {
	p := &mockProvider{}
	p.On("EnrichCompany", mock.Anything, mock.Anything).Return(notFound("No organization data found"), nil)
	p.On("SearchContacts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(notFound("No contacts found for company"), nil)

	in := csvFile(
		"Company,Website",
		"Alpha,alpha.com",
		",",
		"Beta,",
		"???,",
		"Gamma,gamma.io",
	)

	res, err := New(p, Options{}).Run(context.Background(), "companies.csv", in)
	require.NoError(t, err)
	require.Len(t, res.Records, 4)
	assert.Equal(t, 4, res.Summary.Total)
	assert.Equal(t, 4, res.Summary.Error)
	assert.Empty(t, res.RunID)

	rows := readOutput(t, res.Output)
	assert.Len(t, rows, 1+len(res.Records))
	assert.Equal(t, "???", rows[3][0])
	assert.Equal(t, MsgNoDomain, rows[3][10])
}

func TestProcessFile_NoValidData(t *testing.T) {
	p := &mockProvider{}
	_, err := New(p, Options{}).ProcessFile(context.Background(), csvFile("Company,Domain", ",", " , "))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoValidData)
}

func TestProcessFile_MalformedInput(t *testing.T) {
	p := &mockProvider{}
	_, err := New(p, Options{}).ProcessFile(context.Background(), csvFile("Company,Domain"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sheet.ErrMalformedInput)
}

func TestRun_RecordsRunLog(t *testing.T) {
	p := &mockProvider{}
	p.On("EnrichCompany", mock.Anything, "acme.com").Return(companyResult("Acme", ""), nil)
	p.On("SearchContacts", mock.Anything, "Acme", "acme.com", 3).Return(notFound("No contacts found for company"), nil)

	rl := &mockRunLog{}
	rl.On("CreateRun", mock.Anything, "acme.csv", "Apollo").Return(&model.Run{ID: "run-1"}, nil)
	rl.On("SaveRows", mock.Anything, "run-1", mock.MatchedBy(func(rows []model.RunRow) bool {
		return len(rows) == 1 && rows[0].Domain == "acme.com" && rows[0].Status == model.RecordStatusPartial
	})).Return(nil)
	rl.On("CompleteRun", mock.Anything, "run-1", model.BatchSummary{Total: 1, Partial: 1}).Return(nil)

	res, err := New(p, Options{RunLog: rl}).Run(context.Background(), "acme.csv", csvFile("Company,Domain", "Acme,acme.com"))
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
	rl.AssertExpectations(t)
}

func TestRun_FailsRunOnBadInput(t *testing.T) {
	rl := &mockRunLog{}
	rl.On("CreateRun", mock.Anything, "empty.csv", "Apollo").Return(&model.Run{ID: "run-2"}, nil)
	rl.On("FailRun", mock.Anything, "run-2", mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	_, err := New(&mockProvider{}, Options{RunLog: rl}).Run(context.Background(), "empty.csv", csvFile("Company,Domain"))
	require.Error(t, err)
	rl.AssertExpectations(t)
}

func TestRun_RunLogFailureIsNotFatal(t *testing.T) {
	p := &mockProvider{}
	p.On("EnrichCompany", mock.Anything, "acme.com").Return(companyResult("Acme", ""), nil)
	p.On("SearchContacts", mock.Anything, "Acme", "acme.com", 3).Return(contactsResult(model.ContactData{Name: "Pat"}), nil)

	rl := &mockRunLog{}
	rl.On("CreateRun", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	res, err := New(p, Options{RunLog: rl}).Run(context.Background(), "acme.csv", csvFile("Company,Domain", "Acme,acme.com"))
	require.NoError(t, err)
	assert.Empty(t, res.RunID)
	assert.Equal(t, 1, res.Summary.Success)
	rl.AssertNotCalled(t, "CompleteRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestNew_Defaults(t *testing.T) {
	e := New(&mockProvider{}, Options{Delay: -time.Second})
	assert.Equal(t, DefaultContactLimit, e.contactLimit)
	assert.Zero(t, e.delay)
	assert.NotNil(t, e.ranker)
	assert.Equal(t, "Apollo", e.Provider().Name())
}
