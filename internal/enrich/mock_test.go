package enrich

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/equitle/enrichment-cli/internal/model"
)

// --- Provider Mock ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "Apollo" }

func (m *mockProvider) EnrichCompany(ctx context.Context, domain string) (model.EnrichmentResult, error) {
	args := m.Called(ctx, domain)
	return args.Get(0).(model.EnrichmentResult), args.Error(1)
}

func (m *mockProvider) EnrichContact(ctx context.Context, name, company, domain string) (model.EnrichmentResult, error) {
	args := m.Called(ctx, name, company, domain)
	return args.Get(0).(model.EnrichmentResult), args.Error(1)
}

func (m *mockProvider) SearchContacts(ctx context.Context, company, domain string, limit int) (model.EnrichmentResult, error) {
	args := m.Called(ctx, company, domain, limit)
	return args.Get(0).(model.EnrichmentResult), args.Error(1)
}

// --- RunLog Mock ---

type mockRunLog struct {
	mock.Mock
}

func (m *mockRunLog) CreateRun(ctx context.Context, fileName, providerName string) (*model.Run, error) {
	args := m.Called(ctx, fileName, providerName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockRunLog) SaveRows(ctx context.Context, runID string, rows []model.RunRow) error {
	args := m.Called(ctx, runID, rows)
	return args.Error(0)
}

func (m *mockRunLog) CompleteRun(ctx context.Context, runID string, summary model.BatchSummary) error {
	args := m.Called(ctx, runID, summary)
	return args.Error(0)
}

func (m *mockRunLog) FailRun(ctx context.Context, runID string, message string) error {
	args := m.Called(ctx, runID, message)
	return args.Error(0)
}

// --- Result helpers ---

func companyResult(name, website string) model.EnrichmentResult {
	return model.EnrichmentResult{
		Company: &model.CompanyData{Name: name, Website: website},
		Success: true,
		Source:  "Apollo",
	}
}

func contactsResult(contacts ...model.ContactData) model.EnrichmentResult {
	return model.EnrichmentResult{Contacts: contacts, Success: true, Source: "Apollo"}
}

func notFound(msg string) model.EnrichmentResult {
	return model.EnrichmentResult{Success: false, Error: msg, Source: "Apollo"}
}
