// Package enrich runs uploaded spreadsheets through an enrichment provider
// and produces the enriched workbook.
package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/equitle/enrichment-cli/internal/model"
	"github.com/equitle/enrichment-cli/internal/provider"
	"github.com/equitle/enrichment-cli/internal/seniority"
	"github.com/equitle/enrichment-cli/internal/sheet"
)

// ErrNoValidData is returned when a file parses but has no row with a
// company, domain or website.
var ErrNoValidData = eris.New("enrich: no valid data found in file")

// DefaultContactLimit is the number of contacts requested per company.
const DefaultContactLimit = 3

// Per-record outcome messages.
const (
	MsgNoDomain         = "No domain or company name available for enrichment"
	MsgContactsNotFound = "Contact data not found"
	MsgCompanyNotFound  = "Company data not found"
	MsgFailed           = "Enrichment failed"
)

// RunLog records processed files. Implementations must be safe for
// concurrent use.
type RunLog interface {
	CreateRun(ctx context.Context, fileName, providerName string) (*model.Run, error)
	SaveRows(ctx context.Context, runID string, rows []model.RunRow) error
	CompleteRun(ctx context.Context, runID string, summary model.BatchSummary) error
	FailRun(ctx context.Context, runID string, message string) error
}

// Options configures an Enricher.
type Options struct {
	// Delay is the pause between consecutive records.
	Delay time.Duration
	// ContactLimit is the number of contacts requested per company.
	// Default: 3.
	ContactLimit int
	// Ranker orders contacts by seniority. Default: seniority.Default().
	Ranker *seniority.Ranker
	// RunLog, when set, records every Run.
	RunLog RunLog
}

// Enricher enriches spreadsheet records one at a time through a provider.
// Records never share state, so one Enricher may serve concurrent files.
type Enricher struct {
	provider     provider.Provider
	delay        time.Duration
	contactLimit int
	ranker       *seniority.Ranker
	runLog       RunLog
}

// New creates an Enricher backed by p.
func New(p provider.Provider, opts Options) *Enricher {
	if opts.ContactLimit <= 0 {
		opts.ContactLimit = DefaultContactLimit
	}
	if opts.Ranker == nil {
		opts.Ranker = seniority.Default()
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	return &Enricher{
		provider:     p,
		delay:        opts.Delay,
		contactLimit: opts.ContactLimit,
		ranker:       opts.Ranker,
		runLog:       opts.RunLog,
	}
}

// Provider returns the provider records are enriched with.
func (e *Enricher) Provider() provider.Provider {
	return e.provider
}

// Result is the outcome of processing one file.
type Result struct {
	// RunID is the run log entry, empty when no run log is configured or
	// recording failed.
	RunID   string
	Records []model.EnrichedRecord
	Summary model.BatchSummary
	Output  []byte
}

// ProcessFile parses an xlsx or CSV upload, enriches every record and
// returns the enriched workbook.
func (e *Enricher) ProcessFile(ctx context.Context, buf []byte) ([]byte, error) {
	res, err := e.Run(ctx, "", buf)
	if err != nil {
		return nil, err
	}
	return res.Output, nil
}

// Run is ProcessFile with the full result, recorded in the run log under
// fileName when one is configured.
func (e *Enricher) Run(ctx context.Context, fileName string, buf []byte) (*Result, error) {
	log := zap.L().With(zap.String("file", fileName), zap.String("provider", e.provider.Name()))
	start := time.Now()

	runID := e.startRun(ctx, fileName)
	fail := func(err error) (*Result, error) {
		e.failRun(ctx, runID, err)
		return nil, err
	}

	records, err := sheet.Parse(buf)
	if err != nil {
		return fail(eris.Wrap(err, "enrich: parse file"))
	}
	if len(records) == 0 {
		return fail(ErrNoValidData)
	}
	log.Info("enrich: processing file", zap.Int("records", len(records)))

	enriched, err := e.EnrichAll(ctx, records)
	if err != nil {
		return fail(err)
	}

	out, err := sheet.Generate(enriched)
	if err != nil {
		return fail(eris.Wrap(err, "enrich: generate output"))
	}

	summary := model.Summarize(enriched)
	log.Info("enrich: file complete",
		zap.Int("total", summary.Total),
		zap.Int("success", summary.Success),
		zap.Int("partial", summary.Partial),
		zap.Int("error", summary.Error),
		zap.Duration("elapsed", time.Since(start)),
	)
	e.completeRun(ctx, runID, enriched, summary)

	return &Result{
		RunID:   runID,
		Records: enriched,
		Summary: summary,
		Output:  out,
	}, nil
}

// EnrichAll enriches records sequentially in input order, pausing between
// records. Only context cancellation stops the batch.
func (e *Enricher) EnrichAll(ctx context.Context, records []model.InputRecord) ([]model.EnrichedRecord, error) {
	enriched := make([]model.EnrichedRecord, 0, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrapf(err, "enrich: cancelled at record %d of %d", i+1, len(records))
		}

		enriched = append(enriched, e.EnrichRecord(ctx, rec))

		if i < len(records)-1 {
			if err := e.pause(ctx); err != nil {
				return nil, eris.Wrapf(err, "enrich: cancelled after record %d of %d", i+1, len(records))
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "enrich: cancelled")
	}
	return enriched, nil
}

func (e *Enricher) pause(ctx context.Context) error {
	if e.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(e.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// EnrichRecord enriches a single record. It never fails: provider errors
// and panics become a record with status error.
func (e *Enricher) EnrichRecord(ctx context.Context, rec model.InputRecord) (out model.EnrichedRecord) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("enrich: record panicked",
				zap.Int("row", rec.Row),
				zap.String("company", rec.Company),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			out = errorRecord(rec, fmt.Sprintf("Enrichment failed: %v", r))
		}
	}()
	return e.enrichRecord(ctx, rec)
}

func (e *Enricher) enrichRecord(ctx context.Context, rec model.InputRecord) model.EnrichedRecord {
	log := zap.L().With(zap.Int("row", rec.Row), zap.String("company", rec.Company))

	domain := resolveDomain(rec.Domain, rec.Website, rec.Company)
	if domain == "" {
		log.Warn("enrich: no domain for record")
		return errorRecord(rec, MsgNoDomain)
	}
	log = log.With(zap.String("domain", domain))

	name := e.provider.Name()
	company, err := e.provider.EnrichCompany(ctx, domain)
	if err != nil {
		company = model.EnrichmentResult{Error: err.Error(), Source: name}
	}
	contacts, err := e.provider.SearchContacts(ctx, rec.Company, domain, e.contactLimit)
	if err != nil {
		contacts = model.EnrichmentResult{Error: err.Error(), Source: name}
	}

	// A Success result without data counts as not found.
	companyOK := company.Success && company.Company != nil
	contactsOK := contacts.Success && len(contacts.Contacts) > 0
	status := model.ClassifyStatus(companyOK, contactsOK)

	out := model.EnrichedRecord{InputRecord: rec, Status: status}
	switch {
	case companyOK && !contactsOK:
		out.ErrorMessage = MsgContactsNotFound
	case !companyOK && contactsOK:
		out.ErrorMessage = MsgCompanyNotFound
	case !companyOK && !contactsOK:
		out.ErrorMessage = firstNonEmpty(company.Error, contacts.Error, MsgFailed)
	}

	if status != model.RecordStatusError {
		data := &model.EnrichedData{Contacts: []model.ContactData{}, Source: name}
		if companyOK {
			data.Company = company.Company
		}
		if contactsOK {
			data.Contacts = e.ranker.Rank(contacts.Contacts)
		}
		out.EnrichedData = data
	}

	log.Debug("enrich: record done",
		zap.String("status", string(status)),
		zap.Int("contacts", len(out.Contacts())),
	)
	return out
}

func errorRecord(rec model.InputRecord, msg string) model.EnrichedRecord {
	return model.EnrichedRecord{
		InputRecord:  rec,
		Status:       model.RecordStatusError,
		ErrorMessage: msg,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Run log writes are best effort: a failing log never fails the file.

func (e *Enricher) startRun(ctx context.Context, fileName string) string {
	if e.runLog == nil {
		return ""
	}
	run, err := e.runLog.CreateRun(ctx, fileName, e.provider.Name())
	if err != nil {
		zap.L().Warn("enrich: create run", zap.String("file", fileName), zap.Error(err))
		return ""
	}
	return run.ID
}

func (e *Enricher) completeRun(ctx context.Context, runID string, records []model.EnrichedRecord, summary model.BatchSummary) {
	if e.runLog == nil || runID == "" {
		return
	}
	if err := e.runLog.SaveRows(ctx, runID, model.NewRunRows(runID, records)); err != nil {
		zap.L().Warn("enrich: save run rows", zap.String("run_id", runID), zap.Error(err))
	}
	if err := e.runLog.CompleteRun(ctx, runID, summary); err != nil {
		zap.L().Warn("enrich: complete run", zap.String("run_id", runID), zap.Error(err))
	}
}

func (e *Enricher) failRun(ctx context.Context, runID string, cause error) {
	if e.runLog == nil || runID == "" {
		return
	}
	// Record the failure even when ctx is cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := e.runLog.FailRun(ctx, runID, cause.Error()); err != nil {
		zap.L().Warn("enrich: fail run", zap.String("run_id", runID), zap.Error(err))
	}
}
