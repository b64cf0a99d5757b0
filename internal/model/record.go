package model

// RecordStatus is the outcome of enriching a single spreadsheet row.
type RecordStatus string

const (
	RecordStatusSuccess RecordStatus = "success"
	RecordStatusPartial RecordStatus = "partial"
	RecordStatusError   RecordStatus = "error"
)

// ClassifyStatus derives a record status from the outcome of the company
// lookup and the contact search. Both succeeded is a success, exactly one is
// partial, neither is an error.
func ClassifyStatus(companyOK, contactsOK bool) RecordStatus {
	switch {
	case companyOK && contactsOK:
		return RecordStatusSuccess
	case companyOK || contactsOK:
		return RecordStatusPartial
	default:
		return RecordStatusError
	}
}

// InputRecord is one row of an uploaded spreadsheet.
type InputRecord struct {
	Row     int    `json:"row"` // 1-based row number in the source sheet
	Company string `json:"company,omitempty"`
	Domain  string `json:"domain,omitempty"`
	Website string `json:"website,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`

	// Extra holds columns that did not map to a known field, keyed by their
	// original header text. ExtraHeaders preserves the column order.
	Extra        map[string]string `json:"extra,omitempty"`
	ExtraHeaders []string          `json:"-"`
}

// HasIdentity reports whether the record carries anything enrichment can
// start from.
func (r InputRecord) HasIdentity() bool {
	return r.Company != "" || r.Domain != "" || r.Website != ""
}

// CompanyData holds canonical company facts returned by a provider. Empty
// fields mean the provider had no data for them.
type CompanyData struct {
	Name          string `json:"name"`
	Domain        string `json:"domain,omitempty"`
	Website       string `json:"website,omitempty"`
	Industry      string `json:"industry,omitempty"`
	EmployeeCount int    `json:"employee_count,omitempty"`
	Description   string `json:"description,omitempty"`
	Headquarters  string `json:"headquarters,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

// ContactData holds canonical person facts returned by a provider.
type ContactData struct {
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Title         string `json:"title,omitempty"`
	LinkedInURL   string `json:"linkedin_url,omitempty"`
	Company       string `json:"company,omitempty"`
	CompanyDomain string `json:"company_domain,omitempty"`
}

// EnrichmentResult is the outcome of a single provider call. When Success is
// false, Company and Contacts must not be trusted even if populated.
type EnrichmentResult struct {
	Company  *CompanyData  `json:"company,omitempty"`
	Contacts []ContactData `json:"contacts,omitempty"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Source   string        `json:"source"`
}

// EnrichedData is the provider data attached to a successfully (or
// partially) enriched record.
type EnrichedData struct {
	Company  *CompanyData  `json:"company,omitempty"`
	Contacts []ContactData `json:"contacts"`
	Source   string        `json:"source"`
}

// EnrichedRecord is an input row plus its enrichment outcome.
type EnrichedRecord struct {
	InputRecord
	EnrichedData *EnrichedData `json:"enriched_data,omitempty"`
	Status       RecordStatus  `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Contacts returns the attached contacts, or nil when nothing was enriched.
func (r EnrichedRecord) Contacts() []ContactData {
	if r.EnrichedData == nil {
		return nil
	}
	return r.EnrichedData.Contacts
}

// BatchSummary counts record outcomes for a processed file.
type BatchSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Partial int `json:"partial"`
	Error   int `json:"error"`
}

// Summarize tallies the statuses of records.
func Summarize(records []EnrichedRecord) BatchSummary {
	s := BatchSummary{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case RecordStatusSuccess:
			s.Success++
		case RecordStatusPartial:
			s.Partial++
		default:
			s.Error++
		}
	}
	return s
}

// KeyCheck is the outcome of validating provider credentials.
type KeyCheck struct {
	Provider string `json:"provider"`
	Valid    bool   `json:"valid"`
	Message  string `json:"message"`
}
