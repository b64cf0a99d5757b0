package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/equitle/enrichment-cli/internal/model"
	"github.com/equitle/enrichment-cli/internal/resilience"
	"github.com/equitle/enrichment-cli/internal/seniority"
	"github.com/equitle/enrichment-cli/pkg/apollo"
)

// ApolloName is the name and data source of the Apollo provider.
const ApolloName = "Apollo"

const (
	defaultCallTimeout = 30 * time.Second
	contactPageSize    = 10

	// Apollo returns this instead of an address for emails the account has
	// not paid to reveal.
	lockedEmailMarker = "email_not_unlocked"
)

// Key validation messages.
const (
	MsgKeyValid        = "Apollo API key is valid"
	MsgKeyPaymentIssue = "Apollo API key is valid but there is a payment issue with your Apollo account. Please check your billing settings."
	MsgKeyRejected     = "Apollo API key is invalid or lacks required permissions."
	MsgKeyCheckFailed  = "Apollo API key validation failed. Please check your key and account status."
)

// Result messages for Apollo not-found answers.
const (
	MsgNoOrganization  = "No organization data found"
	MsgNoCompanyPeople = "No contacts found for company"
	MsgNoContacts      = "No contacts found"
)

// ApolloOption configures the Apollo provider.
type ApolloOption func(*Apollo)

// WithTitles sets the job titles used to filter SearchContacts.
func WithTitles(titles []string) ApolloOption {
	return func(a *Apollo) {
		a.titles = titles
	}
}

// WithPolicy sets the retry, circuit breaker and rate limit settings.
func WithPolicy(p resilience.Policy) ApolloOption {
	return func(a *Apollo) {
		a.policy = p
	}
}

// WithCallTimeout bounds every individual Apollo request.
func WithCallTimeout(d time.Duration) ApolloOption {
	return func(a *Apollo) {
		if d > 0 {
			a.callTimeout = d
		}
	}
}

// Apollo is a Provider backed by the Apollo.io API. It is safe for
// concurrent use; the rate limiter and circuit breaker are shared by all
// callers.
type Apollo struct {
	client      apollo.Client
	titles      []string
	policy      resilience.Policy
	callTimeout time.Duration

	breaker *resilience.CircuitBreaker
	limiter *resilience.AdaptiveLimiter
}

// NewApollo creates an Apollo provider around client.
func NewApollo(client apollo.Client, opts ...ApolloOption) *Apollo {
	a := &Apollo{
		client:      client,
		titles:      seniority.Default().SearchTitles(),
		policy:      resilience.Policy{Retry: resilience.DefaultRetryConfig(), Circuit: resilience.DefaultCircuitBreakerConfig()},
		callTimeout: defaultCallTimeout,
	}
	for _, o := range opts {
		o(a)
	}

	circuit := a.policy.Circuit
	if circuit.OnStateChange == nil {
		circuit.OnStateChange = resilience.StateLogger(ApolloName)
	}
	a.breaker = resilience.NewCircuitBreaker(circuit)
	a.limiter = resilience.NewAdaptiveLimiter(a.policy.RateLimit, 1)
	return a
}

// Name implements Provider.
func (a *Apollo) Name() string { return ApolloName }

// EnrichCompany implements Provider.
func (a *Apollo) EnrichCompany(ctx context.Context, domain string) (model.EnrichmentResult, error) {
	log := zap.L().With(zap.String("provider", ApolloName), zap.String("domain", domain))
	if strings.TrimSpace(domain) == "" {
		return failed(ApolloName, "A domain is required for company enrichment"), nil
	}

	log.Debug("provider: enriching company")
	resp, err := call(ctx, a, "enrich_company", func(ctx context.Context) (*apollo.OrganizationResponse, error) {
		return a.client.EnrichOrganization(ctx, domain)
	})
	if err != nil {
		if ctx.Err() != nil {
			return failed(ApolloName, ctx.Err().Error()), eris.Wrap(ctx.Err(), "provider: enrich company")
		}
		log.Warn("provider: company enrichment failed", zap.Error(err))
		return failed(ApolloName, failureMessage(err)), nil
	}
	if resp == nil || resp.Organization == nil {
		return failed(ApolloName, MsgNoOrganization), nil
	}

	org := resp.Organization
	company := &model.CompanyData{
		Name:          org.Name,
		Domain:        firstNonEmpty(org.PrimaryDomain, domain),
		Website:       org.WebsiteURL,
		Industry:      org.Industry,
		EmployeeCount: org.EstimatedNumEmployees,
		Description:   org.ShortDescription,
		Headquarters:  org.HeadquartersAddressLine1,
		Phone:         org.Phone,
	}
	log.Info("provider: company enriched", zap.String("company", company.Name))
	return model.EnrichmentResult{Company: company, Success: true, Source: ApolloName}, nil
}

// SearchContacts implements Provider.
func (a *Apollo) SearchContacts(ctx context.Context, company, domain string, limit int) (model.EnrichmentResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	req := apollo.PeopleSearchRequest{
		PersonTitles: a.titles,
		Page:         1,
		PerPage:      limit,
	}
	scopeToCompany(&req, company, domain)

	return a.searchPeople(ctx, "search_contacts", req, company, domain, limit, MsgNoCompanyPeople)
}

// EnrichContact implements Provider.
func (a *Apollo) EnrichContact(ctx context.Context, name, company, domain string) (model.EnrichmentResult, error) {
	req := apollo.PeopleSearchRequest{
		Keywords:     name,
		PersonTitles: []string{},
		Page:         1,
		PerPage:      contactPageSize,
	}
	scopeToCompany(&req, company, domain)

	return a.searchPeople(ctx, "enrich_contact", req, company, domain, contactPageSize, MsgNoContacts)
}

func (a *Apollo) searchPeople(ctx context.Context, op string, req apollo.PeopleSearchRequest, company, domain string, limit int, notFound string) (model.EnrichmentResult, error) {
	log := zap.L().With(
		zap.String("provider", ApolloName),
		zap.String("operation", op),
		zap.String("company", company),
		zap.String("domain", domain),
	)
	if company == "" && domain == "" {
		return failed(ApolloName, "A company name or domain is required for contact search"), nil
	}

	resp, err := call(ctx, a, op, func(ctx context.Context) (*apollo.PeopleSearchResponse, error) {
		return a.client.SearchPeople(ctx, req)
	})
	if err != nil {
		if ctx.Err() != nil {
			return failed(ApolloName, ctx.Err().Error()), eris.Wrapf(ctx.Err(), "provider: %s", op)
		}
		log.Warn("provider: contact search failed", zap.Error(err))
		return failed(ApolloName, failureMessage(err)), nil
	}
	if resp == nil || len(resp.People) == 0 {
		return failed(ApolloName, notFound), nil
	}

	people := resp.People
	if len(people) > limit {
		people = people[:limit]
	}
	contacts := make([]model.ContactData, 0, len(people))
	for _, p := range people {
		contacts = append(contacts, toContact(p, company, domain))
	}
	log.Info("provider: contacts found", zap.Int("count", len(contacts)))
	return model.EnrichmentResult{Contacts: contacts, Success: true, Source: ApolloName}, nil
}

// scopeToCompany restricts a people search to one company: by domain when
// known, else by name.
func scopeToCompany(req *apollo.PeopleSearchRequest, company, domain string) {
	req.OrganizationDomains = []string{}
	if domain != "" {
		req.OrganizationDomains = []string{domain}
	} else if company != "" {
		req.OrganizationNames = []string{company}
	}
}

func toContact(p apollo.Person, company, domain string) model.ContactData {
	c := model.ContactData{
		Name:          p.Name,
		Email:         p.Email,
		Phone:         firstNonEmpty(p.SanitizedPhone, p.Phone),
		Title:         p.Title,
		LinkedInURL:   p.LinkedInURL,
		Company:       company,
		CompanyDomain: domain,
	}
	if c.Name == "" {
		c.Name = strings.TrimSpace(p.FirstName + " " + p.LastName)
	}
	if strings.Contains(c.Email, lockedEmailMarker) {
		c.Email = ""
	}
	if p.Organization != nil {
		c.Company = firstNonEmpty(p.Organization.Name, company)
		c.CompanyDomain = firstNonEmpty(p.Organization.WebsiteURL, domain)
	}
	return c
}

// ValidateKey implements KeyValidator. It bypasses the circuit breaker and
// retries so a rejected key is reported on the first answer.
func (a *Apollo) ValidateKey(ctx context.Context) (model.KeyCheck, error) {
	check := model.KeyCheck{Provider: ApolloName}
	if err := a.limiter.Wait(ctx); err != nil {
		return check, eris.Wrap(err, "provider: validate key")
	}

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()
	err := a.client.ValidateKey(callCtx)
	a.limiter.Observe(err)

	switch {
	case err == nil:
		check.Valid = true
		check.Message = MsgKeyValid
		return check, nil
	case ctx.Err() != nil:
		return check, eris.Wrap(ctx.Err(), "provider: validate key")
	}

	zap.L().Warn("provider: key validation failed", zap.String("provider", ApolloName), zap.Error(err))
	var apiErr *apollo.APIError
	code := resilience.StatusCode(err)
	switch {
	case errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Body), "payment"):
		check.Message = MsgKeyPaymentIssue
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		check.Message = MsgKeyRejected
	default:
		check.Message = MsgKeyCheckFailed
	}
	return check, nil
}

// call runs one Apollo request under the rate limiter, circuit breaker and
// retry policy. Each attempt gets its own timeout.
func call[T any](ctx context.Context, a *Apollo, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	retry := a.policy.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(ApolloName, op)
	}

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (T, error) {
		return resilience.ExecuteVal(ctx, a.breaker, func(ctx context.Context) (T, error) {
			if err := a.limiter.Wait(ctx); err != nil {
				var zero T
				return zero, eris.Wrap(err, "provider: wait for rate limiter")
			}

			callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
			defer cancel()

			val, err := fn(callCtx)
			a.limiter.Observe(err)
			return val, err
		})
	})
}

func failureMessage(err error) string {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return "Apollo is temporarily unavailable after repeated failures"
	}
	if code := resilience.StatusCode(err); code != 0 {
		return fmt.Sprintf("Apollo API error: status %d", code)
	}
	return "Apollo API error: " + err.Error()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
