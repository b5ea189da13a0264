package models

import "strings"

// RegistryStatus is the lifecycle status of a registry entity
type RegistryStatus string

const (
	RegistryStatusActive   RegistryStatus = "Active"
	RegistryStatusInactive RegistryStatus = "Inactive"
	RegistryStatusOther    RegistryStatus = "Other"
)

// ParseRegistryStatus maps raw registry status values onto the known statuses.
// Anything that is not recognisably active or inactive (e.g. "Cancelled") is Other.
func ParseRegistryStatus(raw string) RegistryStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "act":
		return RegistryStatusActive
	case "inactive":
		return RegistryStatusInactive
	default:
		return RegistryStatusOther
	}
}

// CrawlRecord is a business description harvested from a public website
type CrawlRecord struct {
	ID          string  `json:"id" db:"id"`
	URL         string  `json:"url" db:"url"`
	Name        string  `json:"name" db:"name"`
	Industry    *string `json:"industry,omitempty" db:"industry"`
	Description *string `json:"description,omitempty" db:"description"`
	Title       *string `json:"title,omitempty" db:"title"`
}

// IndustryText returns the industry or "" when absent
func (r CrawlRecord) IndustryText() string {
	return StringValue(r.Industry)
}

// DescriptionText returns the meta description or "" when absent
func (r CrawlRecord) DescriptionText() string {
	return StringValue(r.Description)
}

// TitleText returns the page title or "" when absent
func (r CrawlRecord) TitleText() string {
	return StringValue(r.Title)
}

// RegistryRecord is an authoritative registry description of a business entity
type RegistryRecord struct {
	ID            string         `json:"id" db:"id"`
	RegistryID    string         `json:"registry_id" db:"registry_id"`
	LegalName     string         `json:"legal_name" db:"legal_name"`
	Status        RegistryStatus `json:"status" db:"status"`
	TradingNames  []string       `json:"trading_names" db:"-"`
	BusinessNames []string       `json:"business_names" db:"-"`
	Locality      *string        `json:"locality,omitempty" db:"locality"`
	Region        *string        `json:"region,omitempty" db:"region"`
	PostalCode    *string        `json:"postal_code,omitempty" db:"postal_code"`
}

// IsActive reports whether the registry entity is currently active
func (r RegistryRecord) IsActive() bool {
	return r.Status == RegistryStatusActive
}

// Names returns the legal name followed by trading and business names, skipping blanks
func (r RegistryRecord) Names() []string {
	names := make([]string, 0, 1+len(r.TradingNames)+len(r.BusinessNames))
	for _, n := range append(append([]string{r.LegalName}, r.TradingNames...), r.BusinessNames...) {
		if strings.TrimSpace(n) != "" {
			names = append(names, n)
		}
	}
	return names
}

// HasLocation reports whether any location field is populated
func (r RegistryRecord) HasLocation() bool {
	return StringValue(r.Locality) != "" || StringValue(r.Region) != "" || StringValue(r.PostalCode) != ""
}

// LocationText renders "locality, region postcode" with missing parts omitted
func (r RegistryRecord) LocationText() string {
	locality := StringValue(r.Locality)
	tail := strings.TrimSpace(StringValue(r.Region) + " " + StringValue(r.PostalCode))
	switch {
	case locality != "" && tail != "":
		return locality + ", " + tail
	case locality != "":
		return locality
	default:
		return tail
	}
}

// StringValue dereferences an optional string, treating nil as ""
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// StringPtr returns a pointer to s, or nil when s is blank
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
