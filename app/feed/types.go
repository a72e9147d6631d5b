package feed

import (
	"time"
)

// Logical source names. Every item carries exactly one of these; the
// enrichment stages key their behavior off it.
const (
	SourceCloudBlog      = "Cloud Blog"
	SourceProductUpdates = "Product Updates"
	SourceReleaseNotes   = "Release Notes"
	SourceSecurity       = "Security Bulletins"
	SourceArchitecture   = "Architecture Center"
	SourceServiceHealth  = "Service Health"
	SourceDeprecations   = "Deprecations"
)

// Source describes one configured upstream feed.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Item is the canonical record every upstream format is normalized into.
// ContentSnippet is always HTML-stripped and whitespace-normalized;
// Content keeps the raw markup for rendering.
type Item struct {
	ID             string     `json:"id"`
	GUID           string     `json:"guid,omitempty"`
	Title          string     `json:"title"`
	Link           string     `json:"link"`
	Content        string     `json:"content,omitempty"`
	ContentSnippet string     `json:"contentSnippet,omitempty"`
	ISODate        time.Time  `json:"isoDate"`
	Source         string     `json:"source"`
	Categories     []string   `json:"categories,omitempty"`
	Enclosure      *Enclosure `json:"enclosure,omitempty"`

	// Derived enrichment fields
	EOLDate      *time.Time `json:"eolDate,omitempty"`
	DaysUntilEOL *int       `json:"daysUntilEol,omitempty"`

	// Incident-only fields
	ServiceName      string     `json:"serviceName,omitempty"`
	Severity         string     `json:"severity,omitempty"`
	Begin            *time.Time `json:"begin,omitempty"`
	End              *time.Time `json:"end,omitempty"`
	IsActive         bool       `json:"isActive,omitempty"`
	Status           string     `json:"status,omitempty"`
	StatusImpact     string     `json:"statusImpact,omitempty"`
	Updates          []Update   `json:"updates,omitempty"`
	Description      string     `json:"description,omitempty"`
	AffectedProducts []string   `json:"affectedProducts,omitempty"`
	URI              string     `json:"uri,omitempty"`
}

// Update is one chronological entry in an incident's history.
type Update struct {
	Created time.Time `json:"created"`
	Text    string    `json:"text"`
}

// Enclosure points at an associated media asset.
type Enclosure struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Payload is the aggregated document served to the dashboard.
type Payload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Items       []Item `json:"items"`
}
