package feed

import (
	"math"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Pure classification heuristics. Everything here is text in, tagged value
// out; unresolvable inputs fall back to documented defaults instead of
// returning errors.

var deprecationKeywords = []string{
	"deprecation",
	"deprecated",
	"removal",
	"shutdown",
	"end of life",
	"eol",
	"discontinued",
}

// GCPProducts is the fixed product list matched against item text. Order
// matters: extraction results preserve it.
var GCPProducts = []string{
	"Compute Engine",
	"Kubernetes Engine",
	"GKE",
	"App Engine",
	"Cloud Run",
	"Cloud Functions",
	"BigQuery",
	"Cloud Storage",
	"Cloud SQL",
	"Spanner",
	"Bigtable",
	"Firestore",
	"Datastore",
	"Memorystore",
	"Pub/Sub",
	"Dataflow",
	"Dataproc",
	"Cloud Composer",
	"Vertex AI",
	"AI Platform",
	"AutoML",
	"Cloud Build",
	"Artifact Registry",
	"Container Registry",
	"Cloud Deploy",
	"Anthos",
	"Cloud CDN",
	"Cloud DNS",
	"Cloud Load Balancing",
	"Cloud Armor",
	"Cloud VPN",
	"Cloud Interconnect",
	"Cloud KMS",
	"Secret Manager",
	"Cloud Logging",
	"Cloud Monitoring",
	"Cloud Scheduler",
	"Looker",
	"Dataplex",
}

var severityLevels = []string{"Critical", "High", "Medium", "Low"}

var (
	explicitSeverityPattern = regexp.MustCompile(`(?i)severity:\s*(critical|high|medium|low)`)
	severityWordPatterns    = map[string]*regexp.Regexp{
		"Critical": regexp.MustCompile(`(?i)\bcritical\b`),
		"High":     regexp.MustCompile(`(?i)\bhigh\b`),
		"Medium":   regexp.MustCompile(`(?i)\bmedium\b`),
		"Low":      regexp.MustCompile(`(?i)\blow\b`),
	}
)

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December`

var (
	isoDatePattern  = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	longDatePattern = regexp.MustCompile(`(?i)\b(` + monthNames + `)\s+(\d{1,2}),\s+(\d{4})\b`)
	euDatePattern   = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(` + monthNames + `)\s+(\d{4})\b`)
)

var titleCaser = cases.Title(language.English)

const (
	architectureBaseURL         = "https://cloud.google.com"
	architectureReleaseNotesURL = "https://cloud.google.com/architecture/release-notes"
	architectureFallbackURL     = "https://cloud.google.com/architecture"
)

// IsDeprecation reports whether the combined title and content mention a
// deprecation keyword. Case-insensitive substring match.
func IsDeprecation(title, content string) bool {
	text := strings.ToLower(title + " " + content)
	for _, kw := range deprecationKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// ExtractSeverity finds an explicit "Severity: X" declaration first, then
// falls back to word-boundary keyword matching from Critical down to Low.
// Returns "Unknown" when nothing matches.
func ExtractSeverity(text string) string {
	if m := explicitSeverityPattern.FindStringSubmatch(text); m != nil {
		return titleCaser.String(strings.ToLower(m[1]))
	}
	for _, level := range severityLevels {
		if severityWordPatterns[level].MatchString(text) {
			return level
		}
	}
	return "Unknown"
}

// ExtractEOLDate scans for the first parseable end-of-life date, trying
// ISO (2025-03-15), long-form (March 15, 2025) and EU (15 March 2025)
// shapes in that priority order. Returns nil when no pattern matches.
func ExtractEOLDate(text string) *time.Time {
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		if d, err := time.Parse("2006-01-02", m[1]); err == nil {
			return &d
		}
	}
	if m := longDatePattern.FindStringSubmatch(text); m != nil {
		candidate := titleCaser.String(strings.ToLower(m[1])) + " " + m[2] + ", " + m[3]
		if d, err := time.Parse("January 2, 2006", candidate); err == nil {
			return &d
		}
	}
	if m := euDatePattern.FindStringSubmatch(text); m != nil {
		candidate := m[1] + " " + titleCaser.String(strings.ToLower(m[2])) + " " + m[3]
		if d, err := time.Parse("2 January 2006", candidate); err == nil {
			return &d
		}
	}
	return nil
}

// DaysUntil returns the number of whole days from now until the date,
// rounded up. Negative values mean the date is in the past.
func DaysUntil(date time.Time, now time.Time) int {
	return int(math.Ceil(date.Sub(now).Hours() / 24))
}

// ExtractProducts returns the products mentioned in the text, in the order
// of GCPProducts, without duplicates. Matching is a case-insensitive
// substring test.
func ExtractProducts(text string) []string {
	lower := strings.ToLower(text)
	var matches []string
	for _, product := range GCPProducts {
		if strings.Contains(lower, strings.ToLower(product)) {
			matches = append(matches, product)
		}
	}
	return matches
}

// IncidentStatus derives a coarse status label from incident text.
// "Investigating" is the default and gets the most severe visual
// treatment downstream.
func IncidentStatus(title, content string) string {
	text := strings.ToLower(title + " " + content)
	switch {
	case strings.Contains(text, "resolved"):
		return "Resolved"
	case strings.Contains(text, "monitoring"), strings.Contains(text, "identified"):
		return "Monitoring"
	default:
		return "Investigating"
	}
}

// NormalizeArchitectureLink rewrites the relative and anchor-only links the
// Architecture Center feed emits into absolute URLs.
func NormalizeArchitectureLink(link string) string {
	link = strings.TrimSpace(link)
	switch {
	case link == "":
		return architectureFallbackURL
	case strings.HasPrefix(link, "#"):
		return architectureReleaseNotesURL + link
	case strings.HasPrefix(link, "http://"), strings.HasPrefix(link, "https://"):
		return link
	case strings.HasPrefix(link, "/"):
		return architectureBaseURL + link
	default:
		return architectureBaseURL + "/" + link
	}
}
