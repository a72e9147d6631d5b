package sources

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cloudpulse/gcp-pulse/app/feed"
)

// Wire shapes of the Google Cloud status incidents.json document.

type statusIncident struct {
	ID               string          `json:"id"`
	Number           string          `json:"number"`
	Begin            string          `json:"begin"`
	End              string          `json:"end"`
	Created          string          `json:"created"`
	Modified         string          `json:"modified"`
	ExternalDesc     string          `json:"external_desc"`
	ServiceName      string          `json:"service_name"`
	Severity         string          `json:"severity"`
	StatusImpact     string          `json:"status_impact"`
	URI              string          `json:"uri"`
	AffectedProducts []statusProduct `json:"affected_products"`
	MostRecentUpdate *statusUpdate   `json:"most_recent_update"`
	Updates          []statusUpdate  `json:"updates"`
}

type statusProduct struct {
	Title string `json:"title"`
}

type statusUpdate struct {
	Created string `json:"created"`
	When    string `json:"when"`
	Text    string `json:"text"`
}

var severityCaser = cases.Title(language.English)

const statusBaseURL = "https://status.cloud.google.com"

func parseIncidents(data []byte, now time.Time) ([]feed.Item, error) {
	var incidents []statusIncident
	if err := json.Unmarshal(data, &incidents); err != nil {
		return nil, fmt.Errorf("failed to decode incidents document: %w", err)
	}

	items := make([]feed.Item, 0, len(incidents))
	for i, inc := range incidents {
		items = append(items, convertIncident(inc, i, now))
	}
	return items, nil
}

func convertIncident(inc statusIncident, position int, now time.Time) feed.Item {
	title := feed.CleanText(inc.ExternalDesc)
	content := ""
	if inc.MostRecentUpdate != nil {
		content = inc.MostRecentUpdate.Text
	}

	item := feed.Item{
		ID:             fmt.Sprintf("%s-%d", cmp.Or(inc.ID, "incident"), position),
		GUID:           inc.ID,
		Title:          title,
		Link:           incidentLink(inc.URI),
		Content:        content,
		ContentSnippet: feed.CleanText(content),
		Source:         feed.SourceServiceHealth,
		ServiceName:    inc.ServiceName,
		Severity:       incidentSeverity(inc, title, content),
		IsActive:       inc.End == "",
		Status:         feed.IncidentStatus(title, content),
		StatusImpact:   inc.StatusImpact,
		Description:    feed.CleanText(inc.ExternalDesc),
		URI:            inc.URI,
	}

	item.Begin = parseStatusTime(inc.Begin)
	item.End = parseStatusTime(inc.End)

	item.ISODate = now
	if d := parseStatusTime(cmp.Or(inc.Modified, inc.Begin, inc.Created)); d != nil {
		item.ISODate = *d
	}

	for _, p := range inc.AffectedProducts {
		if p.Title != "" {
			item.AffectedProducts = append(item.AffectedProducts, p.Title)
		}
	}

	for _, u := range inc.Updates {
		update := feed.Update{Text: feed.CleanText(u.Text)}
		if d := parseStatusTime(cmp.Or(u.Created, u.When)); d != nil {
			update.Created = *d
		}
		item.Updates = append(item.Updates, update)
	}

	return item
}

// incidentSeverity prefers the document's explicit severity field over
// keyword extraction from the incident text.
func incidentSeverity(inc statusIncident, title, content string) string {
	if inc.Severity != "" {
		return severityCaser.String(strings.ToLower(inc.Severity))
	}
	return feed.ExtractSeverity(title + " " + content)
}

func incidentLink(uri string) string {
	if uri == "" {
		return statusBaseURL
	}
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri
	}
	return statusBaseURL + "/" + strings.TrimPrefix(uri, "/")
}

func parseStatusTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if d, err := time.Parse(layout, s); err == nil {
			return &d
		}
	}
	return nil
}
