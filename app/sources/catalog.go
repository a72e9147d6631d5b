package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cloudpulse/gcp-pulse/app/feed"
)

// GKE release-notes feeds are published per channel.
var gkeChannelFeeds = map[string]string{
	"stable":  "https://cloud.google.com/feeds/kubernetes-engine-stable-channel-release-notes.xml",
	"regular": "https://cloud.google.com/feeds/kubernetes-engine-regular-channel-release-notes.xml",
	"rapid":   "https://cloud.google.com/feeds/kubernetes-engine-rapid-channel-release-notes.xml",
}

// Catalog holds every upstream the service talks to.
type Catalog struct {
	Feeds        []feed.Source     `yaml:"feeds"`
	IncidentsURL string            `yaml:"incidents_url"`
	IPRangesURL  string            `yaml:"ip_ranges_url"`
	GKEFeeds     map[string]string `yaml:"gke_feeds"`
}

// DefaultCatalog returns the built-in Google Cloud source set.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Feeds: []feed.Source{
			{Name: feed.SourceCloudBlog, URL: "https://cloudblog.withgoogle.com/rss/"},
			{Name: feed.SourceProductUpdates, URL: "https://cloudblog.withgoogle.com/products/gcp/rss/"},
			{Name: feed.SourceReleaseNotes, URL: "https://cloud.google.com/feeds/gcp-release-notes.xml"},
			{Name: feed.SourceSecurity, URL: "https://cloud.google.com/feeds/google-cloud-security-bulletins.xml"},
			{Name: feed.SourceArchitecture, URL: "https://cloud.google.com/feeds/architecture-center-release-notes.xml"},
		},
		IncidentsURL: "https://status.cloud.google.com/incidents.json",
		IPRangesURL:  "https://www.gstatic.com/ipranges/cloud.json",
		GKEFeeds:     gkeChannelFeeds,
	}
}

// LoadCatalog returns the default catalog, overridden by the YAML file at
// path when one is given. Fields absent from the file keep their built-in
// values.
func LoadCatalog(path string) (*Catalog, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	if len(override.Feeds) > 0 {
		catalog.Feeds = override.Feeds
	}
	if override.IncidentsURL != "" {
		catalog.IncidentsURL = override.IncidentsURL
	}
	if override.IPRangesURL != "" {
		catalog.IPRangesURL = override.IPRangesURL
	}
	if len(override.GKEFeeds) > 0 {
		catalog.GKEFeeds = override.GKEFeeds
	}

	if err := catalog.validate(); err != nil {
		return nil, fmt.Errorf("invalid sources file %s: %w", path, err)
	}

	return catalog, nil
}

func (c *Catalog) validate() error {
	for i, src := range c.Feeds {
		if src.Name == "" {
			return fmt.Errorf("feed at index %d: name is required", i)
		}
		if src.URL == "" {
			return fmt.Errorf("feed at index %d: URL is required", i)
		}
	}
	if c.IncidentsURL == "" {
		return fmt.Errorf("incidents URL is required")
	}
	if c.IPRangesURL == "" {
		return fmt.Errorf("IP ranges URL is required")
	}
	return nil
}
