package feed

import (
	"sort"
	"time"
)

// Derivation stages over the canonical item list. Each stage is pure:
// items in, enriched copies out, no fetching.

// DeprecationsView reclassifies release-note items that mention a
// deprecation keyword. Only Release Notes and already-tagged Deprecations
// items are eligible; a blog post mentioning "end of life" stays a blog
// post.
func DeprecationsView(items []Item) []Item {
	var result []Item
	for _, item := range items {
		if item.Source != SourceReleaseNotes && item.Source != SourceDeprecations {
			continue
		}
		if !IsDeprecation(item.Title, item.Content) {
			continue
		}
		item.Source = SourceDeprecations
		item.Categories = appendCategory(item.Categories, "Deprecation")
		item.EOLDate = ExtractEOLDate(item.Title + " " + item.ContentSnippet)
		if item.EOLDate != nil {
			days := DaysUntil(*item.EOLDate, time.Now().UTC())
			item.DaysUntilEOL = &days
		}
		result = append(result, item)
	}
	return result
}

// SecurityView enriches security bulletins with a severity level and the
// product names mentioned in the bulletin text.
func SecurityView(items []Item) []Item {
	var result []Item
	for _, item := range items {
		if item.Source != SourceSecurity {
			continue
		}
		text := item.Title + " " + item.Content
		item.Severity = ExtractSeverity(text)
		item.Categories = appendCategory(item.Categories, item.Severity)
		for _, product := range ExtractProducts(text) {
			item.Categories = appendCategory(item.Categories, product)
		}
		result = append(result, item)
	}
	return result
}

// ArchitectureView rewrites the relative links the Architecture Center
// feed emits into absolute URLs.
func ArchitectureView(items []Item) []Item {
	var result []Item
	for _, item := range items {
		if item.Source != SourceArchitecture {
			continue
		}
		item.Link = NormalizeArchitectureLink(item.Link)
		result = append(result, item)
	}
	return result
}

// Compose merges the raw feed with its enriched views and the incident
// list into one id-keyed set. Overlays are applied in order, so a
// specialized view replaces the raw entry sharing its id. Incidents use a
// distinct key space and are not expected to collide.
func Compose(feedItems, incidents []Item) []Item {
	merged := make(map[string]Item, len(feedItems)+len(incidents))
	order := make([]string, 0, len(feedItems)+len(incidents))

	insert := func(items []Item) {
		for _, item := range items {
			if _, exists := merged[item.ID]; !exists {
				order = append(order, item.ID)
			}
			merged[item.ID] = item
		}
	}

	insert(feedItems)
	insert(DeprecationsView(feedItems))
	insert(SecurityView(feedItems))
	insert(ArchitectureView(feedItems))
	insert(incidents)

	result := make([]Item, 0, len(order))
	for _, id := range order {
		result = append(result, merged[id])
	}
	SortItems(result)
	return result
}

// SortItems orders items newest first.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ISODate.After(items[j].ISODate)
	})
}

// SortIncidents orders incidents active-first, then newest first.
func SortIncidents(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsActive != items[j].IsActive {
			return items[i].IsActive
		}
		return items[i].ISODate.After(items[j].ISODate)
	})
}
