package feed

import (
	"cmp"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
)

// NormalizeBatch converts one source's parsed entries into canonical items.
// The batch position is always appended to the native key, so items with
// identical or missing GUIDs still get distinct IDs within the batch.
func NormalizeBatch(src Source, entries []*gofeed.Item, now time.Time) []Item {
	items := make([]Item, 0, len(entries))
	for i, entry := range entries {
		if entry == nil {
			continue
		}
		items = append(items, normalizeEntry(src, entry, i, now))
	}
	return items
}

func normalizeEntry(src Source, entry *gofeed.Item, position int, now time.Time) Item {
	guid := cmp.Or(entry.GUID, entry.Link)

	item := Item{
		ID:             fmt.Sprintf("%s-%d", cmp.Or(guid, "item"), position),
		GUID:           guid,
		Title:          CleanText(entry.Title),
		Link:           entry.Link,
		Content:        cmp.Or(entry.Content, entry.Description),
		ContentSnippet: CleanText(cmp.Or(entry.Description, entry.Content)),
		ISODate:        resolveDate(entry, now),
		Source:         src.Name,
		Categories:     dedupeCategories(entry.Categories),
	}

	if len(entry.Enclosures) > 0 && entry.Enclosures[0] != nil {
		item.Enclosure = &Enclosure{
			URL:  entry.Enclosures[0].URL,
			Type: entry.Enclosures[0].Type,
		}
	}

	return item
}

// resolveDate never produces a zero time: parsed publish date first, then
// the update date, then the fetch time as last resort.
func resolveDate(entry *gofeed.Item, now time.Time) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	return now
}

func dedupeCategories(categories []string) []string {
	if len(categories) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(categories))
	result := make([]string, 0, len(categories))
	for _, c := range categories {
		c = CleanText(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		result = append(result, c)
	}
	return result
}

// appendCategory adds a tag unless it is already present.
func appendCategory(categories []string, category string) []string {
	for _, c := range categories {
		if c == category {
			return categories
		}
	}
	return append(categories, category)
}
