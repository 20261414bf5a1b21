package domain

// WorkItem is one URL submitted for processing together with its 1-based
// position in the batch.
type WorkItem struct {
	URL      string
	Position int
}

// NewWorkItems assigns batch positions to urls in submission order.
func NewWorkItems(urls []string) []WorkItem {
	items := make([]WorkItem, len(urls))
	for i, url := range urls {
		items[i] = WorkItem{URL: url, Position: i + 1}
	}
	return items
}
