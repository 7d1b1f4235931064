// Package gallery implements the incremental gallery loader: the category
// filter, the batch loader, the retry state machine and the visibility trigger.
//
// Nothing in this package blocks the UI. The Controller is a plain state
// machine; callers turn its Requests into asynchronous work and feed the
// results back through Resolve.
package gallery

import "github.com/abelbrown/shutter/internal/catalog"

// WorkingSet returns the items whose category equals tag, in collection order.
// The wildcard returns a copy of the whole collection.
func WorkingSet(items []catalog.Item, tag catalog.Category) []catalog.Item {
	if tag == catalog.CategoryAll {
		out := make([]catalog.Item, len(items))
		copy(out, items)
		return out
	}
	out := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		if it.Category == tag {
			out = append(out, it)
		}
	}
	return out
}
