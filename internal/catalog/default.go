package catalog

import "fmt"

// DefaultSize is the number of items in the reference collection.
const DefaultSize = 50

// baseImages are the six images the site's gallery cycles through.
var baseImages = []Item{
	{URL: "https://img.alllf.com/1.png", Category: CategoryLandscape, Title: "Mountain Vista"},
	{URL: "https://img.alllf.com/2.png", Category: CategoryArchitecture, Title: "Modern Building"},
	{URL: "https://img.alllf.com/3.png", Category: CategoryNature, Title: "Forest Path"},
	{URL: "https://img.alllf.com/4.png", Category: CategoryAbstract, Title: "Color Waves"},
	{URL: "https://img.alllf.com/5.png", Category: CategoryPortrait, Title: "City Life"},
	{URL: "https://img.alllf.com/6.png", Category: CategoryLandscape, Title: "Sunset Beach"},
}

// Default returns the reference collection. The base images repeat, so each
// repetition after the first gets a "?v=n" query and a numbered title to keep
// URLs unique.
func Default() []Item {
	items := make([]Item, DefaultSize)
	for i := range items {
		base := baseImages[i%len(baseImages)]
		round := i / len(baseImages)
		if round > 0 {
			base.URL = fmt.Sprintf("%s?v=%d", base.URL, round)
			base.Title = fmt.Sprintf("%s %d", base.Title, round+1)
		}
		items[i] = base
	}
	return items
}
