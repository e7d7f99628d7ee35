package catalog

import "sort"

// Uncategorized is the bucket label for items whose category field is missing
// or empty. The source data has no fixed taxonomy, so this is the one label we
// invent ourselves.
const Uncategorized = "Uncategorized"

// CategoryGroup is one bucket of the grouped menu view model.
type CategoryGroup struct {
	Category string     `json:"category"`
	Items    []FoodItem `json:"items"`
}

// GroupByCategory partitions items into per-category buckets. Bucket
// membership keeps the insertion order of the input emission; buckets are
// ordered by case-sensitive lexicographic comparison of the label. Categories
// exist only while an item in the current snapshot carries them.
func GroupByCategory(items []FoodItem) []CategoryGroup {
	buckets := make(map[string][]FoodItem)
	for _, item := range items {
		label := item.Category
		if label == "" {
			label = Uncategorized
		}
		buckets[label] = append(buckets[label], item)
	}

	groups := make([]CategoryGroup, 0, len(buckets))
	for label, bucketed := range buckets {
		groups = append(groups, CategoryGroup{Category: label, Items: bucketed})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Category < groups[j].Category
	})
	return groups
}
