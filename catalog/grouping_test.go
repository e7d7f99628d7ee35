package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dishdash-app/dishdash/store"
)

func TestGroupByCategory(t *testing.T) {
	tests := []struct {
		name  string
		items []FoodItem
		want  []CategoryGroup
	}{
		{
			name:  "empty snapshot yields empty view model",
			items: nil,
			want:  []CategoryGroup{},
		},
		{
			name: "buckets sorted, per-bucket emission order kept",
			items: []FoodItem{
				{ID: "1", Category: "B"},
				{ID: "2", Category: "A"},
				{ID: "3", Category: "A"},
			},
			want: []CategoryGroup{
				{Category: "A", Items: []FoodItem{{ID: "2", Category: "A"}, {ID: "3", Category: "A"}}},
				{Category: "B", Items: []FoodItem{{ID: "1", Category: "B"}}},
			},
		},
		{
			name: "ordering is case sensitive",
			items: []FoodItem{
				{ID: "1", Category: "appetizers"},
				{ID: "2", Category: "Zesty"},
			},
			want: []CategoryGroup{
				{Category: "Zesty", Items: []FoodItem{{ID: "2", Category: "Zesty"}}},
				{Category: "appetizers", Items: []FoodItem{{ID: "1", Category: "appetizers"}}},
			},
		},
		{
			name: "missing category collapses into the sentinel bucket",
			items: []FoodItem{
				{ID: "1", Category: ""},
				{ID: "2", Category: "Soups"},
				{ID: "3", Category: ""},
			},
			want: []CategoryGroup{
				{Category: "Soups", Items: []FoodItem{{ID: "2", Category: "Soups"}}},
				{Category: Uncategorized, Items: []FoodItem{{ID: "1"}, {ID: "3"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GroupByCategory(tt.items))
		})
	}
}

func TestGroupByCategoryPreservesMultiset(t *testing.T) {
	items := []FoodItem{
		{ID: "1", Category: "A"},
		{ID: "2", Category: "B"},
		{ID: "3", Category: "A"},
		{ID: "4", Category: "C"},
		{ID: "5", Category: "B"},
		{ID: "5", Category: "B"}, // duplicate record must survive grouping
	}

	var flattened []FoodItem
	for _, group := range GroupByCategory(items) {
		flattened = append(flattened, group.Items...)
	}
	assert.ElementsMatch(t, items, flattened, "grouping then flattening loses or duplicates nothing")
}

func TestFeedWatchMenu(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(store.NewChannelBus())
	feed := NewFeed(st)

	require.NoError(t, st.Set(ctx, CollectionFoodItems, "1", map[string]any{"name": "Ramen", "category": "B", "price": 120.0}))

	var emissions [][]CategoryGroup
	unsub, err := feed.WatchMenu(ctx, func(groups []CategoryGroup) {
		emissions = append(emissions, groups)
	})
	require.NoError(t, err)

	require.Len(t, emissions, 1)
	require.Len(t, emissions[0], 1)
	assert.Equal(t, "B", emissions[0][0].Category)

	require.NoError(t, st.Set(ctx, CollectionFoodItems, "2", map[string]any{"name": "Dosa", "category": "A", "price": 60.0}))
	require.Len(t, emissions, 2)
	require.Len(t, emissions[1], 2)
	assert.Equal(t, "A", emissions[1][0].Category)
	assert.Equal(t, "B", emissions[1][1].Category)

	// a category disappears from the view model when its last item goes
	require.NoError(t, st.Delete(ctx, CollectionFoodItems, "1"))
	require.Len(t, emissions, 3)
	require.Len(t, emissions[2], 1)
	assert.Equal(t, "A", emissions[2][0].Category)

	unsub()
	require.NoError(t, st.Set(ctx, CollectionFoodItems, "3", map[string]any{"category": "C"}))
	assert.Len(t, emissions, 3, "torn-down feed receives nothing")
}

func TestFeedOneShotReads(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(nil)
	feed := NewFeed(st)

	require.NoError(t, st.Set(ctx, CollectionCategories, "c1", map[string]any{"iconRef": "icons/pizza.png"}))
	require.NoError(t, st.Set(ctx, CollectionOffers, "o1", map[string]any{"imageRef": "offers/50off.png", "title": "Half price"}))

	cats, err := feed.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "icons/pizza.png", cats[0].IconRef)

	offers, err := feed.Offers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Half price", offers[0].Title)

	groups, err := feed.Menu(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
