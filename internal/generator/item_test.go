package generator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opItems(n int) []WorkItem {
	items := make([]WorkItem, n)
	for i := range items {
		items[i] = OperationItem{Name: fmt.Sprintf("op_%d", i), Method: "GET", Path: fmt.Sprintf("/items/%d", i)}
	}
	return items
}

func TestPartition_Reconstructs(t *testing.T) {
	for m := 0; m <= 13; m++ {
		for b := 1; b <= 7; b++ {
			t.Run(fmt.Sprintf("M=%d/B=%d", m, b), func(t *testing.T) {
				items := opItems(m)
				batches := Partition(items, b)

				require.Len(t, batches, (m+b-1)/b)

				var joined []WorkItem
				for _, batch := range batches {
					require.NotEmpty(t, batch.Items)
					require.LessOrEqual(t, len(batch.Items), b)
					for i, item := range batch.Items {
						assert.Equal(t, items[batch.Index(i)], item)
					}
					joined = append(joined, batch.Items...)
				}
				if m == 0 {
					assert.Empty(t, joined)
				} else {
					assert.Equal(t, items, joined)
				}
			})
		}
	}
}

func TestPartition_SizeBelowOne(t *testing.T) {
	batches := Partition(opItems(3), 0)
	assert.Len(t, batches, 3)
}

func TestWorkItem_Names(t *testing.T) {
	var items []WorkItem = []WorkItem{
		OperationItem{Name: "list_users"},
		ScenarioItem{Name: "Checkout"},
	}
	assert.Equal(t, "list_users", items[0].ItemName())
	assert.Equal(t, "Checkout", items[1].ItemName())
}
