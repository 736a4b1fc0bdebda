package generator

// WorkItem is one unit of generation input. The set of implementations is
// closed: OperationItem and ScenarioItem.
type WorkItem interface {
	ItemName() string
	isWorkItem()
}

// OperationItem is a single API operation. Fragment holds the operation's
// JSON (or, when building scripts, the planned test entry's JSON).
type OperationItem struct {
	Name     string
	Method   string
	Path     string
	Fragment string
}

func (o OperationItem) ItemName() string { return o.Name }
func (OperationItem) isWorkItem()        {}

// ScenarioItem is an end-to-end scenario outline.
type ScenarioItem struct {
	Name  string
	Steps []string
}

func (s ScenarioItem) ItemName() string { return s.Name }
func (ScenarioItem) isWorkItem()        {}

// Batch is a contiguous run of items. The item at position i has global
// index Start+i.
type Batch struct {
	Start int
	Items []WorkItem
}

// Index returns the global index of the i-th item in the batch.
func (b Batch) Index(i int) int { return b.Start + i }

// Partition splits items into ceil(len/size) batches that concatenate back
// to items. A size below 1 is treated as 1.
func Partition(items []WorkItem, size int) []Batch {
	if size < 1 {
		size = 1
	}
	batches := make([]Batch, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, Batch{Start: start, Items: items[start:end]})
	}
	return batches
}
