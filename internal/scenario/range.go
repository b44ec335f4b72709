package scenario

import "fmt"

// StepRange is an inclusive range of 1-based step numbers.
type StepRange struct {
	From uint64
	To   uint64
}

// SplitRange splits a step range into batches of size batchSize.
func SplitRange(from, to, batchSize uint64) ([]StepRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to step must be >= from step")
	}

	ranges := make([]StepRange, 0, (to-from)/batchSize+1)
	for start := from; ; start += batchSize {
		end := to
		if to-start >= batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, StepRange{From: start, To: end})
		if end == to {
			return ranges, nil
		}
	}
}
