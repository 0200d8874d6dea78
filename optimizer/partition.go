package optimizer

import (
	"fmt"
	"math"
)

// Partition splits the whole combination space of request into requests of at
// most size combinations each. Spaces past MaxCombinations, or needing more
// than MaxParts requests, fail with ErrSpaceTooLarge before anything is
// allocated.
func Partition(request Request, size int) ([]Request, error) {
	if size <= 0 {
		return nil, nil
	}
	total, err := Space(slotSizes(request.Slots)...)
	if err != nil || total == 0 {
		return nil, err
	}
	count := total / size
	if total%size != 0 {
		count++
	}
	if count > MaxParts {
		return nil, fmt.Errorf("%w: %d requests of %d combinations exceed %d", ErrSpaceTooLarge, count, size, MaxParts)
	}
	parts := make([]Request, 0, count)
	for offset := 0; offset < total; offset += size {
		part := request
		part.Offset = offset
		part.Limit = min(size, total-offset)
		parts = append(parts, part)
	}
	return parts, nil
}

// Merge reduces partial responses into the overall best build. Nil entries
// are skipped.
func Merge(responses ...*Response) *Response {
	merged := &Response{Score: math.Inf(-1)}
	found := false
	for _, response := range responses {
		if response == nil {
			continue
		}
		merged.Evaluated += response.Evaluated
		merged.Truncated = merged.Truncated || response.Truncated
		if len(response.Best) > 0 && (!found || response.Score > merged.Score) {
			merged.Score = response.Score
			merged.Best = response.Best
			merged.Offset = response.Offset
			found = true
		}
	}
	if !found {
		merged.Score = 0
	}
	return merged
}
