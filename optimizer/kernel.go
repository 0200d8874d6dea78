package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/viant/scorepool/model"
)

var (
	// ErrInvalidPayload is returned when a task does not carry a Request.
	ErrInvalidPayload = errors.New("invalid optimizer payload")
	// ErrNoBuffer is returned when a task arrives without a scratch buffer.
	ErrNoBuffer = errors.New("task has no scratch buffer")
)

// checkEvery is the number of combinations scored between context checks.
const checkEvery = 4096

// Kernel scores the request carried by task. Every evaluated combination
// leaves its score in the task buffer at index i-Offset. A range larger than
// the buffer is truncated to the buffer capacity.
func Kernel(ctx context.Context, task *model.Task) (any, error) {
	var request *Request
	switch actual := task.Payload.(type) {
	case *Request:
		request = actual
	case Request:
		request = &actual
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidPayload, task.Payload)
	}
	scores := task.Buffer.Floats()
	if scores == nil {
		return nil, ErrNoBuffer
	}
	return Evaluate(ctx, request, scores)
}

// Evaluate scores request into scores.
func Evaluate(ctx context.Context, request *Request, scores []float64) (*Response, error) {
	total := Combinations(request.Slots)
	response := &Response{Offset: request.Offset, Score: math.Inf(-1)}
	start, end := request.Offset, request.Offset+request.Limit
	if start < 0 {
		start = 0
	}
	if end > total {
		end = total
	}
	if end-start > len(scores) {
		end = start + len(scores)
		response.Truncated = true
	}
	if start >= end {
		response.Score = 0
		return response, nil
	}

	relicScores := make([][]float64, len(request.Slots))
	for s, slot := range request.Slots {
		relicScores[s] = make([]float64, len(slot))
		for j, relic := range slot {
			relicScores[s][j] = Score(relic, request.Weights)
		}
	}

	picks := make([]int, len(request.Slots))
	best := make([]int, len(request.Slots))
	decode(start, request.Slots, picks)
	for i := start; i < end; i++ {
		if (i-start)%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		var score float64
		for s, j := range picks {
			score += relicScores[s][j]
		}
		scores[i-start] = score
		if score > response.Score {
			response.Score = score
			copy(best, picks)
		}
		advance(request.Slots, picks)
		response.Evaluated++
	}

	response.Best = make([]string, len(best))
	for s, j := range best {
		response.Best[s] = request.Slots[s][j].ID
	}
	return response, nil
}

// decode converts a combination index into one pick per slot.
func decode(index int, slots [][]Relic, picks []int) {
	for s := len(slots) - 1; s >= 0; s-- {
		n := len(slots[s])
		picks[s] = index % n
		index /= n
	}
}

// advance moves picks to the next combination, last slot fastest.
func advance(slots [][]Relic, picks []int) {
	for s := len(slots) - 1; s >= 0; s-- {
		picks[s]++
		if picks[s] < len(slots[s]) {
			return
		}
		picks[s] = 0
	}
}
