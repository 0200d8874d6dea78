package scorepool

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/viant/scorepool/internal/idgen"
	"github.com/viant/scorepool/model"
	"github.com/viant/scorepool/optimizer"
	"github.com/viant/scorepool/service/dispatcher"
	"github.com/viant/scorepool/tracing"
	"go.uber.org/zap"
)

var (
	// ErrTokenCancelled is returned by Optimize for a token cancelled earlier.
	ErrTokenCancelled = errors.New("token was cancelled")
	// ErrTasksDropped is returned by Optimize when one of its tasks was
	// discarded before reporting, for example by another caller's Cancel.
	ErrTasksDropped = errors.New("optimization task dropped")
)

// Optimize splits request into buffer sized tasks, scores them on the
// execution units and returns the merged best build. It uses the configured
// kernel, which must accept optimizer requests. Requests whose combination
// space is too large fail with optimizer.ErrSpaceTooLarge.
//
// All tasks are submitted under token; an empty token gets a fresh one. When
// ctx is done, a task fails or a task is dropped, the token is cancelled and
// only this call's queued tasks are withdrawn; queued work of other callers
// stays in place. A kernel panic loses its unit without any notice, so
// callers running untrusted kernels should give ctx a deadline.
func (s *Service) Optimize(ctx context.Context, token string, request optimizer.Request) (*optimizer.Response, error) {
	if token == "" {
		token = idgen.New()
	}
	if !s.dispatcher.Enabled(token) {
		return nil, fmt.Errorf("%w: %v", ErrTokenCancelled, token)
	}
	parts, err := optimizer.Partition(request, s.dispatcher.Config().BufferCapacity)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return optimizer.Merge(), nil
	}

	ctx, span := tracing.StartSpan(ctx, "scorepool.optimize")
	span.WithAttributes(map[string]string{"token": token, "tasks": strconv.Itoa(len(parts))})
	response, err := s.optimize(ctx, token, parts)
	tracing.EndSpan(span, err)
	return response, err
}

func (s *Service) optimize(ctx context.Context, token string, parts []optimizer.Request) (*optimizer.Response, error) {
	results := make(chan *model.Result, len(parts))
	dropped := make(chan error, len(parts))
	onDrop := dispatcher.OnDrop(func(taskID string, reason error) {
		dropped <- fmt.Errorf("%w: %v: %w", ErrTasksDropped, taskID, reason)
	})
	continuation := func(result *model.Result) {
		results <- result
	}

	ids := make([]string, 0, len(parts))
	abort := func() {
		if n := s.dispatcher.Withdraw(token, ids...); n > 0 {
			s.logger.Debug("optimization withdrawn", zap.String("token", token), zap.Int("tasks", n))
		}
	}
	for i := range parts {
		task := model.NewTask(idgen.Task(), &parts[i])
		ids = append(ids, task.ID)
		if err := s.dispatcher.Submit(ctx, token, task, continuation, onDrop); err != nil {
			abort()
			return nil, err
		}
	}
	s.logger.Debug("optimization submitted", zap.String("token", token), zap.Int("tasks", len(parts)))

	responses := make([]*optimizer.Response, 0, len(parts))
	for len(responses) < len(parts) {
		select {
		case <-ctx.Done():
			abort()
			return nil, ctx.Err()
		case err := <-dropped:
			abort()
			return nil, err
		case result := <-results:
			if result.Err != nil {
				abort()
				return nil, fmt.Errorf("task %v failed: %w", result.TaskID, result.Err)
			}
			response, ok := result.Output.(*optimizer.Response)
			if !ok {
				abort()
				return nil, fmt.Errorf("task %v: unexpected output %T", result.TaskID, result.Output)
			}
			responses = append(responses, response)
		}
	}
	return optimizer.Merge(responses...), nil
}
