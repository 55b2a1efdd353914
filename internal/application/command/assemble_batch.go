package command

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome for one profile of a batch.
type BatchItem struct {
	Username string
	Result   *AssemblePlanResult
	Err      error
}

// HandleBatch assembles every command concurrently, at most limit at a time.
// Each command gets its own session; one failing profile does not stop the
// others. Items come back in input order. Only ctx cancellation is returned
// as an error.
func (h *AssemblePlanHandler) HandleBatch(ctx context.Context, cmds []AssemblePlanCommand, limit int) ([]BatchItem, error) {
	if limit <= 0 {
		limit = 1
	}
	items := make([]BatchItem, len(cmds))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for i, cmd := range cmds {
		items[i].Username = cmd.Username
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			items[i].Result, items[i].Err = h.Handle(egCtx, cmd)
			return nil
		})
	}
	_ = eg.Wait()

	return items, ctx.Err()
}
