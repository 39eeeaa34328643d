package executor

import (
	"context"

	command "github.com/goliatone/go-command"

	"github.com/kohlsync/core/internal/errkind"
	"github.com/kohlsync/core/internal/planner"
)

const applyItemMessageType = "kohlsync.executor.apply_item"

// ApplyItemCommand dispatches one PlanItem through the executor, the way
// the teacher dispatches markdown imports and static builds as
// command.Message values (internal/commands/markdown/handlers.go,
// internal/commands/static/types.go). Out, when set, receives the Result
// the same way the teacher's ResultCallback field reports a BuildResult.
type ApplyItemCommand struct {
	Item planner.PlanItem
	Out  *Result
}

// Type satisfies command.Message.
func (ApplyItemCommand) Type() string { return applyItemMessageType }

// Validate satisfies command.Message.
func (c ApplyItemCommand) Validate() error {
	if c.Item.Kind == "" {
		return errkind.New(errkind.CommandInvalid, "plan item kind must not be empty", nil)
	}
	return nil
}

// ApplyItemHandler adapts Executor.applyOne to command.Commander, so
// callers (the CLI, a job queue) that already speak go-command get a
// uniform dispatch surface instead of reaching into the executor directly.
type ApplyItemHandler struct {
	e *Executor
}

var _ command.Commander[ApplyItemCommand] = (*ApplyItemHandler)(nil)

// NewApplyItemHandler builds a handler bound to e.
func NewApplyItemHandler(e *Executor) *ApplyItemHandler {
	e.init()
	return &ApplyItemHandler{e: e}
}

// Execute validates msg, applies the item, and reports its Result through
// msg.Out before translating a Failed status into a returned error.
func (h *ApplyItemHandler) Execute(ctx context.Context, msg ApplyItemCommand) error {
	if err := command.ValidateMessage(msg); err != nil {
		return errkind.New(errkind.CommandInvalid, "apply_item command validation failed", err)
	}
	if err := ctx.Err(); err != nil {
		return errkind.WrapContext(err)
	}

	res := h.e.applyOne(ctx, msg.Item)
	if msg.Out != nil {
		*msg.Out = res
	}
	if res.Failed() {
		return res.Err
	}
	return nil
}
