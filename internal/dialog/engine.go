package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tripweaver/tripweaver/internal/models"
)

// GenericFailureReply is returned when a command executor fails for reasons
// the user cannot act on (storage problems and the like).
const GenericFailureReply = "Something went wrong while processing your command. Please try again."

// Executor runs a completed command with its full collected-fields map. The
// returned text is the user-facing result, success or business error alike;
// a non-nil error means an infrastructure failure.
type Executor interface {
	Execute(ctx context.Context, chatID int64, cmd models.Command, data map[models.DataKey]string) (string, error)
}

// Engine owns one ephemeral session per chat and advances it step by step.
// Exactly one terminal side effect occurs per completed dialog: the command
// executor runs once at the terminal step and the session is destroyed
// regardless of its outcome.
type Engine struct {
	registry  *Registry
	validator *Validator
	executor  Executor
}

// NewEngine creates a dialog engine over the given registry and executor.
func NewEngine(registry *Registry, validator *Validator, executor Executor) *Engine {
	return &Engine{registry: registry, validator: validator, executor: executor}
}

// Start begins a dialog for cmd and returns the initial prompt. Starting a
// new command while another dialog is active abandons the prior one.
func (e *Engine) Start(chatID int64, cmd models.Command) (string, error) {
	step, ok := InitialStep(cmd)
	if !ok {
		return "", fmt.Errorf("unknown dialog command %q", cmd)
	}
	e.registry.Create(chatID, cmd, step)
	slog.Debug("Engine started dialog", "chatID", chatID, "command", cmd, "step", step)
	return Prompt(step), nil
}

// Input processes one text message for the chat's active dialog.
//
// Invalid input returns the step's error message and leaves the session
// unchanged. Valid input is collected under the step's field key; at the
// terminal step the executor runs and the session is destroyed, otherwise the
// session advances and the next prompt is returned. Input returns
// models.ErrNoSession when the chat has no active dialog.
func (e *Engine) Input(ctx context.Context, chatID int64, text string) (string, error) {
	session, ok := e.registry.Snapshot(chatID)
	if !ok {
		return "", models.ErrNoSession
	}

	value, err := e.validator.Validate(session.CurrentStep, text)
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			slog.Debug("Engine rejected input", "chatID", chatID, "command", session.Command, "step", session.CurrentStep)
			return ve.Message, nil
		}
		return "", err
	}

	session.Data[FieldKey(session.CurrentStep)] = value

	next, hasNext := NextStep(session.Command, session.CurrentStep)
	if !hasNext {
		return e.execute(ctx, session), nil
	}

	session.CurrentStep = next
	e.registry.Commit(session)
	slog.Debug("Engine advanced dialog", "chatID", chatID, "command", session.Command, "step", next)
	return Prompt(next), nil
}

// Cancel destroys the chat's session unconditionally. Cancelling with no
// active session is a no-op.
func (e *Engine) Cancel(chatID int64) {
	e.registry.Remove(chatID)
	slog.Debug("Engine cancelled dialog", "chatID", chatID)
}

// CurrentStep exposes the chat's current dialog step to the router.
func (e *Engine) CurrentStep(chatID int64) (models.Step, bool) {
	return e.registry.CurrentStep(chatID)
}

// AwaitingLocation reports whether the chat's dialog is parked on the step
// that is satisfied by a location event rather than a text reply.
func (e *Engine) AwaitingLocation(chatID int64) bool {
	step, ok := e.registry.CurrentStep(chatID)
	return ok && step == models.StepLocation
}

// CompleteWithLocation satisfies an awaiting-location step with an incoming
// location event: the command executes with the fields collected so far and
// the session is destroyed. It reports false when the chat has no dialog
// parked on that step.
func (e *Engine) CompleteWithLocation(ctx context.Context, chatID int64) (string, bool) {
	session, ok := e.registry.Snapshot(chatID)
	if !ok || session.CurrentStep != models.StepLocation {
		return "", false
	}
	return e.execute(ctx, session), true
}

// execute runs the command executor at the terminal step. The session is
// destroyed regardless of the executor outcome.
func (e *Engine) execute(ctx context.Context, session *models.DialogSession) string {
	defer e.registry.Remove(session.ChatID)

	reply, err := e.executor.Execute(ctx, session.ChatID, session.Command, session.Data)
	if err != nil {
		slog.Error("Engine executor failed", "error", err, "chatID", session.ChatID, "command", session.Command)
		return GenericFailureReply
	}
	slog.Info("Engine completed dialog", "chatID", session.ChatID, "command", session.Command)
	return reply
}
