package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/tripweaver/tripweaver/internal/models"
)

type fakeExecutor struct {
	calls  int
	chatID int64
	cmd    models.Command
	data   map[models.DataKey]string
	reply  string
	err    error
}

func (f *fakeExecutor) Execute(_ context.Context, chatID int64, cmd models.Command, data map[models.DataKey]string) (string, error) {
	f.calls++
	f.chatID = chatID
	f.cmd = cmd
	f.data = data
	return f.reply, f.err
}

func newTestEngine(executor *fakeExecutor) *Engine {
	return NewEngine(NewRegistry(), NewValidatorWithClock(fixedClock), executor)
}

func TestEngineCompletesPlanTrip(t *testing.T) {
	executor := &fakeExecutor{reply: "Trip created successfully!"}
	engine := newTestEngine(executor)
	ctx := context.Background()

	prompt, err := engine.Start(42, models.CommandPlanTrip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prompt != Prompt(models.StepName) {
		t.Errorf("start prompt = %q, want name prompt", prompt)
	}

	if _, err := engine.Input(ctx, 42, "Paris"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engine.Input(ctx, 42, "2026-09-01"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reply, err := engine.Input(ctx, 42, "2026-09-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Trip created successfully!" {
		t.Errorf("terminal reply = %q", reply)
	}

	if executor.calls != 1 {
		t.Fatalf("executor ran %d times, want 1", executor.calls)
	}
	if executor.cmd != models.CommandPlanTrip || executor.chatID != 42 {
		t.Errorf("executor got (%d, %s)", executor.chatID, executor.cmd)
	}
	want := map[models.DataKey]string{
		models.DataKeyName:      "Paris",
		models.DataKeyStartDate: "2026-09-01",
		models.DataKeyEndDate:   "2026-09-10",
	}
	for k, v := range want {
		if executor.data[k] != v {
			t.Errorf("data[%s] = %q, want %q", k, executor.data[k], v)
		}
	}
	if _, active := engine.CurrentStep(42); active {
		t.Error("session should be destroyed after completion")
	}
}

func TestEngineInvalidInputLeavesStepUnchanged(t *testing.T) {
	executor := &fakeExecutor{}
	engine := newTestEngine(executor)
	ctx := context.Background()

	if _, err := engine.Start(7, models.CommandPlanTrip); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reply, err := engine.Input(ctx, 7, "!!!")
	if err != nil {
		t.Fatalf("invalid input must not surface an error, got %v", err)
	}
	if reply == "" {
		t.Error("expected the step's validation message")
	}
	step, ok := engine.CurrentStep(7)
	if !ok || step != models.StepName {
		t.Errorf("step after invalid input = %s, want %s", step, models.StepName)
	}
	if executor.calls != 0 {
		t.Errorf("executor ran on invalid input")
	}
}

func TestEngineNoSession(t *testing.T) {
	engine := newTestEngine(&fakeExecutor{})

	if _, err := engine.Input(context.Background(), 1, "hello"); !errors.Is(err, models.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestEngineStartOverwritesActiveDialog(t *testing.T) {
	executor := &fakeExecutor{reply: "done"}
	engine := newTestEngine(executor)
	ctx := context.Background()

	if _, err := engine.Start(9, models.CommandPlanTrip); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engine.Input(ctx, 9, "Oslo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := engine.Start(9, models.CommandAddNote); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	step, ok := engine.CurrentStep(9)
	if !ok || step != models.StepTripName {
		t.Fatalf("step after restart = %s, want %s", step, models.StepTripName)
	}

	if _, err := engine.Input(ctx, 9, "Oslo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engine.Input(ctx, 9, "packed too much"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if executor.cmd != models.CommandAddNote {
		t.Errorf("executed %s, want the restarted command", executor.cmd)
	}
	if _, leaked := executor.data[models.DataKeyName]; leaked {
		t.Error("abandoned dialog's data leaked into the new session")
	}
}

func TestEngineExecutorFailureDestroysSession(t *testing.T) {
	executor := &fakeExecutor{err: errors.New("db down")}
	engine := newTestEngine(executor)
	ctx := context.Background()

	if _, err := engine.Start(3, models.CommandFinishPlanning); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reply, err := engine.Input(ctx, 3, "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != GenericFailureReply {
		t.Errorf("reply = %q, want generic failure reply", reply)
	}
	if _, active := engine.CurrentStep(3); active {
		t.Error("session must be destroyed even when the executor fails")
	}
}

func TestEngineCancel(t *testing.T) {
	engine := newTestEngine(&fakeExecutor{})

	engine.Cancel(5) // no session yet

	if _, err := engine.Start(5, models.CommandPlanTrip); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	engine.Cancel(5)
	if _, active := engine.CurrentStep(5); active {
		t.Error("session should be gone after cancel")
	}
}

func TestEngineCompleteWithLocation(t *testing.T) {
	executor := &fakeExecutor{reply: "tracking"}
	engine := newTestEngine(executor)
	ctx := context.Background()

	if _, ok := engine.CompleteWithLocation(ctx, 11); ok {
		t.Fatal("no dialog should complete without a session")
	}

	if _, err := engine.Start(11, models.CommandSetOngoing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.AwaitingLocation(11) {
		t.Fatal("not yet at the location step")
	}
	if _, err := engine.Input(ctx, 11, "Paris"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !engine.AwaitingLocation(11) {
		t.Fatal("should be awaiting location now")
	}

	reply, ok := engine.CompleteWithLocation(ctx, 11)
	if !ok || reply != "tracking" {
		t.Fatalf("got (%q, %v), want executor reply", reply, ok)
	}
	if executor.data[models.DataKeyTripName] != "Paris" {
		t.Errorf("collected trip name = %q", executor.data[models.DataKeyTripName])
	}
	if _, active := engine.CurrentStep(11); active {
		t.Error("session should be destroyed after location completion")
	}
}

func TestRegistryCommitDroppedAfterReplace(t *testing.T) {
	registry := NewRegistry()
	registry.Create(1, models.CommandPlanTrip, models.StepName)

	snapshot, ok := registry.Snapshot(1)
	if !ok {
		t.Fatal("expected a session")
	}
	snapshot.CurrentStep = models.StepStartDate

	registry.Create(1, models.CommandAddNote, models.StepTripName)
	registry.Commit(snapshot)

	step, _ := registry.CurrentStep(1)
	if step != models.StepTripName {
		t.Errorf("stale commit overwrote the replacement session: step = %s", step)
	}
}
