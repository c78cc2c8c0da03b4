package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	validation *ValidationResult
	validErr   error
	commit     *CommitResult
	commitErr  error

	validateCalls int
	commits       []CommitRequest
	onValidate    func()
	onCommit      func()
}

func (f *fakeGateway) Validate(ctx context.Context, file SourceFile, mapping Mapping) (*ValidationResult, error) {
	f.validateCalls++
	if f.onValidate != nil {
		f.onValidate()
	}
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("call without deadline")
	}
	return f.validation, f.validErr
}

func (f *fakeGateway) Commit(ctx context.Context, file SourceFile, mapping Mapping, req CommitRequest) (*CommitResult, error) {
	f.commits = append(f.commits, req)
	if f.onCommit != nil {
		f.onCommit()
	}
	return f.commit, f.commitErr
}

type fakeLister struct {
	tasks []Record
	err   error
	calls int
}

func (f *fakeLister) ListTasks(ctx context.Context, q TaskQuery) ([]Record, error) {
	f.calls++
	return f.tasks, f.err
}

func openMapped(t *testing.T, w *Workflow) {
	t.Helper()
	w.Open()
	_, err := w.SelectFile(NewSource("tasks.csv", []byte(templateCSV)))
	require.NoError(t, err)
	s, err := w.Next()
	require.NoError(t, err)
	require.Equal(t, StageMapping, s.Stage)
}

func fixedID(id string) Option {
	return WithIDGenerator(func() string { return id })
}

func TestWorkflowRequiresSession(t *testing.T) {
	w := NewWorkflow(&fakeGateway{}, nil)

	_, err := w.Next()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = w.Validate(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = w.ForceCommit(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestWorkflowImport(t *testing.T) {
	gw := &fakeGateway{
		validation: &ValidationResult{Valid: true, Preview: []Record{{SiteName: "SITE_A"}}, TotalRows: 2},
		commit:     &CommitResult{Success: true, Imported: 2},
	}
	lister := &fakeLister{tasks: []Record{{SiteName: "SITE_A"}, {SiteName: "SITE_B"}}}
	w := NewWorkflow(gw, lister, fixedID("import-1"), WithCallTimeout(time.Second))
	openMapped(t, w)

	s, err := w.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StageResults, s.Stage)
	assert.Len(t, s.Preview, 1)

	s, err = w.Confirm(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Success)
	require.Len(t, gw.commits, 1)
	assert.Equal(t, CommitRequest{ImportID: "import-1"}, gw.commits[0])

	tasks, err := w.Close(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	assert.Equal(t, 1, lister.calls)

	_, ok := w.Session()
	assert.False(t, ok)
}

func TestWorkflowLocalCheckSkipsGateway(t *testing.T) {
	gw := &fakeGateway{}
	w := NewWorkflow(gw, nil)
	openMapped(t, w)

	_, err := w.SetField("nodeId", nil)
	require.NoError(t, err)

	s, err := w.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StageValidation, s.Stage)
	assert.Equal(t, 0, gw.validateCalls)
}

func TestWorkflowForceCommitCarriesErrors(t *testing.T) {
	gw := &fakeGateway{
		validation: &ValidationResult{Errors: []string{"Row 3: field 'status' is required"}},
		commit:     &CommitResult{Success: true, Imported: 1, Skipped: []string{"Row 3: field 'status' is required"}},
	}
	w := NewWorkflow(gw, nil, fixedID("import-2"))
	openMapped(t, w)

	s, err := w.Validate(context.Background())
	require.NoError(t, err)
	require.Equal(t, StageValidation, s.Stage)

	s, err = w.ForceCommit(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Success)
	require.Len(t, gw.commits, 1)
	assert.True(t, gw.commits[0].Force)
	assert.Equal(t, []string{"Row 3: field 'status' is required"}, gw.commits[0].KnownErrors)
}

func TestWorkflowRetryReusesImportID(t *testing.T) {
	gw := &fakeGateway{
		validation: &ValidationResult{Valid: true},
		commitErr:  &GatewayError{Op: "commit", Err: errors.New("timeout")},
	}
	w := NewWorkflow(gw, nil, fixedID("import-3"))
	openMapped(t, w)

	_, err := w.Validate(context.Background())
	require.NoError(t, err)
	s, err := w.Confirm(context.Background())
	require.NoError(t, err)
	require.True(t, s.Failed())
	assert.Equal(t, []string{commitTransportMessage}, s.Errors)

	s, err = w.RetryAfterFailure()
	require.NoError(t, err)
	assert.Equal(t, StageMapping, s.Stage)

	gw.commitErr = nil
	gw.commit = &CommitResult{Success: true, Imported: 2, Replayed: true}
	_, err = w.Validate(context.Background())
	require.NoError(t, err)
	s, err = w.Confirm(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Success)

	require.Len(t, gw.commits, 2)
	assert.Equal(t, gw.commits[0].ImportID, gw.commits[1].ImportID)
}

func TestWorkflowAnswerAfterCloseIsDropped(t *testing.T) {
	gw := &fakeGateway{validation: &ValidationResult{Valid: true}}
	w := NewWorkflow(gw, nil)
	openMapped(t, w)

	gw.onValidate = func() { _, _ = w.Close(context.Background()) }

	_, err := w.Validate(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestWorkflowCloseWithoutSuccessSkipsRefresh(t *testing.T) {
	lister := &fakeLister{}
	w := NewWorkflow(&fakeGateway{}, lister)
	openMapped(t, w)

	tasks, err := w.Close(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tasks)
	assert.Equal(t, 0, lister.calls)
}

// gate blocks a gateway call until released and reports when it was entered
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) hold() {
	close(g.entered)
	<-g.release
}

func waitEntered(t *testing.T, g *gate) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(time.Second):
		t.Fatal("gateway call never started")
	}
}

func TestWorkflowBusyDuringValidation(t *testing.T) {
	g := newGate()
	gw := &fakeGateway{
		validation: &ValidationResult{Valid: true, TotalRows: 2},
		commit:     &CommitResult{Success: true, Imported: 2},
		onValidate: g.hold,
	}
	w := NewWorkflow(gw, nil)
	openMapped(t, w)

	done := make(chan Session)
	go func() {
		s, _ := w.Validate(context.Background())
		done <- s
	}()
	waitEntered(t, g)

	s, err := w.Validate(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, PendingValidation, s.Pending)
	_, err = w.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	_, err = w.ForceCommit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(g.release)
	s = <-done
	assert.Equal(t, StageResults, s.Stage)
	assert.Equal(t, 1, gw.validateCalls)
	assert.Empty(t, gw.commits)
}

func TestWorkflowBusyDuringCommit(t *testing.T) {
	g := newGate()
	gw := &fakeGateway{
		validation: &ValidationResult{Valid: true, TotalRows: 2},
		commit:     &CommitResult{Success: true, Imported: 2, Inserted: 2},
		onCommit:   g.hold,
	}
	w := NewWorkflow(gw, nil, fixedID("import-1"))
	openMapped(t, w)
	_, err := w.Validate(context.Background())
	require.NoError(t, err)

	done := make(chan Session)
	go func() {
		s, _ := w.Confirm(context.Background())
		done <- s
	}()
	waitEntered(t, g)

	_, err = w.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	_, err = w.Validate(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(g.release)
	s := <-done
	assert.True(t, s.Success)
	assert.Equal(t, 2, s.Inserted)
	require.Len(t, gw.commits, 1)
	assert.Equal(t, "import-1", gw.commits[0].ImportID)
	assert.Equal(t, 1, gw.validateCalls)
}
