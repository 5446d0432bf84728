package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jing2uo/bkboard/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu  sync.Mutex
	ran []string
}

func (r *recorder) task(name string, deps ...string) *Task {
	return &Task{
		Name:      name,
		DependsOn: deps,
		Executor: func(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
			r.mu.Lock()
			r.ran = append(r.ran, name)
			r.mu.Unlock()
			return &TaskResult{State: StateCompleted}, nil
		},
	}
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

func TestRunRespectsDependencies(t *testing.T) {
	r := &recorder{}
	tasks := map[string]*Task{
		"a": r.task("a"),
		"b": r.task("b", "a"),
		"c": r.task("c", "b"),
	}
	te := NewTaskExecutor(nil, tasks)

	require.NoError(t, te.Run(context.Background(), []string{"c", "b", "a"}, &TaskArgs{}))
	assert.Equal(t, []string{"a", "b", "c"}, r.names())
}

func TestRunSkipIf(t *testing.T) {
	r := &recorder{}
	b := r.task("b", "a")
	b.SkipIf = func(ctx context.Context, db database.DataRepository, args *TaskArgs) bool { return true }
	tasks := map[string]*Task{"a": r.task("a"), "b": b, "c": r.task("c", "b")}

	require.NoError(t, NewTaskExecutor(nil, tasks).Run(context.Background(), []string{"a", "b", "c"}, &TaskArgs{}))
	assert.Equal(t, []string{"a", "c"}, r.names())
}

func TestRunErrorModes(t *testing.T) {
	boom := errors.New("boom")
	failing := func(mode ErrorMode) *Task {
		return &Task{
			Name:    "fail",
			OnError: mode,
			Executor: func(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
				return nil, boom
			},
		}
	}

	t.Run("stop", func(t *testing.T) {
		r := &recorder{}
		tasks := map[string]*Task{"fail": failing(ErrorModeStop), "next": r.task("next", "fail")}
		err := NewTaskExecutor(nil, tasks).Run(context.Background(), []string{"fail", "next"}, &TaskArgs{})
		require.ErrorIs(t, err, boom)
		assert.Empty(t, r.names())
	})

	t.Run("skip", func(t *testing.T) {
		r := &recorder{}
		tasks := map[string]*Task{"fail": failing(ErrorModeSkip), "next": r.task("next", "fail")}
		err := NewTaskExecutor(nil, tasks).Run(context.Background(), []string{"fail", "next"}, &TaskArgs{})
		require.NoError(t, err)
		assert.Equal(t, []string{"next"}, r.names())
	})
}

func TestRunOnCancelStillRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &recorder{}

	work := &Task{
		Name: "work",
		Executor: func(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
			cancel()
			return nil, ctx.Err()
		},
	}
	save := r.task("save", "work")
	save.RunOnCancel = true
	save.Executor = func(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
		assert.NoError(t, ctx.Err())
		r.mu.Lock()
		r.ran = append(r.ran, "save")
		r.mu.Unlock()
		return &TaskResult{State: StateCompleted}, nil
	}
	tasks := map[string]*Task{"work": work, "save": save, "after": r.task("after", "work")}

	err := NewTaskExecutor(nil, tasks).Run(ctx, []string{"work", "save", "after"}, &TaskArgs{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"save"}, r.names())
}

func TestTopologicalSortRejectsCycles(t *testing.T) {
	r := &recorder{}
	tasks := map[string]*Task{"a": r.task("a", "b"), "b": r.task("b", "a")}
	err := NewTaskExecutor(nil, tasks).Run(context.Background(), []string{"a", "b"}, &TaskArgs{})
	require.Error(t, err)
}

func TestFetchTaskNamesRegistered(t *testing.T) {
	reg := GetRegisteredTasks()
	for _, name := range GetFetchTaskNames() {
		assert.Contains(t, reg, name)
	}
}
