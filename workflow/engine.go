package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jing2uo/bkboard/config"
	"github.com/jing2uo/bkboard/database"
	"github.com/jing2uo/bkboard/eastmoney"
	"github.com/jing2uo/bkboard/widetable"
)

// TaskState represents the state of a task execution
type TaskState string

const (
	StatePending   TaskState = "pending"
	StateRunning   TaskState = "running"
	StateCompleted TaskState = "completed"
	StateSkipped   TaskState = "skipped"
	StateFailed    TaskState = "failed"
)

// TaskResult holds the execution result of a task
type TaskResult struct {
	State   TaskState
	Rows    int
	Message string
	Error   error
}

type ErrorMode int

const (
	ErrorModeStop ErrorMode = iota
	ErrorModeSkip
)

// TaskFunc is the function that executes a task
type TaskFunc func(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error)

// SkipCondition determines if a task should be skipped
type SkipCondition func(ctx context.Context, db database.DataRepository, args *TaskArgs) bool

// Task represents a unit of work with dependencies
type Task struct {
	Name      string
	DependsOn []string
	Executor  TaskFunc
	SkipIf    SkipCondition
	OnError   ErrorMode
	// RunOnCancel tasks still run after ctx is cancelled, with a context
	// detached from the cancellation, so partial results can be flushed.
	RunOnCancel bool
}

type TaskArgs struct {
	Config  *config.Config
	Client  *eastmoney.Client
	FS      string
	Format  widetable.CellFormat
	Date    time.Time // 指定交易日, 零值时自动判断
	Today   time.Time
	TempDir string
	State   *FetchState
}

// TaskExecutor manages and executes tasks with dependency resolution
type TaskExecutor struct {
	db    database.DataRepository
	tasks map[string]*Task
}

// NewTaskExecutor creates a new task executor
func NewTaskExecutor(db database.DataRepository, tasks map[string]*Task) *TaskExecutor {
	return &TaskExecutor{
		db:    db,
		tasks: tasks,
	}
}

func (te *TaskExecutor) Run(ctx context.Context, taskNames []string, args *TaskArgs) error {
	if len(taskNames) == 0 {
		return nil
	}

	order, err := te.topologicalSort(taskNames)
	if err != nil {
		return fmt.Errorf("failed to resolve task dependencies: %w", err)
	}

	var mu sync.Mutex
	results := make(map[string]*TaskResult)
	setResult := func(name string, r *TaskResult) {
		mu.Lock()
		results[name] = r
		mu.Unlock()
	}

	pending := make(map[string]bool)
	for _, name := range order {
		pending[name] = true
	}

	for len(pending) > 0 {
		ready := te.findReadyTasks(pending, results)
		if len(ready) == 0 {
			return fmt.Errorf("circular dependency detected or no ready tasks")
		}

		interrupted := ctx.Err() != nil

		var wg sync.WaitGroup
		for _, name := range ready {
			task, exists := te.tasks[name]
			if !exists {
				delete(pending, name)
				continue
			}

			if interrupted && !task.RunOnCancel {
				setResult(name, &TaskResult{State: StateSkipped, Message: "interrupted"})
				continue
			}

			taskCtx := ctx
			if task.RunOnCancel {
				taskCtx = context.WithoutCancel(ctx)
			}

			if task.SkipIf != nil && task.SkipIf(taskCtx, te.db, args) {
				setResult(name, &TaskResult{State: StateSkipped, Message: "skipped by condition"})
				continue
			}

			wg.Add(1)
			go func(c context.Context, n string, t *Task) {
				defer wg.Done()
				setResult(n, te.executeTask(c, t, args))
			}(taskCtx, name, task)
		}

		wg.Wait()

		for _, name := range ready {
			delete(pending, name)
			result := results[name]
			if result == nil || result.Error == nil {
				continue
			}
			// 被中断的任务不算失败, 继续让 RunOnCancel 任务执行
			if ctx.Err() != nil && errors.Is(result.Error, ctx.Err()) {
				result.State = StateSkipped
				result.Message = "interrupted"
				continue
			}
			if te.tasks[name].OnError == ErrorModeStop {
				return fmt.Errorf("task %s failed: %w", name, result.Error)
			}
		}
	}

	return ctx.Err()
}

func (te *TaskExecutor) executeTask(ctx context.Context, task *Task, args *TaskArgs) *TaskResult {
	result, err := task.Executor(ctx, te.db, args)
	if err != nil {
		return &TaskResult{
			State: StateFailed,
			Error: err,
		}
	}
	if result == nil {
		return &TaskResult{State: StateCompleted}
	}
	return result
}

func (te *TaskExecutor) topologicalSort(taskNames []string) ([]string, error) {
	inDegree := make(map[string]int)
	adj := make(map[string][]string)
	taskSet := make(map[string]bool)

	for _, name := range taskNames {
		if _, exists := te.tasks[name]; !exists {
			return nil, fmt.Errorf("task %s not found", name)
		}
		taskSet[name] = true
		inDegree[name] = 0
	}

	for _, name := range taskNames {
		task := te.tasks[name]
		for _, dep := range task.DependsOn {
			if !taskSet[dep] {
				continue
			}
			adj[dep] = append(adj[dep], name)
			inDegree[name]++
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}

	var order []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		for _, neighbor := range adj[current] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(order) != len(taskNames) {
		return nil, fmt.Errorf("circular dependency detected")
	}

	return order, nil
}

func (te *TaskExecutor) findReadyTasks(pending map[string]bool, results map[string]*TaskResult) []string {
	var ready []string

	for name := range pending {
		task := te.tasks[name]

		allDepsDone := true
		for _, dep := range task.DependsOn {
			if _, inRun := te.tasks[dep]; !inRun {
				continue
			}
			if pending[dep] {
				allDepsDone = false
				break
			}
			result, exists := results[dep]
			if !exists {
				// 不在本次执行列表里的依赖
				continue
			}
			// ErrorModeSkip 任务失败后, 后续任务照常执行
			if result.State == StateFailed && te.tasks[dep].OnError != ErrorModeSkip {
				allDepsDone = false
				break
			}
		}

		if allDepsDone {
			ready = append(ready, name)
		}
	}

	return ready
}

func (te *TaskExecutor) GetTaskNames() []string {
	names := make([]string, 0, len(te.tasks))
	for name := range te.tasks {
		names = append(names, name)
	}
	return names
}

func (te *TaskExecutor) HasTask(name string) bool {
	_, exists := te.tasks[name]
	return exists
}
