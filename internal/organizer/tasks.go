package organizer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"google.golang.org/api/option"
	tasksapi "google.golang.org/api/tasks/v1"
)

// tasklistTitle is the dedicated list all captured tasks are filed into.
const tasklistTitle = "Second Brain"

type TasksService struct {
	svc *tasksapi.Service

	mu         sync.Mutex
	tasklistID string
}

func NewTasks(ctx context.Context, credentialsPath string) (*TasksService, error) {
	httpClient, err := newGoogleClient(ctx, credentialsPath)
	if err != nil {
		return nil, err
	}
	svc, err := tasksapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create tasks service: %w", err)
	}
	return &TasksService{svc: svc}, nil
}

// ensureTasklist finds or creates the tasklist and caches its ID.
// Find-then-create is not atomic across processes; a concurrent first run
// can leave a duplicate list, which is accepted here.
func (t *TasksService) ensureTasklist(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tasklistID != "" {
		return t.tasklistID, nil
	}

	lists, err := t.svc.Tasklists.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list tasklists: %w", err)
	}
	for _, tl := range lists.Items {
		if tl.Title == tasklistTitle {
			t.tasklistID = tl.Id
			log.Printf("Found existing tasklist: %s", t.tasklistID)
			return t.tasklistID, nil
		}
	}

	created, err := t.svc.Tasklists.Insert(&tasksapi.TaskList{Title: tasklistTitle}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create tasklist: %w", err)
	}
	t.tasklistID = created.Id
	log.Printf("Created new tasklist: %s", t.tasklistID)
	return t.tasklistID, nil
}

// CreateTask files a task, optionally with a YYYY-MM-DD due date
// (converted to the RFC 3339 form the API requires).
func (t *TasksService) CreateTask(ctx context.Context, title, notes, dueDate string) error {
	tasklistID, err := t.ensureTasklist(ctx)
	if err != nil {
		return err
	}

	task := &tasksapi.Task{Title: title, Notes: notes}
	if dueDate != "" {
		if len(dueDate) == 10 {
			task.Due = dueDate + "T00:00:00Z"
		} else {
			task.Due = dueDate
		}
	}

	created, err := t.svc.Tasks.Insert(tasklistID, task).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	log.Printf("Created task: %s", created.Id)
	return nil
}
