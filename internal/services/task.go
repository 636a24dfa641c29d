package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labmesh/labmesh-api/internal/database"
	"github.com/labmesh/labmesh-api/internal/models"
)

var ErrTaskNotFound = errors.New("task not found")

type TaskService struct {
	db *database.DB
}

func NewTaskService(db *database.DB) *TaskService {
	return &TaskService{db: db}
}

const taskColumns = `id, project_id, title, description, status, assignee_id, position, created_by, created_at, updated_at`

func scanTask(row pgx.Row, t *models.Task) error {
	return row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status,
		&t.AssigneeID, &t.Position, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
}

// Create appends the task at the end of the project's ordering; the position
// is computed inside the INSERT. Concurrent creates may still tie on position
// under READ COMMITTED; listings break ties on created_at.
func (s *TaskService) Create(ctx context.Context, projectID uuid.UUID, title, description string, assigneeID *uuid.UUID, createdBy uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := scanTask(s.db.Pool.QueryRow(ctx, `
		INSERT INTO tasks (project_id, title, description, status, assignee_id, position, created_by)
		SELECT $1, $2, $3, $4, $5, COALESCE(MAX(position) + 1, 0), $6
		FROM tasks WHERE project_id = $1
		RETURNING `+taskColumns+`
	`, projectID, title, description, models.TaskStatusTodo, assigneeID, createdBy), &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) GetByID(ctx context.Context, projectID, taskID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := scanTask(s.db.Pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE id = $1 AND project_id = $2
	`, taskID, projectID), &task)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) List(ctx context.Context, projectID uuid.UUID) ([]models.Task, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE project_id = $1
		ORDER BY position, created_at
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		if err := scanTask(rows, &task); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Update changes only the supplied fields; nil leaves a field untouched.
// clearAssignee unassigns explicitly since nil already means "no change".
func (s *TaskService) Update(ctx context.Context, projectID, taskID uuid.UUID, title, description, status *string, assigneeID *uuid.UUID, clearAssignee bool, position *int) (*models.Task, error) {
	var task models.Task
	err := scanTask(s.db.Pool.QueryRow(ctx, `
		UPDATE tasks SET
			title = COALESCE($1, title),
			description = COALESCE($2, description),
			status = COALESCE($3, status),
			assignee_id = CASE WHEN $4 THEN NULL ELSE COALESCE($5, assignee_id) END,
			position = COALESCE($6, position),
			updated_at = NOW()
		WHERE id = $7 AND project_id = $8
		RETURNING `+taskColumns+`
	`, title, description, status, clearAssignee, assigneeID, position, taskID, projectID), &task)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) Delete(ctx context.Context, projectID, taskID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM tasks WHERE id = $1 AND project_id = $2
	`, taskID, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}
