package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jaekwang-park/todo-steps/internal/model"
	"github.com/jaekwang-park/todo-steps/internal/repository"
)

type CreateTodoInput struct {
	Task string
}

// UpdateTodoInput carries a partial update. Nil pointers and unset
// Optionals leave the stored value untouched; an Optional set to null
// clears DueDate or Memo.
type UpdateTodoInput struct {
	Task    *string
	Status  *bool
	DueDate model.Optional[string] // YYYY-MM-DD
	Memo    model.Optional[string]
}

type AddStepInput struct {
	Step string
}

type UpdateStepInput struct {
	Step   *string
	Status *bool
}

// StepResult is the parent todo of a step operation and its current steps.
type StepResult struct {
	Todo  model.Todo
	Steps []model.Step
}

type TodoService struct {
	repo repository.Store
}

func NewTodoService(repo repository.Store) *TodoService {
	return &TodoService{repo: repo}
}

// List reads todos and their steps in one transaction so both come from
// the same snapshot.
func (s *TodoService) List(ctx context.Context) ([]model.Todo, error) {
	var todos []model.Todo
	err := s.repo.WithTx(ctx, func(tx repository.Store) error {
		var err error
		todos, err = listAll(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return todos, nil
}

// Create adds a todo with default status, due date and memo and returns
// the full list.
func (s *TodoService) Create(ctx context.Context, input CreateTodoInput) ([]model.Todo, error) {
	if err := validateText("task", input.Task, model.MaxTaskLength); err != nil {
		return nil, err
	}

	var todos []model.Todo
	err := s.repo.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Create(ctx, model.Todo{Task: input.Task}); err != nil {
			return fmt.Errorf("failed to create todo: %w", err)
		}

		var err error
		todos, err = listAll(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return todos, nil
}

func (s *TodoService) Update(ctx context.Context, todoID int64, input UpdateTodoInput) ([]model.Todo, error) {
	patch, err := input.patch()
	if err != nil {
		return nil, err
	}

	var todos []model.Todo
	err = s.repo.WithTx(ctx, func(tx repository.Store) error {
		existing, err := tx.GetByID(ctx, todoID)
		if err != nil {
			return mapRepoError(err, ErrTodoNotFound, "get todo for update")
		}

		patch.apply(&existing)

		if _, err := tx.Update(ctx, existing); err != nil {
			return mapRepoError(err, ErrTodoNotFound, "update todo")
		}

		todos, err = listAll(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return todos, nil
}

// Delete removes the todo together with its steps and returns the
// remaining list.
func (s *TodoService) Delete(ctx context.Context, todoID int64) ([]model.Todo, error) {
	var todos []model.Todo
	err := s.repo.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Delete(ctx, todoID); err != nil {
			return mapRepoError(err, ErrTodoNotFound, "delete todo")
		}

		var err error
		todos, err = listAll(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return todos, nil
}

func (s *TodoService) AddStep(ctx context.Context, todoID int64, input AddStepInput) (model.Step, error) {
	if err := validateText("step", input.Step, model.MaxStepLength); err != nil {
		return model.Step{}, err
	}

	step, err := s.repo.CreateStep(ctx, model.Step{TodoID: todoID, Step: input.Step})
	if err != nil {
		return model.Step{}, mapRepoError(err, ErrTodoNotFound, "create step")
	}
	return step, nil
}

func (s *TodoService) UpdateStep(ctx context.Context, stepID int64, input UpdateStepInput) (StepResult, error) {
	if input.Step != nil {
		if err := validateText("step", *input.Step, model.MaxStepLength); err != nil {
			return StepResult{}, err
		}
	}

	var result StepResult
	err := s.repo.WithTx(ctx, func(tx repository.Store) error {
		step, err := tx.GetStep(ctx, stepID)
		if err != nil {
			return mapRepoError(err, ErrStepNotFound, "get step for update")
		}

		if input.Step != nil {
			step.Step = *input.Step
		}
		if input.Status != nil {
			step.Status = *input.Status
		}

		if _, err := tx.UpdateStep(ctx, step); err != nil {
			return mapRepoError(err, ErrStepNotFound, "update step")
		}

		result, err = stepResult(ctx, tx, step.TodoID)
		return err
	})
	if err != nil {
		return StepResult{}, err
	}
	return result, nil
}

func (s *TodoService) DeleteStep(ctx context.Context, stepID int64) (StepResult, error) {
	var result StepResult
	err := s.repo.WithTx(ctx, func(tx repository.Store) error {
		step, err := tx.GetStep(ctx, stepID)
		if err != nil {
			return mapRepoError(err, ErrStepNotFound, "get step for delete")
		}

		if err := tx.DeleteStep(ctx, stepID); err != nil {
			return mapRepoError(err, ErrStepNotFound, "delete step")
		}

		result, err = stepResult(ctx, tx, step.TodoID)
		return err
	})
	if err != nil {
		return StepResult{}, err
	}
	return result, nil
}

// Search returns todos whose task starts with prefix. No match is an
// empty list, not an error.
func (s *TodoService) Search(ctx context.Context, prefix string) ([]model.Todo, error) {
	if prefix == "" {
		return nil, fmt.Errorf("%w: search_term is required", ErrInvalidInput)
	}

	var todos []model.Todo
	err := s.repo.WithTx(ctx, func(tx repository.Store) error {
		var err error
		todos, err = tx.List(ctx, model.TodoListParams{Prefix: prefix})
		if err != nil {
			return fmt.Errorf("failed to search todos: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return todos, nil
}

func listAll(ctx context.Context, repo repository.TodoRepository) ([]model.Todo, error) {
	todos, err := repo.List(ctx, model.TodoListParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

func stepResult(ctx context.Context, repo repository.TodoRepository, todoID int64) (StepResult, error) {
	todo, err := repo.GetByID(ctx, todoID)
	if err != nil {
		return StepResult{}, fmt.Errorf("failed to get parent todo: %w", err)
	}
	return StepResult{Todo: todo, Steps: todo.Steps}, nil
}

type todoPatch struct {
	task    *string
	status  *bool
	dueDate model.Optional[model.Date]
	memo    model.Optional[string]
}

// patch validates the input and parses the due date.
func (in UpdateTodoInput) patch() (todoPatch, error) {
	p := todoPatch{task: in.Task, status: in.Status, memo: in.Memo}

	if in.Task != nil {
		if err := validateText("task", *in.Task, model.MaxTaskLength); err != nil {
			return todoPatch{}, err
		}
	}

	if in.Memo.Value != nil && utf8.RuneCountInString(*in.Memo.Value) > model.MaxMemoLength {
		return todoPatch{}, fmt.Errorf("%w: memo must be at most %d characters", ErrInvalidInput, model.MaxMemoLength)
	}

	if in.DueDate.Set {
		p.dueDate = model.Null[model.Date]()
		if in.DueDate.Value != nil {
			d, err := model.ParseDate(*in.DueDate.Value)
			if err != nil {
				return todoPatch{}, fmt.Errorf("%w: due_date: %v", ErrInvalidInput, err)
			}
			p.dueDate = model.Some(d)
		}
	}

	return p, nil
}

func (p todoPatch) apply(t *model.Todo) {
	if p.task != nil {
		t.Task = *p.task
	}
	if p.status != nil {
		t.Status = *p.status
	}
	if p.dueDate.Set {
		t.DueDate = p.dueDate.Value
	}
	if p.memo.Set {
		t.Memo = p.memo.Value
	}
}

func validateText(field, value string, maxLen int) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	if utf8.RuneCountInString(value) > maxLen {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, field, maxLen)
	}
	return nil
}

// mapRepoError turns a missing row into notFound and wraps anything else.
func mapRepoError(err, notFound error, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
