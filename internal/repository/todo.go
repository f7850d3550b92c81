package repository

import (
	"context"

	"github.com/jaekwang-park/todo-steps/internal/model"
)

// TodoRepository persists todos. Returned todos carry their steps.
// Lookups of a missing id return an error wrapping sql.ErrNoRows.
type TodoRepository interface {
	Create(ctx context.Context, todo model.Todo) (model.Todo, error)
	GetByID(ctx context.Context, todoID int64) (model.Todo, error)
	Update(ctx context.Context, todo model.Todo) (model.Todo, error)
	Delete(ctx context.Context, todoID int64) error
	List(ctx context.Context, params model.TodoListParams) ([]model.Todo, error)
}

type StepRepository interface {
	CreateStep(ctx context.Context, step model.Step) (model.Step, error)
	GetStep(ctx context.Context, stepID int64) (model.Step, error)
	UpdateStep(ctx context.Context, step model.Step) (model.Step, error)
	DeleteStep(ctx context.Context, stepID int64) error
}

// Store is the todo/step table pair.
//
// WithTx runs fn against a Store bound to a single transaction. The
// transaction is committed when fn returns nil and rolled back otherwise,
// including when fn panics. Calling WithTx on a Store that is already
// bound to a transaction reuses it.
type Store interface {
	TodoRepository
	StepRepository
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
