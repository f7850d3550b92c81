package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jaekwang-park/todo-steps/internal/model"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store on database/sql for both Postgres and SQLite.
// Queries are written with $N placeholders and rebound per driver.
type SQLStore struct {
	db     *sql.DB
	q      querier
	tx     *sql.Tx
	driver Driver
}

func NewSQLStore(db *sql.DB, driver Driver) *SQLStore {
	return &SQLStore{db: db, q: db, driver: driver}
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.inTx(ctx, func(tx *SQLStore) error {
		return fn(tx)
	})
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *SQLStore) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()

	return fn(&SQLStore{db: s.db, q: tx, tx: tx, driver: s.driver})
}

// rebind converts $N placeholders to SQLite's ?N form.
func (s *SQLStore) rebind(query string) string {
	if s.driver == DriverSQLite {
		return strings.ReplaceAll(query, "$", "?")
	}
	return query
}

const todoColumns = `id, task, status, due_date, memo`

const stepColumns = `id, todo_id, step, status`

func (s *SQLStore) Create(ctx context.Context, todo model.Todo) (model.Todo, error) {
	query := `
		INSERT INTO todos (task, status, due_date, memo)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + todoColumns

	row := s.q.QueryRowContext(ctx, s.rebind(query),
		todo.Task, todo.Status, dateArg(todo.DueDate), todo.Memo,
	)

	created, err := scanTodo(row)
	if err != nil {
		return model.Todo{}, err
	}
	created.Steps = []model.Step{}
	return created, nil
}

func (s *SQLStore) GetByID(ctx context.Context, todoID int64) (model.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`

	todo, err := scanTodo(s.q.QueryRowContext(ctx, s.rebind(query), todoID))
	if err != nil {
		return model.Todo{}, err
	}

	todos := []model.Todo{todo}
	if err := s.loadSteps(ctx, todos, ` WHERE id = $1`, todoID); err != nil {
		return model.Todo{}, err
	}
	return todos[0], nil
}

func (s *SQLStore) Update(ctx context.Context, todo model.Todo) (model.Todo, error) {
	query := `
		UPDATE todos
		SET task = $1, status = $2, due_date = $3, memo = $4
		WHERE id = $5
		RETURNING ` + todoColumns

	row := s.q.QueryRowContext(ctx, s.rebind(query),
		todo.Task, todo.Status, dateArg(todo.DueDate), todo.Memo, todo.ID,
	)

	updated, err := scanTodo(row)
	if err != nil {
		return model.Todo{}, err
	}

	todos := []model.Todo{updated}
	if err := s.loadSteps(ctx, todos, ` WHERE id = $1`, updated.ID); err != nil {
		return model.Todo{}, err
	}
	return todos[0], nil
}

// Delete removes the todo and its steps in one transaction. The foreign key
// also cascades, so deleting through any other path cannot orphan steps.
func (s *SQLStore) Delete(ctx context.Context, todoID int64) error {
	return s.inTx(ctx, func(tx *SQLStore) error {
		if _, err := tx.q.ExecContext(ctx, tx.rebind(`DELETE FROM steps WHERE todo_id = $1`), todoID); err != nil {
			return fmt.Errorf("failed to delete steps: %w", err)
		}

		result, err := tx.q.ExecContext(ctx, tx.rebind(`DELETE FROM todos WHERE id = $1`), todoID)
		if err != nil {
			return fmt.Errorf("failed to delete todo: %w", err)
		}
		return checkAffected(result)
	})
}

func (s *SQLStore) List(ctx context.Context, params model.TodoListParams) ([]model.Todo, error) {
	var (
		filter string
		args   []any
	)
	if params.Prefix != "" {
		// substr keeps the match case-sensitive on SQLite, where LIKE is not.
		filter = ` WHERE substr(task, 1, length(CAST($1 AS TEXT))) = CAST($1 AS TEXT)`
		args = append(args, params.Prefix)
	}

	query := `SELECT ` + todoColumns + ` FROM todos` + filter + ` ORDER BY due_date ASC NULLS LAST, id ASC`

	todos, err := s.queryTodos(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	if err := s.loadSteps(ctx, todos, filter, args...); err != nil {
		return nil, err
	}
	return todos, nil
}

func (s *SQLStore) queryTodos(ctx context.Context, query string, args ...any) ([]model.Todo, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}

// loadSteps fills Steps for every todo in place, in insertion order.
// filter is the WHERE clause that selected todos, so the step query binds
// the same few arguments however many todos matched.
func (s *SQLStore) loadSteps(ctx context.Context, todos []model.Todo, filter string, args ...any) error {
	if len(todos) == 0 {
		return nil
	}

	index := make(map[int64]int, len(todos))
	for i := range todos {
		todos[i].Steps = []model.Step{}
		index[todos[i].ID] = i
	}

	query := `SELECT ` + stepColumns + ` FROM steps
		WHERE todo_id IN (SELECT id FROM todos` + filter + `)
		ORDER BY id ASC`

	rows, err := s.q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return err
		}
		if i, ok := index[step.TodoID]; ok {
			todos[i].Steps = append(todos[i].Steps, step)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate steps: %w", err)
	}
	return nil
}

// CreateStep returns an error wrapping sql.ErrNoRows when the parent todo
// does not exist.
func (s *SQLStore) CreateStep(ctx context.Context, step model.Step) (model.Step, error) {
	var created model.Step
	err := s.inTx(ctx, func(tx *SQLStore) error {
		var exists int
		err := tx.q.QueryRowContext(ctx, tx.rebind(`SELECT 1 FROM todos WHERE id = $1`), step.TodoID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to find parent todo: %w", err)
		}

		query := `
			INSERT INTO steps (todo_id, step, status)
			VALUES ($1, $2, $3)
			RETURNING ` + stepColumns

		created, err = scanStep(tx.q.QueryRowContext(ctx, tx.rebind(query), step.TodoID, step.Step, step.Status))
		return err
	})
	if err != nil {
		return model.Step{}, err
	}
	return created, nil
}

func (s *SQLStore) GetStep(ctx context.Context, stepID int64) (model.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM steps WHERE id = $1`
	return scanStep(s.q.QueryRowContext(ctx, s.rebind(query), stepID))
}

func (s *SQLStore) UpdateStep(ctx context.Context, step model.Step) (model.Step, error) {
	query := `
		UPDATE steps
		SET step = $1, status = $2
		WHERE id = $3
		RETURNING ` + stepColumns

	return scanStep(s.q.QueryRowContext(ctx, s.rebind(query), step.Step, step.Status, step.ID))
}

func (s *SQLStore) DeleteStep(ctx context.Context, stepID int64) error {
	result, err := s.q.ExecContext(ctx, s.rebind(`DELETE FROM steps WHERE id = $1`), stepID)
	if err != nil {
		return fmt.Errorf("failed to delete step: %w", err)
	}
	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTodo(row scannable) (model.Todo, error) {
	var (
		t    model.Todo
		due  nullDate
		memo sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Task, &t.Status, &due, &memo); err != nil {
		return model.Todo{}, fmt.Errorf("failed to scan todo: %w", err)
	}
	if due.Valid {
		t.DueDate = &due.Date
	}
	if memo.Valid {
		t.Memo = &memo.String
	}
	return t, nil
}

func scanStep(row scannable) (model.Step, error) {
	var st model.Step
	if err := row.Scan(&st.ID, &st.TodoID, &st.Step, &st.Status); err != nil {
		return model.Step{}, fmt.Errorf("failed to scan step: %w", err)
	}
	return st, nil
}

func dateArg(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// nullDate scans a DATE column. lib/pq yields time.Time; go-sqlite3 yields
// time.Time or the stored text depending on the column's declared type.
type nullDate struct {
	Date  model.Date
	Valid bool
}

func (n *nullDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.Date, n.Valid = model.Date{}, false
		return nil
	case time.Time:
		n.Date, n.Valid = model.DateFromTime(v), true
		return nil
	case string:
		return n.scanText(v)
	case []byte:
		return n.scanText(string(v))
	default:
		return fmt.Errorf("cannot scan %T into date", src)
	}
}

func (n *nullDate) scanText(s string) error {
	if len(s) > len(model.DateLayout) {
		s = s[:len(model.DateLayout)]
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return err
	}
	n.Date, n.Valid = d, true
	return nil
}

// ensure compile-time interface compliance
var _ Store = (*SQLStore)(nil)
