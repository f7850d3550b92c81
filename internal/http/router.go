package http

import (
	"net/http"

	"github.com/jaekwang-park/todo-steps/internal/http/handler"
	"github.com/jaekwang-park/todo-steps/internal/service"
)

func NewRouter(todoSvc *service.TodoService) http.Handler {
	mux := http.NewServeMux()

	// route registers h for method on path. Other methods on the same path
	// fall through to the less specific method-less pattern.
	route := func(method, path string, h http.HandlerFunc) {
		mux.HandleFunc(method+" "+path, h)
		allowed := []string{method}
		if method == http.MethodGet {
			allowed = append(allowed, http.MethodHead)
		}
		mux.HandleFunc(path, handler.MethodNotAllowed(allowed...))
	}

	// Health check for load balancer probes
	health := handler.NewHealthHandler()
	mux.Handle("/health", health)

	todos := handler.NewTodoHandler(todoSvc)
	route(http.MethodGet, "/{$}", todos.List)
	route(http.MethodPost, "/add", todos.Create)
	route(http.MethodPut, "/update/{todo_id}", todos.Update)
	route(http.MethodDelete, "/delete/{todo_id}", todos.Delete)
	route(http.MethodGet, "/search", todos.Search)

	// Steps
	route(http.MethodPost, "/add/steps/{todo_id}", todos.AddStep)
	route(http.MethodPut, "/update/steps/{step_id}", todos.UpdateStep)
	route(http.MethodDelete, "/delete/steps/{step_id}", todos.DeleteStep)

	mux.HandleFunc("/", handler.NotFound)

	return mux
}
