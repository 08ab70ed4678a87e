package rest_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const todoDate = "2026-08-01"

func createTodo(t *testing.T, s *apiSetup, token, body string) int64 {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/todos", token, map[string]interface{}{
		"date": todoDate,
		"body": body,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	todo := decode(t, w)["todo"].(map[string]interface{})
	return int64(todo["id"].(float64))
}

func listBodies(t *testing.T, s *apiSetup, token string) []string {
	t.Helper()
	w := s.do(t, http.MethodGet, "/api/todos?date="+todoDate, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decode(t, w)["results"].([]interface{})
	bodies := make([]string, 0, len(results))
	for i, raw := range results {
		item := raw.(map[string]interface{})
		// The list is priority-ordered and the priorities are dense.
		assert.EqualValues(t, i, item["priority"])
		bodies = append(bodies, item["body"].(string))
	}
	return bodies
}

func TestTodoCreateAppends(t *testing.T) {
	s := newAPISetup(t)
	_, token := s.register(t, "alice")

	createTodo(t, s, token, "first")
	createTodo(t, s, token, "second")
	createTodo(t, s, token, "third")

	assert.Equal(t, []string{"first", "second", "third"}, listBodies(t, s, token))
}

func TestTodoDeleteCompacts(t *testing.T) {
	s := newAPISetup(t)
	_, token := s.register(t, "alice")

	createTodo(t, s, token, "first")
	second := createTodo(t, s, token, "second")
	createTodo(t, s, token, "third")

	w := s.do(t, http.MethodDelete, fmt.Sprintf("/api/todos/%d", second), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{"first", "third"}, listBodies(t, s, token))
}

func TestTodoReorder(t *testing.T) {
	s := newAPISetup(t)
	_, token := s.register(t, "alice")

	first := createTodo(t, s, token, "first")
	createTodo(t, s, token, "second")
	createTodo(t, s, token, "third")

	// Move "first" to the end.
	w := s.do(t, http.MethodPut, "/api/todos/priority/"+todoDate, token, map[string]interface{}{
		"todoId":   first,
		"priority": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"second", "third", "first"}, listBodies(t, s, token))

	// And back to the front.
	w = s.do(t, http.MethodPut, "/api/todos/priority/"+todoDate, token, map[string]interface{}{
		"todoId":   first,
		"priority": 0,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"first", "second", "third"}, listBodies(t, s, token))
}

func TestTodoReorderOutOfRange(t *testing.T) {
	s := newAPISetup(t)
	_, token := s.register(t, "alice")
	first := createTodo(t, s, token, "first")

	w := s.do(t, http.MethodPut, "/api/todos/priority/"+todoDate, token, map[string]interface{}{
		"todoId":   first,
		"priority": 5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTodoUpdateAndOwnership(t *testing.T) {
	s := newAPISetup(t)
	_, token := s.register(t, "alice")
	id := createTodo(t, s, token, "write tests")

	w := s.do(t, http.MethodPut, fmt.Sprintf("/api/todos/%d", id), token, map[string]interface{}{
		"done": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/todos?date="+todoDate, token, nil)
	item := decode(t, w)["results"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, true, item["done"])

	_, other := s.register(t, "bob")
	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/todos/%d", id), other, map[string]interface{}{
		"done": false,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
