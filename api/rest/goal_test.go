package rest_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createGoal(t *testing.T, s *apiSetup, token string, body map[string]interface{}) int64 {
	t.Helper()
	if body["startDate"] == nil {
		body["startDate"] = "2026-08-01"
	}
	if body["endDate"] == nil {
		body["endDate"] = "2026-08-31"
	}
	w := s.do(t, http.MethodPost, "/api/goals", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	goal := decode(t, w)["goal"].(map[string]interface{})
	return int64(goal["id"].(float64))
}

func TestGoalCreateValidatesWindow(t *testing.T) {
	s := newAPISetup(t)
	_, token := s.register(t, "alice")

	w := s.do(t, http.MethodPost, "/api/goals", token, map[string]interface{}{
		"title":     "backwards",
		"startDate": "2026-08-31",
		"endDate":   "2026-08-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoalActiveList(t *testing.T) {
	s := newAPISetup(t)
	_, token := s.register(t, "alice")
	createGoal(t, s, token, map[string]interface{}{"title": "august goal"})
	createGoal(t, s, token, map[string]interface{}{
		"title":     "september goal",
		"startDate": "2026-09-01",
		"endDate":   "2026-09-30",
	})

	w := s.do(t, http.MethodGet, "/api/goals?active=true&date=2026-08-15", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decode(t, w)["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "august goal", results[0].(map[string]interface{})["title"])

	w = s.do(t, http.MethodGet, "/api/goals?active=true", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoalOwnership(t *testing.T) {
	s := newAPISetup(t)
	_, tokenA := s.register(t, "alice")
	_, tokenB := s.register(t, "bob")
	id := createGoal(t, s, tokenA, map[string]interface{}{"title": "mine"})

	w := s.do(t, http.MethodPut, fmt.Sprintf("/api/goals/%d", id), tokenB, map[string]interface{}{
		"title":     "stolen",
		"startDate": "2026-08-01",
		"endDate":   "2026-08-31",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/goals/%d", id), tokenB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGoalDeleteDetachesPosts(t *testing.T) {
	s := newAPISetup(t)
	_, token := s.register(t, "alice")
	goalID := createGoal(t, s, token, map[string]interface{}{"title": "running"})
	postID := createPost(t, s, token, map[string]interface{}{"body": "day 1", "goalId": goalID})

	w := s.do(t, http.MethodDelete, fmt.Sprintf("/api/goals/%d", goalID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The post survives with the goal link cleared.
	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", postID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	post := decode(t, w)["post"].(map[string]interface{})
	assert.EqualValues(t, 0, post["goal_id"])
}

func TestGoalSearchPublicDedupedWithPostCounts(t *testing.T) {
	s := newAPISetup(t)
	_, tokenA := s.register(t, "alice")
	_, tokenB := s.register(t, "bob")

	// Two users share a title; the search collapses them to one row.
	g1 := createGoal(t, s, tokenA, map[string]interface{}{"title": "Read 12 books"})
	g2 := createGoal(t, s, tokenB, map[string]interface{}{"title": "Read 12 books"})
	createGoal(t, s, tokenB, map[string]interface{}{"title": "secret reading", "private": true})

	createPost(t, s, tokenA, map[string]interface{}{"body": "book one", "goalId": g1})
	createPost(t, s, tokenB, map[string]interface{}{"body": "book two", "goalId": g2})
	// Private posts never count toward the public tally.
	createPost(t, s, tokenB, map[string]interface{}{"body": "hidden", "goalId": g2, "private": true})

	w := s.do(t, http.MethodGet, "/api/goals/search?q=read", tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	results := resp["results"].([]interface{})
	require.Len(t, results, 1)
	row := results[0].(map[string]interface{})
	assert.Equal(t, "Read 12 books", row["title"])
	assert.EqualValues(t, g1, row["id"])
	assert.EqualValues(t, 2, row["postsCount"])
	pg := resp["pagination"].(map[string]interface{})
	assert.EqualValues(t, 1, pg["total"])

	// Wildcards in the query are literals.
	w = s.do(t, http.MethodGet, "/api/goals/search?q=%25", tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["results"].([]interface{}), 0)
}
