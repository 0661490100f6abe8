package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/peerquest-lab/backend/pkg/errorx"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type echoResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newEchoRouter() *Router {
	r := New(context.Background())
	POST(r, "/echo", func(ctx context.Context, req *echoRequest) (*echoResponse, error) {
		if req.Name == "fail" {
			return nil, errorx.New(errorx.Conflict, "Cannot echo")
		}

		return &echoResponse{Name: req.Name, Count: req.Count}, nil
	})
	GET(r, "/query", func(ctx context.Context, req *echoRequest) (*echoResponse, error) {
		return &echoResponse{Name: req.Name, Count: req.Count}, nil
	})

	return r
}

func TestRouter_postBody(t *testing.T) {
	r := newEchoRouter()

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"a","count":3}`))
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data echoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "a", body.Data.Name)
	require.Equal(t, 3, body.Data.Count)
}

func TestRouter_queryParams(t *testing.T) {
	r := newEchoRouter()

	req := httptest.NewRequest(http.MethodGet, "/query?name=b&count=7", nil)
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data echoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "b", body.Data.Name)
	require.Equal(t, 7, body.Data.Count)
}

func TestRouter_errorMapping(t *testing.T) {
	r := newEchoRouter()

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"fail"}`))
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "Cannot echo")
}

func TestRouter_methodMismatch(t *testing.T) {
	r := newEchoRouter()

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_middlewareAborts(t *testing.T) {
	r := newEchoRouter()
	r.Before(func(ctx context.Context, req *http.Request) (context.Context, error) {
		if req.Header.Get("X-User-Id") == "" {
			return nil, errorx.New(errorx.Unauthenticated, "Not found user id")
		}

		return ctx, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
