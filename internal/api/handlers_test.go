package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/price-scraper/internal/database"
	"github.com/maltedev/price-scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunStore struct {
	mock.Mock
}

func (m *MockRunStore) ListRuns(ctx context.Context, limit int) ([]*database.RunRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*database.RunRecord), args.Error(1)
}

func (m *MockRunStore) GetRun(ctx context.Context, id uuid.UUID) (*database.RunRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.RunRecord), args.Error(1)
}

func (m *MockRunStore) GetRows(ctx context.Context, id uuid.UUID) ([]models.ResultRow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ResultRow), args.Error(1)
}

func (m *MockRunStore) LatestForCode(ctx context.Context, code string) ([]database.StoredRow, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.StoredRow), args.Error(1)
}

type stubBacklog struct {
	pending, dead int64
	err           error
}

func (s stubBacklog) Backlog(context.Context) (int64, int64, error) {
	return s.pending, s.dead, s.err
}

func newTestServer(t *testing.T, store RunStore, backlog Backlog) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(NewHandlers(store, backlog, logger), 5*time.Second))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		backlog    Backlog
		wantStatus int
		wantState  string
	}{
		{"no relay", nil, http.StatusOK, "ok"},
		{"empty backlog", stubBacklog{}, http.StatusOK, "ok"},
		{"many pending", stubBacklog{pending: 1001}, http.StatusOK, "warning"},
		{"dead letters", stubBacklog{pending: 2000, dead: 101}, http.StatusServiceUnavailable, "error"},
		{"backlog error", stubBacklog{err: errors.New("conn refused")}, http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, new(MockRunStore), tt.backlog)

			resp, body := get(t, srv, "/health")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var health map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &health))
			assert.Equal(t, tt.wantState, health["status"])
		})
	}
}

func TestListRuns(t *testing.T) {
	run := &database.RunRecord{ID: uuid.New(), Summary: models.Summary{Total: 5, Found: 2, NotFound: 3}}

	t.Run("default limit", func(t *testing.T) {
		store := new(MockRunStore)
		store.On("ListRuns", mock.Anything, 20).Return([]*database.RunRecord{run}, nil)
		srv := newTestServer(t, store, nil)

		resp, body := get(t, srv, "/api/v1/runs")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got []database.RunRecord
		require.NoError(t, json.Unmarshal(body, &got))
		require.Len(t, got, 1)
		assert.Equal(t, run.ID, got[0].ID)
		assert.Equal(t, run.Summary, got[0].Summary)
		store.AssertExpectations(t)
	})

	t.Run("limit is capped", func(t *testing.T) {
		store := new(MockRunStore)
		store.On("ListRuns", mock.Anything, 200).Return([]*database.RunRecord{}, nil)
		srv := newTestServer(t, store, nil)

		resp, _ := get(t, srv, "/api/v1/runs?limit=5000")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		store.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		store := new(MockRunStore)
		srv := newTestServer(t, store, nil)

		resp, _ := get(t, srv, "/api/v1/runs?limit=abc")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		store.AssertNotCalled(t, "ListRuns", mock.Anything, mock.Anything)
	})

	t.Run("store error", func(t *testing.T) {
		store := new(MockRunStore)
		store.On("ListRuns", mock.Anything, 20).Return(nil, errors.New("db down"))
		srv := newTestServer(t, store, nil)

		resp, body := get(t, srv, "/api/v1/runs")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"error":"failed to list runs"}`, string(body))
	})
}

func TestGetRun(t *testing.T) {
	id := uuid.New()
	rows := []models.ResultRow{
		{Code: "111", Store: "Plaza Vea", Available: true, Product: "Leche", PriceOnline: "S/ 4.20"},
		{Code: "111", Store: "Wong", Product: models.NotFound},
	}

	t.Run("found", func(t *testing.T) {
		store := new(MockRunStore)
		store.On("GetRun", mock.Anything, id).Return(&database.RunRecord{ID: id}, nil)
		store.On("GetRows", mock.Anything, id).Return(rows, nil)
		srv := newTestServer(t, store, nil)

		resp, body := get(t, srv, "/api/v1/runs/"+id.String())
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got struct {
			ID   uuid.UUID          `json:"id"`
			Rows []models.ResultRow `json:"rows"`
		}
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, id, got.ID)
		assert.Equal(t, rows, got.Rows)
	})

	t.Run("not found", func(t *testing.T) {
		store := new(MockRunStore)
		store.On("GetRun", mock.Anything, id).Return(nil, database.ErrRunNotFound)
		srv := newTestServer(t, store, nil)

		resp, _ := get(t, srv, "/api/v1/runs/"+id.String())
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		store.AssertNotCalled(t, "GetRows", mock.Anything, mock.Anything)
	})

	t.Run("invalid id", func(t *testing.T) {
		srv := newTestServer(t, new(MockRunStore), nil)

		resp, _ := get(t, srv, "/api/v1/runs/not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetRunRows(t *testing.T) {
	id := uuid.New()
	store := new(MockRunStore)
	store.On("GetRun", mock.Anything, id).Return(&database.RunRecord{ID: id}, nil)
	store.On("GetRows", mock.Anything, id).Return([]models.ResultRow{}, nil)
	srv := newTestServer(t, store, nil)

	resp, body := get(t, srv, "/api/v1/runs/"+id.String()+"/rows")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestGetRunCSV(t *testing.T) {
	id := uuid.New()
	store := new(MockRunStore)
	store.On("GetRun", mock.Anything, id).Return(&database.RunRecord{ID: id}, nil)
	store.On("GetRows", mock.Anything, id).Return([]models.ResultRow{
		{Code: "111", Store: "Wong", Product: models.NotFound},
	}, nil)
	srv := newTestServer(t, store, nil)

	resp, body := get(t, srv, "/api/v1/runs/"+id.String()+"/csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t,
		"Codigo,Tienda,Producto,Precio Online,Precio Regular,Precio Tarjeta\n111,Wong,NOT FOUND,,,\n",
		string(body))
}

func TestGetCodeLatest(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store := new(MockRunStore)
		store.On("LatestForCode", mock.Anything, "12345").Return([]database.StoredRow{
			{RunID: uuid.New(), ResultRow: models.ResultRow{Code: "12345", Store: "Metro", Available: true, Product: "Arroz"}},
		}, nil)
		srv := newTestServer(t, store, nil)

		resp, body := get(t, srv, "/api/v1/codes/12345/latest")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got CodeLatestResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "12345", got.Code)
		require.Len(t, got.Rows, 1)
		assert.Equal(t, "Metro", got.Rows[0].Store)
		assert.Equal(t, "Arroz", got.Rows[0].Product)
	})

	t.Run("unknown code", func(t *testing.T) {
		store := new(MockRunStore)
		store.On("LatestForCode", mock.Anything, "999").Return([]database.StoredRow{}, nil)
		srv := newTestServer(t, store, nil)

		resp, _ := get(t, srv, "/api/v1/codes/999/latest")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
