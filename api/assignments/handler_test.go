package assignments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kilianp07/warehouse-sim/core/dispatch/logging"
	"github.com/kilianp07/warehouse-sim/core/model"
)

type memStore struct {
	recs []logging.AssignmentRecord
	err  error
}

func (m *memStore) Append(_ context.Context, recs ...logging.AssignmentRecord) error {
	m.recs = append(m.recs, recs...)
	return nil
}

func (m *memStore) Query(_ context.Context, q logging.Query) ([]logging.AssignmentRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var res []logging.AssignmentRecord
	for _, r := range m.recs {
		if !q.Match(r) {
			continue
		}
		if q.Limit > 0 && len(res) >= q.Limit {
			break
		}
		res = append(res, r)
	}
	return res, nil
}

func (m *memStore) Close() error { return nil }

func seeded(t *testing.T) *memStore {
	t.Helper()
	store := &memStore{}
	now := time.Now()
	a := model.TaskAssignment{Agent: "a_1", Path: []model.NodeID{{Row: 0, Col: 0}, {Row: 0, Col: 1}}, Cost: 1}
	b := model.TaskAssignment{Agent: "a_2", Path: []model.NodeID{{Row: 1, Col: 1}}}
	if err := store.Append(context.Background(),
		logging.NewRecord("r1", "si_a10_atm", 0, a, now),
		logging.NewRecord("r1", "si_a10_atm", 1, b, now),
		logging.NewRecord("r2", "se_a10_atm", 0, a, now),
	); err != nil {
		t.Fatalf("append: %v", err)
	}
	return store
}

func TestHandler_AuthAndFilters(t *testing.T) {
	h := NewHandler(seeded(t), "tok")

	req := httptest.NewRequest("GET", Path+"?agent=a_1", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []logging.AssignmentRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Path[1] != (model.NodeID{Row: 0, Col: 1}) {
		t.Fatalf("unexpected path %v", out[0].Path)
	}

	// unauthorized
	req = httptest.NewRequest("GET", Path, nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestHandler_Queries(t *testing.T) {
	mux := NewMux(seeded(t), "")
	cases := []struct {
		query string
		code  int
		n     int
	}{
		{"", http.StatusOK, 3},
		{"?run_id=r1", http.StatusOK, 2},
		{"?scenario=se_a10_atm", http.StatusOK, 1},
		{"?run_id=r1&limit=1", http.StatusOK, 1},
		{"?run_id=none", http.StatusOK, 0},
		{"?limit=x", http.StatusBadRequest, -1},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest("GET", Path+c.query, nil))
		if rr.Code != c.code {
			t.Fatalf("%q: status %d", c.query, rr.Code)
		}
		if c.n < 0 {
			continue
		}
		var out []logging.AssignmentRecord
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			t.Fatalf("%q: unmarshal: %v", c.query, err)
		}
		if len(out) != c.n {
			t.Fatalf("%q: expected %d records, got %d", c.query, c.n, len(out))
		}
	}
}

func TestHandler_Errors(t *testing.T) {
	h := NewHandler(&memStore{err: errors.New("boom")}, "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", Path, nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", Path, nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rr.Code)
	}
}
