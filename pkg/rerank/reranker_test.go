package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestScoreMapsByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Query != "spicy soup" || len(req.Candidates) != 3 {
			t.Errorf("request = %+v", req)
		}
		// Out-of-order response; scores must land on candidate index.
		w.Write([]byte(`{"ranking": [{"id": "2", "score": 0.9}, {"id": "0", "score": 0.1}, {"id": "1", "score": 0.5}]}`))
	}))
	defer server.Close()

	scores, err := NewHTTPReranker(server.URL).Score(context.Background(), "spicy soup", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	want := []float64{0.1, 0.5, 0.9}
	for i := range want {
		if scores[i] != want[i] {
			t.Errorf("scores[%d] = %v, want %v", i, scores[i], want[i])
		}
	}
}

func TestScoreEmptyCandidates(t *testing.T) {
	scores, err := NewHTTPReranker("http://127.0.0.1:1").Score(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if scores != nil {
		t.Errorf("scores = %v, want nil", scores)
	}
}

func TestScoreRejectsBadResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"count mismatch", `{"ranking": [{"id": "0", "score": 1}]}`, http.StatusOK},
		{"unknown id", `{"ranking": [{"id": "7", "score": 1}, {"id": "0", "score": 0}]}`, http.StatusOK},
		{"non-numeric id", `{"ranking": [{"id": "x", "score": 1}, {"id": "0", "score": 0}]}`, http.StatusOK},
		{"server error", ``, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewHTTPReranker(server.URL).Score(context.Background(), "q", []string{"a", "b"})
			if err == nil {
				t.Error("Score() accepted a bad response")
			}
		})
	}
}
