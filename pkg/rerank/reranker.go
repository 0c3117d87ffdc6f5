package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Reranker scores candidate texts against a query with a cross-encoder.
// Higher scores are more relevant. Scores are returned in candidate order.
type Reranker interface {
	Score(ctx context.Context, query string, candidates []string) ([]float64, error)
}

// HTTPReranker posts a JSON payload to an external cross-encoder service.
// Expected request body:
// {"query":"...","candidates":[{"id":"0","text":"..."}]}
// Expected response body:
// {"ranking":[{"id":"0","score":0.9}]}
type HTTPReranker struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPReranker(endpoint string) *HTTPReranker {
	return &HTTPReranker{
		Endpoint: endpoint,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type rerankReq struct {
	Query      string            `json:"query"`
	Candidates []rerankCandidate `json:"candidates"`
}

type rerankCandidate struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type rerankResp struct {
	Ranking []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	} `json:"ranking"`
}

func (h *HTTPReranker) Score(ctx context.Context, query string, candidates []string) ([]float64, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	req := rerankReq{Query: query}
	req.Candidates = make([]rerankCandidate, len(candidates))
	for i, text := range candidates {
		req.Candidates[i] = rerankCandidate{ID: strconv.Itoa(i), Text: text}
	}

	bs, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reranker returned status %d", resp.StatusCode)
	}

	var rr rerankResp
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}
	if len(rr.Ranking) != len(candidates) {
		return nil, fmt.Errorf("reranker returned %d scores for %d candidates", len(rr.Ranking), len(candidates))
	}

	scores := make([]float64, len(candidates))
	for _, r := range rr.Ranking {
		idx, err := strconv.Atoi(r.ID)
		if err != nil || idx < 0 || idx >= len(candidates) {
			return nil, fmt.Errorf("reranker returned unknown candidate id %q", r.ID)
		}
		scores[idx] = r.Score
	}
	return scores, nil
}
