package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func embedHandler(t *testing.T, dims int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		resp := embeddingResponse{}
		for i := range req.Input {
			vec := make([]float32, dims)
			vec[i%dims] = float32(i + 1)
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: vec})
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestEmbed(t *testing.T) {
	srv := newTestServer(t, embedHandler(t, 4))
	client := NewClient(Config{BaseURL: srv.URL + "/v1", Model: "test-model", Dimensions: 4})

	vec, err := client.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 4 {
		t.Errorf("expected 4 dims, got %d", len(vec))
	}
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	srv := newTestServer(t, embedHandler(t, 4))
	client := NewClient(Config{BaseURL: srv.URL + "/v1", Dimensions: 4})

	vecs, err := client.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
	want := [][]float32{
		{1, 0, 0, 0},
		{0, 2, 0, 0},
		{0, 0, 3, 0},
	}
	if !reflect.DeepEqual(vecs, want) {
		t.Errorf("vectors = %v, want %v", vecs, want)
	}
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://unused", Dimensions: 4})
	vecs, err := client.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if vecs != nil {
		t.Errorf("expected nil for empty input, got %v", vecs)
	}
}

func TestEmbedSendsAuthHeader(t *testing.T) {
	var auth string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		embedHandler(t, 4)(w, r)
	})
	client := NewClient(Config{BaseURL: srv.URL + "/v1", APIKey: "secret", Dimensions: 4})

	if _, err := client.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestEmbedRejectsWrongDimension(t *testing.T) {
	srv := newTestServer(t, embedHandler(t, 4))
	client := NewClient(Config{BaseURL: srv.URL + "/v1", Dimensions: 8})

	if _, err := client.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestEmbedSurfacesServerError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	})
	client := NewClient(Config{BaseURL: srv.URL + "/v1", Dimensions: 4})

	if _, err := client.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{})
	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q", client.baseURL)
	}
	if client.model != DefaultModel {
		t.Errorf("model = %q", client.model)
	}
	if client.Dimensions() != DefaultDimensions {
		t.Errorf("dimensions = %d", client.Dimensions())
	}
}
