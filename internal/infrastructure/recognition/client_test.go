package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/auragate/parking-backend/internal/core/domain"
)

func TestExtractFeatures_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract_features" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if _, ok := req["face_images"]; !ok {
			t.Error("request missing face_images")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"face_found":  true,
			"plate_found": true,
			"embeddings":  [][]float64{{0.1, 0.2}},
			"plate_text":  "51A-12345",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zerolog.Nop())
	res, err := c.ExtractFeatures(context.Background(), []string{"img"}, "plate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FaceFound || !res.PlateFound || res.PlateText != "51A-12345" || len(res.Embeddings) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestExtractFace_NotFoundFlagPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"face_found": false, "embedding": []float64{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zerolog.Nop())
	res, err := c.ExtractFace(context.Background(), "img")
	if err != nil {
		t.Fatalf("a 200 with face_found=false is not a transport error: %v", err)
	}
	if res.FaceFound {
		t.Error("face_found must be false")
	}
}

func TestExtractPlate_Non2xxIsRecognitionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zerolog.Nop())
	_, err := c.ExtractPlate(context.Background(), "img")
	if !errors.Is(err, domain.ErrRecognitionFailed) {
		t.Fatalf("expected ErrRecognitionFailed, got %v", err)
	}
}

func TestPost_UnreachableIsRecognitionError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond, zerolog.Nop())
	_, err := c.ExtractFeatures(context.Background(), []string{"img"}, "plate")
	if !errors.Is(err, domain.ErrRecognitionFailed) {
		t.Fatalf("expected ErrRecognitionFailed, got %v", err)
	}
}

func TestPost_TimeoutIsRecognitionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, zerolog.Nop())
	_, err := c.ExtractFace(context.Background(), "img")
	if !errors.Is(err, domain.ErrRecognitionFailed) {
		t.Fatalf("expected ErrRecognitionFailed on timeout, got %v", err)
	}
}
