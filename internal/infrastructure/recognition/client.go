// Package recognition is the HTTP client for the external feature-extraction
// service. It only transports base64 images and interprets JSON responses;
// no computer vision happens here.
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/auragate/parking-backend/internal/core/domain"
	"github.com/auragate/parking-backend/internal/core/ports"
)

const defaultTimeout = 30 * time.Second

// Client talks to the extraction service's three endpoints. Any transport
// failure or non-2xx response is reported as a wrapped
// domain.ErrRecognitionFailed so callers never see raw transport errors.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type extractFeaturesRequest struct {
	FaceImages []string `json:"face_images"`
	PlateImage string   `json:"plate_image"`
}

type extractFeaturesResponse struct {
	FaceFound  bool        `json:"face_found"`
	PlateFound bool        `json:"plate_found"`
	Embeddings [][]float64 `json:"embeddings"`
	PlateText  string      `json:"plate_text"`
}

type extractFaceRequest struct {
	FaceImage string `json:"face_image"`
}

type extractFaceResponse struct {
	FaceFound bool      `json:"face_found"`
	Embedding []float64 `json:"embedding"`
}

type extractPlateRequest struct {
	PlateImage string `json:"plate_image"`
}

type extractPlateResponse struct {
	PlateFound bool   `json:"plate_found"`
	PlateText  string `json:"plate_text"`
}

// ExtractFeatures sends all face images plus the plate image in one call.
func (c *Client) ExtractFeatures(ctx context.Context, faceImages []string, plateImage string) (*ports.FeatureResult, error) {
	var resp extractFeaturesResponse
	if err := c.post(ctx, "/extract_features", extractFeaturesRequest{FaceImages: faceImages, PlateImage: plateImage}, &resp); err != nil {
		return nil, err
	}
	return &ports.FeatureResult{
		FaceFound:  resp.FaceFound,
		PlateFound: resp.PlateFound,
		Embeddings: resp.Embeddings,
		PlateText:  resp.PlateText,
	}, nil
}

// ExtractFace sends a single face image.
func (c *Client) ExtractFace(ctx context.Context, faceImage string) (*ports.FaceResult, error) {
	var resp extractFaceResponse
	if err := c.post(ctx, "/extract_face", extractFaceRequest{FaceImage: faceImage}, &resp); err != nil {
		return nil, err
	}
	return &ports.FaceResult{FaceFound: resp.FaceFound, Embedding: resp.Embedding}, nil
}

// ExtractPlate sends a single plate image.
func (c *Client) ExtractPlate(ctx context.Context, plateImage string) (*ports.PlateResult, error) {
	var resp extractPlateResponse
	if err := c.post(ctx, "/extract_plate", extractPlateRequest{PlateImage: plateImage}, &resp); err != nil {
		return nil, err
	}
	return &ports.PlateResult{PlateFound: resp.PlateFound, PlateText: resp.PlateText}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("recognition %s: encode request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("recognition %s: build request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", path).Msg("extraction service unreachable")
		return fmt.Errorf("recognition %s: %v: %w", path, err, domain.ErrRecognitionFailed)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.logger.Warn().Int("status", res.StatusCode).Str("endpoint", path).Msg("extraction service error")
		return fmt.Errorf("recognition %s: status %d: %w", path, res.StatusCode, domain.ErrRecognitionFailed)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("recognition %s: decode response: %w", path, domain.ErrRecognitionFailed)
	}
	return nil
}
