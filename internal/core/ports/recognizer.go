package ports

import "context"

// FeatureResult is the combined face+plate extraction response.
type FeatureResult struct {
	FaceFound  bool
	PlateFound bool
	Embeddings [][]float64
	PlateText  string
}

// FaceResult is the single-face extraction response.
type FaceResult struct {
	FaceFound bool
	Embedding []float64
}

// PlateResult is the single-plate extraction response.
type PlateResult struct {
	PlateFound bool
	PlateText  string
}

// Recognizer is the external feature-extraction service. Implementations
// transport base64 images and interpret JSON; no computer vision happens in
// this system. Any transport or non-2xx failure surfaces as a wrapped
// domain.ErrRecognitionFailed.
type Recognizer interface {
	ExtractFeatures(ctx context.Context, faceImages []string, plateImage string) (*FeatureResult, error)
	ExtractFace(ctx context.Context, faceImage string) (*FaceResult, error)
	ExtractPlate(ctx context.Context, plateImage string) (*PlateResult, error)
}
