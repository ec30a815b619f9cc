package interfaces

import "context"

// ImagePart is one inline image sent to a vision model
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// VisionRequest is a provider-agnostic multimodal prompt
type VisionRequest struct {
	Prompt string
	Images []ImagePart
	JSON   bool // Ask the provider for a JSON response body
}

// VisionModel generates text from a prompt plus images
type VisionModel interface {
	// Name identifies the model in logs and errors
	Name() string
	// Generate returns the raw response text
	Generate(ctx context.Context, req *VisionRequest) (string, error)
}
