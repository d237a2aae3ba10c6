package client

import (
	"context"

	"github.com/menta2k/mudrik/pkg/types"
)

// VisionClient is a chat model that can read images
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	Transcribe(ctx context.Context, model, prompt, imgB64 string) (*types.Transcription, error)
}
