package sayit

import (
	"context"
	"io"
)

// Audio content settings.
const (
	AudioContentType = "audio/mpeg"
	AudioFilename    = "speech.mp3"
)

// ConversionRequest is a validated request passed to a synthesis provider.
type ConversionRequest struct {
	Text         string
	LanguageCode string
	Slow         bool
}

// Audio represents synthesized speech.
type Audio struct {
	Data        []byte
	ContentType string
	Filename    string
}

// TTSService represents a text-to-speech provider.
type TTSService interface {
	// Languages returns the languages supported by the provider.
	Languages(ctx context.Context) ([]Language, error)

	// SynthesizeSpeech returns an MP3 stream of the spoken text.
	// The caller must close the reader.
	SynthesizeSpeech(ctx context.Context, req *ConversionRequest) (io.ReadCloser, error)
}

// LoadCatalog fetches the provider's languages and builds a catalog.
// Any error is reported as a ProviderUnavailable failure.
func LoadCatalog(ctx context.Context, s TTSService) (*Catalog, error) {
	entries, err := s.Languages(ctx)
	if err != nil {
		return nil, &Failure{
			Kind:    ProviderUnavailable,
			Message: failureMessage(ProviderUnavailable, err),
			Err:     err,
		}
	}
	return NewCatalog(entries), nil
}
