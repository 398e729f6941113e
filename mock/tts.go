package mock

import (
	"context"
	"io"

	"github.com/middlemost/sayit"
)

var _ sayit.TTSService = &TTSService{}

type TTSService struct {
	LanguagesFn        func(ctx context.Context) ([]sayit.Language, error)
	SynthesizeSpeechFn func(ctx context.Context, req *sayit.ConversionRequest) (io.ReadCloser, error)
}

func (s *TTSService) Languages(ctx context.Context) ([]sayit.Language, error) {
	return s.LanguagesFn(ctx)
}

func (s *TTSService) SynthesizeSpeech(ctx context.Context, req *sayit.ConversionRequest) (io.ReadCloser, error) {
	return s.SynthesizeSpeechFn(ctx, req)
}
