package mock

import (
	"context"

	"github.com/middlemost/sayit"
)

var _ sayit.ConversionService = &ConversionService{}

type ConversionService struct {
	ConvertFn func(ctx context.Context, text, label string, slow bool) (*sayit.Audio, error)
}

func (s *ConversionService) Convert(ctx context.Context, text, label string, slow bool) (*sayit.Audio, error) {
	return s.ConvertFn(ctx, text, label, slow)
}
