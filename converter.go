package sayit

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConversionService represents a service for converting text to speech.
type ConversionService interface {
	Convert(ctx context.Context, text, label string, slow bool) (*Audio, error)
}

// Ensure converter implements interface.
var _ ConversionService = &Converter{}

// Converter validates user input and turns it into speech using a provider.
// It holds no per-request state and may be used concurrently.
type Converter struct {
	Catalog    *Catalog
	TTSService TTSService

	// Returns an identifier used to correlate log lines of one conversion.
	GenerateID func() string
	Now        func() time.Time

	LogOutput io.Writer
}

// NewConverter returns a new instance of Converter.
func NewConverter(catalog *Catalog, s TTSService) *Converter {
	return &Converter{
		Catalog:    catalog,
		TTSService: s,
		GenerateID: uuid.NewString,
		Now:        time.Now,
		LogOutput:  io.Discard,
	}
}

// Convert synthesizes rawText in the language with the given display label.
//
// Every call reaches the provider; results are never reused. On failure the
// returned error is always a *Failure. Blank text returns an EmptyInput
// failure and an unknown label returns an InvalidLanguage failure, neither
// of which contacts the provider.
func (c *Converter) Convert(ctx context.Context, rawText, label string, slow bool) (*Audio, error) {
	id := c.GenerateID()

	// Validate input text.
	text := strings.TrimSpace(rawText)
	if text == "" {
		fmt.Fprintf(c.LogOutput, "convert: empty input: id=%s\n", id)
		return nil, &Failure{Kind: EmptyInput, Message: failureMessage(EmptyInput, ErrTextRequired), Err: ErrTextRequired}
	}

	// Resolve language label to provider code.
	code, err := c.Catalog.Lookup(label)
	if err != nil {
		fmt.Fprintf(c.LogOutput, "convert: unknown language: id=%s label=%q\n", id, label)
		return nil, NewFailure(err)
	}

	req := &ConversionRequest{Text: text, LanguageCode: code, Slow: slow}
	fmt.Fprintf(c.LogOutput, "convert: synthesizing: id=%s lang=%s slow=%t chars=%d\n", id, code, slow, len([]rune(text)))

	start := c.Now()
	data, err := c.synthesize(ctx, req)
	if err != nil {
		f := NewFailure(err)
		fmt.Fprintf(c.LogOutput, "convert: failed: id=%s kind=%s err=%q\n", id, f.Kind, err)
		return nil, f
	}
	fmt.Fprintf(c.LogOutput, "convert: completed: id=%s bytes=%d elapsed=%s\n", id, len(data), c.Now().Sub(start))

	return &Audio{
		Data:        data,
		ContentType: AudioContentType,
		Filename:    AudioFilename,
	}, nil
}

// synthesize calls the provider and buffers the entire audio stream.
// A panicking provider is reported as an internal error.
func (c *Converter) synthesize(ctx context.Context, req *ConversionRequest) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("%w: provider panic: %v", ErrInternal, r)
		}
	}()

	rc, err := c.TTSService.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if data, err = io.ReadAll(rc); err != nil {
		return nil, err
	} else if len(data) == 0 {
		return nil, ErrNoAudio
	}
	return data, nil
}
