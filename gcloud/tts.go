package gcloud

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/middlemost/sayit"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

// Speaking rates passed to the API.
const (
	NormalSpeakingRate = 1.0
	SlowSpeakingRate   = 0.75
)

// Ensure service implements interface.
var _ sayit.TTSService = &TTSService{}

// TTSService represents a service for performing text-to-speech with
// Google Cloud Text-to-Speech.
type TTSService struct {
	service *texttospeech.Service

	APIKey   string
	Endpoint string // optional, overrides the API base path

	LogOutput io.Writer
}

// NewTTSService returns a new instance of TTSService.
func NewTTSService() *TTSService {
	return &TTSService{LogOutput: io.Discard}
}

// Open initializes the API client.
func (s *TTSService) Open(ctx context.Context) error {
	var opts []option.ClientOption
	if s.APIKey != "" {
		opts = append(opts, option.WithAPIKey(s.APIKey))
	}
	if s.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.Endpoint))
	}

	svc, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return err
	}
	s.service = svc
	return nil
}

// Languages returns each distinct language code offered by the voice list,
// labelled with its English name.
func (s *TTSService) Languages(ctx context.Context) ([]sayit.Language, error) {
	resp, err := s.service.Voices.List().Context(ctx).Do()
	if err != nil {
		return nil, translateError(err)
	}

	var a []sayit.Language
	seen := make(map[string]struct{})
	for _, v := range resp.Voices {
		for _, code := range v.LanguageCodes {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			a = append(a, sayit.Language{Label: languageLabel(code), Code: code})
		}
	}
	fmt.Fprintf(s.LogOutput, "gcloud: languages: voices=%d n=%d\n", len(resp.Voices), len(a))

	return a, nil
}

// SynthesizeSpeech encodes text to speech.
func (s *TTSService) SynthesizeSpeech(ctx context.Context, req *sayit.ConversionRequest) (io.ReadCloser, error) {
	rate := NormalSpeakingRate
	if req.Slow {
		rate = SlowSpeakingRate
	}

	resp, err := s.service.Text.Synthesize(&texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: req.Text},
		Voice: &texttospeech.VoiceSelectionParams{LanguageCode: req.LanguageCode},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: "MP3",
			SpeakingRate:  rate,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, translateError(err)
	}

	buf, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio content: %w", err)
	}
	fmt.Fprintf(s.LogOutput, "gcloud: synthesized: lang=%s bytes=%d\n", req.LanguageCode, len(buf))

	return io.NopCloser(bytes.NewReader(buf)), nil
}

// languageLabel returns the English display name of a BCP 47 code.
// Falls back to the code if it cannot be parsed or has no name.
func languageLabel(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// translateError maps API errors to domain errors.
func translateError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch {
	case gerr.Code == http.StatusBadRequest && mentionsLanguage(gerr.Message):
		return fmt.Errorf("%w: %s", sayit.ErrLanguageRejected, gerr.Message)
	case gerr.Code == http.StatusTooManyRequests, gerr.Code >= 500:
		return fmt.Errorf("%w: %d: %s", sayit.ErrProviderUnavailable, gerr.Code, gerr.Message)
	default:
		return err
	}
}

func mentionsLanguage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "language") || strings.Contains(msg, "voice")
}
