package aws

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/polly"
	"github.com/middlemost/sayit"
	"golang.org/x/sync/errgroup"
)

// MaxCharactersPerRequest is the maximum number of characters allowed by Polly.
const MaxCharactersPerRequest = 1500

// Ensure service implements interface.
var _ sayit.TTSService = &TTSService{}

// TTSService represents a service for performing text-to-speech with Amazon Polly.
type TTSService struct {
	Session   *Session
	LogOutput io.Writer
}

// NewTTSService returns a new instance of TTSService.
func NewTTSService() *TTSService {
	return &TTSService{
		LogOutput: io.Discard,
	}
}

// Languages returns the distinct languages of all Polly voices.
func (s *TTSService) Languages(ctx context.Context) ([]sayit.Language, error) {
	svc := polly.New(s.Session.session)

	var a []sayit.Language
	seen := make(map[sayit.Language]struct{})
	input := &polly.DescribeVoicesInput{}
	for {
		out, err := svc.DescribeVoicesWithContext(ctx, input)
		if err != nil {
			return nil, translateError(err)
		}

		for _, v := range out.Voices {
			lang := sayit.Language{Label: aws.StringValue(v.LanguageName), Code: aws.StringValue(v.LanguageCode)}
			if _, ok := seen[lang]; ok {
				continue
			}
			seen[lang] = struct{}{}
			a = append(a, lang)
		}

		if aws.StringValue(out.NextToken) == "" {
			break
		}
		input.NextToken = out.NextToken
	}
	fmt.Fprintf(s.LogOutput, "polly: languages: n=%d\n", len(a))

	return a, nil
}

// SynthesizeSpeech encodes text to speech.
func (s *TTSService) SynthesizeSpeech(ctx context.Context, req *sayit.ConversionRequest) (io.ReadCloser, error) {
	svc := polly.New(s.Session.session)

	// Find a voice that speaks the language.
	v, err := s.findVoice(ctx, svc, req.LanguageCode)
	if err != nil {
		return nil, err
	}

	// Split into chunks.
	chunks := splitTextOnParagraphs(req.Text, MaxCharactersPerRequest)

	// Synthesize chunks in parallel.
	parts := make([][]byte, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		fmt.Fprintf(s.LogOutput, "polly: synthesizing chunk: index=%d, len=%d, voice=%s\n", i, len(chunk), v.id)

		i, chunk := i, chunk // per-iteration copies (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			buf, err := s.synthesizeChunk(ctx, svc, v, req.LanguageCode, chunk, req.Slow)
			parts[i] = buf
			return err
		})
	}

	// Wait for the chunks to complete.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Combine chunks. MP3 frames can be concatenated as-is.
	return io.NopCloser(bytes.NewReader(bytes.Join(parts, nil))), nil
}

// voice is a Polly voice id and the engine used to drive it.
type voice struct {
	id     string
	engine string
}

// findVoice returns the first voice for a language code.
// Voices supporting the standard engine are preferred.
func (s *TTSService) findVoice(ctx context.Context, svc *polly.Polly, code string) (voice, error) {
	out, err := svc.DescribeVoicesWithContext(ctx, &polly.DescribeVoicesInput{LanguageCode: aws.String(code)})
	if err != nil {
		return voice{}, translateError(err)
	}

	var fallback *voice
	for _, v := range out.Voices {
		engines := aws.StringValueSlice(v.SupportedEngines)
		for _, engine := range engines {
			if engine == polly.EngineStandard {
				return voice{id: aws.StringValue(v.Id), engine: engine}, nil
			}
		}
		if fallback == nil && len(engines) > 0 {
			fallback = &voice{id: aws.StringValue(v.Id), engine: engines[0]}
		}
	}

	if fallback == nil {
		return voice{}, fmt.Errorf("%w: no polly voice for %s", sayit.ErrLanguageRejected, code)
	}
	return *fallback, nil
}

// synthesizeChunk synthesizes a single chunk of text and returns the audio.
func (s *TTSService) synthesizeChunk(ctx context.Context, svc *polly.Polly, v voice, code, text string, slow bool) ([]byte, error) {
	resp, err := svc.SynthesizeSpeechWithContext(ctx, &polly.SynthesizeSpeechInput{
		Engine:       aws.String(v.engine),
		LanguageCode: aws.String(code),
		OutputFormat: aws.String(polly.OutputFormatMp3),
		TextType:     aws.String(polly.TextTypeSsml),
		Text:         aws.String(ssml(text, slow)),
		VoiceId:      aws.String(v.id),
	})
	if resp != nil && resp.RequestCharacters != nil {
		fmt.Fprintf(s.LogOutput, "polly: response: chars=%d\n", aws.Int64Value(resp.RequestCharacters))
	}
	if err != nil {
		return nil, translateError(err)
	}
	defer resp.AudioStream.Close()

	return io.ReadAll(resp.AudioStream)
}

// ssml wraps text in a prosody element setting the speaking rate.
func ssml(text string, slow bool) string {
	rate := "medium"
	if slow {
		rate = "slow"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<speak><prosody rate="%s">`, rate)
	xml.EscapeText(&buf, []byte(text))
	buf.WriteString(`</prosody></speak>`)
	return buf.String()
}

// translateError maps Polly error codes to domain errors.
func translateError(err error) error {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return err
	}

	switch aerr.Code() {
	case polly.ErrCodeLanguageNotSupportedException, polly.ErrCodeEngineNotSupportedException:
		return fmt.Errorf("%w: %s", sayit.ErrLanguageRejected, aerr.Message())
	case request.ErrCodeRequestError, request.ErrCodeResponseTimeout, request.CanceledErrorCode,
		polly.ErrCodeServiceFailureException, "ThrottlingException":
		return fmt.Errorf("%w: %s: %s", sayit.ErrProviderUnavailable, aerr.Code(), aerr.Message())
	default:
		return err
	}
}

// splitTextOnParagraphs splits into chunks of maxChars-length chunks.
func splitTextOnParagraphs(text string, maxChars int) []string {
	lines := regexp.MustCompile(`\n+`).Split(text, -1)

	var chunks []string
	for _, line := range lines {
		// If line is too large for one chunk then split on words.
		if utf8.RuneCountInString(line) > maxChars {
			chunks = append(chunks, splitTextOnWords(line, maxChars)...)
			continue
		}

		// Add if this is the first line.
		if len(chunks) == 0 {
			chunks = append(chunks, line)
			continue
		}

		// Add new chunk if adding line will exceed max.
		if utf8.RuneCountInString(chunks[len(chunks)-1])+utf8.RuneCountInString(line)+1 > maxChars {
			chunks = append(chunks, line)
			continue
		}

		// Append to last chunk.
		chunks[len(chunks)-1] = chunks[len(chunks)-1] + "\n" + line
	}

	return chunks
}

// splitTextOnWords splits into max length chunks at word boundaries.
// Words longer than maxChars are cut.
func splitTextOnWords(text string, maxChars int) []string {
	var chunks []string
	var chunk string
	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > maxChars {
			if chunk != "" {
				chunks, chunk = append(chunks, chunk), ""
			}
			r := []rune(word)
			chunks, word = append(chunks, string(r[:maxChars])), string(r[maxChars:])
		}

		if word == "" {
			continue
		} else if chunk == "" {
			chunk = word
			continue
		} else if utf8.RuneCountInString(chunk)+1+utf8.RuneCountInString(word) > maxChars {
			chunks, chunk = append(chunks, chunk), word
			continue
		}
		chunk = chunk + " " + word
	}
	if chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
