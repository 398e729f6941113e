package gtranslate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/middlemost/sayit"
	"golang.org/x/sync/errgroup"
)

// MaxCharactersPerRequest is the maximum number of characters accepted per request.
const MaxCharactersPerRequest = 100

// Defaults.
const (
	DefaultTLD         = "com"
	DefaultConcurrency = 4
)

// rpcID identifies the speech RPC on the batchexecute endpoint.
const rpcID = "jQ1olc"

// Provider errors.
const (
	ErrNoText        = sayit.Error("no text to send to TTS API")
	ErrNoAudioStream = sayit.Error("no audio stream in response")
)

// userAgent is sent with every request; the endpoint rejects unknown clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

var audioRegex = regexp.MustCompile(`jQ1olc","\[\\"(.*)\\"]`)

// Ensure service implements interface.
var _ sayit.TTSService = &TTSService{}

// TTSService represents a text-to-speech service backed by Google Translate.
type TTSService struct {
	// Top-level domain of the Translate host, e.g. "com" or "co.uk".
	TLD string

	// Overrides the Translate host. Used for testing.
	URL string

	// Maximum number of chunk requests in flight per synthesis.
	Concurrency int

	HTTPClient *http.Client
	LogOutput  io.Writer
}

// NewTTSService returns a new instance of TTSService.
func NewTTSService() *TTSService {
	return &TTSService{
		TLD:         DefaultTLD,
		Concurrency: DefaultConcurrency,
		HTTPClient:  http.DefaultClient,
		LogOutput:   io.Discard,
	}
}

// Languages returns the languages supported by the endpoint.
func (s *TTSService) Languages(ctx context.Context) ([]sayit.Language, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a := make([]sayit.Language, 0, len(languages))
	for code, label := range languages {
		a = append(a, sayit.Language{Label: label, Code: code})
	}
	sort.Slice(a, func(i, j int) bool { return a[i].Code < a[j].Code })
	return a, nil
}

// SynthesizeSpeech encodes text to speech.
func (s *TTSService) SynthesizeSpeech(ctx context.Context, req *sayit.ConversionRequest) (io.ReadCloser, error) {
	if _, ok := languages[req.LanguageCode]; !ok {
		return nil, fmt.Errorf("%w: %s", sayit.ErrLanguageRejected, req.LanguageCode)
	}

	// Split into chunks.
	chunks := splitText(req.Text, MaxCharactersPerRequest)
	if len(chunks) == 0 {
		return nil, ErrNoText
	}

	// Synthesize chunks in parallel.
	parts := make([][]byte, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for i, chunk := range chunks {
		fmt.Fprintf(s.LogOutput, "gtranslate: synthesizing chunk: index=%d, len=%d\n", i, len(chunk))

		i, chunk := i, chunk // per-iteration copies (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			buf, err := s.synthesizeChunk(ctx, chunk, req.LanguageCode, req.Slow)
			parts[i] = buf
			return err
		})
	}

	// Wait for the chunks to complete.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// MP3 frames can be concatenated as-is.
	return io.NopCloser(bytes.NewReader(bytes.Join(parts, nil))), nil
}

// synthesizeChunk synthesizes a single chunk of text and returns the decoded audio.
func (s *TTSService) synthesizeChunk(ctx context.Context, text, lang string, slow bool) ([]byte, error) {
	freq, err := encodeRequest(text, lang, slow)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), strings.NewReader(url.Values{"f.req": {freq}}.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
	req.Header.Set("Referer", "http://translate.google.com/")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, s.statusError(resp.StatusCode)
	}
	return decodeResponse(resp.Body)
}

// endpoint returns the URL of the batchexecute endpoint.
func (s *TTSService) endpoint() string {
	host := s.URL
	if host == "" {
		host = "https://translate.google." + s.tld()
	}
	return strings.TrimSuffix(host, "/") + "/_/TranslateWebserverUi/data/batchexecute"
}

func (s *TTSService) tld() string {
	if s.TLD == "" {
		return DefaultTLD
	}
	return s.TLD
}

func (s *TTSService) httpClient() *http.Client {
	if s.HTTPClient == nil {
		return http.DefaultClient
	}
	return s.HTTPClient
}

// statusError returns an error describing a non-200 response.
func (s *TTSService) statusError(code int) error {
	switch {
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: %d (%s) from TTS API: bad token or upstream API changes", sayit.ErrProviderUnavailable, code, http.StatusText(code))
	case code == http.StatusNotFound && s.tld() != DefaultTLD:
		return fmt.Errorf("%w: %d (%s) from TTS API: unsupported tld %q", sayit.ErrProviderUnavailable, code, http.StatusText(code), s.tld())
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %d (%s) from TTS API: rate limited", sayit.ErrProviderUnavailable, code, http.StatusText(code))
	case code >= 500:
		return fmt.Errorf("%w: %d (%s) from TTS API: upstream API error", sayit.ErrProviderUnavailable, code, http.StatusText(code))
	default:
		return fmt.Errorf("%d (%s) from TTS API", code, http.StatusText(code))
	}
}

// encodeRequest returns the f.req form value for a speech RPC.
func encodeRequest(text, lang string, slow bool) (string, error) {
	var speed interface{}
	if slow {
		speed = true
	}

	param, err := json.Marshal([]interface{}{text, lang, speed, "null"})
	if err != nil {
		return "", err
	}

	rpc, err := json.Marshal([]interface{}{[]interface{}{[]interface{}{rpcID, string(param), nil, "generic"}}})
	if err != nil {
		return "", err
	}
	return string(rpc), nil
}

// decodeResponse extracts the base64 audio from a batchexecute response.
func decodeResponse(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, rpcID) {
			continue
		}

		m := audioRegex.FindStringSubmatch(line)
		if m == nil {
			return nil, ErrNoAudioStream
		}
		return base64.StdEncoding.DecodeString(m[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNoAudioStream
}
