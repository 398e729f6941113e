package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/middlemost/sayit"
	"github.com/middlemost/sayit/aws"
	"github.com/middlemost/sayit/gcloud"
	"github.com/middlemost/sayit/gtranslate"
	"github.com/middlemost/sayit/http"
)

// CatalogTimeout is the time allowed to fetch the language catalog at startup.
const CatalogTimeout = 30 * time.Second

func main() {
	m := NewMain()

	// Parse command line flags.
	if err := m.ParseFlags(os.Args[1:]); err == flag.ErrHelp {
		fmt.Fprintln(m.Stderr, m.Usage())
		os.Exit(1)
	} else if err != nil {
		fmt.Fprintln(m.Stderr, err)
		os.Exit(1)
	}

	// Load configuration.
	if err := m.LoadConfig(); err != nil {
		fmt.Fprintln(m.Stderr, err)
		os.Exit(1)
	}

	// Execute program.
	if err := m.Run(context.Background()); err != nil {
		fmt.Fprintln(m.Stderr, err)
		os.Exit(1)
	}

	// Shutdown on SIGINT (CTRL-C).
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	fmt.Fprintln(m.Stdout, "received interrupt, shutting down...")
	m.Close()
}

// Main represents the main program execution.
type Main struct {
	ConfigPath string
	EnvPath    string
	Config     Config

	// Overrides the configured bind address when set.
	Addr string

	// Overrides the configured provider when set.
	TTSService sayit.TTSService

	// Input/output streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	closeFn func() error
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{
		EnvPath: DefaultEnvPath,
		Config:  DefaultConfig(),

		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,

		closeFn: func() error { return nil },
	}
}

// Close cleans up the program.
func (m *Main) Close() error { return m.closeFn() }

// Usage returns the usage message.
func (m *Main) Usage() string {
	return strings.TrimSpace(`
usage: sayit [flags]

Serves a web form that converts text into spoken MP3 audio.

The following flags are available:

	-config PATH
		Specifies the configuration file to read.
		Defaults to ~/.sayit/config

	-addr ADDR
		Overrides the HTTP bind address.

`)
}

// ParseFlags parses the command line flags.
func (m *Main) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sayit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&m.ConfigPath, "config", "", "config file")
	fs.StringVar(&m.Addr, "addr", "", "bind address")
	return fs.Parse(args)
}

// LoadConfig parses the configuration file and applies environment overrides.
func (m *Main) LoadConfig() error {
	// Default configuration path if not specified.
	path := m.ConfigPath
	if path == "" {
		path = DefaultConfigPath
	}

	// Interpolate path.
	if err := InterpolatePaths(&path); err != nil {
		return err
	}

	// Read configuration file.
	if _, err := toml.DecodeFile(path, &m.Config); os.IsNotExist(err) {
		if m.ConfigPath != "" {
			return err
		}
	} else if err != nil {
		return err
	}

	// Load .env into the environment. Existing variables take precedence.
	if m.EnvPath != "" {
		if err := godotenv.Load(m.EnvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load env: %w", err)
		}
	}
	if err := m.Config.ApplyEnv(os.Getenv); err != nil {
		return err
	}

	if m.Addr != "" {
		m.Config.HTTP.Addr = m.Addr
	}
	return nil
}

// Run executes the program.
func (m *Main) Run(ctx context.Context) error {
	// Initialize the speech provider.
	ttsService := m.TTSService
	if ttsService == nil {
		s, err := m.openTTSService(ctx)
		if err != nil {
			return err
		}
		ttsService = s
		fmt.Fprintf(m.Stdout, "tts provider: %s\n", m.Config.TTS.Provider)
	}

	// Fetch the language catalog once. The server cannot start without it.
	catalogCtx, cancel := context.WithTimeout(ctx, CatalogTimeout)
	defer cancel()
	catalog, err := sayit.LoadCatalog(catalogCtx, ttsService)
	if err != nil {
		return fmt.Errorf("error: load languages: %s", err)
	} else if catalog.Len() == 0 {
		return errors.New("error: load languages: provider returned no languages")
	}
	for _, c := range catalog.Collisions() {
		fmt.Fprintf(m.Stdout, "catalog: duplicate label: %s\n", c)
	}
	fmt.Fprintf(m.Stdout, "catalog loaded: n=%d default=%q\n", catalog.Len(), catalog.DefaultLabel())

	// Initialize converter.
	converter := sayit.NewConverter(catalog, ttsService)
	converter.LogOutput = m.Stdout

	// Initialize HTTP server.
	httpServer := http.NewServer()
	httpServer.Addr = m.Config.HTTP.Addr
	httpServer.Host = m.Config.HTTP.Host
	httpServer.Autocert = m.Config.HTTP.Autocert
	httpServer.LogOutput = m.Stdout

	httpServer.Catalog = catalog
	httpServer.ConversionService = converter

	// Open HTTP server.
	if err := httpServer.Open(); err != nil {
		return err
	}
	u := httpServer.URL()
	fmt.Fprintf(m.Stdout, "http listening: %s\n", u.String())

	// Assign close function.
	m.closeFn = func() error {
		httpServer.Close()
		return nil
	}

	return nil
}

// openTTSService returns the provider named by the configuration.
func (m *Main) openTTSService(ctx context.Context) (sayit.TTSService, error) {
	switch m.Config.TTS.Provider {
	case "", ProviderGTranslate:
		s := gtranslate.NewTTSService()
		if m.Config.GTranslate.TLD != "" {
			s.TLD = m.Config.GTranslate.TLD
		}
		if m.Config.GTranslate.Concurrency > 0 {
			s.Concurrency = m.Config.GTranslate.Concurrency
		}
		s.URL = m.Config.GTranslate.BaseURL
		s.LogOutput = m.Stdout
		return s, nil

	case ProviderAWS:
		session, err := aws.NewSession(
			m.Config.AWS.AccessKeyID,
			m.Config.AWS.SecretAccessKey,
			m.Config.AWS.Region,
			m.Config.AWS.Endpoint,
		)
		if err != nil {
			return nil, fmt.Errorf("error: aws session: %s", err)
		}
		s := aws.NewTTSService()
		s.Session = session
		s.LogOutput = m.Stdout
		return s, nil

	case ProviderGCloud:
		s := gcloud.NewTTSService()
		s.APIKey = m.Config.GCloud.APIKey
		s.Endpoint = m.Config.GCloud.Endpoint
		s.LogOutput = m.Stdout
		if err := s.Open(ctx); err != nil {
			return nil, fmt.Errorf("error: gcloud client: %s", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown tts provider: %q", m.Config.TTS.Provider)
	}
}

// Provider names accepted by the [tts] provider setting.
const (
	ProviderGTranslate = "gtranslate"
	ProviderAWS        = "aws"
	ProviderGCloud     = "gcloud"
)

const (
	// DefaultConfigPath is the default configuration path.
	DefaultConfigPath = "~/.sayit/config"

	// DefaultEnvPath is the dotenv file loaded from the working directory.
	DefaultEnvPath = ".env"
)

// Config represents a configuration file.
type Config struct {
	HTTP struct {
		Addr     string `toml:"addr"`
		Host     string `toml:"host"`
		Autocert bool   `toml:"autocert"`
	} `toml:"http"`

	TTS struct {
		Provider string `toml:"provider"`
	} `toml:"tts"`

	GTranslate struct {
		TLD         string `toml:"tld"`
		BaseURL     string `toml:"base-url"`
		Concurrency int    `toml:"concurrency"`
	} `toml:"gtranslate"`

	AWS struct {
		AccessKeyID     string `toml:"access-key-id"`
		SecretAccessKey string `toml:"secret-access-key"`
		Region          string `toml:"region"`
		Endpoint        string `toml:"endpoint"`
	} `toml:"aws"`

	GCloud struct {
		APIKey   string `toml:"api-key"`
		Endpoint string `toml:"endpoint"`
	} `toml:"gcloud"`
}

// DefaultConfig returns a configuration with default settings.
func DefaultConfig() Config {
	var c Config
	c.HTTP.Addr = ":3000"
	c.TTS.Provider = ProviderGTranslate
	c.GTranslate.TLD = gtranslate.DefaultTLD
	c.GTranslate.Concurrency = gtranslate.DefaultConcurrency
	return c
}

// ApplyEnv overrides settings from environment variables looked up by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	for _, v := range []struct {
		name string
		dst  *string
	}{
		{"SAYIT_ADDR", &c.HTTP.Addr},
		{"SAYIT_PROVIDER", &c.TTS.Provider},
		{"AWS_ACCESS_KEY_ID", &c.AWS.AccessKeyID},
		{"AWS_SECRET_ACCESS_KEY", &c.AWS.SecretAccessKey},
		{"AWS_REGION", &c.AWS.Region},
		{"GOOGLE_API_KEY", &c.GCloud.APIKey},
	} {
		if s := getenv(v.name); s != "" {
			*v.dst = s
		}
	}

	if s := getenv("SAYIT_AUTOCERT"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid SAYIT_AUTOCERT: %q", s)
		}
		c.HTTP.Autocert = v
	}
	return nil
}

// InterpolatePaths replaces the tilde prefix with the user's home directory.
func InterpolatePaths(a ...*string) error {
	for _, s := range a {
		if !strings.HasPrefix(*s, "~/") {
			continue
		}

		u, err := user.Current()
		if err != nil {
			return err
		} else if u.HomeDir == "" {
			return errors.New("home directory not found")
		}
		*s = filepath.Join(u.HomeDir, strings.TrimPrefix(*s, "~/"))
	}
	return nil
}
