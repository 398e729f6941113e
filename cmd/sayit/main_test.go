package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/middlemost/sayit"
	"github.com/middlemost/sayit/gtranslate"
	"github.com/middlemost/sayit/mock"
)

// Ensure the default configuration uses the Google Translate provider.
func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.HTTP.Addr != ":3000" {
		t.Fatalf("unexpected addr: %s", c.HTTP.Addr)
	} else if c.TTS.Provider != ProviderGTranslate {
		t.Fatalf("unexpected provider: %s", c.TTS.Provider)
	} else if c.GTranslate.TLD != "com" {
		t.Fatalf("unexpected tld: %s", c.GTranslate.TLD)
	}
}

// Ensure flags are parsed.
func TestMain_ParseFlags(t *testing.T) {
	m := NewMain()
	if err := m.ParseFlags([]string{"-config", "/tmp/sayit.toml", "-addr", ":8080"}); err != nil {
		t.Fatal(err)
	} else if m.ConfigPath != "/tmp/sayit.toml" {
		t.Fatalf("unexpected config path: %s", m.ConfigPath)
	} else if m.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", m.Addr)
	}
}

// Ensure a TOML configuration file is read and overridden by the environment.
func TestMain_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	MustWriteFile(t, path, `
[http]
addr = ":4000"
host = "say.example.com"

[tts]
provider = "aws"

[gtranslate]
tld = "co.uk"
concurrency = 2

[aws]
access-key-id = "AKID"
secret-access-key = "SECRET"
region = "us-west-2"
`)

	t.Setenv("SAYIT_ADDR", "")
	t.Setenv("SAYIT_PROVIDER", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("GOOGLE_API_KEY", "")

	m := NewMain()
	m.ConfigPath = path
	m.EnvPath = ""
	if err := m.LoadConfig(); err != nil {
		t.Fatal(err)
	} else if m.Config.HTTP.Addr != ":4000" {
		t.Fatalf("unexpected addr: %s", m.Config.HTTP.Addr)
	} else if m.Config.HTTP.Host != "say.example.com" {
		t.Fatalf("unexpected host: %s", m.Config.HTTP.Host)
	} else if m.Config.TTS.Provider != ProviderAWS {
		t.Fatalf("unexpected provider: %s", m.Config.TTS.Provider)
	} else if m.Config.GTranslate.TLD != "co.uk" || m.Config.GTranslate.Concurrency != 2 {
		t.Fatalf("unexpected gtranslate config: %+v", m.Config.GTranslate)
	} else if m.Config.AWS.AccessKeyID != "AKID" || m.Config.AWS.SecretAccessKey != "SECRET" {
		t.Fatalf("unexpected aws credentials: %+v", m.Config.AWS)
	} else if m.Config.AWS.Region != "eu-west-1" {
		t.Fatalf("unexpected region: %s", m.Config.AWS.Region)
	}
}

// Ensure the -addr flag wins over the configuration file.
func TestMain_LoadConfig_AddrFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	MustWriteFile(t, path, "[http]\naddr = \":4000\"\n")
	t.Setenv("SAYIT_ADDR", "")

	m := NewMain()
	m.EnvPath = ""
	if err := m.ParseFlags([]string{"-config", path, "-addr", ":5000"}); err != nil {
		t.Fatal(err)
	} else if err := m.LoadConfig(); err != nil {
		t.Fatal(err)
	} else if m.Config.HTTP.Addr != ":5000" {
		t.Fatalf("unexpected addr: %s", m.Config.HTTP.Addr)
	}
}

// Ensure a dotenv file is loaded without overriding existing variables.
func TestMain_LoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config")
	envPath := filepath.Join(dir, ".env")
	MustWriteFile(t, configPath, "")
	MustWriteFile(t, envPath, "SAYIT_PROVIDER=gcloud\nGOOGLE_API_KEY=from-dotenv\n")

	t.Setenv("SAYIT_PROVIDER", "")
	t.Setenv("GOOGLE_API_KEY", "from-env")
	os.Unsetenv("SAYIT_PROVIDER")

	m := NewMain()
	m.ConfigPath = configPath
	m.EnvPath = envPath
	if err := m.LoadConfig(); err != nil {
		t.Fatal(err)
	} else if m.Config.TTS.Provider != ProviderGCloud {
		t.Fatalf("unexpected provider: %s", m.Config.TTS.Provider)
	} else if m.Config.GCloud.APIKey != "from-env" {
		t.Fatalf("unexpected api key: %s", m.Config.GCloud.APIKey)
	}
}

// Ensure an explicitly named but missing config file is an error.
func TestMain_LoadConfig_ErrNotExist(t *testing.T) {
	m := NewMain()
	m.ConfigPath = filepath.Join(t.TempDir(), "missing")
	m.EnvPath = ""
	if err := m.LoadConfig(); !os.IsNotExist(err) {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Ensure invalid boolean environment values are rejected.
func TestConfig_ApplyEnv_ErrAutocert(t *testing.T) {
	c := DefaultConfig()
	getenv := func(name string) string {
		if name == "SAYIT_AUTOCERT" {
			return "maybe"
		}
		return ""
	}
	if err := c.ApplyEnv(getenv); err == nil || !strings.Contains(err.Error(), "SAYIT_AUTOCERT") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Ensure the configured provider is constructed.
func TestMain_OpenTTSService(t *testing.T) {
	t.Run("GTranslate", func(t *testing.T) {
		m := NewMain()
		m.Config.GTranslate.TLD = "fr"
		s, err := m.openTTSService(context.Background())
		if err != nil {
			t.Fatal(err)
		} else if gs, ok := s.(*gtranslate.TTSService); !ok {
			t.Fatalf("unexpected service: %T", s)
		} else if gs.TLD != "fr" {
			t.Fatalf("unexpected tld: %s", gs.TLD)
		}
	})

	t.Run("ErrAWSRegion", func(t *testing.T) {
		m := NewMain()
		m.Config.TTS.Provider = ProviderAWS
		if _, err := m.openTTSService(context.Background()); err == nil || !strings.Contains(err.Error(), "aws region required") {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ErrUnknownProvider", func(t *testing.T) {
		m := NewMain()
		m.Config.TTS.Provider = "espeak"
		if _, err := m.openTTSService(context.Background()); err == nil || err.Error() != `unknown tts provider: "espeak"` {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

// Ensure startup fetches the catalog, logs collisions and opens the server.
func TestMain_Run(t *testing.T) {
	var ts mock.TTSService
	ts.LanguagesFn = func(ctx context.Context) ([]sayit.Language, error) {
		return []sayit.Language{
			{Label: "English", Code: "en"},
			{Label: "English", Code: "en-GB"},
			{Label: "French", Code: "fr"},
		}, nil
	}

	var buf bytes.Buffer
	m := NewMain()
	m.Config.HTTP.Addr = "127.0.0.1:0"
	m.TTSService = &ts
	m.Stdout = &buf
	if err := m.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if out := buf.String(); !strings.Contains(out, "catalog: duplicate label: kept=English(en) dropped=English(en-GB)\n") {
		t.Fatalf("expected collision log: %s", out)
	} else if !strings.Contains(out, `catalog loaded: n=2 default="English"`) {
		t.Fatalf("expected catalog log: %s", out)
	} else if !strings.Contains(out, "http listening: http://127.0.0.1:") {
		t.Fatalf("expected listening log: %s", out)
	}
}

// Ensure startup aborts when the catalog cannot be fetched.
func TestMain_Run_ErrLoadLanguages(t *testing.T) {
	var ts mock.TTSService
	ts.LanguagesFn = func(ctx context.Context) ([]sayit.Language, error) {
		return nil, errors.New("connection refused")
	}

	m := NewMain()
	m.Config.HTTP.Addr = "127.0.0.1:0"
	m.TTSService = &ts
	m.Stdout = io.Discard
	err := m.Run(context.Background())
	if err == nil {
		m.Close()
		t.Fatal("expected error")
	} else if err.Error() != "error: load languages: Text-to-speech service unavailable: connection refused" {
		t.Fatalf("unexpected error: %s", err)
	}
}

// Ensure startup aborts when the provider reports no languages.
func TestMain_Run_ErrNoLanguages(t *testing.T) {
	var ts mock.TTSService
	ts.LanguagesFn = func(ctx context.Context) ([]sayit.Language, error) {
		return []sayit.Language{{Label: " ", Code: "xx"}}, nil
	}

	m := NewMain()
	m.Config.HTTP.Addr = "127.0.0.1:0"
	m.TTSService = &ts
	m.Stdout = io.Discard
	err := m.Run(context.Background())
	if err == nil {
		m.Close()
		t.Fatal("expected error")
	} else if err.Error() != "error: load languages: provider returned no languages" {
		t.Fatalf("unexpected error: %s", err)
	}
}

// MustWriteFile writes data to path or fails the test.
func MustWriteFile(tb testing.TB, path, data string) {
	tb.Helper()
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		tb.Fatal(err)
	}
}
