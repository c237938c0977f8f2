package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rzhek/TelegramHotelsBot/core/database"
	"github.com/Rzhek/TelegramHotelsBot/core/telegram/state"
	"github.com/Rzhek/TelegramHotelsBot/internal/conversation"
	"github.com/Rzhek/TelegramHotelsBot/internal/history"

	tele "gopkg.in/telebot.v4"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `telegram:
  run_mode: polling
hotels:
  timeout: 3s
  check_in: "2024-05-01"
  check_out: "2024-05-03"
conversation:
  max_hotels: 10
  max_count_attempts: 3
database:
  host: db.internal
metrics:
  listen: ":9090"
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Chdir(dir)
	t.Setenv("BOT_TOKEN", "tok")
	t.Setenv("RAPIDAPI_KEY", "key")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CoreConfig().Telegram.Token != "tok" || cfg.Hotels.APIKey != "key" {
		t.Fatalf("secrets not loaded: %+v", cfg)
	}
	if cfg.Hotels.Timeout != 3*time.Second || cfg.Hotels.CheckIn != "2024-05-01" {
		t.Fatalf("hotels section = %+v", cfg.Hotels)
	}
	if cfg.Hotels.BaseURL != "https://hotels4.p.rapidapi.com" {
		t.Fatalf("base url default = %q", cfg.Hotels.BaseURL)
	}
	if cfg.Conversation.MaxHotels != 10 || cfg.Conversation.MaxCountAttempts != 3 || cfg.Conversation.ImageCount != 1 {
		t.Fatalf("conversation section = %+v", cfg.Conversation)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != "5432" {
		t.Fatalf("database section = %+v", cfg.Database)
	}
	if cfg.State.Backend != state.BackendMemory {
		t.Fatalf("state backend = %q", cfg.State.Backend)
	}
	if cfg.Metrics.Listen != ":9090" {
		t.Fatalf("metrics listen = %q", cfg.Metrics.Listen)
	}
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "tok")
	t.Setenv("RAPIDAPI_KEY", "")
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error without RAPIDAPI_KEY")
	}
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	cfg.Telegram.Token = "tok"
	cfg.Hotels.APIKey = "key"
	cfg.RateLimit.IntervalMS = 500
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return cfg
}

func TestNewWiresBot(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, history.NewStore(nil, database.Config{}), state.NewMemoryManager[conversation.Search]())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatalf("TelegramRunOptions: %v", err)
	}
	if opts.Config != cfg.CoreConfig() || opts.Registry == nil || opts.OnStop == nil {
		t.Fatalf("incomplete run options %+v", opts)
	}
	names := map[string]bool{}
	for _, mw := range opts.Middlewares {
		names[mw.Name] = true
	}
	for _, want := range []string{"logger", "recover", "rate_limit", "metrics"} {
		if !names[want] {
			t.Fatalf("middleware %s missing", want)
		}
	}
	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	for _, want := range []any{"/start", "/lowprice", "/highprice", "/history", tele.OnText} {
		if !endpoints[want] {
			t.Fatalf("route %v missing", want)
		}
	}

	if svcs := a.Services(); len(svcs) != 0 {
		t.Fatalf("expected no services without metrics.listen, got %d", len(svcs))
	}
	cfg.Metrics.Listen = "127.0.0.1:0"
	if svcs := a.Services(); len(svcs) != 1 || svcs[0].Name != "metrics" {
		t.Fatalf("expected metrics service, got %+v", svcs)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
