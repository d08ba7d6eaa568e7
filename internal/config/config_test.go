package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

func TestProcessDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Process(context.Background(), envconfig.MapLookuper(map[string]string{
		"CB_TOKEN":      "token",
		"CB_DOT_PATH":   "/tmp/cmdbot",
		"CB_SUPERUSERS": "1,2",
	}))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if cfg.TelegramAPIToken != "token" || cfg.DotPath != "/tmp/cmdbot" {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	if cfg.CompTimeout != 10*time.Second || cfg.StaleAfter != 5*time.Minute || cfg.DBName != "bot.db" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if !cfg.IsSuperUser(2) || cfg.IsSuperUser(3) {
		t.Fatalf("unexpected superusers: %v", cfg.SuperUsers)
	}
}

func TestProcessErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]map[string]string{
		"missing token": {},
		"bad llm type":  {"CB_TOKEN": "t", "CB_LLM_API_TYPE": "claude"},
		"bad duration":  {"CB_TOKEN": "t", "CB_COMP_TIMEOUT": "soon"},
	}
	for name, env := range tests {
		if _, err := Process(context.Background(), envconfig.MapLookuper(env)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLogFormatter(t *testing.T) {
	t.Parallel()

	entry := log.NewEntry(log.New()).WithField("object", "bot").WithField("n", 3)
	entry.Level = log.WarnLevel
	entry.Message = "two\nlines"

	out, err := (&LogFormatter{NoColor: true}).Format(entry)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	line := string(out)
	for _, want := range []string{"level=WARN", `n=3 object="bot"`, `msg="two\nlines"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("%q not found in %q", want, line)
		}
	}
	if strings.Count(line, "\n") != 1 {
		t.Fatalf("expected a single line: %q", line)
	}
}
