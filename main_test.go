package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/lingotool/lingot/config"
	"github.com/lingotool/lingot/translate"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"fr", []string{"fr"}},
		{"fr,de,it", []string{"fr", "de", "it"}},
		{" fr , de ,, it ", []string{"fr", "de", "it"}},
	}
	for _, tc := range tests {
		if got := splitList(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitList(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestResolveProvider(t *testing.T) {
	prov, err := resolveProvider(config.ProviderConfig{
		ID:      translate.ProviderGroq,
		Model:   "llama-3.3-70b-versatile",
		Timeout: 10 * time.Second,
	}, "gsk_test")
	if err != nil {
		t.Fatalf("resolveProvider() error: %v", err)
	}
	if prov.BaseURL != "https://api.groq.com/openai/v1" {
		t.Fatalf("BaseURL = %q, want groq default", prov.BaseURL)
	}
	if prov.Model != "llama-3.3-70b-versatile" || prov.APIKey != "gsk_test" {
		t.Fatalf("prov = %+v", prov)
	}
	if prov.Timeout != 10*time.Second {
		t.Fatalf("Timeout = %v, want 10s", prov.Timeout)
	}

	// A flag base URL overrides the provider default.
	prov, err = resolveProvider(config.ProviderConfig{
		ID:      translate.ProviderOllama,
		Model:   "llama3.2",
		BaseURL: "http://remote:11434/v1",
	}, "")
	if err != nil {
		t.Fatalf("resolveProvider() error: %v", err)
	}
	if prov.BaseURL != "http://remote:11434/v1" {
		t.Fatalf("BaseURL = %q, want override", prov.BaseURL)
	}
}

func TestResolveProviderErrors(t *testing.T) {
	if _, err := resolveProvider(config.ProviderConfig{ID: "nope", Model: "m"}, "k"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if _, err := resolveProvider(config.ProviderConfig{ID: translate.ProviderGroq}, "k"); err == nil {
		t.Fatal("expected error for missing model")
	}
	if _, err := resolveProvider(config.ProviderConfig{ID: translate.ProviderGroq, Model: "m"}, ""); err == nil {
		t.Fatal("expected error for missing API key")
	}
	if _, err := resolveProvider(config.ProviderConfig{ID: translate.ProviderOllama, Model: "m"}, ""); err != nil {
		t.Fatalf("ollama should not require a key: %v", err)
	}
	if _, err := resolveProvider(config.ProviderConfig{ID: translate.ProviderCustomOpenAI, Model: "m"}, "k"); err == nil {
		t.Fatal("expected error for custom provider without base URL")
	}
}

func TestResolveConfigFromFlags(t *testing.T) {
	a := translateArgs{
		source:  "app_en.arb",
		targets: "app_fr.arb,app_de.arb",
		langs:   "fr,de",
		model:   "m",
		prompt:  "custom",
	}
	cfg, err := resolveConfig(a)
	if err != nil {
		t.Fatalf("resolveConfig() error: %v", err)
	}
	if cfg.Source != "app_en.arb" || len(cfg.Targets) != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Targets[1].File != "app_de.arb" || cfg.Targets[1].Lang != "de" {
		t.Fatalf("Targets[1] = %+v", cfg.Targets[1])
	}
	if cfg.Provider.Model != "m" || cfg.Prompt != "custom" {
		t.Fatalf("flag overrides lost: %+v", cfg)
	}

	if _, err := resolveConfig(translateArgs{targets: "a.arb"}); err == nil {
		t.Fatal("expected error for --targets without --source")
	}
	if _, err := resolveConfig(translateArgs{source: "s.arb", targets: "a.arb", langs: "fr,de"}); err == nil {
		t.Fatal("expected error for unpaired targets/langs")
	}
}

func TestResolveConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := "source: app_en.arb\nlanguages:\n  - ru\nprovider:\n  id: ollama\n  model: llama3.2\n"
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	oldRoot := rootDir
	rootDir = dir
	defer func() { rootDir = oldRoot }()

	cfg, err := resolveConfig(translateArgs{model: "other-model"})
	if err != nil {
		t.Fatalf("resolveConfig() error: %v", err)
	}
	if cfg.Source != filepath.Join(dir, "app_en.arb") {
		t.Fatalf("Source = %q", cfg.Source)
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0].Lang != "ru" {
		t.Fatalf("Targets = %+v", cfg.Targets)
	}
	if cfg.Provider.ID != "ollama" {
		t.Fatalf("Provider.ID = %q", cfg.Provider.ID)
	}
	if cfg.Provider.Model != "other-model" {
		t.Fatalf("Provider.Model = %q, flag should win", cfg.Provider.Model)
	}

	rootDir = t.TempDir()
	if _, err := resolveConfig(translateArgs{}); err == nil {
		t.Fatal("expected error when no config file and no --source")
	}
}

func TestRunTranslateProviderFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app_en.arb")
	if err := os.WriteFile(src, []byte(`{"@@locale": "en", "greeting": "Hello"}`), 0644); err != nil {
		t.Fatal(err)
	}
	content := "source: app_en.arb\nlanguages:\n  - ru\nprovider:\n  id: ollama\n  model: llama3.2\n"
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	oldRoot := rootDir
	rootDir = dir
	defer func() { rootDir = oldRoot }()

	// The yaml-only provider selection must carry all the way through
	// provider resolution; dry-run stops short of any network call.
	if err := runTranslate(translateArgs{dryRun: true}); err != nil {
		t.Fatalf("runTranslate() error: %v", err)
	}
}

func TestRunTranslateNoProviderAnywhere(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app_en.arb")
	if err := os.WriteFile(src, []byte(`{"@@locale": "en"}`), 0644); err != nil {
		t.Fatal(err)
	}
	content := "source: app_en.arb\nlanguages:\n  - ru\n"
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	oldRoot := rootDir
	rootDir = dir
	defer func() { rootDir = oldRoot }()

	err := runTranslate(translateArgs{dryRun: true})
	if err == nil {
		t.Fatal("expected error when neither flags nor config name a provider")
	}
	if !strings.Contains(err.Error(), "no provider specified") {
		t.Fatalf("err = %v, want a no-provider message", err)
	}
}
