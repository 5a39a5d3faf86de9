package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

func TestLoad_NoFile(t *testing.T) {
	f, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if f != nil {
		t.Errorf("f = %+v, want nil", f)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	content := `source: lib/l10n/app_en.arb
targets:
  - file: lib/l10n/app_fr.arb
    lang: fr
languages:
  - de
provider:
  id: groq
  model: llama-3.3-70b-versatile
prompt: Custom instructions.
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if f.Source != "lib/l10n/app_en.arb" {
		t.Errorf("Source = %q", f.Source)
	}
	if len(f.Targets) != 1 || f.Targets[0].Lang != "fr" {
		t.Errorf("Targets = %+v", f.Targets)
	}
	if len(f.Languages) != 1 || f.Languages[0] != "de" {
		t.Errorf("Languages = %v", f.Languages)
	}
	if f.Provider.ID != "groq" || f.Provider.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Provider = %+v", f.Provider)
	}
	if f.Prompt != "Custom instructions." {
		t.Errorf("Prompt = %q", f.Prompt)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("source: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected an error for invalid YAML")
	}
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	f := &File{
		Source:    "l10n/app_en.arb",
		Targets:   []Target{{File: "l10n/custom.arb", Lang: "fr"}},
		Languages: []string{"de", "it"},
	}

	c, err := f.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if c.Source != filepath.Join(dir, "l10n/app_en.arb") {
		t.Errorf("Source = %q", c.Source)
	}
	if len(c.Targets) != 3 {
		t.Fatalf("got %d targets, want 3", len(c.Targets))
	}
	if c.Targets[0].File != filepath.Join(dir, "l10n/custom.arb") || c.Targets[0].Lang != "fr" {
		t.Errorf("Targets[0] = %+v", c.Targets[0])
	}
	// Shorthand languages derive their path from the source name.
	if c.Targets[1].File != filepath.Join(dir, "l10n/app_de.arb") || c.Targets[1].Lang != "de" {
		t.Errorf("Targets[1] = %+v", c.Targets[1])
	}
	if c.Targets[2].File != filepath.Join(dir, "l10n/app_it.arb") || c.Targets[2].Lang != "it" {
		t.Errorf("Targets[2] = %+v", c.Targets[2])
	}
}

func TestFromLists(t *testing.T) {
	c, err := FromLists("app_en.arb", []string{"app_fr.arb", "app_de.arb"}, []string{"fr", "de"})
	if err != nil {
		t.Fatalf("FromLists error: %v", err)
	}
	if len(c.Targets) != 2 || c.Targets[1].File != "app_de.arb" || c.Targets[1].Lang != "de" {
		t.Errorf("Targets = %+v", c.Targets)
	}
}

func TestFromLists_Mismatch(t *testing.T) {
	_, err := FromLists("app_en.arb", []string{"a.arb", "b.arb"}, []string{"fr"})
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error %T is not a MismatchError: %v", err, err)
	}
	if mismatch.Files != 2 || mismatch.Langs != 1 {
		t.Errorf("Files/Langs = %d/%d, want 2/1", mismatch.Files, mismatch.Langs)
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func validConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "app_en.arb")
	if err := os.WriteFile(src, []byte(`{"@@locale": "en"}`), 0644); err != nil {
		t.Fatal(err)
	}
	return &Config{
		Source:  src,
		Targets: []Target{{File: filepath.Join(dir, "app_fr.arb"), Lang: "fr"}},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig(t).Validate(); err != nil {
		t.Errorf("Validate error: %v", err)
	}
}

func TestValidate_SourceNotFound(t *testing.T) {
	c := validConfig(t)
	c.Source = filepath.Join(t.TempDir(), "missing.arb")
	err := c.Validate()
	var notFound *SourceNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error %T is not a SourceNotFoundError: %v", err, err)
	}
	if notFound.Path != c.Source {
		t.Errorf("Path = %q, want %q", notFound.Path, c.Source)
	}
}

func TestValidate_SourceIsDirectory(t *testing.T) {
	c := validConfig(t)
	c.Source = t.TempDir()
	var notFound *SourceNotFoundError
	if err := c.Validate(); !errors.As(err, &notFound) {
		t.Errorf("error %T is not a SourceNotFoundError: %v", err, err)
	}
}

func TestValidate_NoTargets(t *testing.T) {
	c := validConfig(t)
	c.Targets = nil
	if err := c.Validate(); err == nil {
		t.Error("expected an error for empty targets")
	}
}

func TestValidate_BadLanguage(t *testing.T) {
	c := validConfig(t)
	c.Targets[0].Lang = "!!"
	if err := c.Validate(); err == nil {
		t.Error("expected an error for a malformed language code")
	}
	c = validConfig(t)
	c.Targets[0].Lang = ""
	if err := c.Validate(); err == nil {
		t.Error("expected an error for an empty language code")
	}
}

// ---------------------------------------------------------------------------
// Target path derivation
// ---------------------------------------------------------------------------

func TestDeriveTargetPath(t *testing.T) {
	tests := []struct {
		source string
		lang   string
		want   string
	}{
		{"app_en.arb", "ru", "app_ru.arb"},
		{"lib/l10n/app_en.arb", "de", "lib/l10n/app_de.arb"},
		{"strings.json", "de", "strings_de.json"},
		{"app_v2.arb", "fr", "app_v2_fr.arb"},
		{"intl_en.arb", "pt-BR", "intl_pt-BR.arb"},
		// Word-like trailing segments are not locale tags even when
		// well-formed as BCP-47.
		{"my_file.arb", "ru", "my_file_ru.arb"},
		{"home_page.json", "de", "home_page_de.json"},
	}
	for _, tt := range tests {
		if got := DeriveTargetPath(tt.source, tt.lang); got != tt.want {
			t.Errorf("DeriveTargetPath(%q, %q) = %q, want %q", tt.source, tt.lang, got, tt.want)
		}
	}
}
