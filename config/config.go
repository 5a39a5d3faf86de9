// Package config — .lingot.yaml configuration file support.
//
// When a .lingot.yaml file exists in the project root, lingot uses it as the
// source of truth for the source document, translation targets, and provider
// defaults. Command-line flags override individual fields; the merged result
// is a Config value that is handed to the translation pipeline, which itself
// never reads ambient process state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = ".lingot.yaml"

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// MismatchError reports target file and language lists of different length.
type MismatchError struct {
	Files int
	Langs int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%d target file(s) but %d language(s): the lists must pair up", e.Files, e.Langs)
}

// SourceNotFoundError reports a source path that does not resolve to a
// readable file.
type SourceNotFoundError struct {
	Path string
	Err  error
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source file %s: %v", e.Path, e.Err)
}

func (e *SourceNotFoundError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .lingot.yaml structure.
type File struct {
	// Source is the source resource file path, relative to the config file.
	Source string `yaml:"source"`
	// Targets is the explicit list of translation targets.
	Targets []Target `yaml:"targets,omitempty"`
	// Languages is a shorthand: each language becomes a target whose file
	// path is derived from Source by swapping the locale name segment.
	Languages []string `yaml:"languages,omitempty"`
	// Provider holds provider defaults (overridable by flags).
	Provider ProviderConfig `yaml:"provider,omitempty"`
	// Prompt overrides the built-in system prompt.
	Prompt string `yaml:"prompt,omitempty"`
}

// Target describes a single translation target.
type Target struct {
	// File is the output file path, relative to the config file.
	File string `yaml:"file"`
	// Lang is the BCP-47 target language code.
	Lang string `yaml:"lang"`
}

// ProviderConfig holds provider selection and connection settings.
type ProviderConfig struct {
	// ID is the provider identifier (google, groq, ollama, custom-openai).
	ID string `yaml:"id,omitempty"`
	// Model is the model identifier.
	Model string `yaml:"model,omitempty"`
	// BaseURL overrides the provider's API base URL.
	BaseURL string `yaml:"base_url,omitempty"`
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string `yaml:"proxy,omitempty"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads .lingot.yaml from the given directory. Returns nil if no
// config file exists.
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, nil
}

// ---------------------------------------------------------------------------
// Resolved configuration
// ---------------------------------------------------------------------------

// Config is the fully resolved, validated run configuration handed to the
// orchestrator.
type Config struct {
	// Source is the absolute source file path.
	Source string
	// Targets pairs output files with target language codes.
	Targets []Target
	// Provider holds the resolved provider settings.
	Provider ProviderConfig
	// Prompt overrides the built-in system prompt.
	Prompt string
}

// Resolve converts a File into a Config with absolute paths, expanding the
// languages shorthand into explicit targets.
func (f *File) Resolve(rootDir string) (*Config, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}

	c := &Config{
		Source:   filepath.Join(absRoot, f.Source),
		Provider: f.Provider,
		Prompt:   f.Prompt,
	}

	for _, t := range f.Targets {
		c.Targets = append(c.Targets, Target{
			File: filepath.Join(absRoot, t.File),
			Lang: t.Lang,
		})
	}
	for _, lang := range f.Languages {
		c.Targets = append(c.Targets, Target{
			File: filepath.Join(absRoot, DeriveTargetPath(f.Source, lang)),
			Lang: lang,
		})
	}

	return c, nil
}

// FromLists builds a Config from parallel file and language lists, as given
// on the command line. The lists must have equal length.
func FromLists(source string, files, langs []string) (*Config, error) {
	if len(files) != len(langs) {
		return nil, &MismatchError{Files: len(files), Langs: len(langs)}
	}
	c := &Config{Source: source}
	for i := range files {
		c.Targets = append(c.Targets, Target{File: files[i], Lang: langs[i]})
	}
	return c, nil
}

// Validate checks the configuration before any translation starts: the
// source must be a readable file, at least one target must be declared, and
// every target needs a file path and a well-formed language code.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("no source file configured")
	}
	info, err := os.Stat(c.Source)
	if err != nil {
		return &SourceNotFoundError{Path: c.Source, Err: err}
	}
	if info.IsDir() {
		return &SourceNotFoundError{Path: c.Source, Err: fmt.Errorf("is a directory")}
	}

	if len(c.Targets) == 0 {
		return fmt.Errorf("no translation targets configured")
	}
	for i, t := range c.Targets {
		if t.File == "" {
			return fmt.Errorf("target #%d has no file path", i+1)
		}
		if t.Lang == "" {
			return fmt.Errorf("target %s has no language code", t.File)
		}
		if _, err := language.Parse(t.Lang); err != nil {
			return fmt.Errorf("target %s: invalid language code %q: %w", t.File, t.Lang, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Target path derivation
// ---------------------------------------------------------------------------

// DeriveTargetPath derives a target file path from the source path by
// swapping the trailing locale name segment (app_en.arb → app_ru.arb).
// Sources without a locale segment get one appended before the extension.
func DeriveTargetPath(source, lang string) string {
	ext := filepath.Ext(source)
	stem := strings.TrimSuffix(source, ext)

	if idx := strings.LastIndex(stem, "_"); idx >= 0 && isLocaleSegment(stem[idx+1:]) {
		return stem[:idx] + "_" + lang + ext
	}
	return stem + "_" + lang + ext
}

// isLocaleSegment reports whether a file name segment looks like a locale
// tag. language.Parse alone is too permissive: it accepts any well-formed
// BCP-47 tag, including 4-letter primary subtags such as "file", so the
// primary subtag is additionally required to be a 2-3 letter language code.
func isLocaleSegment(s string) bool {
	primary := s
	if i := strings.IndexByte(primary, '-'); i >= 0 {
		primary = primary[:i]
	}
	if len(primary) < 2 || len(primary) > 3 {
		return false
	}
	_, err := language.Parse(s)
	return err == nil
}
