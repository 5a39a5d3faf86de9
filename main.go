// lingot — translates ARB-like JSON resource files with AI providers.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lingotool/lingot/config"
	"github.com/lingotool/lingot/i18n"
	"github.com/lingotool/lingot/resfile"
	"github.com/lingotool/lingot/settings"
	"github.com/lingotool/lingot/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lingot",
		Short: "Translate ARB-like JSON resource files with AI",
		Long: `lingot — AI translation for ARB-like JSON resource files.

Takes a flat JSON resource file (string entries plus @-prefixed metadata
and a @@locale tag), sends its strings to an AI provider in batches, and
writes one translated file per target language. Metadata entries and key
order are preserved; the @@locale tag is set to each target's code.

Commands:
  status      Show source and target translation statistics
  translate   Translate the source file into the target languages
  auth        Manage provider API keys

AI Providers:
  google         Google AI (Gemini) — API key
  groq           Groq — API key required
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newStatusCmd(),
		newTranslateCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// translate command
// ---------------------------------------------------------------------------

type translateArgs struct {
	source  string
	targets string
	langs   string

	provider string
	apiKey   string
	model    string
	baseURL  string

	batchSize int
	prompt    string
	verbose   bool
	dryRun    bool

	timeout time.Duration
	proxy   string
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate the source resource file using AI",
		Long: `Translate the source resource file into the target languages.

Targets come either from .lingot.yaml in the project root or from the
--source/--targets/--langs flags (the two lists must pair up). Languages
are processed one after another; each target file is written before the
next language starts.

Examples:
  # Using Google AI with an API key
  lingot translate --provider google --model gemini-2.5-flash \
      --source lib/l10n/app_en.arb --targets lib/l10n/app_ru.arb --langs ru

  # Several targets from .lingot.yaml
  lingot translate --provider groq --model llama-3.3-70b-versatile

  # Local Ollama, no API key
  lingot translate --provider ollama --model llama3.2 --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(a)
		},
	}

	// Provider selection
	cmd.Flags().StringVar(&a.provider, "provider", "", "AI provider (required): google, groq, ollama, custom-openai")
	cmd.Flags().StringVar(&a.model, "model", "", "Model name (required)")
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "API key (or "+settings.APIKeyEnv+" env var)")
	cmd.Flags().StringVar(&a.baseURL, "base-url", "", "Custom API base URL")

	// Target selection
	cmd.Flags().StringVar(&a.source, "source", "", "Source resource file (overrides .lingot.yaml)")
	cmd.Flags().StringVar(&a.targets, "targets", "", "Target files (comma-separated, pairs with --langs)")
	cmd.Flags().StringVar(&a.langs, "langs", "", "Target language codes (comma-separated, pairs with --targets)")

	// Translation behavior
	cmd.Flags().IntVar(&a.batchSize, "batch-size", 0, "Strings per API request (0 = default 50)")
	cmd.Flags().StringVar(&a.prompt, "prompt", "", "Custom system prompt (use {{targetLang}} placeholder)")
	cmd.Flags().BoolVar(&a.verbose, "verbose", false, "Enable detailed logging")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Show what would be translated without calling AI")

	// Network
	cmd.Flags().DurationVar(&a.timeout, "timeout", 0, "Request timeout (0 = 30s default)")
	cmd.Flags().StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"google\tGoogle AI (Gemini) — API key required",
			"groq\tGroq — API key required",
			"ollama\tOllama local server",
			"custom-openai\tCustom OpenAI-compatible endpoint",
		}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// resolveConfig assembles the run configuration from flags and .lingot.yaml.
// Flags win over config file fields.
func resolveConfig(a translateArgs) (*config.Config, error) {
	var cfg *config.Config

	if a.source != "" || a.targets != "" || a.langs != "" {
		if a.source == "" {
			return nil, fmt.Errorf("--targets/--langs require --source")
		}
		c, err := config.FromLists(a.source, splitList(a.targets), splitList(a.langs))
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		f, err := config.Load(rootDir)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, fmt.Errorf("no %s found in %s and no --source given", config.FileName, rootDir)
		}
		c, err := f.Resolve(rootDir)
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	if a.provider != "" {
		cfg.Provider.ID = a.provider
	}
	if a.model != "" {
		cfg.Provider.Model = a.model
	}
	if a.baseURL != "" {
		cfg.Provider.BaseURL = a.baseURL
	}
	if a.proxy != "" {
		cfg.Provider.Proxy = a.proxy
	}
	if a.timeout > 0 {
		cfg.Provider.Timeout = a.timeout
	}
	if a.prompt != "" {
		cfg.Prompt = a.prompt
	}

	return cfg, nil
}

// resolveProvider builds the provider definition from its defaults and the
// resolved configuration.
func resolveProvider(pc config.ProviderConfig, apiKey string) (translate.Provider, error) {
	prov, ok := translate.DefaultProviders()[pc.ID]
	if !ok {
		return translate.Provider{}, fmt.Errorf("unknown provider %q (valid: google, groq, ollama, custom-openai)", pc.ID)
	}

	prov.Model = pc.Model
	prov.APIKey = apiKey
	prov.Proxy = pc.Proxy
	if pc.BaseURL != "" {
		prov.BaseURL = pc.BaseURL
	} else if prov.BaseURL == "" {
		if stored := settings.GetBaseURL(pc.ID); stored != "" {
			prov.BaseURL = stored
		}
	}
	if pc.Timeout > 0 {
		prov.Timeout = pc.Timeout
	}

	if prov.Model == "" {
		return translate.Provider{}, fmt.Errorf("no model specified: use --model")
	}
	if prov.BaseURL == "" {
		return translate.Provider{}, fmt.Errorf("provider %s needs a base URL: use --base-url", pc.ID)
	}
	switch pc.ID {
	case translate.ProviderGoogle, translate.ProviderGroq:
		if prov.APIKey == "" {
			return translate.Provider{}, fmt.Errorf("provider %s requires an API key: use --api-key, %s, or 'lingot auth login'",
				pc.ID, settings.APIKeyEnv)
		}
	}

	return prov, nil
}

func runTranslate(a translateArgs) error {
	cfg, err := resolveConfig(a)
	if err != nil {
		return err
	}
	if cfg.Provider.ID == "" {
		return fmt.Errorf("no provider specified: use --provider (google, groq, ollama, custom-openai) or set provider.id in %s", config.FileName)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	key := settings.ResolveAPIKey(cfg.Provider.ID, a.apiKey)
	prov, err := resolveProvider(cfg.Provider, key)
	if err != nil {
		return err
	}

	src, err := resfile.ParseFile(cfg.Source)
	if err != nil {
		return err
	}

	keys, _ := src.Translatable()
	locale := src.Locale()
	if locale == "" {
		locale = "?"
	}
	logInfo(i18n.T("Source: %s (%d strings, locale %s)"), cfg.Source, len(keys), locale)
	logInfo("Provider: %s (%s), Model: %s", prov.Name, prov.ID, prov.Model)

	tasks := make([]translate.LangTask, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		tasks = append(tasks, translate.LangTask{Lang: t.Lang, FilePath: t.File})
	}

	if a.dryRun {
		size := a.batchSize
		if size <= 0 {
			size = translate.DefaultBatchSize
		}
		batches := (len(keys) + size - 1) / size
		logInfo(i18n.T("Dry run: %d strings in %d batch(es) for %d target(s)"), len(keys), batches, len(tasks))
		for _, t := range tasks {
			fmt.Fprintf(os.Stderr, "  %s → %s\n", t.Lang, t.FilePath)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := translate.Options{
		Client: &translate.HTTPClient{
			Provider:     prov,
			SystemPrompt: cfg.Prompt,
			Verbose:      a.verbose,
		},
		BatchSize: a.batchSize,
		OnProgress: func(lang string, done, total int) {
			logInfo("  %s: %d/%d", lang, done, total)
		},
		OnLog:   logInfo,
		OnError: logWarning,
		Verbose: a.verbose,
	}

	if err := translate.TranslateAll(ctx, src, tasks, opts); err != nil {
		return err
	}

	logSuccess(i18n.T("Done: %d target(s) written"), len(tasks))
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// status command
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show source and target translation statistics",
		Long: `Show the configured source file, its translatable string count, and the
state of every target file. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	f, err := config.Load(rootDir)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("no %s found in %s", config.FileName, rootDir)
	}
	cfg, err := f.Resolve(rootDir)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	src, err := resfile.ParseFile(cfg.Source)
	if err != nil {
		return err
	}

	translatable, other := src.Stats()
	locale := src.Locale()
	if locale == "" {
		locale = "?"
	}

	fmt.Fprintf(os.Stderr, "\n%sSource%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  File:       %s\n", cfg.Source)
	fmt.Fprintf(os.Stderr, "  Locale:     %s\n", locale)
	fmt.Fprintf(os.Stderr, "  Strings:    %d translatable, %d metadata/other\n", translatable, other)

	fmt.Fprintf(os.Stderr, "\n%sTargets%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	for _, t := range cfg.Targets {
		name := filepath.Base(t.File)
		doc, err := resfile.ParseFile(t.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %-8s %-30s missing\n", t.Lang, name)
			continue
		}
		got, _ := doc.Stats()
		fmt.Fprintf(os.Stderr, "  %-8s %-30s %d/%d strings (locale %s)\n",
			t.Lang, name, got, translatable, doc.Locale())
	}
	fmt.Fprintln(os.Stderr)

	return nil
}

// ---------------------------------------------------------------------------
// auth command
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
		Long: `Manage API keys for the AI providers.

API key providers:
  google        Google AI Studio (Gemini API key)
  groq          Groq Cloud (free tier available)
  custom-openai Custom OpenAI-compatible endpoint

No auth required:
  ollama        Local Ollama server

Examples:
  lingot auth login --provider google      Store a Google AI API key
  lingot auth logout --provider google     Remove the Google API key
  lingot auth logout                       Remove all credentials
  lingot auth list                         Show stored credentials`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var provider, apiKey, baseURL string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key for a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				return fmt.Errorf("use --provider to choose a provider (google, groq, custom-openai)")
			}
			if provider == translate.ProviderOllama {
				return fmt.Errorf("ollama needs no authentication")
			}

			key := apiKey
			if key == "" {
				fmt.Fprintf(os.Stderr, "Enter API key for %s: ", provider)
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading key: %w", err)
				}
				key = strings.TrimSpace(line)
			}
			if key == "" {
				return fmt.Errorf("empty API key")
			}

			var err error
			if baseURL != "" {
				err = settings.SetAPIKeyWithBaseURL(provider, key, baseURL)
			} else {
				err = settings.SetAPIKey(provider, key)
			}
			if err != nil {
				return err
			}
			logSuccess(i18n.T("API key saved for %s"), provider)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider ID (google, groq, custom-openai)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (prompted when omitted)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Endpoint URL (custom-openai)")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logSuccess(i18n.T("All credentials removed"))
				return nil
			}
			if err := settings.Remove(provider); err != nil {
				return err
			}
			logSuccess(i18n.T("Credentials removed for %s"), provider)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider ID (default: all)")

	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := settings.Load()
			if len(store) == 0 {
				logInfo(i18n.T("No stored credentials"))
				return nil
			}
			fmt.Fprintf(os.Stderr, "Credentials in %s:\n", settings.FilePath())
			for id, info := range store {
				line := fmt.Sprintf("  %-15s %s", id, settings.MaskKey(info.Key))
				if info.BaseURL != "" {
					line += "  (" + info.BaseURL + ")"
				}
				fmt.Fprintln(os.Stderr, line)
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// version command
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lingot version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}
