package translate

import (
	"context"
	"fmt"
	"time"

	"github.com/lingotool/lingot/resfile"
)

// ---------------------------------------------------------------------------
// Pipeline constants
// ---------------------------------------------------------------------------

const (
	// DefaultBatchSize is the number of strings sent per provider call.
	DefaultBatchSize = 50
	// DefaultMaxRetries is the retry budget per batch.
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the backoff base: attempt n waits n+1 times this.
	DefaultRetryDelay = 2 * time.Second
	// DefaultBatchPause is the pause between consecutive batches.
	DefaultBatchPause = 500 * time.Millisecond
	// DefaultLangPause is the pause between consecutive target languages.
	DefaultLangPause = time.Second
)

// sleep waits for d unless ctx is cancelled first. Tests replace it to
// observe the backoff and pacing schedule without real delays.
var sleep = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Options controls the translation pipeline.
type Options struct {
	// Client performs the actual provider calls.
	Client Client
	// BatchSize is how many strings to translate per call (default 50).
	BatchSize int
	// MaxRetries is the per-batch retry budget (default 3).
	MaxRetries int
	// RetryDelay is the linear backoff base (default 2s: waits 2s, 4s, 6s).
	RetryDelay time.Duration
	// BatchPause is the pause between batches (default 500ms).
	BatchPause time.Duration
	// LangPause is the pause between target languages (default 1s).
	LangPause time.Duration
	// OnProgress is called after each batch with per-language totals.
	OnProgress func(lang string, done, total int)
	// OnLog emits log messages during translation.
	OnLog func(format string, args ...any)
	// OnError emits error messages during translation.
	OnError func(format string, args ...any)
	// Verbose enables detailed logging.
	Verbose bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveBatchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

func (o *Options) effectiveMaxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return DefaultMaxRetries
}

func (o *Options) effectiveRetryDelay() time.Duration {
	if o.RetryDelay > 0 {
		return o.RetryDelay
	}
	return DefaultRetryDelay
}

func (o *Options) effectiveBatchPause() time.Duration {
	if o.BatchPause > 0 {
		return o.BatchPause
	}
	return DefaultBatchPause
}

func (o *Options) effectiveLangPause() time.Duration {
	if o.LangPause > 0 {
		return o.LangPause
	}
	return DefaultLangPause
}

// ---------------------------------------------------------------------------
// Batching
// ---------------------------------------------------------------------------

// splitStrings divides items into batches of at most size elements. All
// batches except possibly the last have exactly size elements, and
// concatenating them restores items. Empty input yields no batches.
func splitStrings(items []string, size int) [][]string {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]string{items}
	}
	var batches [][]string
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

// ---------------------------------------------------------------------------
// Retry + backoff
// ---------------------------------------------------------------------------

// translateBatch sends one batch through the client, retrying on any
// failure with linear backoff: attempt n waits RetryDelay*(n+1) before the
// next try. After the retry budget is spent it returns a
// *BatchExhaustedError carrying the batch's position and the last cause.
func translateBatch(ctx context.Context, batch []string, lang string, ordinal, total int, opts Options) ([]string, error) {
	maxRetries := opts.effectiveMaxRetries()
	retryDelay := opts.effectiveRetryDelay()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		out, err := opts.Client.Translate(ctx, batch, lang)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}
		wait := retryDelay * time.Duration(attempt+1)
		opts.logError("Batch %d/%d attempt %d failed: %v — retrying in %v",
			ordinal, total, attempt+1, err, wait)
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, &BatchExhaustedError{Batch: ordinal, Total: total, Cause: lastErr}
}

// ---------------------------------------------------------------------------
// Sequential batch pipeline
// ---------------------------------------------------------------------------

// TranslateValues translates values into lang, batch by batch, strictly in
// order. The result has the same length as values and is index-aligned with
// it. Between consecutive batches the pipeline pauses for BatchPause to
// ease provider rate limits. Any exhausted batch aborts the whole call.
func TranslateValues(ctx context.Context, values []string, lang string, opts Options) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}

	batches := splitStrings(values, opts.effectiveBatchSize())
	translated := make([]string, 0, len(values))
	done := 0

	for i, batch := range batches {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if opts.Verbose {
			opts.log("  Batch %d/%d (%d strings)", i+1, len(batches), len(batch))
		}

		out, err := translateBatch(ctx, batch, lang, i+1, len(batches), opts)
		if err != nil {
			return nil, err
		}
		translated = append(translated, out...)

		done += len(batch)
		if opts.OnProgress != nil {
			opts.OnProgress(lang, done, len(values))
		}

		if i < len(batches)-1 {
			if err := sleep(ctx, opts.effectiveBatchPause()); err != nil {
				return nil, err
			}
		}
	}

	return translated, nil
}

// ---------------------------------------------------------------------------
// Multi-target orchestration
// ---------------------------------------------------------------------------

// LangTask describes one translation target.
type LangTask struct {
	// Lang is the BCP-47 target language code.
	Lang string
	// LangName is the human-readable language name (derived from Lang when
	// empty).
	LangName string
	// FilePath is where the rebuilt document is written.
	FilePath string
}

// TranslateAll translates src into every task's language, strictly
// sequentially, writing each target file before the next language starts.
// The translatable entries are extracted once and reused for all targets;
// each target gets an independent rebuild of the source document. The first
// failing target aborts the run — files written for earlier targets stay on
// disk.
func TranslateAll(ctx context.Context, src *resfile.Document, tasks []LangTask, opts Options) error {
	keys, values := src.Translatable()

	for j, task := range tasks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		langName := task.LangName
		if langName == "" {
			langName = languageName(task.Lang)
		}

		opts.log("Translating %s (%s) — %d strings...", task.Lang, langName, len(values))

		translated, err := TranslateValues(ctx, values, task.Lang, opts)
		if err != nil {
			return fmt.Errorf("translating %s: %w", task.Lang, err)
		}

		out, err := src.Rebuild(keys, translated, task.Lang)
		if err != nil {
			return fmt.Errorf("rebuilding %s: %w", task.Lang, err)
		}
		if err := out.WriteFile(task.FilePath); err != nil {
			return fmt.Errorf("saving %s: %w", task.Lang, err)
		}
		opts.log("Saved %s (%d strings)", task.FilePath, len(values))

		if j < len(tasks)-1 {
			if err := sleep(ctx, opts.effectiveLangPause()); err != nil {
				return err
			}
		}
	}

	return nil
}
