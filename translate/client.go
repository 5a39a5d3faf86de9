// Package translate implements AI-powered translation of resource file
// strings using HTTP API-based providers: Google AI (Gemini), Groq, Ollama,
// and any custom OpenAI-compatible endpoint.
//
// The package is split into two layers. The Client interface is the provider
// boundary: one call sends one batch of strings for one target language and
// either returns the same number of translated strings or fails. The
// pipeline layer (pipeline.go) owns batching, retries with backoff, pacing,
// and the per-language document rebuild.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderGoogle       = "google"
	ProviderGroq         = "groq"
	ProviderOllama       = "ollama"
	ProviderCustomOpenAI = "custom-openai"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 30 * time.Second

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the configuration for an AI translation service.
type Provider struct {
	// ID is the provider identifier (google, groq, ollama, custom-openai).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the model identifier.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the per-call timeout (DefaultTimeout when zero).
	Timeout time.Duration
}

func (p Provider) effectiveTimeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return DefaultTimeout
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderGoogle: {
			ID:      ProviderGoogle,
			Name:    "Google AI (Gemini)",
			BaseURL: "https://generativelanguage.googleapis.com",
		},
		ProviderGroq: {
			ID:      ProviderGroq,
			Name:    "Groq",
			BaseURL: "https://api.groq.com/openai/v1",
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
		},
		ProviderCustomOpenAI: {
			ID:   ProviderCustomOpenAI,
			Name: "Custom OpenAI",
		},
	}
}

// ---------------------------------------------------------------------------
// Client interface
// ---------------------------------------------------------------------------

// Client is the provider boundary: translate one batch of strings into one
// target language. Implementations must either return exactly len(batch)
// strings, index-aligned with the input, or an error.
type Client interface {
	Translate(ctx context.Context, batch []string, lang string) ([]string, error)
}

// ---------------------------------------------------------------------------
// System prompt
// ---------------------------------------------------------------------------

// DefaultSystemPrompt instructs the model. {{targetLang}} is replaced with
// the target language's display name before sending.
const DefaultSystemPrompt = `You are a professional translator specializing in software and product localization. You are translating UI strings from an application resource file.

IMPORTANT TRANSLATION PRINCIPLES:
- Translate for NATURALNESS and FLUENCY in {{targetLang}}, not word-for-word.
- Use established IT terminology that is standard in the {{targetLang}} tech community.
- Keep brand names and proper nouns unchanged.
- Maintain the original tone and intent.

TECHNICAL REQUIREMENTS:
- Return ONLY a JSON array of translated strings, one for each input entry, in the same order.
- Any text enclosed in curly braces is a runtime placeholder (e.g. {name}, {count}): leave it untranslated, character for character, in its original position.
- Preserve leading/trailing whitespace, newlines, and punctuation patterns.
- Return ONLY the JSON array, no explanations or markdown code blocks.`

// languageName returns the native display name for a BCP-47 code, falling
// back to the code itself when the tag is unknown.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}

// buildUserPrompt embeds the serialized batch and the exact target language
// code in the instruction sent to the provider.
func buildUserPrompt(batch []string, lang string) (string, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("marshaling batch: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following JSON array of strings into %s (language code %q):\n\n",
		languageName(lang), lang)
	b.Write(payload)
	fmt.Fprintf(&b, "\n\nReturn a JSON array with exactly %d translated strings.", len(batch))
	return b.String(), nil
}

// ---------------------------------------------------------------------------
// HTTP client with proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Support both --proxy flag and HTTP_PROXY/HTTPS_PROXY env vars
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// API format types
// ---------------------------------------------------------------------------

type apiFormat int

const (
	formatOpenAIChat   apiFormat = iota // OpenAI chat/completions
	formatGeminiNative                  // Google Gemini generateContent
)

func formatFor(providerID string) apiFormat {
	if providerID == ProviderGoogle {
		return formatGeminiNative
	}
	return formatOpenAIChat
}

// ---------------------------------------------------------------------------
// Request builders
// ---------------------------------------------------------------------------

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		Stream:      false,
	}
	return json.Marshal(req)
}

func buildGeminiRequest(systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	type genConfig struct {
		Temperature float64 `json:"temperature"`
	}
	req := struct {
		Contents          []content `json:"contents"`
		GenerationConfig  genConfig `json:"generationConfig"`
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
	}{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userPrompt}}},
		},
		GenerationConfig: genConfig{Temperature: temperature},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	return json.Marshal(req)
}

// buildHTTPRequest constructs the endpoint, headers, and body for a provider.
func buildHTTPRequest(prov Provider, systemPrompt, userPrompt string) (string, map[string]string, []byte, error) {
	headers := map[string]string{
		"Content-Type": "application/json",
	}

	var endpoint string
	var body []byte
	var err error

	switch formatFor(prov.ID) {
	case formatGeminiNative:
		// Google AI: POST /v1beta/models/{model}:generateContent
		endpoint = fmt.Sprintf("%s/v1beta/models/%s:generateContent",
			strings.TrimRight(prov.BaseURL, "/"), prov.Model)
		if prov.APIKey != "" {
			headers["x-goog-api-key"] = prov.APIKey
		}
		body, err = buildGeminiRequest(systemPrompt, userPrompt, 0.3)

	default: // formatOpenAIChat
		baseURL := strings.TrimRight(prov.BaseURL, "/")
		if !strings.HasSuffix(baseURL, "/chat/completions") {
			endpoint = baseURL + "/chat/completions"
		} else {
			endpoint = baseURL
		}
		if prov.APIKey != "" {
			headers["Authorization"] = "Bearer " + prov.APIKey
		}
		body, err = buildOpenAIChatRequest(prov.Model, systemPrompt, userPrompt, 0.3)
	}

	if err != nil {
		return "", nil, nil, err
	}
	return endpoint, headers, body, nil
}

// ---------------------------------------------------------------------------
// Response parsing (multi-format)
// ---------------------------------------------------------------------------

// extractResponseText pulls the generated text out of a provider response
// body, trying all known response formats.
func extractResponseText(body []byte) (string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", &ResponseParseError{Err: err, Snippet: truncate(string(body), 300)}
	}

	// API error inside a 200 body
	if errObj, ok := raw["error"]; ok {
		if errMap, ok := errObj.(map[string]any); ok {
			if msg, ok := errMap["message"].(string); ok {
				return "", &ProviderError{Status: http.StatusOK, Body: msg}
			}
		}
		return "", &ProviderError{Status: http.StatusOK, Body: fmt.Sprintf("%v", errObj)}
	}

	// 1. OpenAI chat format: choices[0].message.content
	if choices, ok := raw["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if content, ok := message["content"].(string); ok {
					return content, nil
				}
			}
		}
	}

	// 2. Gemini format: candidates[0].content.parts[0].text
	if candidates, ok := raw["candidates"].([]any); ok && len(candidates) > 0 {
		if candidate, ok := candidates[0].(map[string]any); ok {
			if content, ok := candidate["content"].(map[string]any); ok {
				if parts, ok := content["parts"].([]any); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]any); ok {
						if text, ok := part["text"].(string); ok {
							return text, nil
						}
					}
				}
			}
		}
	}

	return "", &ResponseParseError{
		Err:     fmt.Errorf("no text in any known response format"),
		Snippet: truncate(string(body), 300),
	}
}

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// parseTranslations extracts a JSON array of exactly want strings from the
// model's response text. Markdown code fences around the payload are
// stripped; prose around the array is tolerated.
func parseTranslations(content string, want int) ([]string, error) {
	content = strings.TrimSpace(content)

	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = strings.TrimSpace(m[1])
	}

	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		// Models sometimes wrap the array in prose — retry on the outermost
		// bracket pair before giving up.
		startIdx := strings.Index(content, "[")
		endIdx := strings.LastIndex(content, "]")
		if startIdx < 0 || endIdx <= startIdx {
			return nil, &ResponseParseError{Err: err, Snippet: truncate(content, 300)}
		}
		inner := content[startIdx : endIdx+1]
		if err2 := json.Unmarshal([]byte(inner), &parsed); err2 != nil {
			return nil, &ResponseParseError{Err: err2, Snippet: truncate(inner, 300)}
		}
	}

	arr, ok := parsed.([]any)
	if !ok {
		return nil, &ResponseShapeError{Want: want, Reason: fmt.Sprintf("expected a JSON array, got %T", parsed)}
	}
	if len(arr) != want {
		return nil, &ResponseShapeError{Want: want, Got: len(arr)}
	}

	out := make([]string, len(arr))
	for i, v := range arr {
		s, ok := v.(string)
		if !ok {
			return nil, &ResponseShapeError{
				Want:   want,
				Got:    len(arr),
				Reason: fmt.Sprintf("element %d is %T, not a string", i, v),
			}
		}
		out[i] = s
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// HTTPClient — the real provider boundary
// ---------------------------------------------------------------------------

// HTTPClient implements Client against an HTTP text-generation API. Each
// Translate call is a single attempt; retry policy lives in the pipeline.
type HTTPClient struct {
	// Provider is the service configuration.
	Provider Provider
	// SystemPrompt overrides DefaultSystemPrompt when non-empty. The
	// {{targetLang}} placeholder is substituted either way.
	SystemPrompt string
	// Verbose enables request logging to the standard logger.
	Verbose bool
}

// resolvedPrompt returns the system prompt with {{targetLang}} replaced.
func (c *HTTPClient) resolvedPrompt(lang string) string {
	prompt := c.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	return strings.ReplaceAll(prompt, "{{targetLang}}", languageName(lang))
}

// Translate sends one batch to the provider and parses the response into an
// equal-length string slice. Failures are classified as *ProviderError,
// *ResponseParseError, or *ResponseShapeError.
func (c *HTTPClient) Translate(ctx context.Context, batch []string, lang string) ([]string, error) {
	userPrompt, err := buildUserPrompt(batch, lang)
	if err != nil {
		return nil, err
	}

	endpoint, headers, body, err := buildHTTPRequest(c.Provider, c.resolvedPrompt(lang), userPrompt)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if c.Verbose {
		log.Printf("[DEBUG] %s: POST %s (%d strings, lang %s)", c.Provider.Name, endpoint, len(batch), lang)
	}

	client := makeHTTPClient(c.Provider.Proxy, c.Provider.effectiveTimeout())
	resp, err := client.Do(req)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}

	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Status: resp.StatusCode, Body: truncate(string(respBody), 500)}
	}

	text, err := extractResponseText(respBody)
	if err != nil {
		return nil, err
	}

	return parseTranslations(text, len(batch))
}

// truncate shortens s for inclusion in error messages and logs.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
