package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/sprite-ai/codemend/internal/model"
)

const (
	defaultGenerateTimeout = 60 * time.Second
	defaultTemperature     = 0.2
)

// ErrUnreachable indicates the Ollama server could not be reached.
var ErrUnreachable = errors.New("ollama server unreachable")

// OllamaEngine generates fixes with a local Ollama model.
type OllamaEngine struct {
	baseURL    string
	model      string
	httpClient *http.Client
	timeout    time.Duration
	logger     hclog.Logger
}

// NewOllamaEngine builds an engine. baseURL is the API root
// (e.g. http://localhost:11434). A nil httpClient uses a default client.
func NewOllamaEngine(baseURL, modelName string, httpClient *http.Client, logger hclog.Logger) *OllamaEngine {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &OllamaEngine{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      modelName,
		httpClient: httpClient,
		timeout:    defaultGenerateTimeout,
		logger:     logger,
	}
}

// SetTimeout overrides the per-call generation timeout.
func (e *OllamaEngine) SetTimeout(d time.Duration) {
	if d > 0 {
		e.timeout = d
	}
}

// IsAvailable GETs /api/tags and reports whether the server answered.
func (e *OllamaEngine) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.Debug("ollama availability probe failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// GenerateFix prompts the model and parses its free-text answer into a
// FixCandidate. Parsing failure is not an error; it returns (nil, nil).
func (e *OllamaEngine) GenerateFix(ctx context.Context, finding model.Finding, fctx FixContext) (*model.FixCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:   e.model,
		Prompt:  buildPrompt(finding, fctx),
		Stream:  false,
		Options: map[string]interface{}{"temperature": defaultTemperature},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", errors.Join(ErrUnreachable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama generate: %w: HTTP %d", ErrUnreachable, resp.StatusCode)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("ollama generate: parse response: %w", err)
	}

	fix := ParseFix(gr.Response)
	if fix == nil {
		e.logger.Debug("no fix extracted from model response", "finding", finding.ID)
		return nil, nil
	}
	fix.Kind = model.FixGenerated
	return fix, nil
}

// buildPrompt renders the finding and its code context into the repair prompt.
func buildPrompt(finding model.Finding, fctx FixContext) string {
	var b strings.Builder

	b.WriteString("You are fixing one specific defect in a source file.\n\n")
	fmt.Fprintf(&b, "File: %s\n", fctx.FilePath)
	fmt.Fprintf(&b, "Defect (%s, line %d): %s\n", finding.Category, finding.Line, finding.Message)
	if finding.Suggestion != "" {
		fmt.Fprintf(&b, "Hint: %s\n", finding.Suggestion)
	}
	if finding.Evidence != "" {
		fmt.Fprintf(&b, "Offending code: %s\n", finding.Evidence)
	}

	if len(fctx.Surrounding) > 0 {
		b.WriteString("\nSurrounding lines:\n")
		for i, line := range fctx.Surrounding {
			fmt.Fprintf(&b, "%4d | %s\n", fctx.WindowStart+i, line)
		}
	}

	b.WriteString(`
Respond with exactly one fix in this format:

SEARCH:
<the exact text to find, copied verbatim from the file>
REPLACE:
<the replacement text>

The SEARCH text must appear verbatim in the file. Keep it as small as possible.
`)
	return b.String()
}
