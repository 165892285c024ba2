package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-tutoring-be/pkg/llm"
)

type GeminiProvider struct {
	APIKey    string
	ModelName string
	Client    *http.Client
}

var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(apiKey, modelName string, timeout time.Duration) *GeminiProvider {
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	return &GeminiProvider{
		APIKey:    apiKey,
		ModelName: modelName,
		Client:    &http.Client{Timeout: timeout},
	}
}

// --- Request/Response structs ---

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiChatRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"system_instruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiChatResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// --- Interface implementation ---

func (g *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	resp, err := g.send(ctx, history, false, opts)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", llm.ErrGenerationFailed, err)
	}

	var geminiResp geminiChatResponse
	if err := json.Unmarshal(bodyBytes, &geminiResp); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %v", llm.ErrGenerationFailed, err)
	}
	if len(geminiResp.Candidates) == 0 {
		return "", fmt.Errorf("%w: gemini returned no candidates", llm.ErrGenerationFailed)
	}

	return candidateText(geminiResp.Candidates[0]), nil
}

// ChatStream consumes Gemini's SSE stream (alt=sse), forwarding each text
// fragment in arrival order. Completion is the candidate's finishReason.
func (g *GeminiProvider) ChatStream(ctx context.Context, history []llm.Message, onFragment llm.FragmentFunc, opts ...llm.Option) (string, error) {
	resp, err := g.send(ctx, history, true, opts)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	completed := false

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var frame geminiChatResponse
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			return "", fmt.Errorf("%w: decode stream frame: %v", llm.ErrGenerationFailed, err)
		}
		if len(frame.Candidates) == 0 {
			continue
		}

		if text := candidateText(frame.Candidates[0]); text != "" {
			full.WriteString(text)
			if err := onFragment(text); err != nil {
				return "", err
			}
		}
		if frame.Candidates[0].FinishReason != "" {
			completed = true
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: stream read: %v", llm.ErrGenerationFailed, err)
	}
	if !completed {
		return "", fmt.Errorf("%w: stream ended without finish reason", llm.ErrGenerationFailed)
	}

	return full.String(), nil
}

func (g *GeminiProvider) send(ctx context.Context, history []llm.Message, stream bool, opts []llm.Option) (*http.Response, error) {
	options := llm.ApplyOptions(opts)

	apiKey := g.APIKey
	if options.APIKey != "" {
		apiKey = options.APIKey
	}
	model := g.ModelName
	if options.Model != "" {
		model = options.Model
	}

	payload := geminiChatRequest{
		GenerationConfig: &geminiGenerationConfig{
			Temperature: options.Temperature,
		},
	}
	if options.MaxTokens > 0 {
		payload.GenerationConfig.MaxOutputTokens = options.MaxTokens
	}

	for _, msg := range history {
		// Gemini has no system role inside contents; the system prompt
		// rides in system_instruction.
		if msg.Role == "system" {
			payload.SystemInstruction = &geminiContent{
				Parts: []geminiPart{{Text: msg.Content}},
			}
			continue
		}

		role := msg.Role
		if role == "assistant" {
			role = "model"
		}

		parts := []geminiPart{{Text: msg.Content}}
		for _, img := range msg.Images {
			parts = append(parts, geminiPart{
				InlineData: &geminiInlineData{
					MimeType: "image/jpeg",
					Data:     img,
				},
			})
		}
		payload.Contents = append(payload.Contents, geminiContent{Role: role, Parts: parts})
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	verb := "generateContent"
	if stream {
		verb = "streamGenerateContent?alt=sse"
	}
	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:%s",
		model, verb,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini request: %v", llm.ErrGenerationFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%w: gemini status %d: %s", llm.ErrGenerationFailed, resp.StatusCode, string(bodyBytes))
	}

	return resp, nil
}

func candidateText(c geminiCandidate) string {
	var b strings.Builder
	for _, part := range c.Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}
