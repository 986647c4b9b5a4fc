package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/ports"
	"github.com/samirrijal/geoquery/internal/pkg/metrics"
)

// Config configures the chat completions client.
type Config struct {
	BaseURL     string
	Model       string
	APIKey      string
	Timeout     time.Duration
	Temperature float64
}

// Client implements ports.LanguageModel against an OpenAI-compatible
// /chat/completions endpoint using forced tool calls for structured output.
type Client struct {
	http *fasthttp.Client
	cfg  Config
	url  string
}

// New creates a new Client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		http: &fasthttp.Client{
			Name:                "geoquery",
			MaxConnsPerHost:     32,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: time.Minute,
		},
		cfg: cfg,
		url: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

type chatRequest struct {
	Model       string          `json:"model"`
	Messages    []ports.Message `json:"messages"`
	Temperature float64         `json:"temperature"`
	Tools       []tool          `json:"tools"`
	ToolChoice  toolChoice      `json:"tool_choice"`
}

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

type toolChoice struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Infer sends messages and decodes the tool call arguments into a GeoQuery
// candidate. Transport and HTTP failures are returned as errors; output that
// cannot be decoded is reported through Inference.ParsingError.
func (c *Client) Infer(ctx context.Context, messages []ports.Message) (*ports.Inference, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		Tools: []tool{{
			Type: "function",
			Function: toolFunction{
				Name:        ToolName,
				Description: "Record the structured interpretation of the location query",
				Parameters:  GeoQuerySchema(),
			},
		}},
		ToolChoice: toolChoice{Type: "function", Function: toolFunction{Name: ToolName}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	raw, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return &ports.Inference{Raw: string(raw), ParsingError: fmt.Errorf("decode response: %w", err)}, nil
	}
	if len(resp.Choices) == 0 {
		return &ports.Inference{Raw: string(raw), ParsingError: errors.New("response has no choices")}, nil
	}

	msg := resp.Choices[0].Message
	args := msg.Content
	for _, call := range msg.ToolCalls {
		if call.Function.Name == ToolName {
			args = call.Function.Arguments
			break
		}
	}
	return decodeCandidate(args), nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	req.SetBodyRaw(body)

	start := time.Now()
	err := c.http.DoTimeout(req, resp, timeout)
	metrics.LLMDuration.WithLabelValues(c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("chat completions request: %w", err)
	}

	out := append([]byte(nil), resp.Body()...)
	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		var apiErr chatResponse
		if json.Unmarshal(out, &apiErr) == nil && apiErr.Error != nil {
			return nil, fmt.Errorf("chat completions returned %d: %s", status, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("chat completions returned %d", status)
	}
	return out, nil
}

// decodeCandidate validates raw tool arguments against the schema and
// decodes them into a GeoQuery.
func decodeCandidate(raw string) *ports.Inference {
	inf := &ports.Inference{Raw: raw}
	text := stripFences(raw)
	if text == "" {
		inf.ParsingError = errors.New("model returned no arguments")
		return inf
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(text), &args); err != nil {
		inf.ParsingError = fmt.Errorf("arguments are not a JSON object: %w", err)
		return inf
	}
	if err := validateArguments(args); err != nil {
		inf.ParsingError = fmt.Errorf("arguments do not match schema: %w", err)
		return inf
	}

	var q domain.GeoQuery
	if err := json.Unmarshal([]byte(text), &q); err != nil {
		inf.ParsingError = fmt.Errorf("decode arguments: %w", err)
		return inf
	}
	inf.Candidate = &q
	return inf
}

// stripFences removes a surrounding markdown code fence, which some models
// add when answering in plain content.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
