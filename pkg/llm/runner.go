package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/retry"
)

// DefaultMaxToolIterations caps how many tool round trips the runner
// makes for a single question before giving up.
const DefaultMaxToolIterations = 5

// ToolExecutor executes a named tool call on behalf of the model and
// returns the observation fed back into the conversation.
type ToolExecutor interface {
	ExecuteTool(ctx context.Context, name string, arguments string) (string, error)
}

// Runner drives one question through the reasoning engine. The
// instructions string is the fully rendered prompt; the runner owns the
// tool-calling loop and returns the model's final natural-language
// answer. Implementations are bound to a credential at construction.
type Runner interface {
	Run(ctx context.Context, instructions string, tools []ToolDefinition, executor ToolExecutor) (string, error)
}

// toolCallRunner implements Runner over an OpenAI-compatible
// chat-completions API with native tool calling, falling back to
// text-format tool calls for models without it.
type toolCallRunner struct {
	client            *Client
	breaker           *CircuitBreaker
	retryCfg          *retry.Config
	maxToolIterations int
	logger            *zap.Logger
}

// NewRunner creates a tool-calling runner over the given client.
// The iteration ceiling defaults to DefaultMaxToolIterations.
func NewRunner(client *Client) Runner {
	return &toolCallRunner{
		client:            client,
		breaker:           NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		retryCfg:          retry.DefaultConfig(),
		maxToolIterations: DefaultMaxToolIterations,
		logger:            client.logger.Named("runner"),
	}
}

// Ensure toolCallRunner implements Runner at compile time.
var _ Runner = (*toolCallRunner)(nil)

// Run executes the tool-calling loop until the model answers without
// requesting a tool, or the iteration ceiling is hit.
func (r *toolCallRunner) Run(ctx context.Context, instructions string, tools []ToolDefinition, executor ToolExecutor) (string, error) {
	runID := uuid.New()
	start := time.Now()
	prefix := debugWriteRun(runID, r.client.model, instructions)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: instructions},
	}
	oaiTools := buildOpenAITools(tools)

	for iteration := 0; iteration < r.maxToolIterations; iteration++ {
		r.logger.Debug("Run iteration",
			zap.String("run_id", runID.String()),
			zap.Int("iteration", iteration),
			zap.Int("message_count", len(messages)))

		resp, err := r.complete(ctx, messages, oaiTools)
		if err != nil {
			debugWriteOutcome(prefix, r.client.model, "ERROR: "+err.Error(), time.Since(start).Milliseconds())
			return "", err
		}

		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no choices in response")
		}

		choice := resp.Choices[0]
		content := choice.Message.Content

		// Prefer native tool calls; fall back to parsing text-format
		// calls for models without native tool calling
		var toolCalls []ToolCall
		if len(choice.Message.ToolCalls) == 0 && content != "" {
			toolCalls = r.parseTextToolCalls(content)
			if len(toolCalls) > 0 {
				content = cleanModelOutput(content)
			}
		} else {
			for _, tc := range choice.Message.ToolCalls {
				toolCalls = append(toolCalls, ToolCall{
					ID:   tc.ID,
					Type: string(tc.Type),
					Function: ToolCallFunc{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
		}

		// No tool calls means the model produced its final answer
		if len(toolCalls) == 0 {
			answer := cleanModelOutput(content)
			r.logger.Info("Run completed",
				zap.String("run_id", runID.String()),
				zap.Int("iterations", iteration+1),
				zap.Duration("elapsed", time.Since(start)))
			debugWriteOutcome(prefix, r.client.model, answer, time.Since(start).Milliseconds())
			return answer, nil
		}

		assistantMsg := openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: content,
		}
		for _, tc := range toolCalls {
			assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		messages = append(messages, assistantMsg)

		for _, tc := range toolCalls {
			result, execErr := executor.ExecuteTool(ctx, tc.Function.Name, tc.Function.Arguments)
			if execErr != nil {
				// Tool faults go back to the model as observations,
				// never up the stack
				result = fmt.Sprintf("Error executing tool: %s", execErr.Error())
			}

			r.logger.Debug("Tool executed",
				zap.String("run_id", runID.String()),
				zap.String("tool", tc.Function.Name),
				zap.Int("result_len", len(result)))

			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	err := fmt.Errorf("%w (%d)", ErrToolIterationsExceeded, r.maxToolIterations)
	debugWriteOutcome(prefix, r.client.model, "ERROR: "+err.Error(), time.Since(start).Milliseconds())
	return "", err
}

// complete performs one completion round trip with retry and circuit
// breaking. Only provider-side faults count against the breaker, so a
// bad API key fails fast instead of tripping it.
func (r *toolCallRunner) complete(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionResponse, error) {
	var resp openai.ChatCompletionResponse

	if ok, allowErr := r.breaker.Allow(); !ok {
		return resp, allowErr
	}

	err := retry.DoIfRetryable(ctx, r.retryCfg, func() error {
		var callErr error
		resp, callErr = r.client.createChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    r.client.model,
			Messages: messages,
			Tools:    tools,
			// Deterministic answers. The field is omitempty so a literal
			// zero never reaches the wire; the smallest nonzero float is
			// how go-openai expresses temperature 0.
			Temperature: math.SmallestNonzeroFloat32,
		})
		return callErr
	})
	if err != nil {
		if IsRetryable(err) {
			r.breaker.RecordFailure()
		}
		return resp, err
	}

	r.breaker.RecordSuccess()
	return resp, nil
}

// toolCallPattern matches text-format tool calls:
// <tool_call>{"name": "...", "arguments": {...}}</tool_call>
var toolCallPattern = regexp.MustCompile(`<tool_call>\s*(\{[\s\S]*?\})\s*</tool_call>`)

// multiNewlinePattern collapses runs of blank lines left over after
// stripping markup.
var multiNewlinePattern = regexp.MustCompile(`\n{3,}`)

// parseTextToolCalls parses tool calls from text output, for models that
// emit tool-call markup instead of using the native API field.
func (r *toolCallRunner) parseTextToolCalls(content string) []ToolCall {
	var toolCalls []ToolCall

	matches := toolCallPattern.FindAllStringSubmatch(content, -1)
	for i, match := range matches {
		if len(match) < 2 {
			continue
		}

		var toolCallJSON struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		}

		if err := json.Unmarshal([]byte(match[1]), &toolCallJSON); err != nil {
			r.logger.Debug("Failed to parse text tool call", zap.Error(err))
			continue
		}

		argsJSON, err := json.Marshal(toolCallJSON.Arguments)
		if err != nil {
			continue
		}

		toolCalls = append(toolCalls, ToolCall{
			ID:   fmt.Sprintf("text_tool_%d", i),
			Type: "function",
			Function: ToolCallFunc{
				Name:      toolCallJSON.Name,
				Arguments: string(argsJSON),
			},
		})
	}

	return toolCalls
}

// cleanModelOutput removes tool call markup and thinking blocks from
// model output before it is surfaced as an answer.
func cleanModelOutput(content string) string {
	content = thinkContentPattern.ReplaceAllString(content, "")
	content = toolCallPattern.ReplaceAllString(content, "")
	content = multiNewlinePattern.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
