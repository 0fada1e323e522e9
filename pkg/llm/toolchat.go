package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ToolExecutor runs a named tool with JSON arguments and returns a JSON
// observation for the model.
type ToolExecutor interface {
	ExecuteTool(ctx context.Context, name string, arguments string) (string, error)
}

// chatCompleter is the slice of the OpenAI SDK the tool loop needs.
// *openai.Client satisfies it.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ToolStep records one tool invocation made during a chat.
type ToolStep struct {
	ToolName    string
	Arguments   string
	Observation string
}

// ToolChat drives a bounded, non-streaming tool-calling conversation.
// The model may call tools for at most MaxIterations rounds; after that the
// conversation is forced to a final answer.
type ToolChat struct {
	client        chatCompleter
	model         string
	tools         []openai.Tool
	executor      ToolExecutor
	maxIterations int
	logger        *zap.Logger

	// Steps accumulates tool invocations across Run calls.
	Steps []ToolStep
}

// ToolChatConfig holds dependencies for creating a ToolChat.
type ToolChatConfig struct {
	Client        *openai.Client
	Model         string
	Tools         []openai.Tool
	Executor      ToolExecutor
	MaxIterations int
	Logger        *zap.Logger
}

// NewToolChat creates a bounded tool-calling chat.
func NewToolChat(cfg *ToolChatConfig) *ToolChat {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 3
	}
	return &ToolChat{
		client:        cfg.Client,
		model:         cfg.Model,
		tools:         cfg.Tools,
		executor:      cfg.Executor,
		maxIterations: maxIter,
		logger:        cfg.Logger.Named("toolchat"),
	}
}

// Run sends the user message and loops until the model produces a plain
// answer or the iteration bound is reached. On the final iteration tools are
// withheld so the model must answer with what it has.
func (t *ToolChat) Run(ctx context.Context, systemMessage, userMessage string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
		{Role: openai.ChatMessageRoleUser, Content: userMessage},
	}

	for iteration := 0; iteration < t.maxIterations; iteration++ {
		req := openai.ChatCompletionRequest{
			Model:    t.model,
			Messages: messages,
		}
		if iteration < t.maxIterations-1 {
			req.Tools = t.tools
		}

		resp, err := t.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no choices in response")
		}

		choice := resp.Choices[0].Message
		if len(choice.ToolCalls) == 0 {
			return choice.Content, nil
		}

		messages = append(messages, choice)
		for _, call := range choice.ToolCalls {
			observation, err := t.executor.ExecuteTool(ctx, call.Function.Name, call.Function.Arguments)
			if err != nil {
				t.logger.Warn("tool execution failed",
					zap.String("tool", call.Function.Name),
					zap.Error(err))
				observation = fmt.Sprintf(`{"error": %q}`, err.Error())
			}

			t.Steps = append(t.Steps, ToolStep{
				ToolName:    call.Function.Name,
				Arguments:   call.Function.Arguments,
				Observation: observation,
			})
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    observation,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("no final answer after %d iterations", t.maxIterations)
}
