package protocol

import "fmt"

// finishReasonToAnthropic maps OpenAI finish reasons to Anthropic stop
// reasons.
func finishReasonToAnthropic(reason string) string {
	switch reason {
	case "stop":
		return "end_turn"
	case "length":
		return "max_tokens"
	case "tool_calls":
		return "tool_use"
	default:
		return reason
	}
}

func finishReasonToOpenAI(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	case "tool_use":
		return "tool_calls"
	default:
		return reason
	}
}

// ToOpenAIRequest translates a client-facing Anthropic request into the
// OpenAI chat-completions shape for an openai-typed provider, merging the
// system prompt into a leading system message as the OpenAI API expects.
func ToOpenAIRequest(req AnthropicRequest) OpenAIRequest {
	messages := make([]OpenAIMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, OpenAIMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, OpenAIMessage{Role: m.Role, Content: m.Content})
	}

	tools := make([]OpenAITool, 0, len(req.Tools))
	for _, t := range req.Tools {
		tools = append(tools, OpenAITool{
			Type: "function",
			Function: OpenAIFunctionSpec{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}

	return OpenAIRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      req.Stream,
		Tools:       tools,
		Stop:        req.StopSeqs,
	}
}

// FromOpenAIResponse translates an OpenAI chat-completions response back
// into the client-facing Anthropic shape.
func FromOpenAIResponse(model string, resp OpenAIResponse) (AnthropicResponse, error) {
	if len(resp.Choices) == 0 {
		return AnthropicResponse{}, fmt.Errorf("protocol: openai response has no choices")
	}
	choice := resp.Choices[0]

	return AnthropicResponse{
		ID:    resp.ID,
		Type:  "message",
		Role:  "assistant",
		Model: model,
		Content: []AnthropicContentBlock{
			{Type: "text", Text: choice.Message.Content},
		},
		StopReason: finishReasonToAnthropic(choice.FinishReason),
		Usage: AnthropicUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
