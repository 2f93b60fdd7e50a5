package protocol

import "testing"

func TestToOpenAIRequestMergesSystemPrompt(t *testing.T) {
	req := AnthropicRequest{
		Model:  "gpt-4o",
		System: "be terse",
		Messages: []AnthropicMessage{
			{Role: "user", Content: "hi"},
		},
	}

	out := ToOpenAIRequest(req)
	if len(out.Messages) != 2 {
		t.Fatalf("expected system + user message, got %d", len(out.Messages))
	}
	if out.Messages[0].Role != "system" || out.Messages[0].Content != "be terse" {
		t.Fatalf("expected leading system message, got %+v", out.Messages[0])
	}
}

func TestFromOpenAIResponseMapsFinishReason(t *testing.T) {
	resp := OpenAIResponse{
		ID: "chatcmpl-1",
		Choices: []OpenAIChoice{
			{Message: OpenAIMessage{Role: "assistant", Content: "hello"}, FinishReason: "stop"},
		},
		Usage: OpenAIUsage{PromptTokens: 3, CompletionTokens: 1},
	}

	out, err := FromOpenAIResponse("gpt-4o", resp)
	if err != nil {
		t.Fatalf("FromOpenAIResponse: %v", err)
	}
	if out.StopReason != "end_turn" {
		t.Fatalf("expected end_turn, got %q", out.StopReason)
	}
	if len(out.Content) != 1 || out.Content[0].Text != "hello" {
		t.Fatalf("unexpected content: %+v", out.Content)
	}
}

func TestFromOpenAIResponseErrorsOnNoChoices(t *testing.T) {
	if _, err := FromOpenAIResponse("gpt-4o", OpenAIResponse{}); err == nil {
		t.Fatal("expected an error for a response with no choices")
	}
}
