package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// AnthropicSSEEvents renders a completed Anthropic response as the
// message_start / content_block_* / message_delta / message_stop event
// sequence clients expect for stream:true responses. Used by
// background-mode delivery (openai-typed providers, or any provider once
// classification has already happened) to present a uniform stream to the
// client regardless of what the upstream actually spoke.
func AnthropicSSEEvents(resp AnthropicResponse) [][]byte {
	var events [][]byte

	events = append(events, sseEvent("message_start", map[string]interface{}{
		"type": "message_start",
		"message": map[string]interface{}{
			"id":    resp.ID,
			"type":  "message",
			"role":  "assistant",
			"model": resp.Model,
			"usage": resp.Usage,
		},
	}))

	for i, block := range resp.Content {
		events = append(events, sseEvent("content_block_start", map[string]interface{}{
			"type":          "content_block_start",
			"index":         i,
			"content_block": map[string]interface{}{"type": block.Type, "text": ""},
		}))
		events = append(events, sseEvent("content_block_delta", map[string]interface{}{
			"type":  "content_block_delta",
			"index": i,
			"delta": map[string]interface{}{"type": "text_delta", "text": block.Text},
		}))
		events = append(events, sseEvent("content_block_stop", map[string]interface{}{
			"type":  "content_block_stop",
			"index": i,
		}))
	}

	events = append(events, sseEvent("message_delta", map[string]interface{}{
		"type":  "message_delta",
		"delta": map[string]interface{}{"stop_reason": resp.StopReason},
		"usage": resp.Usage,
	}))
	events = append(events, sseEvent("message_stop", map[string]interface{}{
		"type": "message_stop",
	}))

	return events
}

func sseEvent(eventType string, payload interface{}) []byte {
	body, _ := json.Marshal(payload)
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, body))
}

// ReadOpenAISSE parses an OpenAI-style `data: {...}` chunk stream,
// accumulating the full text delta, used by background-mode aggregation
// before the openai->anthropic translation runs.
func ReadOpenAISSE(r io.Reader) (content string, finishReason string, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sb strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
				FinishReason string `json:"finish_reason"`
			} `json:"choices"`
		}
		if jsonErr := json.Unmarshal([]byte(data), &chunk); jsonErr != nil {
			continue
		}
		for _, c := range chunk.Choices {
			sb.WriteString(c.Delta.Content)
			if c.FinishReason != "" {
				finishReason = c.FinishReason
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return sb.String(), finishReason, err
	}
	return sb.String(), finishReason, nil
}
