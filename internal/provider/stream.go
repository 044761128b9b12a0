package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type oaiStreamChunk struct {
	Choices []oaiStreamChoice `json:"choices"`
	Usage   *TokenUsage       `json:"usage,omitempty"`
}

type oaiStreamChoice struct {
	Delta        oaiStreamDelta `json:"delta"`
	FinishReason *string        `json:"finish_reason"`
}

type oaiStreamDelta struct {
	Content string `json:"content,omitempty"`
}

// parseSSEStream reads an SSE response body and emits StreamChunks on ch.
// It returns when the stream ends, either by [DONE] or an error.
func (c *Client) parseSSEStream(ctx context.Context, scanner *bufio.Scanner, ch chan<- StreamChunk) {
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			ch <- StreamChunk{Err: err}
			return
		}

		line := scanner.Text()

		// Some OpenAI-compatible gateways omit the space after "data:".
		var data string
		switch {
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimPrefix(line, "data:")
		default:
			continue
		}

		if data == "[DONE]" {
			return
		}

		var chunk oaiStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			ch <- StreamChunk{Err: fmt.Errorf("provider: parse SSE chunk: %w", err)}
			return
		}

		sc := StreamChunk{Usage: chunk.Usage}
		if len(chunk.Choices) > 0 {
			choice := chunk.Choices[0]
			sc.Content = choice.Delta.Content
			if choice.FinishReason != nil {
				sc.FinishReason = mapFinishReason(*choice.FinishReason)
			}
		}

		if sc.Content != "" || sc.FinishReason != "" || sc.Usage != nil {
			select {
			case ch <- sc:
			case <-ctx.Done():
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		// Do not classify caller cancellation as provider failure.
		if ctx.Err() != nil {
			ch <- StreamChunk{Err: ctx.Err()}
			return
		}
		ch <- StreamChunk{Err: fmt.Errorf("%w: stream read error: %w", ErrProviderDown, err)}
	}
}
