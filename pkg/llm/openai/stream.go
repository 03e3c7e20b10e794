package openai

import (
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/ssestream"
)

// chunkStream skips chunks that carry no content delta.
type chunkStream struct {
	s       *ssestream.Stream[sdk.ChatCompletionChunk]
	current string
}

func (c *chunkStream) Next() bool {
	for c.s.Next() {
		chunk := c.s.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		c.current = chunk.Choices[0].Delta.Content
		return true
	}
	return false
}

func (c *chunkStream) Current() string { return c.current }
func (c *chunkStream) Err() error      { return c.s.Err() }
func (c *chunkStream) Close() error    { return c.s.Close() }
