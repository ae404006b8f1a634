package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Client abstracts the model provider behind the pipeline's analysis step.
// documentRef is a blob store reference to the submitted resume.
type Client interface {
	Feedback(ctx context.Context, documentRef string, instructions string) (*Response, error)
}

// Response is the provider reply envelope.
type Response struct {
	Message Message `json:"message"`
}

// Message carries the model output.
type Message struct {
	Content Content `json:"content"`
}

// Block is one element of a block-style content payload.
type Block struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

// Content is a two-variant union: either a plain string or a list of
// content blocks. Exactly one variant is set.
type Content struct {
	Text   string
	Blocks []Block

	isText bool
}

// TextContent returns a plain-string content value.
func TextContent(text string) Content {
	return Content{Text: text, isText: true}
}

// BlockContent returns a block-list content value.
func BlockContent(blocks ...Block) Content {
	return Content{Blocks: blocks}
}

// FirstText returns the plain string, or the text of the first block when
// the block variant is set.
func (c Content) FirstText() (string, error) {
	if c.isText {
		return c.Text, nil
	}
	if len(c.Blocks) == 0 {
		return "", errors.New("content has no blocks")
	}
	return c.Blocks[0].Text, nil
}

// MarshalJSON encodes the active variant.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.isText {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Blocks)
}

// UnmarshalJSON accepts either a JSON string or an array of blocks.
func (c *Content) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*c = TextContent(text)
		return nil
	}
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("content is neither string nor block array: %w", err)
	}
	*c = Content{Blocks: blocks}
	return nil
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("inference provider not configured")

// PlaceholderClient stands in when no provider is wired.
type PlaceholderClient struct{}

// Feedback returns ErrNotConfigured.
func (PlaceholderClient) Feedback(ctx context.Context, documentRef string, instructions string) (*Response, error) {
	_ = ctx
	_ = documentRef
	_ = instructions
	return nil, ErrNotConfigured
}
