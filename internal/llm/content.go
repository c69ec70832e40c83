package llm

import "strings"

// Content is the body of a message: either PlainText or a BlockSequence.
type Content interface {
	isContent()
}

// PlainText is a message body made of a single string.
type PlainText string

// BlockSequence is an ordered list of heterogeneous content blocks.
type BlockSequence []Block

func (PlainText) isContent()     {}
func (BlockSequence) isContent() {}

// BlockKind tags whether a block carries answer text.
type BlockKind int

const (
	BlockOther BlockKind = iota
	BlockText
)

// Block is one element of a BlockSequence. Type keeps the provider's own
// label ("text", "thinking", "image", ...) for logging.
type Block struct {
	Kind BlockKind `json:"kind"`
	Type string    `json:"type"`
	Text string    `json:"text,omitempty"`
}

// TextBlock builds a text-bearing block.
func TextBlock(text string) Block {
	return Block{Kind: BlockText, Type: "text", Text: text}
}

// OtherBlock builds a non-text block of the given type.
func OtherBlock(typ string) Block {
	return Block{Kind: BlockOther, Type: typ}
}

// Normalize flattens content into the answer string. Only text blocks are
// kept, in order; everything else is dropped.
func Normalize(c Content) string {
	switch v := c.(type) {
	case nil:
		return ""
	case PlainText:
		return string(v)
	case BlockSequence:
		var b strings.Builder
		for _, block := range v {
			if block.Kind == BlockText {
				b.WriteString(block.Text)
			}
		}
		return b.String()
	default:
		return ""
	}
}
