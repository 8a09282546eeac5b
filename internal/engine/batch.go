package engine

import "fmt"

// BatchEntry is one token submitted for evaluation.
type BatchEntry struct {
	Token Token
	Pos   int
	Seq   int
	// Logits requests output scores for this position.
	Logits bool
}

// Batch collects tokens for a single Decode call. It is reused across calls
// via Reset.
type Batch struct {
	entries []BatchEntry
}

// NewBatch returns an empty batch holding at most capacity tokens.
func NewBatch(capacity int) *Batch {
	if capacity < 1 {
		capacity = 1
	}
	return &Batch{entries: make([]BatchEntry, 0, capacity)}
}

// Add appends a token. It fails once the batch is full.
func (b *Batch) Add(tok Token, pos, seq int, logits bool) error {
	if len(b.entries) == cap(b.entries) {
		return fmt.Errorf("batch full (%d tokens)", cap(b.entries))
	}
	b.entries = append(b.entries, BatchEntry{Token: tok, Pos: pos, Seq: seq, Logits: logits})
	return nil
}

func (b *Batch) Reset() { b.entries = b.entries[:0] }
func (b *Batch) Len() int { return len(b.entries) }
func (b *Batch) Cap() int { return cap(b.entries) }
func (b *Batch) Entries() []BatchEntry { return b.entries }
