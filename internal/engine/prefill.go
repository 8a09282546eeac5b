package engine

import "errors"

// minBatchWidth is the smallest chunk Prefill submits.
const minBatchWidth = 32

// batchWidth returns the prefill chunk size for a configured batch size.
func batchWidth(n int) int {
	if n < minBatchWidth {
		return minBatchWidth
	}
	return n
}

// Prefill evaluates tokens in chunks of at most width on sequence 0, starting
// at *cursor. Only the final token of the whole prompt requests logits. The
// cursor advances after each accepted chunk, so on failure it points at the
// first token of the rejected chunk.
func Prefill(ctx Context, tokens []Token, width int, cursor *int) error {
	if len(tokens) == 0 {
		return errors.New("prefill: no tokens")
	}
	width = batchWidth(width)
	b := NewBatch(width)
	last := len(tokens) - 1
	for start := 0; start < len(tokens); start += width {
		end := min(start+width, len(tokens))
		b.Reset()
		for i := start; i < end; i++ {
			if err := b.Add(tokens[i], *cursor+(i-start), 0, i == last); err != nil {
				return err
			}
		}
		if err := ctx.Decode(b); err != nil {
			return err
		}
		*cursor += end - start
	}
	return nil
}
