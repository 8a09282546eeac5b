package engine

import "strings"

// Greedy returns the index of the highest score. Ties go to the lowest index.
// ok is false for empty input.
func Greedy(logits []float32) (tok Token, ok bool) {
	if len(logits) == 0 {
		return 0, false
	}
	best := 0
	for i := 1; i < len(logits); i++ {
		if logits[i] > logits[best] {
			best = i
		}
	}
	return Token(best), true
}

// Decode runs the autoregressive loop for at most budget tokens (minimum 1),
// starting from the logits left by the previous Decode. It stops early on the
// end-of-sequence token or a chat control marker. n is the number of tokens
// appended to the output.
func Decode(ctx Context, v Vocab, budget int, cursor *int) (text string, n int, err error) {
	budget = max(1, budget)
	eos := v.EOS()
	b := NewBatch(1)
	var out strings.Builder
	for i := 0; i < budget; i++ {
		tok, ok := Greedy(ctx.Logits())
		if !ok {
			return "", n, errSample()
		}
		if tok == eos {
			break
		}
		piece, keep := DetokenizeOne(v, tok)
		if !keep {
			break
		}
		out.WriteString(piece)
		n++

		b.Reset()
		if err := b.Add(tok, *cursor, 0, true); err != nil {
			return "", n, errDecode(err)
		}
		if err := ctx.Decode(b); err != nil {
			return "", n, errDecode(err)
		}
		*cursor++
	}
	return out.String(), n, nil
}

// Budget is the number of tokens a request may generate: the requested count
// (or fallback when not positive), capped by the room left in a context of
// size ctxSize after promptLen tokens, and never below minBudget.
func Budget(requested, fallback, ctxSize, promptLen int) int {
	if requested <= 0 {
		requested = fallback
	}
	return max(minBudget, min(requested, ctxSize-promptLen))
}
