package engine

const (
	tokenSlack = 16
	probeBytes = 64
	pieceBytes = 256
)

// controlMarkers end generation when the model emits them.
var controlMarkers = map[string]struct{}{
	imEnd:           {},
	imStart:         {},
	"<|assistant|>": {},
	"<|user|>":      {},
	"<|system|>":    {},
}

// Tokenize converts text into tokens, adding the leading special token and
// parsing control sequences. A too-small first buffer is retried once at the
// size the vocabulary asks for. It returns nil on failure.
func Tokenize(v Vocab, text string) []Token {
	res := v.Tokenize(text, len(text)+tokenSlack, true, true)
	if res.Need > 0 {
		res = v.Tokenize(text, res.Need, true, true)
	}
	if res.Need > 0 || len(res.Tokens) == 0 {
		return nil
	}
	return res.Tokens
}

// DetokenizeOne renders tok for output. ok is false when tok is a chat
// control marker, in which case generation should stop.
func DetokenizeOne(v Vocab, tok Token) (text string, ok bool) {
	probe := v.Piece(tok, probeBytes, true)
	if probe.Need == 0 && probe.Text != "" {
		if _, stop := controlMarkers[probe.Text]; stop {
			return "", false
		}
	}
	r := v.Piece(tok, pieceBytes, false)
	if r.Need > 0 {
		r = v.Piece(tok, r.Need, false)
	}
	if r.Need > 0 {
		return "", true
	}
	return r.Text, true
}
