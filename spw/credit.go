package spw

// Flow-control limits.
const (
	// CharsPerFCT is the number of normal characters granted by one FCT.
	CharsPerFCT = 8
	// MaxTokens is the largest number of FCTs outstanding at once.
	MaxTokens = 7
	// MaxCredit is the largest credit either side may hold.
	MaxCredit = MaxTokens * CharsPerFCT
)

// MaxRxCredit returns the largest credit that may be advertised for an
// inbound queue of the given number of tokens.
func MaxRxCredit(tokens int) int {
	if tokens >= MaxTokens {
		return MaxCredit
	}
	if tokens <= 0 {
		return 0
	}
	return tokens * CharsPerFCT
}

// FifoDepth returns the inbound queue depth backing the given number of tokens.
func FifoDepth(tokens int) int {
	if tokens <= 0 {
		return 0
	}
	return tokens * CharsPerFCT
}
