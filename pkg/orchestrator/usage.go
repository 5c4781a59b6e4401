package orchestrator

import "unicode/utf8"

// estimateTokens approximates a token count as one token per four runes.
func estimateTokens(s string) int {
	return utf8.RuneCountInString(s) / 4
}

func estimateUsage(prompt, completion string) Usage {
	p, c := estimateTokens(prompt), estimateTokens(completion)
	return Usage{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c}
}
