// Package telegram holds helpers shared by the Telegram drivers.
package telegram

import "strings"

// TextLimit stays below the Bot API 4096 character cap to leave room for entities.
const TextLimit = 4000

// DefaultAPIURL is the public Bot API server.
const DefaultAPIURL = "https://api.telegram.org"

// SplitText splits s into chunks of at most limit runes, preferring newline
// boundaries. Text is sent without parse mode, so no markup needs protecting.
func SplitText(s string, limit int) []string {
	if limit <= 0 {
		limit = TextLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := min(start+limit, len(rs))
		if end < len(rs) {
			if cut := newlineCut(rs, start, end, limit); cut != -1 {
				end = cut
			}
		}

		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))

		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

// newlineCut returns the index just past the last newline in the window,
// or -1 when that would leave a chunk shorter than a third of the limit.
func newlineCut(rs []rune, start, end, limit int) int {
	for i := end - 1; i > start; i-- {
		if rs[i] != '\n' {
			continue
		}
		if i-start >= limit/3 {
			return i + 1
		}
		return -1
	}
	return -1
}

// APIBase normalises a configured Bot API URL, falling back to the public server.
func APIBase(raw string) string {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	if s == "" {
		return DefaultAPIURL
	}
	return s
}
