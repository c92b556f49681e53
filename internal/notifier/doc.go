// Package notifier delivers status messages to the configured chat.
//
// Delivery is best-effort: a failed send is logged and dropped, and the
// caller only learns whether it went through. There is no queue and no
// retry. The next poll cycle is the retry.
//
// # Throttling
//
// Sends pass through a token bucket (golang.org/x/time/rate) so a burst of
// distinct messages cannot trip Telegram's flood limits.
//
// # History
//
// The service keeps a small in-memory ring of delivered texts, and appends
// every attempt to the optional storage journal.
package notifier
