// Package storage keeps an optional append-only journal of notification
// attempts. Nothing in the bot reads it back: it exists for operators who
// want to know what was sent and when, across restarts.
package storage
