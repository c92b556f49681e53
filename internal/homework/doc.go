// Package homework validates the homework status payload and renders review
// verdicts as chat messages.
//
// Both operations are pure: they never log and never touch the network.
package homework
