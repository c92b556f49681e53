// Package logx configures the bot's structured logging.
//
// Logger is a small value type on top of zerolog that keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured and size-rotated
//   - Outputs swappable at runtime through Service.Apply (config hot reload)
package logx
