// Package state stores per-user conversation sessions for Telegram bots.
// Sessions carry an FSM state plus typed data and live either in memory or in Redis.
package state
