// Package bots holds the concrete handler factories wired up in main.
package bots

import (
	"github.com/ojisan-dev/nostrbot/internal/bot"
)

// Salmon replies サーモン！ to any post starting with サモン！.
func Salmon() *bot.Handler {
	return &bot.Handler{
		Name:    "SalmonBot",
		Filter:  bot.Regex(`^サモン！`),
		Action:  bot.TextReply("サーモン！"),
		Enabled: true,
	}
}
