package telegram

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/Rzhek/TelegramHotelsBot/core/logger"
	"github.com/Rzhek/TelegramHotelsBot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds bot commands, their plain-text aliases and the text fallback.
type Registry struct {
	commands     map[string]commands.Command
	aliases      map[string]string
	textFallback tele.HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]commands.Command),
		aliases:  make(map[string]string),
	}
}

// RegisterCommand adds cmd under name, which must start with a slash.
// Invalid or duplicate registrations are logged and ignored.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	name = strings.ToLower(strings.TrimSpace(name))
	skip := func(reason string) {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("command", name),
			slog.String("reason", reason),
		)
	}
	switch {
	case name == "" || cmd.Handler == nil || cmd.Description == "":
		skip("invalid")
		return
	case !strings.HasPrefix(name, "/"):
		skip("no_slash_prefix")
		return
	}
	if _, exists := r.commands[name]; exists {
		skip("duplicate")
		return
	}
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases {
		alias = normalizeAlias(alias)
		if alias == "" {
			continue
		}
		if owner, taken := r.aliases[alias]; taken {
			logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.alias.duplicate",
				slog.String("command", name),
				slog.String("alias", alias),
				slog.String("owner", owner),
			)
			continue
		}
		r.aliases[alias] = name
	}
}

// ListCommands returns the commands for the Telegram menu, optionally without hidden ones.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	list := make([]tele.Command, 0, len(r.commands))
	for name, meta := range r.commands {
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves free text to a command. It matches "/name" and
// registered aliases case-insensitively after trimming whitespace. A bare
// command name without the slash is not a match unless it is an alias.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return "", commands.Command{}, false
	}
	if !strings.HasPrefix(key, "/") {
		if owner, ok := r.aliases[key]; ok {
			return owner, r.commands[owner], true
		}
		return "", commands.Command{}, false
	}
	if cmd, ok := r.commands[key]; ok {
		return key, cmd, true
	}
	return "", commands.Command{}, false
}

// Commands returns all registered commands keyed by their slash name.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// SetTextFallback sets the handler for text that matches nothing else.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// InitBotCommands publishes the visible commands to the Telegram menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	if err := bot.SetCommands(reg.ListCommands(true)); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}

func normalizeAlias(alias string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(alias)), "/")
}
