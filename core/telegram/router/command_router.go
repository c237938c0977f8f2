package router

import (
	"log/slog"
	"time"

	"github.com/Rzhek/TelegramHotelsBot/core/logger"
	tg "github.com/Rzhek/TelegramHotelsBot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes turns every registered command into a route that logs a handler summary.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, def := range reg.Commands() {
		handlerName := normalizeHandlerName(name)
		h := def.Handler
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler: func(c tele.Context) error {
				return handleWithSummary(c, handlerName, time.Now(), func() error { return h(c) })
			},
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(routes)),
	)
	return routes
}
