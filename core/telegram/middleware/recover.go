package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/Rzhek/TelegramHotelsBot/core/logger"
	tghelpers "github.com/Rzhek/TelegramHotelsBot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// ErrPanic is returned by RecoverMiddleware when a handler panicked.
var ErrPanic = errors.New("handler panicked")

// RecoverMiddleware turns handler panics into ErrPanic and logs the stack.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.TG.LogAttrs(tghelpers.BuildContext(c), slog.LevelError, "panic recovered",
				slog.String("event", "tg.panic"),
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}()
		return next(c)
	}
}
