// Package bot wires the hotel search commands into the telegram runtime.
package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Rzhek/TelegramHotelsBot/core/logger"
	tg "github.com/Rzhek/TelegramHotelsBot/core/telegram"
	"github.com/Rzhek/TelegramHotelsBot/core/telegram/commands"
	tghelpers "github.com/Rzhek/TelegramHotelsBot/core/telegram/helpers"
	"github.com/Rzhek/TelegramHotelsBot/core/telegram/keyboard"
	"github.com/Rzhek/TelegramHotelsBot/core/telegram/router"
	"github.com/Rzhek/TelegramHotelsBot/internal/conversation"
	"github.com/Rzhek/TelegramHotelsBot/internal/hotels"
	"github.com/Rzhek/TelegramHotelsBot/internal/presenter"

	tele "gopkg.in/telebot.v4"
)

// Conversations is the search dialogue the bot drives.
type Conversations interface {
	Start(ctx context.Context, m conversation.Messenger, userID int64, cmd hotels.Command) (conversation.Outcome, error)
	Handle(ctx context.Context, m conversation.Messenger, userID int64, text string) (conversation.Outcome, error)
	Abort(ctx context.Context, userID int64) (bool, error)
	InProgress(ctx context.Context, userID int64) bool
}

// HistoryReader lists a user's past searches.
type HistoryReader interface {
	ListRequests(ctx context.Context, userID int64) ([]hotels.Request, error)
}

// Bot holds the command handlers.
type Bot struct {
	conv    Conversations
	history HistoryReader
}

// New builds a Bot.
func New(conv Conversations, history HistoryReader) *Bot {
	return &Bot{conv: conv, history: history}
}

// Register adds every command to reg and installs the unknown-text fallback.
func (b *Bot) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     b.handleStart,
		Description: "Say hello",
		Aliases:     []string{"hi", "hello", "hey"},
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     b.handleHelp,
		Description: "Show the list of commands",
	})
	reg.RegisterCommand(string(hotels.CommandLowPrice), commands.Command{
		Handler:     b.searchHandler(hotels.CommandLowPrice),
		Description: "Show top cheap hotels",
	})
	reg.RegisterCommand(string(hotels.CommandHighPrice), commands.Command{
		Handler:     b.searchHandler(hotels.CommandHighPrice),
		Description: "Show top premium hotels",
	})
	reg.RegisterCommand("/history", commands.Command{
		Handler:     b.handleHistory,
		Description: "Show the history of requested hotels",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     b.handleCancel,
		Description: "Cancel the current search",
		Hidden:      true,
	})
	reg.SetTextFallback(b.Unknown)
}

// Routes returns the command and text routes for reg.
func (b *Bot) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg)
	return append(routes, router.TextRoutes(b, reg, router.TextOptions{UnknownText: b.Unknown})...)
}

// InProgress reports whether text from userID belongs to a search dialogue.
func (b *Bot) InProgress(ctx context.Context, userID int64) bool {
	return b.conv.InProgress(ctx, userID)
}

// ManagerHandler feeds text into the user's search dialogue.
func (b *Bot) ManagerHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	out, err := b.conv.Handle(ctx, messenger{c}, c.Sender().ID, c.Text())
	outcome(c, out)
	return err
}

// Unknown answers text the bot cannot route.
func (b *Bot) Unknown(c tele.Context) error {
	return c.Send(presenter.TextUnknown)
}

// RateLimited tells the user to slow down.
func (b *Bot) RateLimited(c tele.Context) error {
	return c.Send(presenter.TextRateLimited)
}

func menu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{string(hotels.CommandLowPrice), string(hotels.CommandHighPrice)},
		[]string{"/history", "/help"},
	)
}

func (b *Bot) handleStart(c tele.Context) error {
	b.abort(c)
	return c.Send(presenter.Greeting(tghelpers.FullName(c.Sender())), menu())
}

func (b *Bot) handleHelp(c tele.Context) error {
	b.abort(c)
	return c.Send(presenter.TextHelp, menu())
}

func (b *Bot) searchHandler(cmd hotels.Command) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Sender() == nil {
			return nil
		}
		ctx := tghelpers.BuildContext(c)
		out, err := b.conv.Start(ctx, messenger{c}, c.Sender().ID, cmd)
		outcome(c, out)
		return err
	}
}

func (b *Bot) handleHistory(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	b.abort(c)
	ctx := tghelpers.BuildContext(c)
	reqs, err := b.history.ListRequests(ctx, c.Sender().ID)
	if err != nil {
		logger.Error(ctx, logger.CompHistory, "history.list_failed", logger.Err(err)...)
		router.Outcome(c, string(conversation.OutcomeFail))
		return c.Send(presenter.TextHistoryFailed)
	}
	logger.Debug(ctx, logger.CompHistory, "history.listed", slog.Int("requests", len(reqs)))
	for _, text := range presenter.HistoryMessages(reqs) {
		if err := c.Send(text); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handleCancel(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	ok, err := b.conv.Abort(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	if !ok {
		return c.Send(presenter.TextNothingPending, menu())
	}
	router.Outcome(c, string(conversation.OutcomeCancelled))
	return c.Send(presenter.TextCancelled, menu())
}

// abort drops a search in progress when another command arrives.
func (b *Bot) abort(c tele.Context) {
	if c.Sender() == nil {
		return
	}
	ctx := tghelpers.BuildContext(c)
	if _, err := b.conv.Abort(ctx, c.Sender().ID); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn(ctx, logger.CompConversation, "search.abort_failed", logger.Err(err)...)
	}
}

func outcome(c tele.Context, out conversation.Outcome) {
	if out != conversation.OutcomeNone {
		router.Outcome(c, string(out))
	}
}
