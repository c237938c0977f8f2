package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	tg "github.com/Rzhek/TelegramHotelsBot/core/telegram"
	"github.com/Rzhek/TelegramHotelsBot/internal/conversation"
	"github.com/Rzhek/TelegramHotelsBot/internal/hotels"
	"github.com/Rzhek/TelegramHotelsBot/internal/presenter"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	store  map[string]any
	update tele.Update
	sent   []any
}

func newFakeContext(userID int64, text string) *fakeContext {
	msg := &tele.Message{
		Sender: &tele.User{ID: userID, FirstName: "John", LastName: "Smith"},
		Chat:   &tele.Chat{ID: userID},
		Text:   text,
	}
	return &fakeContext{store: map[string]any{}, update: tele.Update{ID: 1, Message: msg}}
}

func (f *fakeContext) Get(k string) any    { return f.store[k] }
func (f *fakeContext) Set(k string, v any) { f.store[k] = v }
func (f *fakeContext) Update() tele.Update { return f.update }
func (f *fakeContext) Message() *tele.Message {
	return f.update.Message
}
func (f *fakeContext) Sender() *tele.User { return f.update.Message.Sender }
func (f *fakeContext) Chat() *tele.Chat   { return f.update.Message.Chat }
func (f *fakeContext) Text() string       { return f.update.Message.Text }
func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}
func (f *fakeContext) SendAlbum(a tele.Album, _ ...any) error {
	f.sent = append(f.sent, a)
	return nil
}

func (f *fakeContext) lastText() string {
	if len(f.sent) == 0 {
		return ""
	}
	s, _ := f.sent[len(f.sent)-1].(string)
	return s
}

type fakeConversations struct {
	active   map[int64]bool
	started  []hotels.Command
	handled  []string
	aborted  int
	startOut conversation.Outcome
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{active: map[int64]bool{}, startOut: conversation.OutcomeOK}
}

func (f *fakeConversations) Start(_ context.Context, m conversation.Messenger, userID int64, cmd hotels.Command) (conversation.Outcome, error) {
	f.started = append(f.started, cmd)
	f.active[userID] = true
	return f.startOut, m.SendText(presenter.TextAskCity)
}

func (f *fakeConversations) Handle(_ context.Context, m conversation.Messenger, _ int64, text string) (conversation.Outcome, error) {
	f.handled = append(f.handled, text)
	return conversation.OutcomeReprompt, m.SendText("handled " + text)
}

func (f *fakeConversations) Abort(_ context.Context, userID int64) (bool, error) {
	was := f.active[userID]
	if was {
		f.aborted++
	}
	delete(f.active, userID)
	return was, nil
}

func (f *fakeConversations) InProgress(_ context.Context, userID int64) bool {
	return f.active[userID]
}

type fakeHistory struct {
	reqs []hotels.Request
	err  error
}

func (f *fakeHistory) ListRequests(context.Context, int64) ([]hotels.Request, error) {
	return f.reqs, f.err
}

func setup(t *testing.T) (*Bot, *fakeConversations, *fakeHistory, *tg.Registry) {
	t.Helper()
	conv := newFakeConversations()
	hist := &fakeHistory{}
	b := New(conv, hist)
	reg := tg.NewRegistry()
	b.Register(reg)
	return b, conv, hist, reg
}

func textHandler(t *testing.T, b *Bot, reg *tg.Registry) tele.HandlerFunc {
	t.Helper()
	for _, r := range b.Routes(reg) {
		if r.Endpoint == tele.OnText {
			return r.Handler
		}
	}
	t.Fatalf("no text route")
	return nil
}

func TestRegisterCommands(t *testing.T) {
	_, _, _, reg := setup(t)
	for _, name := range []string{"/start", "/help", "/lowprice", "/highprice", "/history", "/cancel"} {
		if _, ok := reg.Commands()[name]; !ok {
			t.Fatalf("command %s not registered", name)
		}
	}
	for _, c := range reg.ListCommands(true) {
		if c.Text == "cancel" {
			t.Fatalf("cancel should be hidden from the menu")
		}
	}
	for _, alias := range []string{"hi", "Hello", " hey "} {
		if key, _, ok := reg.LookupCommand(alias); !ok || key != "/start" {
			t.Fatalf("alias %q resolved to %q, %v", alias, key, ok)
		}
	}
}

func TestStartGreetsAndAborts(t *testing.T) {
	_, conv, _, reg := setup(t)
	conv.active[1] = true
	c := newFakeContext(1, "/start")
	if err := reg.Commands()["/start"].Handler(c); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := c.lastText(); got != "👋 Hi, John Smith" {
		t.Fatalf("greeting = %q", got)
	}
	if conv.aborted != 1 {
		t.Fatalf("expected active search aborted")
	}
}

func TestSearchCommandsStartConversation(t *testing.T) {
	_, conv, _, reg := setup(t)
	c := newFakeContext(2, "/highprice")
	if err := reg.Commands()["/highprice"].Handler(c); err != nil {
		t.Fatalf("highprice: %v", err)
	}
	if len(conv.started) != 1 || conv.started[0] != hotels.CommandHighPrice {
		t.Fatalf("started = %v", conv.started)
	}
	if c.lastText() != presenter.TextAskCity {
		t.Fatalf("expected city prompt, got %q", c.lastText())
	}
	if got, _ := c.Get("handler_outcome").(string); got != "ok" {
		t.Fatalf("outcome = %q", got)
	}
}

func TestTextRouting(t *testing.T) {
	b, conv, _, reg := setup(t)
	h := textHandler(t, b, reg)

	c := newFakeContext(3, "hello")
	if err := h(c); err != nil {
		t.Fatalf("alias: %v", err)
	}
	if !strings.HasPrefix(c.lastText(), "👋 Hi") {
		t.Fatalf("expected greeting for alias, got %q", c.lastText())
	}

	c = newFakeContext(3, "what is this")
	if err := h(c); err != nil {
		t.Fatalf("unknown: %v", err)
	}
	if c.lastText() != presenter.TextUnknown {
		t.Fatalf("expected unknown reply, got %q", c.lastText())
	}

	c = newFakeContext(3, "lowprice")
	if err := h(c); err != nil {
		t.Fatalf("bare command: %v", err)
	}
	if c.lastText() != presenter.TextUnknown || len(conv.started) != 0 {
		t.Fatalf("bare command name must not start a search, got %q", c.lastText())
	}

	conv.active[3] = true
	c = newFakeContext(3, "Paris")
	if err := h(c); err != nil {
		t.Fatalf("fsm: %v", err)
	}
	if len(conv.handled) != 1 || conv.handled[0] != "Paris" {
		t.Fatalf("expected text routed to conversation, got %v", conv.handled)
	}
	if got, _ := c.Get("handler_outcome").(string); got != "reprompt" {
		t.Fatalf("outcome = %q", got)
	}
}

func TestHistory(t *testing.T) {
	_, _, hist, reg := setup(t)
	handler := reg.Commands()["/history"].Handler

	c := newFakeContext(4, "/history")
	if err := handler(c); err != nil {
		t.Fatalf("history: %v", err)
	}
	if c.lastText() != presenter.TextHistoryEmpty {
		t.Fatalf("expected empty history, got %q", c.lastText())
	}

	hist.reqs = []hotels.Request{{Command: hotels.CommandLowPrice, City: "Paris", Hotels: []hotels.Hotel{{Name: "A"}}}}
	c = newFakeContext(4, "/history")
	_ = handler(c)
	if !strings.HasPrefix(c.lastText(), presenter.TextHistoryHeader) || !strings.Contains(c.lastText(), "• A") {
		t.Fatalf("unexpected history %q", c.lastText())
	}

	hist.err = errors.New("db down")
	c = newFakeContext(4, "/history")
	if err := handler(c); err != nil {
		t.Fatalf("history failure should be answered, got %v", err)
	}
	if c.lastText() != presenter.TextHistoryFailed {
		t.Fatalf("expected failure text, got %q", c.lastText())
	}
}

func TestCancel(t *testing.T) {
	_, conv, _, reg := setup(t)
	handler := reg.Commands()["/cancel"].Handler

	c := newFakeContext(5, "/cancel")
	_ = handler(c)
	if c.lastText() != presenter.TextNothingPending {
		t.Fatalf("expected nothing pending, got %q", c.lastText())
	}

	conv.active[5] = true
	c = newFakeContext(5, "/cancel")
	_ = handler(c)
	if c.lastText() != presenter.TextCancelled {
		t.Fatalf("expected cancelled, got %q", c.lastText())
	}
}

func TestMessengerAlbumCaption(t *testing.T) {
	c := newFakeContext(6, "")
	m := messenger{c}
	if err := m.SendAlbum([]string{"https://a", "https://b"}, "1) card"); err != nil {
		t.Fatalf("SendAlbum: %v", err)
	}
	album, ok := c.sent[0].(tele.Album)
	if !ok || len(album) != 2 {
		t.Fatalf("unexpected album %#v", c.sent[0])
	}
	first := album[0].(*tele.Photo)
	second := album[1].(*tele.Photo)
	if first.Caption != "1) card" || second.Caption != "" {
		t.Fatalf("captions = %q, %q", first.Caption, second.Caption)
	}
	if first.FileURL != "https://a" {
		t.Fatalf("photo url = %q", first.FileURL)
	}
}
