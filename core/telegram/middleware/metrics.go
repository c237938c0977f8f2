package middleware

import tele "gopkg.in/telebot.v4"

const (
	messagesKey = "messages"
	keyboardKey = "kb"
)

// countingContext wraps tele.Context and counts successful outgoing messages.
type countingContext struct{ tele.Context }

func (m countingContext) count(n int, opts []any) {
	prev, _ := m.Get(messagesKey).(int)
	m.Set(messagesKey, prev+n)
	if hasKeyboard(opts) {
		m.Set(keyboardKey, true)
	}
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send proxies tele.Context.Send.
func (m countingContext) Send(what any, opts ...any) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.count(1, opts)
	}
	return err
}

// Reply proxies tele.Context.Reply.
func (m countingContext) Reply(what any, opts ...any) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.count(1, opts)
	}
	return err
}

// SendAlbum proxies tele.Context.SendAlbum; an album counts as one message per item.
func (m countingContext) SendAlbum(a tele.Album, opts ...any) error {
	err := m.Context.SendAlbum(a, opts...)
	if err == nil {
		m.count(len(a), opts)
	}
	return err
}

// MessageMetricsMiddleware counts messages sent while handling an update.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(messagesKey, 0)
		c.Set(keyboardKey, false)
		return next(countingContext{Context: c})
	}
}

// GetCounters returns the sent-message count and whether a keyboard was attached.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(messagesKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return msgs, kb
}
