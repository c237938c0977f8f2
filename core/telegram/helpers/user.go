package helpers

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// FullName joins the sender's first and last name, falling back to the username.
func FullName(u *tele.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}
