package telegram

import (
	"testing"

	"github.com/Rzhek/TelegramHotelsBot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryLookupCommandAndAliases(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Greeting", Aliases: []string{"Hi", "hello"}})
	reg.RegisterCommand("/lowprice", commands.Command{Handler: noop, Description: "Cheap hotels"})

	cases := map[string]string{
		"/start":      "/start",
		"  HI ":       "/start",
		"hello":       "/start",
		" /LowPrice ": "/lowprice",
	}
	for text, want := range cases {
		got, _, ok := reg.LookupCommand(text)
		if !ok || got != want {
			t.Fatalf("LookupCommand(%q) = %q, %v; want %q", text, got, ok, want)
		}
	}
	for _, text := range []string{"paris", "lowprice", "start", "help"} {
		if _, _, ok := reg.LookupCommand(text); ok {
			t.Fatalf("LookupCommand(%q) must not resolve without a slash", text)
		}
	}
}

func TestRegistrySkipsInvalidAndDuplicate(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("help", commands.Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/help", commands.Command{Description: "no handler"})
	reg.RegisterCommand("/help", commands.Command{Handler: noop, Description: "Help"})
	reg.RegisterCommand("/help", commands.Command{Handler: noop, Description: "Again"})
	if len(reg.Commands()) != 1 || reg.Commands()["/help"].Description != "Help" {
		t.Fatalf("unexpected commands %+v", reg.Commands())
	}
}

func TestRegistryListCommandsHidesHidden(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/history", commands.Command{Handler: noop, Description: "History"})
	reg.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "Cancel", Hidden: true})

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "history" {
		t.Fatalf("visible = %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 2 || all[0].Text != "cancel" {
		t.Fatalf("all = %+v", all)
	}
}
