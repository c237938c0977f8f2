package keyboard

import "testing"

func TestReplyButtonsLayout(t *testing.T) {
	m := ReplyButtons([]string{"/lowprice", "/highprice"}, []string{"/history"})
	if !m.ResizeKeyboard {
		t.Fatal("expected resized keyboard")
	}
	if len(m.ReplyKeyboard) != 2 || len(m.ReplyKeyboard[0]) != 2 || len(m.ReplyKeyboard[1]) != 1 {
		t.Fatalf("unexpected layout %+v", m.ReplyKeyboard)
	}
	if m.ReplyKeyboard[1][0].Text != "/history" {
		t.Fatalf("unexpected label %q", m.ReplyKeyboard[1][0].Text)
	}
}
