package bot

import (
	tele "gopkg.in/telebot.v4"
)

// messenger sends through the update's context so the metrics middleware
// counts every message.
type messenger struct {
	c tele.Context
}

func (m messenger) SendText(text string) error {
	return m.c.Send(text)
}

func (m messenger) SendAlbum(photos []string, caption string) error {
	album := make(tele.Album, 0, len(photos))
	for i, url := range photos {
		p := &tele.Photo{File: tele.FromURL(url)}
		if i == 0 {
			p.Caption = caption
		}
		album = append(album, p)
	}
	return m.c.SendAlbum(album)
}
