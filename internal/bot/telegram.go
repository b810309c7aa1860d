// Package bot mirrors published cycles to a Telegram chat. The
// mirror is optional and best-effort: a failure here never affects
// the tweet or the publish gate.
package bot

import (
	"bytes"
	"context"
	"time"

	tele "gopkg.in/telebot.v3"
)

var newBotFunc = tele.NewBot

type Announcer struct {
	bot    *tele.Bot
	chatID int64
}

func NewAnnouncer(token string, chatID int64) (*Announcer, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := newBotFunc(pref)
	if err != nil {
		return nil, err
	}
	return &Announcer{bot: b, chatID: chatID}, nil
}

// Start runs the long-polling loop for the interactive commands.
// Blocks; run it in a goroutine.
func (a *Announcer) Start() {
	a.bot.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	a.bot.Start()
}

// Announce sends the animation with the tweet text as caption.
func (a *Announcer) Announce(ctx context.Context, gifData []byte, caption string) error {
	anim := &tele.Animation{
		File:     tele.FromReader(bytes.NewReader(gifData)),
		FileName: "bitcoin_roller_coaster.gif",
		Caption:  caption,
	}
	_, err := a.bot.Send(tele.ChatID(a.chatID), anim)
	return err
}
