// Package telegram drives pickers from Telegram inline keyboards: /pick
// posts a message whose keyboard is the popover, button presses are routed
// to the picker and the message is edited in place.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"

	"dtpicker/internal/config"
	appLog "dtpicker/internal/log"
	"dtpicker/internal/picker"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// conversationTTL bounds how long an untouched keyboard stays live.
const conversationTTL = 30 * time.Minute

type convKey struct {
	chatID int64
	msgID  int
}

// conversation is one posted picker message. Its anchor is the message
// text; mu serializes button presses.
type conversation struct {
	mu       sync.Mutex
	anchor   string
	label    string
	value    string
	picker   *picker.Picker
	closed   bool
	lastSeen time.Time
}

func (c *conversation) ID() string        { return c.anchor }
func (c *conversation) SetValue(v string) { c.value = v }

func (c *conversation) Lookup(id string) (picker.Anchor, bool) {
	if id != c.anchor {
		return nil, false
	}
	return c, true
}

// text is the message body: the label and either the applied value or a
// preview of what Apply would write.
func (c *conversation) text() string {
	label := c.label
	if label == "" {
		label = c.anchor
	}
	switch {
	case c.closed && c.value != "":
		return fmt.Sprintf("%s: %s ✅", label, c.value)
	case c.closed:
		return label + ": cleared"
	}
	preview := c.picker.Formatted()
	if preview == "" {
		preview = "none"
	}
	return fmt.Sprintf("%s\nSelected: %s", label, preview)
}

type Option func(*Bot)

// WithClock replaces time.Now for pickers and expiry.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) {
		if now != nil {
			b.now = now
		}
	}
}

// Bot routes Telegram updates to per-message pickers.
type Bot struct {
	api API
	cfg *config.Config
	now func() time.Time

	mu    sync.Mutex
	convs map[convKey]*conversation
}

// New wraps an already authorized API client.
func New(cfg *config.Config, api API, opts ...Option) *Bot {
	b := &Bot{
		api:   api,
		cfg:   cfg,
		now:   time.Now,
		convs: make(map[convKey]*conversation),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Start authorizes with cfg.Telegram.Token and long-polls updates until
// ctx is canceled. Idle conversations are expired on cfg.SweepSchedule.
func Start(ctx context.Context, cfg *config.Config) error {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("create bot api: %w", err)
	}
	appLog.Info("telegram: authorized", "user", api.Self.UserName)

	b := New(cfg, api)
	if _, err := api.Request(tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "pick", Description: "Pick a date or time"},
	)); err != nil {
		appLog.Error("telegram: failed to set commands", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepSchedule, func() { b.Sweep(conversationTTL) }); err != nil {
		appLog.Error("telegram: bad sweep schedule; falling back to @every 1m", err, "spec", cfg.SweepSchedule)
		c = cron.New()
		_, _ = c.AddFunc("@every 1m", func() { b.Sweep(conversationTTL) })
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.HandleUpdate(update)
		}
	}
}

// HandleUpdate dispatches one update. Safe for concurrent use.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	if msg.Command() != "pick" {
		return
	}
	chatID := msg.Chat.ID

	pc, ok := b.pickerConfig(strings.TrimSpace(msg.CommandArguments()))
	if !ok {
		b.reply(chatID, "Unknown picker. Available: "+strings.Join(b.anchors(), ", "))
		return
	}

	conv := &conversation{anchor: pc.Anchor, label: pc.Label, lastSeen: b.now()}
	p := picker.New(conv, pc.Anchor, pc.Options(),
		picker.WithClock(b.now),
		picker.WithRegistry(picker.NewRegistry()),
	)
	if p.Err() != nil {
		b.reply(chatID, "Picker unavailable.")
		return
	}
	conv.picker = p
	p.Subscribe(func(in picker.Intent) {
		switch in.(type) {
		case picker.Hidden:
			conv.closed = true
		case picker.Shown:
			conv.closed = false
		}
	})
	p.Open()

	out := tgbotapi.NewMessage(chatID, conv.text())
	out.ReplyMarkup = Keyboard(p.Snapshot())
	sent, err := b.api.Send(out)
	if err != nil {
		appLog.Error("telegram: failed to post picker", err, "chat", chatID, "anchor", pc.Anchor)
		p.Destroy()
		return
	}

	key := convKey{chatID: chatID, msgID: sent.MessageID}
	b.mu.Lock()
	b.convs[key] = conv
	b.mu.Unlock()
	p.Own(func() { b.forget(key) })

	appLog.Debug("telegram: picker posted", "chat", chatID, "message", sent.MessageID, "anchor", pc.Anchor)
}

func (b *Bot) handleCallback(q *tgbotapi.CallbackQuery) {
	if q.Message == nil {
		return
	}
	key := convKey{chatID: q.Message.Chat.ID, msgID: q.Message.MessageID}

	b.mu.Lock()
	conv, ok := b.convs[key]
	b.mu.Unlock()
	if !ok {
		b.answer(q.ID, "This picker has expired.")
		return
	}

	cb, err := ParseCallback(q.Data)
	if err != nil {
		appLog.Debug("telegram: ignoring callback", "data", q.Data, "reason", err.Error())
		b.answer(q.ID, "")
		return
	}
	if cb.Kind == KindNoop {
		b.answer(q.ID, "")
		return
	}

	conv.mu.Lock()
	conv.lastSeen = b.now()
	// Buttons of a cleared picker only reopen it.
	if conv.closed && cb.Kind != KindOpen {
		conv.mu.Unlock()
		b.answer(q.ID, "")
		return
	}
	var notice string
	if cb.Kind == KindTime && !timeAvailable(conv.picker.Snapshot(), cb.Arg) {
		notice = "That time is no longer available."
	}
	closed, sel := Route(conv.picker, cb)

	edit := tgbotapi.NewEditMessageText(key.chatID, key.msgID, conv.text())
	switch {
	case !closed:
		kb := Keyboard(conv.picker.Snapshot())
		edit.ReplyMarkup = &kb
	case sel == nil:
		// Cleared: the selection is kept for the next open.
		kb := ReopenKeyboard()
		edit.ReplyMarkup = &kb
	default:
		conv.picker.Destroy()
	}
	conv.mu.Unlock()

	if _, err := b.api.Request(edit); err != nil {
		appLog.Error("telegram: failed to edit picker message", err, "chat", key.chatID, "message", key.msgID)
	}
	b.answer(q.ID, notice)
}

// Sweep destroys conversations idle for longer than ttl and returns how
// many were removed.
func (b *Bot) Sweep(ttl time.Duration) int {
	cutoff := b.now().Add(-ttl)

	b.mu.Lock()
	all := make([]*conversation, 0, len(b.convs))
	for _, c := range b.convs {
		all = append(all, c)
	}
	b.mu.Unlock()

	// Lock order is conversation then bot: Destroy runs the Own hook,
	// which takes b.mu.
	var idle []*conversation
	for _, c := range all {
		c.mu.Lock()
		if c.lastSeen.Before(cutoff) && !c.picker.Destroyed() {
			c.picker.Destroy()
			idle = append(idle, c)
		}
		c.mu.Unlock()
	}
	if len(idle) > 0 {
		appLog.Info("telegram: idle pickers expired", "count", len(idle))
	}
	return len(idle)
}

// Len reports the number of live conversations.
func (b *Bot) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.convs)
}

func (b *Bot) forget(key convKey) {
	b.mu.Lock()
	delete(b.convs, key)
	b.mu.Unlock()
}

// pickerConfig resolves the /pick argument, then the configured default,
// then the first configured picker.
func (b *Bot) pickerConfig(arg string) (config.PickerConfig, bool) {
	if arg != "" {
		return b.cfg.Picker(arg)
	}
	if b.cfg.Telegram.Anchor != "" {
		return b.cfg.Picker(b.cfg.Telegram.Anchor)
	}
	if len(b.cfg.Pickers) == 0 {
		return config.PickerConfig{}, false
	}
	return b.cfg.Pickers[0], true
}

func (b *Bot) anchors() []string {
	out := make([]string, 0, len(b.cfg.Pickers))
	for _, p := range b.cfg.Pickers {
		out = append(out, p.Anchor)
	}
	return out
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		appLog.Error("telegram: send failed", err, "chat", chatID)
	}
}

func (b *Bot) answer(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		appLog.Error("telegram: callback answer failed", err)
	}
}
