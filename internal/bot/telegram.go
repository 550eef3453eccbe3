package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/metrics"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/session"
)

const (
	maxText    = 4096
	maxCaption = 1024

	msgTooFast    = "Biroz sekinroq, iltimos 🙂"
	msgSystemDown = "Texnik nosozlik. Birozdan so'ng qayta urinib ko'ring."

	limiterIdle  = 10 * time.Minute
	limiterSweep = 1000
)

var errUpdatesClosed = errors.New("bot: update channel closed")

// API is the part of *tgbotapi.BotAPI the transport uses.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TransportConfig tunes the update loop.
type TransportConfig struct {
	RPS            float64       // per-user update rate
	Burst          int           // per-user burst
	HandlerTimeout time.Duration // bound on one update, including store I/O
	PollTimeout    int           // long-poll seconds
}

func (c *TransportConfig) defaults() {
	if c.RPS <= 0 {
		c.RPS = 1
	}
	if c.Burst <= 0 {
		c.Burst = 5
	}
	if c.HandlerTimeout <= 0 {
		c.HandlerTimeout = 45 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 30
	}
}

type userLimiter struct {
	*rate.Limiter
	lastSeen time.Time
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// userQueue holds a user's updates that arrived while an earlier one was
// still being handled.
type userQueue struct {
	pending []tgbotapi.Update
}

// Handler turns one input into replies by mutating s. *Engine implements it.
type Handler interface {
	Handle(ctx context.Context, s *session.Session, in Input) ([]Reply, error)
}

// Transport feeds Telegram updates to the engine. Updates for different users
// run concurrently; updates for one user run one at a time in arrival order.
type Transport struct {
	api     API
	engine  Handler
	store   session.Store
	metrics *metrics.Metrics
	log     zerolog.Logger
	cfg     TransportConfig

	mu       sync.Mutex
	locks    map[int64]*userLock
	queues   map[int64]*userQueue
	limiters map[int64]*userLimiter
	sweepN   int
	now      func() time.Time
}

// NewTransport wires the engine to api and store. m may be nil.
func NewTransport(api API, engine Handler, store session.Store, m *metrics.Metrics, log zerolog.Logger, cfg TransportConfig) *Transport {
	cfg.defaults()
	return &Transport{
		api:      api,
		engine:   engine,
		store:    store,
		metrics:  m,
		log:      log.With().Str("component", "bot_transport").Logger(),
		cfg:      cfg,
		locks:    make(map[int64]*userLock),
		queues:   make(map[int64]*userQueue),
		limiters: make(map[int64]*userLimiter),
		now:      time.Now,
	}
}

// Run long-polls until ctx is done, then waits for in-flight updates. It
// returns an error only if the update channel closes on its own.
func (t *Transport) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.cfg.PollTimeout
	updates := t.api.GetUpdatesChan(u)
	t.log.Info().Msg("bot polling started")

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			t.log.Info().Msg("bot polling stopped")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return errUpdatesClosed
			}
			t.dispatch(ctx, &wg, upd)
		}
	}
}

// dispatch hands upd to the user's worker, starting one if the user has none.
// The worker drains the queue in order and exits when it is empty.
func (t *Transport) dispatch(ctx context.Context, wg *sync.WaitGroup, upd tgbotapi.Update) {
	userID, _, _, _, ok := toInput(upd)
	if !ok {
		t.HandleUpdate(ctx, upd)
		return
	}

	t.mu.Lock()
	if q, busy := t.queues[userID]; busy {
		q.pending = append(q.pending, upd)
		t.mu.Unlock()
		return
	}
	q := &userQueue{pending: []tgbotapi.Update{upd}}
	t.queues[userID] = q
	t.mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			t.mu.Lock()
			if len(q.pending) == 0 {
				delete(t.queues, userID)
				t.mu.Unlock()
				return
			}
			next := q.pending[0]
			q.pending = q.pending[1:]
			t.mu.Unlock()
			t.HandleUpdate(ctx, next)
		}
	}()
}

// HandleUpdate processes one update end to end: load the session, run the
// engine, save the session, send the replies. The session is saved even when
// ctx is cancelled mid-update.
func (t *Transport) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	userID, chatID, in, kind, ok := toInput(upd)
	if !ok {
		t.metrics.BotUpdate("ignored")
		return
	}
	t.metrics.BotUpdate(kind)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.cfg.HandlerTimeout)
	defer cancel()
	ctx, span := otel.Tracer("bot/Transport").Start(ctx, "HandleUpdate",
		trace.WithAttributes(attribute.String("bot.update_kind", kind)))
	defer span.End()

	if upd.CallbackQuery != nil {
		if _, err := t.api.Request(tgbotapi.NewCallback(upd.CallbackQuery.ID, "")); err != nil {
			t.log.Debug().Err(err).Msg("answer callback")
		}
	}

	if !t.limiter(userID).AllowN(t.now(), 1) {
		t.metrics.BotUpdate("throttled")
		t.send(tgbotapi.NewMessage(chatID, msgTooFast))
		return
	}

	unlock := t.lock(userID)
	defer unlock()

	log := t.log.With().Int64("user_id", userID).Str("kind", kind).Logger()

	s, err := session.Load(ctx, t.store, userID, chatID)
	if err != nil {
		log.Error().Err(err).Msg("load session")
		span.SetStatus(codes.Error, "load session")
		t.metrics.Error("bot_session")
		t.send(menuMessage(chatID, msgSystemDown))
		return
	}

	replies, err := t.engine.Handle(ctx, s, in)
	if err != nil {
		log.Warn().Err(err).Str("mode", string(s.Mode)).Msg("handle update")
		span.RecordError(err)
		t.metrics.Error("bot")
	}

	s.Touch(t.now())
	if err := t.store.Set(ctx, s); err != nil {
		log.Error().Err(err).Msg("save session")
		t.metrics.Error("bot_session")
	}

	for _, r := range replies {
		for _, c := range render(chatID, r) {
			t.send(c)
		}
	}
}

func (t *Transport) send(c tgbotapi.Chattable) {
	start := time.Now()
	_, err := t.api.Send(c)
	t.metrics.ObserveUpstream("telegram", "send", start, err)
	if err != nil {
		t.log.Warn().Err(err).Msg("telegram send")
	}
}

// limiter returns the user's token bucket, sweeping idle buckets every
// limiterSweep lookups.
func (t *Transport) limiter(userID int64) *rate.Limiter {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweepN++
	if t.sweepN >= limiterSweep {
		for id, l := range t.limiters {
			if now.Sub(l.lastSeen) >= limiterIdle {
				delete(t.limiters, id)
			}
		}
		t.sweepN = 0
	}

	l, ok := t.limiters[userID]
	if !ok {
		l = &userLimiter{Limiter: rate.NewLimiter(rate.Limit(t.cfg.RPS), t.cfg.Burst)}
		t.limiters[userID] = l
	}
	l.lastSeen = now
	return l.Limiter
}

// lock keeps direct HandleUpdate callers from running one user's updates
// concurrently. Locks are dropped once no update holds or waits on them.
func (t *Transport) lock(userID int64) func() {
	t.mu.Lock()
	l, ok := t.locks[userID]
	if !ok {
		l = &userLock{}
		t.locks[userID] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		t.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(t.locks, userID)
		}
		t.mu.Unlock()
	}
}

// toInput maps an update to an engine input. Updates without a user or chat
// (channel posts, inline queries) are skipped.
func toInput(upd tgbotapi.Update) (userID, chatID int64, in Input, kind string, ok bool) {
	switch {
	case upd.CallbackQuery != nil:
		q := upd.CallbackQuery
		if q.From == nil || q.Message == nil || q.Message.Chat == nil {
			return 0, 0, Input{}, "", false
		}
		return q.From.ID, q.Message.Chat.ID, Input{Callback: q.Data}, "callback", true

	case upd.Message != nil:
		m := upd.Message
		if m.From == nil || m.Chat == nil {
			return 0, 0, Input{}, "", false
		}
		if m.Contact != nil {
			c := &Contact{Phone: m.Contact.PhoneNumber, FirstName: m.Contact.FirstName, LastName: m.Contact.LastName}
			return m.From.ID, m.Chat.ID, Input{Contact: c}, "contact", true
		}
		if m.Text == "" {
			return 0, 0, Input{}, "", false
		}
		kind := "text"
		if m.IsCommand() {
			kind = "command"
		}
		return m.From.ID, m.Chat.ID, Input{Text: m.Text}, kind, true
	}
	return 0, 0, Input{}, "", false
}

// render turns a reply into one or more Telegram messages. Long text is split
// and the keyboard rides on the last part.
func render(chatID int64, r Reply) []tgbotapi.Chattable {
	var out []tgbotapi.Chattable
	text := r.Text
	if r.Photo != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(r.Photo))
		if utf8.RuneCountInString(text) <= maxCaption {
			photo.Caption = text
			photo.ReplyMarkup = markup(r)
			return append(out, photo)
		}
		out = append(out, photo)
	}

	parts := splitText(text, maxText)
	for i, p := range parts {
		msg := tgbotapi.NewMessage(chatID, p)
		if i == len(parts)-1 {
			msg.ReplyMarkup = markup(r)
		}
		out = append(out, msg)
	}
	return out
}

func markup(r Reply) any {
	switch {
	case r.RequestContact:
		kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("📱 Raqamni yuborish"),
		))
		kb.OneTimeKeyboard = true
		kb.ResizeKeyboard = true
		return kb
	case r.RemoveKeyboard:
		return tgbotapi.NewRemoveKeyboard(true)
	case len(r.Buttons) > 0:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(r.Buttons))
		for _, row := range r.Buttons {
			btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
			rows = append(rows, btns)
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	return nil
}

func menuMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup(menu(text))
	return msg
}

// splitText cuts s into chunks of at most limit runes, preferring line
// breaks.
func splitText(s string, limit int) []string {
	if s == "" {
		return []string{" "}
	}
	var parts []string
	for utf8.RuneCountInString(s) > limit {
		r := []rune(s)
		cut := limit
		if i := strings.LastIndex(string(r[:limit]), "\n"); i > 0 {
			cut = utf8.RuneCountInString(string(r[:limit])[:i])
		}
		parts = append(parts, string(r[:cut]))
		s = strings.TrimLeft(string(r[cut:]), "\n")
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
