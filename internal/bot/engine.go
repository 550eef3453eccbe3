// Package bot implements the Telegram storefront: a conversation engine that
// turns user input into replies by mutating a session, and a transport that
// feeds it Telegram updates.
//
// The engine does no I/O of its own beyond its ports. Everything it knows
// about a user lives in the *session.Session it is handed, so the transport
// can load, handle and save sessions in any store.
package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/assistant"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/checkout"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/session"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/storefront"
)

const (
	defaultPageSize = 8
	searchLimit     = 10
)

// Catalog browses products.
type Catalog interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	Products(ctx context.Context, categoryID int64, page, pageSize int) ([]domain.Product, storefront.Page, error)
	Product(ctx context.Context, id int64) (*domain.Product, error)
	Search(ctx context.Context, q string, limit int) ([]domain.Product, error)
}

// Tracker looks up orders by phone.
type Tracker interface {
	TrackOrders(ctx context.Context, phone string) ([]domain.Order, error)
}

// Deps are the engine's ports. storefront.Client satisfies all of them.
type Deps struct {
	Catalog   Catalog
	Orders    checkout.OrderSubmitter
	Promos    checkout.PromoValidator
	Tracker   Tracker
	Assistant assistant.Generator // optional

	SystemInstruction string
	PageSize          int
}

// Contact is a phone number shared through Telegram's contact button.
type Contact struct {
	Phone     string
	FirstName string
	LastName  string
}

// Input is one user action. Exactly one of Callback, Contact or Text is
// meaningful, checked in that order.
type Input struct {
	Text     string
	Callback string
	Contact  *Contact
}

// Button is an inline keyboard button carrying callback data.
type Button struct {
	Text string
	Data string
}

// Reply is one outgoing message. A reply uses at most one keyboard:
// RequestContact, RemoveKeyboard or Buttons, in that priority.
type Reply struct {
	Text           string
	Photo          string // image URL; Text becomes the caption
	Buttons        [][]Button
	RequestContact bool
	RemoveKeyboard bool
}

// Engine runs the conversation.
type Engine struct {
	d   Deps
	log zerolog.Logger
}

// New returns an engine over d.
func New(d Deps, log zerolog.Logger) *Engine {
	if d.PageSize <= 0 {
		d.PageSize = defaultPageSize
	}
	return &Engine{d: d, log: log.With().Str("component", "bot").Logger()}
}

// Handle applies in to s and returns the replies to send. The replies are
// always safe to show; a non-nil error reports a collaborator failure the
// user has already been told about, for logging.
func (e *Engine) Handle(ctx context.Context, s *session.Session, in Input) ([]Reply, error) {
	switch {
	case in.Callback != "":
		return e.callback(ctx, s, in.Callback)
	case in.Contact != nil:
		return e.contact(ctx, s, *in.Contact)
	}
	text := strings.TrimSpace(in.Text)
	if cmd, ok := command(text); ok {
		return e.command(ctx, s, cmd)
	}
	return e.text(ctx, s, text)
}

func (e *Engine) command(ctx context.Context, s *session.Session, cmd string) ([]Reply, error) {
	switch cmd {
	case "start", "menu":
		s.Mode = session.ModeMenu
		return one(menu(msgWelcome)), nil
	case "cart":
		return one(e.cartView(s)), nil
	case "catalog":
		return e.categories(ctx, s)
	}
	s.Mode = session.ModeMenu
	return one(menu(msgHelp)), nil
}

func (e *Engine) callback(ctx context.Context, s *session.Session, data string) ([]Reply, error) {
	name, arg, _ := strings.Cut(data, ":")
	switch name {
	case "menu":
		s.Mode = session.ModeMenu
		return one(menu(msgMainMenu)), nil
	case "catalog":
		return e.categories(ctx, s)
	case "cat":
		id, ok := parseID(arg)
		if !ok {
			break
		}
		s.Mode = session.ModeBrowse
		s.CategoryID = id
		return e.products(ctx, s, 1)
	case "page":
		n, ok := parseID(arg)
		if !ok {
			break
		}
		return e.products(ctx, s, int(n))
	case "prod":
		if id, ok := parseID(arg); ok {
			return e.product(ctx, id)
		}
	case "add":
		if id, ok := parseID(arg); ok {
			return e.add(ctx, s, id)
		}
	case "cart":
		return one(e.cartView(s)), nil
	case "inc", "dec", "rm":
		if id, ok := parseID(arg); ok {
			return one(e.adjust(s, name, id)), nil
		}
	case "clear":
		s.Cart.Clear()
		if s.Draft.Active() {
			s.Draft = checkout.Draft{}
		}
		s.Mode = session.ModeMenu
		return one(menu(msgCartCleared)), nil
	case "checkout":
		return e.beginCheckout(s), nil
	case "skip_promo":
		return e.skipPromo(s), nil
	case "pay":
		return e.pay(ctx, s, arg)
	case "search":
		s.Mode = session.ModeSearch
		return one(Reply{Text: msgSearchPrompt, Buttons: backToMenu()}), nil
	case "track":
		s.Mode = session.ModeTrack
		return one(Reply{Text: msgTrackPrompt, RequestContact: true}), nil
	case "ai":
		s.Mode = session.ModeAI
		return one(Reply{Text: msgAIPrompt, Buttons: backToMenu()}), nil
	}
	return one(menu(msgUnknown)), nil
}

func (e *Engine) contact(ctx context.Context, s *session.Session, c Contact) ([]Reply, error) {
	switch {
	case s.Mode == session.ModeCheckout && s.Draft.Step == checkout.StepContact:
		d := &s.Draft.Contact
		if d.FirstName == "" {
			first, last := strings.TrimSpace(c.FirstName), strings.TrimSpace(c.LastName)
			if first == "" || last == "" {
				d.Phone = c.Phone
				return one(Reply{Text: msgAskFullName, Buttons: cancelRow()}), nil
			}
			d.FirstName, d.LastName = first, last
		}
		return e.setPhone(s, c.Phone), nil
	case s.Mode == session.ModeTrack:
		return e.track(ctx, s, c.Phone)
	}
	return one(menu(msgMainMenu)), nil
}

func (e *Engine) text(ctx context.Context, s *session.Session, text string) ([]Reply, error) {
	if text == "" {
		return one(menu(msgMainMenu)), nil
	}
	switch s.Mode {
	case session.ModeCheckout:
		if s.Draft.Active() {
			return e.checkoutText(ctx, s, text)
		}
	case session.ModeSearch:
		return e.search(ctx, text)
	case session.ModeTrack:
		return e.track(ctx, s, text)
	case session.ModeAI:
		return e.ask(ctx, s, text)
	}
	return one(menu(msgHelp)), nil
}

// command extracts the command name from "/name@bot args".
func command(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.Fields(text[1:])
	if len(name) == 0 {
		return "", false
	}
	cmd, _, _ := strings.Cut(name[0], "@")
	return strings.ToLower(cmd), true
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

func one(r Reply) []Reply { return []Reply{r} }

func menu(text string) Reply {
	return Reply{Text: text, Buttons: [][]Button{
		{{Text: "🛍 Katalog", Data: "catalog"}, {Text: "🔍 Qidiruv", Data: "search"}},
		{{Text: "🛒 Savat", Data: "cart"}, {Text: "📦 Buyurtmalarim", Data: "track"}},
		{{Text: "🤖 AI yordamchi", Data: "ai"}},
	}}
}

func backToMenu() [][]Button {
	return [][]Button{{{Text: "⬅️ Menyu", Data: "menu"}}}
}
