package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/assistant"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/cart"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/session"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/storefront"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/utils"
)

func (e *Engine) categories(ctx context.Context, s *session.Session) ([]Reply, error) {
	cats, err := e.d.Catalog.Categories(ctx)
	if err != nil {
		return one(menu(msgCatalogDown)), fmt.Errorf("categories: %w", err)
	}
	s.Mode = session.ModeBrowse
	if len(cats) == 0 {
		return one(menu(msgCatalogEmpty)), nil
	}
	rows := make([][]Button, 0, len(cats)+1)
	for _, c := range cats {
		rows = append(rows, []Button{{Text: c.Name, Data: "cat:" + strconv.FormatInt(c.ID, 10)}})
	}
	rows = append(rows, backToMenu()...)
	return one(Reply{Text: msgPickCategory, Buttons: rows}), nil
}

func (e *Engine) products(ctx context.Context, s *session.Session, page int) ([]Reply, error) {
	if page < 1 {
		page = 1
	}
	items, pg, err := e.d.Catalog.Products(ctx, s.CategoryID, page, e.d.PageSize)
	if err != nil {
		return one(menu(msgCatalogDown)), fmt.Errorf("products: %w", err)
	}
	back := []Button{{Text: "⬅️ Bo'limlar", Data: "catalog"}, {Text: "🛒 Savat", Data: "cart"}}
	if len(items) == 0 {
		return one(Reply{Text: msgNoProducts, Buttons: [][]Button{back}}), nil
	}

	rows := productRows(items)
	var nav []Button
	if page > 1 {
		nav = append(nav, Button{Text: "◀️", Data: "page:" + strconv.Itoa(page-1)})
	}
	if pg.HasNext {
		nav = append(nav, Button{Text: "▶️", Data: "page:" + strconv.Itoa(page+1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, back)

	text := msgProducts
	if pg.TotalPages > 1 {
		text = fmt.Sprintf("%s (%d/%d)", msgProducts, page, pg.TotalPages)
	}
	return one(Reply{Text: text, Buttons: rows}), nil
}

func (e *Engine) product(ctx context.Context, id int64) ([]Reply, error) {
	p, err := e.d.Catalog.Product(ctx, id)
	if errors.Is(err, storefront.ErrNotFound) {
		return one(menu(msgProductGone)), nil
	}
	if err != nil {
		return one(menu(msgCatalogDown)), fmt.Errorf("product %d: %w", id, err)
	}

	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteString("\n\n💰 ")
	b.WriteString(utils.FormatSom(p.Price))
	if p.OldPrice != nil && *p.OldPrice > p.Price {
		fmt.Fprintf(&b, " (avval %s)", utils.FormatSom(*p.OldPrice))
	}
	if d := strings.TrimSpace(p.Description); d != "" {
		b.WriteString("\n\n")
		b.WriteString(d)
	}
	return one(Reply{
		Text:  b.String(),
		Photo: p.Image,
		Buttons: [][]Button{
			{{Text: "🛒 Savatga qo'shish", Data: "add:" + strconv.FormatInt(p.ID, 10)}},
			{{Text: "⬅️ Orqaga", Data: "cat:" + strconv.FormatInt(p.CategoryID, 10)}},
		},
	}), nil
}

func (e *Engine) add(ctx context.Context, s *session.Session, id int64) ([]Reply, error) {
	p, err := e.d.Catalog.Product(ctx, id)
	if errors.Is(err, storefront.ErrNotFound) {
		return one(menu(msgProductGone)), nil
	}
	if err != nil {
		return one(menu(msgCatalogDown)), fmt.Errorf("product %d: %w", id, err)
	}
	res, err := s.Cart.Add(cart.Line{ProductID: p.ID, Name: p.Name, UnitPrice: p.Price, Image: p.Image}, 1)
	if err != nil {
		return one(menu(msgAddFailed)), nil
	}
	text := fmt.Sprintf("✅ %s savatga qo'shildi.", p.Name)
	if res.Merged {
		text = fmt.Sprintf("✅ %s: savatda endi %d dona.", p.Name, res.Line.Quantity)
	}
	return one(Reply{Text: text, Buttons: [][]Button{
		{{Text: "🛒 Savatga o'tish", Data: "cart"}},
		{{Text: "🛍 Xaridni davom ettirish", Data: "cat:" + strconv.FormatInt(p.CategoryID, 10)}},
	}}), nil
}

func (e *Engine) cartView(s *session.Session) Reply {
	if s.Cart.IsEmpty() {
		return menu(msgCartEmpty)
	}
	var b strings.Builder
	b.WriteString("🛒 Savatingiz:\n\n")
	rows := make([][]Button, 0, len(s.Cart.Lines)+2)
	for i, l := range s.Cart.Lines {
		fmt.Fprintf(&b, "%d. %s\n   %d × %s = %s\n", i+1, l.Name, l.Quantity, utils.FormatSom(l.UnitPrice), utils.FormatSom(l.Total()))
		id := strconv.FormatInt(l.ProductID, 10)
		rows = append(rows, []Button{
			{Text: "➖", Data: "dec:" + id},
			{Text: strconv.Itoa(l.Quantity), Data: "prod:" + id},
			{Text: "➕", Data: "inc:" + id},
			{Text: "❌", Data: "rm:" + id},
		})
	}
	fmt.Fprintf(&b, "\nJami: %s", utils.FormatSom(s.Cart.Total()))
	rows = append(rows,
		[]Button{{Text: "✅ Rasmiylashtirish", Data: "checkout"}},
		[]Button{{Text: "🗑 Tozalash", Data: "clear"}, {Text: "⬅️ Menyu", Data: "menu"}},
	)
	return Reply{Text: b.String(), Buttons: rows}
}

func (e *Engine) adjust(s *session.Session, op string, id int64) Reply {
	switch op {
	case "inc":
		_ = s.Cart.Increment(id, 1)
	case "dec":
		_ = s.Cart.Increment(id, -1)
	case "rm":
		s.Cart.Remove(id)
	}
	return e.cartView(s)
}

func (e *Engine) search(ctx context.Context, q string) ([]Reply, error) {
	items, err := e.d.Catalog.Search(ctx, q, searchLimit)
	if err != nil {
		return one(menu(msgCatalogDown)), fmt.Errorf("search: %w", err)
	}
	if len(items) == 0 {
		return one(Reply{Text: msgNothingFound, Buttons: backToMenu()}), nil
	}
	rows := append(productRows(items), backToMenu()...)
	return one(Reply{Text: fmt.Sprintf("🔍 «%s» bo'yicha topildi:", q), Buttons: rows}), nil
}

func (e *Engine) track(ctx context.Context, s *session.Session, phone string) ([]Reply, error) {
	p := utils.NormalizePhone(phone)
	if p == "" {
		return one(Reply{Text: msgBadPhone, RequestContact: true}), nil
	}
	orders, err := e.d.Tracker.TrackOrders(ctx, p)
	if err != nil {
		return one(Reply{Text: msgTrackDown, RequestContact: true}), fmt.Errorf("track: %w", err)
	}
	s.Mode = session.ModeMenu
	if len(orders) == 0 {
		return []Reply{{Text: msgNoOrders, RemoveKeyboard: true}, menu(msgMainMenu)}, nil
	}
	var b strings.Builder
	b.WriteString("📦 Buyurtmalaringiz:\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "\n#%s\n%s · %s · %s\n", o.ID, o.CreatedAt.Format("02.01.2006"), statusLabel(o.Status), utils.FormatSom(o.Total))
	}
	return []Reply{{Text: strings.TrimRight(b.String(), "\n"), RemoveKeyboard: true}, menu(msgMainMenu)}, nil
}

func (e *Engine) ask(ctx context.Context, s *session.Session, text string) ([]Reply, error) {
	if e.d.Assistant == nil {
		return one(menu(msgAIOff)), nil
	}
	out, err := e.d.Assistant.Generate(ctx, assistant.Request{
		Message:           text,
		History:           s.AIHistory,
		SystemInstruction: e.d.SystemInstruction,
	})
	if err != nil {
		return one(Reply{Text: msgAIDown, Buttons: backToMenu()}), fmt.Errorf("assistant: %w", err)
	}
	s.AppendAI(
		assistant.Turn{Role: "user", Text: text},
		assistant.Turn{Role: "model", Text: out},
	)
	return one(Reply{Text: out, Buttons: backToMenu()}), nil
}

func productRows(items []domain.Product) [][]Button {
	rows := make([][]Button, 0, len(items)+2)
	for _, p := range items {
		rows = append(rows, []Button{{
			Text: fmt.Sprintf("%s · %s", p.Name, utils.FormatSom(p.Price)),
			Data: "prod:" + strconv.FormatInt(p.ID, 10),
		}})
	}
	return rows
}

func statusLabel(s string) string {
	switch s {
	case domain.StatusNew:
		return "Yangi"
	case domain.StatusConfirmed:
		return "Tasdiqlangan"
	case domain.StatusShipped:
		return "Yo'lda"
	case domain.StatusDelivered:
		return "Yetkazilgan"
	case domain.StatusCancelled:
		return "Bekor qilingan"
	}
	return s
}
