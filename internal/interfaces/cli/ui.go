package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"kilometers.ai/shop/internal/core/domain"
	"kilometers.ai/shop/internal/core/state"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func field(label, value string) string {
	return fmt.Sprintf("%s %s", labelStyle.Render(label+":"), value)
}

func price(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func renderProducts(products []domain.Product) string {
	if len(products) == 0 {
		return mutedStyle.Render("No products.")
	}
	t := newTable("ID", "NAME", "PRICE", "RATING", "STOCK")
	for _, p := range products {
		t.Row(p.ID, truncate(p.Name, 40), price(p.Price), fmt.Sprintf("%.1f", p.Rating), strconv.Itoa(p.Stock))
	}
	return t.String()
}

func renderProduct(p domain.Product, st state.State) string {
	lines := []string{
		titleStyle.Render(p.Name),
		field("ID", p.ID),
		field("Price", price(p.Price)),
		field("Stock", strconv.Itoa(p.Stock)),
	}
	if p.Description != "" {
		lines = append(lines, "", p.Description)
	}

	if state.HasProductReviews(st, p.ID) {
		lines = append(lines, "",
			field("Rating", fmt.Sprintf("%.1f from %d reviews", state.ProductAverageRating(st, p.ID), state.ProductReviewCount(st, p.ID))))
		dist := state.ProductRatingDistribution(st, p.ID)
		for r := 5; r >= 1; r-- {
			lines = append(lines, fmt.Sprintf("  %s %d", stars(r), dist[r]))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderCart(st state.State) string {
	items := state.CartItems(st)
	if len(items) == 0 {
		return mutedStyle.Render("Your cart is empty.")
	}

	t := newTable("PRODUCT", "NAME", "QTY", "SUBTOTAL")
	for _, item := range items {
		id, name, unit := "", "(unknown)", 1.0
		if item.Product != nil {
			id, name, unit = item.Product.ID, item.Product.Name, item.Product.Price
		}
		t.Row(id, truncate(name, 40), strconv.Itoa(item.Quantity), price(unit*float64(item.Quantity)))
	}

	summary := fmt.Sprintf("%s  %s",
		field("Items", strconv.Itoa(state.CartTotalItems(st))),
		field("Total", price(state.CartTotalPrice(st))))
	return lipgloss.JoinVertical(lipgloss.Left, t.String(), summary)
}

func renderReviews(reviews []domain.Review) string {
	if len(reviews) == 0 {
		return mutedStyle.Render("No reviews.")
	}
	t := newTable("ID", "PRODUCT", "RATING", "BY", "REVIEW", "IMAGES")
	for _, r := range reviews {
		author := ""
		if r.User != nil {
			author = r.User.Name
		}
		t.Row(r.ID, r.Product, stars(r.Rating), author, truncate(r.Text, 40), strconv.Itoa(len(r.Assets)))
	}
	return t.String()
}

func renderUser(u *domain.User) string {
	if u == nil {
		return mutedStyle.Render("Not logged in.")
	}
	verified := warnStyle.Render("not verified")
	if u.Verified {
		verified = successStyle.Render("verified")
	}
	lines := []string{
		titleStyle.Render(u.Name),
		field("Email", fmt.Sprintf("%s (%s)", u.Email, verified)),
	}
	if u.MobileNumber != "" {
		lines = append(lines, field("Mobile", u.MobileNumber))
	}
	if u.Gender != "" {
		lines = append(lines, field("Gender", u.Gender))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderCredential(profile string, cred domain.Credential, now time.Time) string {
	if cred.IsZero() {
		return lipgloss.JoinVertical(lipgloss.Left,
			field("Profile", profile),
			warnStyle.Render("Not logged in."),
			mutedStyle.Render("Run 'shop auth login' to sign in."))
	}

	lines := []string{
		field("Profile", profile),
		field("Access token", cred.Masked()),
	}
	claims, err := domain.InspectCredential(cred)
	if err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, mutedStyle.Render("Token is not a JWT; expiry unknown."))...)
	}
	if claims.Subject != "" {
		lines = append(lines, field("Subject", claims.Subject))
	}
	switch {
	case claims.ExpiresAt.IsZero():
		lines = append(lines, field("Expires", "never"))
	case now.After(claims.ExpiresAt):
		lines = append(lines, field("Expires", warnStyle.Render(fmt.Sprintf("expired %s ago (refreshed on next call)", now.Sub(claims.ExpiresAt).Round(time.Second)))))
	default:
		lines = append(lines, field("Expires", fmt.Sprintf("in %s", claims.ExpiresAt.Sub(now).Round(time.Second))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
