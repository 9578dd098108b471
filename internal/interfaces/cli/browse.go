package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"kilometers.ai/shop/internal/core/domain"
	"kilometers.ai/shop/internal/core/state"
)

// catalogue is the part of the storefront the browser drives
type catalogue interface {
	GetProducts(ctx context.Context)
	GetProductReviews(ctx context.Context, productID string) error
	AddToCart(ctx context.Context, line domain.CartLine) error
}

func newBrowseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactive product browser",
		Long: `Browse the catalogue interactively. Select a product to see its reviews
and add it to the cart without leaving the browser.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}

			model := newBrowseModel(cmd.Context(), svc.Storefront, svc.State)
			program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("browser failed: %w", err)
			}
			return nil
		},
	}
}

type browseModel struct {
	ctx   context.Context
	shop  catalogue
	store *state.Store

	products []domain.Product
	cursor   int
	detail   bool
	loading  bool
	status   string
	failed   bool

	windowWidth  int
	windowHeight int
}

func newBrowseModel(ctx context.Context, shop catalogue, store *state.Store) browseModel {
	return browseModel{ctx: ctx, shop: shop, store: store, loading: true}
}

type productsLoadedMsg struct{}

type reviewsLoadedMsg struct{ productID string }

type cartUpdatedMsg struct {
	name string
	err  error
}

func (m browseModel) Init() tea.Cmd {
	return m.loadProductsCmd()
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case productsLoadedMsg:
		m.loading = false
		m.products = state.Products(m.store.State())
		if m.cursor >= len(m.products) {
			m.cursor = max(len(m.products)-1, 0)
		}
		return m, nil

	case reviewsLoadedMsg:
		m.loading = false
		return m, nil

	case cartUpdatedMsg:
		m.failed = msg.err != nil
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Added %s to the cart", msg.name)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if !m.detail && m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if !m.detail && m.cursor < len(m.products)-1 {
			m.cursor++
		}

	case "enter":
		if p, ok := m.selected(); ok && !m.detail {
			m.detail = true
			m.loading = true
			m.status = ""
			return m, m.loadReviewsCmd(p.ID)
		}

	case "esc", "backspace":
		m.detail = false
		m.status = ""

	case "a":
		if p, ok := m.selected(); ok {
			return m, m.addToCartCmd(p)
		}

	case "r":
		m.loading = true
		return m, m.loadProductsCmd()
	}

	return m, nil
}

func (m browseModel) selected() (domain.Product, bool) {
	if m.cursor < 0 || m.cursor >= len(m.products) {
		return domain.Product{}, false
	}
	return m.products[m.cursor], true
}

func (m browseModel) loadProductsCmd() tea.Cmd {
	return func() tea.Msg {
		m.shop.GetProducts(m.ctx)
		return productsLoadedMsg{}
	}
}

func (m browseModel) loadReviewsCmd(productID string) tea.Cmd {
	return func() tea.Msg {
		// the id comes from a loaded product, so it is never empty
		_ = m.shop.GetProductReviews(m.ctx, productID)
		return reviewsLoadedMsg{productID: productID}
	}
}

func (m browseModel) addToCartCmd(p domain.Product) tea.Cmd {
	return func() tea.Msg {
		if err := m.shop.AddToCart(m.ctx, domain.CartLine{ProductID: p.ID, Quantity: 1}); err != nil {
			return cartUpdatedMsg{name: p.Name, err: err}
		}
		if !inCart(m.store.State(), p.ID) {
			return cartUpdatedMsg{name: p.Name, err: fmt.Errorf("could not add %s to the cart", p.Name)}
		}
		return cartUpdatedMsg{name: p.Name}
	}
}

func inCart(st state.State, productID string) bool {
	for _, item := range st.Cart.Items {
		if item.Product != nil && item.Product.ID == productID {
			return true
		}
	}
	return false
}

func (m browseModel) View() string {
	st := m.store.State()

	header := lipgloss.JoinHorizontal(lipgloss.Left,
		titleStyle.Render("Storefront"),
		"  ",
		labelStyle.Render(fmt.Sprintf("%d products | cart: %d items, %s",
			len(m.products), state.CartTotalItems(st), price(state.CartTotalPrice(st)))),
	)

	var body string
	switch {
	case m.loading && len(m.products) == 0:
		body = mutedStyle.Render("\n  Loading...\n")
	case m.detail:
		body = m.renderDetail(st)
	default:
		body = m.renderList()
	}

	footer := "[↑↓] Navigate | [enter] Details | [a] Add to cart | [r] Refresh | [q] Quit"
	if m.detail {
		footer = "[esc] Back | [a] Add to cart | [q] Quit"
	}

	parts := []string{header, "", body, ""}
	switch {
	case m.status != "" && m.failed:
		parts = append(parts, warnStyle.Render(m.status))
	case m.status != "":
		parts = append(parts, successStyle.Render(m.status))
	}
	parts = append(parts, mutedStyle.Render(footer))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m browseModel) renderList() string {
	if len(m.products) == 0 {
		return mutedStyle.Render("  No products.")
	}

	// keep the cursor visible when the window is short
	start, end := 0, len(m.products)
	if rows := m.windowHeight - 6; rows > 0 && len(m.products) > rows {
		start = max(m.cursor-rows+1, 0)
		end = min(start+rows, len(m.products))
	}

	selectedStyle := lipgloss.NewStyle().Background(lipgloss.Color("240"))
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		p := m.products[i]
		line := fmt.Sprintf("%-40s %10s  %s", truncate(p.Name, 40), price(p.Price), stars(int(p.Rating+0.5)))
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m browseModel) renderDetail(st state.State) string {
	p, ok := m.selected()
	if !ok {
		return ""
	}
	sections := []string{renderProduct(p, st)}

	reviews := state.ProductReviews(st, p.ID)
	switch {
	case m.loading:
		sections = append(sections, "", mutedStyle.Render("Loading reviews..."))
	case len(reviews) == 0:
		sections = append(sections, "", mutedStyle.Render("No reviews yet."))
	default:
		sections = append(sections, "")
		for i, r := range reviews {
			if i == 5 {
				sections = append(sections, mutedStyle.Render(fmt.Sprintf("...and %d more", len(reviews)-5)))
				break
			}
			author := "anonymous"
			if r.User != nil && r.User.Name != "" {
				author = r.User.Name
			}
			sections = append(sections, fmt.Sprintf("%s %s: %s", stars(r.Rating), labelStyle.Render(author), truncate(r.Text, 60)))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
