package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"kilometers.ai/shop/internal/core/domain"
)

const maxUpload = 10 << 20

func (b *Backend) routes() *mux.Router {
	r := mux.NewRouter()
	api := r
	if b.cfg.BasePath != "" {
		api = r.PathPrefix(b.cfg.BasePath).Subrouter()
	}

	api.HandleFunc("/auth/register", b.handleRegister).Methods("POST")
	api.HandleFunc("/auth/login", b.handleLogin).Methods("POST")
	api.HandleFunc("/auth/refresh-access-token", b.handleRefresh).Methods("GET")
	api.HandleFunc("/auth/resend-otp", b.handleResendOTP).Methods("POST")
	api.HandleFunc("/auth/reset-password", b.handleResetPassword).Methods("POST")
	api.HandleFunc("/auth/verify", b.authed(b.handleVerify)).Methods("POST")
	api.HandleFunc("/auth/logout", b.authed(b.handleLogout)).Methods("GET")
	api.HandleFunc("/auth/update", b.authed(b.handleUpdateUser)).Methods("PUT")
	api.HandleFunc("/user/me", b.authed(b.handleMe)).Methods("GET")

	api.HandleFunc("/product", b.handleProducts).Methods("GET")
	api.HandleFunc("/product/{id}", b.handleProduct).Methods("GET")

	api.HandleFunc("/cart", b.authed(b.handleCart)).Methods("GET")
	api.HandleFunc("/cart/add-product", b.authed(b.handleAddToCart)).Methods("POST")
	api.HandleFunc("/cart/update-product/{id}", b.authed(b.handleUpdateQuantity)).Methods("PUT")
	api.HandleFunc("/cart/remove-product/{id}", b.authed(b.handleRemoveFromCart)).Methods("DELETE")
	api.HandleFunc("/cart/clear", b.authed(b.handleClearCart)).Methods("DELETE")

	api.HandleFunc("/review", b.handleReviews).Methods("GET")
	api.HandleFunc("/review", b.authed(b.handleCreateReview)).Methods("POST")
	api.HandleFunc("/review/product/{id}", b.handleProductReviews).Methods("GET")
	api.HandleFunc("/review/{id}", b.authed(b.handleDeleteReview)).Methods("DELETE")

	return r
}

type authedHandler func(w http.ResponseWriter, r *http.Request, acc *account)

// authed resolves the bearer token before calling next with b.mu held
func (b *Backend) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		if b.rejectNext > 0 {
			b.rejectNext--
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		acc, err := b.parseAccess(raw)
		if err != nil {
			b.logger.Debug("rejected access token", "error", err)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r, acc)
	}
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form domain.RegisterForm
	if !decodeJSON(w, r, &form) {
		return
	}
	if err := form.Validate(b.now()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.lookup(form.Email); exists {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	acc, err := b.createAccount(form.Name, form.Email, form.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	acc.user.MobileNumber = form.MobileNumber
	acc.user.DOB = form.DOB
	acc.user.Gender = form.Gender

	b.signIn(w, acc, http.StatusCreated)
}

// handleLogin answers bad credentials with 400 so clients do not treat them
// as an expired session
func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form domain.LoginForm
	if !decodeJSON(w, r, &form) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.lookup(form.Email)
	if !ok || !checkPassword(acc, form.Password) {
		writeError(w, http.StatusBadRequest, "Invalid email or password")
		return
	}
	b.signIn(w, acc, http.StatusOK)
}

// signIn starts a session and answers with an auth payload. Callers hold b.mu.
func (b *Backend) signIn(w http.ResponseWriter, acc *account, status int) {
	token, err := b.issueAccess(acc.user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	b.startSession(w, acc.user.ID)
	user := acc.user
	writeData(w, status, domain.AuthPayload{AccessToken: token, User: &user})
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cookie, err := r.Cookie(b.cfg.RefreshCookie)
	if err != nil || b.failRefresh {
		writeError(w, http.StatusUnauthorized, "Refresh token missing or invalid")
		return
	}
	userID, ok := b.sessions[cookie.Value]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Refresh token missing or invalid")
		return
	}

	token, err := b.issueAccess(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// refresh tokens are single use
	delete(b.sessions, cookie.Value)
	b.startSession(w, userID)
	writeData(w, http.StatusOK, domain.RefreshPayload{AccessToken: token})
}

func (b *Backend) handleVerify(w http.ResponseWriter, r *http.Request, acc *account) {
	var form domain.VerifyForm
	if !decodeJSON(w, r, &form) {
		return
	}
	if form.OTP != b.cfg.OTP {
		writeError(w, http.StatusBadRequest, "Invalid OTP")
		return
	}
	acc.user.Verified = true
	writeData(w, http.StatusOK, acc.user)
}

func (b *Backend) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var form domain.ResendOTPForm
	if !decodeJSON(w, r, &form) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.lookup(form.Email); !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"sent": true})
}

func (b *Backend) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var form domain.ResetPasswordForm
	if !decodeJSON(w, r, &form) {
		return
	}
	form.ConfirmPassword = form.NewPassword
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.lookup(form.Email)
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if form.OTP != b.cfg.OTP {
		writeError(w, http.StatusBadRequest, "Invalid OTP")
		return
	}
	updated, err := b.createHash(form.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	acc.hash = updated
	writeData(w, http.StatusOK, map[string]bool{"reset": true})
}

func (b *Backend) handleLogout(w http.ResponseWriter, _ *http.Request, acc *account) {
	b.endSessions(w, acc.user.ID)
	writeData(w, http.StatusOK, nil)
}

func (b *Backend) handleMe(w http.ResponseWriter, _ *http.Request, acc *account) {
	writeData(w, http.StatusOK, acc.user)
}

func (b *Backend) handleUpdateUser(w http.ResponseWriter, r *http.Request, acc *account) {
	var form domain.UpdateUserForm
	if !decodeJSON(w, r, &form) {
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if form.Name != "" {
		acc.user.Name = form.Name
	}
	if form.MobileNumber != "" {
		acc.user.MobileNumber = form.MobileNumber
	}
	if form.Gender != "" {
		acc.user.Gender = form.Gender
	}
	writeData(w, http.StatusOK, acc.user)
}

func (b *Backend) handleProducts(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	products := make([]domain.Product, len(b.products))
	copy(products, b.products)
	writeData(w, http.StatusOK, products)
}

func (b *Backend) handleProduct(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.product(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeData(w, http.StatusOK, p)
}

// product finds a catalogue entry. Callers hold b.mu.
func (b *Backend) product(id string) (domain.Product, bool) {
	for _, p := range b.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// cartOf renders the cart of userID with products populated. Callers hold b.mu.
func (b *Backend) cartOf(userID string) domain.Cart {
	cart := domain.Cart{Products: []domain.CartItem{}}
	for _, e := range b.carts[userID] {
		item := domain.CartItem{ID: e.id, Quantity: e.quantity}
		if p, ok := b.product(e.productID); ok {
			item.Product = &p
		}
		cart.Products = append(cart.Products, item)
	}
	return cart
}

func (b *Backend) handleCart(w http.ResponseWriter, _ *http.Request, acc *account) {
	writeData(w, http.StatusOK, b.cartOf(acc.user.ID))
}

func (b *Backend) handleAddToCart(w http.ResponseWriter, r *http.Request, acc *account) {
	var line domain.CartLine
	if !decodeJSON(w, r, &line) {
		return
	}
	if err := line.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := b.product(line.ProductID); !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	entries := b.carts[acc.user.ID]
	merged := false
	for i := range entries {
		if entries[i].productID == line.ProductID {
			entries[i].quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		entries = append(entries, cartEntry{id: uuid.NewString(), productID: line.ProductID, quantity: line.Quantity})
	}
	b.carts[acc.user.ID] = entries
	writeData(w, http.StatusOK, b.cartOf(acc.user.ID))
}

func (b *Backend) handleUpdateQuantity(w http.ResponseWriter, r *http.Request, acc *account) {
	var body struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}

	id := mux.Vars(r)["id"]
	entries := b.carts[acc.user.ID]
	for i := range entries {
		if entries[i].productID == id {
			entries[i].quantity = body.Quantity
			writeData(w, http.StatusOK, b.cartOf(acc.user.ID))
			return
		}
	}
	writeError(w, http.StatusNotFound, "Product not in cart")
}

func (b *Backend) handleRemoveFromCart(w http.ResponseWriter, r *http.Request, acc *account) {
	id := mux.Vars(r)["id"]
	entries := b.carts[acc.user.ID]
	for i := range entries {
		if entries[i].productID == id {
			b.carts[acc.user.ID] = append(entries[:i:i], entries[i+1:]...)
			writeData(w, http.StatusOK, b.cartOf(acc.user.ID))
			return
		}
	}
	writeError(w, http.StatusNotFound, "Product not in cart")
}

func (b *Backend) handleClearCart(w http.ResponseWriter, _ *http.Request, acc *account) {
	delete(b.carts, acc.user.ID)
	writeData(w, http.StatusOK, b.cartOf(acc.user.ID))
}

func (b *Backend) handleReviews(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeData(w, http.StatusOK, b.reviewsWhere(func(domain.Review) bool { return true }))
}

func (b *Backend) handleProductReviews(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	b.mu.Lock()
	defer b.mu.Unlock()
	writeData(w, http.StatusOK, b.reviewsWhere(func(rv domain.Review) bool { return rv.Product == id }))
}

// reviewsWhere returns matching reviews, newest first. Callers hold b.mu.
func (b *Backend) reviewsWhere(keep func(domain.Review) bool) []domain.Review {
	out := []domain.Review{}
	for i := len(b.reviews) - 1; i >= 0; i-- {
		if keep(b.reviews[i]) {
			out = append(out, b.reviews[i])
		}
	}
	return out
}

func (b *Backend) handleCreateReview(w http.ResponseWriter, r *http.Request, acc *account) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "Expected multipart form data")
		return
	}
	rating, _ := strconv.Atoi(r.FormValue("rating"))
	form := domain.ReviewForm{
		ProductID: r.FormValue("product"),
		Rating:    rating,
		Text:      r.FormValue("review"),
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := b.product(form.ProductID); !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	review := domain.Review{
		ID:        uuid.NewString(),
		Product:   form.ProductID,
		User:      &domain.ReviewAuthor{ID: acc.user.ID, Name: acc.user.Name},
		Rating:    form.Rating,
		Text:      strings.TrimSpace(form.Text),
		CreatedAt: b.now().UTC(),
	}
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			review.Assets = append(review.Assets, "/uploads/"+uuid.NewString()+"-"+fh.Filename)
		}
	}
	b.reviews = append(b.reviews, review)
	b.rate(form.ProductID)
	writeData(w, http.StatusCreated, review)
}

// rate recomputes the average rating of a product. Callers hold b.mu.
func (b *Backend) rate(productID string) {
	sum, n := 0, 0
	for _, rv := range b.reviews {
		if rv.Product == productID {
			sum += rv.Rating
			n++
		}
	}
	for i := range b.products {
		if b.products[i].ID != productID {
			continue
		}
		if n == 0 {
			b.products[i].Rating = 0
		} else {
			b.products[i].Rating = float64(sum) / float64(n)
		}
	}
}

func (b *Backend) handleDeleteReview(w http.ResponseWriter, r *http.Request, acc *account) {
	id := mux.Vars(r)["id"]
	for i, rv := range b.reviews {
		if rv.ID != id {
			continue
		}
		if rv.User == nil || rv.User.ID != acc.user.ID {
			writeError(w, http.StatusForbidden, "You can only delete your own reviews")
			return
		}
		b.reviews = append(b.reviews[:i:i], b.reviews[i+1:]...)
		b.rate(rv.Product)
		writeData(w, http.StatusOK, map[string]string{"_id": id})
		return
	}
	writeError(w, http.StatusNotFound, "Review not found")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
