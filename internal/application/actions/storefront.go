package actions

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kilometers.ai/shop/internal/core/domain"
	"kilometers.ai/shop/internal/core/ports"
)

// Storefront is the set of feature operations the client exposes. Each one
// validates its input, then hands a request and its mappers to the API
// dispatcher. Only validation errors are returned; call outcomes are
// observed through the state container.
type Storefront struct {
	api ports.APIDispatcher
	now func() time.Time
}

func NewStorefront(api ports.APIDispatcher) *Storefront {
	return &Storefront{api: api, now: time.Now}
}

func (s *Storefront) Login(ctx context.Context, form domain.LoginForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	s.api.Dispatch(ctx, domain.MustRequest("/auth/login", domain.VerbPost, form), mapAccessToken, mapAuthUser)
	return nil
}

func (s *Storefront) Register(ctx context.Context, form domain.RegisterForm) error {
	if err := form.Validate(s.now()); err != nil {
		return err
	}
	s.api.Dispatch(ctx, domain.MustRequest("/auth/register", domain.VerbPost, form), mapAccessToken, mapAuthUser)
	return nil
}

func (s *Storefront) Verify(ctx context.Context, form domain.VerifyForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	s.api.Dispatch(ctx, domain.MustRequest("/auth/verify", domain.VerbPost, form), mapUser)
	return nil
}

func (s *Storefront) ResendOTP(ctx context.Context, form domain.ResendOTPForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	s.api.Dispatch(ctx, domain.MustRequest("/auth/resend-otp", domain.VerbPost, form))
	return nil
}

func (s *Storefront) ResetPassword(ctx context.Context, form domain.ResetPasswordForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	s.api.Dispatch(ctx, domain.MustRequest("/auth/reset-password", domain.VerbPost, form))
	return nil
}

func (s *Storefront) Logout(ctx context.Context) {
	s.api.Dispatch(ctx, domain.MustRequest("/auth/logout", domain.VerbGet, nil), mapLogout)
}

func (s *Storefront) GetUser(ctx context.Context) {
	s.api.Dispatch(ctx, domain.MustRequest("/user/me", domain.VerbGet, nil), mapUser)
}

func (s *Storefront) UpdateUser(ctx context.Context, form domain.UpdateUserForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	s.api.Dispatch(ctx, domain.MustRequest("/auth/update", domain.VerbPut, form), mapUser)
	return nil
}

func (s *Storefront) GetProducts(ctx context.Context) {
	s.api.Dispatch(ctx, domain.MustRequest("/product", domain.VerbGet, nil), mapProducts)
}

func (s *Storefront) GetProduct(ctx context.Context, productID string) error {
	path, err := idPath("/product/", "product", productID)
	if err != nil {
		return err
	}
	s.api.Dispatch(ctx, domain.MustRequest(path, domain.VerbGet, nil), mapProduct)
	return nil
}

func (s *Storefront) AddToCart(ctx context.Context, line domain.CartLine) error {
	if err := line.Validate(); err != nil {
		return err
	}
	s.api.Dispatch(ctx, domain.MustRequest("/cart/add-product", domain.VerbPost, line), mapCart)
	return nil
}

func (s *Storefront) GetCart(ctx context.Context) {
	s.api.Dispatch(ctx, domain.MustRequest("/cart", domain.VerbGet, nil), mapCart)
}

func (s *Storefront) RemoveFromCart(ctx context.Context, productID string) error {
	path, err := idPath("/cart/remove-product/", "product", productID)
	if err != nil {
		return err
	}
	s.api.Dispatch(ctx, domain.MustRequest(path, domain.VerbDelete, nil), mapCart)
	return nil
}

// quantityUpdate is the body of /cart/update-product/{id}
type quantityUpdate struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (s *Storefront) UpdateQuantity(ctx context.Context, line domain.CartLine) error {
	if err := line.Validate(); err != nil {
		return err
	}
	path, _ := idPath("/cart/update-product/", "product", line.ProductID)
	body := quantityUpdate{ProductID: line.ProductID, Quantity: line.Quantity}
	s.api.Dispatch(ctx, domain.MustRequest(path, domain.VerbPut, body), mapCart)
	return nil
}

func (s *Storefront) ClearCart(ctx context.Context) {
	s.api.Dispatch(ctx, domain.MustRequest("/cart/clear", domain.VerbDelete, nil), mapCart)
}

// CreateReview submits the review as multipart form data. onSuccess, when
// set, runs after the new review has been added to the state.
func (s *Storefront) CreateReview(ctx context.Context, form domain.ReviewForm, onSuccess func()) error {
	if err := form.Validate(); err != nil {
		return err
	}

	body := &domain.MultipartForm{}
	body.Add("product", form.ProductID)
	body.Add("rating", strconv.Itoa(form.Rating))
	body.Add("review", strings.TrimSpace(form.Text))
	for _, img := range form.Images {
		if img.Field == "" {
			img.Field = "images"
		}
		body.Attach(img)
	}

	mappers := []domain.Mapper{mapNewReview}
	if onSuccess != nil {
		mappers = append(mappers, callback(onSuccess))
	}
	s.api.Dispatch(ctx, domain.MustRequest("/review", domain.VerbPost, body), mappers...)
	return nil
}

func (s *Storefront) GetProductReviews(ctx context.Context, productID string) error {
	path, err := idPath("/review/product/", "product", productID)
	if err != nil {
		return err
	}
	s.api.Dispatch(ctx, domain.MustRequest(path, domain.VerbGet, nil), mapProductReviews(productID))
	return nil
}

func (s *Storefront) GetAllReviews(ctx context.Context) {
	s.api.Dispatch(ctx, domain.MustRequest("/review", domain.VerbGet, nil), mapReviews)
}

func (s *Storefront) DeleteReview(ctx context.Context, reviewID string) error {
	path, err := idPath("/review/", "review", reviewID)
	if err != nil {
		return err
	}
	s.api.Dispatch(ctx, domain.MustRequest(path, domain.VerbDelete, nil), mapRemovedReview(reviewID))
	return nil
}

func idPath(prefix, field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domain.ValidationErrors{{Field: field, Message: fmt.Sprintf("%s id is required", field)}}
	}
	return prefix + url.PathEscape(id), nil
}
