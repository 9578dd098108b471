package state

import "kilometers.ai/shop/internal/core/domain"

// State is the client-side view of the storefront
type State struct {
	User    UserState
	Cart    CartState
	Product ProductState
	Reviews ReviewState
}

type UserState struct {
	User        *domain.User
	AccessToken domain.Credential
}

// CartState holds cart lines keyed by cart item id
type CartState struct {
	Items map[string]domain.CartItem
}

// ProductState holds products keyed by product id
type ProductState struct {
	Products map[string]domain.Product
}

// ReviewState holds every known review by id, and the loaded review list of
// each product, most recent first
type ReviewState struct {
	Reviews        map[string]domain.Review
	ProductReviews map[string][]domain.Review
}

func initialState() State {
	return State{
		Cart:    CartState{Items: map[string]domain.CartItem{}},
		Product: ProductState{Products: map[string]domain.Product{}},
		Reviews: ReviewState{
			Reviews:        map[string]domain.Review{},
			ProductReviews: map[string][]domain.Review{},
		},
	}
}

// clone copies the maps and slices of the state so a copy handed out can
// not observe later dispatches
func (s State) clone() State {
	out := State{
		User: UserState{AccessToken: s.User.AccessToken},
		Cart: CartState{Items: make(map[string]domain.CartItem, len(s.Cart.Items))},
		Product: ProductState{
			Products: make(map[string]domain.Product, len(s.Product.Products)),
		},
		Reviews: ReviewState{
			Reviews:        make(map[string]domain.Review, len(s.Reviews.Reviews)),
			ProductReviews: make(map[string][]domain.Review, len(s.Reviews.ProductReviews)),
		},
	}

	if s.User.User != nil {
		u := *s.User.User
		out.User.User = &u
	}
	for k, v := range s.Cart.Items {
		out.Cart.Items[k] = v
	}
	for k, v := range s.Product.Products {
		out.Product.Products[k] = v
	}
	for k, v := range s.Reviews.Reviews {
		out.Reviews.Reviews[k] = v
	}
	for k, v := range s.Reviews.ProductReviews {
		out.Reviews.ProductReviews[k] = append([]domain.Review(nil), v...)
	}
	return out
}
