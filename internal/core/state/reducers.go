package state

import (
	"fmt"

	"kilometers.ai/shop/internal/core/domain"
)

func payloadError(action domain.Action) error {
	return fmt.Errorf("invalid payload for %s: %T", action.Type, action.Payload)
}

// reduce applies action to s in place. Unknown action types leave s as is.
func reduce(s *State, action domain.Action) error {
	switch action.Type {
	case domain.ActionSetUser, domain.ActionSetAccessToken, domain.ActionLogout:
		return reduceUser(&s.User, action)
	case domain.ActionSetCart, domain.ActionClearCart:
		return reduceCart(&s.Cart, action)
	case domain.ActionSetProducts, domain.ActionSetProduct, domain.ActionDeleteProduct:
		return reduceProduct(&s.Product, action)
	case domain.ActionSetReviews, domain.ActionSetProductReviews, domain.ActionAddReview,
		domain.ActionUpdateReview, domain.ActionRemoveReview, domain.ActionClearProductReviews,
		domain.ActionClearAllReviews:
		return reduceReviews(&s.Reviews, action)
	}
	return nil
}

func reduceUser(s *UserState, action domain.Action) error {
	switch action.Type {
	case domain.ActionSetUser:
		if action.Payload == nil {
			s.User = nil
			return nil
		}
		user, ok := action.Payload.(*domain.User)
		if !ok {
			return payloadError(action)
		}
		s.User = user
	case domain.ActionSetAccessToken:
		cred, ok := action.Payload.(domain.Credential)
		if !ok {
			return payloadError(action)
		}
		s.AccessToken = cred
	case domain.ActionLogout:
		s.User = nil
		s.AccessToken = ""
	}
	return nil
}

func reduceCart(s *CartState, action domain.Action) error {
	switch action.Type {
	case domain.ActionSetCart:
		cart, ok := action.Payload.(domain.Cart)
		if !ok {
			return payloadError(action)
		}
		items := make(map[string]domain.CartItem, len(cart.Products))
		for _, item := range cart.Products {
			items[item.ID] = item
		}
		s.Items = items
	case domain.ActionClearCart:
		s.Items = map[string]domain.CartItem{}
	}
	return nil
}

func reduceProduct(s *ProductState, action domain.Action) error {
	switch action.Type {
	case domain.ActionSetProducts:
		products, ok := action.Payload.([]domain.Product)
		if !ok {
			return payloadError(action)
		}
		byID := make(map[string]domain.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		s.Products = byID
	case domain.ActionSetProduct:
		product, ok := action.Payload.(domain.Product)
		if !ok {
			return payloadError(action)
		}
		s.Products[product.ID] = product
	case domain.ActionDeleteProduct:
		id, ok := action.Payload.(string)
		if !ok {
			return payloadError(action)
		}
		delete(s.Products, id)
	}
	return nil
}

func reduceReviews(s *ReviewState, action domain.Action) error {
	switch action.Type {
	case domain.ActionSetReviews:
		reviews, ok := action.Payload.([]domain.Review)
		if !ok {
			return payloadError(action)
		}
		byID := make(map[string]domain.Review, len(reviews))
		for _, r := range reviews {
			byID[r.ID] = r
		}
		s.Reviews = byID

	case domain.ActionSetProductReviews:
		pr, ok := action.Payload.(domain.ProductReviews)
		if !ok {
			return payloadError(action)
		}
		s.ProductReviews[pr.ProductID] = append([]domain.Review(nil), pr.Reviews...)
		for _, r := range pr.Reviews {
			s.Reviews[r.ID] = r
		}

	case domain.ActionAddReview:
		review, ok := action.Payload.(domain.Review)
		if !ok {
			return payloadError(action)
		}
		s.Reviews[review.ID] = review
		// only a product list that was already loaded gets the new review
		if list, loaded := s.ProductReviews[review.Product]; loaded {
			s.ProductReviews[review.Product] = append([]domain.Review{review}, list...)
		}

	case domain.ActionUpdateReview:
		review, ok := action.Payload.(domain.Review)
		if !ok {
			return payloadError(action)
		}
		if _, known := s.Reviews[review.ID]; known {
			s.Reviews[review.ID] = review
		}
		list := s.ProductReviews[review.Product]
		for i := range list {
			if list[i].ID == review.ID {
				list[i] = review
				break
			}
		}

	case domain.ActionRemoveReview:
		id, ok := action.Payload.(string)
		if !ok {
			return payloadError(action)
		}
		review, known := s.Reviews[id]
		delete(s.Reviews, id)
		if !known {
			return nil
		}
		if list, loaded := s.ProductReviews[review.Product]; loaded {
			kept := make([]domain.Review, 0, len(list))
			for _, r := range list {
				if r.ID != id {
					kept = append(kept, r)
				}
			}
			s.ProductReviews[review.Product] = kept
		}

	case domain.ActionClearProductReviews:
		productID, _ := action.Payload.(string)
		if productID == "" {
			s.ProductReviews = map[string][]domain.Review{}
			return nil
		}
		delete(s.ProductReviews, productID)

	case domain.ActionClearAllReviews:
		s.Reviews = map[string]domain.Review{}
		s.ProductReviews = map[string][]domain.Review{}
	}
	return nil
}
