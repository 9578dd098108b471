package actions

import (
	"encoding/json"
	"fmt"

	"kilometers.ai/shop/internal/core/domain"
)

func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, fmt.Errorf("empty response data")
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("unexpected response data: %w", err)
	}
	return v, nil
}

func mapAccessToken(data json.RawMessage) (domain.Action, error) {
	payload, err := decode[domain.AuthPayload](data)
	if err != nil {
		return domain.Action{}, err
	}
	if payload.AccessToken.IsZero() {
		return domain.Action{}, fmt.Errorf("response has no access token")
	}
	return domain.SetAccessToken(payload.AccessToken), nil
}

func mapAuthUser(data json.RawMessage) (domain.Action, error) {
	payload, err := decode[domain.AuthPayload](data)
	if err != nil {
		return domain.Action{}, err
	}
	return domain.SetUser(payload.User), nil
}

func mapUser(data json.RawMessage) (domain.Action, error) {
	user, err := decode[domain.User](data)
	if err != nil {
		return domain.Action{}, err
	}
	return domain.SetUser(&user), nil
}

func mapLogout(json.RawMessage) (domain.Action, error) {
	return domain.Logout(), nil
}

func mapCart(data json.RawMessage) (domain.Action, error) {
	cart, err := decode[domain.Cart](data)
	if err != nil {
		return domain.Action{}, err
	}
	return domain.SetCart(cart), nil
}

func mapProducts(data json.RawMessage) (domain.Action, error) {
	products, err := decode[[]domain.Product](data)
	if err != nil {
		return domain.Action{}, err
	}
	return domain.SetProducts(products), nil
}

func mapProduct(data json.RawMessage) (domain.Action, error) {
	product, err := decode[domain.Product](data)
	if err != nil {
		return domain.Action{}, err
	}
	return domain.SetProduct(product), nil
}

func mapReviews(data json.RawMessage) (domain.Action, error) {
	reviews, err := decode[[]domain.Review](data)
	if err != nil {
		return domain.Action{}, err
	}
	return domain.SetReviews(reviews), nil
}

func mapProductReviews(productID string) domain.Mapper {
	return func(data json.RawMessage) (domain.Action, error) {
		reviews, err := decode[[]domain.Review](data)
		if err != nil {
			return domain.Action{}, err
		}
		return domain.SetProductReviews(productID, reviews), nil
	}
}

func mapNewReview(data json.RawMessage) (domain.Action, error) {
	review, err := decode[domain.Review](data)
	if err != nil {
		return domain.Action{}, err
	}
	return domain.AddReview(review), nil
}

func mapRemovedReview(reviewID string) domain.Mapper {
	return func(json.RawMessage) (domain.Action, error) {
		return domain.RemoveReview(reviewID), nil
	}
}

// callback runs fn once the preceding mappers have succeeded
func callback(fn func()) domain.Mapper {
	return func(json.RawMessage) (domain.Action, error) {
		if fn != nil {
			fn()
		}
		return domain.Action{}, nil
	}
}
