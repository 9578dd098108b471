package state

import (
	"sort"

	"kilometers.ai/shop/internal/core/domain"
)

const recentReviewLimit = 10

// CartItems returns the cart lines ordered by item id
func CartItems(s State) []domain.CartItem {
	items := make([]domain.CartItem, 0, len(s.Cart.Items))
	for _, item := range s.Cart.Items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// CartTotalItems is the number of distinct lines, not the sum of quantities
func CartTotalItems(s State) int {
	return len(s.Cart.Items)
}

// CartTotalPrice sums quantity times unit price. A line whose product is
// unknown counts with a unit price of 1.
func CartTotalPrice(s State) float64 {
	total := 0.0
	for _, item := range s.Cart.Items {
		price := 1.0
		if item.Product != nil {
			price = item.Product.Price
		}
		total += float64(item.Quantity) * price
	}
	return total
}

// Products returns every known product ordered by name
func Products(s State) []domain.Product {
	products := make([]domain.Product, 0, len(s.Product.Products))
	for _, p := range s.Product.Products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name == products[j].Name {
			return products[i].ID < products[j].ID
		}
		return products[i].Name < products[j].Name
	})
	return products
}

func ProductByID(s State, id string) (domain.Product, bool) {
	p, ok := s.Product.Products[id]
	return p, ok
}

// AllReviews returns every known review ordered by id
func AllReviews(s State) []domain.Review {
	reviews := make([]domain.Review, 0, len(s.Reviews.Reviews))
	for _, r := range s.Reviews.Reviews {
		reviews = append(reviews, r)
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID < reviews[j].ID })
	return reviews
}

func ReviewByID(s State, id string) (domain.Review, bool) {
	r, ok := s.Reviews.Reviews[id]
	return r, ok
}

// ProductReviews returns the loaded reviews of a product, or an empty list
func ProductReviews(s State, productID string) []domain.Review {
	return append([]domain.Review{}, s.Reviews.ProductReviews[productID]...)
}

func ProductAverageRating(s State, productID string) float64 {
	reviews := s.Reviews.ProductReviews[productID]
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

func ProductReviewCount(s State, productID string) int {
	return len(s.Reviews.ProductReviews[productID])
}

// ProductRatingDistribution counts reviews per star. Keys 1 to 5 are always
// present.
func ProductRatingDistribution(s State, productID string) map[int]int {
	dist := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range s.Reviews.ProductReviews[productID] {
		dist[r.Rating]++
	}
	return dist
}

// RecentReviews returns the ten newest reviews
func RecentReviews(s State) []domain.Review {
	reviews := AllReviews(s)
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	if len(reviews) > recentReviewLimit {
		reviews = reviews[:recentReviewLimit]
	}
	return reviews
}

func UserReviews(s State, userID string) []domain.Review {
	return filterReviews(s, func(r domain.Review) bool {
		return r.User != nil && r.User.ID == userID
	})
}

func ReviewsWithImages(s State) []domain.Review {
	return filterReviews(s, func(r domain.Review) bool { return len(r.Assets) > 0 })
}

// TopRatedReviews returns reviews of four stars or more
func TopRatedReviews(s State) []domain.Review {
	return filterReviews(s, func(r domain.Review) bool { return r.Rating >= 4 })
}

func HasProductReviews(s State, productID string) bool {
	return len(s.Reviews.ProductReviews[productID]) > 0
}

func filterReviews(s State, keep func(domain.Review) bool) []domain.Review {
	out := []domain.Review{}
	for _, r := range AllReviews(s) {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
