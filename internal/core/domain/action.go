package domain

// ActionType names a state mutation
type ActionType string

const (
	ActionSetUser        ActionType = "user/setUser"
	ActionSetAccessToken ActionType = "user/setAccessToken"
	ActionLogout         ActionType = "user/logout"

	ActionSetCart   ActionType = "cart/setCart"
	ActionClearCart ActionType = "cart/clearCart"

	ActionSetProducts   ActionType = "product/setProducts"
	ActionSetProduct    ActionType = "product/setProduct"
	ActionDeleteProduct ActionType = "product/deleteProduct"

	ActionSetReviews          ActionType = "review/setReviews"
	ActionSetProductReviews   ActionType = "review/setProductReviews"
	ActionAddReview           ActionType = "review/addReview"
	ActionUpdateReview        ActionType = "review/updateReview"
	ActionRemoveReview        ActionType = "review/removeReview"
	ActionClearProductReviews ActionType = "review/clearProductReviews"
	ActionClearAllReviews     ActionType = "review/clearAllReviews"
)

// Action describes what changed; reducers in the state container apply it.
// The zero Action means there is nothing to dispatch.
type Action struct {
	Type    ActionType
	Payload interface{}
}

// IsZero reports whether the action is empty
func (a Action) IsZero() bool {
	return a.Type == ""
}

// ProductReviews is the payload of ActionSetProductReviews
type ProductReviews struct {
	ProductID string
	Reviews   []Review
}

func SetUser(user *User) Action { return Action{Type: ActionSetUser, Payload: user} }
func SetAccessToken(cred Credential) Action { return Action{Type: ActionSetAccessToken, Payload: cred} }
func Logout() Action { return Action{Type: ActionLogout} }

func SetCart(cart Cart) Action { return Action{Type: ActionSetCart, Payload: cart} }
func ClearCart() Action { return Action{Type: ActionClearCart} }

func SetProducts(products []Product) Action { return Action{Type: ActionSetProducts, Payload: products} }
func SetProduct(product Product) Action { return Action{Type: ActionSetProduct, Payload: product} }
func DeleteProduct(id string) Action { return Action{Type: ActionDeleteProduct, Payload: id} }

func SetReviews(reviews []Review) Action { return Action{Type: ActionSetReviews, Payload: reviews} }
func SetProductReviews(productID string, reviews []Review) Action {
	return Action{Type: ActionSetProductReviews, Payload: ProductReviews{ProductID: productID, Reviews: reviews}}
}
func AddReview(review Review) Action { return Action{Type: ActionAddReview, Payload: review} }
func UpdateReview(review Review) Action { return Action{Type: ActionUpdateReview, Payload: review} }
func RemoveReview(id string) Action { return Action{Type: ActionRemoveReview, Payload: id} }

// ClearProductReviews drops the cached reviews of one product, or of all
// products when productID is empty.
func ClearProductReviews(productID string) Action {
	return Action{Type: ActionClearProductReviews, Payload: productID}
}
func ClearAllReviews() Action { return Action{Type: ActionClearAllReviews} }
