package cart

// AddItemRequest adds a catalog product to the cart. Quantity defaults to one.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
	Quantity  *int   `json:"quantity,omitempty" validate:"omitempty,max=9999"`
}

// SetQuantityRequest overwrites a line quantity; the store clamps it.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=-9999,max=9999"`
}

// ApplyPromotionRequest redeems a promotion code. A blank code is simply
// unrecognized and clears the active promotion.
type ApplyPromotionRequest struct {
	Code string `json:"code" validate:"max=64"`
}
