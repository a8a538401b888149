package validation

// CheckoutRequest is the payload for POST /checkout: the cart maps product
// name to a positive quantity.
type CheckoutRequest struct {
	CustomerEmail   string         `json:"customer_email" validate:"required,email"`
	Cart            map[string]int `json:"cart" validate:"required,min=1,dive,keys,required,endkeys,gt=0"`
	DeliveryAddress string         `json:"delivery_address,omitempty"`
	ContactNumber   string         `json:"contact_number,omitempty"`
	Notes           string         `json:"notes,omitempty"`
}

// SetStatusRequest is the payload for PUT /admin/status.
type SetStatusRequest struct {
	Online bool   `json:"online"`
	Actor  string `json:"actor" validate:"required"`
}

// UpdateOrderRequest is the payload for PUT /admin/orders/:id/status.
type UpdateOrderRequest struct {
	Status string `json:"status" validate:"required"`
	Actor  string `json:"actor" validate:"required"`
}
