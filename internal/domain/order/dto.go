// internal/domain/order/dto.go
package order

// SubmitInput is the payload of a purchase attempt.
type SubmitInput struct {
	ServiceRef  string `json:"service_ref" binding:"required"`
	TargetURL   string `json:"target_url" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
	TotalAmount int64  `json:"total_amount" binding:"required,min=1"`
}

// SubmitResult is returned to the UI after a successful submission.
type SubmitResult struct {
	OrderID string `json:"order_id"`
	Balance int64  `json:"balance"`
}

// StatusUpdate is a single order-progress observation, from either the push
// channel or a reconciliation fetch.
type StatusUpdate struct {
	OrderID  string `json:"order_id"`
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
}
