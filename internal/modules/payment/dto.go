package payment

type CreatePaymentRequest struct {
	Amount        float64 `json:"amount" binding:"gte=0"`
	Method        string  `json:"payment_method" binding:"required,max=50"`
	TransactionID string  `json:"transaction_id" binding:"max=255"`
	Status        string  `json:"status" binding:"omitempty,oneof=pending completed failed"`
	Notes         string  `json:"notes" binding:"max=1000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=completed failed"`
}

type RefundRequest struct {
	Amount *float64 `json:"amount"`
}
