package models

import "errors"

var (
	ErrInvalidPaymentAmount      = errors.New("invalid payment amount")
	ErrPlanNotActive             = errors.New("installment plan is not active")
	ErrPlanNotAwaitingCheckout   = errors.New("installment plan is not awaiting checkout")
	ErrBalanceMismatch           = errors.New("paid amount and remaining balance do not add up to the total")
	ErrRejectionReasonRequired   = errors.New("rejection reason is required")
	ErrUnexpectedRejectionReason = errors.New("rejection reason is only allowed on rejected applications")
)
