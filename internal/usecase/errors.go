package usecase

import "errors"

// APIが返すエラーコード。クライアントはcodeで分岐する。
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeEmptyCart           = "EMPTY_CART"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInvalidCoupon       = "INVALID_COUPON"
	CodePaymentVerification = "PAYMENT_VERIFICATION_FAILED"
	CodePaymentGateway      = "PAYMENT_GATEWAY_ERROR"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeOrderNumberConflict = "ORDER_NUMBER_CONFLICT"
	CodeInternal            = "INTERNAL_ERROR"
)

// HTTPError はusecase層からhandlerへ伝えるHTTPエラー。
// handler側はAsHTTPErrorで拾ってJSONにする。
type HTTPError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(status int, code, message string) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}
