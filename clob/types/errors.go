package types

import "fmt"

// CredentialExchangeFailedError 交易所拒绝了 L1 签名，无法换取 API 凭证。
// 坏签名重试也不会变好，因此不会自动重试。
type CredentialExchangeFailedError struct {
	StatusCode int
	Body       string
}

func (e *CredentialExchangeFailedError) Error() string {
	return fmt.Sprintf("credential exchange rejected: HTTP %d: %s", e.StatusCode, e.Body)
}

// OrderRejectedError 交易所返回 4xx 校验错误，订单被拒绝（不重试）。
type OrderRejectedError struct {
	StatusCode int
	Reason     string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("order rejected: HTTP %d: %s", e.StatusCode, e.Reason)
}

// OrderStatusUnknownError 订单已发送但结果未知。
// 调用方必须通过订单状态接口对账，绝不能重新提交同一订单。
type OrderStatusUnknownError struct {
	OrderID string
	Err     error
}

func (e *OrderStatusUnknownError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("order %s submitted but status unknown: %v", e.OrderID, e.Err)
	}
	return fmt.Sprintf("order submitted but status unknown: %v", e.Err)
}

func (e *OrderStatusUnknownError) Unwrap() error { return e.Err }

// TransientNetworkError 网络/5xx 瞬时错误，内部重试耗尽后才向上抛出。
type TransientNetworkError struct {
	Attempts int
	Err      error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("transient network error after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }
