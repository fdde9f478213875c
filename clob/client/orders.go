package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/betbot/polyrouter/clob/signing"
	"github.com/betbot/polyrouter/clob/types"
)

// PostOrder 提交已签名订单。
// 返回交易所响应和实际尝试次数。重试只发生在订单未被交易所确认之前：
// 传输错误和 5xx 按指数退避重试；4xx 返回 OrderRejectedError 且不重试；
// 2xx 之后的解析失败或中途取消返回 OrderStatusUnknownError，绝不重新提交。
func (c *Client) PostOrder(ctx context.Context, order *types.SignedOrder, orderType types.OrderType, creds *types.ApiKeyCreds) (*types.OrderResponse, int, error) {
	payload := types.NewOrder{
		Order:     *order,
		Owner:     creds.Key,
		OrderType: orderType,
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("序列化订单载荷失败: %w", err)
	}
	bodyStr := string(bodyBytes)

	var lastErr error
	for attempt := 1; attempt <= c.retry.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.retry.backoff(ctx, attempt-1); err != nil {
				return nil, attempt - 1, err
			}
		}

		if err := c.rateLimiter.Wait(ctx, "clob:order:post"); err != nil {
			return nil, attempt - 1, fmt.Errorf("速率限制等待失败: %w", err)
		}

		// 每次尝试重新生成 L2 头（时间戳必须新鲜）
		headers, err := signing.CreateL2Headers(creds.SignerAddress, creds, &types.L2HeaderArgs{
			Method:      "POST",
			RequestPath: EndpointPostOrder,
			Body:        &bodyStr,
		}, nil)
		if err != nil {
			return nil, attempt, fmt.Errorf("创建 L2 认证头失败: %w", err)
		}

		resp, err := c.httpClient.post(ctx, EndpointPostOrder, headers.Map(), nil, bodyBytes)
		if err != nil {
			// 中途取消：订单可能已被交易所收到，状态未知
			if ctx.Err() != nil {
				return nil, attempt, &types.OrderStatusUnknownError{Err: ctx.Err()}
			}
			lastErr = err
			continue
		}

		if retryableStatus(resp.StatusCode) {
			body, _ := responseBody(resp)
			lastErr = fmt.Errorf("HTTP 错误 %d: %s", resp.StatusCode, string(body))
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := responseBody(resp)
			return nil, attempt, &types.OrderRejectedError{
				StatusCode: resp.StatusCode,
				Reason:     venueErrorReason(body),
			}
		}

		// 交易所已确认收到：此后任何失败都不能重试
		body, readErr := responseBody(resp)
		if readErr != nil {
			return nil, attempt, &types.OrderStatusUnknownError{Err: readErr}
		}
		var orderResp types.OrderResponse
		if err := json.Unmarshal(body, &orderResp); err != nil {
			return nil, attempt, &types.OrderStatusUnknownError{Err: fmt.Errorf("解析订单响应失败: %w", err)}
		}
		return &orderResp, attempt, nil
	}

	return nil, c.retry.maxAttempts, &types.TransientNetworkError{Attempts: c.retry.maxAttempts, Err: lastErr}
}

// CancelOrder 取消订单
func (c *Client) CancelOrder(ctx context.Context, orderID string, creds *types.ApiKeyCreds) (*types.OrderResponse, error) {
	if err := c.rateLimiter.Wait(ctx, "clob:order:delete"); err != nil {
		return nil, fmt.Errorf("速率限制等待失败: %w", err)
	}

	headers, err := signing.CreateL2Headers(creds.SignerAddress, creds, &types.L2HeaderArgs{
		Method:      "DELETE",
		RequestPath: EndpointCancelOrder,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 L2 认证头失败: %w", err)
	}

	params := map[string]string{"orderID": orderID}
	resp, err := c.httpClient.delete(ctx, EndpointCancelOrder, headers.Map(), params)
	if err != nil {
		return nil, fmt.Errorf("取消订单失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := responseBody(resp)
		return nil, fmt.Errorf("HTTP 错误 %d: %s (orderID=%s)", resp.StatusCode, string(body), orderID)
	}

	var orderResp types.OrderResponse
	if err := parseResponse(resp, &orderResp); err != nil {
		return nil, fmt.Errorf("解析订单响应失败: %w (orderID=%s)", err, orderID)
	}
	return &orderResp, nil
}

// GetOrder 查询订单状态（OrderStatusUnknown 之后的对账入口）
func (c *Client) GetOrder(ctx context.Context, orderID string, creds *types.ApiKeyCreds) (*types.OpenOrder, error) {
	if err := c.rateLimiter.Wait(ctx, "clob:orders:get"); err != nil {
		return nil, fmt.Errorf("速率限制等待失败: %w", err)
	}

	requestPath := EndpointGetOrder + orderID
	headers, err := signing.CreateL2Headers(creds.SignerAddress, creds, &types.L2HeaderArgs{
		Method:      "GET",
		RequestPath: requestPath,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 L2 认证头失败: %w", err)
	}

	resp, err := c.httpClient.get(ctx, requestPath, headers.Map(), nil)
	if err != nil {
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}

	var order types.OpenOrder
	if err := parseResponse(resp, &order); err != nil {
		return nil, fmt.Errorf("解析订单失败: %w (orderID=%s)", err, orderID)
	}
	return &order, nil
}

// venueErrorReason 从交易所错误响应中提取原因文本
func venueErrorReason(body []byte) string {
	var errResp struct {
		Error    string `json:"error"`
		ErrorMsg string `json:"errorMsg"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Error != "" {
			return errResp.Error
		}
		if errResp.ErrorMsg != "" {
			return errResp.ErrorMsg
		}
	}
	return string(body)
}
