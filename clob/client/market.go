package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/betbot/polyrouter/clob/types"
)

// GetTickSize 查询市场的最小价格精度（公开端点，无需认证）
func (c *Client) GetTickSize(ctx context.Context, tokenID string) (types.TickSize, error) {
	if err := c.rateLimiter.Wait(ctx, "clob:general"); err != nil {
		return "", fmt.Errorf("速率限制等待失败: %w", err)
	}

	resp, err := c.httpClient.get(ctx, EndpointGetTickSize, nil, map[string]string{"token_id": tokenID})
	if err != nil {
		return "", fmt.Errorf("查询 tick size 失败: %w", err)
	}

	// minimum_tick_size 是 JSON 数值（如 0.01）
	var result struct {
		MinimumTickSize json.Number `json:"minimum_tick_size"`
	}
	if err := parseResponse(resp, &result); err != nil {
		return "", fmt.Errorf("解析 tick size 失败: %w", err)
	}
	return types.TickSize(result.MinimumTickSize.String()), nil
}

// GetNegRisk 查询市场是否属于负风险事件（公开端点，无需认证）
func (c *Client) GetNegRisk(ctx context.Context, tokenID string) (bool, error) {
	if err := c.rateLimiter.Wait(ctx, "clob:general"); err != nil {
		return false, fmt.Errorf("速率限制等待失败: %w", err)
	}

	resp, err := c.httpClient.get(ctx, EndpointGetNegRisk, nil, map[string]string{"token_id": tokenID})
	if err != nil {
		return false, fmt.Errorf("查询 neg risk 失败: %w", err)
	}

	var result struct {
		NegRisk bool `json:"neg_risk"`
	}
	if err := parseResponse(resp, &result); err != nil {
		return false, fmt.Errorf("解析 neg risk 失败: %w", err)
	}
	return result.NegRisk, nil
}
