package dataapi

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
)

// PricePoint K 线数据点
type PricePoint struct {
	Timestamp int64   `json:"t"`
	Price     float64 `json:"p"`
}

// priceHistoryResponse /prices-history 响应
type priceHistoryResponse struct {
	History []PricePoint `json:"history"`
}

// GetPriceHistory 获取市场价格历史（K 线）。
// interval 可选 "1m"/"1h"/"6h"/"1d"/"1w"/"max"，fidelity 为采样分辨率（分钟）。
func (c *Client) GetPriceHistory(ctx context.Context, tokenID string, interval string, fidelity int) ([]PricePoint, error) {
	params := map[string]string{
		"market": tokenID,
	}
	if interval != "" {
		params["interval"] = interval
	}
	if fidelity > 0 {
		params["fidelity"] = strconv.Itoa(fidelity)
	}

	var resp priceHistoryResponse
	if err := c.getJSON(ctx, "/prices-history", params, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

// GetMarketPrice 获取市场当前价格（指定方向的最优价）
func (c *Client) GetMarketPrice(ctx context.Context, tokenID string, side string) (float64, error) {
	var resp struct {
		Price string `json:"price"`
	}
	params := map[string]string{
		"token_id": tokenID,
		"side":     side,
	}
	if err := c.getJSON(ctx, "/price", params, &resp); err != nil {
		return 0, err
	}
	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "解析价格 %q", resp.Price)
	}
	return price, nil
}
