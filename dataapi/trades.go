package dataapi

import (
	"context"
	"strconv"
)

// Trade 历史成交记录
type Trade struct {
	ProxyWallet     string  `json:"proxyWallet"`
	Side            string  `json:"side"`
	Asset           string  `json:"asset"`
	ConditionID     string  `json:"conditionId"`
	Size            float64 `json:"size"`
	Price           float64 `json:"price"`
	Timestamp       int64   `json:"timestamp"`
	Title           string  `json:"title"`
	Outcome         string  `json:"outcome"`
	TransactionHash string  `json:"transactionHash"`
}

// GetTrades 获取钱包历史成交。market 为空时返回全部市场。
func (c *Client) GetTrades(ctx context.Context, walletAddr string, market string, limit int, offset int) ([]Trade, error) {
	params := map[string]string{
		"user": walletAddr,
	}
	if market != "" {
		params["market"] = market
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	if offset > 0 {
		params["offset"] = strconv.Itoa(offset)
	}

	var trades []Trade
	if err := c.getJSON(ctx, "/trades", params, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}
