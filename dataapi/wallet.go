package dataapi

import (
	"context"
	"strconv"
)

// Position 钱包持仓
type Position struct {
	Asset          string  `json:"asset"`
	ConditionID    string  `json:"conditionId"`
	Market         string  `json:"title"`
	Outcome        string  `json:"outcome"`
	Size           float64 `json:"size"`
	AvgPrice       float64 `json:"avgPrice"`
	CurrentPrice   float64 `json:"curPrice"`
	InitialValue   float64 `json:"initialValue"`
	CurrentValue   float64 `json:"currentValue"`
	CashPnl        float64 `json:"cashPnl"`
	PercentPnl     float64 `json:"percentPnl"`
	RealizedPnl    float64 `json:"realizedPnl"`
	Redeemable     bool    `json:"redeemable"`
	NegativeRisk   bool    `json:"negativeRisk"`
	EndDate        string  `json:"endDate"`
}

// WalletValue 钱包持仓总市值
type WalletValue struct {
	User  string  `json:"user"`
	Value float64 `json:"value"`
}

// GetPositions 获取钱包持仓（含每个持仓的盈亏）
func (c *Client) GetPositions(ctx context.Context, walletAddr string, limit int) ([]Position, error) {
	params := map[string]string{
		"user": walletAddr,
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var positions []Position
	if err := c.getJSON(ctx, "/positions", params, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// GetWalletValue 获取钱包持仓总市值
func (c *Client) GetWalletValue(ctx context.Context, walletAddr string) (*WalletValue, error) {
	params := map[string]string{"user": walletAddr}

	var values []WalletValue
	if err := c.getJSON(ctx, "/value", params, &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return &WalletValue{User: walletAddr}, nil
	}
	return &values[0], nil
}
