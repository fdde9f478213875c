package router

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/betbot/polyrouter/clob/client"
	"github.com/betbot/polyrouter/clob/signing"
	"github.com/betbot/polyrouter/clob/types"
	"github.com/betbot/polyrouter/pkg/logger"
	"github.com/betbot/polyrouter/wallet"
)

// OrderStatus is the routed outcome of an order submission.
type OrderStatus string

const (
	StatusOpen            OrderStatus = "open"
	StatusFilled          OrderStatus = "filled"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusCancelled       OrderStatus = "cancelled"
	StatusRejected        OrderStatus = "rejected"
)

// OrderRequest describes one order to route. Immutable once submitted.
type OrderRequest struct {
	TokenID    string
	Side       types.Side
	Size       decimal.Decimal // outcome tokens
	Price      decimal.Decimal // must be strictly inside (0, 1)
	OrderType  types.OrderType
	Expiration int64          // unix seconds; GTD only, zero otherwise
	Funder     common.Address // funding address; zero value = signer's own
	FeeRateBps int
}

// OrderResult is the interpreted venue outcome.
type OrderResult struct {
	OrderID    string
	Status     OrderStatus
	FilledSize decimal.Decimal
	Reason     string // venue text for rejected orders
	Attempts   int
}

// VenueSubmitter is the venue surface the order router needs.
// *client.Client satisfies it.
type VenueSubmitter interface {
	PostOrder(ctx context.Context, order *types.SignedOrder, orderType types.OrderType, creds *types.ApiKeyCreds) (*types.OrderResponse, int, error)
	CancelOrder(ctx context.Context, orderID string, creds *types.ApiKeyCreds) (*types.OrderResponse, error)
	GetOrder(ctx context.Context, orderID string, creds *types.ApiKeyCreds) (*types.OpenOrder, error)
	GetTickSize(ctx context.Context, tokenID string) (types.TickSize, error)
	GetNegRisk(ctx context.Context, tokenID string) (bool, error)
}

// roundSpec is the decimal-places budget for a tick size.
type roundSpec struct {
	price  int32
	size   int32
	amount int32
}

var roundSpecs = map[types.TickSize]roundSpec{
	types.TickSize01:    {price: 1, size: 2, amount: 3},
	types.TickSize001:   {price: 2, size: 2, amount: 4},
	types.TickSize0001:  {price: 3, size: 2, amount: 5},
	types.TickSize00001: {price: 4, size: 2, amount: 6},
}

var zeroAddress = common.Address{}

// OrderRouter validates, builds, signs and submits orders, and maps venue
// responses onto the order-type semantics (GTC/GTD may rest; FOK is all or
// nothing; FAK never rests).
type OrderRouter struct {
	venue     VenueSubmitter
	chainID   types.Chain
	contracts *client.ContractConfig
}

// NewOrderRouter creates an order router for the given chain.
func NewOrderRouter(venue VenueSubmitter, chain types.Chain) (*OrderRouter, error) {
	cfg, err := client.GetContractConfig(chain)
	if err != nil {
		return nil, err
	}
	return &OrderRouter{venue: venue, chainID: chain, contracts: cfg}, nil
}

// Validate checks a request locally. No network traffic happens here; a
// request that fails validation was never sent anywhere.
func (r *OrderRouter) Validate(req *OrderRequest, link *WalletLink) error {
	if req.TokenID == "" {
		return &InvalidOrderError{Field: "token_id", Reason: "required"}
	}
	if req.Side != types.SideBuy && req.Side != types.SideSell {
		return &InvalidOrderError{Field: "side", Reason: fmt.Sprintf("unknown side %q", req.Side)}
	}
	if !req.OrderType.Valid() {
		return &InvalidOrderError{Field: "order_type", Reason: fmt.Sprintf("unknown order type %q", req.OrderType)}
	}
	if req.Size.Sign() <= 0 {
		return &InvalidOrderError{Field: "size", Reason: "must be positive"}
	}
	if req.Price.Sign() <= 0 || req.Price.Cmp(decimal.NewFromInt(1)) >= 0 {
		return &InvalidOrderError{Field: "price", Reason: "must be strictly between 0 and 1"}
	}

	if req.OrderType == types.OrderTypeGTD {
		if req.Expiration <= time.Now().Unix() {
			return &InvalidOrderError{Field: "expiration", Reason: "GTD requires a future expiration"}
		}
	} else if req.Expiration != 0 {
		return &InvalidOrderError{Field: "expiration", Reason: fmt.Sprintf("%s orders must not set an expiration", req.OrderType)}
	}

	if link != nil {
		switch link.Type {
		case WalletTypeSmart:
			if req.Funder != link.SmartWallet {
				return &InvalidOrderError{Field: "funder", Reason: "smart wallet orders must fund from the linked smart wallet"}
			}
		case WalletTypeDirect:
			if req.Funder != zeroAddress && req.Funder != link.SignerAddress {
				return &InvalidOrderError{Field: "funder", Reason: "direct wallet orders fund from the signer address"}
			}
		}
	}
	return nil
}

// PlaceOrder runs the full pipeline: validate, build, sign, submit,
// interpret. Attempts counts actual venue submissions including retries.
func (r *OrderRouter) PlaceOrder(ctx context.Context, req *OrderRequest, link *WalletLink, signer wallet.Signer, creds *types.ApiKeyCreds) (*OrderResult, error) {
	if err := r.Validate(req, link); err != nil {
		return nil, err
	}

	tickSize, err := r.venue.GetTickSize(ctx, req.TokenID)
	if err != nil {
		return nil, err
	}
	negRisk, err := r.venue.GetNegRisk(ctx, req.TokenID)
	if err != nil {
		return nil, err
	}

	signedOrder, err := r.buildSignedOrder(ctx, req, link, signer, tickSize, negRisk)
	if err != nil {
		return nil, err
	}

	resp, attempts, err := r.venue.PostOrder(ctx, signedOrder, req.OrderType, creds)
	if err != nil {
		return nil, err
	}

	result := interpretResponse(req, resp)
	result.Attempts = attempts

	logger.WithFields(map[string]interface{}{
		"token":    req.TokenID,
		"side":     string(req.Side),
		"type":     string(req.OrderType),
		"status":   string(result.Status),
		"order_id": result.OrderID,
		"attempts": attempts,
	}).Info("order routed")

	return result, nil
}

// CancelOrder cancels a resting order.
func (r *OrderRouter) CancelOrder(ctx context.Context, orderID string, creds *types.ApiKeyCreds) error {
	_, err := r.venue.CancelOrder(ctx, orderID, creds)
	return err
}

// OrderStatus polls the venue for an order's current state. This is the
// reconciliation path after an OrderStatusUnknownError.
func (r *OrderRouter) OrderStatus(ctx context.Context, orderID string, creds *types.ApiKeyCreds) (*types.OpenOrder, error) {
	return r.venue.GetOrder(ctx, orderID, creds)
}

// buildSignedOrder produces the canonical signed order for the request.
func (r *OrderRouter) buildSignedOrder(ctx context.Context, req *OrderRequest, link *WalletLink, signer wallet.Signer, tickSize types.TickSize, negRisk bool) (*types.SignedOrder, error) {
	spec, ok := roundSpecs[tickSize]
	if !ok {
		return nil, fmt.Errorf("unsupported tick size %q", tickSize)
	}

	signerAddr := signer.Address()
	maker := signerAddr
	if req.Funder != zeroAddress {
		maker = req.Funder
	}

	makerAmt, takerAmt := orderAmounts(req.Side, req.Size, req.Price, spec)

	tokenID := new(big.Int)
	if _, ok := tokenID.SetString(req.TokenID, 10); !ok {
		return nil, &InvalidOrderError{Field: "token_id", Reason: fmt.Sprintf("not a decimal integer: %q", req.TokenID)}
	}

	exchangeAddress := r.contracts.Exchange
	if negRisk {
		exchangeAddress = r.contracts.NegRiskExchange
	}

	salt := time.Now().UnixNano()
	expiration := big.NewInt(req.Expiration)
	nonce := big.NewInt(0)
	feeRateBps := big.NewInt(int64(req.FeeRateBps))

	sigType := types.SignatureTypeEOA
	if link != nil && link.Type == WalletTypeSmart {
		sigType = types.SignatureTypeGnosisSafe
	}

	orderData := &signing.OrderData{
		Salt:          salt,
		Maker:         maker.Hex(),
		Signer:        signerAddr.Hex(),
		Taker:         zeroAddress.Hex(),
		TokenID:       tokenID,
		MakerAmount:   makerAmt,
		TakerAmount:   takerAmt,
		Expiration:    expiration,
		Nonce:         nonce,
		FeeRateBps:    feeRateBps,
		Side:          req.Side,
		SignatureType: sigType,
	}

	signature, err := signing.SignOrder(ctx, signer, r.chainID, exchangeAddress, orderData)
	if err != nil {
		return nil, err
	}

	return &types.SignedOrder{
		Salt:          salt,
		Maker:         maker.Hex(),
		Signer:        signerAddr.Hex(),
		Taker:         zeroAddress.Hex(),
		TokenID:       req.TokenID,
		MakerAmount:   makerAmt.String(),
		TakerAmount:   takerAmt.String(),
		Expiration:    expiration.String(),
		Nonce:         nonce.String(),
		FeeRateBps:    feeRateBps.String(),
		Side:          req.Side,
		SignatureType: int(sigType),
		Signature:     signature,
	}, nil
}

// orderAmounts computes on-chain maker/taker amounts (6-decimal base units)
// from human price and size, honoring the tick-size rounding budget. Buy
// orders pay collateral for tokens; sell orders the reverse.
func orderAmounts(side types.Side, size, price decimal.Decimal, spec roundSpec) (makerAmt, takerAmt *big.Int) {
	rawPrice := price.Round(spec.price)

	var rawMaker, rawTaker decimal.Decimal
	if side == types.SideBuy {
		rawTaker = size.RoundFloor(spec.size)
		rawMaker = rawTaker.Mul(rawPrice)
		if decimalPlaces(rawMaker) > spec.amount {
			rawMaker = rawMaker.RoundCeil(spec.amount + 4)
			if decimalPlaces(rawMaker) > spec.amount {
				rawMaker = rawMaker.RoundFloor(spec.amount)
			}
		}
	} else {
		// sell precision is asymmetric: tokens cap at 2 decimals, the
		// collateral leg at 4
		rawMaker = size.RoundFloor(spec.size)
		if decimalPlaces(rawMaker) > 2 {
			rawMaker = rawMaker.RoundFloor(2)
		}
		rawTaker = rawMaker.Mul(rawPrice)
		if decimalPlaces(rawTaker) > 4 {
			rawTaker = rawTaker.RoundFloor(4)
		}
	}

	return toBaseUnits(rawMaker), toBaseUnits(rawTaker)
}

// toBaseUnits converts a human amount to 6-decimal base units.
func toBaseUnits(d decimal.Decimal) *big.Int {
	return d.Shift(client.CollateralTokenDecimals).Truncate(0).BigInt()
}

// decimalPlaces counts significant digits after the decimal point.
func decimalPlaces(d decimal.Decimal) int32 {
	s := d.String()
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return int32(len(s) - i - 1)
}

// interpretResponse maps the venue response onto order-type semantics.
func interpretResponse(req *OrderRequest, resp *types.OrderResponse) *OrderResult {
	result := &OrderResult{OrderID: resp.OrderID}

	if !resp.Success {
		result.Status = StatusRejected
		result.Reason = resp.ErrorMsg
		return result
	}

	filled := parseDecimal(resp.SizeMatched)
	original := parseDecimal(resp.OriginalSize)
	if original.Sign() == 0 {
		original = req.Size
	}
	result.FilledSize = filled

	switch resp.Status {
	case types.MatchStatusMatched:
		if filled.Cmp(original) >= 0 {
			result.Status = StatusFilled
		} else {
			result.Status = StatusPartiallyFilled
		}

	case types.MatchStatusUnmatched:
		// FOK that could not fully fill, or FAK with no fill at all
		result.Status = StatusRejected
		result.FilledSize = decimal.Zero
		result.Reason = "order could not be matched"

	case types.MatchStatusLive, types.MatchStatusDelayed:
		result.Status = StatusOpen

	default:
		result.Status = StatusOpen
	}

	// immediate-or-cancel types never rest in the book
	switch req.OrderType {
	case types.OrderTypeFOK:
		if result.Status != StatusFilled {
			result.Status = StatusRejected
			result.FilledSize = decimal.Zero
			if result.Reason == "" {
				result.Reason = "order could not be fully matched"
			}
		}
	case types.OrderTypeFAK:
		if result.Status == StatusOpen {
			if filled.Sign() > 0 {
				result.Status = StatusPartiallyFilled
			} else {
				result.Status = StatusRejected
				result.Reason = "order could not be matched"
			}
		}
	}

	return result
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
