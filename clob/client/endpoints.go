package client

// API 端点常量
const (
	// Server Time
	EndpointTime = "/time"

	// API Key endpoints
	EndpointCreateAPIKey = "/auth/api-key"
	EndpointDeriveAPIKey = "/auth/derive-api-key"
	EndpointDeleteAPIKey = "/auth/api-key"

	// Order endpoints
	EndpointPostOrder   = "/order"
	EndpointCancelOrder = "/order"
	EndpointGetOrder    = "/data/order/"
	EndpointGetOrders   = "/data/orders"

	// Markets
	EndpointGetTickSize = "/tick-size"
	EndpointGetNegRisk  = "/neg-risk"
	EndpointGetPrice    = "/price"
)
