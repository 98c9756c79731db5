package common

// AuthorizationHeaderName is the HTTP header carrying the bearer credential.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// DefaultLowStockThreshold is the stock level under which a product is
// reported as LOW_STOCK.
const DefaultLowStockThreshold = 10
