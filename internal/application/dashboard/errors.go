package dashboard

import "github.com/ibportal/backend/internal/domain/shared"

var (
	// ErrGatewayUnauthorized means the gateway no longer accepts the session's token
	ErrGatewayUnauthorized = shared.NewDomainError("GATEWAY_UNAUTHORIZED", "The data service rejected your session, please sign in again")

	// ErrGateway means the gateway could not serve the page's data
	ErrGateway = shared.NewDomainError("GATEWAY_ERROR", "The data service is unavailable")
)
