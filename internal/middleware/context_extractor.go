// internal/middleware/context_extractor.go
package middleware

import (
	"context"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

// ContextKeys for storing request metadata
type ContextKey string

const (
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyIPAddress ContextKey = "ip_address"
	ContextKeyUserAgent ContextKey = "user_agent"
)

// HeaderRequestID is echoed on every HTTP response.
const HeaderRequestID = "X-Request-Id"

// RequestContext tags each HTTP request with an id and the caller's address
// and user agent. The values land in c.Locals and in the user context handed
// to the service layer.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(HeaderRequestID, requestID)

		ctx := c.UserContext()
		ctx = context.WithValue(ctx, ContextKeyRequestID, requestID)
		c.Locals(string(ContextKeyRequestID), requestID)

		if ip := c.IP(); ip != "" {
			ctx = context.WithValue(ctx, ContextKeyIPAddress, ip)
			c.Locals(string(ContextKeyIPAddress), ip)
		}
		if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
			ctx = context.WithValue(ctx, ContextKeyUserAgent, ua)
			c.Locals(string(ContextKeyUserAgent), ua)
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// UnaryMetadataExtractor does the same for gRPC calls.
func UnaryMetadataExtractor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		return handler(enrichContext(ctx), req)
	}
}

func enrichContext(ctx context.Context) context.Context {
	requestID := firstMetadata(ctx, "x-request-id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = context.WithValue(ctx, ContextKeyRequestID, requestID)

	if ip := extractIPAddress(ctx); ip != "" {
		ctx = context.WithValue(ctx, ContextKeyIPAddress, ip)
	}
	if ua := firstMetadata(ctx, "user-agent", "grpc-user-agent", "x-user-agent"); ua != "" {
		ctx = context.WithValue(ctx, ContextKeyUserAgent, ua)
	}
	return ctx
}

// extractIPAddress extracts the client IP address from the context
func extractIPAddress(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	if tcpAddr, ok := p.Addr.(*net.TCPAddr); ok {
		return tcpAddr.IP.String()
	}

	addr := p.Addr.String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func firstMetadata(ctx context.Context, keys ...string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, key := range keys {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// Helper functions to extract values from context

func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

func GetIPAddressFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ContextKeyIPAddress).(string)
	return ip
}

func GetUserAgentFromContext(ctx context.Context) string {
	ua, _ := ctx.Value(ContextKeyUserAgent).(string)
	return ua
}

// ClientInfo groups what is known about the caller.
type ClientInfo struct {
	RequestID string
	IPAddress string
	UserAgent string
}

// GetClientInfoFromContext extracts all client information from context
func GetClientInfoFromContext(ctx context.Context) *ClientInfo {
	return &ClientInfo{
		RequestID: GetRequestIDFromContext(ctx),
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
	}
}
