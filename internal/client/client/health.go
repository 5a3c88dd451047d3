package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceRecognition is the health service name reported by the server for
// the recognizer.
const ServiceRecognition = "facevote.recognition"

// HealthProber checks server reachability over the gRPC health protocol.
type HealthProber struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

// NewHealthProber creates a prober for addr. The connection is established
// lazily on the first Check.
func NewHealthProber(addr string) (*HealthProber, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &HealthProber{conn: conn, client: healthpb.NewHealthClient(conn)}, nil
}

// Close releases the underlying connection.
func (p *HealthProber) Close() error {
	return p.conn.Close()
}

// Ping reports whether the server as a whole is serving.
func (p *HealthProber) Ping(ctx context.Context) error {
	return p.Check(ctx, "")
}

// Check returns nil when service is SERVING and ErrUnavailable otherwise.
func (p *HealthProber) Check(ctx context.Context, service string) error {
	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return mapError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s is %s", ErrUnavailable, service, resp.GetStatus())
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
