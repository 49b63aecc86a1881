package grpcapi

import (
	"context"
	"log/slog"
	"path"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kvetinski/contacts/internal/telemetry"
)

// UnaryMetricsInterceptor records, logs and recovers every unary call.
func UnaryMetricsInterceptor(metrics *telemetry.Metrics, logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		method := path.Base(info.FullMethod)
		start := time.Now()

		metrics.IncRPCInFlight()
		defer metrics.DecRPCInFlight()

		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc handler panic", "method", method, "panic", r)
				resp, err = nil, status.Error(codes.Internal, "internal server error")
			}

			code := status.Code(err)
			metrics.ObserveRPC(method, code.String(), time.Since(start))

			level := slog.LevelInfo
			if code == codes.Internal || code == codes.Unknown {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "grpc request",
				"method", method,
				"code", code.String(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()

		return handler(ctx, req)
	}
}
