package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"
)

// Serve answers both gRPC and HTTP/JSON on ln until ctx is cancelled. HTTP/2
// requests with a gRPC content-type go to the gRPC server; everything else
// goes to the gateway. Serve owns ln and closes it on return.
func Serve(ctx context.Context, ln net.Listener, svc HistoryServer) error {
	m := cmux.New(ln)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldPrefixSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.Any())

	gs := grpc.NewServer()
	Register(gs, svc)

	hs := &http.Server{
		Handler:           NewGateway(svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 3)
	go func() { errc <- gs.Serve(grpcL) }()
	go func() { errc <- hs.Serve(httpL) }()
	go func() { errc <- m.Serve() }()

	slog.Info("rpc listening", "addr", ln.Addr().String())

	var err error
	select {
	case <-ctx.Done():
	case err = <-errc:
		if isClosed(err) {
			err = nil
		}
	}

	gs.Stop()
	_ = hs.Close()
	m.Close()
	_ = ln.Close()
	return err
}

func isClosed(err error) bool {
	return err == nil ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, http.ErrServerClosed) ||
		errors.Is(err, grpc.ErrServerStopped) ||
		errors.Is(err, cmux.ErrListenerClosed) ||
		errors.Is(err, cmux.ErrServerClosed)
}
