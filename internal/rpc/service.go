// Package rpc exposes the history over the daemon's local socket: a gRPC
// service for the CLI and a JSON/HTTP gateway for everything else, sharing
// one listener.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/hub"
)

// Store is the read and touch surface of history.Store.
type Store interface {
	ListAll(ctx context.Context) ([]history.Record, error)
	ListRecent(ctx context.Context, limit int) ([]history.Record, error)
	Search(ctx context.Context, term string) ([]history.Record, error)
	Get(ctx context.Context, id int64) (history.Record, error)
	Touch(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// Paster writes a record back to the clipboard.
type Paster interface {
	Paste(ctx context.Context, id int64) (history.Record, error)
}

// Info is static daemon metadata reported by Status.
type Info struct {
	Version   string
	Backend   string
	Database  string
	StartedAt time.Time
}

// Service implements HistoryServer.
type Service struct {
	store  Store
	paster Paster
	hub    *hub.Hub
	info   Info
}

// NewService returns a Service. paster may be nil, in which case Paste
// reports Unimplemented.
func NewService(store Store, paster Paster, h *hub.Hub, info Info) *Service {
	return &Service{store: store, paster: paster, hub: h, info: info}
}

func (s *Service) List(ctx context.Context, req *ListRequest) (*ItemsResponse, error) {
	var (
		recs []history.Record
		err  error
	)
	if req.Limit > 0 {
		recs, err = s.store.ListRecent(ctx, req.Limit)
	} else {
		recs, err = s.store.ListAll(ctx)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &ItemsResponse{Items: itemsFromRecords(recs)}, nil
}

func (s *Service) Search(ctx context.Context, req *SearchRequest) (*ItemsResponse, error) {
	recs, err := s.store.Search(ctx, req.Query)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ItemsResponse{Items: itemsFromRecords(recs)}, nil
}

func (s *Service) Get(ctx context.Context, req *IDRequest) (*ItemResponse, error) {
	rec, err := s.store.Get(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ItemResponse{Item: ItemFromRecord(rec, true)}, nil
}

// Touch bumps a record to the top of the history without touching the
// clipboard.
func (s *Service) Touch(ctx context.Context, req *IDRequest) (*ItemResponse, error) {
	if err := s.store.Touch(ctx, req.ID); err != nil {
		return nil, toStatus(err)
	}
	rec, err := s.store.Get(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	s.hub.Publish(hub.Event{Kind: hub.KindTouched, ID: rec.ID, ContentType: string(rec.ContentType), SourceApp: rec.SourceApp})
	return &ItemResponse{Item: ItemFromRecord(rec, false)}, nil
}

// Paste copies a record back onto the system clipboard.
func (s *Service) Paste(ctx context.Context, req *IDRequest) (*ItemResponse, error) {
	if s.paster == nil {
		return nil, status.Error(codes.Unimplemented, "paste is not available")
	}
	rec, err := s.paster.Paste(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ItemResponse{Item: ItemFromRecord(rec, false)}, nil
}

func (s *Service) Status(ctx context.Context, _ *StatusRequest) (*StatusResponse, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &StatusResponse{
		Version:     s.info.Version,
		Backend:     s.info.Backend,
		Database:    s.info.Database,
		Records:     n,
		Subscribers: s.hub.Len(),
		StartedAt:   s.info.StartedAt,
	}
	if e, ok := s.hub.Latest(); ok {
		resp.Latest = &e
	}
	return resp, nil
}

// Watch streams hub events until the client goes away.
func (s *Service) Watch(_ *WatchRequest, stream WatchServer) error {
	sub := s.hub.Subscribe(0)
	defer sub.Close()

	slog.Debug("watch started", "subscriber", sub.ID())
	for {
		select {
		case <-stream.Context().Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := stream.Send(&ev); err != nil {
				return err
			}
		}
	}
}

// toStatus maps domain errors onto gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, history.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
