package rpc

import (
	"context"
	"net/http"
	"strconv"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewGateway returns an HTTP/JSON front for svc. Handlers call the service
// in-process; errors are rendered by the gateway's standard status mapping.
//
//	GET  /v1/history?limit=N
//	GET  /v1/search?q=TERM
//	GET  /v1/history/{id}
//	POST /v1/history/{id}/touch
//	POST /v1/history/{id}/paste
//	GET  /v1/status
func NewGateway(svc HistoryServer) *gwruntime.ServeMux {
	mux := gwruntime.NewServeMux(
		gwruntime.WithMarshalerOption(gwruntime.MIMEWildcard, &gwruntime.JSONBuiltin{}),
	)
	g := &gateway{mux: mux, svc: svc}

	must(mux.HandlePath(http.MethodGet, "/v1/history", g.list))
	must(mux.HandlePath(http.MethodGet, "/v1/search", g.search))
	must(mux.HandlePath(http.MethodGet, "/v1/history/{id}", g.byID(svc.Get)))
	must(mux.HandlePath(http.MethodPost, "/v1/history/{id}/touch", g.byID(svc.Touch)))
	must(mux.HandlePath(http.MethodPost, "/v1/history/{id}/paste", g.byID(svc.Paste)))
	must(mux.HandlePath(http.MethodGet, "/v1/status", g.status))
	return mux
}

// must panics on route registration errors, which are programming mistakes.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

type gateway struct {
	mux *gwruntime.ServeMux
	svc HistoryServer
}

func (g *gateway) list(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	req := &ListRequest{}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			g.fail(w, r, status.Errorf(codes.InvalidArgument, "limit: %v", err))
			return
		}
		req.Limit = n
	}
	resp, err := g.svc.List(r.Context(), req)
	g.reply(w, r, resp, err)
}

func (g *gateway) search(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp, err := g.svc.Search(r.Context(), &SearchRequest{Query: r.URL.Query().Get("q")})
	g.reply(w, r, resp, err)
}

func (g *gateway) byID(call func(context.Context, *IDRequest) (*ItemResponse, error)) gwruntime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		id, err := strconv.ParseInt(params["id"], 10, 64)
		if err != nil {
			g.fail(w, r, status.Errorf(codes.InvalidArgument, "id %q: not an integer", params["id"]))
			return
		}
		resp, err := call(r.Context(), &IDRequest{ID: id})
		g.reply(w, r, resp, err)
	}
}

func (g *gateway) status(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp, err := g.svc.Status(r.Context(), &StatusRequest{})
	g.reply(w, r, resp, err)
}

func (g *gateway) reply(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		g.fail(w, r, err)
		return
	}
	_, out := gwruntime.MarshalerForRequest(g.mux, r)
	buf, err := out.Marshal(v)
	if err != nil {
		g.fail(w, r, status.Error(codes.Internal, err.Error()))
		return
	}
	w.Header().Set("Content-Type", out.ContentType(v))
	_, _ = w.Write(buf)
}

func (g *gateway) fail(w http.ResponseWriter, r *http.Request, err error) {
	_, out := gwruntime.MarshalerForRequest(g.mux, r)
	gwruntime.HTTPError(r.Context(), g.mux, out, w, r, err)
}
