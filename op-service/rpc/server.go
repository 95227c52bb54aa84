package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

var wildcardHosts = []string{"*"}

// Server serves a set of go-ethereum JSON-RPC APIs over HTTP, and optionally
// websocket on the same port.
type Server struct {
	endpoint   string
	apis       []rpc.API
	appVersion string
	enableWS   bool
	healthzFn  func() error
	log        log.Logger

	rpcServer  *rpc.Server
	httpServer *http.Server
	listener   net.Listener
}

type ServerOption func(b *Server)

func WithLogger(lgr log.Logger) ServerOption {
	return func(b *Server) {
		b.log = lgr
	}
}

func WithAPIs(apis []rpc.API) ServerOption {
	return func(b *Server) {
		b.apis = apis
	}
}

func WithWebsocketEnabled(enabled bool) ServerOption {
	return func(b *Server) {
		b.enableWS = enabled
	}
}

// WithHealthCheck overrides the check behind the /healthz endpoint.
func WithHealthCheck(fn func() error) ServerOption {
	return func(b *Server) {
		b.healthzFn = fn
	}
}

func NewServer(host string, port int, appVersion string, opts ...ServerOption) *Server {
	bs := &Server{
		endpoint:   net.JoinHostPort(host, strconv.Itoa(port)),
		appVersion: appVersion,
		healthzFn:  func() error { return nil },
		rpcServer:  rpc.NewServer(),
		log:        log.Root(),
	}
	for _, opt := range opts {
		opt(bs)
	}
	bs.AddAPI(rpc.API{
		Namespace: "health",
		Service:   &healthzAPI{appVersion: appVersion},
	})
	return bs
}

// Endpoint returns the address the server is listening on. Only valid after Start.
func (b *Server) Endpoint() string {
	if b.listener != nil {
		return b.listener.Addr().String()
	}
	return b.endpoint
}

// AddAPI registers an API. Must be called before Start.
func (b *Server) AddAPI(api rpc.API) {
	b.apis = append(b.apis, api)
}

func (b *Server) Start() error {
	for _, api := range b.apis {
		if err := b.rpcServer.RegisterName(api.Namespace, api.Service); err != nil {
			return fmt.Errorf("failed to register API %s: %w", api.Namespace, err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(b.serveHealthz))
	mux.Handle("/", b.rpcHandler())

	listener, err := net.Listen("tcp", b.endpoint)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	b.listener = listener
	b.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := b.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.log.Error("RPC server failed", "err", err)
		}
	}()
	b.log.Info("Started RPC server", "endpoint", b.Endpoint(), "websocket", b.enableWS)
	return nil
}

func (b *Server) rpcHandler() http.Handler {
	if !b.enableWS {
		return b.rpcServer
	}
	ws := b.rpcServer.WebsocketHandler(wildcardHosts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isWebsocket(r) {
			ws.ServeHTTP(w, r)
			return
		}
		b.rpcServer.ServeHTTP(w, r)
	})
}

func (b *Server) serveHealthz(w http.ResponseWriter, _ *http.Request) {
	if err := b.healthzFn(); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.appVersion))
}

func (b *Server) Stop() error {
	var result error
	if b.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.httpServer.Shutdown(ctx); err != nil {
			result = errors.Join(result, err)
		}
	}
	b.rpcServer.Stop()
	return result
}

func isWebsocket(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

type healthzAPI struct {
	appVersion string
}

func (h *healthzAPI) Status() string {
	return h.appVersion
}
