// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/nodepool/api/doc"
	"github.com/vechain/nodepool/api/middleware"
	"github.com/vechain/nodepool/api/pool"
	"github.com/vechain/nodepool/api/subscriptions"
	"github.com/vechain/nodepool/builtin/nodepool"
	"github.com/vechain/nodepool/builtin/nodepool/dispatch"
	"github.com/vechain/nodepool/log"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EnableMetrics        bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	// Commit persists the state after each call served by POST /pool/calls
	// and Head picks the block the call runs in. Calls stay disabled unless both are set.
	Commit func() error
	Head   func() dispatch.Head
}

// New return api router
func New(p *nodepool.Pool, mu *sync.RWMutex, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	router.Path("/doc/nodepool.yaml").
		Methods(http.MethodGet).
		Handler(http.StripPrefix("/doc/", http.FileServer(http.FS(doc.FS))))

	pool.New(p, mu, opts.Commit, opts.Head).
		Mount(router, "/pool")
	subs := subscriptions.New(p, origins)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("x-nodepool-ver", doc.Version())
			next.ServeHTTP(w, r)
		})
	})

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.ExposedHeaders([]string{"x-nodepool-ver"}),
	)(handler)

	if opts.EnableReqLogger != nil {
		handler = middleware.RequestLoggerMiddleware(logger, opts.EnableReqLogger, opts.SlowQueriesThreshold, opts.Log5xxErrors)(handler)
	}

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
