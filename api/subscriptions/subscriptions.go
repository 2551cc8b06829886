// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/nodepool/api/utils"
	"github.com/vechain/nodepool/builtin/nodepool"
	"github.com/vechain/nodepool/log"
	"github.com/vechain/nodepool/thor"
)

var logger = log.WithContext("pkg", "api-subscriptions")

const (
	eventBufferSize = 64
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 7 / 10
)

// Subscriptions streams pool events over websocket.
type Subscriptions struct {
	pool     *nodepool.Pool
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates the subscription handlers. allowedOrigins holds lower-cased
// host names, "*" allows any origin.
func New(pool *nodepool.Pool, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		pool: pool,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == strings.ToLower(u.Hostname()) {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

// eventFilter selects events by kind and user, empty fields match all.
type eventFilter struct {
	kinds map[nodepool.EventKind]struct{}
	user  *thor.Address
}

func parseEventFilter(req *http.Request) (*eventFilter, error) {
	var f eventFilter
	query := req.URL.Query()
	if kinds := query.Get("kind"); kinds != "" {
		f.kinds = make(map[nodepool.EventKind]struct{})
		for _, k := range strings.Split(kinds, ",") {
			f.kinds[nodepool.EventKind(strings.TrimSpace(k))] = struct{}{}
		}
	}
	if user := query.Get("user"); user != "" {
		addr, err := thor.ParseAddress(user)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "user"))
		}
		f.user = &addr
	}
	return &f, nil
}

func (f *eventFilter) match(ev *nodepool.Event) bool {
	if f.kinds != nil {
		if _, ok := f.kinds[ev.Kind]; !ok {
			return false
		}
	}
	if f.user != nil && (ev.User == nil || *ev.User != *f.user) {
		return false
	}
	return true
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	s.wg.Add(1)
	defer s.wg.Done()

	filter, err := parseEventFilter(req)
	if err != nil {
		return err
	}

	// subscribe before the upgrade, so nothing published after the handshake is missed
	ch := make(chan *nodepool.Event, eventBufferSize)
	sub := s.pool.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader already responded
		logger.Debug("upgrade failed", "error", err)
		return nil
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-ch:
			if !filter.match(ev) {
				continue
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return nil
			}
			if err := conn.WriteJSON(ev); err != nil {
				logger.Debug("failed to write event", "kind", ev.Kind, "error", err)
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case <-sub.Err():
			s.closeConn(conn)
			return nil
		case <-closed:
			return nil
		case <-s.done:
			s.closeConn(conn)
			return nil
		}
	}
}

func (s *Subscriptions) closeConn(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		logger.Debug("failed to close connection", "error", err)
	}
}

// Close ends all open subscriptions and waits for their handlers to return.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("subscriptions_events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
