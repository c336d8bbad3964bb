// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package wserver pushes routed events to websocket subscribers.
package wserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/annchain/schain-manager/common/goroutine"
	"github.com/annchain/schain-manager/eventbus"
)

const (
	serverWSPath    = "/ws"
	queueSize       = 1024
	shutdownTimeout = 5 * time.Second
)

// Envelope is the frame written to subscribers.
type Envelope struct {
	Type  string         `json:"type"`
	Event eventbus.Event `json:"event"`
}

// Server implements eventbus.EventHandler. Routed events are queued and
// written out by a single loop so Route never blocks on slow clients.
type Server struct {
	Port int

	engine  *gin.Engine
	server  *http.Server
	subs    *subscriptions
	queue   chan eventbus.Event
	quit    chan struct{}
	dropped atomic.Uint64
	pushed  atomic.Uint64
}

func NewServer(port int) *Server {
	s := &Server{
		Port:  port,
		subs:  newSubscriptions(),
		queue: make(chan eventbus.Event, queueSize),
		quit:  make(chan struct{}),
	}
	wh := &websocketHandler{
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: s.subs,
	}
	s.engine = gin.New()
	s.engine.Use(gin.RecoveryWithWriter(logrus.StandardLogger().Out))
	s.engine.GET(serverWSPath, func(c *gin.Context) {
		wh.ServeHTTP(c.Writer, c.Request)
	})
	s.server = &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: s.engine,
	}
	return s
}

// Handler exposes the engine, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Name() string {
	return fmt.Sprintf("websocket Server at port %d", s.Port)
}

func (s *Server) HandlerDescription(t eventbus.EventType) string {
	return "push " + t.String() + " to websocket subscribers"
}

func (s *Server) HandleEvent(ev eventbus.Event) {
	select {
	case s.queue <- ev:
	default:
		s.dropped.Inc()
		logrus.WithField("type", ev.GetEventType().String()).Warn("ws queue full, event dropped")
	}
}

// Subscribers reports how many connections listen to topic.
func (s *Server) Subscribers(topic string) int {
	return s.subs.Count(topic)
}

func (s *Server) Stats() map[string]uint64 {
	return map[string]uint64{
		"pushed":  s.pushed.Load(),
		"dropped": s.dropped.Load(),
	}
}

// Serve runs the push loop without opening a listener.
func (s *Server) Serve() {
	goroutine.New(s.loop)
}

func (s *Server) Start() {
	s.Serve()
	logrus.Infof("listening ws on %d", s.Port)
	goroutine.New(func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("error in websocket server")
		}
	})
}

func (s *Server) Stop() {
	close(s.quit)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("error while shutting down the websocket server")
	}
	logrus.Info("websocket server stopped")
}

func (s *Server) loop() {
	for {
		select {
		case <-s.quit:
			return
		case ev := <-s.queue:
			s.publish(ev)
		}
	}
}

func (s *Server) publish(ev eventbus.Event) {
	name := ev.GetEventType().String()
	conns := append(s.subs.Get(name), s.subs.Get(TopicAll)...)
	if len(conns) == 0 {
		return
	}
	data, err := json.Marshal(Envelope{Type: name, Event: ev})
	if err != nil {
		logrus.WithError(err).WithField("type", name).Error("marshal ws event")
		return
	}
	sent := make(map[string]struct{}, len(conns))
	for _, c := range conns {
		if _, ok := sent[c.GetID()]; ok {
			continue
		}
		sent[c.GetID()] = struct{}{}
		if _, err := c.Write(data); err != nil {
			logrus.WithError(err).WithField("conn", c.GetID()).Debug("ws write failed")
			continue
		}
		s.pushed.Inc()
	}
}
