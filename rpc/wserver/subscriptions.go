package wserver

import (
	"sync"
)

// subscriptions maps a topic to the connections listening to it.
type subscriptions struct {
	mu    sync.RWMutex
	conns map[string]map[string]*Conn
}

func newSubscriptions() *subscriptions {
	return &subscriptions{conns: make(map[string]map[string]*Conn)}
}

func (s *subscriptions) Add(topic string, conn *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.conns[topic]
	if !ok {
		m = make(map[string]*Conn)
		s.conns[topic] = m
	}
	m[conn.GetID()] = conn
}

func (s *subscriptions) Remove(topic string, conn *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.conns[topic]
	if !ok {
		return
	}
	delete(m, conn.GetID())
	if len(m) == 0 {
		delete(s.conns, topic)
	}
}

// RemoveAll drops conn from every topic.
func (s *subscriptions) RemoveAll(conn *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for topic, m := range s.conns {
		delete(m, conn.GetID())
		if len(m) == 0 {
			delete(s.conns, topic)
		}
	}
}

func (s *subscriptions) Get(topic string) []*Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Conn
	for _, c := range s.conns[topic] {
		out = append(out, c)
	}
	return out
}

func (s *subscriptions) Count(topic string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns[topic])
}
