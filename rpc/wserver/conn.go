package wserver

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

// Conn wraps websocket.Conn. It reads until the peer goes away and
// serializes writes.
type Conn struct {
	Conn *websocket.Conn

	AfterReadFunc   func(messageType int, r io.Reader)
	BeforeCloseFunc func()

	id      string
	writeMu sync.Mutex
	once    sync.Once
	stopCh  chan struct{}
}

func NewConn(conn *websocket.Conn) *Conn {
	return &Conn{
		Conn:   conn,
		id:     uuid.New().String(),
		stopCh: make(chan struct{}),
	}
}

func (c *Conn) GetID() string {
	return c.id
}

// Write sends p as one text message.
func (c *Conn) Write(p []byte) (int, error) {
	select {
	case <-c.stopCh:
		return 0, errors.New("conn is closed, can't be written")
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.Conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Listen blocks until the connection is closed.
func (c *Conn) Listen() {
	c.Conn.SetCloseHandler(func(code int, text string) error {
		message := websocket.FormatCloseMessage(code, "")
		c.writeMu.Lock()
		_ = c.Conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		c.writeMu.Unlock()
		return nil
	})
	defer func() {
		if c.BeforeCloseFunc != nil {
			c.BeforeCloseFunc()
		}
		if err := c.Close(); err != nil {
			logrus.WithError(err).Trace("close ws conn")
		}
	}()
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}
		messageType, r, err := c.Conn.NextReader()
		if err != nil {
			return
		}
		if c.AfterReadFunc != nil {
			c.AfterReadFunc(messageType, r)
		}
	}
}

func (c *Conn) Close() error {
	err := errors.New("conn already closed")
	c.once.Do(func() {
		close(c.stopCh)
		err = c.Conn.Close()
	})
	return err
}
