package wserver

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/annchain/schain-manager/eventbus"
)

// TopicAll receives every event type.
const TopicAll = "all"

// SubscribeMessage is what a client sends to start or stop receiving an
// event type, e.g. {"event":"BadGuy"}.
type SubscribeMessage struct {
	Event       string `json:"event"`
	Unsubscribe bool   `json:"unsubscribe,omitempty"`
}

type websocketHandler struct {
	upgrader *websocket.Upgrader
	subs     *subscriptions
}

func validTopic(topic string) bool {
	if topic == TopicAll {
		return true
	}
	_, ok := eventbus.EventTypeByName(topic)
	return ok
}

func (wh *websocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := wh.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Debug("ws upgrade failed")
		return
	}
	conn := NewConn(wsConn)
	conn.AfterReadFunc = func(messageType int, r io.Reader) {
		if messageType != websocket.TextMessage {
			return
		}
		data, err := ioutil.ReadAll(r)
		if err != nil {
			return
		}
		var msg SubscribeMessage
		if err := json.Unmarshal(data, &msg); err != nil || !validTopic(msg.Event) {
			logrus.WithField("msg", string(data)).Debug("bad ws subscription")
			return
		}
		if msg.Unsubscribe {
			wh.subs.Remove(msg.Event, conn)
			return
		}
		wh.subs.Add(msg.Event, conn)
		logrus.WithField("conn", conn.GetID()).WithField("event", msg.Event).Debug("ws subscribed")
	}
	conn.BeforeCloseFunc = func() {
		wh.subs.RemoveAll(conn)
	}
	conn.Listen()
}
