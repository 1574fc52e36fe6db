package location

import (
	"encoding/json"
	"log"
	"time"

	"backend-staysafe/internal/shared/geo"

	"github.com/nats-io/nats.go"
)

// FixMessage is the JSON payload devices publish on the fix subject.
type FixMessage struct {
	DeviceID  string    `json:"deviceId"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// NATSSource feeds a Manager from a NATS subject carrying device fixes.
type NATSSource struct {
	*Manager
	sub *nats.Subscription
}

func SubscribeNATS(nc *nats.Conn, subject string) (*NATSSource, error) {
	s := &NATSSource{Manager: NewManager()}

	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		s.handleMessage(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	s.sub = sub
	return s, nil
}

func (s *NATSSource) handleMessage(data []byte) {
	var msg FixMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("location: dropping malformed fix: %v", err)
		return
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	s.Update(Fix{Point: geo.Point{Lat: msg.Lat, Lng: msg.Lng}, Time: ts})
}

func (s *NATSSource) Close() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
}
