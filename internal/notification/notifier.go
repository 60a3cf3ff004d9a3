package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const deliverTimeout = 10 * time.Second

// Event is the payload pushed to subscribed systems whenever directory data
// changes.
type Event struct {
	Event    string    `json:"event"`
	EntityID string    `json:"id,omitempty"`
	At       time.Time `json:"at"`
}

// subscriber is the slice of a system document the notifier needs. Kept
// local instead of importing the system package so that package can depend
// on a Notifier without a cycle.
type subscriber struct {
	Login      string `bson:"login"`
	IP4Address string `bson:"IP4Address"`
}

// subscriberSource yields the systems that opted into notifications.
type subscriberSource interface {
	subscribers(ctx context.Context) ([]subscriber, error)
}

// mongoSubscribers reads opted-in systems straight from the collection.
type mongoSubscribers struct {
	db *mongo.Database
}

func (m mongoSubscribers) subscribers(ctx context.Context) ([]subscriber, error) {
	cursor, err := m.db.Collection("systems").Find(ctx, bson.M{"receiveNotifications": true})
	if err != nil {
		return nil, err
	}
	var subs []subscriber
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Notifier fans mutation events out to every system that opted in. Delivery
// is best effort: failures are logged and never surface to the caller.
type Notifier struct {
	source subscriberSource
	signer *Signer
	client *http.Client
	logger *zap.Logger
}

func NewNotifier(db *mongo.Database, signer *Signer, logger *zap.Logger) *Notifier {
	return &Notifier{
		source: mongoSubscribers{db: db},
		signer: signer,
		client: &http.Client{Timeout: deliverTimeout},
		logger: logger,
	}
}

// Emit dispatches the event in the background; callers never wait on
// subscriber round trips.
func (n *Notifier) Emit(event, entityID string) {
	evt := Event{Event: event, EntityID: entityID, At: time.Now().UTC()}
	go n.deliver(evt)
}

func (n *Notifier) deliver(evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	subs, err := n.source.subscribers(ctx)
	if err != nil {
		n.logger.Error("load notification subscribers", zap.Error(err))
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		n.logger.Error("encode notification", zap.Error(err))
		return
	}
	signature := ""
	if n.signer != nil {
		signature, err = n.signer.Sign(payload)
		if err != nil {
			n.logger.Error("sign notification", zap.Error(err))
			return
		}
	}

	for _, sub := range subs {
		if err := n.push(ctx, sub, payload, signature); err != nil {
			n.logger.Warn("notify system",
				zap.String("system", sub.Login),
				zap.String("event", evt.Event),
				zap.Error(err))
		}
	}
}

func (n *Notifier) push(ctx context.Context, sub subscriber, payload []byte, signature string) error {
	url := fmt.Sprintf("http://%s/notifications", sub.IP4Address)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Signature", signature)
	}
	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("subscriber returned %d", res.StatusCode)
	}
	return nil
}
