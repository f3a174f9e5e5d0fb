package notify

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"laundry-reservation-backend/internal/engine"
	"laundry-reservation-backend/internal/model"
)

// WebPushDoer sends a single web push message. Extracted so tests can stub
// the wire call.
type WebPushDoer interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// webPushDoer is the real implementation backed by the webpush library.
type webPushDoer struct{}

func (webPushDoer) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// PushSender delivers events to every browser subscribed to the machine.
type PushSender struct {
	db      *gorm.DB
	options *webpush.Options
	doer    WebPushDoer
}

// NewPushSender creates a web push sender.
func NewPushSender(db *gorm.DB, options *webpush.Options) *PushSender {
	return &PushSender{db: db, options: options, doer: webPushDoer{}}
}

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send looks up the machine's subscribers and pushes the event to each.
// Failures are logged and otherwise ignored.
func (p *PushSender) Send(ctx context.Context, ev engine.Event) {
	var subscriptions []model.PushSubscription
	err := p.db.WithContext(ctx).
		Joins("JOIN subscription_machines sm ON sm.endpoint = push_subscriptions.endpoint").
		Where("sm.machine = ?", ev.Machine).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("error fetching subscriptions for %s: %v", ev.Machine, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(pushPayload{Title: ev.Title, Body: ev.Body})
	if err != nil {
		log.Printf("error encoding push payload for %s: %v", ev.Machine, err)
		return
	}

	log.Printf("pushing %s event for %s to %d subscribers", ev.Kind, ev.Machine, len(subscriptions))
	for _, sub := range subscriptions {
		p.sendOne(ctx, sub, payload)
	}
}

func (p *PushSender) sendOne(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := p.doer.Send(payload, wpSub, p.options)
	if err != nil {
		log.Printf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions are pruned on the spot.
	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription for endpoint %s is expired, deleting", sub.Endpoint)
		if err := p.db.WithContext(ctx).Select("Machines").Delete(&sub).Error; err != nil {
			log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
