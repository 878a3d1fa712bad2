package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bridgeworks/slackrelay/internal/delivery"
	"github.com/bridgeworks/slackrelay/internal/directory"
	"github.com/bridgeworks/slackrelay/internal/logger"
)

// Outcome field names recorded per endpoint token.
const (
	OutcomeRelayed = "relayed"
	OutcomeDropped = "dropped"
	OutcomeFailed  = "failed"
)

// Deliverer posts a payload to an incoming-webhook URL, retrying
// internally. onExhausted runs exactly once if every attempt fails.
type Deliverer interface {
	Deliver(ctx context.Context, url string, payload delivery.Payload, onExhausted func()) error
}

// Notifier escalates to the operators when a message is lost or the
// worker dies. Implementations must not block the worker for long.
type Notifier interface {
	SendError(subject string, args ...string)
}

// Recorder counts relay outcomes per endpoint token. Best effort; the
// worker never fails because of it.
type Recorder interface {
	Incr(ctx context.Context, token, field string)
}

// WorkerConfig carries the worker's collaborators. Notifier and Stats
// may be nil.
type WorkerConfig struct {
	Table      *Table
	Queue      *Queue
	Cache      *directory.Cache
	Deliverer  Deliverer
	Notifier   Notifier
	Stats      Recorder
	Log        logger.Logger
	SelfUserID string
}

// Worker is the single consumer of the event queue. It owns the
// directory cache and performs every translation and delivery, so
// events from one channel are relayed strictly in arrival order.
type Worker struct {
	table      *Table
	queue      *Queue
	cache      *directory.Cache
	deliver    Deliverer
	notifier   Notifier
	stats      Recorder
	log        logger.Logger
	selfUserID string
	done       chan struct{}
}

func NewWorker(cfg WorkerConfig) *Worker {
	return &Worker{
		table:      cfg.Table,
		queue:      cfg.Queue,
		cache:      cfg.Cache,
		deliver:    cfg.Deliverer,
		notifier:   cfg.Notifier,
		stats:      cfg.Stats,
		log:        cfg.Log,
		selfUserID: cfg.SelfUserID,
		done:       make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (w *Worker) Start() {
	go w.run()
}

// Done is closed when the worker has drained the queue and exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) run() {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("relay worker aborted", logger.Any("panic", r))
			w.mail("slack relay worker stopped", fmt.Sprint(r))
		}
	}()

	w.log.Info("relay worker started")
	for {
		it := w.queue.next()
		switch it.kind {
		case itemStop:
			w.log.Info("relay worker stopping")
			return
		case itemPing:
			w.log.Info("relay worker ping", logger.String("msg", it.ping))
		case itemEvent:
			w.safeHandle(it.ev)
		}
	}
}

// safeHandle keeps one bad event from taking the worker down.
func (w *Worker) safeHandle(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("event handling panicked",
				logger.String("token", ev.Token),
				logger.String("channel", ev.ChannelName),
				logger.Any("panic", r))
		}
	}()
	w.handle(context.Background(), ev)
}

func (w *Worker) handle(ctx context.Context, ev Event) {
	if ev.UserID == w.selfUserID {
		w.log.Debug("dropping our own echo", logger.String("channel", ev.ChannelName))
		return
	}

	ep, ok := w.table.Lookup(ev.Token)
	if !ok {
		w.log.Warn("event with unregistered token dropped", logger.String("token", ev.Token))
		return
	}

	if ev.Text == InfoCommand {
		w.replyInfo(ctx, ep, ev)
		return
	}

	users := w.cache.Users(ctx, ep.Token, ep.DirectoryToken)
	channels := w.cache.Channels(ctx, ep.Token, ep.DirectoryToken)
	payload := Translate(ev, ep, users, channels)

	if strings.TrimSpace(payload.Text) == "" {
		if ev.UserName == "" {
			// Nothing to say and nobody to attribute it to.
			w.log.Warn("empty event dropped", logger.String("token", ev.Token))
			w.count(ctx, ep.Token, OutcomeDropped)
			return
		}
		// Attachments and photos arrive with no text. Tell the sender
		// locally and forward a bare plain notice instead of the
		// translated message: no username, no icon, no overrides.
		notice := NonTextNotice(ev.UserName)
		w.sendLocal(ctx, ep, localNotice(notice, ev.ChannelName))
		payload = delivery.Payload{Text: notice, Channel: ep.Channel, Plain: true}
	}

	err := w.deliver.Deliver(ctx, ep.DeliveryURL, payload, func() {
		w.escalate(ctx, ep, ev, payload)
	})
	if err != nil {
		w.count(ctx, ep.Token, OutcomeFailed)
		return
	}
	w.count(ctx, ep.Token, OutcomeRelayed)
}

// replyInfo answers the diagnostic command in the channel it came from.
// The reply travels through the paired endpoint's delivery URL, which
// is the only webhook that posts back into the originating workspace.
func (w *Worker) replyInfo(ctx context.Context, ep *Endpoint, ev Event) {
	report := buildInfoReport(ctx, w.table, w.cache, ep)

	peer, ok := w.table.Peer(ep)
	if !ok {
		w.log.Warn("no paired endpoint to reply through, logging instead",
			logger.String("token", ep.Token))
		w.log.Info(report)
		return
	}
	if err := w.deliver.Deliver(ctx, peer.DeliveryURL, localNotice(report, ev.ChannelName), nil); err != nil {
		w.log.Error("info reply not delivered", logger.Error(err))
	}
}

// escalate runs once per lost message: mail the operators and leave a
// failure notice in the channel the message came from.
func (w *Worker) escalate(ctx context.Context, ep *Endpoint, ev Event, payload delivery.Payload) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		encoded = []byte(payload.Text)
	}
	w.mail("slack message delivery failed", ep.DeliveryURL, string(encoded))

	notice := "(local reply only)\nfailed to send message with the following payload:\n" + string(encoded)
	w.sendLocal(ctx, ep, localNotice(notice, ev.ChannelName))
}

// sendLocal posts a notice back into the originating workspace via the
// paired endpoint. Best effort, never escalated.
func (w *Worker) sendLocal(ctx context.Context, ep *Endpoint, p delivery.Payload) {
	peer, ok := w.table.Peer(ep)
	if !ok {
		w.log.Debug("no paired endpoint for local notice", logger.String("token", ep.Token))
		return
	}
	if err := w.deliver.Deliver(ctx, peer.DeliveryURL, p, nil); err != nil {
		w.log.Error("local notice not delivered", logger.Error(err))
	}
}

func (w *Worker) mail(subject string, args ...string) {
	if w.notifier == nil {
		return
	}
	w.notifier.SendError(subject, args...)
}

func (w *Worker) count(ctx context.Context, token, field string) {
	if w.stats == nil {
		return
	}
	w.stats.Incr(ctx, token, field)
}
