package relay

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bridgeworks/slackrelay/internal/delivery"
	"github.com/bridgeworks/slackrelay/internal/logger"
)

type sentPayload struct {
	url     string
	payload delivery.Payload
}

// fakeDeliverer records every call. Deliveries to failURL exhaust
// immediately; panicOnce makes the first call panic.
type fakeDeliverer struct {
	sent      []sentPayload
	failURL   string
	panicOnce bool
}

func (f *fakeDeliverer) Deliver(_ context.Context, url string, p delivery.Payload, onExhausted func()) error {
	f.sent = append(f.sent, sentPayload{url: url, payload: p})
	if f.panicOnce {
		f.panicOnce = false
		panic("connection pool corrupted")
	}
	if f.failURL != "" && url == f.failURL {
		if onExhausted != nil {
			onExhausted()
		}
		return delivery.ErrExhausted
	}
	return nil
}

type fakeNotifier struct {
	subjects []string
}

func (f *fakeNotifier) SendError(subject string, _ ...string) {
	f.subjects = append(f.subjects, subject)
}

type fakeRecorder struct {
	counts map[string]int
}

func (f *fakeRecorder) Incr(_ context.Context, token, field string) {
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[token+"/"+field]++
}

func newTestWorker(t *testing.T, d Deliverer, n Notifier, s Recorder) (*Worker, *Queue) {
	t.Helper()
	q := NewQueue(16)
	w := NewWorker(WorkerConfig{
		Table:      pairedTable(t),
		Queue:      q,
		Cache:      pairedCache(),
		Deliverer:  d,
		Notifier:   n,
		Stats:      s,
		Log:        logger.New("error", false),
		SelfUserID: "USLACKBOT",
	})
	return w, q
}

// drain queues the events, runs the worker until it has consumed
// everything, and waits for it to exit.
func drain(t *testing.T, w *Worker, q *Queue, evs ...Event) {
	t.Helper()
	for _, ev := range evs {
		if err := q.Enqueue(ev); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	w.Start()
	q.Stop()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerRelaysInOrder(t *testing.T) {
	d := &fakeDeliverer{}
	s := &fakeRecorder{}
	w, q := newTestWorker(t, d, nil, s)

	drain(t, w, q,
		Event{Token: "ta", UserID: "U9", UserName: "zed", ChannelName: "shared-a", Text: "one"},
		Event{Token: "ta", UserID: "U9", UserName: "zed", ChannelName: "shared-a", Text: "two"},
	)

	if len(d.sent) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(d.sent))
	}
	for i, want := range []string{"one", "two"} {
		if d.sent[i].payload.Text != want {
			t.Errorf("delivery %d text = %q, want %q (order must be preserved)", i, d.sent[i].payload.Text, want)
		}
		if d.sent[i].url != "https://hooks.example/into-b" {
			t.Errorf("delivery %d url = %q", i, d.sent[i].url)
		}
	}
	if s.counts["ta/relayed"] != 2 {
		t.Errorf("relayed count = %d, want 2", s.counts["ta/relayed"])
	}
}

func TestWorkerTranslatesMentions(t *testing.T) {
	d := &fakeDeliverer{}
	w, q := newTestWorker(t, d, nil, nil)

	drain(t, w, q, Event{
		Token: "ta", UserID: "U9", UserName: "zed",
		ChannelName: "shared-a", Text: "hi <@U1> and @teamb",
	})

	if len(d.sent) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(d.sent))
	}
	p := d.sent[0].payload
	if p.Text != "hi @alice and @channel" {
		t.Errorf("text = %q, want mentions rewritten", p.Text)
	}
	if p.Channel != "C123" {
		t.Errorf("channel = %q, want destination from endpoint", p.Channel)
	}
	if p.Username != "zed" {
		t.Errorf("username = %q, want original poster", p.Username)
	}
}

func TestWorkerDropsOwnMessages(t *testing.T) {
	d := &fakeDeliverer{}
	w, q := newTestWorker(t, d, nil, nil)

	drain(t, w, q, Event{Token: "ta", UserID: "USLACKBOT", UserName: "slackbot", Text: "relayed text"})

	if len(d.sent) != 0 {
		t.Errorf("deliveries = %d, want 0 for our own echo", len(d.sent))
	}
}

func TestWorkerDropsUnknownToken(t *testing.T) {
	d := &fakeDeliverer{}
	w, q := newTestWorker(t, d, nil, nil)

	drain(t, w, q, Event{Token: "forged", UserID: "U9", UserName: "zed", Text: "hello"})

	if len(d.sent) != 0 {
		t.Errorf("deliveries = %d, want 0 for unregistered token", len(d.sent))
	}
}

func TestWorkerInfoRepliesLocallyOnly(t *testing.T) {
	d := &fakeDeliverer{}
	w, q := newTestWorker(t, d, nil, nil)

	drain(t, w, q, Event{
		Token: "ta", UserID: "U1", UserName: "alice",
		ChannelName: "shared-a", Text: "!info",
	})

	if len(d.sent) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(d.sent))
	}
	got := d.sent[0]
	// The reply rides the paired endpoint's webhook back into the
	// originating workspace; the peer-facing URL is never called.
	if got.url != "https://hooks.example/into-a" {
		t.Errorf("url = %q, want the webhook posting into the origin workspace", got.url)
	}
	if got.payload.Channel != "#shared-a" {
		t.Errorf("channel = %q, want the originating channel", got.payload.Channel)
	}
	if !got.payload.Plain {
		t.Error("info reply must disable markdown")
	}
	if !strings.HasPrefix(got.payload.Text, "(local reply only)\n") {
		t.Errorf("text = %q, want local-reply prefix", got.payload.Text)
	}
}

func TestWorkerNonTextNotice(t *testing.T) {
	d := &fakeDeliverer{}
	w, q := newTestWorker(t, d, nil, nil)

	drain(t, w, q, Event{
		Token: "ta", UserID: "U1", UserName: "alice",
		ChannelName: "shared-a", Text: "",
	})

	if len(d.sent) != 2 {
		t.Fatalf("deliveries = %d, want local notice plus forwarded notice", len(d.sent))
	}
	local, forwarded := d.sent[0], d.sent[1]
	if local.url != "https://hooks.example/into-a" || !local.payload.Plain {
		t.Errorf("first delivery = %+v, want plain local notice", local)
	}
	if forwarded.url != "https://hooks.example/into-b" {
		t.Errorf("second delivery url = %q, want peer-facing webhook", forwarded.url)
	}
	want := NonTextNotice("alice")
	if local.payload.Text != want || forwarded.payload.Text != want {
		t.Errorf("notice texts = %q / %q, want %q", local.payload.Text, forwarded.payload.Text, want)
	}
	// The forwarded copy is a bare notice, not the translated message:
	// plain rendering, no attributed username, icon or overrides.
	if !forwarded.payload.Plain {
		t.Error("forwarded notice must disable markdown")
	}
	if forwarded.payload.Username != "" || forwarded.payload.IconURL != "" {
		t.Errorf("forwarded notice carries identity fields: %+v", forwarded.payload)
	}
	if forwarded.payload.LinkNames || forwarded.payload.Extra != nil {
		t.Errorf("forwarded notice carries message fields: %+v", forwarded.payload)
	}
	if forwarded.payload.Channel != "C123" {
		t.Errorf("forwarded notice channel = %q, want the configured destination", forwarded.payload.Channel)
	}
}

func TestWorkerInfoCommandExactMatch(t *testing.T) {
	d := &fakeDeliverer{}
	w, q := newTestWorker(t, d, nil, nil)

	// Padded variants are ordinary messages, not the command.
	drain(t, w, q, Event{
		Token: "ta", UserID: "U1", UserName: "alice",
		ChannelName: "shared-a", Text: " !info ",
	})

	if len(d.sent) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(d.sent))
	}
	if d.sent[0].url != "https://hooks.example/into-b" {
		t.Errorf("url = %q, want the message forwarded to the peer", d.sent[0].url)
	}
	if d.sent[0].payload.Text != " !info " {
		t.Errorf("text = %q, want the body forwarded untouched", d.sent[0].payload.Text)
	}
}

func TestWorkerDropsEmptyAnonymousEvent(t *testing.T) {
	d := &fakeDeliverer{}
	s := &fakeRecorder{}
	w, q := newTestWorker(t, d, nil, s)

	drain(t, w, q, Event{Token: "ta", UserID: "U1", ChannelName: "shared-a", Text: ""})

	if len(d.sent) != 0 {
		t.Errorf("deliveries = %d, want 0 for empty event without username", len(d.sent))
	}
	if s.counts["ta/dropped"] != 1 {
		t.Errorf("dropped count = %d, want 1", s.counts["ta/dropped"])
	}
}

func TestWorkerEscalatesLostMessage(t *testing.T) {
	d := &fakeDeliverer{failURL: "https://hooks.example/into-b"}
	n := &fakeNotifier{}
	s := &fakeRecorder{}
	w, q := newTestWorker(t, d, n, s)

	drain(t, w, q, Event{
		Token: "ta", UserID: "U9", UserName: "zed",
		ChannelName: "shared-a", Text: "never arrives",
	})

	if len(d.sent) != 2 {
		t.Fatalf("deliveries = %d, want failed forward plus failure notice", len(d.sent))
	}
	notice := d.sent[1]
	if notice.url != "https://hooks.example/into-a" {
		t.Errorf("failure notice url = %q, want origin workspace webhook", notice.url)
	}
	if !strings.HasPrefix(notice.payload.Text, "(local reply only)\nfailed to send message") {
		t.Errorf("failure notice text = %q", notice.payload.Text)
	}
	if len(n.subjects) != 1 {
		t.Fatalf("mails = %d, want exactly 1", len(n.subjects))
	}
	if s.counts["ta/failed"] != 1 {
		t.Errorf("failed count = %d, want 1", s.counts["ta/failed"])
	}
	if s.counts["ta/relayed"] != 0 {
		t.Errorf("relayed count = %d, want 0", s.counts["ta/relayed"])
	}
}

func TestWorkerSurvivesHandlerPanic(t *testing.T) {
	d := &fakeDeliverer{panicOnce: true}
	w, q := newTestWorker(t, d, nil, nil)

	drain(t, w, q,
		Event{Token: "ta", UserID: "U9", UserName: "zed", ChannelName: "shared-a", Text: "boom"},
		Event{Token: "ta", UserID: "U9", UserName: "zed", ChannelName: "shared-a", Text: "still alive"},
	)

	if len(d.sent) != 2 {
		t.Fatalf("deliveries = %d, want the second event handled after the panic", len(d.sent))
	}
	if d.sent[1].payload.Text != "still alive" {
		t.Errorf("second delivery text = %q", d.sent[1].payload.Text)
	}
}

func TestWorkerLogsPing(t *testing.T) {
	d := &fakeDeliverer{}
	w, q := newTestWorker(t, d, nil, nil)

	if err := q.Ping("debug"); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	drain(t, w, q, Event{Token: "ta", UserID: "U9", UserName: "zed", ChannelName: "shared-a", Text: "after ping"})

	if len(d.sent) != 1 {
		t.Fatalf("deliveries = %d, want the event after the ping", len(d.sent))
	}
}
