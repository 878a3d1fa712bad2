package relay

import "net/url"

// Event is one outgoing-webhook notification as posted by Slack.
// Events are ephemeral: built per HTTP request, discarded after the
// worker has processed them.
type Event struct {
	Token       string
	TeamID      string
	TeamDomain  string
	ChannelID   string
	ChannelName string
	UserID      string
	UserName    string
	Text        string
	Timestamp   string
	ServiceID   string
}

// EventFromForm builds an Event from the url-encoded outgoing-webhook
// body. Missing keys become empty strings; the worker decides whether
// the event is routable.
func EventFromForm(form url.Values) Event {
	return Event{
		Token:       form.Get("token"),
		TeamID:      form.Get("team_id"),
		TeamDomain:  form.Get("team_domain"),
		ChannelID:   form.Get("channel_id"),
		ChannelName: form.Get("channel_name"),
		UserID:      form.Get("user_id"),
		UserName:    form.Get("user_name"),
		Text:        form.Get("text"),
		Timestamp:   form.Get("timestamp"),
		ServiceID:   form.Get("service_id"),
	}
}
