package relay

import (
	"regexp"
	"strings"

	"github.com/bridgeworks/slackrelay/internal/directory"
)

// BroadcastMention is what an @peer-alias becomes on the wire. Posted
// with link_names enabled, the receiving side expands it to the
// notify-everyone token.
const BroadcastMention = "@channel"

var (
	// <@U123> or <@U123|somename> (the fallback form appears in file
	// upload notifications).
	userRefPattern = regexp.MustCompile(`<@(U[^>]+)>`)
	// <#C123>
	channelRefPattern = regexp.MustCompile(`<#(C[^>]+)>`)
)

// Rewrite translates mention tokens in an inbound message body for the
// peer workspace:
//
//	@<alias>   -> @channel (whole word, case-insensitive)
//	<@Uxx>     -> @name if Uxx resolves, else left untouched
//	<@Uxx|fb>  -> @fb
//	<#Cxx>     -> #name if Cxx resolves, else left untouched
//
// The alias pass runs first: it only matches a literal @word, so later
// passes never re-match its output, and the bracket passes never
// produce a literal @word the alias pass could have matched.
func Rewrite(text string, users map[string]directory.User, channels map[string]directory.Channel, alias string) string {
	if alias != "" {
		pattern := regexp.MustCompile(`(?i)(^|[^\w])@` + regexp.QuoteMeta(alias) + `\b`)
		text = pattern.ReplaceAllString(text, "${1}"+BroadcastMention)
	}

	text = userRefPattern.ReplaceAllStringFunc(text, func(token string) string {
		id := token[2 : len(token)-1]
		if i := strings.IndexByte(id, '|'); i >= 0 {
			return "@" + id[i+1:]
		}
		if u, ok := users[id]; ok {
			return "@" + u.Name
		}
		return token // unresolved, keep the marker
	})

	text = channelRefPattern.ReplaceAllStringFunc(text, func(token string) string {
		id := token[2 : len(token)-1]
		if ch, ok := channels[id]; ok {
			return "#" + ch.Name
		}
		return token
	})

	return text
}
