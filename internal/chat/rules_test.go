package chat

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMatchRuleTable(t *testing.T) {
	cases := []struct {
		text string
		ctx  Context
		want Intent
	}{
		{"Where is my ORDER?", Context{}, IntentOrderStatus},
		{"track parcel", Context{}, IntentOrderStatus},
		{"delivery status please", Context{}, IntentOrderStatus},
		{"what's in my bag", Context{}, IntentCartSummary},
		{"can you recommend something", Context{}, IntentRecommendations},
		{"I want to buy vegetables", Context{}, IntentRecommendations},
		{"how do refunds work", Context{}, IntentReturns},
		{"let me talk to a human", Context{}, IntentContact},
		{"Contact support", Context{}, IntentContact},
		{"hello", Context{}, IntentGreeting},
		{"thanks a lot", Context{}, IntentThanks},
		{"what is organic certification", Context{}, IntentFallback},
	}
	m := NewMatcher()
	for _, tc := range cases {
		got, reply := m.Match(tc.text, tc.ctx)
		if got != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.text, tc.want, got)
		}
		if len(reply.Fragments) == 0 {
			t.Fatalf("%q: empty reply", tc.text)
		}
	}
}

func TestMatchEarlierRuleWins(t *testing.T) {
	intent, reply := NewMatcher().Match("hi, can you help me track my order?", Context{})
	if intent != IntentOrderStatus {
		t.Fatalf("expected order tracking to win over greeting, got %s", intent)
	}
	if strings.Contains(reply.PlainText(), "Hello there") {
		t.Fatalf("greeting leaked into order reply: %q", reply.PlainText())
	}
}

func TestOrderStatusDependsOnAuth(t *testing.T) {
	m := NewMatcher()
	_, anon := m.Match("track my order", Context{})
	if links := anon.Links(); len(links) != 1 || links[0] != "/login" {
		t.Fatalf("anonymous visitor should be sent to login, got %v", links)
	}
	_, signedIn := m.Match("track my order", Context{Authenticated: true})
	if links := signedIn.Links(); len(links) != 1 || links[0] != "/orders" {
		t.Fatalf("signed-in visitor should see orders, got %v", links)
	}
}

func TestCartReplyEmpty(t *testing.T) {
	intent, reply := NewMatcher().Match("what's in my cart", Context{})
	if intent != IntentCartSummary {
		t.Fatalf("unexpected intent %s", intent)
	}
	text := reply.PlainText()
	if !strings.Contains(text, "currently empty") {
		t.Fatalf("expected empty-cart message, got %q", text)
	}
	if len(reply.Links()) != 0 {
		t.Fatalf("empty cart reply should not offer checkout")
	}
}

func TestCartReplySummary(t *testing.T) {
	_, reply := NewMatcher().Match("what's in my cart", Context{TotalItems: 3, TotalPrice: decimal.RequireFromString("1190")})
	text := reply.PlainText()
	if !strings.Contains(text, "3 items") || !strings.Contains(text, "₹1190.00") {
		t.Fatalf("unexpected summary %q", text)
	}
	if links := reply.Links(); len(links) != 1 || links[0] != "/checkout" {
		t.Fatalf("expected checkout link, got %v", links)
	}
}

func TestRecommendationsList(t *testing.T) {
	_, reply := NewMatcher().Match("any fruit today?", Context{})
	var list *Fragment
	for i := range reply.Fragments {
		if reply.Fragments[i].Kind == FragmentList {
			list = &reply.Fragments[i]
		}
	}
	if list == nil || len(list.Items) != 3 {
		t.Fatalf("expected a three item list, got %+v", reply.Fragments)
	}
}

func TestCustomRuleTable(t *testing.T) {
	m := NewMatcherWithRules([]Rule{
		{Intent: "ping", Match: containsAny("ping"), Reply: staticReply(Text("pong"))},
	}, fallbackRule)
	if intent, reply := m.Match("PING", Context{}); intent != "ping" || reply.PlainText() != "pong" {
		t.Fatalf("custom rule not applied: %s %q", intent, reply.PlainText())
	}
	if intent, _ := m.Match("other", Context{}); intent != IntentFallback {
		t.Fatalf("expected fallback, got %s", intent)
	}
}
