package chat

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Intent string

const (
	IntentOrderStatus     Intent = "order_status"
	IntentCartSummary     Intent = "cart_summary"
	IntentRecommendations Intent = "recommendations"
	IntentReturns         Intent = "returns"
	IntentContact         Intent = "contact"
	IntentGreeting        Intent = "greeting"
	IntentThanks          Intent = "thanks"
	IntentFallback        Intent = "fallback"
)

// Context is what the matcher may read about the visitor. It is never mutated.
type Context struct {
	Authenticated bool
	UserName      string
	TotalItems    int
	TotalPrice    decimal.Decimal
}

// Rule pairs a predicate over the lower-cased utterance with a reply builder.
type Rule struct {
	Intent Intent
	Match  func(lower string) bool
	Reply  func(Context) Content
}

// Matcher evaluates rules in order; the first match wins.
type Matcher struct {
	rules    []Rule
	fallback Rule
}

// NewMatcher returns a Matcher over the storefront rule table.
func NewMatcher() *Matcher {
	return &Matcher{rules: DefaultRules(), fallback: fallbackRule}
}

// NewMatcherWithRules is used when a caller needs a custom table.
func NewMatcherWithRules(rules []Rule, fallback Rule) *Matcher {
	return &Matcher{rules: rules, fallback: fallback}
}

// Match classifies text. Every input yields exactly one reply.
func (m *Matcher) Match(text string, c Context) (Intent, Content) {
	lower := strings.ToLower(text)
	for _, r := range m.rules {
		if r.Match(lower) {
			return r.Intent, r.Reply(c)
		}
	}
	return m.fallback.Intent, m.fallback.Reply(c)
}

func containsAny(keywords ...string) func(string) bool {
	return func(lower string) bool {
		for _, k := range keywords {
			if strings.Contains(lower, k) {
				return true
			}
		}
		return false
	}
}

// DefaultRules is the ordered table. Order is precedence: "hi, where is my order"
// resolves to order status, not greeting.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: IntentOrderStatus, Match: containsAny("order", "track", "status"), Reply: orderStatusReply},
		{Intent: IntentCartSummary, Match: containsAny("cart", "bag"), Reply: cartSummaryReply},
		{Intent: IntentRecommendations, Match: containsAny("recommend", "fruit", "vegetable", "buy"), Reply: recommendationsReply},
		{Intent: IntentReturns, Match: containsAny("return", "refund"), Reply: staticReply(Text(returnPolicyText))},
		{Intent: IntentContact, Match: containsAny("human", "support", "call", "contact"), Reply: staticReply(
			Text("Our support team is available 8 AM - 8 PM."),
			Contact("📞 +91 98765 43210", "📧 help@farmisian.com"),
		)},
		{Intent: IntentGreeting, Match: containsAny("hi", "hello"), Reply: staticReply(Text("Hello there! 🌿 How can I make your day fresher?"))},
		{Intent: IntentThanks, Match: containsAny("thank"), Reply: staticReply(Text("You're most welcome! Enjoy your healthy shopping! 🥗"))},
	}
}

var fallbackRule = Rule{
	Intent: IntentFallback,
	Match:  func(string) bool { return true },
	Reply: staticReply(Text("I'm not quite sure about that, but I can help you find products, track orders, " +
		"or answer questions about our organic certification! Try asking 'What do you sell?'")),
}

const returnPolicyText = "We have a 'No Questions Asked' return policy for damaged or stale items. " +
	"Just report it within 24 hours of delivery through your Orders page, and we'll process an instant refund! 💸"

func staticReply(fragments ...Fragment) func(Context) Content {
	return func(Context) Content {
		return NewContent(fragments...)
	}
}

func orderStatusReply(c Context) Content {
	if c.Authenticated {
		return NewContent(
			Text("You can track your recent orders in your profile."),
			Link("View My Orders", "/orders"),
		)
	}
	return NewContent(
		Text("To track your orders, please login to your account first."),
		Link("Login Now", "/login"),
	)
}

func cartSummaryReply(c Context) Content {
	if c.TotalItems > 0 {
		return NewContent(
			Text(fmt.Sprintf("You have %d items in your cart worth ₹%s. Ready to check out?", c.TotalItems, c.TotalPrice.StringFixed(2))),
			Link("Proceed to Checkout", "/checkout"),
		)
	}
	return NewContent(Text("Your cart is currently empty! Why not fill it with some fresh organic fruits? 🍎"))
}

func recommendationsReply(Context) Content {
	return NewContent(
		Text("Our top picks for you today:"),
		List("Fresh Organic Strawberries 🍓", "Himalayan Pink Salt", "Farm-Fresh A2 Milk 🥛"),
		Link("Browse All Products", "/products"),
	)
}
