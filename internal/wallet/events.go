package wallet

import (
	"github.com/ethereum/go-ethereum/event"
)

// EventKind is the kind of change reported by a wallet provider
type EventKind string

const (
	// AccountChanged is emitted when the set of exposed accounts changes
	AccountChanged EventKind = "accountsChanged"
	// ChainChanged is emitted when the wallet switches network
	ChainChanged EventKind = "chainChanged"
)

// Event is a change notification from a wallet provider
type Event struct {
	Kind     EventKind `json:"kind"`
	Accounts []string  `json:"accounts,omitempty"`
	ChainID  string    `json:"chainId,omitempty"`
}

// Subscriber delivers wallet events to a channel
type Subscriber interface {
	Subscribe(ch chan<- Event) event.Subscription
}

// Feed fans wallet events out to all subscribers
type Feed struct {
	feed event.FeedOf[Event]
}

// Subscribe adds a channel to the feed
func (f *Feed) Subscribe(ch chan<- Event) event.Subscription {
	return f.feed.Subscribe(ch)
}

// Send delivers an event to all subscribers and returns how many received it
func (f *Feed) Send(e Event) int {
	return f.feed.Send(e)
}

// AccountsChanged emits an AccountChanged event
func (f *Feed) AccountsChanged(accounts ...string) int {
	return f.Send(Event{Kind: AccountChanged, Accounts: accounts})
}

// ChainChangedTo emits a ChainChanged event
func (f *Feed) ChainChangedTo(chainID string) int {
	return f.Send(Event{Kind: ChainChanged, ChainID: chainID})
}
