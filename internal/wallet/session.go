package wallet

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/truesource/storefront/internal/domain"
	"github.com/truesource/storefront/internal/logger"
)

// State is a snapshot of a wallet connection
type State struct {
	Account        string `json:"account,omitempty"`
	Connected      bool   `json:"connected"`
	ChainID        string `json:"chainId,omitempty"`
	CorrectNetwork bool   `json:"correctNetwork"`
	Error          string `json:"error,omitempty"`
}

// Session tracks the wallet connection of one shopper
type Session struct {
	targetChainID string

	mu    sync.RWMutex
	state State
}

// NewSession creates a disconnected session expecting the given chain id (hex).
// An empty target means Sepolia.
func NewSession(targetChainID string) *Session {
	if targetChainID == "" {
		targetChainID = domain.SEPOLIA_CHAIN_ID_HEX
	}
	return &Session{targetChainID: strings.ToLower(targetChainID)}
}

// Connect records a connected account on the given chain
func (s *Session) Connect(account string, chainID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{
		Account:   account,
		Connected: true,
	}
	s.setChainLocked(chainID)
}

// Disconnect resets the session
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{}
}

// Snapshot returns the current state
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Handle applies a wallet event to the session
func (s *Session) Handle(e Event) {
	switch e.Kind {
	case AccountChanged:
		s.handleAccountsChanged(e.Accounts)
	case ChainChanged:
		s.mu.Lock()
		s.setChainLocked(e.ChainID)
		s.mu.Unlock()
	default:
		logger.Warn("Unknown wallet event", zap.String("kind", string(e.Kind)))
	}
}

func (s *Session) handleAccountsChanged(accounts []string) {
	if len(accounts) == 0 {
		s.Disconnect()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.EqualFold(accounts[0], s.state.Account) && s.state.Connected {
		return
	}
	s.state.Account = accounts[0]
	s.state.Connected = true
}

func (s *Session) setChainLocked(chainID string) {
	s.state.ChainID = chainID
	if strings.ToLower(chainID) == s.targetChainID {
		s.state.CorrectNetwork = true
		s.state.Error = ""
		return
	}

	s.state.CorrectNetwork = false
	s.state.Error = fmt.Sprintf("Please switch to the Sepolia network. You are currently on chain %s.", chainID)
}

// Run applies events from the subscriber until ctx is done or the subscription fails
func (s *Session) Run(ctx context.Context, subscriber Subscriber) error {
	events := make(chan Event, 16)
	sub := subscriber.Subscribe(events)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return err
		case e := <-events:
			s.Handle(e)
		}
	}
}
