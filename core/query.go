package core

import (
	"learnchain/core/events"
	"learnchain/core/state"
	"learnchain/native/learning"
	"learnchain/native/token"
)

// Queries read committed state only; staged writes of an in-flight transition
// are never visible.

func (n *Node) readEngines() (engines, *state.Manager, error) {
	manager, err := state.NewManager(n.db)
	if err != nil {
		return engines{}, nil, err
	}
	return n.newEngines(manager, events.NoopEmitter{}), manager, nil
}

// ProgramConfig returns the program singleton.
func (n *Node) ProgramConfig() (*learning.ProgramConfig, error) {
	e, _, err := n.readEngines()
	if err != nil {
		return nil, err
	}
	return e.learning.Program()
}

// Course returns the course registered under id.
func (n *Node) Course(id string) (*learning.Course, error) {
	e, _, err := n.readEngines()
	if err != nil {
		return nil, err
	}
	return e.learning.Course(id)
}

// Learner returns the learner registered for wallet.
func (n *Node) Learner(wallet [20]byte) (*learning.Learner, error) {
	e, _, err := n.readEngines()
	if err != nil {
		return nil, err
	}
	return e.learning.Learner(wallet)
}

// Completion returns the completion record for (learner, course id).
func (n *Node) Completion(learner [20]byte, courseID string) (*learning.CompletionRecord, error) {
	e, _, err := n.readEngines()
	if err != nil {
		return nil, err
	}
	return e.learning.Completion(learner, courseID)
}

// MintConfig returns the issuance configuration of the reward mint.
func (n *Node) MintConfig() (*token.MintConfig, error) {
	e, _, err := n.readEngines()
	if err != nil {
		return nil, err
	}
	return e.token.MintConfig()
}

// Balance returns the reward token balance of owner.
func (n *Node) Balance(owner [20]byte) (uint64, error) {
	e, _, err := n.readEngines()
	if err != nil {
		return 0, err
	}
	return e.token.Balance(owner)
}

// Supply returns the circulating supply of the reward token.
func (n *Node) Supply() (uint64, error) {
	e, _, err := n.readEngines()
	if err != nil {
		return 0, err
	}
	return e.token.Supply()
}

// Nonce returns the next nonce expected from addr.
func (n *Node) Nonce(addr [20]byte) (uint64, error) {
	_, manager, err := n.readEngines()
	if err != nil {
		return 0, err
	}
	return manager.AccountNonce(addr)
}
