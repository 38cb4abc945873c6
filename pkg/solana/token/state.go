package token

import (
	"crypto/ed25519"

	"github.com/lotterynft/lottery-client/pkg/solana/binary"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

const (
	// AccountSize is the size of an SPL token account.
	//
	// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L125
	AccountSize = 165

	// MintSize is the size of an SPL mint.
	//
	// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L40
	MintSize = 82
)

// Account is the state of an SPL token account. Optional keys are nil when
// unset.
type Account struct {
	Mint   ed25519.PublicKey
	Owner  ed25519.PublicKey
	Amount uint64

	Delegate        ed25519.PublicKey
	DelegatedAmount uint64

	State AccountState

	// IsNative holds the rent exempt reserve of wrapped SOL accounts.
	IsNative *uint64

	CloseAuthority ed25519.PublicKey
}

func (a *Account) Marshal() []byte {
	b := make([]byte, AccountSize)

	c := binary.NewCursor(b)
	c.PutKey(a.Mint)
	c.PutKey(a.Owner)
	c.PutUint64(a.Amount)
	c.PutOptionalKey(a.Delegate)
	c.PutUint8(uint8(a.State))
	c.PutOptionalUint64(a.IsNative)
	c.PutUint64(a.DelegatedAmount)
	c.PutOptionalKey(a.CloseAuthority)

	return b
}

func (a *Account) Unmarshal(b []byte) bool {
	if len(b) != AccountSize {
		return false
	}

	c := binary.NewCursor(b)
	a.Mint = c.Key()
	a.Owner = c.Key()
	a.Amount = c.Uint64()
	a.Delegate = c.OptionalKey()
	a.State = AccountState(c.Uint8())
	a.IsNative = c.OptionalUint64()
	a.DelegatedAmount = c.Uint64()
	a.CloseAuthority = c.OptionalKey()

	return true
}

// IsWrappedSol reports whether the account holds wrapped SOL.
func (a *Account) IsWrappedSol() bool {
	return a.IsNative != nil
}

// Mint is the state of an SPL mint.
type Mint struct {
	MintAuthority   ed25519.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority ed25519.PublicKey
}

func (m *Mint) Marshal() []byte {
	b := make([]byte, MintSize)

	c := binary.NewCursor(b)
	c.PutOptionalKey(m.MintAuthority)
	c.PutUint64(m.Supply)
	c.PutUint8(m.Decimals)
	if m.IsInitialized {
		c.PutUint8(1)
	} else {
		c.PutUint8(0)
	}
	c.PutOptionalKey(m.FreezeAuthority)

	return b
}

func (m *Mint) Unmarshal(b []byte) bool {
	if len(b) != MintSize {
		return false
	}

	c := binary.NewCursor(b)
	m.MintAuthority = c.OptionalKey()
	m.Supply = c.Uint64()
	m.Decimals = c.Uint8()
	m.IsInitialized = c.Uint8() == 1
	m.FreezeAuthority = c.OptionalKey()

	return true
}
