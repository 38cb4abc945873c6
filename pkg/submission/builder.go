package submission

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/computebudget"
	"github.com/lotterynft/lottery-client/pkg/wallet"
)

// Builder composes a submission unit from three ordered instruction lists.
// Setup instructions (account creation and funding) run first, then the
// body, then cleanup (closing temporary accounts). Order within each list
// is preserved.
type Builder struct {
	payer   wallet.Wallet
	budget  []solana.Instruction
	setup   []solana.Instruction
	body    []solana.Instruction
	cleanup []solana.Instruction
	signers []wallet.Wallet
}

// NewBuilder returns a builder whose fee payer is payer.
func NewBuilder(payer wallet.Wallet) *Builder {
	return &Builder{
		payer:   payer,
		signers: []wallet.Wallet{payer},
	}
}

// AddSetup appends instructions that must run before the body.
func (b *Builder) AddSetup(instructions ...solana.Instruction) *Builder {
	b.setup = append(b.setup, instructions...)
	return b
}

// Add appends substantive instructions.
func (b *Builder) Add(instructions ...solana.Instruction) *Builder {
	b.body = append(b.body, instructions...)
	return b
}

// AddCleanup appends instructions that must run after the body.
func (b *Builder) AddCleanup(instructions ...solana.Instruction) *Builder {
	b.cleanup = append(b.cleanup, instructions...)
	return b
}

// setComputeBudget replaces the compute budget instructions that lead the
// unit. Zero values are omitted.
func (b *Builder) setComputeBudget(unitLimit uint32, unitPrice uint64) {
	b.budget = nil
	if unitLimit > 0 {
		b.budget = append(b.budget, computebudget.SetComputeUnitLimit(unitLimit))
	}
	if unitPrice > 0 {
		b.budget = append(b.budget, computebudget.SetComputeUnitPrice(unitPrice))
	}
}

// AddSigner registers additional signers, typically freshly generated
// keypairs for accounts created in the unit. Duplicates are ignored.
func (b *Builder) AddSigner(signers ...wallet.Wallet) *Builder {
	for _, signer := range signers {
		if indexOfSigner(b.signers, signer.PublicKey()) >= 0 {
			continue
		}
		b.signers = append(b.signers, signer)
	}
	return b
}

// Build returns the composed unit.
func (b *Builder) Build() (*Unit, error) {
	if b.payer == nil {
		return nil, errors.New("fee payer is required")
	}

	if len(b.setup)+len(b.body)+len(b.cleanup) == 0 {
		return nil, ErrEmptyUnit
	}

	instructions := make([]solana.Instruction, 0, len(b.budget)+len(b.setup)+len(b.body)+len(b.cleanup))
	instructions = append(instructions, b.budget...)
	instructions = append(instructions, b.setup...)
	instructions = append(instructions, b.body...)
	instructions = append(instructions, b.cleanup...)

	signers := make([]wallet.Wallet, len(b.signers))
	copy(signers, b.signers)

	return &Unit{
		Payer:        b.payer,
		Instructions: instructions,
		Signers:      signers,
	}, nil
}

// Unit is an ordered, atomic batch of instructions along with the wallets
// that must sign it.
type Unit struct {
	Payer        wallet.Wallet
	Instructions []solana.Instruction
	Signers      []wallet.Wallet
}

// Transaction compiles the unit into an unsigned transaction.
func (u *Unit) Transaction() solana.Transaction {
	return solana.NewTransaction(u.Payer.PublicKey(), u.Instructions...)
}

// MissingSigners returns the accounts the unit requires signatures from
// that no registered wallet can provide.
func (u *Unit) MissingSigners() []ed25519.PublicKey {
	txn := u.Transaction()

	var missing []ed25519.PublicKey
	for _, required := range txn.RequiredSigners() {
		if indexOfSigner(u.Signers, required) < 0 {
			missing = append(missing, required)
		}
	}
	return missing
}

func (u *Unit) validateSigners() error {
	missing := u.MissingSigners()
	if len(missing) == 0 {
		return nil
	}
	return errors.Wrapf(ErrIncompleteSigners, "missing %s", formatKeys(missing))
}

func indexOfSigner(signers []wallet.Wallet, pub ed25519.PublicKey) int {
	for i, signer := range signers {
		if bytes.Equal(signer.PublicKey(), pub) {
			return i
		}
	}
	return -1
}

func formatKeys(keys []ed25519.PublicKey) string {
	var buf bytes.Buffer
	for i, key := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(base58.Encode(key))
	}
	return buf.String()
}
