package action

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/solana/system"
	"github.com/lotterynft/lottery-client/pkg/solana/token"
	"github.com/lotterynft/lottery-client/pkg/submission"
	"github.com/lotterynft/lottery-client/pkg/wallet"
)

// addTokenAccount stages creation of a fresh keypair token account of mint,
// owned by owner and funded by payer with rent plus extra lamports.
func (c *Client) addTokenAccount(ctx context.Context, b *submission.Builder, payer, mint, owner ed25519.PublicKey, extra uint64) (*wallet.Account, error) {
	rent, err := c.data.GetBlockchainMinimumBalanceForRentExemption(ctx, token.AccountSize)
	if err != nil {
		return nil, err
	}

	account, err := wallet.NewRandomAccount()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate token account")
	}

	b.AddSetup(
		system.CreateAccount(payer, account.PublicKey(), token.ProgramKey, rent+extra, token.AccountSize),
		token.InitializeAccount(account.PublicKey(), mint, owner),
	).AddSigner(account)
	return account, nil
}

// addWrappedSolAccount stages a temporary wrapped SOL account holding amount
// and closes it back to owner once the unit's instructions have run.
func (c *Client) addWrappedSolAccount(ctx context.Context, b *submission.Builder, owner ed25519.PublicKey, amount uint64) (ed25519.PublicKey, error) {
	account, err := c.addTokenAccount(ctx, b, owner, token.NativeMint, owner, amount)
	if err != nil {
		return nil, err
	}
	b.AddCleanup(token.CloseAccount(account.PublicKey(), owner, owner))
	return account.PublicKey(), nil
}

// paymentAccount returns the account a wallet pays in mint from. Native mint
// payments go through a temporary wrapped SOL account.
func (c *Client) paymentAccount(ctx context.Context, b *submission.Builder, owner, mint ed25519.PublicKey, amount uint64) (ed25519.PublicKey, error) {
	if mint.Equal(token.NativeMint) {
		return c.addWrappedSolAccount(ctx, b, owner, amount)
	}

	accounts, err := c.data.GetBlockchainTokenAccountsByOwner(ctx, owner, mint)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, errors.Wrap(token.ErrAccountNotFound, "no token account to pay from")
	}
	return accounts[0], nil
}

// receivingAccount returns an account of mint owned by owner. Without fresh,
// an existing account is reused and the owner's associated account is
// created when there is none. With fresh, a new keypair account is staged.
// Native mint receipts are unwrapped back to the owner within the unit.
func (c *Client) receivingAccount(ctx context.Context, b *submission.Builder, owner, mint ed25519.PublicKey, fresh bool) (ed25519.PublicKey, error) {
	if mint.Equal(token.NativeMint) {
		return c.addWrappedSolAccount(ctx, b, owner, 0)
	}

	if fresh {
		account, err := c.addTokenAccount(ctx, b, owner, mint, owner, 0)
		if err != nil {
			return nil, err
		}
		return account.PublicKey(), nil
	}

	accounts, err := c.data.GetBlockchainTokenAccountsByOwner(ctx, owner, mint)
	if err != nil {
		return nil, err
	}
	if len(accounts) > 0 {
		return accounts[0], nil
	}

	create, address, err := token.CreateAssociatedTokenAccountIdempotent(owner, owner, mint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive associated token account")
	}
	b.AddSetup(create)
	return address, nil
}
