// Package wallet provides the signing capability used to authorize
// transactions: a public address plus the ability to sign a transaction.
package wallet

import (
	"context"
	"crypto/ed25519"

	"github.com/lotterynft/lottery-client/pkg/solana"
)

// Wallet signs transactions on behalf of one address. Implementations backed
// by an external signer may block on user approval and should honour ctx.
type Wallet interface {
	PublicKey() ed25519.PublicKey

	// SignTransaction fills the wallet's signature slot in txn. The
	// transaction's blockhash must already be set.
	SignTransaction(ctx context.Context, txn *solana.Transaction) error
}
