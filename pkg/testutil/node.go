package testutil

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/token"
)

const (
	defaultValidityWindow = 150

	// Reference: https://github.com/solana-labs/solana/blob/master/sdk/program/src/rent.rs
	rentLamportsPerByteYear = 3480
	rentExemptionYears      = 2
	rentAccountOverhead     = 128
)

// ErrInducedFailure is returned by a Node for simulated transport failures.
var ErrInducedFailure = errors.New("induced network failure")

// ExecuteFunc simulates program execution for a submitted transaction. A
// returned *solana.TransactionError rejects the transaction in preflight.
type ExecuteFunc func(node *Node, txn solana.Transaction) *solana.TransactionError

// Node is an in-memory solana.Client. Block height advances by one on every
// GetBlockHeight call, so blockhashes expire after ValidityWindow polls.
type Node struct {
	sync.Mutex

	ValidityWindow uint64
	Execute        ExecuteFunc

	accounts    map[string]solana.AccountInfo
	blockHeight uint64
	blockhashes map[solana.Blockhash]uint64
	statuses    map[solana.Signature]*solana.SignatureStatus
	submitted   []solana.Transaction

	sendFailures  int
	drops         int
	pollFailures  int
	blockhashReqs int
}

func NewNode() *Node {
	return &Node{
		ValidityWindow: defaultValidityWindow,
		accounts:       make(map[string]solana.AccountInfo),
		blockhashes:    make(map[solana.Blockhash]uint64),
		statuses:       make(map[solana.Signature]*solana.SignatureStatus),
	}
}

// SetAccount stores an account.
func (n *Node) SetAccount(address ed25519.PublicKey, info solana.AccountInfo) {
	n.Lock()
	defer n.Unlock()
	n.accounts[string(address)] = info
}

// DeleteAccount removes an account.
func (n *Node) DeleteAccount(address ed25519.PublicKey) {
	n.Lock()
	defer n.Unlock()
	delete(n.accounts, string(address))
}

// Account returns a stored account.
func (n *Node) Account(address ed25519.PublicKey) (solana.AccountInfo, bool) {
	n.Lock()
	defer n.Unlock()
	info, ok := n.accounts[string(address)]
	return info, ok
}

// FailNextSends causes the next count SubmitTransaction calls to fail with
// ErrInducedFailure.
func (n *Node) FailNextSends(count int) {
	n.Lock()
	defer n.Unlock()
	n.sendFailures = count
}

// DropNextSends causes the next count accepted transactions to never land.
func (n *Node) DropNextSends(count int) {
	n.Lock()
	defer n.Unlock()
	n.drops = count
}

// FailNextPolls causes the next count status polls to fail.
func (n *Node) FailNextPolls(count int) {
	n.Lock()
	defer n.Unlock()
	n.pollFailures = count
}

// Submitted returns every transaction that reached the node, including
// dropped and rejected ones.
func (n *Node) Submitted() []solana.Transaction {
	n.Lock()
	defer n.Unlock()
	return append([]solana.Transaction(nil), n.submitted...)
}

// Landed returns the transactions that executed successfully.
func (n *Node) Landed() []solana.Transaction {
	n.Lock()
	defer n.Unlock()

	var landed []solana.Transaction
	for _, txn := range n.submitted {
		var sig solana.Signature
		copy(sig[:], txn.Signature())
		if status, ok := n.statuses[sig]; ok && status.ErrorResult == nil {
			landed = append(landed, txn)
		}
	}
	return landed
}

// BlockhashRequests returns how many blockhashes were handed out.
func (n *Node) BlockhashRequests() int {
	n.Lock()
	defer n.Unlock()
	return n.blockhashReqs
}

func (n *Node) GetAccountInfo(_ context.Context, account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	n.Lock()
	defer n.Unlock()

	info, ok := n.accounts[string(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (n *Node) GetBalance(_ context.Context, account ed25519.PublicKey) (uint64, error) {
	n.Lock()
	defer n.Unlock()

	info, ok := n.accounts[string(account)]
	if !ok {
		return 0, solana.ErrNoAccountInfo
	}
	return info.Lamports, nil
}

func (n *Node) GetBlockHeight(_ context.Context, _ solana.Commitment) (uint64, error) {
	n.Lock()
	defer n.Unlock()

	if n.pollFailures > 0 {
		n.pollFailures--
		return 0, ErrInducedFailure
	}

	n.blockHeight++
	return n.blockHeight, nil
}

func (n *Node) GetLatestBlockhash(_ context.Context, _ solana.Commitment) (solana.LatestBlockhash, error) {
	n.Lock()
	defer n.Unlock()

	n.blockhashReqs++

	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], uint64(n.blockhashReqs))
	bh := solana.Blockhash(sha256.Sum256(seed[:]))

	lastValid := n.blockHeight + n.ValidityWindow
	n.blockhashes[bh] = lastValid
	return solana.LatestBlockhash{
		Blockhash:            bh,
		LastValidBlockHeight: lastValid,
	}, nil
}

func (n *Node) GetMinimumBalanceForRentExemption(_ context.Context, size uint64) (uint64, error) {
	return rentExemptBalance(size), nil
}

func rentExemptBalance(size uint64) uint64 {
	return (size + rentAccountOverhead) * rentLamportsPerByteYear * rentExemptionYears
}

func (n *Node) GetProgramAccounts(_ context.Context, program ed25519.PublicKey, _ solana.Commitment, filters ...solana.AccountFilter) ([]solana.KeyedAccount, error) {
	n.Lock()
	defer n.Unlock()

	var res []solana.KeyedAccount
	for address, info := range n.accounts {
		if !bytes.Equal(info.Owner, program) || !matchesFilters(info.Data, filters) {
			continue
		}
		res = append(res, solana.KeyedAccount{
			PublicKey: ed25519.PublicKey(address),
			Account:   info,
		})
	}
	return res, nil
}

func matchesFilters(data []byte, filters []solana.AccountFilter) bool {
	for _, f := range filters {
		switch {
		case f.DataSize != nil:
			if uint64(len(data)) != *f.DataSize {
				return false
			}
		case f.Memcmp != nil:
			end := f.Memcmp.Offset + uint64(len(f.Memcmp.Bytes))
			if end > uint64(len(data)) || !bytes.Equal(data[f.Memcmp.Offset:end], f.Memcmp.Bytes) {
				return false
			}
		}
	}
	return true
}

func (n *Node) GetSignatureStatuses(_ context.Context, sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	n.Lock()
	defer n.Unlock()

	if n.pollFailures > 0 {
		n.pollFailures--
		return nil, ErrInducedFailure
	}

	res := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		if status, ok := n.statuses[sig]; ok {
			copied := *status
			res[i] = &copied
		}
	}
	return res, nil
}

func (n *Node) GetTokenAccountsByOwner(_ context.Context, owner, mint ed25519.PublicKey) ([]ed25519.PublicKey, error) {
	n.Lock()
	defer n.Unlock()

	var res []ed25519.PublicKey
	for address, info := range n.accounts {
		if !bytes.Equal(info.Owner, token.ProgramKey) {
			continue
		}

		var account token.Account
		if !account.Unmarshal(info.Data) {
			continue
		}
		if bytes.Equal(account.Owner, owner) && bytes.Equal(account.Mint, mint) {
			res = append(res, ed25519.PublicKey(address))
		}
	}
	return res, nil
}

// SubmitTransaction verifies signatures and the blockhash before handing the
// transaction to Execute.
func (n *Node) SubmitTransaction(_ context.Context, txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	n.Lock()
	defer n.Unlock()

	var sig solana.Signature
	copy(sig[:], txn.Signature())

	if n.sendFailures > 0 {
		n.sendFailures--
		return sig, ErrInducedFailure
	}

	n.submitted = append(n.submitted, txn)

	message := txn.Message.Marshal()
	for i, signer := range txn.RequiredSigners() {
		if !ed25519.Verify(signer, message, txn.Signatures[i][:]) {
			return sig, solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
		}
	}

	lastValid, ok := n.blockhashes[txn.Message.RecentBlockhash]
	if !ok || n.blockHeight > lastValid {
		return sig, solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}

	if _, ok := n.statuses[sig]; ok {
		return sig, solana.NewTransactionError(solana.TransactionErrorDuplicateSignature)
	}

	if n.drops > 0 {
		n.drops--
		return sig, nil
	}

	if n.Execute != nil {
		if txErr := n.Execute(n, txn); txErr != nil {
			return sig, txErr
		}
	}

	n.statuses[sig] = &solana.SignatureStatus{
		Slot:               n.blockHeight,
		ConfirmationStatus: "finalized",
	}
	return sig, nil
}

// SetAccountLocked stores an account from within an ExecuteFunc, where the
// node lock is already held.
func (n *Node) SetAccountLocked(address ed25519.PublicKey, info solana.AccountInfo) {
	n.accounts[string(address)] = info
}

// DeleteAccountLocked removes an account from within an ExecuteFunc.
func (n *Node) DeleteAccountLocked(address ed25519.PublicKey) {
	delete(n.accounts, string(address))
}

// AccountLocked returns an account from within an ExecuteFunc.
func (n *Node) AccountLocked(address ed25519.PublicKey) (solana.AccountInfo, bool) {
	info, ok := n.accounts[string(address)]
	return info, ok
}

// CustomError builds the rejection a program returns for a custom error code
// raised by the instruction at index.
func CustomError(index int, code int) *solana.TransactionError {
	return solana.NewInstructionError(index, solana.CustomError(code))
}
