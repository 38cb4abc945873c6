package testutil

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/lottery"
	"github.com/lotterynft/lottery-client/pkg/solana/lotterystore"
	"github.com/lotterynft/lottery-client/pkg/solana/memo"
	"github.com/lotterynft/lottery-client/pkg/solana/system"
	"github.com/lotterynft/lottery-client/pkg/solana/token"
)

// Programs simulates the system, token, memo, store and lottery programs
// against a Node. Writes are staged and only applied when every instruction
// of the transaction succeeds. Assign its Execute method to Node.Execute.
//
// The lottery program draws deterministically: the first NftAmount tickets
// sold win NFTs 1..NftAmount in order.
type Programs struct {
	Store   ed25519.PublicKey
	Lottery ed25519.PublicKey

	// Now is the unix time seen by the lottery program.
	Now uint64
}

var errInvalidSeeds = errors.New("InvalidSeeds")

type execution struct {
	node   *Node
	txn    solana.Transaction
	writes map[string]*solana.AccountInfo
}

func (e *execution) get(address ed25519.PublicKey) (solana.AccountInfo, bool) {
	if info, ok := e.writes[string(address)]; ok {
		if info == nil {
			return solana.AccountInfo{}, false
		}
		return *info, true
	}
	return e.node.AccountLocked(address)
}

func (e *execution) set(address ed25519.PublicKey, info solana.AccountInfo) {
	e.writes[string(address)] = &info
}

func (e *execution) remove(address ed25519.PublicKey) {
	e.writes[string(address)] = nil
}

func (p *Programs) Execute(node *Node, txn solana.Transaction) *solana.TransactionError {
	e := &execution{
		node:   node,
		txn:    txn,
		writes: make(map[string]*solana.AccountInfo),
	}

	for i, instruction := range txn.Message.Instructions {
		program := txn.Message.Accounts[instruction.ProgramIndex]

		var code *lottery.ErrorCode
		switch {
		case bytes.Equal(program, system.ProgramKey[:]):
			p.executeSystem(e, i)
		case bytes.Equal(program, token.ProgramKey):
			p.executeToken(e, i)
		case bytes.Equal(program, token.AssociatedTokenAccountProgramKey):
			p.executeAssociatedToken(e, i)
		case bytes.Equal(program, memo.ProgramKey):
		case bytes.Equal(program, p.Store):
			if err := p.executeStore(e, i); err != nil {
				return err
			}
		case bytes.Equal(program, p.Lottery):
			code = p.executeLottery(e, i)
		default:
			panic("unexpected program")
		}

		if code != nil {
			return CustomError(i, int(*code))
		}
	}

	for address, info := range e.writes {
		if info == nil {
			node.DeleteAccountLocked(ed25519.PublicKey(address))
			continue
		}
		node.SetAccountLocked(ed25519.PublicKey(address), *info)
	}
	return nil
}

func (p *Programs) executeSystem(e *execution, i int) {
	if created, err := system.DecompileCreateAccount(e.txn.Message, i); err == nil {
		e.set(created.Address, solana.AccountInfo{
			Data:     make([]byte, created.Size),
			Owner:    created.Owner,
			Lamports: created.Lamports,
		})
		return
	}
	if _, err := system.DecompileTransfer(e.txn.Message, i); err == nil {
		return
	}
	panic("unexpected system instruction")
}

func (p *Programs) executeToken(e *execution, i int) {
	command, err := token.GetCommand(e.txn.Message, i)
	if err != nil {
		panic(err)
	}

	switch command {
	case token.CommandInitializeMint:
		decompiled, err := token.DecompileInitializeMint(e.txn.Message, i)
		if err != nil {
			panic(err)
		}
		info, ok := e.get(decompiled.Mint)
		if !ok {
			panic("mint not allocated")
		}
		mint := token.Mint{
			MintAuthority:   decompiled.MintAuthority,
			Decimals:        decompiled.Decimals,
			IsInitialized:   true,
			FreezeAuthority: decompiled.FreezeAuthority,
		}
		info.Data = mint.Marshal()
		e.set(decompiled.Mint, info)
	case token.CommandSetAuthority:
		decompiled, err := token.DecompileSetAuthority(e.txn.Message, i)
		if err != nil {
			panic(err)
		}
		if decompiled.Type != token.AuthorityTypeMintTokens {
			return
		}
		p.updateMint(e, decompiled.Account, func(mint *token.Mint) {
			mint.MintAuthority = decompiled.NewAuthority
		})
	case token.CommandInitializeAccount:
		decompiled, err := token.DecompileInitializeAccount(e.txn.Message, i)
		if err != nil {
			panic(err)
		}
		info, ok := e.get(decompiled.Account)
		if !ok {
			panic("token account not allocated")
		}

		account := token.Account{
			Mint:  decompiled.Mint,
			Owner: decompiled.Owner,
			State: token.AccountStateInitialized,
		}
		if bytes.Equal(decompiled.Mint, token.NativeMint) {
			rent := rentExemptBalance(uint64(len(info.Data)))
			account.Amount = info.Lamports - rent
			account.IsNative = &rent
		}
		info.Data = account.Marshal()
		e.set(decompiled.Account, info)
	case token.CommandMintTo:
		decompiled, err := token.DecompileMintTo(e.txn.Message, i)
		if err != nil {
			panic(err)
		}
		p.adjustTokenAmount(e, decompiled.Destination, int64(decompiled.Amount))
		p.updateMint(e, decompiled.Mint, func(mint *token.Mint) {
			mint.Supply += decompiled.Amount
		})
	case token.CommandCloseAccount:
		decompiled, err := token.DecompileCloseAccount(e.txn.Message, i)
		if err != nil {
			panic(err)
		}
		e.remove(decompiled.Account)
	default:
		panic("unexpected token instruction")
	}
}

func (p *Programs) executeAssociatedToken(e *execution, i int) {
	decompiled, err := token.DecompileCreateAssociatedAccountIdempotent(e.txn.Message, i)
	if err != nil {
		panic(err)
	}
	if _, ok := e.get(decompiled.Address); ok {
		return
	}

	account := token.Account{
		Mint:  decompiled.Mint,
		Owner: decompiled.Owner,
		State: token.AccountStateInitialized,
	}
	e.set(decompiled.Address, solana.AccountInfo{
		Owner:    token.ProgramKey,
		Data:     account.Marshal(),
		Lamports: 1,
	})
}

func (p *Programs) tokenAccount(e *execution, address ed25519.PublicKey) (token.Account, solana.AccountInfo) {
	info, ok := e.get(address)
	if !ok {
		panic("token account does not exist")
	}
	var account token.Account
	if !account.Unmarshal(info.Data) {
		panic("invalid token account")
	}
	return account, info
}

func (p *Programs) updateMint(e *execution, address ed25519.PublicKey, update func(*token.Mint)) {
	info, ok := e.get(address)
	if !ok {
		panic("mint does not exist")
	}
	var mint token.Mint
	if !mint.Unmarshal(info.Data) {
		panic("invalid mint")
	}
	update(&mint)
	info.Data = mint.Marshal()
	e.set(address, info)
}

func (p *Programs) adjustTokenAmount(e *execution, address ed25519.PublicKey, delta int64) {
	account, info := p.tokenAccount(e, address)
	account.Amount = uint64(int64(account.Amount) + delta)
	info.Data = account.Marshal()
	e.set(address, info)
}

// signerSeedsValid reports whether the store program can sign for address
// with the seeds [address, bump]. The runtime rejects seeds that land on
// the curve.
func (p *Programs) signerSeedsValid(address ed25519.PublicKey, bump uint8) bool {
	_, err := solana.CreateProgramAddress(p.Store, address, []byte{bump})
	return err == nil
}

func (p *Programs) executeStore(e *execution, i int) *solana.TransactionError {
	switch lotterystore.Command(e.txn.Message.Instructions[i].Data[0]) {
	case lotterystore.CommandCreateStore:
		args, accounts, err := lotterystore.CreateStoreInstructionFromLegacyInstruction(p.Store, e.txn, i)
		if err != nil {
			panic(err)
		}
		if !p.signerSeedsValid(accounts.Store, args.Bump) {
			return solana.NewInstructionError(i, errInvalidSeeds)
		}
		store := &lotterystore.StoreAccount{
			Owner:     accounts.Creator,
			Authority: accounts.Authority,
			Bump:      args.Bump,
		}
		p.write(e, p.Store, accounts.Store, store.Marshal)
	case lotterystore.CommandMintNft:
		args, accounts, err := lotterystore.MintNftInstructionFromLegacyInstruction(p.Store, e.txn, i)
		if err != nil {
			panic(err)
		}
		if !p.signerSeedsValid(accounts.NftMeta, args.Bump) {
			return solana.NewInstructionError(i, errInvalidSeeds)
		}

		store := p.readStore(e, accounts.Store)
		store.NftAmount++
		p.write(e, p.Store, accounts.Store, store.Marshal)

		meta := &lotterystore.NftMetaAccount{
			Store:     accounts.Store,
			NftNumber: store.NftAmount,
			Name:      args.Name,
			Symbol:    args.Symbol,
			Uri:       args.Uri,
			Mint:      accounts.Mint,
			TokenPool: accounts.TokenPool,
			Authority: accounts.Authority,
			Exists:    true,
			Bump:      args.Bump,
		}
		p.write(e, p.Store, accounts.NftMeta, meta.Marshal)
	case lotterystore.CommandUpdateMint:
		args, accounts, err := lotterystore.UpdateMintInstructionFromLegacyInstruction(p.Store, e.txn, i)
		if err != nil {
			panic(err)
		}

		info, _ := e.get(accounts.NftMeta)
		var meta lotterystore.NftMetaAccount
		if err := meta.Unmarshal(info.Data); err != nil {
			panic(err)
		}
		meta.Name, meta.Symbol, meta.Uri = args.Name, args.Symbol, args.Uri
		p.write(e, p.Store, accounts.NftMeta, meta.Marshal)
	default:
		panic("unexpected store instruction")
	}
	return nil
}

func (p *Programs) readStore(e *execution, address ed25519.PublicKey) *lotterystore.StoreAccount {
	info, ok := e.get(address)
	if !ok {
		panic("store does not exist")
	}
	var store lotterystore.StoreAccount
	if err := store.Unmarshal(info.Data); err != nil {
		panic(err)
	}
	return &store
}

func (p *Programs) write(e *execution, owner, address ed25519.PublicKey, marshal func() ([]byte, error)) {
	encoded, err := marshal()
	if err != nil {
		panic(err)
	}
	e.set(address, solana.AccountInfo{
		Data:     encoded,
		Owner:    owner,
		Lamports: 1,
	})
}

func (p *Programs) executeLottery(e *execution, i int) *lottery.ErrorCode {
	fail := func(code lottery.ErrorCode) *lottery.ErrorCode {
		return &code
	}

	switch lottery.Command(e.txn.Message.Instructions[i].Data[0]) {
	case lottery.CommandCreateLottery:
		args, accounts, err := lottery.CreateLotteryInstructionFromLegacyInstruction(p.Lottery, e.txn, i)
		if err != nil {
			panic(err)
		}
		address, err := lottery.GetLotteryAddress(p.Lottery, accounts.Store)
		if err != nil {
			panic(err)
		}
		if _, exists := e.get(address.Address); exists {
			return fail(lottery.ErrorInvalidLotteryAccount)
		}

		record := &lottery.LotteryAccount{
			Authority:    accounts.Creator,
			TokenMint:    accounts.TokenMint,
			TokenPool:    accounts.TokenPool,
			Store:        accounts.Store,
			EndAt:        args.EndAt,
			State:        lottery.LotteryStateCreated,
			NftAmount:    uint64(args.NftAmount),
			TicketPrice:  args.TicketPrice,
			TicketAmount: uint64(args.TicketAmount),
		}
		p.write(e, p.Lottery, address.Address, record.Marshal)
	case lottery.CommandSetAuthority:
		accounts, err := lottery.SetAuthorityInstructionFromLegacyInstruction(p.Lottery, e.txn, i)
		if err != nil {
			panic(err)
		}
		record := p.readLottery(e, accounts.Lottery)
		if !bytes.Equal(record.Authority, accounts.CurrentAuthority) {
			return fail(lottery.ErrorInvalidAuthority)
		}
		record.Authority = accounts.NewAuthority
		p.write(e, p.Lottery, accounts.Lottery, record.Marshal)
	case lottery.CommandStartLottery, lottery.CommandEndLottery:
		command := lottery.Command(e.txn.Message.Instructions[i].Data[0])
		address := e.txn.Message.Accounts[e.txn.Message.Instructions[i].Accounts[1]]
		record := p.readLottery(e, address)

		if command == lottery.CommandStartLottery {
			if record.State != lottery.LotteryStateCreated {
				return fail(lottery.ErrorLotteryTransitionInvalid)
			}
			if record.EndAt != 0 && p.Now >= record.EndAt {
				return fail(lottery.ErrorAlreadyOverEndDate)
			}
			record.State = lottery.LotteryStateStarted
		} else {
			if record.State == lottery.LotteryStateEnded {
				return fail(lottery.ErrorAlreadyEnded)
			}
			record.State = lottery.LotteryStateEnded
			record.EndedAt = p.Now
		}
		p.write(e, p.Lottery, address, record.Marshal)
	case lottery.CommandGetTicket:
		accounts, err := lottery.GetTicketInstructionFromLegacyInstruction(p.Lottery, e.txn, i)
		if err != nil {
			panic(err)
		}
		record := p.readLottery(e, accounts.Lottery)
		if record.State != lottery.LotteryStateStarted || (record.EndAt != 0 && p.Now >= record.EndAt) {
			return fail(lottery.ErrorInvalidState)
		}
		if record.SoldAmount >= record.TicketAmount {
			return fail(lottery.ErrorExceedTicketAmount)
		}

		payment, _ := p.tokenAccount(e, accounts.BidderToken)
		if payment.Amount < record.TicketPrice {
			return fail(lottery.ErrorBalanceTooLow)
		}
		p.adjustTokenAmount(e, accounts.BidderToken, -int64(record.TicketPrice))
		p.adjustTokenAmount(e, accounts.TokenPool, int64(record.TicketPrice))

		// The first NftAmount tickets win NFTs 1..NftAmount in order.
		record.SoldAmount++
		ticket := &lottery.TicketAccount{
			Owner:   accounts.Bidder,
			Lottery: accounts.Lottery,
			State:   lottery.TicketStateNotWon,
		}
		if record.SoldAmount <= record.NftAmount {
			ticket.State = lottery.TicketStateWon
			ticket.WonNftNumber = record.SoldAmount
		}
		p.write(e, p.Lottery, accounts.Lottery, record.Marshal)
		p.write(e, p.Lottery, accounts.Ticket, ticket.Marshal)
	case lottery.CommandClaimToken:
		accounts, err := lottery.ClaimTokenInstructionFromLegacyInstruction(p.Lottery, e.txn, i)
		if err != nil {
			panic(err)
		}
		record := p.readLottery(e, accounts.Lottery)
		ticket := p.readTicket(e, accounts.Ticket)
		switch ticket.State {
		case lottery.TicketStateClaimed:
			return fail(lottery.ErrorAlreadyClaimed)
		case lottery.TicketStateNotWon:
		default:
			return fail(lottery.ErrorTicketTransitionInvalid)
		}

		p.adjustTokenAmount(e, accounts.TokenPool, -int64(record.TicketPrice))
		p.adjustTokenAmount(e, accounts.UserToken, int64(record.TicketPrice))
		ticket.State = lottery.TicketStateClaimed
		p.write(e, p.Lottery, accounts.Ticket, ticket.Marshal)
	case lottery.CommandClaimNft:
		accounts, err := lottery.ClaimNftInstructionFromLegacyInstruction(p.Lottery, e.txn, i)
		if err != nil {
			panic(err)
		}
		ticket := p.readTicket(e, accounts.Ticket)
		switch ticket.State {
		case lottery.TicketStateClaimed:
			return fail(lottery.ErrorAlreadyClaimed)
		case lottery.TicketStateWon:
		default:
			return fail(lottery.ErrorTicketTransitionInvalid)
		}

		p.adjustTokenAmount(e, accounts.NftPool, -1)
		p.adjustTokenAmount(e, accounts.UserNft, 1)
		ticket.State = lottery.TicketStateClaimed
		p.write(e, p.Lottery, accounts.Ticket, ticket.Marshal)
	default:
		panic("unexpected lottery instruction")
	}
	return nil
}

func (p *Programs) readLottery(e *execution, address ed25519.PublicKey) *lottery.LotteryAccount {
	info, ok := e.get(address)
	if !ok {
		panic("lottery does not exist")
	}
	var record lottery.LotteryAccount
	if err := record.Unmarshal(info.Data); err != nil {
		panic(err)
	}
	return &record
}

func (p *Programs) readTicket(e *execution, address ed25519.PublicKey) *lottery.TicketAccount {
	info, ok := e.get(address)
	if !ok {
		panic("ticket does not exist")
	}
	var ticket lottery.TicketAccount
	if err := ticket.Unmarshal(info.Data); err != nil {
		panic(err)
	}
	return &ticket
}
