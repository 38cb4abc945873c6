package lottery

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/binary"
	"github.com/lotterynft/lottery-client/pkg/solana/system"
	"github.com/lotterynft/lottery-client/pkg/solana/token"
)

func generateKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := range keys {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}
	return keys
}

func TestGetLotteryAddress(t *testing.T) {
	keys := generateKeys(t, 3)
	program, store := keys[0], keys[1]

	first, err := GetLotteryAddress(program, store)
	require.NoError(t, err)
	second, err := GetLotteryAddress(program, store)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	expected, bump, err := solana.FindProgramAddressAndBump(program, []byte("lottery"), program, store)
	require.NoError(t, err)
	assert.EqualValues(t, expected, first.Address)
	assert.Equal(t, bump, first.Bump)

	other, err := GetLotteryAddress(program, keys[2])
	require.NoError(t, err)
	assert.NotEqual(t, first.Address, other.Address)

	storePrefixed, err := solana.Derive(program, []byte("store"), program, store)
	require.NoError(t, err)
	assert.NotEqual(t, first.Address, storePrefixed.Address)
}

func TestGetAuthorityAddresses(t *testing.T) {
	keys := generateKeys(t, 4)
	program, lottery, bidder, ticket := keys[0], keys[1], keys[2], keys[3]

	tokenAuthority, err := GetTokenAuthorityAddress(program, lottery, bidder)
	require.NoError(t, err)
	expected, err := solana.FindProgramAddress(program, []byte("lottery"), program, lottery, bidder)
	require.NoError(t, err)
	assert.EqualValues(t, expected, tokenAuthority.Address)

	ticketAuthority, err := GetTicketAuthorityAddress(program, ticket)
	require.NoError(t, err)
	expected, err = solana.FindProgramAddress(program, []byte("lottery"), program, ticket)
	require.NoError(t, err)
	assert.EqualValues(t, expected, ticketAuthority.Address)
}

func TestCreateLottery(t *testing.T) {
	keys := generateKeys(t, 5)
	program := keys[0]

	accounts := &CreateLotteryInstructionAccounts{
		Creator:   keys[1],
		Store:     keys[2],
		TokenMint: keys[3],
		TokenPool: keys[4],
	}
	args := &CreateLotteryInstructionArgs{
		EndAt:        1_700_000_000,
		TicketPrice:  1_000_000_000,
		TicketAmount: 5,
		NftAmount:    3,
	}

	instruction, err := NewCreateLotteryInstruction(program, accounts, args)
	require.NoError(t, err)

	require.Len(t, instruction.Data, 25)
	assert.Equal(t, "00"+"00f1536500000000"+"00ca9a3b00000000"+"05000000"+"03000000", hex.EncodeToString(instruction.Data))

	lottery, err := GetLotteryAddress(program, accounts.Store)
	require.NoError(t, err)

	require.Len(t, instruction.Accounts, 9)
	assert.EqualValues(t, keys[1], instruction.Accounts[0].PublicKey)
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.EqualValues(t, lottery.Address, instruction.Accounts[1].PublicKey)
	assert.EqualValues(t, keys[2], instruction.Accounts[2].PublicKey)
	assert.EqualValues(t, keys[4], instruction.Accounts[4].PublicKey)
	assert.True(t, instruction.Accounts[4].IsSigner)
	assert.EqualValues(t, lottery.Address, instruction.Accounts[5].PublicKey)
	assert.EqualValues(t, token.ProgramKey, instruction.Accounts[6].PublicKey)
	assert.EqualValues(t, system.RentSysVar, instruction.Accounts[7].PublicKey)
	assert.EqualValues(t, system.ProgramKey[:], instruction.Accounts[8].PublicKey)

	txn := solana.NewTransaction(keys[1], instruction)
	decodedArgs, decodedAccounts, err := CreateLotteryInstructionFromLegacyInstruction(program, txn, 0)
	require.NoError(t, err)
	assert.Equal(t, args, decodedArgs)
	assert.Equal(t, accounts, decodedAccounts)
}

func TestStartAndEndLottery(t *testing.T) {
	keys := generateKeys(t, 3)
	program := keys[0]
	accounts := &LotteryStateInstructionAccounts{Payer: keys[1], Store: keys[2]}

	lottery, err := GetLotteryAddress(program, accounts.Store)
	require.NoError(t, err)

	for command, build := range map[Command]func(ed25519.PublicKey, *LotteryStateInstructionAccounts) (solana.Instruction, error){
		CommandStartLottery: NewStartLotteryInstruction,
		CommandEndLottery:   NewEndLotteryInstruction,
	} {
		instruction, err := build(program, accounts)
		require.NoError(t, err)

		assert.Equal(t, []byte{byte(command)}, instruction.Data)
		require.Len(t, instruction.Accounts, 3)
		assert.EqualValues(t, keys[1], instruction.Accounts[0].PublicKey)
		assert.False(t, instruction.Accounts[0].IsSigner)
		assert.True(t, instruction.Accounts[0].IsWritable)
		assert.EqualValues(t, lottery.Address, instruction.Accounts[1].PublicKey)
		assert.EqualValues(t, system.ClockSysVar, instruction.Accounts[2].PublicKey)
		assert.False(t, instruction.Accounts[2].IsWritable)
	}
}

func TestSetAuthority(t *testing.T) {
	keys := generateKeys(t, 4)
	program := keys[0]
	accounts := &SetAuthorityInstructionAccounts{
		Lottery:          keys[1],
		CurrentAuthority: keys[2],
		NewAuthority:     keys[3],
	}

	instruction := NewSetAuthorityInstruction(program, accounts)
	assert.Equal(t, []byte{1}, instruction.Data)
	require.Len(t, instruction.Accounts, 3)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.True(t, instruction.Accounts[1].IsSigner)
	assert.False(t, instruction.Accounts[1].IsWritable)
	assert.False(t, instruction.Accounts[2].IsSigner)

	txn := solana.NewTransaction(keys[2], instruction)
	decoded, err := SetAuthorityInstructionFromLegacyInstruction(program, txn, 0)
	require.NoError(t, err)
	assert.Equal(t, accounts, decoded)

	_, err = ClaimTokenInstructionFromLegacyInstruction(program, txn, 0)
	assert.Equal(t, ErrInvalidInstructionData, err)
	_, err = SetAuthorityInstructionFromLegacyInstruction(keys[3], txn, 0)
	assert.Equal(t, ErrInvalidProgram, err)
	_, err = SetAuthorityInstructionFromLegacyInstruction(program, txn, 1)
	assert.Error(t, err)
}

func TestGetTicket(t *testing.T) {
	keys := generateKeys(t, 7)
	program := keys[0]
	accounts := &GetTicketInstructionAccounts{
		Lottery:           keys[1],
		Ticket:            keys[2],
		Bidder:            keys[3],
		BidderToken:       keys[4],
		TokenPool:         keys[5],
		TokenMint:         keys[6],
		TransferAuthority: keys[3],
	}

	instruction := NewGetTicketInstruction(program, accounts)
	assert.Equal(t, []byte{3}, instruction.Data)
	require.Len(t, instruction.Accounts, 11)

	signers := map[int]bool{1: true, 2: true, 6: true}
	for i, meta := range instruction.Accounts {
		assert.Equal(t, signers[i], meta.IsSigner, "account %d", i)
	}
	assert.EqualValues(t, system.ClockSysVar, instruction.Accounts[10].PublicKey)

	txn := solana.NewTransaction(keys[3], instruction)
	decoded, err := GetTicketInstructionFromLegacyInstruction(program, txn, 0)
	require.NoError(t, err)
	assert.Equal(t, accounts, decoded)
}

func TestClaimInstructions(t *testing.T) {
	keys := generateKeys(t, 9)
	program := keys[0]

	nftAccounts := &ClaimNftInstructionAccounts{
		Lottery: keys[1],
		Store:   keys[2],
		Claimer: keys[3],
		Ticket:  keys[4],
		NftMeta: keys[5],
		NftMint: keys[6],
		NftPool: keys[7],
		UserNft: keys[8],
	}
	instruction := NewClaimNftInstruction(program, nftAccounts)
	assert.Equal(t, []byte{5}, instruction.Data)
	require.Len(t, instruction.Accounts, 9)
	assert.True(t, instruction.Accounts[2].IsSigner)
	assert.EqualValues(t, token.ProgramKey, instruction.Accounts[8].PublicKey)

	decodedNft, err := ClaimNftInstructionFromLegacyInstruction(program, solana.NewTransaction(keys[3], instruction), 0)
	require.NoError(t, err)
	assert.Equal(t, nftAccounts, decodedNft)

	tokenAccounts := &ClaimTokenInstructionAccounts{
		Lottery:   keys[1],
		Claimer:   keys[3],
		Ticket:    keys[4],
		TokenPool: keys[5],
		UserToken: keys[6],
	}
	instruction = NewClaimTokenInstruction(program, tokenAccounts)
	assert.Equal(t, []byte{6}, instruction.Data)
	require.Len(t, instruction.Accounts, 6)
	assert.True(t, instruction.Accounts[1].IsSigner)

	decodedToken, err := ClaimTokenInstructionFromLegacyInstruction(program, solana.NewTransaction(keys[3], instruction), 0)
	require.NoError(t, err)
	assert.Equal(t, tokenAccounts, decodedToken)
}

func encodeLottery(t *testing.T, state uint8, endAt uint64) []byte {
	keys := generateKeys(t, 4)

	data, err := binary.Encode(Schemas.MustLookup(KindLotteryData), binary.Value{
		"authority":      keys[0],
		"tokenMint":      keys[1],
		"tokenPool":      keys[2],
		"lotteryStoreId": keys[3],
		"endedAt":        uint64(0),
		"endLotteryAt":   endAt,
		"state":          state,
		"nftAmount":      uint64(3),
		"ticketPrice":    uint64(1_000_000_000),
		"ticketAmount":   uint64(5),
		"soldAmount":     uint64(2),
	})
	require.NoError(t, err)

	padded := make([]byte, LotteryAccountSize)
	copy(padded, data)
	return padded
}

func TestLotteryAccount_Unmarshal(t *testing.T) {
	var account LotteryAccount
	require.NoError(t, account.Unmarshal(encodeLottery(t, 1, 1_700_000_000)))

	assert.Equal(t, LotteryStateStarted, account.State)
	assert.EqualValues(t, 1_700_000_000, account.EndAt)
	assert.EqualValues(t, 3, account.NftAmount)
	assert.EqualValues(t, 1_000_000_000, account.TicketPrice)
	assert.EqualValues(t, 5, account.TicketAmount)
	assert.EqualValues(t, 2, account.SoldAmount)
	assert.EqualValues(t, 3, account.RemainingTickets())

	// Unknown states decode rather than fail.
	require.NoError(t, account.Unmarshal(encodeLottery(t, 9, 0)))
	assert.False(t, account.State.Valid())
	assert.Equal(t, "unknown(9)", account.State.String())

	assert.ErrorIs(t, account.Unmarshal(make([]byte, 100)), binary.ErrBufferTooShort)
}

func TestLotteryAccount_EffectiveState(t *testing.T) {
	deadline := time.Unix(1_700_000_000, 0)
	before := deadline.Add(-time.Second)

	testCases := []struct {
		state    LotteryState
		endAt    uint64
		now      time.Time
		expected LotteryState
	}{
		{LotteryStateCreated, 1_700_000_000, before, LotteryStateCreated},
		{LotteryStateStarted, 1_700_000_000, before, LotteryStateStarted},
		{LotteryStateEnded, 1_700_000_000, before, LotteryStateEnded},
		{LotteryStateStarted, 1_700_000_000, deadline, LotteryStateEnded},
		{LotteryStateCreated, 1_700_000_000, deadline.Add(time.Hour), LotteryStateEnded},
		{LotteryStateStarted, 0, deadline.Add(time.Hour), LotteryStateStarted},
	}

	for _, tc := range testCases {
		account := &LotteryAccount{State: tc.state, EndAt: tc.endAt, TicketAmount: 5}
		assert.Equal(t, tc.expected, account.EffectiveState(tc.now), "%s at %d", tc.state, tc.now.Unix())
		assert.Equal(t, tc.expected == LotteryStateEnded, account.IsEnded(tc.now))
		assert.Equal(t, tc.expected == LotteryStateStarted, account.IsOpen(tc.now))
	}

	soldOut := &LotteryAccount{State: LotteryStateStarted, EndAt: 1_700_000_000, TicketAmount: 5, SoldAmount: 5}
	assert.False(t, soldOut.IsOpen(before))
}

func TestLotteryAccount_TimeToEnd(t *testing.T) {
	account := &LotteryAccount{State: LotteryStateStarted, EndAt: 1_700_000_000}
	deadline := account.Deadline()

	remaining := account.TimeToEnd(deadline.Add(-(26*time.Hour + 3*time.Minute + 4*time.Second)))
	assert.Equal(t, Countdown{Days: 1, Hours: 2, Minutes: 3, Seconds: 4}, remaining)
	assert.Equal(t, "1d 02:03:04", remaining.String())
	assert.False(t, remaining.Done())

	assert.Equal(t, "00:00:59", account.TimeToEnd(deadline.Add(-59*time.Second)).String())
	assert.True(t, account.TimeToEnd(deadline).Done())
	assert.True(t, account.TimeToEnd(deadline.Add(time.Minute)).Done())

	account.State = LotteryStateEnded
	assert.True(t, account.TimeToEnd(deadline.Add(-time.Hour)).Done())

	assert.True(t, (&LotteryAccount{}).TimeToEnd(time.Now()).Done())
	assert.True(t, (&LotteryAccount{}).Deadline().IsZero())
}

func TestTicketAccount_Unmarshal(t *testing.T) {
	keys := generateKeys(t, 2)

	data, err := binary.Encode(Schemas.MustLookup(KindTicket), binary.Value{
		"owner":        keys[0],
		"lotteryId":    keys[1],
		"state":        uint8(TicketStateWon),
		"wonNftNumber": uint64(2),
	})
	require.NoError(t, err)
	assert.Len(t, data, 73)

	padded := make([]byte, TicketAccountSize)
	copy(padded, data)

	var ticket TicketAccount
	require.NoError(t, ticket.Unmarshal(padded))
	assert.EqualValues(t, keys[0], ticket.Owner)
	assert.EqualValues(t, keys[1], ticket.Lottery)
	assert.Equal(t, TicketStateWon, ticket.State)
	assert.EqualValues(t, 2, ticket.WonNftNumber)
	assert.True(t, ticket.CanClaimNft())
	assert.False(t, ticket.CanClaimToken())

	assert.Equal(t, keys[0], ed25519.PublicKey(padded[TicketOwnerOffset:TicketOwnerOffset+32]))
	assert.Equal(t, keys[1], ed25519.PublicKey(padded[TicketLotteryOffset:TicketLotteryOffset+32]))
}

func TestLotteryState_Precedes(t *testing.T) {
	assert.True(t, LotteryStateCreated.Precedes(LotteryStateCreated))
	assert.True(t, LotteryStateCreated.Precedes(LotteryStateStarted))
	assert.True(t, LotteryStateCreated.Precedes(LotteryStateEnded))
	assert.True(t, LotteryStateStarted.Precedes(LotteryStateEnded))
	assert.False(t, LotteryStateEnded.Precedes(LotteryStateStarted))
	assert.False(t, LotteryStateStarted.Precedes(LotteryStateCreated))
	assert.False(t, LotteryState(7).Precedes(LotteryStateEnded))
}

func TestTicketState_Precedes(t *testing.T) {
	assert.True(t, TicketStateBought.Precedes(TicketStateWon))
	assert.True(t, TicketStateBought.Precedes(TicketStateNotWon))
	assert.True(t, TicketStateWon.Precedes(TicketStateClaimed))
	assert.True(t, TicketStateNotWon.Precedes(TicketStateClaimed))
	assert.True(t, TicketStateWon.Precedes(TicketStateWon))
	assert.False(t, TicketStateWon.Precedes(TicketStateNotWon))
	assert.False(t, TicketStateClaimed.Precedes(TicketStateWon))
	assert.False(t, TicketStateClaimed.Precedes(TicketState(4)))
}

func TestErrorCodeFromTransactionError(t *testing.T) {
	keys := generateKeys(t, 5)
	program := keys[0]

	txn := solana.NewTransaction(
		keys[1],
		system.Transfer(keys[1], keys[2], 10),
		NewClaimTokenInstruction(program, &ClaimTokenInstructionAccounts{
			Lottery:   keys[2],
			Claimer:   keys[1],
			Ticket:    keys[3],
			TokenPool: keys[4],
			UserToken: keys[2],
		}),
	)

	txErr := solana.NewInstructionError(1, solana.CustomError(ErrorAlreadyClaimed))

	code, ok := ErrorCodeFromTransactionError(program, txn, txErr)
	require.True(t, ok)
	assert.Equal(t, ErrorAlreadyClaimed, code)
	assert.Equal(t, "already claimed", code.Error())

	// Custom errors from other programs are not attributed to the lottery.
	txErr = solana.NewInstructionError(0, solana.CustomError(1))
	_, ok = ErrorCodeFromTransactionError(program, txn, txErr)
	assert.False(t, ok)

	_, ok = ErrorCodeFromTransactionError(program, txn, solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound))
	assert.False(t, ok)
	_, ok = ErrorCodeFromTransactionError(program, txn, nil)
	assert.False(t, ok)

	assert.Equal(t, "unknown lottery error 99", ErrorCode(99).Error())
}

func TestAccounts_Marshal(t *testing.T) {
	keys := generateKeys(t, 5)

	lottery := &LotteryAccount{
		Authority:    keys[0],
		TokenMint:    keys[1],
		TokenPool:    keys[2],
		Store:        keys[3],
		EndAt:        1_700_000_000,
		State:        LotteryStateStarted,
		NftAmount:    3,
		TicketPrice:  1_000_000_000,
		TicketAmount: 5,
		SoldAmount:   1,
	}
	data, err := lottery.Marshal()
	require.NoError(t, err)
	require.Len(t, data, LotteryAccountSize)
	assert.EqualValues(t, keys[3], data[LotteryStoreOffset:LotteryStoreOffset+32])

	var decodedLottery LotteryAccount
	require.NoError(t, decodedLottery.Unmarshal(data))
	assert.Equal(t, lottery, &decodedLottery)

	ticket := &TicketAccount{
		Owner:        keys[4],
		Lottery:      keys[0],
		State:        TicketStateWon,
		WonNftNumber: 2,
	}
	data, err = ticket.Marshal()
	require.NoError(t, err)
	require.Len(t, data, TicketAccountSize)

	var decodedTicket TicketAccount
	require.NoError(t, decodedTicket.Unmarshal(data))
	assert.Equal(t, ticket, &decodedTicket)
}
