package lottery

import (
	"github.com/lotterynft/lottery-client/pkg/solana/binary"
)

const (
	KindCreateLotteryArgs = "CreateLotteryArgs"
	KindLotteryData       = "LotteryData"
	KindTicket            = "Ticket"
)

// Schemas holds every record layout of the lottery program.
var Schemas = binary.MustNewRegistry(
	binary.NewSchema(KindCreateLotteryArgs,
		binary.U8("instruction"),
		binary.U64("endLotteryAt"),
		binary.U64("ticketPrice"),
		binary.U32("ticketAmount"),
		binary.U32("nftAmount"),
	),
	binary.NewSchema(KindLotteryData,
		binary.Address("authority"),
		binary.Address("tokenMint"),
		binary.Address("tokenPool"),
		binary.Address("lotteryStoreId"),
		binary.U64("endedAt"),
		binary.U64("endLotteryAt"),
		binary.EnumOf("state", "Created", "Started", "Ended"),
		binary.U64("nftAmount"),
		binary.U64("ticketPrice"),
		binary.U64("ticketAmount"),
		binary.U64("soldAmount"),
	),
	binary.NewSchema(KindTicket,
		binary.Address("owner"),
		binary.Address("lotteryId"),
		binary.EnumOf("state", "Bought", "Won", "NotWon", "Claimed"),
		binary.U64("wonNftNumber"),
	),
)
