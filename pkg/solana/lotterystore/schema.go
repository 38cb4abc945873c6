package lotterystore

import (
	"github.com/lotterynft/lottery-client/pkg/solana/binary"
)

const (
	KindCreateStoreArgs = "CreateStoreArgs"
	KindMintNftArgs     = "MintNftArgs"
	KindStoreData       = "StoreData"
	KindNftMeta         = "NftMeta"
)

// Schemas holds every record layout of the store program.
var Schemas = binary.MustNewRegistry(
	binary.NewSchema(KindCreateStoreArgs,
		binary.U8("instruction"),
		binary.U8("bump"),
	),
	// Shared by MintNft and UpdateMint, which differ only by opcode.
	binary.NewSchema(KindMintNftArgs,
		binary.U8("instruction"),
		binary.String("name"),
		binary.String("symbol"),
		binary.String("uri"),
		binary.U8("bump"),
	),
	binary.NewSchema(KindStoreData,
		binary.Address("owner"),
		binary.Address("authority"),
		binary.U64("nftAmount"),
		binary.U8("bump"),
	),
	binary.NewSchema(KindNftMeta,
		binary.Address("storeId"),
		binary.U64("nftNumber"),
		binary.String("name"),
		binary.String("symbol"),
		binary.String("uri"),
		binary.Address("mint"),
		binary.Address("tokenPool"),
		binary.Address("authority"),
		binary.U8("existNft"),
		binary.U8("bump"),
	),
)
