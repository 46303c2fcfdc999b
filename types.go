package tdledger

import "fmt"

// TxnType is the broker transaction "type" field.
type TxnType string

// Transaction types found in broker payloads.
const (
	TxnTrade              TxnType = "TRADE"
	TxnReceiveAndDeliver  TxnType = "RECEIVE_AND_DELIVER"
	TxnDividendOrInterest TxnType = "DIVIDEND_OR_INTEREST"
	TxnElectronicFund     TxnType = "ELECTRONIC_FUND"
	TxnWireIn             TxnType = "WIRE_IN"
	TxnWireOut            TxnType = "WIRE_OUT"
	TxnJournal            TxnType = "JOURNAL"
	TxnMarginCall         TxnType = "MARGIN_CALL"
	TxnCashReceipt        TxnType = "CASH_RECEIPT"
	TxnCashDisbursement   TxnType = "CASH_DISBURSEMENT"
	TxnACHReceipt         TxnType = "ACH_RECEIPT"
	TxnACHDisbursement    TxnType = "ACH_DISBURSEMENT"
	TxnMemorandum         TxnType = "MEMORANDUM"
	TxnMoneyMarket        TxnType = "MONEY_MARKET"
	TxnSMAAdjustment      TxnType = "SMA_ADJUSTMENT"
)

// typeCodes are the short codes used in narrations.
var typeCodes = map[TxnType]string{
	TxnReceiveAndDeliver:  "RAD",
	TxnTrade:              "TRD",
	TxnWireIn:             "WIN",
	TxnDividendOrInterest: "DOI",
	TxnElectronicFund:     "EFN",
	TxnJournal:            "JRN",
}

// Code returns the three letters code of the type, or the type itself.
func (t TxnType) Code() string {
	if c, ok := typeCodes[t]; ok {
		return c
	}
	return string(t)
}

// Description is the broker transaction "description" field, the sub-type
// label of a transaction.
type Description string

// Descriptions with a dedicated handler.
const (
	DescCashAlternativesRedemption Description = "CASH ALTERNATIVES REDEMPTION"
	DescCashAlternativesPurchase   Description = "CASH ALTERNATIVES PURCHASE"
	DescCashAlternativesInterest   Description = "CASH ALTERNATIVES INTEREST"

	DescThirdParty   Description = "THIRD PARTY"
	DescWireIncoming Description = "WIRE INCOMING"

	DescInterestAdjustment    Description = "FREE BALANCE INTEREST ADJUSTMENT"
	DescOrdinaryDividend      Description = "ORDINARY DIVIDEND"
	DescNonTaxableDividends   Description = "NON-TAXABLE DIVIDENDS"
	DescLongTermGain          Description = "LONG TERM GAIN DISTRIBUTION"
	DescShortTermCapitalGains Description = "SHORT TERM CAPITAL GAINS"

	DescFundingReceipt      Description = "CLIENT REQUESTED ELECTRONIC FUNDING RECEIPT (FUNDS NOW)"
	DescFundingDisbursement Description = "CLIENT REQUESTED ELECTRONIC FUNDING DISBURSEMENT (FUNDS NOW)"

	DescBuyTrade           Description = "BUY TRADE"
	DescSellTrade          Description = "SELL TRADE"
	DescShortSale          Description = "SHORT SALE"
	DescCloseShortPosition Description = "CLOSE SHORT POSITION"
	DescTradeCorrection    Description = "TRADE CORRECTION"
	DescOptionAssignment   Description = "OPTION ASSIGNMENT"
	DescOptionExercise     Description = "OPTION EXERCISE"

	DescStockSplit             Description = "STOCK SPLIT"
	DescRemovalDueToAssignment Description = "REMOVAL OF OPTION DUE TO ASSIGNMENT"
	DescRemovalDueToExercise   Description = "REMOVAL OF OPTION DUE TO EXERCISE"
	DescRemovalDueToExpiration Description = "REMOVAL OF OPTION DUE TO EXPIRATION"
	DescInternalTransfer       Description = "INTERNAL TRANSFER BETWEEN ACCOUNTS OR ACCOUNT TYPES"
	DescNameChange             Description = "MANDATORY - NAME CHANGE"
	DescMarkToTheMarket        Description = "MARK TO THE MARKET"
	DescIntraAccountTransfer   Description = "INTRA-ACCOUNT TRANSFER"
	DescMiscellaneousJournal   Description = "MISCELLANEOUS JOURNAL ENTRY"
	DescHardToBorrowFee        Description = "HARD TO BORROW FEE"
)

// Key is the dispatch key of a raw transaction.
type Key struct {
	Type        TxnType
	Description Description
}

func (k Key) String() string { return fmt.Sprintf("(%s, %s)", k.Type, k.Description) }
