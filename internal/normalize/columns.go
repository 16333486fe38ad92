package normalize

import (
	"fmt"
	"strings"

	"github.com/rickgao/szse-eventlog/internal/model"
)

// Raw feed column names. Shared columns appear in both families.
const (
	colChannel      = "ChannelNo"
	colSeq          = "ApplSeqNum"
	colSide         = "Side"
	colPrice        = "Price"
	colOrderQty     = "OrderQty"
	colOrdType      = "OrdType"
	colBidSeq       = "BidApplSeqNum"
	colOfferSeq     = "OfferApplSeqNum"
	colQty          = "Qty"
	colAmt          = "Amt"
	colExecType     = "ExecType"
	colTransactTime = "TransactTime"
	colSendingTime  = "SendingTime"
)

// columns holds resolved header indexes for one source. Indexes not used by
// the source's family stay -1.
type columns struct {
	channel      int
	seq          int
	side         int
	price        int
	qty          int
	amt          int
	ordType      int
	bidSeq       int
	offerSeq     int
	execType     int
	transactTime int
	sendingTime  int
}

func requiredColumns(family model.SourceFamily) []string {
	switch family {
	case model.FamilyOrder:
		return []string{
			colChannel, colSeq, colSide, colPrice, colOrderQty,
			colOrdType, colTransactTime, colSendingTime,
		}
	default:
		return []string{
			colChannel, colSeq, colBidSeq, colOfferSeq, colPrice,
			colQty, colAmt, colExecType, colTransactTime, colSendingTime,
		}
	}
}

// resolveColumns locates each required column of the family in the header
// row. Extra columns are ignored.
func resolveColumns(source string, family model.SourceFamily, header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	lookup := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return -1, fmt.Errorf("source %s: missing csv column %q", source, name)
		}
		return i, nil
	}

	cols := columns{
		channel: -1, seq: -1, side: -1, price: -1, qty: -1, amt: -1,
		ordType: -1, bidSeq: -1, offerSeq: -1, execType: -1,
		transactTime: -1, sendingTime: -1,
	}

	for _, name := range requiredColumns(family) {
		i, err := lookup(name)
		if err != nil {
			return columns{}, err
		}
		switch name {
		case colChannel:
			cols.channel = i
		case colSeq:
			cols.seq = i
		case colSide:
			cols.side = i
		case colPrice:
			cols.price = i
		case colOrderQty, colQty:
			cols.qty = i
		case colAmt:
			cols.amt = i
		case colOrdType:
			cols.ordType = i
		case colBidSeq:
			cols.bidSeq = i
		case colOfferSeq:
			cols.offerSeq = i
		case colExecType:
			cols.execType = i
		case colTransactTime:
			cols.transactTime = i
		case colSendingTime:
			cols.sendingTime = i
		}
	}

	return cols, nil
}
