package eventcsv

import "strings"

// Header lists the canonical event columns in fixed order.
var Header = []string{
	"ChannelNo",
	"ApplSeqNum",
	"Event",
	"Symbol",
	"OrderID",
	"BidOrderID",
	"OfferOrderID",
	"Side",
	"Price",
	"Qty",
	"Amt",
	"OrdType",
	"ExecType",
	"TransactTime",
	"SendingTime",
	"Source",
}

// HeaderLine is the header row as written to disk.
var HeaderLine = strings.Join(Header, ",")
