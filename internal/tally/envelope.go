// Package tally builds Tally "Import Data" voucher envelopes from parsed
// statement transactions.
package tally

import "encoding/xml"

// Envelope is the root of a Tally import document.
// Field order matches the element order Tally expects.
type Envelope struct {
	XMLName xml.Name `xml:"ENVELOPE"`
	Header  Header   `xml:"HEADER"`
	Body    Body     `xml:"BODY"`
}

type Header struct {
	TallyRequest string `xml:"TALLYREQUEST"`
}

type Body struct {
	ImportData ImportData `xml:"IMPORTDATA"`
}

type ImportData struct {
	RequestDesc RequestDesc `xml:"REQUESTDESC"`
	RequestData RequestData `xml:"REQUESTDATA"`
}

type RequestDesc struct {
	ReportName      string          `xml:"REPORTNAME"`
	StaticVariables StaticVariables `xml:"STATICVARIABLES"`
}

type StaticVariables struct {
	CurrentCompany string `xml:"SVCURRENTCOMPANY"`
}

type RequestData struct {
	Messages []TallyMessage `xml:"TALLYMESSAGE"`
}

type TallyMessage struct {
	Voucher Voucher `xml:"VOUCHER"`
}

// Voucher is one double-entry posting.
type Voucher struct {
	VchType         string        `xml:"VCHTYPE,attr"`
	Action          string        `xml:"ACTION,attr"`
	ObjView         string        `xml:"OBJVIEW,attr"`
	Date            string        `xml:"DATE"` // YYYYMMDD
	VoucherTypeName string        `xml:"VOUCHERTYPENAME"`
	VoucherNumber   int           `xml:"VOUCHERNUMBER"`
	Narration       string        `xml:"NARRATION"`
	LedgerEntries   []LedgerEntry `xml:"ALLLEDGERENTRIES.LIST"`
}

// LedgerEntry is one side of a voucher.
type LedgerEntry struct {
	LedgerName       string `xml:"LEDGERNAME"`
	IsDeemedPositive string `xml:"ISDEEMEDPOSITIVE"`
	Amount           string `xml:"AMOUNT"`
}
