package trade

// Channel identifies the sales channel an order originated from.
// The two-letter token is embedded in generated order numbers.
type Channel string

const (
	ChannelManual      Channel = "MN" // manually keyed orders
	ChannelSpreadsheet Channel = "SS" // spreadsheet ingestion
	ChannelAPI         Channel = "AP" // partner API
	ChannelWeb         Channel = "WB" // web storefront
)

// IsValid checks if the channel is a known Channel token
func (c Channel) IsValid() bool {
	switch c {
	case ChannelManual, ChannelSpreadsheet, ChannelAPI, ChannelWeb:
		return true
	}
	return false
}

// String returns the string representation of Channel
func (c Channel) String() string {
	return string(c)
}
