package consts

const (
	DefaultVariant = "BPSK"
	DefaultInput   = "0"
	InvalidInput   = "Invalid input"
	RateUnit       = "bits/s"

	// FSK adds deviation/DeviationScale to the symbol rate.
	DeviationScale = 1000.0

	TSPacketSize  = 188
	RSPacketSize  = 204
	RSParityBytes = RSPacketSize - TSPacketSize
	TSSyncByte    = 0x47
	NullPID       = 0x1FFF

	DefaultListenAddr = "127.0.0.1:8073"
)
