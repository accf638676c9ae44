package context

type Key string

const (
	Claims Key = "claims"
	Device Key = "device"
	Params Key = "params"
)
