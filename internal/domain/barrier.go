package domain

type BarrierState string

const (
	StateOpenedCommand BarrierState = "opened_command"
	StateClosedCommand BarrierState = "closed_command"
	StateOpenedAuto    BarrierState = "opened_auto"
	StateClosedAuto    BarrierState = "closed_auto"
	StateError         BarrierState = "error"
)

const (
	BarrierCommandOpen  = "open"
	BarrierCommandClose = "close"
)
