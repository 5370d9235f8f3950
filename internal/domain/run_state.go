package domain

type RunState string

const (
	RunStateIdle      RunState = "idle"
	RunStateTriggered RunState = "triggered"
	RunStateFetching  RunState = "fetching"
	RunStateWriting   RunState = "writing"
)
