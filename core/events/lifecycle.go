package events

const (
	// KindNarratorStarted identifies the end of startup.
	KindNarratorStarted Kind = "lifecycle.started"
	// KindNarratorStopping identifies the start of shutdown.
	KindNarratorStopping Kind = "lifecycle.stopping"
	// KindNarratorStopped identifies the end of shutdown.
	KindNarratorStopped Kind = "lifecycle.stopped"
)

type NarratorStarted struct{ Base }

func NewNarratorStarted() NarratorStarted {
	return NarratorStarted{Base: NewBase(KindNarratorStarted)}
}

type NarratorStopping struct{ Base }

func NewNarratorStopping() NarratorStopping {
	return NarratorStopping{Base: NewBase(KindNarratorStopping)}
}

type NarratorStopped struct {
	Base
	Err error
}

func NewNarratorStopped(err error) NarratorStopped {
	return NarratorStopped{Base: NewBase(KindNarratorStopped), Err: err}
}
