package narrator

import "sync"

// GateState controls what the speech channel accepts. CanSpeak admits
// normal utterances, CanStop lets a new utterance interrupt the current one.
type GateState struct {
	CanSpeak bool
	CanStop  bool
}

var (
	gatesOpen   = GateState{CanSpeak: true, CanStop: true}
	gatesClosed = GateState{}
)

// gates is read by the arbiter and the speech channel and written only by
// the lifecycle controller. Both flags always change together.
type gates struct {
	mu    sync.Mutex
	state GateState
}

func (g *gates) Snapshot() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *gates) set(state GateState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = state
}
