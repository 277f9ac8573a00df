package precompile

import (
	"fmt"

	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/namespace"
)

// wiring collects the resolved portlet names of every node before they are
// frozen into namespaces.
type wiring struct {
	ins  map[string]map[string]string
	outs map[string]map[string]string
	rcvs map[string]map[string]string
	snds map[string]map[string]string
}

func newWiring(ids []string) *wiring {
	w := &wiring{
		ins:  make(map[string]map[string]string, len(ids)),
		outs: make(map[string]map[string]string, len(ids)),
		rcvs: make(map[string]map[string]string, len(ids)),
		snds: make(map[string]map[string]string, len(ids)),
	}
	for _, id := range ids {
		w.ins[id] = make(map[string]string)
		w.outs[id] = make(map[string]string)
		w.rcvs[id] = make(map[string]string)
		w.snds[id] = make(map[string]string)
	}
	return w
}

// receiver returns the receiver allocated for the inlet c points at.
func (w *wiring) receiver(c model.Connection) (string, error) {
	name, ok := w.rcvs[c.NodeID][c.PortletID]
	if !ok || name == "" {
		return "", &namespace.NamespaceError{
			Label:  label(c.NodeID, "rcvs"),
			Key:    c.PortletID,
			Reason: "no receiver for connected inlet",
		}
	}
	return name, nil
}

// wire resolves the names of every portlet in declare order.
//
// Signal connections share one variable: the source's output variable is
// the sink's input. Message outlets alias the single consumer when they
// can and get a synthesized sender otherwise.
func wire(pc *Precompilation) (*wiring, error) {
	nullSignal, err := pc.Globals.Get(GlobalsCore, NullSignal)
	if err != nil {
		return nil, err
	}
	nullReceiver, err := pc.Globals.Get(GlobalsCore, NullMessageReceiver)
	if err != nil {
		return nil, err
	}

	w := newWiring(pc.DeclareOrder)
	s := pc.Settings

	// Receivers first so that senders can alias them regardless of order.
	for _, id := range pc.DeclareOrder {
		n, _ := pc.Graph.Node(id)
		for _, inlet := range n.Inlets {
			if inlet.Kind != model.Message {
				continue
			}
			exposed := s.ExposesInlet(id, inlet.ID)
			if len(n.Sources[inlet.ID]) == 0 && !exposed {
				continue
			}
			receiver := namespace.NodeVariable(id, namespace.KindRcvs, inlet.ID)
			w.rcvs[id][inlet.ID] = receiver
			if exposed {
				caller, err := pc.Globals.Get(GlobalsIO, InletCallerName(id, inlet.ID))
				if err != nil {
					return nil, err
				}
				pc.InletCallers = append(pc.InletCallers, InletCaller{
					Name:     caller,
					NodeID:   id,
					Inlet:    inlet.ID,
					Receiver: receiver,
				})
			}
		}
	}

	for _, id := range pc.DeclareOrder {
		n, _ := pc.Graph.Node(id)
		for _, outlet := range n.Outlets {
			sinks := n.Sinks[outlet.ID]
			switch outlet.Kind {
			case model.Signal:
				out := namespace.NodeVariable(id, namespace.KindOuts, outlet.ID)
				w.outs[id][outlet.ID] = out
				for _, c := range sinks {
					ins, ok := w.ins[c.NodeID]
					if !ok {
						return nil, &model.ValidationError{NodeID: id, Portlet: outlet.ID, Reason: fmt.Sprintf("connection to unknown node %q", c.NodeID)}
					}
					ins[c.PortletID] = out
				}

			case model.Message:
				listener := ""
				if s.ExposesOutlet(id, outlet.ID) {
					if listener, err = pc.Globals.Get(GlobalsIO, OutletListenerName(id, outlet.ID)); err != nil {
						return nil, err
					}
					pc.OutletListeners = append(pc.OutletListeners, OutletListener{
						Name:   listener,
						NodeID: id,
						Outlet: outlet.ID,
					})
				}

				switch {
				case len(sinks) == 1 && listener == "":
					rcv, err := w.receiver(sinks[0])
					if err != nil {
						return nil, err
					}
					w.snds[id][outlet.ID] = rcv
				case len(sinks) == 0 && listener != "":
					w.snds[id][outlet.ID] = listener
				case len(sinks) == 0:
					w.snds[id][outlet.ID] = nullReceiver
				default:
					sender := Sender{
						Name:   namespace.NodeVariable(id, namespace.KindSnds, outlet.ID),
						NodeID: id,
						Outlet: outlet.ID,
					}
					if listener != "" {
						sender.Calls = append(sender.Calls, listener)
					}
					for _, c := range sinks {
						rcv, err := w.receiver(c)
						if err != nil {
							return nil, err
						}
						sender.Calls = append(sender.Calls, rcv)
					}
					w.snds[id][outlet.ID] = sender.Name
					pc.Senders = append(pc.Senders, sender)
				}
			}
		}
	}

	for _, id := range pc.DeclareOrder {
		n, _ := pc.Graph.Node(id)
		for _, inlet := range n.Inlets {
			if inlet.Kind != model.Signal {
				continue
			}
			if _, bound := w.ins[id][inlet.ID]; !bound {
				w.ins[id][inlet.ID] = nullSignal
			}
		}
	}
	return w, nil
}
