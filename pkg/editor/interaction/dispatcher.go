package interaction

import (
	"context"

	"github.com/pkg/errors"
)

type handler struct {
	id uint32
	fn func(Event)
}

// Dispatcher delivers events to the listeners subscribed to their type. It is
// not safe for concurrent use: Run is the single goroutine events are handled
// on.
type Dispatcher struct {
	handlers map[EventType][]handler
	nextID   uint32
}

// NewDispatcher returns a dispatcher with no listener.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[EventType][]handler)}
}

// Handle unregisters a listener.
type Handle struct {
	id    uint32
	typ   EventType
	owner *Dispatcher
}

// Remove unregisters the listener. Removing it again does nothing.
func (h Handle) Remove() {
	if h.owner == nil {
		return
	}
	list := h.owner.handlers[h.typ]
	for i := range list {
		if list[i].id == h.id {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = handler{}
			h.owner.handlers[h.typ] = list[:len(list)-1]

			return
		}
	}
}

// Subscribe registers fn for events of type typ.
func (d *Dispatcher) Subscribe(typ EventType, fn func(Event)) Handle {
	d.nextID++
	d.handlers[typ] = append(d.handlers[typ], handler{id: d.nextID, fn: fn})

	return Handle{id: d.nextID, typ: typ, owner: d}
}

// Listeners counts the listeners registered for typ.
func (d *Dispatcher) Listeners(typ EventType) int {
	return len(d.handlers[typ])
}

// Dispatch calls every listener of ev.Type in subscription order.
func (d *Dispatcher) Dispatch(ev Event) {
	list := append([]handler(nil), d.handlers[ev.Type]...)
	for _, h := range list {
		h.fn(ev)
	}
}

// Run dispatches events from in until it is closed or ctx is done.
func (d *Dispatcher) Run(ctx context.Context, in <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "dispatcher stopped")
		case ev, ok := <-in:
			if !ok {
				return nil
			}
			d.Dispatch(ev)
		}
	}
}
