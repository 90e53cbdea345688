package drape

import (
	"github.com/akmonengine/drape/bvh"
)

const (
	CONTACT_ENTER EventType = iota
	CONTACT_STAY
	CONTACT_EXIT
	ON_PIN
	ON_UNPIN
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Contact events, between a cloth node and a body sphere
type ContactEnterEvent struct {
	Node   int
	Sphere int
}

func (e ContactEnterEvent) Type() EventType { return CONTACT_ENTER }

type ContactStayEvent struct {
	Node   int
	Sphere int
}

func (e ContactStayEvent) Type() EventType { return CONTACT_STAY }

type ContactExitEvent struct {
	Node   int
	Sphere int
}

func (e ContactExitEvent) Type() EventType { return CONTACT_EXIT }

// Pin/Unpin events
type PinEvent struct {
	Node int
}

func (e PinEvent) Type() EventType { return ON_PIN }

type UnpinEvent struct {
	Node int
}

func (e UnpinEvent) Type() EventType { return ON_UNPIN }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Contact tracking for Enter/Stay/Exit detection, over a whole tick
	previousContacts map[bvh.Contact]bool
	currentContacts  map[bvh.Contact]bool
}

func NewEvents() Events {
	return Events{
		listeners:        make(map[EventType][]EventListener),
		buffer:           make([]Event, 0, 256),
		previousContacts: make(map[bvh.Contact]bool),
		currentContacts:  make(map[bvh.Contact]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	if e.previousContacts == nil {
		e.previousContacts = make(map[bvh.Contact]bool)
		e.currentContacts = make(map[bvh.Contact]bool)
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

func (e *Events) hasContactListeners() bool {
	return len(e.listeners[CONTACT_ENTER]) > 0 || len(e.listeners[CONTACT_STAY]) > 0 || len(e.listeners[CONTACT_EXIT]) > 0
}

// recordContacts is called during substeps, a contact seen in any substep counts for the tick
func (e *Events) recordContacts(contacts []bvh.Contact) {
	if e.currentContacts == nil {
		return
	}
	for _, c := range contacts {
		e.currentContacts[c] = true
	}
}

func (e *Events) emitPin(node int) {
	e.buffer = append(e.buffer, PinEvent{Node: node})
}

func (e *Events) emitUnpin(node int) {
	e.buffer = append(e.buffer, UnpinEvent{Node: node})
}

// processContactEvents compares current and previous contacts to detect Enter/Stay/Exit
// Should be called after all substeps
func (e *Events) processContactEvents() {
	for contact := range e.currentContacts {
		if e.previousContacts[contact] {
			e.buffer = append(e.buffer, ContactStayEvent{Node: contact.Node, Sphere: contact.Sphere})
		} else {
			e.buffer = append(e.buffer, ContactEnterEvent{Node: contact.Node, Sphere: contact.Sphere})
		}
	}

	for contact := range e.previousContacts {
		if !e.currentContacts[contact] {
			e.buffer = append(e.buffer, ContactExitEvent{Node: contact.Node, Sphere: contact.Sphere})
		}
	}

	// Swap for next frame and clear current
	e.previousContacts, e.currentContacts = e.currentContacts, e.previousContacts
	clear(e.currentContacts)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	if e.listeners == nil {
		e.buffer = e.buffer[:0]
		return
	}
	e.processContactEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
