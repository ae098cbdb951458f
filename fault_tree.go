package main

import (
	"fmt"

	"github.com/google/uuid"
)

type GateType string

const (
	GateAND GateType = "AND"
	GateOR  GateType = "OR"
)

const topEventID = "top"

type TopEventNode struct {
	ID   string  `json:"id"`
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type FaultGate struct {
	ID       string   `json:"id" validate:"required"`
	Type     GateType `json:"type" validate:"oneof=AND OR"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	ParentID string   `json:"parent_id" validate:"required"`
}

type IntermediateEvent struct {
	ID     string  `json:"id" validate:"required"`
	Text   string  `json:"text" validate:"required"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	GateID string  `json:"gate_id" validate:"required"`
}

type BasicEvent struct {
	ID           string  `json:"id" validate:"required"`
	Text         string  `json:"text" validate:"required"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	ParentGateID string  `json:"parent_gate_id" validate:"required"`
}

// FaultTreeStructure is persisted verbatim, coordinates included.
type FaultTreeStructure struct {
	TopEvent           TopEventNode        `json:"top_event"`
	Gates              []FaultGate         `json:"gates" validate:"dive"`
	IntermediateEvents []IntermediateEvent `json:"intermediate_events" validate:"dive"`
	BasicEvents        []BasicEvent        `json:"basic_events" validate:"dive"`
}

func NewFaultTreeStructure() FaultTreeStructure {
	return FaultTreeStructure{
		TopEvent:           TopEventNode{ID: topEventID, X: 400, Y: 50},
		Gates:              []FaultGate{},
		IntermediateEvents: []IntermediateEvent{},
		BasicEvents:        []BasicEvent{},
	}
}

// AddIntermediateEvent places a new gate under parentID and an intermediate
// event directly below that gate.
func (s *FaultTreeStructure) AddIntermediateEvent(text string, gate GateType, parentID string) (IntermediateEvent, error) {
	if gate != GateAND && gate != GateOR {
		return IntermediateEvent{}, fmt.Errorf("unknown gate type %q", gate)
	}
	if !s.hasNode(parentID) {
		return IntermediateEvent{}, fmt.Errorf("unknown parent %q", parentID)
	}

	i := len(s.IntermediateEvents)
	x := float64(200 + (i%3)*200)
	y := float64(150 + i*120)
	id := "intermediate-" + uuid.NewString()
	gateID := "gate-" + id

	s.Gates = append(s.Gates, FaultGate{ID: gateID, Type: gate, X: x, Y: y - 40, ParentID: parentID})
	ev := IntermediateEvent{ID: id, Text: text, X: x, Y: y, GateID: gateID}
	s.IntermediateEvents = append(s.IntermediateEvents, ev)
	return ev, nil
}

func (s *FaultTreeStructure) AddBasicEvent(text string, parentID string) (BasicEvent, error) {
	if !s.hasNode(parentID) {
		return BasicEvent{}, fmt.Errorf("unknown parent %q", parentID)
	}

	i := len(s.BasicEvents)
	ev := BasicEvent{
		ID:           "basic-" + uuid.NewString(),
		Text:         text,
		X:            float64(150 + (i%4)*150),
		Y:            float64(350 + i*100),
		ParentGateID: parentID,
	}
	s.BasicEvents = append(s.BasicEvents, ev)
	return ev, nil
}

// CheckReferences reports the first parent or gate reference that does not
// resolve to a node of the tree.
func (s *FaultTreeStructure) CheckReferences() error {
	for _, g := range s.Gates {
		if !s.hasNode(g.ParentID) {
			return fmt.Errorf("gate %s references unknown parent %q", g.ID, g.ParentID)
		}
	}
	for _, ev := range s.IntermediateEvents {
		if !s.hasGate(ev.GateID) {
			return fmt.Errorf("intermediate event %s references unknown gate %q", ev.ID, ev.GateID)
		}
	}
	for _, ev := range s.BasicEvents {
		if !s.hasNode(ev.ParentGateID) {
			return fmt.Errorf("basic event %s references unknown parent %q", ev.ID, ev.ParentGateID)
		}
	}
	return nil
}

func (s *FaultTreeStructure) hasGate(id string) bool {
	for _, g := range s.Gates {
		if g.ID == id {
			return true
		}
	}
	return false
}

// hasNode accepts the top event, a gate or an intermediate event.
func (s *FaultTreeStructure) hasNode(id string) bool {
	if id == topEventID || s.hasGate(id) {
		return true
	}
	for _, ev := range s.IntermediateEvents {
		if ev.ID == id {
			return true
		}
	}
	return false
}
