package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaultTreeStructure(t *testing.T) {
	t.Run("a new tree should only hold the top event", func(t *testing.T) {
		s := NewFaultTreeStructure()
		assert.Equal(t, TopEventNode{ID: topEventID, X: 400, Y: 50}, s.TopEvent)
		assert.Empty(t, s.Gates)
		assert.Empty(t, s.IntermediateEvents)
		assert.Empty(t, s.BasicEvents)
		assert.NoError(t, s.CheckReferences())
	})

	t.Run("should place intermediate events under a new gate", func(t *testing.T) {
		s := NewFaultTreeStructure()
		first, err := s.AddIntermediateEvent("Pump failure", GateOR, topEventID)
		require.NoError(t, err)
		second, err := s.AddIntermediateEvent("Valve stuck", GateAND, first.ID)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(first.ID, "intermediate-"))
		assert.Equal(t, "gate-"+first.ID, first.GateID)
		assert.Equal(t, 200.0, first.X)
		assert.Equal(t, 150.0, first.Y)
		assert.Equal(t, 400.0, second.X)
		assert.Equal(t, 270.0, second.Y)

		require.Len(t, s.Gates, 2)
		assert.Equal(t, FaultGate{ID: first.GateID, Type: GateOR, X: 200, Y: 110, ParentID: topEventID}, s.Gates[0])
		assert.Equal(t, first.ID, s.Gates[1].ParentID)
		assert.NoError(t, s.CheckReferences())
	})

	t.Run("should lay basic events out in rows of four", func(t *testing.T) {
		s := NewFaultTreeStructure()
		var last BasicEvent
		for i := 0; i < 5; i++ {
			ev, err := s.AddBasicEvent("cause", topEventID)
			require.NoError(t, err)
			last = ev
		}
		assert.Equal(t, 150.0, last.X)
		assert.Equal(t, 750.0, last.Y)
		assert.Equal(t, 600.0, s.BasicEvents[3].X)
	})

	t.Run("should reject unknown parents and gate types", func(t *testing.T) {
		s := NewFaultTreeStructure()
		_, err := s.AddIntermediateEvent("x", GateAND, "missing")
		assert.Error(t, err)
		_, err = s.AddIntermediateEvent("x", GateType("XOR"), topEventID)
		assert.Error(t, err)
		_, err = s.AddBasicEvent("x", "missing")
		assert.Error(t, err)
		assert.Empty(t, s.Gates)
	})

	t.Run("should report dangling references", func(t *testing.T) {
		s := NewFaultTreeStructure()
		s.BasicEvents = append(s.BasicEvents, BasicEvent{ID: "b1", Text: "x", ParentGateID: "gate-nope"})
		assert.ErrorContains(t, s.CheckReferences(), "gate-nope")

		s = NewFaultTreeStructure()
		s.IntermediateEvents = append(s.IntermediateEvents, IntermediateEvent{ID: "i1", Text: "x", GateID: "gate-i1"})
		assert.ErrorContains(t, s.CheckReferences(), "gate-i1")
	})
}
