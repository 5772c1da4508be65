package sim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlayenPL/Projekt-SO/internal/config"
	"github.com/AlayenPL/Projekt-SO/internal/parkmetrics"
	"github.com/AlayenPL/Projekt-SO/internal/parkrand"
)

func newTestPark(seed uint64) (*Park, *strings.Builder) {
	log, buf := newTestEmitter()
	cfg := config.Default()
	park := NewPark(cfg, log, parkmetrics.NewRecorder(), parkrand.New(seed))
	var sb strings.Builder
	sb.WriteString(buf.String())
	return park, &sb
}

func TestAssignGuardiansPicksAnAdultForEveryChild(t *testing.T) {
	park, _ := newTestPark(1)

	adult := &Visitor{ID: 1, Age: 30}
	child := &Visitor{ID: 2, Age: 8}
	toddler := &Visitor{ID: 3, Age: 3}
	members := []*Visitor{adult, child, toddler}

	park.assignGuardians(members, 1)

	require.NotNil(t, child.Guardian)
	assert.Same(t, adult, child.Guardian)
	assert.False(t, child.NoGuardian)

	require.NotNil(t, toddler.Guardian)
	assert.Same(t, adult, toddler.Guardian)
	assert.True(t, adult.GuardianOfUnder5, "guardian of a <=5 ward must be flagged")
}

func TestAssignGuardiansLeavesChildUnguardedWhenNoAdultPresent(t *testing.T) {
	park, _ := newTestPark(1)

	child1 := &Visitor{ID: 1, Age: 8}
	child2 := &Visitor{ID: 2, Age: 9}
	members := []*Visitor{child1, child2}

	park.assignGuardians(members, 1)

	assert.True(t, child1.NoGuardian)
	assert.Nil(t, child1.Guardian)
	assert.True(t, child2.NoGuardian)
	assert.Nil(t, child2.Guardian)
}

func TestAssignGuardiansSkipsAdultsEntirely(t *testing.T) {
	park, _ := newTestPark(1)

	a1 := &Visitor{ID: 1, Age: 30}
	a2 := &Visitor{ID: 2, Age: 40}
	members := []*Visitor{a1, a2}

	park.assignGuardians(members, 1)

	assert.Nil(t, a1.Guardian)
	assert.False(t, a1.NoGuardian)
	assert.Nil(t, a2.Guardian)
	assert.False(t, a2.NoGuardian)
}

func TestTowerEligibleExcludesYoungAndUnguardedChildren(t *testing.T) {
	toddler := &Visitor{ID: 1, Age: 4}
	unguarded := &Visitor{ID: 2, Age: 8, NoGuardian: true}
	guardianOfToddler := &Visitor{ID: 3, Age: 30, GuardianOfUnder5: true}
	wardOfBusyGuardian := &Visitor{ID: 4, Age: 8, Guardian: guardianOfToddler}
	freeAdult := &Visitor{ID: 5, Age: 35}
	wardOfFreeAdult := &Visitor{ID: 6, Age: 10, Guardian: freeAdult}

	members := []*Visitor{toddler, unguarded, guardianOfToddler, wardOfBusyGuardian, freeAdult, wardOfFreeAdult}

	k, excluded := towerEligible(members)

	assert.Equal(t, 2, k, "only freeAdult and wardOfFreeAdult should be eligible")
	assert.Len(t, excluded, 4)
}

func TestFerryEligibleOnlyExcludesUnguardedChildren(t *testing.T) {
	toddler := &Visitor{ID: 1, Age: 4}
	unguarded := &Visitor{ID: 2, Age: 8, NoGuardian: true}
	guarded := &Visitor{ID: 3, Age: 8, Guardian: &Visitor{ID: 9, Age: 30}}
	adult := &Visitor{ID: 4, Age: 30}

	members := []*Visitor{toddler, unguarded, guarded, adult}

	k := ferryEligible(members)
	assert.Equal(t, 3, k, "toddler, guarded child, and adult are all ferry-eligible")
}
