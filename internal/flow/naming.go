package flow

import (
	"fmt"
	"sort"

	"github.com/ludo-technologies/bcflow/internal/expr"
)

// naming hands out labels and synthesized variable names for one method.
type naming struct {
	counters   map[string]int
	exceptions int
}

func newNaming() *naming {
	return &naming{counters: make(map[string]int)}
}

func (n *naming) label(prefix string) string {
	n.counters[prefix]++
	return fmt.Sprintf("%s_%d", prefix, n.counters[prefix])
}

func (n *naming) exceptionName() string {
	n.exceptions++
	return fmt.Sprintf("exception_%d_", n.exceptions)
}

// nameLocals gives every unnamed variable a name derived from its slot. The
// first variable of a slot uses the declared slot name when there is one;
// later variables sharing the slot get a numeric suffix.
func (n *naming) nameLocals(locals *expr.Locals, slotNames map[int]string) {
	bySlot := make(map[int][]*expr.Local)
	for _, l := range locals.Representatives() {
		if l.Slot >= 0 {
			bySlot[l.Slot] = append(bySlot[l.Slot], l)
		}
	}
	slots := make([]int, 0, len(bySlot))
	for s := range bySlot {
		slots = append(slots, s)
	}
	sort.Ints(slots)
	for _, s := range slots {
		base := slotNames[s]
		if base == "" {
			base = fmt.Sprintf("local_%d", s)
		}
		k := 0
		for _, l := range bySlot[s] {
			if l.Name != "" {
				continue
			}
			if k == 0 {
				l.Name = base
			} else {
				l.Name = fmt.Sprintf("%s_%d", base, k)
			}
			k++
		}
	}
}
