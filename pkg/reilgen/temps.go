// Temporary register allocation. Lifter temporaries and synthesized
// scratch values share one flat namespace partitioned by slot number:
// lifter names are bound to slots on first sight, and fresh allocation
// skips any slot already bound so the two never collide. State lives
// for one machine instruction.

package reilgen

import (
	"fmt"

	"github.com/openreil/reilgen/pkg/bil"
)

// tempAlloc assigns V_<slot> names within one machine instruction.
type tempAlloc struct {
	count  int32            // next candidate slot
	byName map[string]int32 // lifter temporary name -> slot
	bound  map[int32]string // slot -> lifter temporary name
}

func newTempAlloc() *tempAlloc {
	a := &tempAlloc{}
	a.reset()
	return a
}

func (a *tempAlloc) reset() {
	a.count = 0
	a.byName = make(map[string]int32)
	a.bound = make(map[int32]string)
}

// alloc returns the smallest unbound slot at or past the counter and
// advances the counter beyond it.
func (a *tempAlloc) alloc() int32 {
	for {
		n := a.count
		a.count++
		if _, taken := a.bound[n]; !taken {
			return n
		}
	}
}

// slotName renders a slot as a scratch register name.
func slotName(n int32) string {
	return fmt.Sprintf("V_%.2d", n)
}

// bind returns the slot bound to a lifter temporary name, binding a
// fresh slot on first sight. The second result reports whether the
// binding already existed.
func (a *tempAlloc) bind(name string) (int32, bool) {
	if n, ok := a.byName[name]; ok {
		return n, true
	}
	n := a.alloc()
	a.byName[name] = n
	a.bound[n] = name
	return n, false
}

// tempName maps a lifter temporary name into the translator's scratch
// namespace, tracing the allocation when temp tracing is on.
func (t *Translator) tempName(name string) string {
	n, existed := t.temps.bind(name)
	if t.tempTrace != nil {
		if existed {
			fmt.Fprintf(t.tempTrace, "Temp reg %d found for %s\n", n, name)
		} else {
			fmt.Fprintf(t.tempTrace, "Temp reg %d reserved for %s\n", n, name)
		}
	}
	return slotName(n)
}

// scratchTemp allocates a fresh scratch value of the given width. The
// ad-hoc key is fed through the shared namespace so the returned name
// is an ordinary V_<slot>.
func (t *Translator) scratchTemp(typ bil.Width) bil.Temp {
	key := fmt.Sprintf("V_REIL_TMP_%d", t.instCount)
	return bil.Temp{Typ: typ, Name: t.tempName(key)}
}
