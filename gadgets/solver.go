package gadgets

import (
	"fmt"
	"sort"
	"strings"

	"gitlab.com/stephen-fox/ropkit/rop"
)

// SetRegisters finds "pop" gadgets that set each register to its value.
//
// Gadgets are chosen greedily: the gadget that sets the most remaining
// registers wins, then the one with the fewest unwanted pops, then
// the lowest address. A gadget is never used if it would pop a register
// that was already set, or if it pops the stack pointer. Unwanted pops
// are returned as padding steps (i.e., steps with a nil Value).
func (o *Finder) SetRegisters(regs rop.Registers) ([]rop.Step, error) {
	remaining := make(map[string]struct{}, len(regs))
	for name := range regs {
		remaining[name] = struct{}{}
	}

	set := make(map[string]struct{}, len(regs))

	var steps []rop.Step

	for len(remaining) > 0 {
		best, found := o.bestPopGadget(remaining, set)
		if !found {
			return nil, fmt.Errorf("no pop gadget sets %s - %w",
				strings.Join(sortedNames(remaining), ", "), rop.ErrGadgetNotFound)
		}

		g := best
		steps = append(steps, rop.Step{Gadget: &g})

		for _, reg := range best.Regs {
			_, wanted := remaining[reg]
			if wanted {
				steps = append(steps, rop.Step{Value: regs[reg], Reg: reg})
				delete(remaining, reg)
				set[reg] = struct{}{}
			} else {
				steps = append(steps, rop.Step{Reg: reg})
			}
		}
	}

	return steps, nil
}

func (o *Finder) bestPopGadget(remaining map[string]struct{}, set map[string]struct{}) (rop.Gadget, bool) {
	var best rop.Gadget
	bestCovered := 0
	bestExtra := 0

	for _, g := range o.pops {
		covered, extra, ok := o.score(g, remaining, set)
		if !ok || covered == 0 {
			continue
		}

		if covered > bestCovered || (covered == bestCovered && extra < bestExtra) {
			best = g
			bestCovered = covered
			bestExtra = extra
		}
	}

	return best, bestCovered > 0
}

func (o *Finder) score(g rop.Gadget, remaining map[string]struct{}, set map[string]struct{}) (int, int, bool) {
	seen := make(map[string]struct{}, len(g.Regs))
	covered := 0
	extra := 0

	for _, reg := range g.Regs {
		if reg == "rsp" || reg == "esp" {
			return 0, 0, false
		}

		if _, dup := seen[reg]; dup {
			return 0, 0, false
		}
		seen[reg] = struct{}{}

		if _, alreadySet := set[reg]; alreadySet {
			return 0, 0, false
		}

		if _, wanted := remaining[reg]; wanted {
			covered++
		} else {
			extra++
		}
	}

	return covered, extra, true
}

func sortedNames(m map[string]struct{}) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
