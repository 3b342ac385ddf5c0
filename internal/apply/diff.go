package apply

import (
	"sort"

	"github.com/pve-project/pve-network-go/internal/ifaces"
	"github.com/pve-project/pve-network-go/internal/model"
)

// ComputeDiff compares oldCfg to newCfg by interface name: a name only
// in oldCfg is a Delete; a name in both with different canonical
// serialization is an Update; a name only in newCfg is a Create.
// Entries are returned ordered Delete, then Update, then Create, each
// group sorted by name for determinism (§4.5).
func ComputeDiff(oldCfg, newCfg *model.NetworkConfiguration) ([]model.NetworkChange, error) {
	oldByName := map[string]*model.Interface{}
	for _, ifc := range oldCfg.Interfaces {
		oldByName[ifc.Name] = ifc
	}
	newByName := map[string]*model.Interface{}
	for _, ifc := range newCfg.Interfaces {
		newByName[ifc.Name] = ifc
	}

	var deletes, updates, creates []model.NetworkChange

	for name, oldIfc := range oldByName {
		if _, ok := newByName[name]; !ok {
			deletes = append(deletes, model.NetworkChange{
				ChangeType:  model.ChangeDelete,
				Target:      name,
				Old:         oldIfc,
				Description: "remove interface " + name,
			})
		}
	}

	for name, newIfc := range newByName {
		oldIfc, existed := oldByName[name]
		if !existed {
			creates = append(creates, model.NetworkChange{
				ChangeType:  model.ChangeCreate,
				Target:      name,
				New:         newIfc,
				Description: "create interface " + name,
			})
			continue
		}

		same, err := canonicallyEqual(oldIfc, newIfc)
		if err != nil {
			return nil, err
		}
		if !same {
			updates = append(updates, model.NetworkChange{
				ChangeType:  model.ChangeUpdate,
				Target:      name,
				Old:         oldIfc,
				New:         newIfc,
				Description: "update interface " + name,
			})
		}
	}

	sortByTarget(deletes)
	sortByTarget(updates)
	sortByTarget(creates)

	out := make([]model.NetworkChange, 0, len(deletes)+len(updates)+len(creates))
	out = append(out, deletes...)
	out = append(out, updates...)
	out = append(out, creates...)
	return out, nil
}

func sortByTarget(changes []model.NetworkChange) {
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Target < changes[j].Target
	})
}

// canonicallyEqual compares two interfaces by the same serialization
// the codec would emit for each as a single-interface stanza, so value
// differences (not just name differences) decide Update vs no-op.
func canonicallyEqual(a, b *model.Interface) (bool, error) {
	aCfg := &model.NetworkConfiguration{Interfaces: []*model.Interface{a}}
	bCfg := &model.NetworkConfiguration{Interfaces: []*model.Interface{b}}

	aOut, err := ifaces.Generate(aCfg, false)
	if err != nil {
		return false, err
	}
	bOut, err := ifaces.Generate(bCfg, false)
	if err != nil {
		return false, err
	}
	return aOut == bOut, nil
}
