package ipam

import (
	"net"
	"time"

	"github.com/pve-project/pve-network-go/internal/model"
)

// AllocateRequest describes one address request against a subnet.
type AllocateRequest struct {
	Subnet      string
	CIDR        string
	Gateway     string
	VMID        string
	Hostname    string
	MAC         string
	Description string
	// WantIP pins the request to a specific address instead of
	// picking the next free one; empty means "any free address".
	WantIP string
}

// ReleaseRequest identifies one previously allocated address to free.
type ReleaseRequest struct {
	Subnet string
	CIDR   string
	IP     string
}

// Allocator is the pluggable IPAM capability every backend (built-in
// file store, phpIPAM, NetBox) implements. Kind-specific configuration
// is supplied at construction time, not through this interface.
type Allocator interface {
	// Allocate reserves and returns one address from the subnet
	// named in req. It returns *model.ConflictError when the
	// subnet is exhausted or WantIP is already taken.
	Allocate(req AllocateRequest) (*model.IpAllocation, error)

	// Release frees a previously allocated address. Releasing an
	// address that was never allocated is a no-op, not an error —
	// mirrors idempotent teardown semantics elsewhere in the applier.
	Release(req ReleaseRequest) error

	// List returns every allocation currently recorded for a subnet.
	List(subnet string) ([]*model.IpAllocation, error)
}

// clock lets tests substitute a deterministic time source; production
// code uses realClock.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func parseSubnetReq(req AllocateRequest) (*net.IPNet, error) {
	_, network, err := net.ParseCIDR(req.CIDR)
	if err != nil {
		return nil, model.NewError(model.KindValidation, "invalid subnet cidr "+req.CIDR, err)
	}
	return network, nil
}
