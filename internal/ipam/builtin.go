package ipam

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/pve-project/pve-network-go/internal/files"
	"github.com/pve-project/pve-network-go/internal/model"
)

const defaultStorageDir = "/etc/pve/priv/ipam"

// storageDir resolves the built-in allocator's persistence root: the
// PVE_IPAM_STORAGE_PATH override when set, else the cluster default.
func storageDir() string {
	if p := os.Getenv("PVE_IPAM_STORAGE_PATH"); p != "" {
		return p
	}
	return defaultStorageDir
}

// subnetFile holds one subnet's allocations on disk, keyed by IP so
// JSON round-trips are order-stable without needing a slice-sort pass.
type subnetFile struct {
	Allocations map[string]*model.IpAllocation `json:"allocations"`
}

// BuiltinAllocator is the file-backed Allocator (§4.4): one JSON
// document per subnet, guarded by a per-subnet sync.Mutex so
// concurrent Allocate calls against different subnets never block
// each other. Grounded on the teacher's internal/files JSON
// read/write helpers (pkg/ipam/ipam.go's CIDR math, adapted in
// cidr.go, supplies the free-address search).
type BuiltinAllocator struct {
	dir string

	mu     sync.Mutex // guards locks map itself
	locks  map[string]*sync.Mutex
	clock  clock
}

// NewBuiltinAllocator constructs a BuiltinAllocator rooted at
// storageDir() (or its env override).
func NewBuiltinAllocator() *BuiltinAllocator {
	return &BuiltinAllocator{
		dir:   storageDir(),
		locks: map[string]*sync.Mutex{},
		clock: realClock{},
	}
}

func (a *BuiltinAllocator) subnetLock(name string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[name]
	if !ok {
		l = &sync.Mutex{}
		a.locks[name] = l
	}
	return l
}

func (a *BuiltinAllocator) path(subnet string) string {
	return filepath.Join(a.dir, subnet+".json")
}

func (a *BuiltinAllocator) load(subnet string) (*subnetFile, error) {
	f := &subnetFile{Allocations: map[string]*model.IpAllocation{}}
	data, err := os.ReadFile(a.path(subnet))
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, model.NewError(model.KindIO, "read ipam state for "+subnet, err)
	}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, model.NewError(model.KindIO, "decode ipam state for "+subnet, err)
	}
	if f.Allocations == nil {
		f.Allocations = map[string]*model.IpAllocation{}
	}
	return f, nil
}

// save writes f atomically: encode to a temp file in the same
// directory, then rename over the target, so a crash mid-write never
// leaves a torn document behind.
func (a *BuiltinAllocator) save(subnet string, f *subnetFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal ipam state")
	}
	if err := files.WriteAtomic(a.path(subnet), data, 0o644); err != nil {
		return model.NewError(model.KindIO, "write ipam state for "+subnet, err)
	}
	return nil
}

func (a *BuiltinAllocator) Allocate(req AllocateRequest) (*model.IpAllocation, error) {
	network, err := parseSubnetReq(req)
	if err != nil {
		return nil, err
	}

	lock := a.subnetLock(req.Subnet)
	lock.Lock()
	defer lock.Unlock()

	f, err := a.load(req.Subnet)
	if err != nil {
		return nil, err
	}

	taken := map[string]bool{}
	for ip := range f.Allocations {
		taken[ip] = true
	}
	reserved := map[string]bool{}
	if req.Gateway != "" {
		reserved[req.Gateway] = true
	}

	var ip string
	if req.WantIP != "" {
		if taken[req.WantIP] {
			return nil, &model.ConflictError{
				Message: fmt.Sprintf("address %s already allocated in subnet %s", req.WantIP, req.Subnet),
			}
		}
		if !network.Contains(net.ParseIP(req.WantIP)) {
			return nil, &model.ConflictError{
				Message: fmt.Sprintf("address %s is not within subnet %s", req.WantIP, req.CIDR),
			}
		}
		if req.WantIP == networkAddr(network).String() || req.WantIP == broadcastAddr(network).String() {
			return nil, &model.ConflictError{
				Message: fmt.Sprintf("address %s is the network or broadcast address of subnet %s", req.WantIP, req.CIDR),
			}
		}
		ip = req.WantIP
	} else {
		free, err := freeAddress(network, taken, reserved)
		if err != nil {
			return nil, &model.ConflictError{Message: err.Error()}
		}
		ip = free.String()
	}

	alloc := &model.IpAllocation{
		IP:          ip,
		Subnet:      req.Subnet,
		VMID:        req.VMID,
		Hostname:    req.Hostname,
		MAC:         req.MAC,
		Description: req.Description,
		AllocatedAt: a.clock.Now(),
	}
	f.Allocations[ip] = alloc

	if err := a.save(req.Subnet, f); err != nil {
		return nil, err
	}
	return alloc, nil
}

func (a *BuiltinAllocator) Release(req ReleaseRequest) error {
	lock := a.subnetLock(req.Subnet)
	lock.Lock()
	defer lock.Unlock()

	f, err := a.load(req.Subnet)
	if err != nil {
		return err
	}
	if _, ok := f.Allocations[req.IP]; !ok {
		return nil
	}
	delete(f.Allocations, req.IP)
	return a.save(req.Subnet, f)
}

func (a *BuiltinAllocator) List(subnet string) ([]*model.IpAllocation, error) {
	lock := a.subnetLock(subnet)
	lock.Lock()
	defer lock.Unlock()

	f, err := a.load(subnet)
	if err != nil {
		return nil, err
	}
	out := make([]*model.IpAllocation, 0, len(f.Allocations))
	for _, alloc := range f.Allocations {
		out = append(out, alloc)
	}
	return out, nil
}

