package sdnstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pve-project/pve-network-go/internal/clusterstore"
	"github.com/pve-project/pve-network-go/internal/files"
	"github.com/pve-project/pve-network-go/internal/model"
	"github.com/pve-project/pve-network-go/internal/validate"
)

// Store reads and writes the SDN entity graph through a cluster-file
// store rooted at <base>/sdn.
type Store struct {
	cluster *clusterstore.Store
	base    string // absolute sdn root, e.g. <cluster base>/sdn
}

// New constructs a Store over cluster, rooted at <clusterBase>/sdn.
func New(cluster *clusterstore.Store, clusterBase string) *Store {
	return &Store{
		cluster: cluster,
		base:    filepath.Join(clusterBase, "sdn"),
	}
}

func (s *Store) dir(entityKind string) string {
	switch entityKind {
	case "zone":
		return filepath.Join(s.base, "zones")
	case "vnet":
		return filepath.Join(s.base, "vnets")
	case "subnet":
		return filepath.Join(s.base, "subnets")
	case "controller":
		return filepath.Join(s.base, "controllers")
	case "ipam":
		return filepath.Join(s.base, "ipams")
	default:
		return ""
	}
}

func (s *Store) entityPath(entityKind, name string) string {
	return filepath.Join(s.dir(entityKind), name)
}

// writeEntity schema-validates doc, then writes it atomically.
func (s *Store) writeEntity(entityKind, name string, doc interface{}) error {
	raw, err := marshalIndented(doc)
	if err != nil {
		return model.NewError(model.KindIO, "marshal "+entityKind+" "+name, err)
	}
	if err := validateDocument(entityKind, raw); err != nil {
		return err
	}

	path := s.entityPath(entityKind, name)
	if err := files.WriteAtomic(path, raw, 0o644); err != nil {
		return model.NewError(model.KindIO, "write "+entityKind+" "+name, err)
	}
	return nil
}

func (s *Store) removeEntity(entityKind, name string) error {
	if err := os.Remove(s.entityPath(entityKind, name)); err != nil && !os.IsNotExist(err) {
		return model.NewError(model.KindIO, "remove "+entityKind+" "+name, err)
	}
	return nil
}

// ReadSDNConfig loads every zone/vnet/subnet/controller/ipam document
// under the sdn root into one in-memory SDNConfiguration.
func (s *Store) ReadSDNConfig() (*model.SDNConfiguration, error) {
	cfg := model.NewSDNConfiguration()

	if err := readEntities(s.dir("zone"), func(name string, raw []byte) error {
		z := &model.Zone{}
		if err := json.Unmarshal(raw, z); err != nil {
			return model.NewError(model.KindParse, "decode zone "+name, err)
		}
		cfg.Zones[z.Name] = z
		return nil
	}); err != nil {
		return nil, err
	}

	if err := readEntities(s.dir("vnet"), func(name string, raw []byte) error {
		v := &model.VNet{}
		if err := json.Unmarshal(raw, v); err != nil {
			return model.NewError(model.KindParse, "decode vnet "+name, err)
		}
		cfg.VNets[v.Name] = v
		return nil
	}); err != nil {
		return nil, err
	}

	if err := readEntities(s.dir("subnet"), func(name string, raw []byte) error {
		sn := &model.Subnet{}
		if err := json.Unmarshal(raw, sn); err != nil {
			return model.NewError(model.KindParse, "decode subnet "+name, err)
		}
		cfg.Subnets[sn.Name] = sn
		return nil
	}); err != nil {
		return nil, err
	}

	if err := readEntities(s.dir("controller"), func(name string, raw []byte) error {
		c := &model.Controller{}
		if err := json.Unmarshal(raw, c); err != nil {
			return model.NewError(model.KindParse, "decode controller "+name, err)
		}
		cfg.Controllers[c.Name] = c
		return nil
	}); err != nil {
		return nil, err
	}

	if err := readEntities(s.dir("ipam"), func(name string, raw []byte) error {
		i := &model.IpamConfig{}
		if err := json.Unmarshal(raw, i); err != nil {
			return model.NewError(model.KindParse, "decode ipam "+name, err)
		}
		cfg.Ipams[i.Name] = i
		return nil
	}); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readEntities(dir string, handle func(name string, raw []byte) error) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return model.NewError(model.KindIO, "list "+dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return model.NewError(model.KindIO, "read "+e.Name(), err)
		}
		if err := handle(e.Name(), raw); err != nil {
			return err
		}
	}
	return nil
}

// WriteSDNConfig validates the full graph (schema per entity plus
// S-1..S-4 referential checks), writes every file, then triggers a
// cluster sync for the "sdn" prefix (§4.6). Nothing is written if
// validation fails.
func (s *Store) WriteSDNConfig(cfg *model.SDNConfiguration) error {
	if result := validate.SDNConfiguration(cfg); !result.OK() {
		return result.Errors
	}

	for name, z := range cfg.Zones {
		if err := s.writeEntity("zone", name, z); err != nil {
			return err
		}
	}
	for name, v := range cfg.VNets {
		if err := s.writeEntity("vnet", name, v); err != nil {
			return err
		}
	}
	for name, sn := range cfg.Subnets {
		if err := s.writeEntity("subnet", name, sn); err != nil {
			return err
		}
	}
	for name, c := range cfg.Controllers {
		if err := s.writeEntity("controller", name, c); err != nil {
			return err
		}
	}
	for name, i := range cfg.Ipams {
		if err := s.writeEntity("ipam", name, i); err != nil {
			return err
		}
	}

	return s.cluster.SyncConfiguration("sdn")
}

// DeleteZone removes a zone after confirming S-1 (no vnet attached).
func (s *Store) DeleteZone(cfg *model.SDNConfiguration, name string) error {
	if err := validate.DeletionAllowed(cfg, "zone", name); err != nil {
		return err
	}
	return s.removeEntity("zone", name)
}

// DeleteVNet removes a vnet after confirming S-1 (no subnet attached).
func (s *Store) DeleteVNet(cfg *model.SDNConfiguration, name string) error {
	if err := validate.DeletionAllowed(cfg, "vnet", name); err != nil {
		return err
	}
	return s.removeEntity("vnet", name)
}

// DeleteSubnet removes a subnet; subnets have no dependents in this graph.
func (s *Store) DeleteSubnet(name string) error {
	return s.removeEntity("subnet", name)
}
