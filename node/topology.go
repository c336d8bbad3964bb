package node

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/annchain/schain-manager/staking"
	"github.com/annchain/schain-manager/types"
)

type NodeSpec struct {
	Name  string `yaml:"name"`
	Owner uint64 `yaml:"owner"`
	Space uint8  `yaml:"space"`
}

type GroupSpec struct {
	Name       string   `yaml:"name"`
	PartOfNode uint8    `yaml:"part_of_node"`
	Size       int      `yaml:"size"`
	Members    []string `yaml:"members"`
}

// Topology is the bootstrap file of a fresh deployment.
type Topology struct {
	Validators []staking.Validator `yaml:"validators"`
	Nodes      []NodeSpec          `yaml:"nodes"`
	Groups     []GroupSpec         `yaml:"groups"`
}

func LoadTopology(path string) (*Topology, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t := &Topology{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("bad topology file %s: %v", path, err)
	}
	return t, nil
}

func (t *Topology) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}

// ApplyValidators loads the validators into the ledger. The ledger is not
// persisted, so this runs on every start.
func (t *Topology) ApplyValidators(l *staking.Ledger) {
	for _, v := range t.Validators {
		l.SetValidator(v)
	}
}

// Bootstrap registers the nodes and creates the schains of t. It is a no-op
// once the service holds any node.
func (s *Service) Bootstrap(t *Topology) error {
	if len(s.registry.Nodes()) > 0 {
		log().Info("state present, topology bootstrap skipped")
		return nil
	}
	byName := make(map[string]types.NodeID, len(t.Nodes))
	for _, spec := range t.Nodes {
		n, err := s.RegisterNode(spec.Name, spec.Owner, spec.Space)
		if err != nil {
			return fmt.Errorf("register %s: %w", spec.Name, err)
		}
		byName[spec.Name] = n.ID
	}
	for _, spec := range t.Groups {
		var members []types.NodeID
		for _, name := range spec.Members {
			id, ok := byName[name]
			if !ok {
				return fmt.Errorf("schain %s: unknown node %s", spec.Name, name)
			}
			members = append(members, id)
		}
		if _, err := s.CreateGroup(spec.Name, spec.PartOfNode, members, spec.Size); err != nil {
			return fmt.Errorf("create %s: %w", spec.Name, err)
		}
	}
	log().WithField("nodes", len(t.Nodes)).WithField("groups", len(t.Groups)).Info("topology bootstrapped")
	return nil
}
