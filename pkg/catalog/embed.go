package catalog

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pulse-labs/pulse-assistant/pkg/models"
)

// Contract data lives in per-table YAML files plus a .sql file holding the
// canonical query. The .sql files end with one conventional trailing newline
// that is not part of the canonical text; everything before it is verbatim
// from the pipeline definitions and must not be reformatted.

//go:embed contracts
var contractsFS embed.FS

type roadmapFile struct {
	Dataset string   `yaml:"dataset"`
	Tables  []string `yaml:"tables"`
}

// loadContracts parses the embedded roadmap and contract files.
// Returned contracts are keyed by bare table name and carry their
// canonical query attached.
func loadContracts() (roadmapFile, map[string]*models.TableContract, error) {
	var roadmap roadmapFile

	raw, err := contractsFS.ReadFile("contracts/roadmap.yaml")
	if err != nil {
		return roadmap, nil, fmt.Errorf("read roadmap: %w", err)
	}
	if err := yaml.Unmarshal(raw, &roadmap); err != nil {
		return roadmap, nil, fmt.Errorf("parse roadmap: %w", err)
	}
	if roadmap.Dataset == "" || len(roadmap.Tables) == 0 {
		return roadmap, nil, fmt.Errorf("roadmap is empty")
	}

	contracts := make(map[string]*models.TableContract, len(roadmap.Tables))
	for _, name := range roadmap.Tables {
		contract, err := loadContract(name)
		if err != nil {
			return roadmap, nil, fmt.Errorf("contract %s: %w", name, err)
		}
		contracts[name] = contract
	}

	return roadmap, contracts, nil
}

func loadContract(name string) (*models.TableContract, error) {
	raw, err := contractsFS.ReadFile("contracts/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var contract models.TableContract
	if err := yaml.Unmarshal(raw, &contract); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if contract.Name != name {
		return nil, fmt.Errorf("metadata name %q does not match file name %q", contract.Name, name)
	}
	if len(contract.Fields) == 0 {
		return nil, fmt.Errorf("contract has no fields")
	}

	sqlRaw, err := contractsFS.ReadFile("contracts/" + name + ".sql")
	if err != nil {
		return nil, fmt.Errorf("read canonical query: %w", err)
	}
	// Strip only the conventional trailing newline; interior whitespace is
	// part of the canonical text.
	contract.CanonicalQuery = strings.TrimSuffix(string(sqlRaw), "\n")

	return &contract, nil
}
