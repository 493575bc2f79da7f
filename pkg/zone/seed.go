package zone

import (
	"fmt"
	"io"
	"os"

	"github.com/chazu/steelhook/pkg/kernel"
	"gopkg.in/yaml.v3"
)

// ProjectData is the zone-related content of a project seed file:
// the external tables plus the reference surfaces they point at.
//
//	tables:
//	  TAB*MVZ:
//	    - {NAME: FWD, LLIMIT: "10", ULIMIT: "20", NR: "2"}
//	  TAB*DECKS:
//	    - {NAME: "05", SURFACE: DK5}
//	surfaces:
//	  - id: DK5
//	    pieces:
//	      - {min: {x: 0, y: -10, z: 5}, max: {x: 100, y: 10, z: 5}}
type ProjectData struct {
	Tables   map[string][]Row     `yaml:"tables"`
	Surfaces []kernel.SurfaceSpec `yaml:"surfaces"`
}

// LoadProjectFile parses a YAML project seed file.
func LoadProjectFile(path string) (*ProjectData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadProjectYAML(f)
}

// LoadProjectYAML parses project seed data from r.
func LoadProjectYAML(r io.Reader) (*ProjectData, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var pd ProjectData
	if err := yaml.Unmarshal(data, &pd); err != nil {
		return nil, fmt.Errorf("parse project data: %w", err)
	}
	for i, s := range pd.Surfaces {
		if s.ID == "" {
			return nil, fmt.Errorf("surface %d: missing id", i+1)
		}
	}
	return &pd, nil
}

// Apply copies the tables into m.
func (pd *ProjectData) Apply(m *MemoryTables) {
	for name, rows := range pd.Tables {
		m.Put(name, rows)
	}
}
