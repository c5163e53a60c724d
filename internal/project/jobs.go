package project

import (
	"fmt"
	"os"

	"github.com/piwi3910/GlassCut/internal/model"
)

// ProjectExt is the extension used for saved jobs.
const ProjectExt = ".glasscut"

// SaveProject writes a job (windows, cut list, glass items, settings) as JSON.
// The computed plan is saved too so a reopened job shows the last result.
func SaveProject(path string, p model.Project) error {
	return writeFile(path, p)
}

// LoadProject reads a job saved by SaveProject. YAML files are accepted as
// well, which is handy for hand-written cut lists.
func LoadProject(path string) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to read project: %w", err)
	}
	p := model.NewProject()
	if err := decode(path, data, &p); err != nil {
		return model.Project{}, err
	}
	return p, nil
}
