package models

import (
	"github.com/hashicorp/go-multierror"
)

// Config is the reloadable project configuration. Projects are declared as
// [[project]] tables in the TOML configuration file.
type Config struct {
	Projects []*Project `toml:"project" json:"projects"`
}

// PopulateDefaults fills in default values on every project.
func (c *Config) PopulateDefaults() {
	for _, project := range c.Projects {
		project.PopulateDefaults()
	}
}

func (c *Config) Validate() error {
	var result *multierror.Error
	for _, project := range c.Projects {
		if err := project.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// MatchProject finds the first project whose name equals the pushed
// repository name and whose branch set contains the pushed branch.
// Returns nil if no project matches.
func (c *Config) MatchProject(repoName string, branch string) *Project {
	for _, project := range c.Projects {
		if project.Name == repoName && project.MatchesBranch(branch) {
			return project
		}
	}
	return nil
}
