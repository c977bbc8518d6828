// Package fleet imports robots in bulk from a yaml file
package fleet

import (
	"context"
	"fmt"
	"os"

	log "github.com/go-pkgz/lgr"
	"gopkg.in/yaml.v3"

	"github.com/umputun/ctlbackup/app/store"
)

// Creator adds a single robot to the inventory
type Creator interface {
	CreateRobot(ctx context.Context, r store.Robot) error
}

// File is the yaml layout, i.e.
//
//	robots:
//	  - {name: R1, address: 10.0.0.5, family: FANUC}
type File struct {
	Robots []store.Robot `yaml:"robots"`
}

// Report lists outcome of the import, one error per rejected robot
type Report struct {
	Added  []string
	Failed map[string]error
}

// Load parses fleet file
func Load(fname string) (File, error) {
	data, err := os.ReadFile(fname) // nolint gosec
	if err != nil {
		return File{}, fmt.Errorf("can't read fleet file %s: %w", fname, err)
	}
	var res File
	if err := yaml.Unmarshal(data, &res); err != nil {
		return File{}, fmt.Errorf("can't parse fleet file %s: %w", fname, err)
	}
	return res, nil
}

// Import adds every robot from the file. A rejected robot is reported and the rest still imported.
func Import(ctx context.Context, c Creator, f File) Report {
	res := Report{Failed: map[string]error{}}
	for i, r := range f.Robots {
		key := r.Name
		if key == "" {
			key = fmt.Sprintf("#%d", i+1)
		}
		if err := c.CreateRobot(ctx, r); err != nil {
			log.Printf("[WARN] robot %s not imported, %v", key, err)
			res.Failed[key] = err
			continue
		}
		res.Added = append(res.Added, r.Name)
	}
	log.Printf("[INFO] imported %d robots, %d rejected", len(res.Added), len(res.Failed))
	return res
}
