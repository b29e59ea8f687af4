// Package loadgen drives simulated users against the HTML file server. Each
// user belongs to a weighted profile, picks weighted tasks at random and
// pauses for a randomized think time between requests.
package loadgen

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/htmlbench/internal/common"
)

// Target is one concrete request a task may issue. Name labels the
// request in metrics; it defaults to the task name.
type Target struct {
	Path string `json:"path" yaml:"path"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Task is one weighted request kind. When it has several targets one is
// chosen uniformly per execution.
type Task struct {
	Name    string
	Weight  int
	Targets []Target
}

// Pick returns the target to request and the metric name to record it under.
func (t *Task) Pick(rng *rand.Rand) (path, name string) {
	target := t.Targets[0]
	if len(t.Targets) > 1 {
		target = t.Targets[rng.IntN(len(t.Targets))]
	}
	if target.Name != "" {
		return target.Path, target.Name
	}
	return target.Path, t.Name
}

// Profile is a kind of simulated user.
type Profile struct {
	Name    string
	Weight  int
	MinWait time.Duration
	MaxWait time.Duration
	Tasks   []Task

	totalWeight int
}

func get(path, name string) Task {
	return Task{Name: name, Targets: []Target{{Path: path}}}
}

func weighted(t Task, w int) Task {
	t.Weight = w
	return t
}

var (
	homepage     = get("/", "Homepage")
	smallFile    = get("/api/html/small", "Small File (10KB)")
	mediumFile   = get("/api/html/medium", "Medium File (100KB)")
	largeFile    = get("/api/html/large", "Large File (1MB)")
	xlargeFile   = get("/api/html/xlarge", "XLarge File (5MB)")
	xxlargeFile  = get("/api/html/xxlarge", "XXLarge File (10MB)")
	apiInfo      = get("/api/info", "API Info")
	apiStatus    = get("/api/status", "API Status")
	apiEndpoints = Task{Name: "API Endpoints", Targets: []Target{{Path: "/api/info"}, {Path: "/api/status"}}}
)

// DefaultProfiles returns the built-in user mix.
func DefaultProfiles() []*Profile {
	profiles := []*Profile{
		{
			Name: "light", Weight: 3, MinWait: 2 * time.Second, MaxWait: 4 * time.Second,
			Tasks: []Task{
				weighted(homepage, 40),
				weighted(smallFile, 35),
				weighted(apiInfo, 20),
				weighted(apiStatus, 5),
			},
		},
		{
			Name: "medium", Weight: 4, MinWait: 1 * time.Second, MaxWait: 3 * time.Second,
			Tasks: []Task{
				weighted(homepage, 25),
				weighted(smallFile, 25),
				weighted(mediumFile, 25),
				weighted(largeFile, 15),
				weighted(apiEndpoints, 10),
			},
		},
		{
			Name: "heavy", Weight: 3, MinWait: 500 * time.Millisecond, MaxWait: 2 * time.Second,
			Tasks: []Task{
				weighted(homepage, 20),
				weighted(smallFile, 15),
				weighted(mediumFile, 20),
				weighted(largeFile, 25),
				weighted(xlargeFile, 15),
				weighted(xxlargeFile, 5),
			},
		},
		{
			Name: "stress", Weight: 2, MinWait: 500 * time.Millisecond, MaxWait: 1500 * time.Millisecond,
			Tasks: []Task{
				weighted(homepage, 15),
				weighted(smallFile, 10),
				weighted(mediumFile, 15),
				weighted(largeFile, 20),
				weighted(xlargeFile, 20),
				weighted(xxlargeFile, 15),
				weighted(apiEndpoints, 5),
			},
		},
		{
			Name: "requirement", Weight: 1, MinWait: 1 * time.Second, MaxWait: 2 * time.Second,
			Tasks: []Task{{
				Name:   "Mixed Endpoints",
				Weight: 1,
				Targets: []Target{
					{Path: "/", Name: "Homepage"},
					{Path: "/api/html/small", Name: "Small File (10KB)"},
					{Path: "/api/html/medium", Name: "Medium File (100KB)"},
					{Path: "/api/html/large", Name: "Large File (1MB)"},
					{Path: "/api/info", Name: "API Info"},
					{Path: "/api/status", Name: "API Status"},
				},
			}},
		},
	}

	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			panic(err)
		}
	}
	return profiles
}

// Validate checks the profile and caches its total task weight.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: profile name is required", common.ErrInvalidProfile)
	}
	if p.Weight < 0 {
		return fmt.Errorf("%w: %s: weight cannot be negative", common.ErrInvalidProfile, p.Name)
	}
	if p.MinWait < 0 || p.MaxWait < p.MinWait {
		return fmt.Errorf("%w: %s: wait range %s-%s is invalid", common.ErrInvalidProfile, p.Name, p.MinWait, p.MaxWait)
	}
	if len(p.Tasks) == 0 {
		return fmt.Errorf("%w: %s: at least one task is required", common.ErrInvalidProfile, p.Name)
	}

	total := 0
	for _, t := range p.Tasks {
		if t.Weight <= 0 {
			return fmt.Errorf("%w: %s: task %q weight must be positive", common.ErrInvalidProfile, p.Name, t.Name)
		}
		if len(t.Targets) == 0 {
			return fmt.Errorf("%w: %s: task %q has no targets", common.ErrInvalidProfile, p.Name, t.Name)
		}
		for _, target := range t.Targets {
			if !strings.HasPrefix(target.Path, "/") {
				return fmt.Errorf("%w: %s: task %q path %q must start with /", common.ErrInvalidProfile, p.Name, t.Name, target.Path)
			}
		}
		total += t.Weight
	}
	p.totalWeight = total

	return nil
}

// PickTask selects a task with probability proportional to its weight.
func (p *Profile) PickTask(rng *rand.Rand) *Task {
	total := p.totalWeight
	if total == 0 {
		for _, t := range p.Tasks {
			total += t.Weight
		}
	}

	n := rng.IntN(total)
	for i := range p.Tasks {
		n -= p.Tasks[i].Weight
		if n < 0 {
			return &p.Tasks[i]
		}
	}
	return &p.Tasks[len(p.Tasks)-1]
}

// Wait returns a think time drawn uniformly from [MinWait, MaxWait].
func (p *Profile) Wait(rng *rand.Rand) time.Duration {
	span := p.MaxWait - p.MinWait
	if span <= 0 {
		return p.MinWait
	}
	return p.MinWait + time.Duration(rng.Int64N(int64(span)+1))
}

// Allocate distributes users across profiles in proportion to weight using
// the largest remainder method. Ties go to the profile declared first.
func Allocate(profiles []*Profile, users int) ([]int, error) {
	total := 0
	for _, p := range profiles {
		total += p.Weight
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: total profile weight must be positive", common.ErrInvalidProfile)
	}

	counts := make([]int, len(profiles))
	rems := make([]int, len(profiles))
	assigned := 0
	for i, p := range profiles {
		counts[i] = users * p.Weight / total
		rems[i] = users * p.Weight % total
		assigned += counts[i]
	}

	order := make([]int, len(profiles))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rems[order[a]] > rems[order[b]]
	})

	for _, i := range order {
		if assigned >= users {
			break
		}
		counts[i]++
		assigned++
	}

	return counts, nil
}

type profileFile struct {
	Profiles []struct {
		Name    string `json:"name" yaml:"name"`
		Weight  int    `json:"weight" yaml:"weight"`
		MinWait string `json:"min_wait" yaml:"min_wait"`
		MaxWait string `json:"max_wait" yaml:"max_wait"`
		Tasks   []struct {
			Name    string   `json:"name" yaml:"name"`
			Weight  int      `json:"weight" yaml:"weight"`
			Path    string   `json:"path,omitempty" yaml:"path,omitempty"`
			Targets []Target `json:"targets,omitempty" yaml:"targets,omitempty"`
		} `json:"tasks" yaml:"tasks"`
	} `json:"profiles" yaml:"profiles"`
}

// LoadProfiles reads profiles from a YAML or JSON file, chosen by extension.
func LoadProfiles(path string) ([]*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}
	return ParseProfiles(data, path)
}

// ParseProfiles parses profile definitions. YAML is assumed unless path ends
// in .json.
func ParseProfiles(data []byte, path string) ([]*Profile, error) {
	var (
		pf  profileFile
		err error
	)

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("failed to parse JSON profiles: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML profiles: %w", err)
	}

	if len(pf.Profiles) == 0 {
		return nil, fmt.Errorf("%w: no profiles defined in %s", common.ErrInvalidProfile, path)
	}

	profiles := make([]*Profile, 0, len(pf.Profiles))
	for _, fp := range pf.Profiles {
		p := &Profile{Name: fp.Name, Weight: fp.Weight}

		if p.MinWait, err = parseWait(fp.MinWait); err != nil {
			return nil, fmt.Errorf("%w: %s: min_wait: %v", common.ErrInvalidProfile, fp.Name, err)
		}
		if p.MaxWait, err = parseWait(fp.MaxWait); err != nil {
			return nil, fmt.Errorf("%w: %s: max_wait: %v", common.ErrInvalidProfile, fp.Name, err)
		}

		for _, ft := range fp.Tasks {
			t := Task{Name: ft.Name, Weight: ft.Weight, Targets: ft.Targets}
			if ft.Path != "" {
				t.Targets = append([]Target{{Path: ft.Path}}, t.Targets...)
			}
			p.Tasks = append(p.Tasks, t)
		}

		if err := p.Validate(); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	return profiles, nil
}

// parseWait accepts Go durations ("1.5s") or bare seconds ("2").
func parseWait(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
