package adaptapi

import (
	"fmt"
	"sort"
)

// Step is one named adapter inside a Chain.
type Step struct {
	Name    string
	Adapter Adapter
}

// Chain is the ordered adapter list bound to one versioned path. Upgrades run
// in declared order; downgrades run in reverse.
type Chain struct {
	canonicalPath string
	versionedPath string
	version       string
	steps         []Step
}

// NewChain builds a chain. The steps slice is copied.
func NewChain(canonicalPath, versionedPath, version string, steps ...Step) *Chain {
	owned := make([]Step, len(steps))
	copy(owned, steps)
	return &Chain{
		canonicalPath: canonicalPath,
		versionedPath: versionedPath,
		version:       version,
		steps:         owned,
	}
}

// CanonicalPath is the latest path requests are forwarded to.
func (c *Chain) CanonicalPath() string { return c.canonicalPath }

// VersionedPath is the external path this chain serves.
func (c *Chain) VersionedPath() string { return c.versionedPath }

// Version is the version identifier substituted into the template.
func (c *Chain) Version() string { return c.version }

// Len returns the number of steps.
func (c *Chain) Len() int { return len(c.steps) }

// StepNames returns the step names in declared order.
func (c *Chain) StepNames() []string {
	names := make([]string, len(c.steps))
	for i, s := range c.steps {
		names[i] = s.Name
	}
	return names
}

// Upgrade applies every step's Upgrade in declared order, each consuming the
// previous output.
func (c *Chain) Upgrade(d Data) (Data, error) {
	for _, s := range c.steps {
		out, err := callTransform(s.Adapter.Upgrade, d)
		if err != nil {
			return nil, &TransformError{Step: s.Name, Direction: DirectionUpgrade, Err: err}
		}
		d = out
	}
	return d, nil
}

// Downgrade applies every step's Downgrade, last step first.
func (c *Chain) Downgrade(d Data) (Data, error) {
	for i := len(c.steps) - 1; i >= 0; i-- {
		s := c.steps[i]
		out, err := callTransform(s.Adapter.Downgrade, d)
		if err != nil {
			return nil, &TransformError{Step: s.Name, Direction: DirectionDowngrade, Err: err}
		}
		d = out
	}
	return d, nil
}

// callTransform runs fn, reporting a panic as an error so one broken adapter
// fails its request instead of the connection.
func callTransform(fn TransformFunc, d Data) (out Data, err error) {
	defer func() {
		if v := recover(); v != nil {
			out, err = nil, fmt.Errorf("panic: %v", v)
		}
	}()
	return fn(d)
}

// VersionTable maps versioned paths to chains. It is immutable once built and
// safe for concurrent reads.
type VersionTable struct {
	chains map[string]*Chain
}

func newVersionTable(chains map[string]*Chain) *VersionTable {
	return &VersionTable{chains: chains}
}

// NewVersionTable builds a table from ready-made chains keyed by their
// versioned path. Duplicate paths yield a ConfigError.
func NewVersionTable(chains ...*Chain) (*VersionTable, error) {
	m := make(map[string]*Chain, len(chains))
	for _, c := range chains {
		if existing, ok := m[c.versionedPath]; ok {
			return nil, configErrorf(c.canonicalPath, c.version, "%w: %s already bound to %s[%s]",
				ErrPathCollision, c.versionedPath, existing.canonicalPath, existing.version)
		}
		m[c.versionedPath] = c
	}
	return newVersionTable(m), nil
}

// Route returns the chain bound to path. The boolean is false for paths that
// are not versioned; those must pass through untouched.
func (t *VersionTable) Route(path string) (*Chain, bool) {
	if t == nil {
		return nil, false
	}
	c, ok := t.chains[path]
	return c, ok
}

// Len returns the number of versioned paths.
func (t *VersionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.chains)
}

// Paths returns the versioned paths in sorted order.
func (t *VersionTable) Paths() []string {
	if t == nil {
		return nil
	}
	paths := make([]string, 0, len(t.chains))
	for p := range t.chains {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
