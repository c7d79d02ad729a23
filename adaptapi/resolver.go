package adaptapi

import (
	"errors"
	"sort"
	"strings"
)

// Resolve builds the version table from config, looking every adapter name up
// in registry. Call it once at startup; any error is a *ConfigError and the
// process should not start serving.
func Resolve(config *Config, registry *Registry) (*VersionTable, error) {
	if registry == nil {
		return nil, &ConfigError{Err: errors.New("adapter registry is nil")}
	}
	return buildTable(config, registry)
}

// buildTable validates config and, when registry is non-nil, resolves adapters.
func buildTable(config *Config, registry *Registry) (*VersionTable, error) {
	if config == nil {
		return nil, &ConfigError{Err: errors.New("configuration is nil")}
	}
	if len(config.APIs) == 0 {
		return nil, &ConfigError{Err: errors.New("no versioned apis declared")}
	}

	placeholder := config.placeholder()
	if strings.Contains(placeholder, "/") {
		return nil, configErrorf("", "", "placeholder %q must be a single path segment", placeholder)
	}

	chains := make(map[string]*Chain)
	for _, template := range sortedKeys(config.APIs) {
		if !hasSegment(template, placeholder) {
			return nil, &ConfigError{Template: template, Err: ErrMissingPlaceholder}
		}

		versions := config.APIs[template]
		for _, version := range sortedKeys(versions) {
			switch {
			case version == "":
				return nil, configErrorf(template, version, "version identifier cannot be empty")
			case strings.Contains(version, "/"):
				return nil, configErrorf(template, version, "version identifier cannot contain '/'")
			case version == placeholder:
				return nil, configErrorf(template, version, "version identifier equals the placeholder")
			}

			versioned := substituteVersion(template, placeholder, version)
			if existing, ok := chains[versioned]; ok {
				return nil, configErrorf(template, version, "%w: %s already bound to %s[%s]",
					ErrPathCollision, versioned, existing.canonicalPath, existing.version)
			}

			steps, err := resolveSteps(template, version, versions[version], registry)
			if err != nil {
				return nil, err
			}
			chains[versioned] = NewChain(template, versioned, version, steps...)
		}
	}

	return newVersionTable(chains), nil
}

func resolveSteps(template, version string, names []string, registry *Registry) ([]Step, error) {
	steps := make([]Step, 0, len(names))
	for i, name := range names {
		if name == "" {
			return nil, configErrorf(template, version, "adapter %d: name cannot be empty", i)
		}
		if registry == nil {
			continue
		}
		adapter, ok := registry.Lookup(name)
		if !ok {
			return nil, configErrorf(template, version, "%w: %q", ErrUnknownAdapter, name)
		}
		steps = append(steps, Step{Name: name, Adapter: adapter})
	}
	return steps, nil
}

// substituteVersion replaces every path segment equal to placeholder.
func substituteVersion(template, placeholder, version string) string {
	segments := strings.Split(template, "/")
	for i, s := range segments {
		if s == placeholder {
			segments[i] = version
		}
	}
	return strings.Join(segments, "/")
}

func hasSegment(template, segment string) bool {
	for _, s := range strings.Split(template, "/") {
		if s == segment {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
