package counter

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validation constants.
const (
	maxObjectIDLength = 64
	maxNameLength     = 100
	objectIDPattern   = `^[a-z0-9_]+$`
)

var objectIDRegex = regexp.MustCompile(objectIDPattern)

// Option keys accepted in a counter entry.
const (
	optName    = "name"
	optIcon    = "icon"
	optInitial = "initial"
	optRestore = "restore"
	optStep    = "step"
)

// ParseYAML decodes a counter block from raw YAML and validates it.
func ParseYAML(data []byte) ([]Config, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return ParseConfig(&node)
}

// ParseConfig validates a counter block and returns one Config per entry,
// in file order.
//
// The block must be a non-empty mapping from object id to an options
// mapping. An entry whose value is null or {} takes every default.
//
// Each entry is validated on its own, and every problem found is reported
// in a single *ConfigError. If anything is wrong no configs are returned,
// so the platform creates zero counters.
func ParseConfig(node *yaml.Node) ([]Config, error) {
	node = resolve(node)
	if node == nil || isNull(node) {
		return nil, &ConfigError{Problems: map[string][]string{"": {"counter block is required"}}}
	}
	if node.Kind != yaml.MappingNode {
		return nil, &ConfigError{Problems: map[string][]string{"": {fmt.Sprintf("expected a mapping, got %s", describe(node))}}}
	}
	if len(node.Content) == 0 {
		return nil, &ConfigError{Problems: map[string][]string{"": {"at least one counter is required"}}}
	}

	cerr := &ConfigError{}
	seen := make(map[string]bool, len(node.Content)/2)
	configs := make([]Config, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := resolve(node.Content[i]), resolve(node.Content[i+1])

		if keyNode.Kind != yaml.ScalarNode {
			cerr.add("", fmt.Sprintf("line %d: counter id must be a string", keyNode.Line))
			continue
		}
		objectID := keyNode.Value

		if err := ValidateObjectID(objectID); err != nil {
			cerr.add(objectID, err.Error())
			continue
		}
		if seen[objectID] {
			cerr.add(objectID, "duplicate counter id")
			continue
		}
		seen[objectID] = true

		cfg, problems := parseEntry(objectID, valueNode)
		if len(problems) > 0 {
			for _, p := range problems {
				cerr.add(objectID, p)
			}
			continue
		}
		configs = append(configs, cfg)
	}

	if !cerr.empty() {
		return nil, cerr
	}
	return configs, nil
}

// parseEntry builds the Config for one entry. Defaults start fresh for
// every entry.
func parseEntry(objectID string, node *yaml.Node) (Config, []string) {
	cfg := Config{
		ObjectID: objectID,
		Step:     DefaultStep,
		Restore:  true,
	}

	if node == nil || isNull(node) {
		return cfg, nil
	}
	if node.Kind != yaml.MappingNode {
		return cfg, []string{fmt.Sprintf("options must be a mapping, got %s", describe(node))}
	}

	var problems []string
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, resolve(node.Content[i+1])
		if isNull(value) {
			continue
		}

		switch key {
		case optName:
			if value.Kind != yaml.ScalarNode {
				problems = append(problems, "name must be a string")
				continue
			}
			cfg.Name = strings.TrimSpace(value.Value)
		case optIcon:
			if value.Kind != yaml.ScalarNode {
				problems = append(problems, "icon must be a string")
				continue
			}
			cfg.Icon = value.Value
		case optInitial:
			var initial int
			if err := decodeScalar(value, "!!int", &initial); err != nil {
				problems = append(problems, "initial must be an integer")
				continue
			}
			cfg.Initial = &initial
		case optStep:
			var step int
			if err := decodeScalar(value, "!!int", &step); err != nil {
				problems = append(problems, "step must be an integer")
				continue
			}
			cfg.Step = step
		case optRestore:
			var restore bool
			if err := decodeScalar(value, "!!bool", &restore); err != nil {
				problems = append(problems, "restore must be a boolean")
				continue
			}
			cfg.Restore = restore
		default:
			problems = append(problems, fmt.Sprintf("unknown option %q", key))
		}
	}

	if err := cfg.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	return cfg, problems
}

// Validate checks the invariants of a Config. ParseConfig calls it for every
// entry; Registry.Register calls it for configs built in code.
func (c Config) Validate() error {
	var errs []string

	if err := ValidateObjectID(c.ObjectID); err != nil {
		errs = append(errs, err.Error())
	}
	if len(c.Name) > maxNameLength {
		errs = append(errs, fmt.Sprintf("name exceeds %d characters", maxNameLength))
	}
	if c.Icon != "" && !strings.Contains(c.Icon, ":") {
		errs = append(errs, `icon must have the form "prefix:name"`)
	}
	if c.Step < 1 {
		errs = append(errs, "step must be a positive integer")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, ", "))
	}
	return nil
}

// ValidateObjectID checks that an object id is a slug: lowercase letters,
// digits and underscores only.
func ValidateObjectID(objectID string) error {
	if objectID == "" {
		return fmt.Errorf("counter id cannot be empty")
	}
	if len(objectID) > maxObjectIDLength {
		return fmt.Errorf("counter id exceeds %d characters", maxObjectIDLength)
	}
	if !objectIDRegex.MatchString(objectID) {
		return fmt.Errorf("counter id %q must be lowercase alphanumeric with underscores", objectID)
	}
	return nil
}

// decodeScalar decodes a scalar node into out, requiring the given tag.
// Quoted strings such as "10" are rejected rather than coerced.
func decodeScalar(node *yaml.Node, tag string, out any) error {
	if node.Kind != yaml.ScalarNode || node.ShortTag() != tag {
		return fmt.Errorf("expected %s", tag)
	}
	return node.Decode(out)
}

// resolve unwraps document and alias nodes.
func resolve(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch node.Kind {
		case yaml.DocumentNode:
			if len(node.Content) == 0 {
				return nil
			}
			node = node.Content[0]
		case yaml.AliasNode:
			node = node.Alias
		default:
			if node.Kind == 0 {
				return nil
			}
			return node
		}
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}

func describe(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		return fmt.Sprintf("scalar %s", node.ShortTag())
	default:
		return "an unsupported value"
	}
}
