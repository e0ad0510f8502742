package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrEmptyInclude indicates no source include patterns
	ErrEmptyInclude = errors.New("empty source include patterns")

	// ErrEmptyOutput indicates a missing output path
	ErrEmptyOutput = errors.New("empty output path")

	// ErrDuplicateOutput indicates two artifacts sharing one path
	ErrDuplicateOutput = errors.New("duplicate output path")

	// ErrEmptyRuntimeModule indicates a missing runtime module specifier
	ErrEmptyRuntimeModule = errors.New("empty runtime module")

	// ErrInvalidNamespace indicates a malformed default namespace
	ErrInvalidNamespace = errors.New("invalid default namespace")
)

// Namespaces become JavaScript property names on window, so they follow
// lowerCamelCase identifier rules.
var namespacePattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateSource(&cfg.Source); err != nil {
		errs = append(errs, err)
	}

	if err := validateOutput(&cfg.Output); err != nil {
		errs = append(errs, err)
	}

	if strings.TrimSpace(cfg.Runtime.Module) == "" {
		errs = append(errs, fmt.Errorf("%w: runtime.module is required", ErrEmptyRuntimeModule))
	}

	if !namespacePattern.MatchString(cfg.DefaultNamespace) {
		errs = append(errs, fmt.Errorf("%w: must be lowerCamelCase, got '%s'", ErrInvalidNamespace, cfg.DefaultNamespace))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateSource(cfg *SourceConfig) error {
	if len(cfg.Include) == 0 {
		return fmt.Errorf("%w: at least one include pattern required", ErrEmptyInclude)
	}
	return nil
}

func validateOutput(cfg *OutputConfig) error {
	var errs []error

	paths := map[string]string{
		"output.host":   cfg.Host,
		"output.client": cfg.Client,
		"output.types":  cfg.Types,
	}
	seen := map[string]string{}
	for _, key := range []string{"output.host", "output.client", "output.types"} {
		p := strings.TrimSpace(paths[key])
		if p == "" {
			errs = append(errs, fmt.Errorf("%w: %s is required", ErrEmptyOutput, key))
			continue
		}
		if other, ok := seen[p]; ok {
			errs = append(errs, fmt.Errorf("%w: %s and %s both write %s", ErrDuplicateOutput, other, key, p))
		}
		seen[p] = key
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
