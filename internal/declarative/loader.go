package declarative

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadOptions configures YAML loading behavior.
type LoadOptions struct {
	AllowUnknownFields bool
}

// LoadDirectory reads every .yaml/.yml file in the directory (sorted by
// name, non-recursive) and merges them into one desired state. A file's
// kind field decides what it declares.
func LoadDirectory(dir string) (*DesiredState, error) {
	return LoadDirectoryWithOptions(dir, LoadOptions{})
}

// LoadDirectoryWithOptions reads a config directory using caller-provided
// loading options.
func LoadDirectoryWithOptions(dir string, opts LoadOptions) (*DesiredState, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("config directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config directory: %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read config directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	state := &DesiredState{}
	for _, path := range paths {
		if err := loadFile(path, state, opts); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// LoadFile reads a single YAML document into a desired state.
func LoadFile(path string) (*DesiredState, error) {
	state := &DesiredState{}
	if err := loadFile(path, state, LoadOptions{}); err != nil {
		return nil, err
	}
	return state, nil
}

// header is the envelope every document carries.
type header struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
}

func loadFile(path string, state *DesiredState, opts LoadOptions) error {
	data, err := os.ReadFile(path) //nolint:gosec // intentional: reading user-specified config files
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var head header
	if err := yaml.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if head.APIVersion != SupportedAPIVersion {
		return fmt.Errorf("%s: unsupported apiVersion %q (expected %q)", path, head.APIVersion, SupportedAPIVersion)
	}

	switch head.Kind {
	case KindNameMappingList:
		var doc MappingListDoc
		if err := decodeYAML(path, data, &doc, opts); err != nil {
			return err
		}
		state.Mappings = append(state.Mappings, doc.Mappings...)
	case KindNameDocumentTypeList:
		var doc DocumentTypeListDoc
		if err := decodeYAML(path, data, &doc, opts); err != nil {
			return err
		}
		state.DocumentTypes = append(state.DocumentTypes, doc.DocumentTypes...)
	default:
		return fmt.Errorf("%s: unknown kind %q", path, head.Kind)
	}
	return nil
}

// decodeYAML unmarshals a document, rejecting unknown fields unless the
// options allow them.
func decodeYAML(path string, data []byte, target any, opts LoadOptions) error {
	if opts.AllowUnknownFields {
		if err := yaml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
