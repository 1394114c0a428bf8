package sources

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/JonMunkholm/ordersync/internal/core"
	"gopkg.in/yaml.v3"
)

// overrideFile is the layout of a header map override file:
//
//	sources:
//	  dropshipping_es:
//	    headers:
//	      "Guía transportadora": tracking_number
//	  my_store:
//	    label: My Store
//	    headers:
//	      "Pedido": external_id
type overrideFile struct {
	Sources map[string]struct {
		Label   string            `yaml:"label"`
		Headers map[string]string `yaml:"headers"`
	} `yaml:"sources"`
}

// LoadOverrides reads a YAML header map file and merges its aliases into the
// registry. Sources not yet registered are created. Every alias must name a
// canonical field; all unknown fields are reported together.
func LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read header map file: %w", err)
	}
	return ApplyOverrides(data)
}

// ApplyOverrides merges header aliases from YAML data into the registry.
func ApplyOverrides(data []byte) error {
	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse header map file: %w", err)
	}

	keys := make([]string, 0, len(file.Sources))
	for k := range file.Sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []string
	parsed := make(map[string]core.HeaderMap, len(keys))
	for _, key := range keys {
		headers := make(core.HeaderMap, len(file.Sources[key].Headers))
		for header, field := range file.Sources[key].Headers {
			f := core.Field(strings.TrimSpace(field))
			if !core.IsKnownField(f) {
				errs = append(errs, fmt.Sprintf("%s: header %q maps to unknown field %q", key, header, field))
				continue
			}
			headers[header] = f
		}
		parsed[key] = headers
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("invalid header map file:\n  - %s", strings.Join(errs, "\n  - "))
	}

	for _, key := range keys {
		if _, exists := core.GetSource(key); !exists {
			core.RegisterSource(core.SourceDefinition{Key: key, Label: file.Sources[key].Label})
		}
		core.MergeHeaders(key, parsed[key])
	}
	return nil
}
