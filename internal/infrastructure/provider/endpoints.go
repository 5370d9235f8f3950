package provider

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"lof-premium-service/internal/domain"

	"gopkg.in/yaml.v3"
)

const defaultBaseURL = "https://www.jisilu.cn"

//go:embed endpoints.yaml
var defaultTableYAML []byte

// FieldMap names the upstream cell fields for one endpoint family.
type FieldMap struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Price     string `yaml:"price"`
	ChangePct string `yaml:"change_pct"`
	NAV       string `yaml:"nav"`
	Estimate  string `yaml:"estimate"`
	// Premium lists candidate fields; the first one carrying a value wins.
	Premium []string `yaml:"premium"`
	Volume  string   `yaml:"volume"`
	Status  string   `yaml:"status"`
}

type Endpoint struct {
	Name     string            `yaml:"name"`
	Category domain.Category   `yaml:"category"`
	Family   string            `yaml:"family"`
	Path     string            `yaml:"path"`
	Referer  string            `yaml:"referer"`
	Params   map[string]string `yaml:"params"`

	Fields FieldMap `yaml:"-"`
}

type Table struct {
	BaseURL   string              `yaml:"base_url"`
	PageSize  int                 `yaml:"page_size"`
	Families  map[string]FieldMap `yaml:"families"`
	Endpoints []Endpoint          `yaml:"endpoints"`
}

// DefaultTable returns the built-in endpoint table.
func DefaultTable() (Table, error) {
	return ParseTable(defaultTableYAML)
}

// LoadTable reads an endpoint table file; an empty path selects the built-in table.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read endpoints file: %w", err)
	}
	return ParseTable(data)
}

// ParseTable expands ${VAR} references, decodes the YAML and resolves each endpoint's
// field family.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &t); err != nil {
		return Table{}, fmt.Errorf("parse endpoints yaml: %w", err)
	}
	if strings.TrimSpace(t.BaseURL) == "" {
		t.BaseURL = defaultBaseURL
	}
	t.BaseURL = strings.TrimRight(t.BaseURL, "/")
	if len(t.Endpoints) == 0 {
		return Table{}, errors.New("endpoints: table is empty")
	}
	seen := make(map[string]bool, len(t.Endpoints))
	for i := range t.Endpoints {
		ep := &t.Endpoints[i]
		if ep.Name == "" || ep.Path == "" {
			return Table{}, fmt.Errorf("endpoints[%d]: name and path are required", i)
		}
		if seen[ep.Name] {
			return Table{}, fmt.Errorf("endpoints[%d]: duplicate name %q", i, ep.Name)
		}
		seen[ep.Name] = true
		if _, err := domain.ParseCategory(string(ep.Category)); err != nil {
			return Table{}, fmt.Errorf("endpoint %s: %w: %q", ep.Name, err, ep.Category)
		}
		fields, ok := t.Families[ep.Family]
		if !ok {
			return Table{}, fmt.Errorf("endpoint %s: unknown field family %q", ep.Name, ep.Family)
		}
		if fields.ID == "" {
			return Table{}, fmt.Errorf("field family %s: id field is required", ep.Family)
		}
		ep.Fields = fields
	}
	return t, nil
}
