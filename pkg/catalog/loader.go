package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/categories.yaml
var categoriesRawData []byte

//go:embed data/template.json5
var templateRawData []byte

//go:embed data/descriptions.json
var descriptionsRawData []byte

// Category is a display group of attributes.
type Category struct {
	ID         string   `yaml:"id" json:"id"`
	Label      string   `yaml:"label" json:"label"`
	Attributes []string `yaml:"attributes" json:"attributes"`
}

// categoriesFile is the top-level structure of the embedded YAML.
type categoriesFile struct {
	Categories []Category `yaml:"categories"`
}

var (
	categoriesOnce sync.Once
	categories     []Category
	categoriesErr  error
)

// Categories returns a copy of the display groups in column order.
func Categories() ([]Category, error) {
	categoriesOnce.Do(loadCategories)
	if categoriesErr != nil {
		return nil, categoriesErr
	}
	cp := make([]Category, len(categories))
	copy(cp, categories)
	return cp, nil
}

// loadCategories parses the embedded YAML category table.
func loadCategories() {
	var f categoriesFile
	if err := yaml.Unmarshal(categoriesRawData, &f); err != nil {
		categoriesErr = fmt.Errorf("catalog: parse categories: %w", err)
		return
	}
	categories = f.Categories
}

// Defaults provides lazy-loaded access to the embedded template and
// descriptions.
type Defaults struct {
	once         sync.Once
	template     *Template
	descriptions map[string]string
	err          error
}

// NewDefaults creates a Defaults that parses the embedded documents on first
// access.
func NewDefaults() *Defaults {
	return &Defaults{}
}

// Template returns the embedded attribute template.
func (d *Defaults) Template() (*Template, error) {
	d.once.Do(d.load)
	return d.template, d.err
}

// Descriptions returns a copy of the embedded help texts.
func (d *Defaults) Descriptions() (map[string]string, error) {
	d.once.Do(d.load)
	if d.err != nil {
		return nil, d.err
	}
	cp := make(map[string]string, len(d.descriptions))
	for k, v := range d.descriptions {
		cp[k] = v
	}
	return cp, nil
}

// TemplateDocument returns the raw embedded template.
func TemplateDocument() []byte { return append([]byte(nil), templateRawData...) }

// DescriptionsDocument returns the raw embedded descriptions.
func DescriptionsDocument() []byte { return append([]byte(nil), descriptionsRawData...) }

func (d *Defaults) load() {
	t, err := ParseTemplate(templateRawData)
	if err != nil {
		d.err = fmt.Errorf("catalog: embedded template: %w", err)
		return
	}
	desc, err := ParseDescriptions(descriptionsRawData)
	if err != nil {
		d.err = fmt.Errorf("catalog: embedded descriptions: %w", err)
		return
	}
	d.template = t
	d.descriptions = desc
}
