package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/awmpietro/golang-workflow-volume/internal/region"
	"github.com/awmpietro/golang-workflow-volume/internal/workflow"
)

// DomainFile is the YAML layout of WORKFLOW_DOMAIN_FILE:
//
//	entry: in
//	rating: x + m + a + s
//	attributes:
//	  - {name: x, lo: 1, hi: 4001}
//
// Bounds are half-open.
type DomainFile struct {
	Entry      string          `yaml:"entry"`
	Rating     string          `yaml:"rating"`
	Attributes []AttributeSpec `yaml:"attributes"`
}

type AttributeSpec struct {
	Name string `yaml:"name"`
	Lo   int64  `yaml:"lo"`
	Hi   int64  `yaml:"hi"`
}

// Settings is what the compiler and service need from configuration.
type Settings struct {
	Domain region.Domain
	Entry  string
	Rating string
}

func ReadDomainFile(path string) (*DomainFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read domain file: %w", err)
	}
	return ParseDomainFile(raw)
}

func ParseDomainFile(raw []byte) (*DomainFile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var f DomainFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode domain file: %w", err)
	}
	return &f, nil
}

func (f *DomainFile) Domain() (region.Domain, error) {
	attrs := make([]region.Attribute, 0, len(f.Attributes))
	for _, a := range f.Attributes {
		attrs = append(attrs, region.Attribute{Name: a.Name, Bounds: region.Interval{Lo: a.Lo, Hi: a.Hi}})
	}
	return region.NewDomain(attrs...)
}

// ParseDomainSpec reads "name:lo:hi" entries separated by commas.
func ParseDomainSpec(s string) (region.Domain, error) {
	var attrs []region.Attribute
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ":")
		if len(fields) != 3 {
			return region.Domain{}, fmt.Errorf("invalid attribute %q (expected name:lo:hi)", part)
		}
		lo, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
		if err != nil {
			return region.Domain{}, fmt.Errorf("invalid lower bound in %q: %w", part, err)
		}
		hi, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
		if err != nil {
			return region.Domain{}, fmt.Errorf("invalid upper bound in %q: %w", part, err)
		}
		attrs = append(attrs, region.Attribute{Name: strings.TrimSpace(fields[0]), Bounds: region.Interval{Lo: lo, Hi: hi}})
	}
	return region.NewDomain(attrs...)
}

// Settings resolves the domain from the file, then the inline attribute list, then the
// default. Env values for entry and rating override the file.
func (r Runtime) Settings() (Settings, error) {
	s := Settings{Domain: region.DefaultDomain(), Entry: workflow.DefaultEntry}

	switch {
	case r.DomainFile != "":
		f, err := ReadDomainFile(r.DomainFile)
		if err != nil {
			return Settings{}, err
		}
		d, err := f.Domain()
		if err != nil {
			return Settings{}, fmt.Errorf("domain file %s: %w", r.DomainFile, err)
		}
		s.Domain = d
		if f.Entry != "" {
			s.Entry = f.Entry
		}
		s.Rating = f.Rating
	case r.DomainSpec != "":
		d, err := ParseDomainSpec(r.DomainSpec)
		if err != nil {
			return Settings{}, fmt.Errorf("WORKFLOW_DOMAIN: %w", err)
		}
		s.Domain = d
	}

	if r.Entry != "" {
		s.Entry = r.Entry
	}
	if r.Rating != "" {
		s.Rating = r.Rating
	}
	return s, nil
}
