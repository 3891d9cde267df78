package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/facility-booking/internal/model"
)

type seedFile struct {
	Facilities []seedFacility `yaml:"facilities"`
}

type seedFacility struct {
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
}

// facilityCatalog is the part of repository.BookingRepo the seeder uses.
type facilityCatalog interface {
	ListFacilities(ctx context.Context) ([]model.Facility, error)
	CreateFacility(ctx context.Context, f *model.Facility) error
}

// parseSeed decodes and validates a seed document.  Names are trimmed and
// must be unique ignoring case.
func parseSeed(data []byte) ([]seedFacility, error) {
	var doc seedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(doc.Facilities) == 0 {
		return nil, errors.New("no facilities listed")
	}
	seen := make(map[string]bool, len(doc.Facilities))
	var errs []error
	for i := range doc.Facilities {
		f := &doc.Facilities[i]
		name, err := model.ValidateFacility(f.Name, f.Capacity)
		if err != nil {
			errs = append(errs, fmt.Errorf("facilities[%d]: %w", i, err))
			continue
		}
		f.Name = name
		key := strings.ToLower(name)
		if seen[key] {
			errs = append(errs, fmt.Errorf("facilities[%d]: duplicate name %q", i, name))
		}
		seen[key] = true
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return doc.Facilities, nil
}

// seedFacilities creates every item whose name is not in the catalog yet and
// returns how many were created.  Running it twice is harmless.
func seedFacilities(ctx context.Context, catalog facilityCatalog, items []seedFacility) (int, error) {
	existing, err := catalog.ListFacilities(ctx)
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, f := range existing {
		have[strings.ToLower(f.Name)] = true
	}
	created := 0
	for _, item := range items {
		if have[strings.ToLower(item.Name)] {
			continue
		}
		f := model.Facility{Name: item.Name, Capacity: item.Capacity}
		if err := catalog.CreateFacility(ctx, &f); err != nil {
			return created, fmt.Errorf("create %q: %w", item.Name, err)
		}
		have[strings.ToLower(item.Name)] = true
		created++
	}
	return created, nil
}
