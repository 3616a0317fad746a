// Package catalog maintains the simple reference entities consumed by
// ticket entry: trucks, materials, and the read side of the jobs cache.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"yard-ticketing/internal/models"
)

// DuplicateError reports an attempt to add a reference row whose unique
// display field already exists.
type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string { return e.Message }

type Store struct {
	Bun *bun.DB
}

// ListActiveJobs returns the selectable jobs for ticket entry, ordered by
// code. Inactive jobs stay in the cache but are not offered.
func (s *Store) ListActiveJobs(ctx context.Context) ([]models.JobCacheEntry, error) {
	var jobs []models.JobCacheEntry
	err := s.Bun.NewSelect().
		Model(&jobs).
		Where("active = ?", true).
		Order("job_code").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListTrucks returns trucks ordered by number; activeOnly restricts to the
// entry picker's view.
func (s *Store) ListTrucks(ctx context.Context, activeOnly bool) ([]models.Truck, error) {
	var trucks []models.Truck
	q := s.Bun.NewSelect().Model(&trucks)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("truck_number").Scan(ctx); err != nil {
		return nil, err
	}
	return trucks, nil
}

func (s *Store) ListMaterials(ctx context.Context, activeOnly bool) ([]models.Material, error) {
	var materials []models.Material
	q := s.Bun.NewSelect().Model(&materials)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("material_name").Scan(ctx); err != nil {
		return nil, err
	}
	return materials, nil
}

func (s *Store) AddTruck(ctx context.Context, truck *models.Truck) error {
	truck.TruckNumber = strings.TrimSpace(truck.TruckNumber)
	if truck.TruckNumber == "" {
		return &DuplicateError{Message: "truck number is required"}
	}

	exists, err := s.Bun.NewSelect().
		Model((*models.Truck)(nil)).
		Where("truck_number = ?", truck.TruckNumber).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return &DuplicateError{Message: "truck number already exists"}
	}

	truck.Active = true
	if _, err := s.Bun.NewInsert().Model(truck).Exec(ctx); err != nil {
		return fmt.Errorf("failed to add truck %s: %w", truck.TruckNumber, err)
	}
	return nil
}

func (s *Store) ToggleTruck(ctx context.Context, id int64) error {
	res, err := s.Bun.NewUpdate().
		Model((*models.Truck)(nil)).
		Set("active = NOT active").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRow(res, "truck", id)
}

func (s *Store) AddMaterial(ctx context.Context, material *models.Material) error {
	material.MaterialName = strings.TrimSpace(material.MaterialName)
	if material.MaterialName == "" {
		return &DuplicateError{Message: "material name is required"}
	}

	exists, err := s.Bun.NewSelect().
		Model((*models.Material)(nil)).
		Where("material_name = ?", material.MaterialName).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return &DuplicateError{Message: "material already exists"}
	}

	material.Active = true
	if _, err := s.Bun.NewInsert().Model(material).Exec(ctx); err != nil {
		return fmt.Errorf("failed to add material %s: %w", material.MaterialName, err)
	}
	return nil
}

func (s *Store) ToggleMaterial(ctx context.Context, id int64) error {
	res, err := s.Bun.NewUpdate().
		Model((*models.Material)(nil)).
		Set("active = NOT active").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRow(res, "material", id)
}

func requireRow(res interface{ RowsAffected() (int64, error) }, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d not found", kind, id)
	}
	return nil
}
