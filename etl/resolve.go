package etl

import (
	"context"
	"fmt"
	"strings"

	"github.com/tribodata/oilwatch_backend/models"
	"gorm.io/gorm"
)

// entityResolver resolves organization/machine/component names against the
// reference tables. It never creates reference records; an unknown name
// fails the row. Lookups are memoized per ingestion run (thousands of rows
// share the same few machines), including negative results. The cache is
// scoped to one run and one goroutine; it is not safe for concurrent use.
type entityResolver struct {
	db         *gorm.DB
	orgs       map[string]orgEntry
	machines   map[string]machineEntry
	components map[string]componentEntry
}

type orgEntry struct {
	org *models.Organization
	err error
}

type machineEntry struct {
	machine *models.Machine
	err     error
}

type componentEntry struct {
	component *models.Component
	err       error
}

func newEntityResolver(db *gorm.DB) *entityResolver {
	return &entityResolver{
		db:         db,
		orgs:       map[string]orgEntry{},
		machines:   map[string]machineEntry{},
		components: map[string]componentEntry{},
	}
}

// resolved holds the reference records matched for one row. Any of the
// three may be nil when the corresponding name cell was empty.
type resolved struct {
	Organization *models.Organization
	Machine      *models.Machine
	Component    *models.Component
}

func (r *entityResolver) resolve(ctx context.Context, rec *rowRecord) (resolved, error) {
	org, err := r.resolveOrganization(ctx, rec.OrganizationName)
	if err != nil {
		return resolved{}, &rowError{Row: rec.RowNumber, LabNumber: rec.Report.LabNumber, Message: err.Error()}
	}

	machine, err := r.resolveMachine(ctx, rec.MachineName, rec.Report.SerialNumberCode, org)
	if err != nil {
		return resolved{}, &rowError{Row: rec.RowNumber, LabNumber: rec.Report.LabNumber, Message: err.Error()}
	}

	component, err := r.resolveComponent(ctx, rec.ComponentName, machine)
	if err != nil {
		return resolved{}, &rowError{Row: rec.RowNumber, LabNumber: rec.Report.LabNumber, Message: err.Error()}
	}

	return resolved{Organization: org, Machine: machine, Component: component}, nil
}

func (r *entityResolver) resolveOrganization(ctx context.Context, name string) (*models.Organization, error) {
	if name == "" {
		return nil, nil
	}

	key := strings.ToLower(name)
	if entry, ok := r.orgs[key]; ok {
		return entry.org, entry.err
	}

	var orgs []models.Organization
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ? AND is_active = ?", key, true).
		Limit(1).Find(&orgs).Error
	if err != nil {
		return nil, err
	}

	entry := orgEntry{}
	if len(orgs) == 0 {
		entry.err = fmt.Errorf("Organization '%s' not found", name)
	} else {
		entry.org = &orgs[0]
	}
	r.orgs[key] = entry
	return entry.org, entry.err
}

func (r *entityResolver) resolveMachine(ctx context.Context, name string, serialNumber string, org *models.Organization) (*models.Machine, error) {
	if name == "" {
		return nil, nil
	}

	orgId := 0
	if org != nil {
		orgId = org.ID
	}
	key := fmt.Sprintf("%d|%s|%s", orgId, strings.ToLower(name), strings.ToLower(serialNumber))
	if entry, ok := r.machines[key]; ok {
		return entry.machine, entry.err
	}

	var machines []models.Machine
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND LOWER(name) = ? AND LOWER(serial_number) = ? AND is_active = ?",
			orgId, strings.ToLower(name), strings.ToLower(serialNumber), true).
		Limit(2).Find(&machines).Error
	if err != nil {
		return nil, err
	}

	entry := machineEntry{}
	switch len(machines) {
	case 0:
		entry.err = fmt.Errorf("Machine '%s' not found", name)
	case 1:
		entry.machine = &machines[0]
	default:
		// Ambiguity is a distinct failure from "not found": the row cannot
		// safely pick either machine.
		entry.err = fmt.Errorf("Multiple machines found with name '%s'", name)
	}
	r.machines[key] = entry
	return entry.machine, entry.err
}

func (r *entityResolver) resolveComponent(ctx context.Context, name string, machine *models.Machine) (*models.Component, error) {
	if name == "" || machine == nil {
		return nil, nil
	}

	normalized := strings.Join(strings.Fields(name), " ")
	key := fmt.Sprintf("%d|%s", machine.ID, strings.ToLower(normalized))
	if entry, ok := r.components[key]; ok {
		return entry.component, entry.err
	}

	var components []models.Component
	err := r.db.WithContext(ctx).
		Joins("JOIN machine_types ON machine_types.id = components.type_id").
		Where("components.machine_id = ? AND LOWER(machine_types.name) = ? AND components.is_active = ?",
			machine.ID, strings.ToLower(normalized), true).
		Limit(1).Find(&components).Error
	if err != nil {
		return nil, err
	}

	entry := componentEntry{}
	if len(components) == 0 {
		entry.err = fmt.Errorf("Component '%s' not found", normalized)
	} else {
		entry.component = &components[0]
	}
	r.components[key] = entry
	return entry.component, entry.err
}
