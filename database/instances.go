package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Raj-Vaghela/AI-Architect/ranking"
)

// ComputeFilters are the hard constraints applied in SQL before ranking.
// Nil pointers mean "no constraint".
type ComputeFilters struct {
	GPUNeeded       *bool    `json:"gpu_needed,omitempty"`
	MinVRAMGB       *int     `json:"min_vram_gb,omitempty"`
	GPUModel        *string  `json:"gpu_model,omitempty"`
	MaxPriceMonthly *float64 `json:"max_price_monthly,omitempty"`
	Provider        *string  `json:"provider,omitempty"`
	Region          *string  `json:"region,omitempty"`
	MinVCPU         *int     `json:"min_vcpu,omitempty"`
	MinRAMGB        *float64 `json:"min_ram_gb,omitempty"`
}

// Applied returns the non-nil filters for echoing in response metadata.
func (f ComputeFilters) Applied() map[string]any {
	applied := make(map[string]any)
	if f.GPUNeeded != nil {
		applied["gpu_needed"] = *f.GPUNeeded
	}
	if f.MinVRAMGB != nil {
		applied["min_vram_gb"] = *f.MinVRAMGB
	}
	if f.GPUModel != nil {
		applied["gpu_model"] = *f.GPUModel
	}
	if f.MaxPriceMonthly != nil {
		applied["max_price_monthly"] = *f.MaxPriceMonthly
	}
	if f.Provider != nil {
		applied["provider"] = *f.Provider
	}
	if f.Region != nil {
		applied["region"] = *f.Region
	}
	if f.MinVCPU != nil {
		applied["min_vcpu"] = *f.MinVCPU
	}
	if f.MinRAMGB != nil {
		applied["min_ram_gb"] = *f.MinRAMGB
	}
	return applied
}

// SearchInstances applies the structured filters in SQL and returns the
// matching instances, capped at a working-set limit before ranking.
func (s *PostgresStore) SearchInstances(ctx context.Context, filters ComputeFilters) ([]ranking.ComputeCandidate, error) {
	var where []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.GPUNeeded != nil {
		if *filters.GPUNeeded {
			where = append(where, "gpu_count > 0")
		} else {
			where = append(where, "(gpu_count = 0 OR gpu_count IS NULL)")
		}
	}
	if filters.MinVRAMGB != nil {
		where = append(where, "gpu_memory_gb >= "+arg(*filters.MinVRAMGB))
	}
	if filters.GPUModel != nil {
		where = append(where, "LOWER(gpu_model) LIKE LOWER("+arg("%"+*filters.GPUModel+"%")+")")
	}
	if filters.MaxPriceMonthly != nil {
		where = append(where, "price_monthly <= "+arg(*filters.MaxPriceMonthly))
	}
	if filters.Provider != nil {
		where = append(where, "LOWER(provider) = LOWER("+arg(*filters.Provider)+")")
	}
	if filters.Region != nil {
		regionJSON, err := json.Marshal([]string{*filters.Region})
		if err != nil {
			return nil, fmt.Errorf("failed to encode region filter: %w", err)
		}
		where = append(where, "regions @> "+arg(string(regionJSON))+"::jsonb")
	}
	if filters.MinVCPU != nil {
		where = append(where, "cpu_threads >= "+arg(*filters.MinVCPU))
	}
	if filters.MinRAMGB != nil {
		where = append(where, "memory_gb >= "+arg(*filters.MinRAMGB))
	}
	where = append(where, "(available = true OR available IS NULL)")

	query := fmt.Sprintf(`
        SELECT
            id,
            provider,
            name,
            COALESCE(instance_type, ''),
            COALESCE(cpu_threads, 0),
            COALESCE(memory_gb, 0),
            COALESCE(gpu_count, 0),
            COALESCE(gpu_model, ''),
            COALESCE(gpu_memory_gb, 0),
            COALESCE(price_monthly, 0),
            COALESCE(price_hourly, 0),
            regions,
            COALESCE(description, '')
        FROM cloud.instances
        WHERE %s
        LIMIT 100
    `, strings.Join(where, " AND "))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search compute instances: %w", err)
	}
	defer rows.Close()

	var candidates []ranking.ComputeCandidate
	for rows.Next() {
		var c ranking.ComputeCandidate
		var regionsRaw sql.NullString
		if err := rows.Scan(
			&c.ID, &c.Provider, &c.Name, &c.InstanceType,
			&c.VCPU, &c.RAMGB, &c.GPUCount, &c.GPUModel, &c.VRAMGB,
			&c.PriceMonthly, &c.PriceHourly, &regionsRaw, &c.Description,
		); err != nil {
			return nil, err
		}
		if regionsRaw.Valid && regionsRaw.String != "" {
			// Malformed region arrays degrade to an empty list, not an error.
			_ = json.Unmarshal([]byte(regionsRaw.String), &c.Regions)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
