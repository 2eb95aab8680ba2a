package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// ProjectionService keeps a queryable mirror of committed mappings:
// (:SupplierRecord)-[:MAPPED_TO]->(:Master). The relational store stays the
// source of truth; the graph is rebuilt opportunistically and may lag.
type ProjectionService struct {
	client *Client
	logger ectologger.Logger
}

// NewProjectionService creates a new projection service
func NewProjectionService(client *Client, logger ectologger.Logger) *ProjectionService {
	return &ProjectionService{
		client: client,
		logger: logger,
	}
}

// ProjectMaster creates or updates a master node
func (s *ProjectionService) ProjectMaster(ctx context.Context, tenantID string, master models.MasterRecord) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ProjectionService.ProjectMaster")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"master_id": master.ID,
	})

	cypher := `
		MERGE (m:Master {id: $id, tenant_id: $tenant_id})
		SET m.taxonomy = $taxonomy,
		    m.canonical_name = $canonical_name,
		    m.primary_code = $primary_code,
		    m.is_active = $is_active
		RETURN m
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":             master.ID,
			"tenant_id":      tenantID,
			"taxonomy":       string(master.Taxonomy),
			"canonical_name": master.CanonicalName,
			"primary_code":   master.PrimaryCode,
			"is_active":      master.IsActive,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		log.WithError(err).Error("Failed to project master node")
		return fmt.Errorf("failed to project master node: %w", err)
	}

	log.Debug("Projected master node")
	return nil
}

// ProjectMappings links supplier record nodes to their master node, replacing
// any previous MAPPED_TO edge each record carried.
func (s *ProjectionService) ProjectMappings(ctx context.Context, tenantID, masterID string, records []models.SupplierRecord) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ProjectionService.ProjectMappings")
	defer span.End()

	if len(records) == 0 {
		return nil
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"master_id": masterID,
		"records":   len(records),
	})

	cypher := `
		MATCH (m:Master {id: $master_id, tenant_id: $tenant_id})
		MERGE (r:SupplierRecord {id: $record_id, tenant_id: $tenant_id})
		SET r.supplier_id = $supplier_id,
		    r.label = $label,
		    r.taxonomy = $taxonomy
		WITH m, r
		OPTIONAL MATCH (r)-[old:MAPPED_TO]->(other:Master)
		WHERE other.id <> $master_id
		DELETE old
		MERGE (r)-[rel:MAPPED_TO]->(m)
		SET rel.confidence = $confidence
		RETURN rel
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, rec := range records {
			confidence := 0
			if rec.Confidence != nil {
				confidence = *rec.Confidence
			}
			result, err := tx.Run(ctx, cypher, map[string]any{
				"master_id":   masterID,
				"tenant_id":   tenantID,
				"record_id":   rec.ID,
				"supplier_id": rec.SupplierID,
				"label":       rec.Label,
				"taxonomy":    string(rec.Taxonomy),
				"confidence":  confidence,
			})
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to project mappings")
		return fmt.Errorf("failed to project mappings: %w", err)
	}

	log.Debug("Projected mappings")
	return nil
}

// RemoveMappings deletes the MAPPED_TO edges for unmatched records. The
// record nodes stay so history queries still resolve them.
func (s *ProjectionService) RemoveMappings(ctx context.Context, tenantID string, recordIDs []string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ProjectionService.RemoveMappings")
	defer span.End()

	if len(recordIDs) == 0 {
		return nil
	}

	cypher := `
		MATCH (r:SupplierRecord {tenant_id: $tenant_id})-[rel:MAPPED_TO]->(:Master)
		WHERE r.id IN $record_ids
		DELETE rel
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"tenant_id":  tenantID,
			"record_ids": recordIDs,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to remove mappings")
		return fmt.Errorf("failed to remove mappings: %w", err)
	}

	return nil
}

// MasterSuppliers returns the supplier record ids mapped to a master node
func (s *ProjectionService) MasterSuppliers(ctx context.Context, tenantID, masterID string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.ProjectionService.MasterSuppliers")
	defer span.End()

	cypher := `
		MATCH (r:SupplierRecord)-[:MAPPED_TO]->(m:Master {id: $master_id, tenant_id: $tenant_id})
		RETURN r.id AS id
		ORDER BY id
	`

	records, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"master_id": masterID,
			"tenant_id": tenantID,
		})
		if err != nil {
			return nil, err
		}

		var ids []string
		for result.Next(ctx) {
			if id, ok := result.Record().Get("id"); ok {
				if str, ok := id.(string); ok {
					ids = append(ids, str)
				}
			}
		}
		return ids, result.Err()
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to query master suppliers")
		return nil, fmt.Errorf("failed to query master suppliers: %w", err)
	}

	ids, _ := records.([]string)
	return ids, nil
}
