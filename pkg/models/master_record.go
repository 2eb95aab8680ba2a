package models

import "time"

// MasterRecord is one canonical, wholesaler-owned taxonomy entry.
// The id is permanent: unmatching clears links to it, never the id itself,
// and an id is never reused for a different concept.
type MasterRecord struct {
	ID             string     `json:"id" db:"id"`
	TenantID       string     `json:"tenant_id" db:"tenant_id"`
	Taxonomy       Taxonomy   `json:"taxonomy" db:"taxonomy"`
	CanonicalName  string     `json:"canonical_name" db:"canonical_name"`
	PrimaryCode    string     `json:"primary_code" db:"primary_code"`
	StandardCode   string     `json:"standard_code" db:"standard_code"`
	AlternateNames StringList `json:"alternate_names" db:"alternate_names"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// MasterRecordDetail is a master record with its derived, read-time stats
type MasterRecordDetail struct {
	MasterRecord
	MappedCount int      `json:"mapped_count"`
	SupplierSet []string `json:"supplier_set"`
}

// MasterRecordListResponse is the response for listing master records
type MasterRecordListResponse struct {
	Items      []MasterRecord `json:"items"`
	TotalCount int            `json:"total_count"`
}

// SupplierRecordListResponse is the response for listing supplier records
type SupplierRecordListResponse struct {
	Items      []SupplierRecord `json:"items"`
	TotalCount int              `json:"total_count"`
}
