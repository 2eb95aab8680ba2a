package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RecordStatus is the reconciliation state of a supplier record
type RecordStatus string

const (
	// RecordStatusPending means the record is not linked to a master record
	RecordStatusPending RecordStatus = "pending"
	// RecordStatusMapped means the record is linked to a master record
	RecordStatusMapped RecordStatus = "mapped"
	// RecordStatusNeedsReview means automatic matching found a conflict;
	// only a human action (manual match or move) clears it
	RecordStatusNeedsReview RecordStatus = "needs_review"
)

// Taxonomy identifies which taxonomy dimension a record belongs to
type Taxonomy string

const (
	TaxonomyNationality Taxonomy = "nationality"
	TaxonomyCountry     Taxonomy = "country"
	TaxonomyCity        Taxonomy = "city"
	TaxonomyHotel       Taxonomy = "hotel"
)

// MasterIDPrefix returns the master id namespace for this taxonomy.
// Master ids are namespaced so a nationality id can never collide with a city id.
func (t Taxonomy) MasterIDPrefix() string {
	switch t {
	case TaxonomyNationality:
		return "ORG_NAT_"
	case TaxonomyCountry:
		return "ORG_CTY_"
	case TaxonomyCity:
		return "ORG_CIT_"
	case TaxonomyHotel:
		return "ORG_HTL_"
	default:
		return ""
	}
}

// Valid reports whether the taxonomy is one of the known dimensions
func (t Taxonomy) Valid() bool {
	return t.MasterIDPrefix() != ""
}

// SupplierRecord is one taxonomy value as reported by one upstream supplier
type SupplierRecord struct {
	ID              string       `json:"id" db:"id"`
	TenantID        string       `json:"tenant_id" db:"tenant_id"`
	Taxonomy        Taxonomy     `json:"taxonomy" db:"taxonomy"`
	SupplierID      string       `json:"supplier_id" db:"supplier_id"`
	SupplierName    string       `json:"supplier_name" db:"supplier_name"`
	SupplierLocalID string       `json:"supplier_local_id" db:"supplier_local_id"`
	Label           string       `json:"label" db:"label"`
	LocalCode       *string      `json:"local_code,omitempty" db:"local_code"`
	CountryHint     *string      `json:"country_hint,omitempty" db:"country_hint"`
	CountryCodeHint *string      `json:"country_code_hint,omitempty" db:"country_code_hint"`
	MasterID        *string      `json:"master_id,omitempty" db:"master_id"`
	Status          RecordStatus `json:"status" db:"status"`
	Confidence      *int         `json:"confidence,omitempty" db:"confidence"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" db:"updated_at"`
}

// HasMaster reports whether the record is linked to a master record
func (r *SupplierRecord) HasMaster() bool {
	return r.MasterID != nil && *r.MasterID != ""
}

// Code returns the record's local code, or empty when unset
func (r *SupplierRecord) Code() string {
	if r.LocalCode == nil {
		return ""
	}
	return *r.LocalCode
}

// FeedRecord is one raw taxonomy row as delivered by a supplier feed
type FeedRecord struct {
	LocalID         string  `json:"local_id" validate:"required"`
	Label           string  `json:"label" validate:"required"`
	LocalCode       *string `json:"local_code,omitempty"`
	CountryHint     *string `json:"country_hint,omitempty"`
	CountryCodeHint *string `json:"country_code_hint,omitempty"`
}

// ResyncRequest is the payload for a pull-style supplier feed resync
type ResyncRequest struct {
	Taxonomy     Taxonomy     `json:"taxonomy" validate:"required"`
	SupplierID   string       `json:"supplier_id" validate:"required"`
	SupplierName string       `json:"supplier_name" validate:"required"`
	Records      []FeedRecord `json:"records" validate:"required,dive"`
}

// ResyncResult reports what a feed resync changed
type ResyncResult struct {
	Received int `json:"received"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Dropped  int `json:"dropped"`
}

// StringList is a JSONB-backed string slice column
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(l))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(l))
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

// Contains reports whether the list contains s
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}
