package reconcile

import "errors"

var (
	// ErrTooFewSelected is returned when a match is attempted with fewer than
	// two records. A single record cannot match itself.
	ErrTooFewSelected = errors.New("at least two records are required to match")

	// ErrSameTarget is returned when a move targets the record's current master
	ErrSameTarget = errors.New("record is already linked to the target master record")

	// ErrMixedTaxonomies is returned when a match selection spans more than one
	// taxonomy. Master ids are namespaced per taxonomy, so a cross-taxonomy
	// match would link records into the wrong namespace.
	ErrMixedTaxonomies = errors.New("selected records span more than one taxonomy")

	// ErrUnknownMasterID is returned when an operation references a master
	// record that does not exist. A placeholder is never created silently.
	ErrUnknownMasterID = errors.New("master record does not exist")

	// ErrNotLinked is returned when an unmatch selection contains a record
	// that has no master record link
	ErrNotLinked = errors.New("record is not linked to a master record")

	// ErrRecordNotFound is returned when a selection references a supplier
	// record that does not exist
	ErrRecordNotFound = errors.New("supplier record does not exist")
)
