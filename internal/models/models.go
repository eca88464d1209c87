// package models defines the data model for the reader print service
package models

import (
	"time"
)

// Record is a row of print history.
type Record interface {
	ID() string
	CreatedAt() time.Time
	Validate() error
}

// Repository stores history records. Rows are never modified after Create.
type Repository[T Record] interface {
	Create(record T) error
	LatestForIdentifier(identifier string) (T, error)
	List(criteria map[string]any) ([]T, error)
}
