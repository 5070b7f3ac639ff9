package department

import "time"

type Department struct {
	ID               string
	Name             string
	Code             string
	IsHumanResources bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
