package deduction

import "context"

type DeductionService interface {
	CreateDefinition(ctx context.Context, req CreateDefinitionRequest) (DefinitionResponse, error)
	GetDefinition(ctx context.Context, id string) (DefinitionResponse, error)
	ListDefinitions(ctx context.Context, query ListDefinitionsQuery) ([]DefinitionResponse, error)
	DeactivateDefinition(ctx context.Context, id string) error
	Preview(ctx context.Context, req PreviewRequest) (Result, error)
}
