package services

import "context"

// DocumentChecklist reports which mandatory credit documents are still
// missing for a deal. The document store itself lives outside this system;
// only this read is consumed, during credit analysis.
type DocumentChecklist interface {
	MissingDocuments(ctx context.Context, opportunityID uint) ([]string, error)
}

// completeChecklist is the default for deployments where the document
// checklist is managed elsewhere: nothing is ever reported missing.
type completeChecklist struct{}

func (completeChecklist) MissingDocuments(ctx context.Context, opportunityID uint) ([]string, error) {
	return nil, nil
}
