package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clinsynth/internal/domain"
)

type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
