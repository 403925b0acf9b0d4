// Package mocks provides mock implementations of the key use cases for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
)

// MockKeyUseCase is a mock implementation of KeyUseCase for testing.
type MockKeyUseCase struct {
	mock.Mock
}

// GenerateFileKeys mocks the GenerateFileKeys method of KeyUseCase.
func (m *MockKeyUseCase) GenerateFileKeys(
	ctx context.Context,
	input *cryptoDomain.GenerateFileKeysInput,
) (*cryptoDomain.GenerateFileKeysOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.GenerateFileKeysOutput), args.Error(1)
}

// UnwrapFileKeys mocks the UnwrapFileKeys method of KeyUseCase.
func (m *MockKeyUseCase) UnwrapFileKeys(
	ctx context.Context,
	input *cryptoDomain.UnwrapFileKeysInput,
) (*cryptoDomain.UnwrapFileKeysOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.UnwrapFileKeysOutput), args.Error(1)
}

// RevokeToken mocks the RevokeToken method of KeyUseCase.
func (m *MockKeyUseCase) RevokeToken(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

// RevokeAllTokens mocks the RevokeAllTokens method of KeyUseCase.
func (m *MockKeyUseCase) RevokeAllTokens(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockRotationUseCase is a mock implementation of RotationUseCase for testing.
type MockRotationUseCase struct {
	mock.Mock
}

// RotateMasterKeys mocks the RotateMasterKeys method of RotationUseCase.
func (m *MockRotationUseCase) RotateMasterKeys(
	ctx context.Context,
	folder, accessToken string,
) (*cryptoDomain.RotationResult, error) {
	args := m.Called(ctx, folder, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.RotationResult), args.Error(1)
}
