package app

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/ludo-technologies/bcflow/domain"
)

type mockFileReader struct {
	mock.Mock
}

func (m *mockFileReader) CollectMethodFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	args := m.Called(paths, recursive, includePatterns, excludePatterns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockFileReader) ReadFile(path string) ([]byte, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockFileReader) IsMethodFile(path string) bool {
	args := m.Called(path)
	return args.Bool(0)
}

func (m *mockFileReader) FileExists(path string) (bool, error) {
	args := m.Called(path)
	return args.Bool(0), args.Error(1)
}

type mockStructureService struct {
	mock.Mock
}

func (m *mockStructureService) Structure(ctx context.Context, req domain.StructureRequest) (*domain.StructureResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StructureResponse), args.Error(1)
}

func (m *mockStructureService) StructureFile(ctx context.Context, filePath string, req domain.StructureRequest) ([]domain.MethodResult, error) {
	args := m.Called(ctx, filePath, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MethodResult), args.Error(1)
}

type mockOutputFormatter struct {
	mock.Mock
}

func (m *mockOutputFormatter) Format(response *domain.StructureResponse, opts domain.FormatOptions) (string, error) {
	args := m.Called(response, opts)
	return args.String(0), args.Error(1)
}

func (m *mockOutputFormatter) Write(response *domain.StructureResponse, opts domain.FormatOptions, writer io.Writer) error {
	args := m.Called(response, opts, writer)
	return args.Error(0)
}

type mockConfigurationLoader struct {
	mock.Mock
}

func (m *mockConfigurationLoader) LoadConfig(path string) (*domain.StructureRequest, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StructureRequest), args.Error(1)
}

func (m *mockConfigurationLoader) LoadDefaultConfig() *domain.StructureRequest {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.StructureRequest)
}
