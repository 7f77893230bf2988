package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/meister/internal/adapters/metrics"
	"go.trai.ch/meister/internal/app"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newComponents(t *testing.T) (*app.Components, *mocks.MockConfigLoader, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().SetJSON(gomock.Any()).AnyTimes()
	log.EXPECT().SetVerbose(gomock.Any()).AnyTimes()

	application := app.New(loader, nil, nil, nil, nil, nil, nil, metrics.NoopRecorder{}, log)
	return &app.Components{App: application, Logger: log}, loader, log
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	components, _, _ := newComponents(t)
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return components, func() {}, nil
	}

	exitCode := run(context.Background(), []string{"version"}, new(bytes.Buffer), provider)
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run logs the error and returns 1 when the command fails.
func TestRun_ExecutionError(t *testing.T) {
	components, loader, log := newComponents(t)
	loader.EXPECT().Load(gomock.Any()).Return(nil, domain.ErrConfigNotFound)
	log.EXPECT().Error(gomock.Any()).Times(1)

	provider := func(_ context.Context) (*app.Components, func(), error) {
		return components, func() {}, nil
	}

	exitCode := run(context.Background(), []string{"build"}, new(bytes.Buffer), provider)
	assert.Equal(t, 1, exitCode)
}

// TestRun_AppliesOptions verifies that options are applied to the app before execution.
func TestRun_AppliesOptions(t *testing.T) {
	components, _, _ := newComponents(t)
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return components, func() {}, nil
	}

	applied := false
	exitCode := run(context.Background(), []string{"version"}, new(bytes.Buffer), provider, func(a *app.App) {
		applied = a == components.App
	})

	assert.Equal(t, 0, exitCode)
	assert.True(t, applied)
}
