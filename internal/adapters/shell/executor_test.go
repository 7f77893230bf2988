package shell_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/meister/internal/adapters/shell"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestExecutor_Execute_Stdout(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	executor := shell.NewExecutor(mockLogger)

	var stdout bytes.Buffer
	err := executor.Execute(t.Context(), domain.Command{
		Args: []string{"sh", "-c", "printf 'body{color:red}'"},
		Dir:  t.TempDir(),
	}, &stdout, nil)

	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", stdout.String())
}

func TestExecutor_Execute_StderrIsLoggedPerLine(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	gomock.InOrder(
		mockLogger.EXPECT().Debug("line1", "command", "sh"),
		mockLogger.EXPECT().Debug("part1part2", "command", "sh"),
	)

	executor := shell.NewExecutor(mockLogger)

	var stderr bytes.Buffer
	err := executor.Execute(t.Context(), domain.Command{
		Args: []string{"sh", "-c", "echo line1 >&2; printf part1 >&2; sleep 0.05; printf part2 >&2"},
	}, nil, &stderr)

	require.NoError(t, err)
	assert.Equal(t, "line1\npart1part2", stderr.String())
}

func TestExecutor_Execute_Failure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()

	executor := shell.NewExecutor(mockLogger)

	err := executor.Execute(t.Context(), domain.Command{
		Args: []string{"sh", "-c", "echo 'Error: Undefined variable.' >&2; exit 3"},
	}, nil, nil)

	require.ErrorContains(t, err, "command failed")
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestExecutor_Execute_Env(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := shell.NewExecutor(mocks.NewMockLogger(ctrl))

	t.Setenv("MEISTER_TEST_BASE", "base")

	var stdout bytes.Buffer
	err := executor.Execute(t.Context(), domain.Command{
		Args: []string{"sh", "-c", "printf '%s-%s' \"$MEISTER_TEST_BASE\" \"$MEISTER_TEST_EXTRA\""},
		Env:  []string{"MEISTER_TEST_EXTRA=extra"},
	}, &stdout, nil)

	require.NoError(t, err)
	assert.Equal(t, "base-extra", stdout.String())
}

func TestExecutor_Execute_EmptyCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := shell.NewExecutor(mocks.NewMockLogger(ctrl))

	require.NoError(t, executor.Execute(t.Context(), domain.Command{}, nil, nil))
}

func TestExecutor_Execute_MissingBinary(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := shell.NewExecutor(mocks.NewMockLogger(ctrl))

	err := executor.Execute(t.Context(), domain.Command{
		Args: []string{"meister-no-such-binary-" + os.Getenv("USER")},
	}, nil, nil)

	require.ErrorContains(t, err, "command failed")
}
