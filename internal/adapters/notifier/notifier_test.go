package notifier_test

import (
	"testing"

	"go.trai.ch/meister/internal/adapters/notifier"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func TestLogNotifier_Notify(t *testing.T) {
	compileErr := zerr.Wrap(zerr.New("unexpected token"), domain.ErrCompileFailed.Error())

	tests := []struct {
		name   string
		note   domain.Notification
		expect func(m *mocks.MockLogger)
	}{
		{
			name: "task with error",
			note: domain.Notification{Title: "scripts failed to compile", Task: "scripts", Err: compileErr},
			expect: func(m *mocks.MockLogger) {
				gomock.InOrder(
					m.EXPECT().Warn("scripts failed to compile", "task", "scripts"),
					m.EXPECT().Error(compileErr),
				)
			},
		},
		{
			name: "headline only",
			note: domain.Notification{Title: "nothing to rebuild"},
			expect: func(m *mocks.MockLogger) {
				m.EXPECT().Warn("nothing to rebuild")
			},
		},
		{
			name: "default title",
			note: domain.Notification{Task: "styles", Err: compileErr},
			expect: func(m *mocks.MockLogger) {
				m.EXPECT().Warn("build problem", "task", "styles")
				m.EXPECT().Error(compileErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := mocks.NewMockLogger(gomock.NewController(t))
			tt.expect(log)
			notifier.New(log).Notify(tt.note)
		})
	}
}
