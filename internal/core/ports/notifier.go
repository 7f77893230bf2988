package ports

import "go.trai.ch/meister/internal/core/domain"

// Notifier reports compile failures to the user.
//
//go:generate mockgen -source=notifier.go -destination=mocks/mock_notifier.go -package=mocks
type Notifier interface {
	Notify(n domain.Notification)
}
