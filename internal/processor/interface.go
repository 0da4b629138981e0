package processor

import (
	"github.com/mauv0809/warlord-swiss/internal/notifier"
	"github.com/mauv0809/warlord-swiss/internal/store"
)

// Store defines the database operations required by the processor.
type Store interface {
	store.TournamentStore
}

// Notifier defines the notification operations required by the processor.
// This is an alias for the main notifier interface for decoupling.
type Notifier interface {
	notifier.Notifier
}
