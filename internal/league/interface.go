package league

import "context"

// Store is the persistence collaborator for the Player Directory and the Match
// Ledger. Every read or write happens inside a transaction handed to fn.
type Store interface {
	// Update runs fn in a read-write transaction. Update calls are serialized;
	// the transaction commits only if fn returns nil.
	Update(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn in a transaction that is always rolled back. It never
	// observes an Update that has not committed.
	View(ctx context.Context, fn func(tx Tx) error) error
	// Vacuum compacts the database file.
	Vacuum(ctx context.Context) error
}

// Tx exposes the directory and ledger operations within one transaction.
type Tx interface {
	// Player Directory
	GetPlayer(id string) (*Player, error)
	ListPlayers() ([]Player, error)
	CreatePlayer(p Player) error
	SetPlayerStates(states map[string]PlayerState) error

	// Match Ledger
	AppendMatch(fields MatchFields) (int64, error)
	GetMatch(id int64) (*Match, error)
	EditMatch(id int64, fields MatchFields) error
	DeleteMatch(id int64) error
	ListMatches(filter MatchFilter) ([]Match, error)
}
