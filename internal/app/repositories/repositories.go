package repositories

import (
	"github.com/Masterminds/squirrel"
	"github.com/yigit/storetrainer/internal/db"
)

// psql builds PostgreSQL statements with $n placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository          *UserRepository
	PostRepository          *PostRepository
	EventRepository         *EventRepository
	ParticipationRepository *ParticipationRepository
	StatsRepository         *StatsRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		UserRepository:          NewUserRepository(database.Pool),
		PostRepository:          NewPostRepository(database.Pool, database),
		EventRepository:         NewEventRepository(database.Pool),
		ParticipationRepository: NewParticipationRepository(database.Pool, database),
		StatsRepository:         NewStatsRepository(database.Pool),
	}
}
