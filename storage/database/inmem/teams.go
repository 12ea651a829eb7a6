package inmemdb

import (
	"context"

	"github.com/darasa-app/darasa/core/teams"
)

type teamRepository struct {
	db *DB
}

var _ teams.Repository = (*teamRepository)(nil)

func NewTeamRepository(db *DB) *teamRepository {
	return &teamRepository{db: db}
}

func (repo *teamRepository) AddTeam(team teams.Team, memberIDs ...string) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.teams[team.ID] = &team
	repo.db.members[team.ID] = append(repo.db.members[team.ID], memberIDs...)
}

func (repo *teamRepository) GetTeamByDiscussion(ctx context.Context, discussionID string) (teams.Team, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, team := range repo.db.teams {
		if team.DiscussionTopicID == discussionID {
			return *team, nil
		}
	}
	return teams.Team{}, teams.ErrTeamNotFound
}

func (repo *teamRepository) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, id := range repo.db.members[teamID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}
