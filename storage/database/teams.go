package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core/course"
	"github.com/darasa-app/darasa/core/teams"
)

type teamRepository struct {
	db *sqlx.DB
}

var _ teams.Repository = (*teamRepository)(nil)

func NewTeamRepository(db *sqlx.DB) *teamRepository {
	return &teamRepository{db: db}
}

type teamRow struct {
	ID                string `db:"id"`
	CourseKey         string `db:"course_key"`
	Name              string `db:"name"`
	DiscussionTopicID string `db:"discussion_topic_id"`
}

func (repo *teamRepository) GetTeamByDiscussion(ctx context.Context, discussionID string) (teams.Team, error) {
	var row teamRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT id, course_key, name, discussion_topic_id
		FROM course_team WHERE discussion_topic_id = $1`, discussionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return teams.Team{}, teams.ErrTeamNotFound
		}
		return teams.Team{}, errors.Wrap(err, "getting team by discussion")
	}
	return teams.Team{
		ID:                row.ID,
		CourseKey:         course.CourseKey(row.CourseKey),
		Name:              row.Name,
		DiscussionTopicID: row.DiscussionTopicID,
	}, nil
}

func (repo *teamRepository) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM course_team_membership WHERE team_id = $1 AND user_id = $2
		)`, teamID, userID)
	if err != nil {
		return false, errors.Wrap(err, "checking team membership")
	}
	return exists, nil
}
