package teams

import (
	"context"

	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core/course"
)

var (
	ErrTeamNotFound = errors.New("team not found")

	// ErrDiscussionHidden marks a discussion the caller may not see.
	ErrDiscussionHidden = errors.New("discussion is hidden from user")
)

// Team is a group of learners within a course, optionally tied to a
// discussion of its own.
type Team struct {
	ID                string           `json:"id"`
	CourseKey         course.CourseKey `json:"course_key"`
	Name              string           `json:"name"`
	DiscussionTopicID string           `json:"discussion_topic_id"`
}

// Repository gives access to course teams and their membership.
type Repository interface {
	// GetTeamByDiscussion returns the team owning the discussion, or
	// ErrTeamNotFound when the discussion belongs to no team.
	GetTeamByDiscussion(ctx context.Context, discussionID string) (Team, error)
	// IsMember reports whether the user belongs to the team.
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
}

type Service struct {
	teams Repository
}

func NewService(teams Repository) *Service {
	return &Service{teams: teams}
}

// teamDiscussionPrivate reports whether the team hides its discussion from
// non-members. Any team-owned discussion is private for now.
// TODO(teams): read a per-team visibility setting once teams carry one.
func teamDiscussionPrivate(team *Team) bool {
	return team != nil
}

// DiscussionVisibleToUser reports whether the user may see the discussion.
// A discussion is hidden only when it belongs to a team, the team hides its
// discussion, and the user is not a member.
func (svc *Service) DiscussionVisibleToUser(ctx context.Context, discussionID, userID string) (bool, error) {
	var team *Team
	found, err := svc.teams.GetTeamByDiscussion(ctx, discussionID)
	if err != nil {
		if errors.Cause(err) == ErrTeamNotFound {
			// the discussion belongs to no team, visible in any context
			return true, nil
		}
		return false, errors.Wrap(err, "getting team by discussion")
	}
	team = &found

	if !teamDiscussionPrivate(team) {
		return true, nil
	}
	member, err := svc.teams.IsMember(ctx, team.ID, userID)
	if err != nil {
		return false, errors.Wrap(err, "checking team membership")
	}
	return member, nil
}
