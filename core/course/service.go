package course

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrCourseNotFound is returned when a course has no overview record.
var ErrCourseNotFound = errors.New("course not found")

// Course is a course run's overview record.
type Course struct {
	Key         CourseKey  `json:"key"`
	UUID        string     `json:"uuid"`
	DisplayName string     `json:"display_name"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
}

// HasEnded reports whether the course run's end date has passed.
func (c Course) HasEnded() bool {
	return c.End != nil && c.End.Before(time.Now().UTC())
}

type (
	// BlockQuery parametrizes a block-query service call.
	BlockQuery struct {
		NavDepth        int
		RequestedFields []string
		BlockTypes      []BlockType
	}

	// BlockQueryResult is the flat result of a block-query service call.
	BlockQueryResult struct {
		Root   UsageKey `json:"root"`
		Blocks BlockMap `json:"blocks"`
	}

	// BlockQuerier is the external block-query collaborator. Records are
	// returned already access-filtered for the given user, with an
	// authorization denial reason on restricted blocks.
	BlockQuerier interface {
		GetBlocks(ctx context.Context, userID string, root UsageKey, query BlockQuery) (BlockQueryResult, error)
	}

	// CompletionRepository is the external completion-tracking collaborator,
	// scoped to one (user, course) pair per call.
	CompletionRepository interface {
		GetCourseCompletions(ctx context.Context, userID string, key CourseKey) (CompletionSet, error)
		// GetLatestCompletedBlock returns the key of the most recently
		// completed block, or "" when the learner completed nothing yet.
		GetLatestCompletedBlock(ctx context.Context, userID string, key CourseKey) (UsageKey, error)
	}

	// StudentStateRepository is the external per-(user, block) navigational
	// state collaborator. Implementations return a zero StudentModule, not an
	// error, when no state was ever stored.
	StudentStateRepository interface {
		GetStudentModule(ctx context.Context, userID string, key CourseKey, block UsageKey) (StudentModule, error)
	}

	Service struct {
		blocks      BlockQuerier
		completions CompletionRepository
		states      StudentStateRepository
	}
)

func NewService(blocks BlockQuerier, completions CompletionRepository, states StudentStateRepository) *Service {
	return &Service{
		blocks:      blocks,
		completions: completions,
		states:      states,
	}
}

// Outline returns the root block of the course outline with children resolved
// as blocks, decorated with the learner's completion and resume state. It
// returns nil when the block query yields no root block for this user.
//
// The tree is built and decorated atomically within the call; the optional
// cache memoizes the result for the cache's (caller-scoped) lifetime.
//
// The completion pass and the last-accessed pass come from two upstream
// features with separate fallback rules; they are applied mutually
// exclusively here: completion data when the learner has any, the stored
// navigational position otherwise.
func (svc *Service) Outline(ctx context.Context, cache *OutlineCache, userID string, key CourseKey) (*Block, error) {
	if block, ok := cache.get(userID, key); ok {
		return block, nil
	}

	result, err := svc.blocks.GetBlocks(ctx, userID, key.RootUsageKey(), BlockQuery{
		NavDepth:        OutlineNavDepth,
		RequestedFields: OutlineRequestedFields,
		BlockTypes:      OutlineBlockTypes,
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying course blocks")
	}
	if _, ok := result.Blocks[result.Root]; !ok {
		return nil, nil
	}

	root, err := BuildOutline(result.Root, result.Blocks)
	if err != nil {
		return nil, errors.Wrap(err, "building course outline")
	}

	if userID != "" {
		if err := svc.decorate(ctx, root, userID, key); err != nil {
			return nil, err
		}
	}

	cache.put(userID, key, root)
	return root, nil
}

func (svc *Service) decorate(ctx context.Context, root *Block, userID string, key CourseKey) error {
	latest, err := svc.completions.GetLatestCompletedBlock(ctx, userID, key)
	if err != nil {
		return errors.Wrap(err, "getting latest completed block")
	}
	if latest != "" {
		completions, err := svc.completions.GetCourseCompletions(ctx, userID, key)
		if err != nil {
			return errors.Wrap(err, "getting course completions")
		}
		MarkCompletions(root, completions, latest)
		return nil
	}

	lookup := func(ctx context.Context, block UsageKey) (int, error) {
		sm, err := svc.states.GetStudentModule(ctx, userID, key, block)
		if err != nil {
			return 0, err
		}
		return sm.Position, nil
	}
	return markLastAccessed(ctx, root, lookup)
}

// ResumeBlock returns the block the learner should be returned to, or nil
// when the outline carries no resume point (or its path is access-denied).
func (svc *Service) ResumeBlock(ctx context.Context, cache *OutlineCache, userID string, key CourseKey) (*Block, error) {
	root, err := svc.Outline(ctx, cache, userID, key)
	if err != nil {
		return nil, err
	}
	return GetResumeBlock(root), nil
}
