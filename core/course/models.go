package course

import (
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// BlockType tags a node in a course's content hierarchy. The set is closed:
// the block-query service only ever returns types the outline asks for.
type BlockType string

const (
	BlockTypeCourse     BlockType = "course"
	BlockTypeChapter    BlockType = "chapter"
	BlockTypeSequential BlockType = "sequential"
	BlockTypeVertical   BlockType = "vertical"
	BlockTypeHTML       BlockType = "html"
	BlockTypeProblem    BlockType = "problem"
	BlockTypeVideo      BlockType = "video"
	BlockTypeDiscussion BlockType = "discussion"
	BlockTypeDragDrop   BlockType = "drag-and-drop-v2"
	BlockTypePoll       BlockType = "poll"
	BlockTypeWordCloud  BlockType = "word_cloud"
)

// Container reports whether the type is a structural node of the hierarchy,
// as opposed to a leaf holding content. Containers aggregate their children's
// completion state; an empty container is vacuously complete.
func (t BlockType) Container() bool {
	switch t {
	case BlockTypeCourse, BlockTypeChapter, BlockTypeSequential, BlockTypeVertical:
		return true
	}
	return false
}

// OutlineBlockTypes is the block-type filter used for outline queries.
var OutlineBlockTypes = []BlockType{
	BlockTypeCourse,
	BlockTypeChapter,
	BlockTypeSequential,
	BlockTypeVertical,
	BlockTypeHTML,
	BlockTypeProblem,
	BlockTypeVideo,
	BlockTypeDiscussion,
	BlockTypeDragDrop,
	BlockTypePoll,
	BlockTypeWordCloud,
}

// OutlineRequestedFields is the field list requested from the block-query
// service for outline queries.
var OutlineRequestedFields = []string{
	"children",
	"display_name",
	"type",
	"due",
	"graded",
	"special_exam_info",
	"show_gated_sections",
	"format",
}

// OutlineNavDepth is the navigation depth of outline queries: deep enough for
// course -> chapter -> sequential traversal and completion marking.
const OutlineNavDepth = 3

var (
	ErrInvalidCourseKey = errors.New("invalid course key")

	courseKeyRegex = regexp.MustCompile(`^course-v1:([^/+]+)\+([^/+]+)\+([^/+]+)$`)
)

// CourseKey identifies a course run, serialized as "course-v1:Org+Course+Run".
type CourseKey string

// ParseCourseKey validates a serialized course key.
func ParseCourseKey(s string) (CourseKey, error) {
	if !courseKeyRegex.MatchString(s) {
		return "", errors.Wrap(ErrInvalidCourseKey, s)
	}
	return CourseKey(s), nil
}

func (k CourseKey) String() string { return string(k) }

// RootUsageKey returns the usage key of the course's root block.
func (k CourseKey) RootUsageKey() UsageKey {
	run := strings.TrimPrefix(string(k), "course-v1:")
	return UsageKey("block-v1:" + run + "+type@course+block@course")
}

// UsageKey identifies a block within a course run.
type UsageKey string

func (k UsageKey) String() string { return string(k) }

// BlockRecord is a block as returned by the block-query service: children are
// referenced by id, not resolved.
type BlockRecord struct {
	ID                        UsageKey   `json:"id"`
	Type                      BlockType  `json:"type"`
	DisplayName               string     `json:"display_name"`
	Due                       *time.Time `json:"due,omitempty"`
	Graded                    bool       `json:"graded,omitempty"`
	Format                    string     `json:"format,omitempty"`
	Children                  []UsageKey `json:"children,omitempty"`
	AuthorizationDenialReason string     `json:"authorization_denial_reason,omitempty"`
}

// BlockMap is the flat block map produced by the block-query service.
// Input invariant: every child id referenced by a record exists as a key, and
// the map contains no cycles.
type BlockMap map[UsageKey]BlockRecord

// Block is a node of the resolved outline tree, decorated with the learner's
// completion and resume state.
type Block struct {
	ID                        UsageKey   `json:"id"`
	Type                      BlockType  `json:"type"`
	DisplayName               string     `json:"display_name"`
	Due                       *time.Time `json:"due,omitempty"`
	Graded                    bool       `json:"graded,omitempty"`
	Format                    string     `json:"format,omitempty"`
	AuthorizationDenialReason string     `json:"authorization_denial_reason,omitempty"`
	Children                  []*Block   `json:"children,omitempty"`

	Complete    bool `json:"complete"`
	ResumeBlock bool `json:"resume_block"`
}

// AccessDenied reports whether the block is access-restricted for the learner
// it was queried for.
func (b *Block) AccessDenied() bool {
	return b.AuthorizationDenialReason != ""
}

// Count returns the number of nodes in the tree rooted at b.
func (b *Block) Count() int {
	n := 1
	for _, child := range b.Children {
		n += child.Count()
	}
	return n
}

// CompletionSet maps completed block keys to their completion value for one
// (user, course) pair. A zero value means "not completed".
type CompletionSet map[UsageKey]float64

// Completed reports whether the set marks the given block completed.
func (s CompletionSet) Completed(key UsageKey) bool {
	return s[key] > 0
}

// StudentModule is the per-(user, block) navigational state record.
// Only Position is consulted here: a 1-based index into the block's child
// sequence, 0 when no position was ever stored.
type StudentModule struct {
	Position int `json:"position"`
}
