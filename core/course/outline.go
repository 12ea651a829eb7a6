package course

import (
	"context"

	"github.com/pkg/errors"
)

// ErrBlockNotFound is returned when a record references a child id absent
// from the flat block map. It indicates an inconsistent upstream export and
// is propagated, never recovered from.
var ErrBlockNotFound = errors.New("block not found")

// BuildOutline constructs a fresh tree rooted at the given id from a flat
// block map, resolving each child id into its (recursively resolved) block.
// The map is never mutated. Child ordering follows each record's original
// child-id ordering. Precondition: the map contains no cycles.
func BuildOutline(root UsageKey, blocks BlockMap) (*Block, error) {
	rec, ok := blocks[root]
	if !ok {
		return nil, errors.Wrap(ErrBlockNotFound, root.String())
	}

	block := &Block{
		ID:                        rec.ID,
		Type:                      rec.Type,
		DisplayName:               rec.DisplayName,
		Due:                       rec.Due,
		Graded:                    rec.Graded,
		Format:                    rec.Format,
		AuthorizationDenialReason: rec.AuthorizationDenialReason,
	}
	if len(rec.Children) > 0 {
		block.Children = make([]*Block, 0, len(rec.Children))
		for _, childID := range rec.Children {
			child, err := BuildOutline(childID, blocks)
			if err != nil {
				return nil, err
			}
			block.Children = append(block.Children, child)
		}
	}
	return block, nil
}

// MarkCompletions annotates the tree with the learner's completion state and
// marks the ancestor chain of the most recently completed block as the resume
// path. With no completions or no latest-completed marker, no marking occurs
// at all.
func MarkCompletions(root *Block, completions CompletionSet, latest UsageKey) {
	if len(completions) == 0 || latest == "" {
		return
	}
	recurseMarkComplete(root, completions, latest)
}

// recurseMarkComplete walks the tree depth-first, post-order.
//
// A block is complete if its own key is in the completion set, or if every
// non-discussion child is complete after recursion. Discussions never count
// against a container's completeness, so a container whose only children are
// discussions is vacuously complete, and so is a container with no children
// at all. Leaves are only ever complete through the completion set.
//
// A block is a resume block if it is the latest-completed block itself or an
// ancestor of it.
func recurseMarkComplete(block *Block, completions CompletionSet, latest UsageKey) {
	if completions.Completed(block.ID) {
		block.Complete = true
		if block.ID == latest {
			block.ResumeBlock = true
		}
	}

	if len(block.Children) == 0 {
		// all zero of a childless container's children are complete
		if block.Type.Container() {
			block.Complete = true
		}
		return
	}
	for _, child := range block.Children {
		recurseMarkComplete(child, completions, latest)
		if child.ResumeBlock {
			block.ResumeBlock = true
		}
	}

	complete := true
	for _, child := range block.Children {
		if child.Type != BlockTypeDiscussion && !child.Complete {
			complete = false
			break
		}
	}
	if complete {
		block.Complete = true
	}
}

// positionLookup fetches the learner's stored navigational position for a
// block; 0 means no position stored.
type positionLookup func(ctx context.Context, block UsageKey) (int, error)

// markLastAccessed recursively marks the branch to the last accessed block,
// following the learner's stored 1-based child positions.
//
// A stored position that is out of range of the current child count (content
// was removed since it was recorded) degrades to marking the last child,
// without recursing into it.
func markLastAccessed(ctx context.Context, block *Block, lookup positionLookup) error {
	pos, err := lookup(ctx, block.ID)
	if err != nil {
		return errors.Wrapf(err, "looking up position for %s", block.ID)
	}
	if pos <= 0 || len(block.Children) == 0 {
		return nil
	}

	block.ResumeBlock = true
	if pos <= len(block.Children) {
		child := block.Children[pos-1]
		child.ResumeBlock = true
		return markLastAccessed(ctx, child, lookup)
	}
	block.Children[len(block.Children)-1].ResumeBlock = true
	return nil
}

// GetResumeBlock returns the deepest block marked as the resume block, the
// shallowest marked block with no marked descendants otherwise, or nil when
// the tree carries no resume marking at all. It fails closed: an
// access-denied block yields nil even if deeper descendants are marked.
func GetResumeBlock(block *Block) *Block {
	if block == nil || block.AccessDenied() || !block.ResumeBlock {
		return nil
	}
	if len(block.Children) == 0 {
		return block
	}
	for _, child := range block.Children {
		if resume := GetResumeBlock(child); resume != nil {
			return resume
		}
	}
	return block
}
