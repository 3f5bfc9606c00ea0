package feed

// EntityKind discriminates the two entity types that carry social state.
type EntityKind string

const (
	KindPost    EntityKind = "post"
	KindComment EntityKind = "comment"
)

// VoteState is the viewer's vote on an entity.
type VoteState int

const (
	VoteNone VoteState = iota
	VoteUp
	VoteDown
)

func (v VoteState) String() string {
	switch v {
	case VoteUp:
		return "up"
	case VoteDown:
		return "down"
	default:
		return "none"
	}
}

// Entity is a post or comment as held in a cache. Entities are value-like:
// a cache patch replaces the cached entity with a merged copy, never mutates
// one through a shared reference, so every cache holds its own
// structurally-equal copy.
type Entity struct {
	ID   string     `json:"id" cbor:"id"`
	Kind EntityKind `json:"kind" cbor:"kind"`

	Title   string `json:"title,omitempty" cbor:"title,omitempty"`
	Content string `json:"content,omitempty" cbor:"content,omitempty"`

	// ParentID links a comment to its post. Empty for posts.
	ParentID string `json:"parentId,omitempty" cbor:"parentId,omitempty"`

	NumUpvotes  int       `json:"numUpvotes" cbor:"numUpvotes"`
	NumComments int       `json:"numComments" cbor:"numComments"`
	VoteState   VoteState `json:"userVoteState" cbor:"userVoteState"`
	Bookmarked  bool      `json:"bookmarked" cbor:"bookmarked"`

	// Revision is a locally-assigned counter bumped on every committed write.
	// It never leaves the process; rollback restores the pre-patch entity
	// including its revision.
	Revision uint64 `json:"-" cbor:"-"`
}

// Change is a partial entity: only non-nil fields participate in a merge.
// It is the unit of every cache patch, both optimistic and server-pushed.
type Change struct {
	Title       *string
	Content     *string
	NumUpvotes  *int
	NumComments *int
	VoteState   *VoteState
	Bookmarked  *bool
}

func (c Change) IsZero() bool {
	return c.Title == nil && c.Content == nil && c.NumUpvotes == nil &&
		c.NumComments == nil && c.VoteState == nil && c.Bookmarked == nil
}

// ApplyTo merges the change into a copy of e and bumps its revision.
// Fields left nil in the change keep their current value.
func (c Change) ApplyTo(e Entity) Entity {
	if c.Title != nil {
		e.Title = *c.Title
	}
	if c.Content != nil {
		e.Content = *c.Content
	}
	if c.NumUpvotes != nil {
		e.NumUpvotes = *c.NumUpvotes
	}
	if c.NumComments != nil {
		e.NumComments = *c.NumComments
	}
	if c.VoteState != nil {
		e.VoteState = *c.VoteState
	}
	if c.Bookmarked != nil {
		e.Bookmarked = *c.Bookmarked
	}
	e.Revision++
	return e
}

// Updater computes a partial change from the current cached entity.
// It must be pure: the cache applies it at most once per patch.
type Updater func(Entity) Change

// Ptr returns a pointer to v, for building Change literals.
func Ptr[T any](v T) *T {
	return &v
}
