package models

// RootParentID marks a top-level comment.
const RootParentID = ""

// Comment is a comment left on a business page, or a reply to another comment.
type Comment struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp"` // creation time, unix milliseconds
	UserID     string `json:"userId"`
	Name       string `json:"name"` // author display name, resolved at read time
	BusinessID string `json:"businessId"`
	ParentID   string `json:"parentId"` // "" for a root comment
	HasReplies bool   `json:"hasReplies"`
}

// IsRoot reports whether the comment is top-level under its business.
func (c Comment) IsRoot() bool {
	return c.ParentID == RootParentID
}
