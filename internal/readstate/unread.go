package readstate

import "github.com/nhle/taskboard/internal/model"

// UnreadCount returns how many comments of a change request are not in its
// read set.
func UnreadCount(comments []model.Comment, state State, changeRequestID string) int {
	if len(comments) == 0 {
		return 0
	}
	read := state.ReadSet(changeRequestID)
	count := 0
	for _, c := range comments {
		if _, ok := read[c.ID]; !ok {
			count++
		}
	}
	return count
}

// TotalUnread sums UnreadCount over every change request.
func TotalUnread(commentsByRequest map[string][]model.Comment, state State) int {
	total := 0
	for crID, comments := range commentsByRequest {
		total += UnreadCount(comments, state, crID)
	}
	return total
}

// UnreadIDs returns the ids of unread comments in thread order.
func UnreadIDs(comments []model.Comment, state State, changeRequestID string) []string {
	read := state.ReadSet(changeRequestID)
	var ids []string
	for _, c := range comments {
		if _, ok := read[c.ID]; !ok {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// CommentIDs returns the ids of comments in order.
func CommentIDs(comments []model.Comment) []string {
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	return ids
}
