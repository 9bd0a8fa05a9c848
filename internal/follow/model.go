package follow

// UserSummary — строка в списках подписок и на экране "кого читать".
type UserSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	IsFollowing bool   `json:"is_following,omitempty"`
}
