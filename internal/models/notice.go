package models

// NoticeLevel matches the icon shown next to a notice
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a user-visible message queued on a session and shown on the next render.
// Blocking notices stay until dismissed, the others fade out on their own.
type Notice struct {
	Level    NoticeLevel
	Title    string
	Text     string
	Blocking bool
}
