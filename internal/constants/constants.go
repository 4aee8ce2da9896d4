package constants

const (
	// ContextKeyUserID is the session and gin context key holding the authenticated user ID.
	ContextKeyUserID = "user_id"
	// ContextKeyRequestID is the gin context key holding the per-request ID.
	ContextKeyRequestID = "request_id"
	// ContextKeyGroup and ContextKeyGroupMember are set by RequireGroupMember.
	ContextKeyGroup       = "group"
	ContextKeyGroupMember = "group_member"

	SessionCookieName = "chat_session"

	MinPasswordLength = 8

	// MessagePageSize is the number of messages returned per history window.
	MessagePageSize = 30

	// DefaultImageMaxDimension bounds both sides of stored profile images.
	DefaultImageMaxDimension = 300

	DefaultProfileImage = "default.png"
	DefaultGroupImage   = "default_group.png"

	ProfileImageDir = "profile_pics"
	GroupImageDir   = "group_profile_pics"

	MaxGroupNameLength   = 20
	MaxDescriptionLength = 300
)
