package session

import "github.com/ahmetcoskunkizilkaya/linkbot/internal/models"

// State is one step of a multi-message flow. Each flow has its own type so
// handlers switch on the concrete value.
type State interface {
	// Name identifies the state in logs.
	Name() string
}

type AwaitingLinkContent struct {
	// Custom means the operator will pick the code after sending content.
	Custom bool
}

type AwaitingLinkCode struct {
	Content LinkContent
}

type LinkContent struct {
	Type     models.ContentType
	Text     string
	FileID   string
	FileSize int64
}

type AwaitingNewLinkCode struct {
	OldCode string
	Page    int
}

type AwaitingLinkEdit struct {
	Code string
	Page int
}

type AwaitingLinkSearch struct{}

type AwaitingBanReason struct {
	UserID int64
	Page   int
}

type AwaitingUserSearch struct{}

type AwaitingReportText struct{}

type AwaitingReportAnswer struct {
	ReportID uint
}

type AwaitingReportSearch struct{}

type AwaitingAdminIdentifier struct{}

type AwaitingDeveloperIdentifier struct{}

type AwaitingBroadcast struct {
	Photo bool
}

type AwaitingBroadcastConfirm struct {
	Text    string
	PhotoID string
}

type AwaitingChannel struct {
	CheckType models.CheckType
}

type AwaitingSetting struct {
	Field string
}

func (AwaitingLinkContent) Name() string         { return "awaiting_link_content" }
func (AwaitingLinkCode) Name() string            { return "awaiting_link_code" }
func (AwaitingNewLinkCode) Name() string         { return "awaiting_new_link_code" }
func (AwaitingLinkEdit) Name() string            { return "awaiting_link_edit" }
func (AwaitingLinkSearch) Name() string          { return "awaiting_link_search" }
func (AwaitingBanReason) Name() string           { return "awaiting_ban_reason" }
func (AwaitingUserSearch) Name() string          { return "awaiting_user_search" }
func (AwaitingReportText) Name() string          { return "awaiting_report_text" }
func (AwaitingReportAnswer) Name() string        { return "awaiting_report_answer" }
func (AwaitingReportSearch) Name() string        { return "awaiting_report_search" }
func (AwaitingAdminIdentifier) Name() string     { return "awaiting_admin_identifier" }
func (AwaitingDeveloperIdentifier) Name() string { return "awaiting_developer_identifier" }
func (AwaitingBroadcast) Name() string           { return "awaiting_broadcast" }
func (AwaitingBroadcastConfirm) Name() string    { return "awaiting_broadcast_confirm" }
func (AwaitingChannel) Name() string             { return "awaiting_channel" }
func (AwaitingSetting) Name() string             { return "awaiting_setting" }
