package move

import "fmt"

// NotificationKind names a transient progress notification.
type NotificationKind string

// Notification kinds.
const (
	NotificationMoving     NotificationKind = "moving"
	NotificationUndoMoving NotificationKind = "undo-moving"
)

// Notification is a transient "work in progress" message.
type Notification struct {
	Kind NotificationKind `json:"kind"`
	Text string           `json:"text"`
}

var (
	movingNotification     = Notification{Kind: NotificationMoving, Text: "Moving"}
	undoMovingNotification = Notification{Kind: NotificationUndoMoving, Text: "Undo moving"}
)

// BannerKind names a persistent confirmation banner.
type BannerKind string

// Banner kinds.
const (
	BannerMoved         BannerKind = "moved"
	BannerMoveCancelled BannerKind = "move-cancelled"
)

// UndoReceipt is the pre-move location needed for one compensating move.
type UndoReceipt struct {
	SourceID          string `json:"source_locator"`
	SourceDisplayName string `json:"source_display_name"`
	OriginalParentID  string `json:"source_parent_locator"`
	OriginalIndex     *int   `json:"target_index,omitempty"`
}

// Banner is the confirmation shown after a move or an undo.
type Banner struct {
	Kind     BannerKind   `json:"kind"`
	Title    string       `json:"title"`
	LinkURL  string       `json:"link_url,omitempty"`
	LinkText string       `json:"link_text,omitempty"`
	Undo     *UndoReceipt `json:"undo,omitempty"`
}

// ContainerURL is the Studio page showing a parent's children.
func ContainerURL(parentLocator string) string {
	return "/container/" + parentLocator
}

func movedBanner(src Source, parentLocator string, receipt *UndoReceipt) *Banner {
	return &Banner{
		Kind:     BannerMoved,
		Title:    fmt.Sprintf("Success! \"%s\" has been moved.", src.DisplayName),
		LinkURL:  ContainerURL(parentLocator),
		LinkText: "Take me to the new location",
		Undo:     receipt,
	}
}

func cancelledBanner(src Source) *Banner {
	return &Banner{
		Kind:  BannerMoveCancelled,
		Title: fmt.Sprintf("Move cancelled. \"%s\" has been moved back to its original location.", src.DisplayName),
	}
}

// EventType names what a Notifier is told about.
type EventType string

// Event types.
const (
	EventNotificationShown  EventType = "notification.shown"
	EventNotificationHidden EventType = "notification.hidden"
	EventBannerShown        EventType = "banner.shown"
)

// Event is one piece of user-visible feedback.
type Event struct {
	Type         EventType     `json:"type"`
	Notification *Notification `json:"notification,omitempty"`
	Banner       *Banner       `json:"banner,omitempty"`
}

// Notifier receives feedback events. Implementations must not block.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Notify calls f.
func (f NotifierFunc) Notify(e Event) {
	f(e)
}

type discardNotifier struct{}

func (discardNotifier) Notify(Event) {}
