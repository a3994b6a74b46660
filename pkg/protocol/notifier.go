package protocol

import "context"

// Permission is the host's answer to a notification permission request.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Notifier is the host environment's notification capability. When
// permission is denied the notification action logs instead of showing.
type Notifier interface {
	RequestPermission(ctx context.Context) (Permission, error)
	Show(ctx context.Context, title, body string) error
}
