package notify

import (
	"fmt"
	"strings"

	"github.com/nhle/taskboard/internal/localstore"
)

// PermissionKey is the storage key holding the notification permission.
const PermissionKey = "taskboard-notification-permission"

// Permission is the user's decision about desktop notifications.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// ParsePermission maps a stored value onto a Permission. Unknown values
// read as PermissionDefault.
func ParsePermission(s string) Permission {
	switch p := Permission(strings.TrimSpace(s)); p {
	case PermissionGranted, PermissionDenied:
		return p
	default:
		return PermissionDefault
	}
}

// Permissions persists the permission in local storage.
type Permissions struct {
	storage localstore.Storage
}

// NewPermissions returns a Permissions backed by storage.
func NewPermissions(storage localstore.Storage) *Permissions {
	return &Permissions{storage: storage}
}

// Load returns the stored permission, or PermissionDefault when nothing
// has been decided yet.
func (p *Permissions) Load() (Permission, error) {
	data, ok, err := p.storage.Get(PermissionKey)
	if err != nil {
		return PermissionDefault, fmt.Errorf("loading notification permission: %w", err)
	}
	if !ok {
		return PermissionDefault, nil
	}
	return ParsePermission(string(data)), nil
}

// Save stores perm.
func (p *Permissions) Save(perm Permission) error {
	if err := p.storage.Set(PermissionKey, []byte(perm)); err != nil {
		return fmt.Errorf("saving notification permission: %w", err)
	}
	return nil
}

// Request asks for permission on behalf of the user and persists the
// answer. Only an explicit user action should call it. The permission is
// granted when the notifier can deliver on this platform, denied otherwise.
func (p *Permissions) Request(n Notifier) (Permission, error) {
	perm := PermissionDenied
	if n != nil && n.Supported() {
		perm = PermissionGranted
	}
	if err := p.Save(perm); err != nil {
		return PermissionDefault, err
	}
	return perm, nil
}
