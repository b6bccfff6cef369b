package billing

import (
	"net/url"
	"strings"
)

// AccessMode describes what a member can reach inside the workspace.
type AccessMode string

const (
	// AccessModeFull grants the whole workspace.
	AccessModeFull AccessMode = "full"
	// AccessModeBillingOnly restricts navigation to plan and billing pages
	// so a locked organization can still recover itself.
	AccessModeBillingOnly AccessMode = "billing_only"
)

// String returns the string representation of the access mode
func (m AccessMode) String() string {
	return string(m)
}

// WorkspaceAccessState is the gate decision derived from a snapshot.
type WorkspaceAccessState struct {
	IsLocked   bool       `json:"is_locked"`
	Mode       AccessMode `json:"mode"`
	LockReason LockReason `json:"lock_reason"`
}

// ResolveWorkspaceAccess maps an entitlement snapshot onto a workspace
// access decision. Usage being blocked locks everything except the
// billing-only surface.
func ResolveWorkspaceAccess(snapshot BillingSnapshot) WorkspaceAccessState {
	if snapshot.IsUsageAllowed {
		return WorkspaceAccessState{
			IsLocked:   false,
			Mode:       AccessModeFull,
			LockReason: LockReasonNone,
		}
	}
	return WorkspaceAccessState{
		IsLocked:   true,
		Mode:       AccessModeBillingOnly,
		LockReason: snapshot.LockReason,
	}
}

// billingOnlyPrefixes are the path subtrees a locked workspace may still
// browse. Matching is prefix-based so nested routes such as
// /settings/plans/history stay reachable.
var billingOnlyPrefixes = []string{
	"/settings/plans",
	"/settings/billing",
}

// IsBillingOnlyPath reports whether the given workspace-relative path is
// reachable while the workspace is locked. The locale segment, if any,
// must already be stripped by the caller.
func IsBillingOnlyPath(path string) bool {
	path = normalizePath(path)
	for _, prefix := range billingOnlyPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// LockedRedirectTarget builds the plans-page URL a locked workspace is sent
// to. The lock reason rides along so the plans page can explain the lock;
// LockReasonNone is omitted.
func LockedRedirectTarget(plansPath string, reason LockReason) string {
	if plansPath == "" {
		plansPath = "/settings/plans"
	}
	values := url.Values{"locked": []string{"1"}}
	if reason != LockReasonNone && reason != "" {
		values.Set("reason", reason.String())
	}
	return plansPath + "?" + values.Encode()
}

// NavItem is a single sidebar navigation target.
type NavItem struct {
	Key     string `json:"key"`
	Path    string `json:"path"`
	Enabled bool   `json:"enabled"`
}

// defaultNavItems is the canonical workspace navigation in display order.
var defaultNavItems = []NavItem{
	{Key: "inbox", Path: "/inbox"},
	{Key: "contacts", Path: "/contacts"},
	{Key: "campaigns", Path: "/campaigns"},
	{Key: "analytics", Path: "/analytics"},
	{Key: "settings", Path: "/settings"},
}

// ResolveNavigation returns the sidebar items adjusted for the current
// access state. When the workspace is locked, every item outside the
// billing-only surface is disabled and the settings entry points straight
// at the plans page.
func ResolveNavigation(access WorkspaceAccessState) []NavItem {
	items := make([]NavItem, len(defaultNavItems))
	copy(items, defaultNavItems)

	for i := range items {
		if !access.IsLocked {
			items[i].Enabled = true
			continue
		}
		if items[i].Key == "settings" {
			items[i].Path = "/settings/plans"
			items[i].Enabled = true
			continue
		}
		items[i].Enabled = IsBillingOnlyPath(items[i].Path)
	}
	return items
}
