// Package policy is the single evaluable statement of the authorization rules
// the database schema also enforces. Handlers consult it for friendly errors
// and navigation filtering; it is advisory there, authoritative in tests.
package policy

import (
	"github.com/google/uuid"

	"github.com/Novicer18/lexadvisor/models"
)

// IsStaff reports whether the role may see unvalidated documents from other users
func IsStaff(role models.Role) bool {
	return role == models.RoleAdmin || role == models.RoleLegalAnalyst
}

// CanViewDocument applies the corpus visibility rule: a document is visible when
// it is validated, or the viewer uploaded it, or the viewer is staff.
func CanViewDocument(viewerID uuid.UUID, role models.Role, doc *models.LegalDocument) bool {
	if doc.Validated {
		return true
	}
	if doc.UploadedBy == viewerID {
		return true
	}
	return IsStaff(role)
}

// CanUploadDocument reports whether the role may add documents to the corpus
func CanUploadDocument(role models.Role) bool {
	return IsStaff(role)
}

// CanValidateDocument reports whether the role may mark a document validated
func CanValidateDocument(role models.Role) bool {
	return IsStaff(role)
}

// CanDeleteDocument reports whether the role may remove a document
func CanDeleteDocument(role models.Role) bool {
	return role == models.RoleAdmin
}

// CanChangeRole reports whether the role may administer user roles
func CanChangeRole(role models.Role) bool {
	return role == models.RoleAdmin
}

// CanReadSystemLogs reports whether the role may read the audit log
func CanReadSystemLogs(role models.Role) bool {
	return role == models.RoleAdmin
}

// NavigationEntry is one entry of the role-filtered navigation shell
type NavigationEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

var (
	navChat      = NavigationEntry{Key: "chat", Label: "Assistant"}
	navDocuments = NavigationEntry{Key: "documents", Label: "Legal Documents"}
	navUsers     = NavigationEntry{Key: "users", Label: "User Administration"}
	navLogs      = NavigationEntry{Key: "logs", Label: "System Logs"}
)

// NavigationFor returns exactly the navigation entries the role may reach
func NavigationFor(role models.Role) []NavigationEntry {
	entries := []NavigationEntry{navChat, navDocuments}
	if CanChangeRole(role) {
		entries = append(entries, navUsers)
	}
	if CanReadSystemLogs(role) {
		entries = append(entries, navLogs)
	}
	return entries
}
