package policy

import (
	"testing"

	"github.com/google/uuid"

	"github.com/Novicer18/lexadvisor/models"
)

func TestDocumentVisibility(t *testing.T) {
	uploader := uuid.New()
	stranger := uuid.New()

	doc := &models.LegalDocument{
		Title:      "Lease Act",
		Domain:     models.DomainProperty,
		Validated:  false,
		UploadedBy: uploader,
	}

	cases := []struct {
		name   string
		viewer uuid.UUID
		role   models.Role
		want   bool
	}{
		{"other plain user excluded", stranger, models.RoleUser, false},
		{"uploader sees own unvalidated", uploader, models.RoleUser, true},
		{"admin sees unvalidated", stranger, models.RoleAdmin, true},
		{"analyst sees unvalidated", stranger, models.RoleLegalAnalyst, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanViewDocument(tc.viewer, tc.role, doc); got != tc.want {
				t.Errorf("CanViewDocument = %v, want %v", got, tc.want)
			}
		})
	}

	doc.Validated = true
	if !CanViewDocument(stranger, models.RoleUser, doc) {
		t.Error("validated document must be visible to everyone")
	}
}

func TestMutationRights(t *testing.T) {
	if CanUploadDocument(models.RoleUser) {
		t.Error("plain users must not upload corpus documents")
	}
	if !CanUploadDocument(models.RoleLegalAnalyst) || !CanUploadDocument(models.RoleAdmin) {
		t.Error("staff must be able to upload")
	}

	if CanValidateDocument(models.RoleUser) {
		t.Error("plain users must not validate")
	}
	if !CanValidateDocument(models.RoleLegalAnalyst) || !CanValidateDocument(models.RoleAdmin) {
		t.Error("staff must be able to validate")
	}

	if CanDeleteDocument(models.RoleLegalAnalyst) || CanDeleteDocument(models.RoleUser) {
		t.Error("only admins may delete documents")
	}
	if !CanDeleteDocument(models.RoleAdmin) {
		t.Error("admins must be able to delete documents")
	}

	if CanChangeRole(models.RoleLegalAnalyst) || CanReadSystemLogs(models.RoleLegalAnalyst) {
		t.Error("analysts must not reach administration")
	}
}

func TestNavigationRevealsExactlyAdminEntries(t *testing.T) {
	before := NavigationFor(models.RoleUser)
	after := NavigationFor(models.RoleAdmin)

	keys := func(entries []NavigationEntry) map[string]bool {
		m := make(map[string]bool, len(entries))
		for _, e := range entries {
			m[e.Key] = true
		}
		return m
	}
	beforeKeys, afterKeys := keys(before), keys(after)

	for key := range beforeKeys {
		if !afterKeys[key] {
			t.Errorf("promotion to admin lost entry %q", key)
		}
	}

	var revealed []string
	for key := range afterKeys {
		if !beforeKeys[key] {
			revealed = append(revealed, key)
		}
	}
	want := map[string]bool{"users": true, "logs": true}
	if len(revealed) != len(want) {
		t.Fatalf("expected exactly the admin-only entries, got %v", revealed)
	}
	for _, key := range revealed {
		if !want[key] {
			t.Errorf("unexpected revealed entry %q", key)
		}
	}
}

func TestAnalystNavigationHasNoAdminEntries(t *testing.T) {
	for _, e := range NavigationFor(models.RoleLegalAnalyst) {
		if e.Key == "users" || e.Key == "logs" {
			t.Errorf("analyst navigation must not contain %q", e.Key)
		}
	}
}
