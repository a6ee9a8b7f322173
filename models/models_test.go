package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"procurement/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseEntityType(t *testing.T) {
	for _, s := range []string{"project", "rfq", "requirement", "quote"} {
		et, err := models.ParseEntityType(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(et))
	}

	for _, s := range []string{"", "vendor", "Project", "user"} {
		_, err := models.ParseEntityType(s)
		assert.Error(t, err, s)
	}
}

func TestEntityTypeUnmarshalRejectsUnknownKinds(t *testing.T) {
	var body struct {
		Kind models.EntityType `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"rfq"}`), &body))
	assert.Equal(t, models.EntityRfq, body.Kind)

	require.Error(t, json.Unmarshal([]byte(`{"kind":"invoice"}`), &body))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, models.RoleAdmin.Valid())
	assert.True(t, models.RoleVendor.Valid())
	assert.True(t, models.RoleProjectOwner.Valid())
	assert.False(t, models.Role("superuser").Valid())
	assert.False(t, models.Role("").Valid())
}

func TestDateJSON(t *testing.T) {
	var d models.Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-15"`), &d))
	assert.Equal(t, models.NewDate(2025, time.March, 15), d)

	require.NoError(t, json.Unmarshal([]byte(`"2025-03-15T10:30:00Z"`), &d))
	assert.Equal(t, "2025-03-15", d.String())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-03-15"`, string(out))

	require.Error(t, json.Unmarshal([]byte(`"15/03/2025"`), &d))
	require.Error(t, json.Unmarshal([]byte(`20250315`), &d))
}

func TestDateScan(t *testing.T) {
	var d models.Date
	require.NoError(t, d.Scan(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-12-01", d.String())

	require.NoError(t, d.Scan([]byte("2024-12-02")))
	assert.Equal(t, "2024-12-02", d.String())

	require.Error(t, d.Scan(42))
}

func TestProjectPatchChangesOnlyGivenFields(t *testing.T) {
	deadline := models.NewDate(2025, time.June, 1)
	original := models.Project{
		ID:          7,
		CustomID:    "PROJ_ABC_1234",
		Name:        "Warehouse",
		Description: strPtr("steel frame"),
		Location:    strPtr("Pune"),
		Deadline:    &deadline,
		OwnerID:     3,
		Status:      models.ProjectStatusActive,
	}

	updated := original
	models.ProjectPatch{Name: models.Some("Cold storage")}.Apply(&updated)

	assert.Equal(t, "Cold storage", updated.Name)
	updated.Name = original.Name
	assert.Equal(t, original, updated)
}

func TestPatchAssignmentsFollowDeclaredOrder(t *testing.T) {
	patch := models.RequirementPatch{Unit: models.Some("kg"), Quantity: models.Some(12.5)}

	got := patch.Assignments()
	require.Len(t, got, 2)
	assert.Equal(t, "quantity", got[0].Column)
	assert.Equal(t, "unit", got[1].Column)

	assert.Empty(t, models.RfqPatch{}.Assignments())
	assert.Empty(t, models.UserPatch{}.Assignments())
}

func TestPatchJSONIgnoresUnknownFields(t *testing.T) {
	var patch models.QuotePatch
	require.NoError(t, json.Unmarshal([]byte(`{"vendor_id": 99, "id": 5, "total_amount": 1500}`), &patch))

	assert.Equal(t, models.Some(1500.0), patch.TotalAmount)
	assert.False(t, patch.Status.Set)
	assert.Len(t, patch.Assignments(), 1)
}

func TestOptionalDistinguishesNullFromAbsent(t *testing.T) {
	var patch models.RfqPatch
	require.NoError(t, json.Unmarshal([]byte(`{"special_requirements": null, "title": "Steel"}`), &patch))

	assert.Equal(t, models.SetNull[string](), patch.SpecialRequirements)
	assert.Equal(t, models.Some("Steel"), patch.Title)
	assert.False(t, patch.Description.Set)

	got := patch.Assignments()
	require.Len(t, got, 2)
	assert.Equal(t, models.Assignment{Column: "title", Value: "Steel"}, got[0])
	assert.Equal(t, models.Assignment{Column: "special_requirements", Value: nil}, got[1])
	require.NoError(t, patch.Validate())

	rfq := models.Rfq{Title: "Old", SpecialRequirements: strPtr("crane on site")}
	patch.Apply(&rfq)
	assert.Equal(t, "Steel", rfq.Title)
	assert.Nil(t, rfq.SpecialRequirements)
}

func TestOptionalDecodesDateAndNull(t *testing.T) {
	var patch models.ProjectPatch
	require.NoError(t, json.Unmarshal([]byte(`{"deadline": "2025-09-30", "location": null}`), &patch))

	assert.Equal(t, models.Some(models.NewDate(2025, time.September, 30)), patch.Deadline)
	assert.True(t, patch.Location.Null)
	assert.Nil(t, patch.Location.Ptr())

	require.Error(t, json.Unmarshal([]byte(`{"deadline": "soon"}`), &patch))
}

func TestPatchValidateRejectsNullInRequiredColumns(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		target interface{ Validate() error }
		column string
	}{
		{"project name", `{"name": null}`, &models.ProjectPatch{}, "name"},
		{"requirement quantity", `{"quantity": null}`, &models.RequirementPatch{}, "quantity"},
		{"rfq deadline", `{"deadline": null}`, &models.RfqPatch{}, "deadline"},
		{"quote status", `{"status": null}`, &models.QuotePatch{}, "status"},
		{"vendor company", `{"company_name": null}`, &models.VendorPatch{}, "company_name"},
		{"user name", `{"name": null}`, &models.UserPatch{}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, json.Unmarshal([]byte(tt.body), tt.target))
			err := tt.target.Validate()
			var nf *models.NullFieldError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, tt.column, nf.Column)
		})
	}

	var vendor models.VendorPatch
	require.NoError(t, json.Unmarshal([]byte(`{"phone": null, "gst_number": null}`), &vendor))
	assert.NoError(t, vendor.Validate())
	assert.Len(t, vendor.Assignments(), 2)
}

func TestUserJSONHidesCredentials(t *testing.T) {
	expiry := time.Now()
	u := models.User{
		ID:               1,
		Email:            "a@b.c",
		PasswordHash:     "$2a$10$hash",
		ResetToken:       strPtr("deadbeef"),
		ResetTokenExpiry: &expiry,
		Role:             models.RoleVendor,
	}
	out, err := json.Marshal(u)
	require.NoError(t, err)

	assert.NotContains(t, string(out), "password")
	assert.NotContains(t, string(out), "deadbeef")
	assert.NotContains(t, string(out), "reset_token")
}
