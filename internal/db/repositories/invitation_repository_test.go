package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/capturelog/capturelog/internal/db/models"
)

var invitationCols = []string{
	"id", "code", "email", "organization_id", "invited_by_user_id",
	"role", "expires_at", "accepted_at", "accepted_by_user_id", "created_at",
}

func sampleInvitationRow() *sqlmock.Rows {
	return sqlmock.NewRows(invitationCols).
		AddRow("inv-1", "A7K2M9Q4RX3TF", nil, "org-1", "user-1",
			"member", time.Now().Add(7*24*time.Hour), nil, nil, time.Now())
}

func newInvitationRepo(t *testing.T) (*InvitationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewInvitationRepository(sqlx.NewDb(db, "postgres")), mock
}

// ---------------------------------------------------------------------------
// CreateInvitation
// ---------------------------------------------------------------------------

func TestCreateInvitation_AssignsID(t *testing.T) {
	repo, mock := newInvitationRepo(t)
	mock.ExpectExec("INSERT INTO invitations").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inv := &models.Invitation{
		Code:           "A7K2M9Q4RX3TF",
		OrganizationID: "org-1",
		Role:           models.RoleMember,
		ExpiresAt:      time.Now().Add(7 * 24 * time.Hour),
	}
	if err := repo.CreateInvitation(context.Background(), inv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.ID == "" {
		t.Error("expected generated ID")
	}
}

// ---------------------------------------------------------------------------
// GetInvitationByCode / GetInvitationByID
// ---------------------------------------------------------------------------

func TestGetInvitationByCode_Found(t *testing.T) {
	repo, mock := newInvitationRepo(t)
	mock.ExpectQuery(`SELECT \* FROM invitations WHERE code`).
		WithArgs("A7K2M9Q4RX3TF").
		WillReturnRows(sampleInvitationRow())

	inv, err := repo.GetInvitationByCode(context.Background(), "A7K2M9Q4RX3TF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv == nil {
		t.Fatal("expected invitation, got nil")
	}
	if inv.Role != models.RoleMember {
		t.Errorf("Role = %s, want member", inv.Role)
	}
	if !inv.Pending(time.Now()) {
		t.Error("freshly issued invitation should be pending")
	}
}

func TestGetInvitationByCode_NotFound(t *testing.T) {
	repo, mock := newInvitationRepo(t)
	mock.ExpectQuery(`SELECT \* FROM invitations WHERE code`).
		WithArgs("UNKNOWN").
		WillReturnRows(sqlmock.NewRows(invitationCols))

	inv, err := repo.GetInvitationByCode(context.Background(), "UNKNOWN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv != nil {
		t.Errorf("expected nil invitation for not found, got %v", inv)
	}
}

func TestGetInvitationByID_Found(t *testing.T) {
	repo, mock := newInvitationRepo(t)
	mock.ExpectQuery(`SELECT \* FROM invitations WHERE id`).
		WithArgs("inv-1").
		WillReturnRows(sampleInvitationRow())

	inv, err := repo.GetInvitationByID(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv == nil {
		t.Fatal("expected invitation, got nil")
	}
}

// ---------------------------------------------------------------------------
// MarkAccepted
// ---------------------------------------------------------------------------

func TestMarkAccepted(t *testing.T) {
	repo, mock := newInvitationRepo(t)
	acceptedAt := time.Now()
	mock.ExpectExec("UPDATE invitations SET accepted_at").
		WithArgs("inv-1", acceptedAt, "user-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkAccepted(context.Background(), "inv-1", "user-2", acceptedAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// ListPendingByOrganization
// ---------------------------------------------------------------------------

func TestListPendingByOrganization(t *testing.T) {
	repo, mock := newInvitationRepo(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM invitations.*accepted_at IS NULL`).
		WithArgs("org-1", now).
		WillReturnRows(sampleInvitationRow())

	pending, err := repo.ListPendingByOrganization(context.Background(), "org-1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("len = %d, want 1", len(pending))
	}
}

func TestListPendingByOrganization_Empty(t *testing.T) {
	repo, mock := newInvitationRepo(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM invitations.*accepted_at IS NULL`).
		WithArgs("org-1", now).
		WillReturnRows(sqlmock.NewRows(invitationCols))

	pending, err := repo.ListPendingByOrganization(context.Background(), "org-1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pending == nil {
		t.Error("expected empty slice, got nil")
	}
}

// ---------------------------------------------------------------------------
// DeleteInvitation
// ---------------------------------------------------------------------------

func TestDeleteInvitation(t *testing.T) {
	repo, mock := newInvitationRepo(t)
	mock.ExpectExec("DELETE FROM invitations WHERE id").
		WithArgs("inv-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteInvitation(context.Background(), "inv-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
