package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inviteforge/inviteforge/internal/database/testutil"
	"github.com/inviteforge/inviteforge/internal/models"
)

func TestStatsOverview(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	ctx := context.Background()

	svc, err := NewStatsService(db)
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.User{Email: "a@example.com", PasswordHash: "x", Role: models.RoleUser}).Error)
	require.NoError(t, db.Create(&models.User{Email: "b@example.com", PasswordHash: "x", Role: models.RoleAdmin}).Error)

	tpl := models.Template{Name: "T", OwnerID: "o", Background: "#fff", Width: 10, Height: 10}
	require.NoError(t, db.Create(&tpl).Error)

	recent := models.GeneratedInvite{TemplateID: tpl.ID, TemplateName: "T", Width: 10, Height: 10}
	require.NoError(t, db.Create(&recent).Error)

	old := models.GeneratedInvite{TemplateID: tpl.ID, TemplateName: "T", Width: 10, Height: 10}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Model(&old).UpdateColumn("created_at", time.Now().AddDate(0, 0, -30)).Error)

	overview, err := svc.Overview(ctx)
	require.NoError(t, err)

	require.Equal(t, int64(2), overview.Users)
	require.Equal(t, int64(1), overview.Templates)
	require.Equal(t, int64(2), overview.GeneratedInvites)
	require.Equal(t, int64(1), overview.InvitesLast7Days)
}
