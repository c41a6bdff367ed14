package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/inviteforge/inviteforge/internal/models"
)

// StatsService reports aggregate platform counters for the admin dashboard.
type StatsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStatsService constructs a stats service once a database handle is supplied.
func NewStatsService(db *gorm.DB) (*StatsService, error) {
	if db == nil {
		return nil, errors.New("stats service: db is required")
	}
	return &StatsService{db: db, now: time.Now}, nil
}

// Overview is the aggregate snapshot returned to administrators.
type Overview struct {
	Users            int64 `json:"users"`
	Templates        int64 `json:"templates"`
	GeneratedInvites int64 `json:"generated_invites"`
	InvitesLast7Days int64 `json:"invites_last_7_days"`
}

// Overview counts users, templates and generated invites, plus invites
// created in the trailing seven days.
func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	if s == nil {
		return nil, errors.New("stats service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	var out Overview
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&out.Users).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Template{}).Count(&out.Templates).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.GeneratedInvite{}).Count(&out.GeneratedInvites).Error; err != nil {
		return nil, err
	}

	cutoff := s.now().AddDate(0, 0, -7)
	err := db.Model(&models.GeneratedInvite{}).
		Where("created_at >= ?", cutoff).
		Count(&out.InvitesLast7Days).Error
	if err != nil {
		return nil, err
	}

	return &out, nil
}
