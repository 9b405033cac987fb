package services

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/repository"
)

// StatsServiceProvider defines the interface for the admin overview.
type StatsServiceProvider interface {
	Overview(ctx context.Context) (*Overview, error)
	System(ctx context.Context) (*SystemStats, error)
}

// Overview is the admin dashboard summary.
type Overview struct {
	Users       int              `json:"users"`
	Memberships *MembershipStats `json:"memberships"`
	NewContacts int              `json:"newContacts"`
}

// SystemStats describes the host the API runs on.
type SystemStats struct {
	Hostname      string  `json:"hostname"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	MemoryUsedMB  uint64  `json:"memoryUsedMb"`
	MemoryTotalMB uint64  `json:"memoryTotalMb"`
	Goroutines    int     `json:"goroutines"`
	GoVersion     string  `json:"goVersion"`
}

// StatsService aggregates counts and host metrics.
type StatsService struct {
	users       repository.UserRepository
	contacts    repository.ContactRepository
	memberships MembershipServiceProvider
}

// NewStatsService creates a new StatsService.
func NewStatsService(users repository.UserRepository, contacts repository.ContactRepository, memberships MembershipServiceProvider) *StatsService {
	return &StatsService{users: users, contacts: contacts, memberships: memberships}
}

// Overview counts users, memberships and unread contact messages.
func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	ms, err := s.memberships.Stats(ctx)
	if err != nil {
		return nil, err
	}
	contacts, err := s.contacts.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &Overview{Users: users, Memberships: ms, NewContacts: contacts[models.ContactNew]}, nil
}

// System samples memory, CPU and uptime of the host.
func (s *StatsService) System(ctx context.Context) (*SystemStats, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	stats := &SystemStats{
		MemoryPercent: vm.UsedPercent,
		MemoryUsedMB:  vm.Used / 1024 / 1024,
		MemoryTotalMB: vm.Total / 1024 / 1024,
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
	}
	if percents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		stats.Hostname = info.Hostname
		stats.UptimeSeconds = info.Uptime
	}
	return stats, nil
}
