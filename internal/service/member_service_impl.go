package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/repository"
)

type memberService struct {
	members    repository.MemberRepo
	activities repository.ActivityRepo
	catalog    *ActivityCatalog
}

func NewMemberService(members repository.MemberRepo, activities repository.ActivityRepo, catalog *ActivityCatalog) MemberService {
	return &memberService{members: members, activities: activities, catalog: catalog}
}

func (s *memberService) AddMember(ctx context.Context, m *domain.Member) error {
	m.DisplayName = strings.TrimSpace(m.DisplayName)
	if m.DisplayName == "" {
		return &domain.ValidationError{Message: "member name is required"}
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return s.members.Create(ctx, m)
}

func (s *memberService) ResolveMember(ctx context.Context, ref string) (*domain.Member, error) {
	if m, err := s.members.GetByID(ctx, ref); err == nil {
		return m, nil
	} else if !domain.IsNotFound(err) {
		return nil, err
	}
	return s.members.GetByName(ctx, strings.TrimSpace(ref))
}

func (s *memberService) ListMembers(ctx context.Context) ([]domain.Member, error) {
	return s.members.List(ctx)
}

// AddActivity stores the activity and drops the cached doing/reviewing
// split so the new activity is classified on next use.
func (s *memberService) AddActivity(ctx context.Context, a *domain.Activity) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return &domain.ValidationError{Message: "activity name is required"}
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if err := s.activities.Create(ctx, a); err != nil {
		return err
	}
	s.catalog.Invalidate()
	return nil
}

func (s *memberService) GetActivityByName(ctx context.Context, name string) (*domain.Activity, error) {
	return s.activities.GetByName(ctx, strings.TrimSpace(name))
}

func (s *memberService) ListActivities(ctx context.Context) ([]domain.Activity, error) {
	return s.activities.List(ctx)
}
