package notification

import "context"

// Service reads and updates preferences on top of the catalogue defaults.
type Service struct {
	repo Repository
}

// NewService creates a preferences service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the full settings for userID, defaults filled in.
func (s *Service) Get(ctx context.Context, userID string) (Settings, error) {
	stored, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return stored.Merge(Defaults()), nil
}

// Update stores the given options and returns the resulting settings.
func (s *Service) Update(ctx context.Context, userID string, changes Settings) (Settings, error) {
	if err := changes.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, userID, changes); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}
