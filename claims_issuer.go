package identity

import (
	"context"

	"github.com/goliatone/go-errors"
)

// ProfileClaimsIssuer builds the claim set the external OIDC engine embeds
// into issued tokens, straight from the credential store.
type ProfileClaimsIssuer struct {
	repo   RepositoryManager
	logger Logger
}

var _ ClaimsIssuer = (*ProfileClaimsIssuer)(nil)

func NewClaimsIssuer(repo RepositoryManager) *ProfileClaimsIssuer {
	return &ProfileClaimsIssuer{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *ProfileClaimsIssuer) WithLogger(logger Logger) *ProfileClaimsIssuer {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// IssueClaims returns the subject's claim set: one name claim, one email
// claim, and one role claim per membership in grant order.
//
// An unknown subject yields an empty set and no error. The OIDC engine
// treats the claim set as advisory and gates on IsActive instead, so a
// deleted account produces empty tokens rather than a hard failure here.
func (s *ProfileClaimsIssuer) IssueClaims(ctx context.Context, subject string) ([]Claim, error) {
	user, err := s.repo.Users().GetByID(ctx, subject)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Debug("claims requested for unknown subject %s", subject)
			return []Claim{}, nil
		}
		return nil, err
	}

	claims := []Claim{
		NameClaim(user),
		EmailClaim(user),
	}

	memberships, err := s.repo.Users().GetRoles(ctx, user)
	if err != nil {
		return nil, err
	}

	for _, role := range memberships {
		claims = append(claims, RoleClaim(role))
	}

	return claims, nil
}

// IsActive reports whether a user record exists for the subject. It does not
// consider disabled or locked accounts; there is no such state in scope.
func (s *ProfileClaimsIssuer) IsActive(ctx context.Context, subject string) (bool, error) {
	_, err := s.repo.Users().GetByID(ctx, subject)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
