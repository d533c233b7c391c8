package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Adelipop59/super-try-api-sub002/internal/contracts"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func loginAttemptsKey(email string) string {
	return "login_attempts:" + email
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (AuthResponse, error) {
	role := domain.NormalizeRole(input.Role)
	if role != domain.RoleTester && role != domain.RoleSeller {
		return AuthResponse{}, fmt.Errorf("%w: role must be TESTER or SELLER", domain.ErrInvalidInput)
	}
	return s.createUser(ctx, input, role)
}

// CreateAdmin is used by the operator CLI only.
func (s *Service) CreateAdmin(ctx context.Context, email, password string) (domain.User, error) {
	out, err := s.createUser(ctx, RegisterInput{Email: email, Password: password, FirstName: "Admin"}, domain.RoleAdmin)
	if err != nil {
		return domain.User{}, err
	}
	return out.User, nil
}

func (s *Service) createUser(ctx context.Context, input RegisterInput, role domain.Role) (AuthResponse, error) {
	email := domain.NormalizeEmail(input.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return AuthResponse{}, err
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return AuthResponse{}, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return AuthResponse{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	} else if !isNotFound(err) {
		return AuthResponse{}, err
	}

	now := s.nowFn()
	user := domain.User{
		UserID:              uuid.New(),
		Email:               email,
		Role:                role,
		Status:              domain.UserStatusActive,
		FirstName:           strings.TrimSpace(input.FirstName),
		LastName:            strings.TrimSpace(input.LastName),
		City:                strings.TrimSpace(input.City),
		CompanyName:         strings.TrimSpace(input.CompanyName),
		PreferredCategories: []uuid.UUID{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := applyProfile(&user, UpdateProfileInput{
		BirthDate:           optionalString(input.BirthDate),
		Gender:              optionalString(input.Gender),
		Country:             optionalString(input.Country),
		PreferredCategories: &input.PreferredCategories,
	}, now.Year()); err != nil {
		return AuthResponse{}, err
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return AuthResponse{}, err
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		return AuthResponse{}, err
	}
	if role == domain.RoleTester && s.wallets != nil {
		if err := s.wallets.Create(ctx, domain.Wallet{
			WalletID:       uuid.New(),
			UserID:         user.UserID,
			Balance:        decimal.Zero,
			TotalEarned:    decimal.Zero,
			TotalWithdrawn: decimal.Zero,
			Currency:       s.cfg.Currency,
			CreatedAt:      now,
			UpdatedAt:      now,
		}); err != nil {
			return AuthResponse{}, err
		}
	}
	s.emit(ctx, domain.EventUserRegistered, "user_id", user.UserID.String(), contracts.UserRegisteredPayload{
		UserID: user.UserID.String(),
		Email:  user.Email,
		Role:   string(user.Role),
	})
	s.recordLog(ctx, domain.LogLevelInfo, domain.LogCategoryAuth, "user registered", uuidPtr(user.UserID), map[string]string{"role": string(role)})
	return s.issueToken(user)
}

func (s *Service) Login(ctx context.Context, input LoginInput) (AuthResponse, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return AuthResponse{}, domain.ErrInvalidInput
	}
	key := loginAttemptsKey(email)
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key)
		if err == nil && raw != "" {
			if attempts, convErr := strconv.Atoi(raw); convErr == nil && attempts >= s.cfg.LoginMaxAttempts {
				return AuthResponse{}, domain.ErrAccountLocked
			}
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			s.registerLoginFailure(ctx, key, nil)
			return AuthResponse{}, domain.ErrUnauthorized
		}
		return AuthResponse{}, err
	}
	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		s.registerLoginFailure(ctx, key, &user.UserID)
		return AuthResponse{}, domain.ErrUnauthorized
	}
	if !user.IsActive() {
		return AuthResponse{}, fmt.Errorf("%w: account suspended", domain.ErrForbidden)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, key)
	}
	return s.issueToken(user)
}

func (s *Service) registerLoginFailure(ctx context.Context, key string, userID *uuid.UUID) {
	if s.cache == nil {
		return
	}
	attempts, err := s.cache.IncrWithTTL(ctx, key, s.cfg.LoginLockoutWindow)
	if err != nil {
		return
	}
	if int(attempts) == s.cfg.LoginMaxAttempts {
		s.recordLog(ctx, domain.LogLevelWarn, domain.LogCategoryAuth, "login locked after repeated failures", userID, map[string]string{"attempts": strconv.FormatInt(attempts, 10)})
	}
}

func (s *Service) issueToken(user domain.User) (AuthResponse, error) {
	now := s.nowFn()
	expiresAt := now.Add(s.cfg.TokenTTL)
	token, err := s.tokens.Sign(ports.AuthClaims{
		UserID:    user.UserID,
		Email:     user.Email,
		Role:      string(user.Role),
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt, User: user}, nil
}

// ValidateToken resolves a bearer token to an actor. Suspended users are rejected
// even while their token is still valid.
func (s *Service) ValidateToken(ctx context.Context, token string) (Actor, error) {
	claims, err := s.tokens.ParseAndValidate(token)
	if err != nil {
		return Actor{}, domain.ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return Actor{}, domain.ErrUnauthorized
		}
		return Actor{}, err
	}
	if !user.IsActive() {
		return Actor{}, fmt.Errorf("%w: account suspended", domain.ErrForbidden)
	}
	return Actor{UserID: user.UserID, Role: user.Role}, nil
}

func (s *Service) GetMe(ctx context.Context, actor Actor) (domain.User, error) {
	if actor.UserID == uuid.Nil {
		return domain.User{}, domain.ErrUnauthorized
	}
	return s.users.GetByID(ctx, actor.UserID)
}

func (s *Service) UpdateProfile(ctx context.Context, actor Actor, input UpdateProfileInput) (domain.User, error) {
	if actor.UserID == uuid.Nil {
		return domain.User{}, domain.ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return domain.User{}, err
	}
	now := s.nowFn()
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.City != nil {
		user.City = strings.TrimSpace(*input.City)
	}
	if input.CompanyName != nil {
		if user.Role != domain.RoleSeller {
			return domain.User{}, fmt.Errorf("%w: company name is for sellers", domain.ErrInvalidInput)
		}
		user.CompanyName = strings.TrimSpace(*input.CompanyName)
	}
	if err := applyProfile(&user, input, now.Year()); err != nil {
		return domain.User{}, err
	}
	if input.PreferredCategories != nil && s.categories != nil {
		for _, id := range user.PreferredCategories {
			if _, err := s.categories.GetByID(ctx, id); err != nil {
				if isNotFound(err) {
					return domain.User{}, fmt.Errorf("%w: unknown category %s", domain.ErrInvalidInput, id)
				}
				return domain.User{}, err
			}
		}
	}
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// applyProfile validates and applies the eligibility-relevant profile fields.
func applyProfile(user *domain.User, input UpdateProfileInput, currentYear int) error {
	if input.BirthDate != nil {
		birth, err := parseDate(*input.BirthDate)
		if err != nil {
			return err
		}
		if birth != nil && (birth.Year() > currentYear || birth.Year() < currentYear-domain.MaxTesterAge) {
			return fmt.Errorf("%w: birth date out of range", domain.ErrInvalidInput)
		}
		user.BirthDate = birth
	}
	if input.Gender != nil {
		raw := strings.TrimSpace(*input.Gender)
		gender := domain.NormalizeGender(raw)
		if raw != "" && (gender == "" || gender == domain.GenderAll) {
			return fmt.Errorf("%w: gender must be MALE, FEMALE or OTHER", domain.ErrInvalidInput)
		}
		user.Gender = gender
	}
	if input.Country != nil {
		country := domain.NormalizeCountry(*input.Country)
		if country != "" && !domain.IsCountryCode(country) {
			return fmt.Errorf("%w: country must be an ISO-3166 alpha-2 code", domain.ErrInvalidInput)
		}
		user.Country = country
	}
	if input.PreferredCategories != nil {
		ids := make([]uuid.UUID, 0, len(*input.PreferredCategories))
		seen := make(map[uuid.UUID]struct{}, len(*input.PreferredCategories))
		for _, id := range *input.PreferredCategories {
			if id == uuid.Nil {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		user.PreferredCategories = ids
	}
	return nil
}

func optionalString(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func (s *Service) ListUsers(ctx context.Context, actor Actor, query ListUsersQuery) (Page[domain.User], error) {
	if err := requireAdmin(actor); err != nil {
		return Page[domain.User]{}, err
	}
	limit, offset := domain.NormalizePage(query.Limit, query.Offset)
	filter := ports.UserFilter{Limit: limit, Offset: offset}
	if query.Role != "" {
		filter.Role = domain.NormalizeRole(query.Role)
		if filter.Role == "" {
			return Page[domain.User]{}, fmt.Errorf("%w: unknown role", domain.ErrInvalidInput)
		}
	}
	if query.Status != "" {
		status := domain.UserStatus(strings.ToUpper(strings.TrimSpace(query.Status)))
		if status != domain.UserStatusActive && status != domain.UserStatusSuspended {
			return Page[domain.User]{}, fmt.Errorf("%w: unknown status", domain.ErrInvalidInput)
		}
		filter.Status = status
	}
	items, total, err := s.users.List(ctx, filter)
	if err != nil {
		return Page[domain.User]{}, err
	}
	return Page[domain.User]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) SetUserStatus(ctx context.Context, actor Actor, userID uuid.UUID, input SetUserStatusInput) (domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.User{}, err
	}
	status := domain.UserStatus(strings.ToUpper(strings.TrimSpace(input.Status)))
	if status != domain.UserStatusActive && status != domain.UserStatusSuspended {
		return domain.User{}, fmt.Errorf("%w: status must be ACTIVE or SUSPENDED", domain.ErrInvalidInput)
	}
	if userID == actor.UserID {
		return domain.User{}, fmt.Errorf("%w: admins cannot change their own status", domain.ErrForbidden)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if user.Status == status {
		return user, nil
	}
	user.Status = status
	user.UpdatedAt = s.nowFn()
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, err
	}
	level := domain.LogLevelInfo
	if status == domain.UserStatusSuspended {
		level = domain.LogLevelWarn
	}
	s.recordLog(ctx, level, domain.LogCategoryAdmin, "user status changed to "+string(status), uuidPtr(user.UserID), map[string]string{
		"admin_id": actor.UserID.String(),
		"reason":   strings.TrimSpace(input.Reason),
	})
	return user, nil
}

func (s *Service) getTester(ctx context.Context, testerID uuid.UUID) (domain.User, error) {
	user, err := s.users.GetByID(ctx, testerID)
	if err != nil {
		return domain.User{}, err
	}
	if user.Role != domain.RoleTester {
		return domain.User{}, fmt.Errorf("%w: user is not a tester", domain.ErrNotFound)
	}
	return user, nil
}
