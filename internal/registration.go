package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Package names are free text; only these three map to a guest count.
const (
	packageOneParent  = "1 Player + 1 Parent"
	packageTwoGuests  = "1 Player + 2 Guests"
	packageThreeGuest = "1 Player + 3 Guests"
	packageCustom     = "Other"
	levelCustom       = "Other"
)

func guestCountFor(packageName string) *int {
	var n int
	switch packageName {
	case packageOneParent:
		n = 1
	case packageTwoGuests:
		n = 2
	case packageThreeGuest:
		n = 3
	default:
		return nil
	}
	return &n
}

// Validate only checks that required fields are present.
func (f RegistrationForm) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"parentFirstName", f.ParentFirstName},
		{"parentLastName", f.ParentLastName},
		{"email", f.Email},
		{"playerName", f.PlayerName},
		{"playerCurrentLeague", f.PlayerCurrentLeague},
		{"team", f.Team},
		{"level", f.Level},
		{"position", f.Position},
	}
	for _, r := range required {
		if r.value == "" {
			return FieldError{Field: r.name}
		}
	}
	return nil
}

type RegistrationService struct {
	regs       *Collection[Registration]
	dispatcher *Dispatcher
	log        *slog.Logger
	metrics    *Metrics
	now        func() time.Time
}

func NewRegistrationService(store Store, d *Dispatcher, log *slog.Logger, m *Metrics) *RegistrationService {
	return &RegistrationService{
		regs:       NewCollection[Registration](store, CollectionRegistrations),
		dispatcher: d,
		log:        log,
		metrics:    m,
		now:        time.Now,
	}
}

func (s *RegistrationService) List(ctx context.Context) ([]Registration, error) {
	return s.regs.All(ctx)
}

// Register persists a new registration and dispatches the confirmation email
// without waiting for it.
func (s *RegistrationService) Register(ctx context.Context, form RegistrationForm) (Registration, error) {
	if err := form.Validate(); err != nil {
		return Registration{}, err
	}
	token, err := newConfirmationToken()
	if err != nil {
		return Registration{}, fmt.Errorf("confirmation token: %w", err)
	}

	reg := Registration{
		ID:                newID(),
		Timestamp:         s.now().UTC(),
		ConfirmationToken: token,
		PlayerCount:       1,
		GuestCount:        guestCountFor(form.PackageName),
		RegistrationForm:  form,
	}

	err = s.regs.Mutate(ctx, func(items []Registration) ([]Registration, bool, error) {
		return append(items, reg), true, nil
	})
	if err != nil {
		return Registration{}, fmt.Errorf("save registration: %w", err)
	}

	logAction(s.log, "register", "registration_id", reg.ID, "email", reg.Email, "player", reg.PlayerName)
	s.metrics.Registrations.Inc()
	s.dispatcher.Dispatch(reg)
	return reg, nil
}

// Resend dispatches the confirmation email again with the stored token.
func (s *RegistrationService) Resend(ctx context.Context, id string) error {
	items, err := s.regs.All(ctx)
	if err != nil {
		return err
	}
	for _, r := range items {
		if r.ID == id {
			s.dispatcher.Dispatch(r)
			logAction(s.log, "resend_email", "registration_id", r.ID, "email", r.Email)
			return nil
		}
	}
	return fmt.Errorf("registration %s: %w", id, ErrNotFound)
}

// Update applies a partial update. Identity, token and counts cannot be
// set directly; counts follow packageName, and confirmed only moves to true.
func (s *RegistrationService) Update(ctx context.Context, id string, patch map[string]json.RawMessage) (Registration, error) {
	var updated Registration
	err := s.regs.Mutate(ctx, func(items []Registration) ([]Registration, bool, error) {
		for i, cur := range items {
			if cur.ID != id {
				continue
			}
			next, err := applyRegistrationPatch(cur, patch)
			if err != nil {
				return nil, false, err
			}
			items[i] = next
			updated = next
			return items, true, nil
		}
		return nil, false, fmt.Errorf("registration %s: %w", id, ErrNotFound)
	})
	if err != nil {
		return Registration{}, err
	}
	logAction(s.log, "update_registration", "registration_id", id)
	return updated, nil
}

func applyRegistrationPatch(cur Registration, patch map[string]json.RawMessage) (Registration, error) {
	b, err := json.Marshal(cur.RegistrationForm)
	if err != nil {
		return Registration{}, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return Registration{}, err
	}
	for k, v := range patch {
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return Registration{}, err
	}

	var form RegistrationForm
	if err := json.Unmarshal(merged, &form); err != nil {
		return Registration{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	next := cur
	next.RegistrationForm = form

	if raw, ok := patch["confirmed"]; ok {
		var confirmed bool
		if err := json.Unmarshal(raw, &confirmed); err != nil {
			return Registration{}, fmt.Errorf("%w: confirmed: %v", ErrValidation, err)
		}
		next.Confirmed = cur.Confirmed || confirmed
	}
	if _, ok := patch["packageName"]; ok {
		next.PlayerCount = 1
		next.GuestCount = guestCountFor(form.PackageName)
	}
	return next, nil
}

func (s *RegistrationService) Delete(ctx context.Context, id string) error {
	err := s.regs.Mutate(ctx, func(items []Registration) ([]Registration, bool, error) {
		for i, r := range items {
			if r.ID == id {
				return append(items[:i], items[i+1:]...), true, nil
			}
		}
		return nil, false, fmt.Errorf("registration %s: %w", id, ErrNotFound)
	})
	if err != nil {
		return err
	}
	logAction(s.log, "delete_registration", "registration_id", id)
	return nil
}

// Confirm marks the registration owning token as confirmed. A second call
// with the same token reports alreadyConfirmed and writes nothing.
func (s *RegistrationService) Confirm(ctx context.Context, token string) (reg Registration, alreadyConfirmed bool, err error) {
	if token == "" {
		return Registration{}, false, fmt.Errorf("%w: empty token", ErrValidation)
	}
	err = s.regs.Mutate(ctx, func(items []Registration) ([]Registration, bool, error) {
		for i := range items {
			if items[i].ConfirmationToken != token {
				continue
			}
			if items[i].Confirmed {
				reg, alreadyConfirmed = items[i], true
				return items, false, nil
			}
			items[i].Confirmed = true
			reg = items[i]
			return items, true, nil
		}
		return nil, false, fmt.Errorf("confirmation token: %w", ErrNotFound)
	})
	if err != nil {
		return Registration{}, false, err
	}
	if !alreadyConfirmed {
		logAction(s.log, "confirm_email", "registration_id", reg.ID, "email", reg.Email)
		s.metrics.Confirmations.Inc()
	}
	return reg, alreadyConfirmed, nil
}
