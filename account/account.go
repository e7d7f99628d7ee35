// Package account owns the user-facing profile: the UserDetails record, the
// profile photo workflow against the blob store, and the ordered teardown that
// deletes an account across all four backends.
package account

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	"github.com/dishdash-app/dishdash/blob"
	"github.com/dishdash-app/dishdash/identity"
	"github.com/dishdash-app/dishdash/orders"
	"github.com/dishdash-app/dishdash/store"
)

const CollectionUserDetails = "UserDetails"

var (
	ErrMissingFields = errors.New("please fill in all fields")
	ErrInvalidPhone  = errors.New("please enter a valid phone number")
	ErrEmptyPhoto    = errors.New("no image data provided")
	ErrNoProfile     = errors.New("profile not found")
)

var phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)

// Profile is the editable user record. ProfilePicture holds a blob download
// reference and is empty when the user never uploaded one.
type Profile struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phoneNumber"`
	Address        string `json:"address"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

func profileFromRecord(r store.Record) Profile {
	return Profile{
		Name:           r.String("name"),
		Email:          r.String("email"),
		PhoneNumber:    r.String("phoneNumber"),
		Address:        r.String("address"),
		ProfilePicture: r.String("profilePicture"),
	}
}

// PhotoKey is the per-user blob key; re-uploads overwrite it.
func PhotoKey(userID string) string {
	return "profilePictures/" + userID + ".jpg"
}

type Service struct {
	st     store.Store
	blobs  blob.Store
	ids    *identity.Service
	orders *orders.Service
}

func NewService(st store.Store, blobs blob.Store, ids *identity.Service, ords *orders.Service) *Service {
	return &Service{st: st, blobs: blobs, ids: ids, orders: ords}
}

// CreateProfile writes the initial UserDetails record at sign-up.
func (s *Service) CreateProfile(ctx context.Context, userID string, p Profile) error {
	if p.Name == "" || p.Email == "" || p.Address == "" {
		return ErrMissingFields
	}
	if !phonePattern.MatchString(p.PhoneNumber) {
		return ErrInvalidPhone
	}
	return s.st.Set(ctx, CollectionUserDetails, userID, map[string]any{
		"name":        p.Name,
		"email":       p.Email,
		"phoneNumber": p.PhoneNumber,
		"address":     p.Address,
	})
}

func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	rec, err := s.st.Get(ctx, CollectionUserDetails, userID)
	if errors.Is(err, store.ErrNotFound) {
		return Profile{}, ErrNoProfile
	}
	if err != nil {
		return Profile{}, err
	}
	return profileFromRecord(rec), nil
}

// UpdateDetails edits name, address and phone in place.
func (s *Service) UpdateDetails(ctx context.Context, userID, name, address, phone string) error {
	if name == "" || address == "" {
		return ErrMissingFields
	}
	if !phonePattern.MatchString(phone) {
		return ErrInvalidPhone
	}
	err := s.st.Update(ctx, CollectionUserDetails, userID, map[string]any{
		"name":        name,
		"address":     address,
		"phoneNumber": phone,
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoProfile
	}
	return err
}

// Watch follows the user's own profile record.
func (s *Service) Watch(ctx context.Context, userID string, fn func(Profile)) (store.UnsubscribeFunc, error) {
	return s.st.Subscribe(ctx, CollectionUserDetails, func(snap store.Snapshot) {
		for _, r := range snap.Records {
			if r.ID == userID {
				fn(profileFromRecord(r))
				return
			}
		}
	})
}

// UpdatePhoto uploads the image under the user's key and only then writes the
// reference into the profile record. Nothing is mutated until the upload
// succeeds, so a failure leaves the previous photo untouched.
func (s *Service) UpdatePhoto(ctx context.Context, userID string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPhoto
	}

	ref, err := s.blobs.Upload(ctx, PhotoKey(userID), data)
	if err != nil {
		return "", err
	}

	err = s.st.Update(ctx, CollectionUserDetails, userID, map[string]any{"profilePicture": ref})
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoProfile
	}
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "profile photo updated", slog.String("user_id", userID))
	return ref, nil
}

// RemovePhoto clears the reference field first, then best-effort deletes the
// stored object. A missing object counts as success.
func (s *Service) RemovePhoto(ctx context.Context, userID string) error {
	err := s.st.Update(ctx, CollectionUserDetails, userID, map[string]any{
		"profilePicture": store.DeleteField,
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoProfile
	}
	if err != nil {
		return err
	}

	s.deletePhotoBlob(ctx, userID)
	return nil
}

// DeleteAccount tears the account down in order: photo (best-effort), all
// order records as an awaited batch, the profile record, then the credential
// record. The first failing step aborts the rest; records already gone stay
// gone.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	s.deletePhotoBlob(ctx, userID)

	if err := s.orders.DeleteAll(ctx, userID); err != nil {
		return err
	}
	if err := s.st.Delete(ctx, CollectionUserDetails, userID); err != nil {
		return err
	}
	return s.ids.DeleteAccount(ctx, userID)
}

func (s *Service) deletePhotoBlob(ctx context.Context, userID string) {
	key := PhotoKey(userID)
	if _, err := s.blobs.Metadata(ctx, key); errors.Is(err, blob.ErrNotFound) {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to delete profile photo blob",
			slog.String("user_id", userID), slog.Any("err", err))
	}
}
