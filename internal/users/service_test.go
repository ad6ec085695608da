package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/praxis-pm/praxis/internal/shared"
)

type memoryRepo struct {
	users map[uuid.UUID]User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[uuid.UUID]User)}
}

func (r *memoryRepo) Insert(_ context.Context, user User) (User, error) {
	r.users[user.ID] = user
	return user, nil
}

func (r *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return User{}, shared.ErrNotFound
}

func (r *memoryRepo) FindByEmail(_ context.Context, email string) (User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

func (r *memoryRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *memoryRepo) FindAll(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryRepo) Save(_ context.Context, user User) (User, error) {
	r.users[user.ID] = user
	return user, nil
}

func TestRegister(t *testing.T) {
	svc := NewService(newMemoryRepo())

	user, err := svc.Register(context.Background(), " Alice@Example.COM ", "s3cret-pass", "Alice", "Smith")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, DefaultRole, user.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
}

func TestRegisterDuplicateEmailIsSoftNoop(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	first, err := svc.Register(ctx, "bob@example.com", "s3cret-pass", "Bob", "Jones")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.Register(ctx, "BOB@example.com", "other-pass", "Bobby", "Jones")
	require.NoError(t, err)
	require.Nil(t, second)
}

func TestFindByEmailNormalizes(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Register(ctx, "carol@example.com", "s3cret-pass", "Carol", "King")
	require.NoError(t, err)

	got, err := svc.FindByEmail(ctx, "  CAROL@Example.com ")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
}

func TestUpdateProfile(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, "dave@example.com", "s3cret-pass", "Dave", "Lee")
	require.NoError(t, err)

	first := "David"
	newPass := "new-password"
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{FirstName: &first, Password: &newPass})
	require.NoError(t, err)
	require.Equal(t, "David", updated.FirstName)
	require.Equal(t, "Lee", updated.LastName)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("new-password")))

	// Empty password pointer leaves the hash untouched.
	empty := ""
	unchanged, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Password: &empty})
	require.NoError(t, err)
	require.Equal(t, updated.PasswordHash, unchanged.PasswordHash)
}
