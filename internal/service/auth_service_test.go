package service

import (
	"net/http"
	"testing"

	"minigame_backend/internal/config"
	"minigame_backend/internal/model"

	"gorm.io/gorm"
)

type fakeUserStore struct {
	users  map[uint]*model.User
	nextID uint
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uint]*model.User)}
}

func (f *fakeUserStore) Create(user *model.User) error {
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) FindByID(id uint) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserStore) FindByEmail(email string) (*model.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) List(offset, limit int) ([]model.User, error) {
	var users []model.User
	for id := uint(1); id <= f.nextID; id++ {
		if user, ok := f.users[id]; ok {
			users = append(users, *user)
		}
	}
	if offset >= len(users) {
		return nil, nil
	}
	users = users[offset:]
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (f *fakeUserStore) UpdateLastLogin(uint) error { return nil }
func (f *fakeUserStore) UpdateLastSeen(uint) error  { return nil }

func newAuthTestService() (*AuthService, *fakeUserStore) {
	users := newFakeUserStore()
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	return NewAuthService(users, cfg), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users := newAuthTestService()

	result, err := svc.Register(RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.Token == "" {
		t.Error("expected a token")
	}
	if result.User.Role != model.RoleUser {
		t.Errorf("expected role user, got %q", result.User.Role)
	}
	// 明文密码不能入库
	if users.users[result.User.ID].Password == "correct-horse" {
		t.Error("password stored in plaintext")
	}

	login, err := svc.Login(LoginRequest{Email: "alice@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != result.User.ID {
		t.Errorf("expected user %d, got %d", result.User.ID, login.User.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthTestService()

	if _, err := svc.Register(RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(RegisterRequest{
		Name: "Mallory", Email: "alice@example.com", Password: "other-password",
	})
	assertAppError(t, err, http.StatusConflict)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthTestService()

	if _, err := svc.Register(RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assertAppError(t, err, http.StatusBadRequest)

	// 账号不存在和密码错误返回同样的错误
	_, err = svc.Login(LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	assertAppError(t, err, http.StatusBadRequest)
}

func TestListUsers(t *testing.T) {
	svc, _ := newAuthTestService()

	for _, name := range []string{"alice", "bob", "carol"} {
		if _, err := svc.Register(RegisterRequest{
			Name: name, Email: name + "@example.com", Password: "correct-horse",
		}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	profiles, err := svc.ListUsers(0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].Name != "alice" || profiles[1].Name != "bob" {
		t.Errorf("unexpected page: %s, %s", profiles[0].Name, profiles[1].Name)
	}

	rest, err := svc.ListUsers(2, 2)
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(rest) != 1 || rest[0].Name != "carol" {
		t.Errorf("unexpected second page: %+v", rest)
	}
}
