package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/realtime"
	"github.com/HSouheill/carrental_backend/repositories/memstore"
	"github.com/HSouheill/carrental_backend/utils"
)

const testPassword = "Secret123"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type sentMail struct {
	To, Subject, Body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordingMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type recordingSMS struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSMS) SendSMS(_ context.Context, phone, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, phone+"|"+message)
	return nil
}

func syncDispatch(fn func()) { fn() }

// fixture wires every service over in-memory stores with a synchronous
// dispatcher and a fake clock.
type fixture struct {
	clock *fakeClock
	users *memstore.Users
	store *memstore.Notifications

	sessionStore *memstore.Sessions
	categories   *memstore.Categories
	cars         *memstore.Cars
	bookingStore *memstore.Bookings
	favorites    *memstore.Favorites

	hub    *realtime.Hub
	mailer *recordingMailer
	sms    *recordingSMS
	hasher *utils.PasswordHasher

	sessions      *SessionService
	notifications *NotificationService
	auth          *AuthService
	passwords     *PasswordService
	accounts      *UserService
	bookings      *BookingService
	catalog       *CatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:        newClock(time.Now().UTC()),
		users:        memstore.NewUsers(),
		store:        memstore.NewNotifications(),
		sessionStore: memstore.NewSessions(),
		categories:   memstore.NewCategories(),
		cars:         memstore.NewCars(),
		bookingStore: memstore.NewBookings(),
		favorites:    memstore.NewFavorites(),
		hub:          realtime.NewHub(nil),
		mailer:       &recordingMailer{},
		sms:          &recordingSMS{},
		hasher:       &utils.PasswordHasher{Cost: 4},
	}

	f.sessions = NewSessionService(f.sessionStore, f.users, 7*24*time.Hour, nil)
	f.sessions.SetClock(f.clock.Now)

	f.notifications = NewNotificationService(f.store, f.users, f.hub, f.mailer, f.sms, 30, nil)
	f.notifications.SetClock(f.clock.Now)
	f.notifications.SetDispatcher(syncDispatch)

	auth, err := NewAuthService(f.users, f.sessions, f.notifications, f.hasher, nil)
	require.NoError(t, err)
	auth.now = f.clock.Now
	f.auth = auth

	f.passwords = NewPasswordService(f.users, f.sessions, NewMemoryResetTokens(), f.mailer, f.notifications, f.hasher,
		PasswordServiceConfig{Secret: "test-secret", TTL: time.Hour, BaseURL: "http://app.test"}, nil)
	f.passwords.SetDispatcher(syncDispatch)

	f.accounts = NewUserService(f.users, f.sessions, f.passwords, f.notifications, nil)
	f.accounts.now = f.clock.Now

	f.bookings = NewBookingService(f.bookingStore, f.cars, f.notifications, nil)
	f.bookings.SetClock(f.clock.Now)

	f.catalog = NewCatalogService(f.categories, f.cars, f.favorites)
	f.catalog.now = f.clock.Now
	return f
}

// seedUser stores an account with testPassword. Role and status are stored
// as given, so legacy casing can be seeded.
func (f *fixture) seedUser(t *testing.T, email, role, status string) *models.User {
	t.Helper()
	hash, err := f.hasher.Hash(testPassword)
	require.NoError(t, err)
	u := models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.Split(email, "@")[0],
		Phone:        "+96170000000",
		Role:         models.Role(role),
		Status:       models.Status(status),
		CreatedAt:    f.clock.Now(),
	}
	f.users.Put(u)
	stored, err := f.users.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return stored
}

func (f *fixture) seedCar(t *testing.T, price float64, available bool) *models.Car {
	t.Helper()
	ctx := context.Background()
	cat := &models.Category{Name: "Cat " + primitive.NewObjectID().Hex()}
	require.NoError(t, f.categories.Create(ctx, cat))
	car := &models.Car{
		Make:        "Toyota",
		Model:       "Corolla",
		Year:        2022,
		CategoryID:  cat.ID,
		PricePerDay: price,
		Seats:       5,
		Available:   available,
	}
	require.NoError(t, f.cars.Create(ctx, car))
	return car
}
