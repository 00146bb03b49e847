package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/internal/pkg/database"
)

type RepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	repos *Repositories
	user  *models.User
	other *models.User
}

func (s *RepositoryTestSuite) SetupTest() {
	db, err := database.NewSQLiteMemory(uuid.NewString())
	s.Require().NoError(err)
	s.db = db
	s.repos = NewRepositories(db)

	s.user = s.createUser("owner@example.com")
	s.other = s.createUser("other@example.com")
}

func (s *RepositoryTestSuite) createUser(email string) *models.User {
	u, err := models.CreateUser("Test", email, "secret1")
	s.Require().NoError(err)
	s.Require().NoError(s.repos.User.Create(u))
	return u
}

func (s *RepositoryTestSuite) TestUserLookup() {
	got, err := s.repos.User.GetByEmail(" OWNER@example.com ")
	s.Require().NoError(err)
	s.Equal(s.user.ID, got.ID)

	count, err := s.repos.User.Count()
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *RepositoryTestSuite) TestAPIKeyLookup() {
	settings, err := s.repos.Settings.GetOrCreate(s.user.ID)
	s.Require().NoError(err)
	raw, err := settings.IssueAPIKey()
	s.Require().NoError(err)
	s.Require().NoError(s.repos.Settings.Save(settings))

	u, us, err := s.repos.User.GetByAPIKeyHash(models.HashAPIKey(raw))
	s.Require().NoError(err)
	s.Equal(s.user.ID, u.ID)
	s.Equal(settings.ID, us.ID)

	settings.RevokeAPIKey()
	s.Require().NoError(s.repos.Settings.Save(settings))
	_, _, err = s.repos.User.GetByAPIKeyHash(models.HashAPIKey(raw))
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *RepositoryTestSuite) TestUserDeleteRetiresLedger() {
	settings, err := s.repos.Settings.GetOrCreate(s.user.ID)
	s.Require().NoError(err)
	raw, err := settings.IssueAPIKey()
	s.Require().NoError(err)
	s.Require().NoError(s.repos.Settings.Save(settings))

	mine := &models.Expense{UserID: s.user.ID, Amount: decimal.NewFromInt(12), Category: "Housing", Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	theirs := &models.Expense{UserID: s.other.ID, Amount: decimal.NewFromInt(7), Category: "Other", Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.Require().NoError(s.repos.Expense.Create(mine))
	s.Require().NoError(s.repos.Expense.Create(theirs))

	s.Require().NoError(s.repos.User.Delete(s.user.ID))

	_, err = s.repos.User.GetByID(s.user.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
	_, _, err = s.repos.User.GetByAPIKeyHash(models.HashAPIKey(raw))
	s.ErrorIs(err, gorm.ErrRecordNotFound)

	list, err := s.repos.Expense.ListByUser(s.user.ID)
	s.Require().NoError(err)
	s.Empty(list)
	list, err = s.repos.Expense.ListByUser(s.other.ID)
	s.Require().NoError(err)
	s.Len(list, 1)

	s.ErrorIs(s.repos.User.Delete(s.user.ID), gorm.ErrRecordNotFound)
}

func (s *RepositoryTestSuite) TestUserEmailIsNormalized() {
	u, err := models.CreateUser("Mixed", "mixed@example.com", "secret1")
	s.Require().NoError(err)
	u.Email = "  Mixed@Example.COM "
	s.Require().NoError(s.repos.User.Create(u))
	s.Equal("mixed@example.com", u.Email)

	got, err := s.repos.User.GetByEmail("MIXED@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)

	users, err := s.repos.User.List(0, 1)
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal(u.ID, users[0].ID)
}

func (s *RepositoryTestSuite) TestOwnedRepositoryScopesByUser() {
	older := &models.Expense{UserID: s.user.ID, Amount: decimal.NewFromInt(10), Category: "Housing", Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &models.Expense{UserID: s.user.ID, Amount: decimal.NewFromFloat(20.5), Category: "Shopping", Date: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}
	foreign := &models.Expense{UserID: s.other.ID, Amount: decimal.NewFromInt(99), Category: "Other", Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	for _, e := range []*models.Expense{older, newer, foreign} {
		s.Require().NoError(s.repos.Expense.Create(e))
	}

	list, err := s.repos.Expense.ListByUser(s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(newer.ID, list[0].ID)
	s.True(list[0].Amount.Equal(decimal.NewFromFloat(20.5)))

	_, err = s.repos.Expense.GetByID(s.user.ID, foreign.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)

	s.ErrorIs(s.repos.Expense.Delete(s.user.ID, foreign.ID), gorm.ErrRecordNotFound)
	s.NoError(s.repos.Expense.Delete(s.user.ID, older.ID))

	list, err = s.repos.Expense.ListByUser(s.user.ID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *RepositoryTestSuite) TestOwnedRepositoryUpdate() {
	goal := &models.SavingsGoal{UserID: s.user.ID, Title: "Car", TargetAmount: decimal.NewFromInt(1000), CurrentAmount: decimal.NewFromInt(800)}
	s.Require().NoError(s.repos.Goal.Create(goal))

	s.Require().NoError(goal.AddFunds(decimal.NewFromInt(250)))
	s.Require().NoError(s.repos.Goal.Update(goal))

	got, err := s.repos.Goal.GetByID(s.user.ID, goal.ID)
	s.Require().NoError(err)
	s.True(got.IsCompleted)
	s.True(got.CurrentAmount.Equal(decimal.NewFromInt(1050)))
}

func (s *RepositoryTestSuite) TestBillsDueForReminder() {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Hour)
	stale := now.Add(-48 * time.Hour)
	bills := []*models.Bill{
		{UserID: s.user.ID, Title: "due tomorrow", Amount: decimal.NewFromInt(1), DueDate: now.Add(24 * time.Hour)},
		{UserID: s.user.ID, Title: "due later today", Amount: decimal.NewFromInt(1), DueDate: now.Add(6 * time.Hour)},
		{UserID: s.user.ID, Title: "paid", Amount: decimal.NewFromInt(1), DueDate: now.Add(24 * time.Hour), IsPaid: true},
		{UserID: s.user.ID, Title: "too far", Amount: decimal.NewFromInt(1), DueDate: now.Add(10 * 24 * time.Hour)},
		{UserID: s.other.ID, Title: "reminded recently", Amount: decimal.NewFromInt(1), DueDate: now.Add(24 * time.Hour), RemindedAt: &recent},
		{UserID: s.other.ID, Title: "reminded long ago", Amount: decimal.NewFromInt(1), DueDate: now.Add(48 * time.Hour), RemindedAt: &stale},
	}
	for _, b := range bills {
		s.Require().NoError(s.repos.Bill.Create(b))
	}

	due, err := s.repos.Bill.DueForReminder(now, 72*time.Hour, 24*time.Hour, 0)
	s.Require().NoError(err)

	titles := make([]string, 0, len(due))
	for _, b := range due {
		titles = append(titles, b.Title)
	}
	s.Equal([]string{"due later today", "due tomorrow", "reminded long ago"}, titles)

	s.Require().NoError(s.repos.Bill.MarkReminded(due[0].ID, now))
	due, err = s.repos.Bill.DueForReminder(now, 72*time.Hour, 24*time.Hour, 0)
	s.Require().NoError(err)
	s.Len(due, 2)
}

func (s *RepositoryTestSuite) TestBillsDueForReminderUsesCalendarDates() {
	// Evening in a zone behind UTC: the instant is already tomorrow in UTC.
	now := time.Date(2025, 6, 10, 20, 0, 0, 0, time.FixedZone("EST", -5*3600))
	dueOn := func(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC) }
	for _, b := range []*models.Bill{
		{UserID: s.user.ID, Title: "yesterday", Amount: decimal.NewFromInt(1), DueDate: dueOn(9)},
		{UserID: s.user.ID, Title: "today", Amount: decimal.NewFromInt(1), DueDate: dueOn(10)},
		{UserID: s.user.ID, Title: "in three days", Amount: decimal.NewFromInt(1), DueDate: dueOn(13)},
		{UserID: s.user.ID, Title: "in four days", Amount: decimal.NewFromInt(1), DueDate: dueOn(14)},
	} {
		s.Require().NoError(s.repos.Bill.Create(b))
	}

	due, err := s.repos.Bill.DueForReminder(now, 72*time.Hour, 24*time.Hour, 0)
	s.Require().NoError(err)
	titles := make([]string, 0, len(due))
	for _, b := range due {
		titles = append(titles, b.Title)
	}
	s.Equal([]string{"today", "in three days"}, titles)
}

func (s *RepositoryTestSuite) TestEntitlementUpsertReplaces() {
	product := "prod_1"
	end := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	first := &models.EntitlementState{UserID: s.user.ID, Subscribed: true, ProductID: &product, SubscriptionEnd: &end, Source: "billing", CheckedAt: time.Now().UTC()}
	s.Require().NoError(s.repos.Entitlement.Upsert(first))

	second := &models.EntitlementState{UserID: s.user.ID, Subscribed: false, Source: "none", CheckedAt: time.Now().UTC()}
	s.Require().NoError(s.repos.Entitlement.Upsert(second))

	got, err := s.repos.Entitlement.GetByUserID(s.user.ID)
	s.Require().NoError(err)
	s.False(got.Subscribed)
	s.Nil(got.ProductID)
	s.Nil(got.SubscriptionEnd)
	s.Equal("none", got.Source)

	var count int64
	s.Require().NoError(s.db.Model(&models.EntitlementState{}).Count(&count).Error)
	s.Equal(int64(1), count)

	s.Require().NoError(s.repos.Entitlement.DeleteByUserID(s.user.ID))
	_, err = s.repos.Entitlement.GetByUserID(s.user.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *RepositoryTestSuite) TestEntitlementListStale() {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.repos.Entitlement.Upsert(&models.EntitlementState{UserID: s.user.ID, Source: "none", CheckedAt: now.Add(-5 * time.Minute)}))
	s.Require().NoError(s.repos.Entitlement.Upsert(&models.EntitlementState{UserID: s.other.ID, Source: "none", CheckedAt: now}))

	stale, err := s.repos.Entitlement.ListStale(now.Add(-time.Minute), 0, 10)
	s.Require().NoError(err)
	s.Require().Len(stale, 1)
	s.Equal(s.user.ID, stale[0].UserID)

	stale, err = s.repos.Entitlement.ListStale(now.Add(-time.Minute), s.user.ID, 10)
	s.Require().NoError(err)
	s.Empty(stale)
}

func (s *RepositoryTestSuite) TestNotificationLog() {
	s.Require().NoError(models.CreateNotificationLog(s.db, s.user.ID, "", models.NotificationChannelSMS, "hi", models.NotificationStatusSent, "SM1"))
	s.Require().NoError(models.CreateNotificationLog(s.db, s.other.ID, "bill_reminder", models.NotificationChannelEmail, "x", models.NotificationStatusSent, ""))

	entries, err := s.repos.Notification.ListByUser(s.user.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(models.NotificationTypeGeneral, entries[0].NotificationType)
	s.Equal("SM1", entries[0].ProviderMessageID)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func TestSettingsSaveRejectsInvalidPhone(t *testing.T) {
	db, err := database.NewSQLiteMemory(uuid.NewString())
	require.NoError(t, err)
	repo := NewSettingsRepository(db)

	us, err := repo.GetOrCreate(42)
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, us.Plan)
	assert.True(t, us.BillReminders)

	us.PhoneNumber = "12345"
	assert.Error(t, repo.Save(us))
}
