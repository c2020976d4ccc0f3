package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
)

func TestCaseAccessControl(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	assigned := createTestUser(t, db, models.RoleCollections)
	other := createTestUser(t, db, models.RoleCollections)
	admin := createTestUser(t, db, models.RoleAdmin)

	contract := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, contract.ID, 1, 20)
	kase, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)
	require.Equal(t, assigned.ID, *kase.CollectorID)

	// The assigned collector and admins can read the case
	_, err = svcs.Case.Get(ctx, assigned.ID, assigned.Role, kase.ID)
	assert.NoError(t, err)
	_, err = svcs.Case.Get(ctx, admin.ID, admin.Role, kase.ID)
	assert.NoError(t, err)

	// Another collector and the sales owner cannot
	_, err = svcs.Case.Get(ctx, other.ID, other.Role, kase.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svcs.Case.Get(ctx, owner.ID, owner.Role, kase.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCaseListScopesCollectorsToTheirPortfolio(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	first := createTestUser(t, db, models.RoleCollections)
	second := createTestUser(t, db, models.RoleCollections)

	// Two overdue contracts, balanced across the two collectors
	for i := 0; i < 2; i++ {
		contract := createTestContract(t, db, svcs, owner.ID)
		backdateInstallments(t, db, contract.ID, 1, 15)
		_, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
		require.NoError(t, err)
	}

	query := &repository.CaseQuery{ListQuery: repository.NewListQuery()}
	mine, total, err := svcs.Case.List(ctx, first.ID, first.Role, query)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, *mine[0].CollectorID)

	// Even an explicit filter for someone else's cases is overridden
	query = &repository.CaseQuery{ListQuery: repository.NewListQuery(), CollectorID: second.ID}
	mine, _, err = svcs.Case.List(ctx, first.ID, first.Role, query)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, *mine[0].CollectorID)

	// Admins see everything
	all, total, err := svcs.Case.List(ctx, 0, models.RoleAdmin, &repository.CaseQuery{ListQuery: repository.NewListQuery()})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	// Sales agents see nothing
	_, _, err = svcs.Case.List(ctx, owner.ID, owner.Role, &repository.CaseQuery{ListQuery: repository.NewListQuery()})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRecordContact(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	collector := createTestUser(t, db, models.RoleCollections)
	contract := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, contract.ID, 1, 20)
	kase, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)

	followUp := time.Now().AddDate(0, 0, 2)
	contact, err := svcs.Case.RecordContact(ctx, collector.ID, collector.Role, kase.ID, ContactInput{
		Method:     models.ContactMethodCall,
		Outcome:    models.ContactOutcomePaymentPromise,
		Notes:      "promete pagar el viernes",
		Agreements: "abono del 50% esta semana",
		FollowUpAt: &followUp,
	})
	require.NoError(t, err)
	assert.Equal(t, collector.ID, contact.CollectorID)
	assert.False(t, contact.ContactedAt.IsZero())
	assert.True(t, contact.FollowUpRequired)

	// The follow-up date becomes the case's next scheduled contact
	var reloaded models.CollectionCase
	require.NoError(t, db.First(&reloaded, kase.ID).Error)
	require.NotNil(t, reloaded.NextContactAt)
	assert.Equal(t, models.ContactMethodCall, reloaded.NextContactMethod)

	contacts, err := svcs.Case.Contacts(ctx, collector.ID, collector.Role, kase.ID)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
}

func TestRecordContactValidatesMethodAndOutcome(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	collector := createTestUser(t, db, models.RoleCollections)
	contract := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, contract.ID, 1, 20)
	kase, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)

	_, err = svcs.Case.RecordContact(ctx, collector.ID, collector.Role, kase.ID, ContactInput{
		Method:  "paloma mensajera",
		Outcome: "tal vez",
	})
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "medio de contacto")
	assert.Contains(t, verr.Fields, "resultado de contacto")
}

func TestRecordContactRejectedOnClosedCase(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	collector := createTestUser(t, db, models.RoleCollections)
	contract := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, contract.ID, 1, 20)
	kase, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.CollectionCase{}).
		Where("id = ?", kase.ID).
		Updates(map[string]interface{}{"status": models.CaseStatusClosed, "close_reason": models.CaseCloseReasonCured}).Error)

	_, err = svcs.Case.RecordContact(ctx, collector.ID, collector.Role, kase.ID, ContactInput{
		Method:  models.ContactMethodCall,
		Outcome: models.ContactOutcomeReached,
	})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReassignRules(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	assigned := createTestUser(t, db, models.RoleCollections)
	other := createTestUser(t, db, models.RoleCollections)
	admin := createTestUser(t, db, models.RoleAdmin)

	contract := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, contract.ID, 1, 20)
	kase, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)
	require.Equal(t, assigned.ID, *kase.CollectorID)

	// A collector cannot hand the case to someone else
	_, err = svcs.Case.Reassign(ctx, assigned.ID, assigned.Role, kase.ID, other.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// But may take a case for themselves
	taken, err := svcs.Case.Reassign(ctx, other.ID, other.Role, kase.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, *taken.CollectorID)

	// Admins assign freely, but never to someone outside collections
	_, err = svcs.Case.Reassign(ctx, admin.ID, admin.Role, kase.ID, owner.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	back, err := svcs.Case.Reassign(ctx, admin.ID, admin.Role, kase.ID, assigned.ID)
	require.NoError(t, err)
	assert.Equal(t, assigned.ID, *back.CollectorID)
}

func TestCollectorDashboard(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	collector := createTestUser(t, db, models.RoleCollections)

	contract := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, contract.ID, 1, 40)
	kase, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)

	_, err = svcs.Case.RecordContact(ctx, collector.ID, collector.Role, kase.ID, ContactInput{
		Method:  models.ContactMethodWhatsApp,
		Outcome: models.ContactOutcomeReached,
	})
	require.NoError(t, err)

	dash, err := svcs.Case.CollectorDashboard(ctx, collector.ID, collector.Role, collector.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, dash.OpenByBucket[models.Bucket60])
	assert.EqualValues(t, 1, dash.ContactsToday)
	assert.EqualValues(t, 0, dash.ActiveArrangements)

	// Collectors cannot peek at a colleague's dashboard
	peer := createTestUser(t, db, models.RoleCollections)
	_, err = svcs.Case.CollectorDashboard(ctx, peer.ID, peer.Role, collector.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
