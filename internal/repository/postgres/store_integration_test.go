//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
	"campusdrop/internal/ports/storetx"
	"campusdrop/internal/repository/postgres"
)

type StoreSuite struct {
	suite.Suite
	store *postgres.Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.store = postgres.NewStore(tcPool)
}

func (s *StoreSuite) SetupTest() {
	_, err := tcPool.Exec(s.ctx, `TRUNCATE users, requests, bids, notifications, payments, reviews CASCADE`)
	s.Require().NoError(err)
}

func (s *StoreSuite) user(role domain.Role) uuid.UUID {
	u := &domain.User{
		ID:                     uuid.New(),
		FullName:               string(role) + "-" + uuid.NewString()[:4],
		Role:                   role,
		IsDeliveryPersonActive: role == domain.RoleDeliveryPerson,
		CreatedAt:              time.Now().UTC(),
	}
	s.Require().NoError(s.store.InsertUser(s.ctx, u))
	return u.ID
}

func (s *StoreSuite) request(requester uuid.UUID) *domain.Request {
	now := time.Now().UTC().Truncate(time.Microsecond)
	r := &domain.Request{
		ID:                 uuid.New(),
		RequesterID:        requester,
		Pickup:             "Cafe A",
		Dropoff:            "Hall B",
		PackageDetails:     "2 coffees",
		PreferredTime:      now,
		Status:             domain.StatusPending,
		FareRecommendation: 50,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.Require().NoError(s.store.InsertRequest(s.ctx, r))
	return r
}

func (s *StoreSuite) bid(requestID, dp uuid.UUID, amount int64) *domain.Bid {
	b := &domain.Bid{
		ID:               uuid.New(),
		RequestID:        requestID,
		DeliveryPersonID: dp,
		Amount:           amount,
		Status:           domain.BidPending,
		CreatedAt:        time.Now().UTC(),
	}
	s.Require().NoError(s.store.InsertBid(s.ctx, b))
	return b
}

func (s *StoreSuite) TestRequestRoundTrip() {
	r := s.request(s.user(domain.RoleRequester))

	got, err := s.store.GetRequest(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(r.PackageDetails, got.PackageDetails)
	s.Equal(domain.StatusPending, got.Status)
	s.Nil(got.DeliveryPersonID)
	s.Nil(got.FinalFare)

	missing, err := s.store.GetRequest(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *StoreSuite) TestOneActiveRequestIndex() {
	requester := s.user(domain.RoleRequester)
	first := s.request(requester)

	dup := *first
	dup.ID = uuid.New()
	s.ErrorIs(s.store.InsertRequest(s.ctx, &dup), apperr.ErrConflict)

	ok, err := s.store.UpdateRequestStatus(s.ctx, first.ID, domain.StatusPending, domain.StatusCanceled)
	s.Require().NoError(err)
	s.True(ok)
	s.NoError(s.store.InsertRequest(s.ctx, &dup))
}

func (s *StoreSuite) TestBidUniquenessAndOrder() {
	r := s.request(s.user(domain.RoleRequester))
	dp1, dp2 := s.user(domain.RoleDeliveryPerson), s.user(domain.RoleDeliveryPerson)

	s.bid(r.ID, dp1, 100)
	s.bid(r.ID, dp2, 80)

	err := s.store.InsertBid(s.ctx, &domain.Bid{
		ID: uuid.New(), RequestID: r.ID, DeliveryPersonID: dp1, Amount: 60,
		Status: domain.BidPending, CreatedAt: time.Now(),
	})
	s.ErrorIs(err, apperr.ErrConflict)

	bids, err := s.store.ListBidsByRequest(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Require().Len(bids, 2)
	s.EqualValues(80, bids[0].Amount)
	s.EqualValues(100, bids[1].Amount)
}

func (s *StoreSuite) TestBidOnMissingRequest() {
	err := s.store.InsertBid(s.ctx, &domain.Bid{
		ID: uuid.New(), RequestID: uuid.New(), DeliveryPersonID: s.user(domain.RoleDeliveryPerson),
		Amount: 10, Status: domain.BidPending, CreatedAt: time.Now(),
	})
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *StoreSuite) TestConcurrentAcceptExactlyOneWins() {
	r := s.request(s.user(domain.RoleRequester))

	const n = 8
	bids := make([]*domain.Bid, n)
	for i := range bids {
		bids[i] = s.bid(r.ID, s.user(domain.RoleDeliveryPerson), int64(50+i))
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, b := range bids {
		wg.Add(1)
		go func(b *domain.Bid) {
			defer wg.Done()
			err := s.store.WithTx(s.ctx, func(q storetx.Queries) error {
				ok, err := q.AssignRequest(s.ctx, r.ID, b.DeliveryPersonID, b.ID, b.Amount)
				if err != nil {
					return err
				}
				if !ok {
					return apperr.ErrInvalidState
				}
				if _, err := q.AcceptBid(s.ctx, b.ID); err != nil {
					return err
				}
				_, err = q.RejectSiblingBids(s.ctx, r.ID, b.ID)
				return err
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(b)
	}
	wg.Wait()
	s.Equal(1, wins)

	got, err := s.store.GetRequest(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusAssigned, got.Status)

	all, err := s.store.ListBidsByRequest(s.ctx, r.ID)
	s.Require().NoError(err)
	accepted := 0
	for _, b := range all {
		if b.Status == domain.BidAccepted {
			accepted++
			s.Equal(*got.SelectedBidID, b.ID)
		} else {
			s.Equal(domain.BidRejected, b.Status)
		}
	}
	s.Equal(1, accepted)
}

func (s *StoreSuite) TestWithTxRollback() {
	requester := s.user(domain.RoleRequester)
	err := s.store.WithTx(s.ctx, func(q storetx.Queries) error {
		r := &domain.Request{
			ID: uuid.New(), RequesterID: requester, Status: domain.StatusPending,
			PreferredTime: time.Now(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}
		if err := q.InsertRequest(s.ctx, r); err != nil {
			return err
		}
		return apperr.ErrInvalid
	})
	s.ErrorIs(err, apperr.ErrInvalid)

	active, err := s.store.GetActiveRequest(s.ctx, requester)
	s.Require().NoError(err)
	s.Nil(active)
}

func (s *StoreSuite) TestNotificationsAndCounts() {
	recipient := s.user(domain.RoleRequester)
	r := s.request(recipient)
	now := time.Now().UTC()

	batch := []domain.Notification{
		{ID: uuid.New(), RecipientID: recipient, Type: domain.NotifNewBid, RequestID: &r.ID, Message: "a", CreatedAt: now},
		{ID: uuid.New(), RecipientID: recipient, Type: domain.NotifNewBid, Message: "b", CreatedAt: now.Add(time.Second)},
	}
	s.Require().NoError(s.store.InsertNotifications(s.ctx, batch))

	got, err := s.store.ListNotifications(s.ctx, recipient, 50)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("b", got[0].Message)
	s.Require().NotNil(got[1].RequestID)
	s.Equal(r.ID, *got[1].RequestID)

	n, err := s.store.MarkAllNotificationsRead(s.ctx, recipient)
	s.Require().NoError(err)
	s.EqualValues(2, n)

	byRole, err := s.store.CountUsersByRole(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, byRole[domain.RoleRequester])

	byStatus, err := s.store.CountRequestsByStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, byStatus[domain.StatusPending])
}

func (s *StoreSuite) TestPaymentAndReviewUniqueness() {
	requester := s.user(domain.RoleRequester)
	dp := s.user(domain.RoleDeliveryPerson)
	r := s.request(requester)

	p := &domain.Payment{ID: uuid.New(), RequestID: r.ID, Amount: 80, Method: domain.PaymentCash, Status: domain.PaymentCompleted, CreatedAt: time.Now()}
	s.Require().NoError(s.store.InsertPayment(s.ctx, p))
	p2 := *p
	p2.ID = uuid.New()
	s.ErrorIs(s.store.InsertPayment(s.ctx, &p2), apperr.ErrConflict)

	rv := &domain.Review{ID: uuid.New(), RequestID: r.ID, ReviewerID: requester, RevieweeID: dp, Rating: 4, CreatedAt: time.Now()}
	s.Require().NoError(s.store.InsertReview(s.ctx, rv))
	rv2 := *rv
	rv2.ID = uuid.New()
	s.ErrorIs(s.store.InsertReview(s.ctx, &rv2), apperr.ErrConflict)

	reviews, err := s.store.ListReviewsFor(s.ctx, dp)
	s.Require().NoError(err)
	s.Len(reviews, 1)
}
