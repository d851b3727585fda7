package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
	"campusdrop/internal/logx"
	"campusdrop/internal/service/request"
)

// stubRequestUsecase embeds the interface so tests only stub what they call.
type stubRequestUsecase struct {
	requestUsecase

	createFn  func(ctx context.Context, in request.CreateInput) (domain.Request, error)
	advanceFn func(ctx context.Context, requestID, actorID uuid.UUID, target domain.RequestStatus) (domain.Request, error)
	activeFn  func(ctx context.Context, requesterID uuid.UUID) (*domain.Request, error)
	getFn     func(ctx context.Context, actorID, requestID uuid.UUID) (domain.Request, error)
}

func (s *stubRequestUsecase) CreateRequest(ctx context.Context, in request.CreateInput) (domain.Request, error) {
	return s.createFn(ctx, in)
}

func (s *stubRequestUsecase) AdvanceStatus(ctx context.Context, requestID, actorID uuid.UUID, target domain.RequestStatus) (domain.Request, error) {
	return s.advanceFn(ctx, requestID, actorID, target)
}

func (s *stubRequestUsecase) GetActiveForRequester(ctx context.Context, requesterID uuid.UUID) (*domain.Request, error) {
	return s.activeFn(ctx, requesterID)
}

func (s *stubRequestUsecase) Get(ctx context.Context, actorID, requestID uuid.UUID) (domain.Request, error) {
	return s.getFn(ctx, actorID, requestID)
}

func (s *stubRequestUsecase) ETA(*domain.Request) int { return 15 }

func TestRequestHandler_Create(t *testing.T) {
	t.Parallel()

	requesterID := uuid.New()
	preferred := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)
	uc := &stubRequestUsecase{
		createFn: func(_ context.Context, in request.CreateInput) (domain.Request, error) {
			require.Equal(t, requesterID, in.RequesterID)
			require.Equal(t, "Library", in.Pickup)
			require.Equal(t, "Hall B", in.Dropoff)
			require.True(t, preferred.Equal(in.PreferredTime))
			return domain.Request{
				ID: uuid.New(), RequesterID: in.RequesterID, Pickup: in.Pickup, Dropoff: in.Dropoff,
				Status: domain.StatusPending, FareRecommendation: 60, PreferredTime: in.PreferredTime,
			}, nil
		},
	}

	body := `{"pickup_location":"Library","dropoff_location":"Hall B","package_details":"books","preferred_time":"2025-04-02T12:00:00Z"}`
	rr := httptest.NewRecorder()
	NewRequestHandler(logx.Nop(), uc).Create(rr, newReq(http.MethodPost, "/api/requests", body, requesterID))

	require.Equal(t, http.StatusCreated, rr.Code)
	var got requestDTO
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "/api/requests/"+got.ID.String(), rr.Header().Get("Location"))
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.EqualValues(t, 60, got.FareRecommendation)
	assert.Equal(t, 15, got.ETAMinutes)
	assert.Nil(t, got.DeliveryPersonID)
}

func TestRequestHandler_Create_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"second active", `{"pickup_location":"a","dropoff_location":"b"}`, apperr.ErrConflict, http.StatusConflict, "you already have an active delivery request"},
		{"blank", `{"pickup_location":"","dropoff_location":"b"}`, apperr.ErrInvalid, http.StatusBadRequest, "invalid input"},
		{"wrong role", `{"pickup_location":"a","dropoff_location":"b"}`, apperr.ErrUnauthorized, http.StatusForbidden, "only requesters can create delivery requests"},
		{"bad json", `{"pickup_location":`, nil, http.StatusBadRequest, "invalid json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			uc := &stubRequestUsecase{
				createFn: func(context.Context, request.CreateInput) (domain.Request, error) {
					if tt.err == nil {
						t.Fatal("CreateRequest must not be called")
					}
					return domain.Request{}, tt.err
				},
			}
			rr := httptest.NewRecorder()
			NewRequestHandler(logx.Nop(), uc).Create(rr, newReq(http.MethodPost, "/", tt.body, uuid.New()))

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.msg, errorBody(t, rr))
		})
	}
}

func TestRequestHandler_Active_None(t *testing.T) {
	t.Parallel()

	uc := &stubRequestUsecase{
		activeFn: func(context.Context, uuid.UUID) (*domain.Request, error) { return nil, nil },
	}
	rr := httptest.NewRecorder()
	NewRequestHandler(logx.Nop(), uc).Active(rr, newReq(http.MethodGet, "/", "", uuid.New()))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `null`, rr.Body.String())
}

func TestRequestHandler_UpdateStatus(t *testing.T) {
	t.Parallel()

	dpID, id := uuid.New(), uuid.New()
	uc := &stubRequestUsecase{
		advanceFn: func(_ context.Context, rid, actorID uuid.UUID, target domain.RequestStatus) (domain.Request, error) {
			require.Equal(t, id, rid)
			require.Equal(t, dpID, actorID)
			require.Equal(t, domain.StatusPickedUp, target)
			return domain.Request{ID: rid, DeliveryPersonID: &dpID, Status: target}, nil
		},
	}
	rr := httptest.NewRecorder()
	NewRequestHandler(logx.Nop(), uc).
		UpdateStatus(rr, newReq(http.MethodPatch, "/", `{"status":"picked_up"}`, dpID, "id", id.String()))

	require.Equal(t, http.StatusOK, rr.Code)
	var got requestDTO
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, domain.StatusPickedUp, got.Status)
}

func TestRequestHandler_UpdateStatus_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"skip", apperr.ErrInvalidTransition, http.StatusConflict, "status cannot move from the current one to delivered"},
		{"raced", apperr.ErrInvalidState, http.StatusConflict, "request status changed, reload and retry"},
		{"stranger", apperr.ErrUnauthorized, http.StatusForbidden, "you cannot change the status of this request"},
		{"missing", apperr.ErrNotFound, http.StatusNotFound, "request not found"},
		{"storage", errors.New("conn refused"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			uc := &stubRequestUsecase{
				advanceFn: func(context.Context, uuid.UUID, uuid.UUID, domain.RequestStatus) (domain.Request, error) {
					return domain.Request{}, tt.err
				},
			}
			id := uuid.New()
			rr := httptest.NewRecorder()
			NewRequestHandler(logx.Nop(), uc).
				UpdateStatus(rr, newReq(http.MethodPatch, "/", `{"status":"delivered"}`, uuid.New(), "id", id.String()))

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.msg, errorBody(t, rr))
		})
	}
}

func TestRequestHandler_Get_BadID(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewRequestHandler(logx.Nop(), &stubRequestUsecase{}).
		Get(rr, newReq(http.MethodGet, "/", "", uuid.New(), "id", "not-a-uuid"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid id", errorBody(t, rr))
}
