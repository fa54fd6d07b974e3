package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/telehealth-api/internal/model"
	"github.com/carelink/telehealth-api/internal/repository/postgres"
	apperrors "github.com/carelink/telehealth-api/pkg/errors"
	"github.com/carelink/telehealth-api/pkg/lock"
	"github.com/carelink/telehealth-api/pkg/payment"
)

type fakeAppointmentRepo struct {
	appointments []*model.Appointment
	hasConflict  bool
	createErr    error
	created      int
}

func (f *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	apt.ID = uuid.New()
	f.appointments = append(f.appointments, apt)
	f.created++
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	for _, a := range f.appointments {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.New("appointment not found")
}

func (f *fakeAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus, cancelReason *string) error {
	for _, a := range f.appointments {
		if a.ID == id {
			a.Status = status
			a.CancelReason = cancelReason
			return nil
		}
	}
	return errors.New("appointment not found")
}

func (f *fakeAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	return f.appointments, nil
}

func (f *fakeAppointmentRepo) ListForDoctorBetween(_ context.Context, _ uuid.UUID, start, end time.Time) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range f.appointments {
		if a.StartTime.Before(end) && a.EndTime.After(start) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) CheckConflict(_ context.Context, _ uuid.UUID, _, _ time.Time) (bool, error) {
	return f.hasConflict, nil
}

func (f *fakeAppointmentRepo) MarkInProgressDue(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, a := range f.appointments {
		if a.Status == model.AppointmentStatusScheduled && !a.StartTime.After(now) && a.EndTime.After(now) {
			a.Status = model.AppointmentStatusInProgress
			n++
		}
	}
	return n, nil
}

func (f *fakeAppointmentRepo) MarkCompletedDue(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, a := range f.appointments {
		if (a.Status == model.AppointmentStatusScheduled || a.Status == model.AppointmentStatusInProgress) && !a.EndTime.After(now) {
			a.Status = model.AppointmentStatusCompleted
			n++
		}
	}
	return n, nil
}

type fakeAvailabilityRepo struct {
	rows []*model.Availability
}

func (f *fakeAvailabilityRepo) Create(_ context.Context, a *model.Availability) error {
	f.rows = append(f.rows, a)
	return nil
}
func (f *fakeAvailabilityRepo) Get(context.Context, uuid.UUID) (*model.Availability, error) {
	return nil, errors.New("not found")
}
func (f *fakeAvailabilityRepo) Delete(context.Context, uuid.UUID) error { return nil }
func (f *fakeAvailabilityRepo) List(context.Context, uuid.UUID) ([]*model.Availability, error) {
	return f.rows, nil
}
func (f *fakeAvailabilityRepo) ListForDate(context.Context, uuid.UUID, time.Time) ([]*model.Availability, error) {
	return f.rows, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (f *fakeUserRepo) Create(context.Context, *model.User) error { return nil }
func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}
func (f *fakeUserRepo) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, errors.New("user not found")
}
func (f *fakeUserRepo) ListDoctors(context.Context, *model.UserFilters) ([]*model.User, error) {
	return nil, nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, e *model.OutboxEvent) error {
	f.events = append(f.events, e)
	return nil
}
func (f *fakeOutboxRepo) GetPendingEvents(context.Context, int) ([]*model.OutboxEvent, error) {
	return f.events, nil
}
func (f *fakeOutboxRepo) MarkProcessed(context.Context, uuid.UUID) error      { return nil }
func (f *fakeOutboxRepo) MarkFailed(context.Context, uuid.UUID, string) error { return nil }

type fakeLocker struct {
	acquired bool
	calls    int
}

func (f *fakeLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(context.Context) error) error {
	f.calls++
	if !f.acquired {
		return lock.ErrNotAcquired
	}
	return fn(ctx)
}

type fakeGateway struct {
	err   error
	calls int
}

func (f *fakeGateway) InitializeTransaction(_ context.Context, req *payment.InitializeRequest) (*payment.InitializeResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &payment.InitializeResponse{
		AuthorizationURL: "https://pay.example.com/" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

type fakeNotifier struct {
	confirmations int
	cancellations int
}

func (f *fakeNotifier) SendBookingConfirmation(context.Context, *model.User, *model.User, *model.Appointment) error {
	f.confirmations++
	return nil
}
func (f *fakeNotifier) SendCancellation(context.Context, *model.User, *model.Appointment) error {
	f.cancellations++
	return nil
}

type fixture struct {
	svc       *Service
	repo      *fakeAppointmentRepo
	availRepo *fakeAvailabilityRepo
	userRepo  *fakeUserRepo
	outbox    *fakeOutboxRepo
	locker    *fakeLocker
	gateway   *fakeGateway
	notifier  *fakeNotifier
	doctorID  uuid.UUID
	patientID uuid.UUID
}

func newFixture() *fixture {
	doctorID := uuid.New()
	patientID := uuid.New()
	price := 100.0
	monday := 1

	f := &fixture{
		repo: &fakeAppointmentRepo{},
		// Monday mornings, hourly slots. Booking requests must land on
		// one of the slots this window resolves to.
		availRepo: &fakeAvailabilityRepo{rows: []*model.Availability{{
			DoctorID:        doctorID,
			DayOfWeek:       &monday,
			IsRecurring:     true,
			StartTime:       "09:00",
			EndTime:         "12:00",
			IntervalMinutes: 60,
		}}},
		userRepo: &fakeUserRepo{users: map[uuid.UUID]*model.User{
			doctorID: {
				Base:         model.Base{ID: doctorID},
				Email:        "doctor@example.com",
				Role:         model.UserRoleDoctor,
				PricePerHour: &price,
			},
			patientID: {
				Base:  model.Base{ID: patientID},
				Email: "patient@example.com",
				Role:  model.UserRolePatient,
			},
		}},
		outbox:    &fakeOutboxRepo{},
		locker:    &fakeLocker{acquired: true},
		gateway:   &fakeGateway{},
		notifier:  &fakeNotifier{},
		doctorID:  doctorID,
		patientID: patientID,
	}
	f.svc = NewService(f.repo, f.availRepo, f.userRepo, f.outbox, f.locker, f.gateway, f.notifier, nil)
	f.svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func validRequest(doctorID uuid.UUID) *model.BookAppointmentRequest {
	start := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC) // a Monday
	return &model.BookAppointmentRequest{
		DoctorID:  doctorID,
		Reason:    "persistent headaches",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Amount:    "100.00",
	}
}

func TestBook_Success(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Book(context.Background(), f.patientID, validRequest(f.doctorID))

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.AuthorizationURL)
	assert.Equal(t, "100.00", resp.Appointment.Amount)
	assert.Equal(t, model.AppointmentStatusScheduled, resp.Appointment.Status)
	assert.Equal(t, 1, resp.Appointment.DayOfWeek, "day of week is derived from the slot start")
	assert.Equal(t, 1, f.repo.created)
	assert.Equal(t, 1, f.notifier.confirmations)

	// appointment_created plus slots_invalidated
	require.Len(t, f.outbox.events, 2)
	assert.Equal(t, "appointment_created", f.outbox.events[0].EventType)
	assert.Equal(t, "slots_invalidated", f.outbox.events[1].EventType)
}

func TestBook_EmptyReasonRejectedBeforeSideEffects(t *testing.T) {
	f := newFixture()

	for _, reason := range []string{"", "   ", "\t\n"} {
		req := validRequest(f.doctorID)
		req.Reason = reason

		_, err := f.svc.Book(context.Background(), f.patientID, req)

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	}

	assert.Zero(t, f.repo.created, "no appointment may be created")
	assert.Zero(t, f.locker.calls, "lock must not be touched")
	assert.Zero(t, f.gateway.calls, "gateway must not be called")
}

func TestBook_NoSlotSelectedRejected(t *testing.T) {
	f := newFixture()
	req := validRequest(f.doctorID)
	req.StartTime = time.Time{}
	req.EndTime = time.Time{}

	_, err := f.svc.Book(context.Background(), f.patientID, req)

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Equal(t, "no slot selected", appErr.Message)
	assert.Zero(t, f.gateway.calls)
}

func TestBook_OutsideAvailabilityRejected(t *testing.T) {
	f := newFixture()
	f.availRepo.rows = nil

	_, err := f.svc.Book(context.Background(), f.patientID, validRequest(f.doctorID))

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Zero(t, f.repo.created, "no appointment outside declared availability")
	assert.Zero(t, f.locker.calls)
	assert.Zero(t, f.gateway.calls)
}

func TestBook_MisalignedTimeRejected(t *testing.T) {
	f := newFixture()
	req := validRequest(f.doctorID)
	// Inside the 09:00-12:00 window but not on an hourly slot boundary.
	req.StartTime = time.Date(2024, 6, 3, 10, 30, 0, 0, time.UTC)
	req.EndTime = req.StartTime.Add(time.Hour)

	_, err := f.svc.Book(context.Background(), f.patientID, req)

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Zero(t, f.repo.created)
}

func TestBook_AlreadyBookedSlotRejected(t *testing.T) {
	f := newFixture()
	f.repo.appointments = []*model.Appointment{{
		DoctorID:  f.doctorID,
		StartTime: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 6, 3, 11, 0, 0, 0, time.UTC),
		Status:    model.AppointmentStatusScheduled,
	}}

	_, err := f.svc.Book(context.Background(), f.patientID, validRequest(f.doctorID))

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Zero(t, f.repo.created)
	assert.Zero(t, f.gateway.calls)
}

func TestBook_CancelledAppointmentFreesSlot(t *testing.T) {
	f := newFixture()
	f.repo.appointments = []*model.Appointment{{
		DoctorID:  f.doctorID,
		StartTime: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 6, 3, 11, 0, 0, 0, time.UTC),
		Status:    model.AppointmentStatusCancelled,
	}}

	resp, err := f.svc.Book(context.Background(), f.patientID, validRequest(f.doctorID))

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 1, f.repo.created)
}

func TestBook_PastSlotRejected(t *testing.T) {
	f := newFixture()
	f.svc.now = func() time.Time { return time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC) }

	_, err := f.svc.Book(context.Background(), f.patientID, validRequest(f.doctorID))

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Zero(t, f.repo.created)
}

func TestBook_AmountMismatchRejected(t *testing.T) {
	f := newFixture()
	req := validRequest(f.doctorID)
	req.Amount = "50.00"

	_, err := f.svc.Book(context.Background(), f.patientID, req)

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Zero(t, f.repo.created)
}

func TestBook_ConflictingSlotRejected(t *testing.T) {
	f := newFixture()
	f.repo.hasConflict = true

	_, err := f.svc.Book(context.Background(), f.patientID, validRequest(f.doctorID))

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Zero(t, f.repo.created)
	assert.Zero(t, f.gateway.calls)
}

func TestBook_DuplicateSlotConstraintMapsToConflict(t *testing.T) {
	f := newFixture()
	f.repo.createErr = postgres.ErrDuplicateSlot

	_, err := f.svc.Book(context.Background(), f.patientID, validRequest(f.doctorID))

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestBook_LockNotAcquiredMapsToConflict(t *testing.T) {
	f := newFixture()
	f.locker.acquired = false

	_, err := f.svc.Book(context.Background(), f.patientID, validRequest(f.doctorID))

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Zero(t, f.repo.created)
}

func TestBook_PaymentFailureIsDistinctAndKeepsAppointment(t *testing.T) {
	f := newFixture()
	f.gateway.err = errors.New("gateway down")

	_, err := f.svc.Book(context.Background(), f.patientID, validRequest(f.doctorID))

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrPaymentInit, appErr.Code)
	assert.Equal(t, 1, f.repo.created, "appointment must survive payment failure")
}

func TestUpdateStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    model.AppointmentStatus
		to      model.AppointmentStatus
		allowed bool
	}{
		{"scheduled to in_progress", model.AppointmentStatusScheduled, model.AppointmentStatusInProgress, true},
		{"scheduled to cancelled", model.AppointmentStatusScheduled, model.AppointmentStatusCancelled, true},
		{"scheduled to completed skips in_progress", model.AppointmentStatusScheduled, model.AppointmentStatusCompleted, false},
		{"in_progress to completed", model.AppointmentStatusInProgress, model.AppointmentStatusCompleted, true},
		{"in_progress to cancelled", model.AppointmentStatusInProgress, model.AppointmentStatusCancelled, false},
		{"completed is terminal", model.AppointmentStatusCompleted, model.AppointmentStatusInProgress, false},
		{"cancelled is terminal", model.AppointmentStatusCancelled, model.AppointmentStatusScheduled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			apt := &model.Appointment{
				DoctorID:  f.doctorID,
				PatientID: f.patientID,
				StartTime: time.Now().Add(time.Hour),
				EndTime:   time.Now().Add(2 * time.Hour),
				Status:    tt.from,
			}
			require.NoError(t, f.repo.Create(context.Background(), apt))

			err := f.svc.UpdateStatus(context.Background(), f.patientID, apt.ID, &model.UpdateAppointmentStatusRequest{Status: tt.to})

			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, apt.Status)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.from, apt.Status)
			}
		})
	}
}

func TestUpdateStatus_OtherUsersAppointmentForbidden(t *testing.T) {
	f := newFixture()
	apt := &model.Appointment{
		DoctorID:  f.doctorID,
		PatientID: f.patientID,
		Status:    model.AppointmentStatusScheduled,
	}
	require.NoError(t, f.repo.Create(context.Background(), apt))

	err := f.svc.UpdateStatus(context.Background(), uuid.New(), apt.ID, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusCancelled,
	})

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestUpdateStatus_CancellationInvalidatesSlots(t *testing.T) {
	f := newFixture()
	apt := &model.Appointment{
		DoctorID:  f.doctorID,
		PatientID: f.patientID,
		StartTime: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 6, 3, 11, 0, 0, 0, time.UTC),
		Status:    model.AppointmentStatusScheduled,
	}
	require.NoError(t, f.repo.Create(context.Background(), apt))

	err := f.svc.UpdateStatus(context.Background(), f.patientID, apt.ID, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusCancelled,
	})

	require.NoError(t, err)
	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, "slots_invalidated", f.outbox.events[0].EventType)
	assert.Contains(t, string(f.outbox.events[0].Payload), "2024-06-03")
	assert.Equal(t, 1, f.notifier.cancellations, "patient is told the appointment was cancelled")
}

func TestGetTimeSlots_ResolvesAgainstBookings(t *testing.T) {
	f := newFixture()
	dow := 1
	f.availRepo.rows = []*model.Availability{{
		DoctorID:        f.doctorID,
		DayOfWeek:       &dow,
		IsRecurring:     true,
		StartTime:       "09:00",
		EndTime:         "12:00",
		IntervalMinutes: 60,
	}}
	f.repo.appointments = []*model.Appointment{{
		DoctorID:  f.doctorID,
		StartTime: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 6, 3, 11, 0, 0, 0, time.UTC),
		Status:    model.AppointmentStatusScheduled,
	}}

	slots, err := f.svc.GetTimeSlots(context.Background(), f.doctorID, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, model.SlotStatusOpen, slots[0].Status)
	assert.Equal(t, model.SlotStatusBooked, slots[1].Status)
	assert.Equal(t, model.SlotStatusOpen, slots[2].Status)
}

func TestListGrouped_BucketsByDate(t *testing.T) {
	f := newFixture()
	mk := func(day, hour int) *model.Appointment {
		return &model.Appointment{
			DoctorID:  f.doctorID,
			PatientID: f.patientID,
			StartTime: time.Date(2024, 6, day, hour, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2024, 6, day, hour+1, 0, 0, 0, time.UTC),
			Status:    model.AppointmentStatusScheduled,
		}
	}
	for _, apt := range []*model.Appointment{mk(3, 9), mk(3, 11), mk(5, 10)} {
		require.NoError(t, f.repo.Create(context.Background(), apt))
	}

	groups, err := f.svc.ListGrouped(context.Background(), &model.AppointmentFilters{PatientID: f.patientID})

	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "2024-06-03", groups[0].Date)
	assert.Len(t, groups[0].Appointments, 2)
	assert.Equal(t, "2024-06-05", groups[1].Date)
	assert.Len(t, groups[1].Appointments, 1)
}
