package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet-engine/internal/domain"
	apperrors "timesheet-engine/internal/errors"
	"timesheet-engine/internal/logging"
)

type fakeRow struct {
	values []interface{}
	err    error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = r.values[i].(string)
		case *bool:
			*ptr = r.values[i].(bool)
		default:
			if s, ok := d.(interface{ Scan(interface{}) error }); ok {
				if err := s.Scan(r.values[i]); err != nil {
					return err
				}
				continue
			}
			return errors.New("unsupported destination")
		}
	}
	return nil
}

func TestScanPresence(t *testing.T) {
	in := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	out := time.Date(2024, 1, 15, 17, 30, 0, 0, time.UTC)

	p, err := scanPresence(fakeRow{values: []interface{}{
		"p-1", "t1", "emp-1", "2024-01-15", in, out,
		`[{"start":"2024-01-15T12:00:00Z","end":"2024-01-15T12:30:00Z"}]`,
		"present", true, false, false, 7.5, "late bus",
	}})
	require.NoError(t, err)

	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, "2024-01-15", p.Date)
	require.NotNil(t, p.ClockInTime)
	assert.True(t, p.ClockInTime.Equal(in))
	require.NotNil(t, p.ClockOutTime)
	assert.True(t, p.ClockOutTime.Equal(out))
	require.Len(t, p.Breaks, 1)
	assert.InDelta(t, 30.0, p.TotalBreakMinutes(), 0.001)
	assert.Equal(t, domain.PresencePresent, p.Status)
	assert.True(t, p.Late)
	require.NotNil(t, p.ActualWorkHours)
	assert.Equal(t, 7.5, *p.ActualWorkHours)
}

func TestScanPresence_NullClockTimes(t *testing.T) {
	p, err := scanPresence(fakeRow{values: []interface{}{
		"p-2", "t1", "emp-1", "2024-01-16", nil, nil, "[]", "absent", false, false, false, nil, "",
	}})
	require.NoError(t, err)
	assert.Nil(t, p.ClockInTime)
	assert.Nil(t, p.ClockOutTime)
	assert.Nil(t, p.ActualWorkHours)
	assert.Empty(t, p.Breaks)
	assert.Equal(t, domain.PresenceAbsent, p.Status)
}

func TestNewPresenceSource_RequiresDSN(t *testing.T) {
	_, err := NewPresenceSource(context.Background(), "", logging.Discard())
	assert.Error(t, err)
}

func TestUnavailable(t *testing.T) {
	s := &PresenceSource{log: logging.Discard()}

	err := s.unavailable("list presence", errors.New("connection refused"))
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeUnavailable))

	err = s.unavailable("list presence", context.DeadlineExceeded)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeTimeout))
}
